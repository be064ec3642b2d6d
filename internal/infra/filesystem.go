package infra

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// Paths resolves the paths named by delete_path, file_content and the
// blocklist presets. A leading ~ is the user's home and a path holding
// glob metacharacters addresses every match.
type Paths struct {
	home string
}

func NewPaths() *Paths {
	home, _ := os.UserHomeDir()
	return &Paths{home: home}
}

// NewPathsAt resolves ~ to home.
func NewPathsAt(home string) *Paths {
	return &Paths{home: home}
}

// Exists reports whether path, or any match of a pattern, is present.
func (p *Paths) Exists(path string) bool {
	matches, err := p.resolve(path)
	return err == nil && len(matches) > 0
}

// Delete removes every match recursively. The home directory and the
// filesystem root are never removed.
func (p *Paths) Delete(path string) error {
	matches, err := p.resolve(path)
	if err != nil {
		return err
	}
	var errs []error
	for _, match := range matches {
		if p.protected(match) {
			errs = append(errs, fmt.Errorf("refusing to delete %s", match))
			continue
		}
		if err := os.RemoveAll(match); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Paths) ExpandHome(path string) string {
	switch {
	case path == "~":
		return p.home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(p.home, path[2:])
	}
	return path
}

func (p *Paths) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(p.ExpandHome(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// resolve returns the existing paths addressed by path.
func (p *Paths) resolve(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.NewConfigError("path", "an empty path addresses nothing")
	}
	expanded := p.ExpandHome(path)
	if strings.ContainsAny(expanded, "*?[") {
		return filepath.Glob(expanded)
	}
	if _, err := os.Lstat(expanded); err != nil {
		return nil, nil
	}
	return []string{expanded}, nil
}

func (p *Paths) protected(path string) bool {
	clean := filepath.Clean(path)
	return clean == string(filepath.Separator) || (p.home != "" && clean == filepath.Clean(p.home))
}

var _ domain.FileSystemManager = (*Paths)(nil)
