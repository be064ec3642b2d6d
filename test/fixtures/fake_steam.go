// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
)

// FakeSteamStructure creates a directory structure mimicking a Linux
// Steam installation under HomeDir.
type FakeSteamStructure struct {
	HomeDir string
}

// NewFakeSteamStructure creates a new fake Steam structure generator.
func NewFakeSteamStructure(homeDir string) *FakeSteamStructure {
	return &FakeSteamStructure{HomeDir: homeDir}
}

// Create creates the fake Steam directory structure.
func (f *FakeSteamStructure) Create() error {
	paths := []string{
		// Steam runtime
		filepath.Join(f.HomeDir, ".steam/steam"),
		filepath.Join(f.HomeDir, ".local/share/Steam/config"),

		// Dota 2 specific
		filepath.Join(f.HomeDir, ".local/share/Steam/steamapps/common/dota 2 beta/game"),
		filepath.Join(f.HomeDir, ".local/share/Steam/steamapps/workshop/content/570"),
	}

	for _, p := range paths {
		if err := os.MkdirAll(p, 0755); err != nil {
			return err
		}
		// Create a marker file to verify deletion
		markerFile := filepath.Join(p, ".marker")
		if err := os.WriteFile(markerFile, []byte("test"), 0644); err != nil {
			return err
		}
	}

	// A downloaded installer, matched by glob
	downloads := filepath.Join(f.HomeDir, "Downloads")
	if err := os.MkdirAll(downloads, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(downloads, "steam_latest.deb"), []byte("deb"), 0644)
}

// Exists checks if the Steam directory structure exists.
func (f *FakeSteamStructure) Exists() bool {
	for _, p := range []string{".steam", ".local/share/Steam", "Downloads/steam_latest.deb"} {
		if _, err := os.Stat(filepath.Join(f.HomeDir, p)); err == nil {
			return true
		}
	}
	return false
}

// Dota2Exists checks if the Dota 2 directory exists.
func (f *FakeSteamStructure) Dota2Exists() bool {
	dotaPath := filepath.Join(f.HomeDir, ".local/share/Steam/steamapps/common/dota 2 beta")
	_, err := os.Stat(dotaPath)
	return err == nil
}

// SteamRootExists reports whether the shared Steam data directory survives.
func (f *FakeSteamStructure) SteamRootExists() bool {
	_, err := os.Stat(filepath.Join(f.HomeDir, ".local/share/Steam"))
	return err == nil
}
