package policy

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

// Blocklist kills matching processes and deletes matching paths on every
// tick, regardless of the current activity.
type Blocklist struct {
	plugin.OrchestratorTraits
	proxy plugin.Proxy

	name  string
	paths []string
	scans []plugin.AsyncWorker
}

// NewBlocklist resolves presets and makes one background scan per
// process pattern.
func NewBlocklist(c *plugin.Context, spec BlocklistSpec) (*Blocklist, error) {
	spec, err := ResolvePreset(spec)
	if err != nil {
		return nil, err
	}
	if spec.Name == "" {
		return nil, domain.NewConfigError("blocklist.name", "must not be empty")
	}
	if len(spec.Processes) == 0 && len(spec.Paths) == 0 {
		return nil, domain.NewConfigError("blocklist."+spec.Name, "needs processes or paths")
	}

	b := &Blocklist{name: spec.Name, paths: spec.Paths}
	for _, pattern := range spec.Processes {
		w, err := c.Make(domain.RoleReporter, "matching_processes",
			domain.Options{"pattern": pattern, "rule": spec.Name})
		if err != nil {
			return nil, err
		}
		scan, ok := w.(plugin.AsyncWorker)
		if !ok {
			return nil, domain.NewConfigError("blocklist."+spec.Name, "matching_processes is not asynchronous")
		}
		b.scans = append(b.scans, scan)
	}
	b.proxy = plugin.NewProxy(c, b)
	return b, nil
}

func (b *Blocklist) Identifier() string { return b.name }

// Run kills what finished scans found, then deletes paths.
func (b *Blocklist) Run(ctx context.Context, args domain.Args) (any, error) {
	logger := b.proxy.Logger()
	var errs []error

	for _, scan := range b.scans {
		v, err := plugin.Evaluate(ctx, logger, scan, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pids, ok := v.([]int)
		if !ok {
			continue // still scanning
		}
		for _, pid := range pids {
			killed, err := b.proxy.Fix(ctx, "kill_process", domain.Args{"pid": pid})
			if err != nil {
				logger.Warn("failed to kill process", zap.Int("pid", pid), zap.Error(err))
				errs = append(errs, err)
				continue
			}
			if ok, _ := killed.(bool); ok {
				logger.Info("killed process", zap.Int("pid", pid))
			}
		}
		scan.Reset()
	}

	for _, path := range b.paths {
		deleted, err := b.proxy.Fix(ctx, "delete_path", domain.Args{"path": path})
		if err != nil {
			logger.Warn("failed to delete path", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if ok, _ := deleted.(bool); ok {
			logger.Info("deleted path", zap.String("path", path))
		}
	}

	return nil, errors.Join(errs...)
}
