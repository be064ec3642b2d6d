package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/actor/internal/config"
	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/infra"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
	"github.com/eliteGoblin/focusd/actor/internal/usecase"
)

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// newDeps wires the desktop collaborators. store may be nil for commands
// that never touch tracker records.
func newDeps(cfg *config.Config, store domain.TrackerStore) plugin.Deps {
	return plugin.Deps{
		Processes:   infra.NewProcessManager(),
		FileSystem:  infra.NewPaths(),
		Windows:     infra.NewWindowInspector(),
		Multiplexer: infra.NewTmuxInspector(),
		Notifier:    infra.NewNotifier(),
		Prompter:    infra.NewPrompter(),
		Commands:    infra.NewCommandRunner(),
		Clock:       infra.SystemClock{},
		Store:       store,
		PushTimeout: cfg.PromptTimeout,
	}
}

// newActor builds the actor and enters the configured default flow or
// activity.
func newActor(ctx context.Context, cfg *config.Config, deps plugin.Deps, logger *zap.Logger) (*usecase.Actor, error) {
	actor, err := usecase.NewActor(plugin.Default, cfg.PolicySet(), deps, logger)
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.DefaultFlow != "":
		err = actor.SetFlow(ctx, cfg.DefaultFlow)
	case cfg.DefaultActivity != "":
		err = actor.SetActivity(ctx, cfg.DefaultActivity)
	}
	if err != nil {
		return nil, err
	}
	return actor, nil
}

// createLogger logs JSON to the configured file. --debug, or a log path
// that cannot be opened, logs to stderr instead.
func createLogger(cfg config.LogConfig) *zap.Logger {
	if debug {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.Debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if cfg.Path != "" && os.MkdirAll(filepath.Dir(cfg.Path), 0o700) == nil {
		zapConfig.OutputPaths = []string{cfg.Path}
		zapConfig.ErrorOutputPaths = []string{cfg.Path}
	}
	zapConfig.EncoderConfig.TimeKey = "time"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

// parsePairs turns key=value words into a map. Integer values are kept
// as ints so PID arguments work from the command line.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		if n, err := strconv.Atoi(value); err == nil {
			out[key] = n
			continue
		}
		out[key] = value
	}
	return out, nil
}
