package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/actor/internal/config"
	"github.com/eliteGoblin/focusd/actor/internal/daemon"
	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/infra"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
	"github.com/eliteGoblin/focusd/actor/internal/usecase"
)

// reportWait bounds how long `report` waits for an async reporter.
const reportWait = 5 * time.Second

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := infra.OpenTrackerStore(cfg.Store.Dir, cfg.Store.Encrypted)
	if err != nil {
		return fmt.Errorf("failed to open tracker store: %w", err)
	}
	defer store.Close()

	// Check if already running
	d, alive, err := daemon.Alive(store, infra.NewProcessManager(), time.Now(), cfg.HeartbeatInterval)
	if err != nil {
		return fmt.Errorf("failed to read daemon state: %w", err)
	}
	if alive {
		fmt.Printf("actor is already running (pid %d)\n", d.PID)
		return nil
	}

	pid, err := daemon.StartDaemon(configPath)
	if err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("%s (pid %d)\n", okStyle.Render("actor started"), pid)
	fmt.Printf("Logs: %s\n", cfg.Log.Path)
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Set up logger (writes to the configured log file)
	logger := createLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	return runLoop(cfg, logger)
}

func runForeground(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := consoleLogger()
	defer func() { _ = logger.Sync() }()

	return runLoop(cfg, logger)
}

// runLoop ticks the actor until SIGINT or SIGTERM.
func runLoop(cfg *config.Config, logger *zap.Logger) error {
	store, err := infra.OpenTrackerStore(cfg.Store.Dir, cfg.Store.Encrypted)
	if err != nil {
		logger.Error("failed to open tracker store", zap.Error(err))
		return err
	}
	defer store.Close()

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	actor, err := newActor(ctx, cfg, newDeps(cfg, store), logger)
	if err != nil {
		logger.Error("failed to build actor", zap.Error(err))
		return err
	}

	d := domain.Daemon{
		PID:       os.Getpid(),
		StartedAt: time.Now(),
		Version:   Version,
	}
	watcher := daemon.NewWatcher(
		daemon.WatcherConfig{
			TickInterval:      cfg.TickInterval,
			HeartbeatInterval: cfg.HeartbeatInterval,
		},
		actor,
		store,
		infra.SystemClock{},
		d,
		logger,
	)

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runTick(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := consoleLogger()
	defer func() { _ = logger.Sync() }()

	store, err := infra.OpenTrackerStore(cfg.Store.Dir, cfg.Store.Encrypted)
	if err != nil {
		return fmt.Errorf("failed to open tracker store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	actor, err := newActor(ctx, cfg, newDeps(cfg, store), logger)
	if err != nil {
		return err
	}

	renderTick(os.Stdout, actor.Tick(ctx))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Registers the configured orchestrators without entering any of them.
	actor, err := usecase.NewActor(plugin.Default, cfg.PolicySet(), newDeps(cfg, nil), zap.NewNop())
	if err != nil {
		return err
	}

	renderList(os.Stdout, actor.Context().Registry())
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	workerArgs, err := parsePairs(args[1:])
	if err != nil {
		return err
	}
	opts, err := parsePairs(reportOpts)
	if err != nil {
		return err
	}

	logger := consoleLogger()
	defer func() { _ = logger.Sync() }()

	store, err := infra.OpenTrackerStore(cfg.Store.Dir, cfg.Store.Encrypted)
	if err != nil {
		return fmt.Errorf("failed to open tracker store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	c := plugin.NewContext(plugin.Default, newDeps(cfg, store), logger)
	w, err := c.Make(domain.RoleReporter, args[0], domain.Options(opts))
	if err != nil {
		return err
	}

	value, err := evaluateReporter(ctx, c.WorkerLogger(domain.RoleReporter, args[0], "cli"), w, domain.Args(workerArgs), reportWait)
	if err != nil {
		return err
	}
	fmt.Println(formatValue(value))
	return nil
}

// evaluateReporter runs w once. An async reporter is polled until its
// background evaluation completes or wait elapses.
func evaluateReporter(ctx context.Context, logger *zap.Logger, w plugin.Worker, args domain.Args, wait time.Duration) (any, error) {
	deadline := time.Now().Add(wait)
	for {
		value, err := plugin.Evaluate(ctx, logger, w, args)
		async, ok := w.(plugin.AsyncWorker)
		if err != nil || !ok || value != nil || async.State() == plugin.TaskCompleted {
			return value, err
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := infra.OpenTrackerStore(cfg.Store.Dir, cfg.Store.Encrypted)
	if err != nil {
		return fmt.Errorf("failed to open tracker store: %w", err)
	}
	defer store.Close()

	view, err := collectStatus(cfg, store, infra.NewProcessManager(), time.Now())
	if err != nil {
		return err
	}
	view.StorePath = store.Path()

	renderStatus(os.Stdout, view)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("actor %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

// consoleLogger logs human-readable lines to stderr, at debug level with
// --debug.
func consoleLogger() *zap.Logger {
	zapConfig := zap.NewDevelopmentConfig()
	if !debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
