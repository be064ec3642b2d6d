// Package daemon implements the long-running watcher that ticks the actor.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// Ticker runs every orchestrator once.
type Ticker interface {
	Tick(ctx context.Context) domain.TickResult
}

// WatcherConfig holds watcher daemon configuration.
type WatcherConfig struct {
	TickInterval      time.Duration // How often orchestrators run
	HeartbeatInterval time.Duration // How often liveness is recorded
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		TickInterval:      5 * time.Second,
		HeartbeatInterval: 30 * time.Second,
	}
}

// Watcher is the main daemon loop. It ticks the actor on a schedule and
// records a heartbeat in the store so the CLI can tell it is alive.
type Watcher struct {
	config WatcherConfig
	actor  Ticker
	store  domain.TrackerStore
	clock  domain.Clock
	daemon domain.Daemon
	logger *zap.Logger
}

// NewWatcher creates a new watcher daemon.
func NewWatcher(
	config WatcherConfig,
	actor Ticker,
	store domain.TrackerStore,
	clock domain.Clock,
	daemon domain.Daemon,
	logger *zap.Logger,
) *Watcher {
	return &Watcher{
		config: config,
		actor:  actor,
		store:  store,
		clock:  clock,
		daemon: daemon,
		logger: logger,
	}
}

// Run starts the watcher daemon loop.
// This blocks until context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watcher daemon started",
		zap.Int("pid", w.daemon.PID),
		zap.String("version", w.daemon.Version),
		zap.Duration("tick_interval", w.config.TickInterval))

	// Announce ourselves and tick immediately on startup
	w.heartbeat()
	w.runTick(ctx)

	tickTicker := time.NewTicker(w.config.TickInterval)
	heartbeatTicker := time.NewTicker(w.config.HeartbeatInterval)
	defer func() {
		tickTicker.Stop()
		heartbeatTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher daemon stopping")
			return ctx.Err()

		case <-tickTicker.C:
			w.runTick(ctx)

		case <-heartbeatTicker.C:
			w.heartbeat()
		}
	}
}

func (w *Watcher) heartbeat() {
	if err := w.store.Heartbeat(w.daemon, w.clock.Now()); err != nil {
		w.logger.Warn("failed to update heartbeat", zap.Error(err))
	}
}

// runTick executes one tick and logs a summary.
func (w *Watcher) runTick(ctx context.Context) {
	result := w.actor.Tick(ctx)

	if failed := result.Failed(); len(failed) > 0 {
		w.logger.Info("tick completed with failures",
			zap.String("tick", result.ID),
			zap.Int("orchestrators", len(result.Results)),
			zap.Int("failed", len(failed)))
		return
	}
	w.logger.Debug("tick completed",
		zap.String("tick", result.ID),
		zap.Int("orchestrators", len(result.Results)),
		zap.Int64("duration_ms", result.DurationMs))
}

// Alive returns the daemon recorded in store if its heartbeat is recent
// and its process still runs.
func Alive(store domain.TrackerStore, pm domain.ProcessManager, now time.Time, heartbeatInterval time.Duration) (*domain.Daemon, bool, error) {
	d, at, err := store.LastHeartbeat()
	if err != nil || d == nil {
		return d, false, err
	}
	if now.Sub(at) > 3*heartbeatInterval {
		return d, false, nil
	}
	return d, pm.IsRunning(d.PID), nil
}
