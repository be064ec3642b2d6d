package policy

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/plugin"
	"github.com/eliteGoblin/focusd/actor/internal/testutil"
)

// env is a plugin context backed by fakes.
type env struct {
	ctx       *plugin.Context
	registry  *plugin.Registry
	clock     *testutil.FakeClock
	processes *testutil.Processes
	fs        *testutil.FileSystem
	windows   *testutil.Windows
	mux       *testutil.Multiplexer
	notifier  *testutil.Notifier
	prompter  *testutil.Prompter
	commands  *testutil.Commands
	store     *testutil.Store
}

func newEnv(t *testing.T) *env {
	return newEnvWithLogger(t, zap.NewNop())
}

func newEnvWithLogger(t *testing.T, logger *zap.Logger) *env {
	t.Helper()
	e := &env{
		registry:  plugin.Default.Clone(),
		clock:     testutil.NewFakeClock(time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)),
		processes: testutil.NewProcesses(),
		fs:        testutil.NewFileSystem(nil),
		windows:   &testutil.Windows{},
		mux:       &testutil.Multiplexer{},
		notifier:  &testutil.Notifier{},
		prompter:  &testutil.Prompter{},
		commands:  &testutil.Commands{},
		store:     testutil.NewStore(),
	}
	e.ctx = plugin.NewContext(e.registry, plugin.Deps{
		Processes:   e.processes,
		FileSystem:  e.fs,
		Windows:     e.windows,
		Multiplexer: e.mux,
		Notifier:    e.notifier,
		Prompter:    e.prompter,
		Commands:    e.commands,
		Store:       e.store,
		Clock:       e.clock,
		PushTimeout: time.Second,
	}, logger)
	return e
}
