package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
	"github.com/eliteGoblin/focusd/actor/internal/testutil"
)

// fixture bundles the fakes behind a context over the default registry.
type fixture struct {
	ctx       *plugin.Context
	clock     *testutil.FakeClock
	processes *testutil.Processes
	fs        *testutil.FileSystem
	windows   *testutil.Windows
	notifier  *testutil.Notifier
	prompter  *testutil.Prompter
	commands  *testutil.Commands
	store     *testutil.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:     testutil.NewFakeClock(time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC)),
		processes: testutil.NewProcesses(),
		fs:        testutil.NewFileSystem(map[string]string{"/tmp/notes": "aaa\nbbb\nccc\n"}),
		windows:   &testutil.Windows{},
		notifier:  &testutil.Notifier{},
		prompter:  &testutil.Prompter{},
		commands:  &testutil.Commands{},
		store:     testutil.NewStore(),
	}
	f.ctx = plugin.NewContext(plugin.Default, plugin.Deps{
		Processes:   f.processes,
		FileSystem:  f.fs,
		Windows:     f.windows,
		Multiplexer: &testutil.Multiplexer{PIDs: []int{300, 301}},
		Notifier:    f.notifier,
		Prompter:    f.prompter,
		Commands:    f.commands,
		Store:       f.store,
		Clock:       f.clock,
		PushTimeout: time.Second,
	}, zap.NewNop())
	return f
}

func TestBuiltinsRegistered(t *testing.T) {
	want := map[domain.Role][]string{
		domain.RoleReporter: {
			"active_window_name", "active_window_pid", "active_window_process_name",
			"tmux_active_panes_pids", "matching_processes", "process_children",
			"process_cmdline", "file_content",
			"time", "weekday", "track",
		},
		domain.RoleChecker: {"process_running", "recorded", "time_between"},
		domain.RoleFixer: {
			"notify", "kill_process", "delete_path", "run_command",
			"track", "prompt", "prompt_yesno",
		},
	}

	for role, names := range want {
		registered := plugin.Default.Names(role)
		for _, name := range names {
			assert.Contains(t, registered, name, "%s/%s", role, name)
		}
	}
}

func TestMissingCollaborator(t *testing.T) {
	c := plugin.NewContext(plugin.Default, plugin.Deps{}, zap.NewNop())

	_, err := c.Report(context.Background(), "active_window_name", nil, "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestWindowReporters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No focused window: every window reporter reports nothing.
	for _, name := range []string{"active_window_name", "active_window_pid", "active_window_process_name"} {
		v, err := f.ctx.Report(ctx, name, nil, "")
		require.NoError(t, err)
		assert.Nil(t, v, name)
	}

	f.processes.Add(1234, 0, "/usr/bin/gedit --new-window")
	f.windows.Focus(&domain.Window{ID: "1", Title: "gedit - file.txt", PID: 1234})

	title, err := f.ctx.Report(ctx, "active_window_name", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "gedit - file.txt", title)

	pid, err := f.ctx.Report(ctx, "active_window_pid", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)

	name, err := f.ctx.Report(ctx, "active_window_process_name", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/gedit --new-window", name)

	// The owner exited after the window was reported.
	f.processes.Vanish(1234)
	name, err = f.ctx.Report(ctx, "active_window_process_name", nil, "")
	require.NoError(t, err)
	assert.Nil(t, name)
}

func TestTmuxPanes(t *testing.T) {
	f := newFixture(t)

	pids, err := f.ctx.Report(context.Background(), "tmux_active_panes_pids", nil, "")
	require.NoError(t, err)
	assert.Equal(t, []int{300, 301}, pids)
}

func TestMatchingProcesses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.processes.Add(10, 0, "steam")
	f.processes.Add(11, 0, "steamwebhelper")
	f.processes.Add(12, 0, "bash")

	_, err := f.ctx.Make(domain.RoleReporter, "matching_processes", nil)
	require.ErrorIs(t, err, domain.ErrConfiguration)

	w, err := f.ctx.Make(domain.RoleReporter, "matching_processes", domain.Options{"pattern": "steam"})
	require.NoError(t, err)
	scan, ok := w.(plugin.AsyncWorker)
	require.True(t, ok)

	v, err := scan.Run(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, v, "first call only starts the scan")

	require.Eventually(t, func() bool { return scan.State() == plugin.TaskCompleted }, time.Second, 5*time.Millisecond)

	v, err = scan.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, v)

	scan.Reset()
	assert.Equal(t, plugin.TaskIdle, scan.State())
}

func TestProcessTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.processes.Add(100, 0, "gnome-terminal")
	f.processes.Add(101, 100, "bash")
	f.processes.Add(102, 101, "vim notes.txt")

	children, err := f.ctx.Report(ctx, "process_children", domain.Args{"pid": 100}, "")
	require.NoError(t, err)
	assert.Equal(t, []int{101, 102}, children)

	cmdline, err := f.ctx.Report(ctx, "process_cmdline", domain.Args{"pid": 102}, "")
	require.NoError(t, err)
	assert.Equal(t, "vim notes.txt", cmdline)

	f.processes.Vanish(102)
	cmdline, err = f.ctx.Report(ctx, "process_cmdline", domain.Args{"pid": 102}, "")
	require.NoError(t, err)
	assert.Nil(t, cmdline)

	children, err = f.ctx.Report(ctx, "process_children", domain.Args{"pid": 999}, "")
	require.NoError(t, err)
	assert.Nil(t, children)
}

func TestProcessRunning(t *testing.T) {
	f := newFixture(t)
	f.processes.Add(10, 0, "steam")

	running, err := f.ctx.Check(context.Background(), "process_running", domain.Args{"pattern": "steam"}, "")
	require.NoError(t, err)
	assert.True(t, running)

	running, err = f.ctx.Check(context.Background(), "process_running", domain.Args{"pattern": "dota"}, "")
	require.NoError(t, err)
	assert.False(t, running)
}

func TestKillProcess(t *testing.T) {
	tests := []struct {
		name    string
		args    domain.Args
		want    any
		wantErr error
		killed  []int
	}{
		{name: "running process", args: domain.Args{"pid": 42}, want: true, killed: []int{42}},
		{name: "process already gone", args: domain.Args{"pid": 43}, want: false},
		{name: "missing pid", args: domain.Args{}, wantErr: domain.ErrConfiguration},
		{name: "pid from a float", args: domain.Args{"pid": float64(42)}, want: true, killed: []int{42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.processes.Add(42, 0, "calculator")

			got, err := f.ctx.Fix(context.Background(), "kill_process", tt.args, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.killed, f.processes.Killed())
		})
	}
}

func TestKillProcessSparesSelf(t *testing.T) {
	f := newFixture(t)
	self := f.processes.GetCurrentPID()
	f.processes.Add(self, 0, "actor")

	got, err := f.ctx.Fix(context.Background(), "kill_process", domain.Args{"pid": self}, "")
	require.NoError(t, err)
	assert.Equal(t, false, got)
	assert.Empty(t, f.processes.Killed())
}

func TestFileWorkers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content, err := f.ctx.Report(ctx, "file_content", domain.Args{"path": "/tmp/notes"}, "")
	require.NoError(t, err)
	assert.Contains(t, content, "bbb")

	deleted, err := f.ctx.Fix(ctx, "delete_path", domain.Args{"path": "/tmp/notes"}, "")
	require.NoError(t, err)
	assert.Equal(t, true, deleted)

	deleted, err = f.ctx.Fix(ctx, "delete_path", domain.Args{"path": "/tmp/notes"}, "")
	require.NoError(t, err)
	assert.Equal(t, false, deleted)
	assert.Equal(t, []string{"/tmp/notes"}, f.fs.Deleted())

	_, err = f.ctx.Report(ctx, "file_content", domain.Args{"path": "/tmp/notes"}, "")
	assert.Error(t, err)
}

func TestClockReporters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now, err := f.ctx.Report(ctx, "time", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "14.05", now)

	day, err := f.ctx.Report(ctx, "weekday", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Sunday", day)
}

func TestTimeBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     bool
	}{
		{name: "inside", from: "09:00", to: "17:00", want: true},
		{name: "before", from: "15:00", to: "17:00", want: false},
		{name: "end is exclusive", from: "09:00", to: "14:05", want: false},
		{name: "start is inclusive", from: "14:05", to: "15:00", want: true},
		{name: "wraps midnight, outside", from: "22:00", to: "06:00", want: false},
		{name: "wraps midnight, inside", from: "13:00", to: "01:00", want: true},
	}

	f := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ctx.Check(context.Background(), "time_between", domain.Args{"from": tt.from, "to": tt.to}, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := f.ctx.Check(context.Background(), "time_between", domain.Args{"from": "9am", "to": "17:00"}, "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestTrackWorkers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.ctx.Report(ctx, "track", domain.Args{"tracker": "mood"}, "")
	require.NoError(t, err)
	assert.Nil(t, v)

	done, err := f.ctx.Check(ctx, "recorded", domain.Args{"tracker": "mood"}, "")
	require.NoError(t, err)
	assert.False(t, done)

	_, err = f.ctx.Fix(ctx, "track", domain.Args{"tracker": "mood", "value": "good"}, "")
	require.NoError(t, err)
	_, err = f.ctx.Fix(ctx, "track", domain.Args{"tracker": "mood", "value": "bad"}, "")
	require.NoError(t, err)

	v, err = f.ctx.Report(ctx, "track", domain.Args{"tracker": "mood", "day": "2026-10-18"}, "")
	require.NoError(t, err)
	assert.Equal(t, "good", v)

	done, err = f.ctx.Check(ctx, "recorded", domain.Args{"tracker": "mood"}, "")
	require.NoError(t, err)
	assert.True(t, done)

	_, err = f.ctx.Fix(ctx, "track", domain.Args{"tracker": "mood"}, "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNotifyThrottle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	args := domain.Args{"message": "Application not allowed"}

	shown, err := f.ctx.Fix(ctx, "notify", args, "")
	require.NoError(t, err)
	assert.Equal(t, true, shown)

	shown, err = f.ctx.Fix(ctx, "notify", args, "")
	require.NoError(t, err)
	assert.Equal(t, false, shown)

	f.clock.Advance(NotifyInterval)
	shown, err = f.ctx.Fix(ctx, "notify", args, "")
	require.NoError(t, err)
	assert.Equal(t, true, shown)

	sent := f.notifier.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Actor Alert!", sent[0].Headline)
	assert.Equal(t, "Actor", sent[0].AppName)
	assert.Equal(t, "Application not allowed", sent[0].Message)

	w, err := f.ctx.Make(domain.RoleFixer, "notify", nil)
	require.NoError(t, err)
	assert.True(t, w.Traits().SideEffects)
	assert.False(t, w.Traits().Stateless)
}

func TestRunCommand(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctx.Fix(context.Background(), "run_command", domain.Args{"command": "code ~/work"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"code ~/work"}, f.commands.Started())
}

func TestPrompt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.prompter.Answer = func(q testutil.Question) (any, error) {
		if q.YesNo {
			return true, nil
		}
		return "tired", nil
	}

	tests := []struct {
		name string
		want any
	}{
		{name: "prompt", want: "tired"},
		{name: "prompt_yesno", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := f.ctx.Make(domain.RoleFixer, tt.name, domain.Options{"identifier": "mood"})
			require.NoError(t, err)
			prompt := w.(plugin.AsyncWorker)
			assert.True(t, prompt.Traits().SideEffects)

			v, err := prompt.Run(ctx, domain.Args{"message": "How are you?", "identifier": "mood"})
			require.NoError(t, err)
			assert.Nil(t, v)

			require.Eventually(t, func() bool { return prompt.State() == plugin.TaskCompleted }, time.Second, 5*time.Millisecond)
			v, err = prompt.Run(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	questions := f.prompter.Questions()
	require.Len(t, questions, 2)
	assert.Equal(t, "How are you?", questions[0].Message)
	assert.Equal(t, "mood", questions[0].Identifier)
	assert.True(t, questions[1].YesNo)
}

func TestPromptInstancePerOwner(t *testing.T) {
	f := newFixture(t)

	a, err := f.ctx.Make(domain.RoleFixer, "prompt", domain.Options{"identifier": "mood"})
	require.NoError(t, err)
	b, err := f.ctx.Make(domain.RoleFixer, "prompt", domain.Options{"identifier": "sleep"})
	require.NoError(t, err)
	again, err := f.ctx.Make(domain.RoleFixer, "prompt", domain.Options{"identifier": "mood"})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Same(t, a, again)
}
