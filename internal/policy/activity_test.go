package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

var terminalGlobals = Globals{
	WhitelistedCommands: []string{"gnome-terminal"},
	TerminalEmulators:   []string{"gnome-terminal"},
}

func newActivity(t *testing.T, e *env, spec ActivitySpec, globals Globals) *Activity {
	t.Helper()
	a, err := NewActivity(e.ctx, spec, globals)
	require.NoError(t, err)
	return a
}

func TestActivity_WindowPolicy(t *testing.T) {
	tests := []struct {
		name       string
		spec       ActivitySpec
		window     *domain.Window
		cmdline    string
		wantKilled []int
		wantNotes  int
	}{
		{
			name:    "whitelisted title",
			spec:    ActivitySpec{Name: "work", WhitelistedTitles: []string{"gedit"}},
			window:  &domain.Window{Title: "gedit - file.txt", PID: 50},
			cmdline: "/usr/bin/gedit",
		},
		{
			name:       "disallowed window",
			spec:       ActivitySpec{Name: "work", WhitelistedTitles: []string{"gedit"}},
			window:     &domain.Window{Title: "Calculator", PID: 77},
			cmdline:    "gnome-calculator",
			wantKilled: []int{77},
			wantNotes:  1,
		},
		{
			name:    "whitelisted command",
			spec:    ActivitySpec{Name: "work", WhitelistedCommands: []string{"code"}},
			window:  &domain.Window{Title: "main.go - project", PID: 50},
			cmdline: "/usr/share/code/code --unity-launch",
		},
		{
			name:       "empty allow-lists allow nothing",
			spec:       ActivitySpec{Name: "nothing"},
			window:     &domain.Window{Title: "gedit - file.txt", PID: 50},
			cmdline:    "/usr/bin/gedit",
			wantKilled: []int{50},
			wantNotes:  1,
		},
		{
			name: "no focused window",
			spec: ActivitySpec{Name: "nothing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if tt.window != nil {
				e.processes.Add(tt.window.PID, 0, tt.cmdline)
			}
			e.windows.Focus(tt.window)
			a := newActivity(t, e, tt.spec, Globals{})

			_, err := a.Run(context.Background(), nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKilled, e.processes.Killed())
			notes := e.notifier.Sent()
			require.Len(t, notes, tt.wantNotes)
			for _, n := range notes {
				assert.Equal(t, NotAllowedMessage, n.Message)
			}
		})
	}
}

func TestActivity_GlobalWhitelist(t *testing.T) {
	e := newEnv(t)
	e.processes.Add(50, 0, "/usr/bin/keepassxc")
	e.windows.Focus(&domain.Window{Title: "Passwords", PID: 50})

	a := newActivity(t, e, ActivitySpec{Name: "work"}, Globals{WhitelistedCommands: []string{"keepassxc"}})
	_, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, e.processes.Killed())
}

func TestActivity_TerminalDescent(t *testing.T) {
	e := newEnv(t)
	e.processes.Add(100, 0, "/usr/libexec/gnome-terminal-server")
	e.processes.Add(101, 100, "bash")
	e.processes.Add(102, 101, "steam -silent")
	e.processes.Add(103, 101, "vim notes.txt")
	e.windows.Focus(&domain.Window{Title: "Terminal", PID: 100})

	a := newActivity(t, e, ActivitySpec{Name: "work", BlacklistedCommands: []string{"steam"}}, terminalGlobals)
	_, err := a.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []int{102}, e.processes.Killed())
	assert.Empty(t, e.notifier.Sent())
}

func TestActivity_DisallowedTerminalStillDescends(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := newEnvWithLogger(t, zap.New(core))
	e.processes.Add(100, 0, "/usr/bin/xterm")
	e.processes.Add(101, 100, "steam -silent")
	e.windows.Focus(&domain.Window{Title: "xterm", PID: 100})

	globals := Globals{TerminalEmulators: []string{"xterm"}}
	a := newActivity(t, e, ActivitySpec{Name: "work", BlacklistedCommands: []string{"steam"}}, globals)
	_, err := a.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []int{100}, e.processes.Killed())
	assert.NotEmpty(t, logs.FilterField(zap.String("worker", "process_children")).All())
}

func TestActivity_SetupFailure(t *testing.T) {
	e := newEnv(t)
	a := newActivity(t, e, ActivitySpec{Name: "work", DeletePaths: []string{""}}, Globals{})

	err := a.Setup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `set up activity "work"`)
}

func TestActivity_TerminalDescentGoneChild(t *testing.T) {
	e := newEnv(t)
	e.processes.Add(100, 0, "/usr/libexec/gnome-terminal-server")
	e.processes.Add(101, 100, "bash")
	e.processes.Add(102, 101, "steam -silent")
	e.processes.Vanish(102)
	e.windows.Focus(&domain.Window{Title: "Terminal", PID: 100})

	a := newActivity(t, e, ActivitySpec{Name: "work", BlacklistedCommands: []string{"steam"}}, terminalGlobals)
	_, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, e.processes.Killed())
}

func TestActivity_TmuxPanes(t *testing.T) {
	e := newEnv(t)
	e.processes.Add(100, 0, "/usr/libexec/gnome-terminal-server")
	e.processes.Add(101, 100, "tmux attach -t main")
	e.processes.Add(300, 0, "-bash")
	e.processes.Add(301, 300, "dota2 -novid")
	e.processes.Add(302, 300, "less README")
	e.mux.PIDs = []int{300, 400} // 400 exited
	e.windows.Focus(&domain.Window{Title: "main", PID: 100})

	a := newActivity(t, e, ActivitySpec{Name: "work", BlacklistedCommands: []string{"dota2"}}, terminalGlobals)
	_, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{301}, e.processes.Killed())
}

func TestActivity_Setup(t *testing.T) {
	e := newEnv(t)
	e.fs.Put("/tmp/distraction", "")

	spec := ActivitySpec{
		Name:            "work",
		Headline:        "Focus",
		Message:         "Work started",
		StartupCommands: []string{"code ~/work", "slack"},
		DeletePaths:     []string{"/tmp/distraction"},
	}
	a := newActivity(t, e, spec, Globals{})
	assert.Equal(t, "work", plugin.IdentityOf(a))
	assert.Empty(t, e.notifier.Sent(), "construction has no side effects")
	assert.Empty(t, e.commands.Started())

	require.NoError(t, a.Setup(context.Background()))

	notes := e.notifier.Sent()
	require.Len(t, notes, 1)
	assert.Equal(t, "Focus", notes[0].Headline)
	assert.Equal(t, "Work started", notes[0].Message)
	assert.Equal(t, []string{"code ~/work", "slack"}, e.commands.Started())
	assert.Equal(t, []string{"/tmp/distraction"}, e.fs.Deleted())
}

func TestActivity_RequiresName(t *testing.T) {
	e := newEnv(t)
	_, err := NewActivity(e.ctx, ActivitySpec{}, Globals{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestActivity_AttributesCallsToItself(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := newEnvWithLogger(t, zap.New(core))
	e.processes.Add(77, 0, "gnome-calculator")
	e.windows.Focus(&domain.Window{Title: "Calculator", PID: 77})

	a := newActivity(t, e, ActivitySpec{Name: "deep-work"}, Globals{})
	_, err := a.Run(context.Background(), nil)
	require.NoError(t, err)

	kills := logs.FilterField(zap.String("worker", "kill_process")).All()
	require.NotEmpty(t, kills)
	for _, entry := range kills {
		assert.Equal(t, "deep-work", entry.ContextMap()["rule"])
	}
}
