package infra

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// exitError produces a real *exec.ExitError with the given status.
func exitError(t *testing.T, code int) error {
	t.Helper()
	err := exec.Command("sh", "-c", fmt.Sprintf("exit %d", code)).Run()
	require.Error(t, err)
	return fmt.Errorf("fake: %w", err)
}

// scriptedRun answers commands by their joined argv.
type scriptedRun struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	calls   []string
}

func (s *scriptedRun) run(ctx context.Context, name string, args ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.Join(append([]string{name}, args...), " ")
	s.calls = append(s.calls, key)
	if err, ok := s.errs[key]; ok {
		return "", err
	}
	return s.answers[key], nil
}

func TestWindowInspector_ActiveWindow(t *testing.T) {
	s := &scriptedRun{answers: map[string]string{
		"xdotool getactivewindow":        "71303175",
		"xdotool getwindowname 71303175": "gedit - file.txt",
		"xdotool getwindowpid 71303175":  "1234",
	}}
	w := &XdotoolWindowInspector{run: s.run}

	win, err := w.ActiveWindow(context.Background())
	require.NoError(t, err)
	require.NotNil(t, win)
	assert.Equal(t, "gedit - file.txt", win.Title)
	assert.Equal(t, 1234, win.PID)
}

func TestWindowInspector_NoWindow(t *testing.T) {
	s := &scriptedRun{errs: map[string]error{"xdotool getactivewindow": exitError(t, 1)}}
	w := &XdotoolWindowInspector{run: s.run}

	win, err := w.ActiveWindow(context.Background())
	require.NoError(t, err)
	assert.Nil(t, win)
}

func TestWindowInspector_XdotoolMissing(t *testing.T) {
	s := &scriptedRun{errs: map[string]error{"xdotool getactivewindow": exec.ErrNotFound}}
	w := &XdotoolWindowInspector{run: s.run}

	_, err := w.ActiveWindow(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestTmuxInspector_ActivePanePIDs(t *testing.T) {
	s := &scriptedRun{answers: map[string]string{
		"tmux list-panes -a -F #{session_attached} #{window_active} #{pane_pid}": strings.Join([]string{
			"1 1 100",
			"1 1 101",
			"1 0 102", // inactive window
			"0 1 200", // detached session
			"garbage",
		}, "\n"),
	}}
	tm := &TmuxInspector{run: s.run}

	pids, err := tm.ActivePanePIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{100, 101}, pids)
}

func TestTmuxInspector_NoServer(t *testing.T) {
	s := &scriptedRun{errs: map[string]error{
		"tmux list-panes -a -F #{session_attached} #{window_active} #{pane_pid}": exitError(t, 1),
	}}
	tm := &TmuxInspector{run: s.run}

	pids, err := tm.ActivePanePIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pids)
}

func TestNotifier_Args(t *testing.T) {
	s := &scriptedRun{}
	n := &NotifySendNotifier{run: s.run}

	err := n.Notify(context.Background(), domain.Notification{
		Headline: "Actor",
		Message:  "Application not allowed",
		AppName:  "actor",
		Timeout:  3 * time.Second,
	})
	require.NoError(t, err)
	require.Len(t, s.calls, 1)
	assert.Equal(t, "notify-send --app-name actor --expire-time 3000 Actor Application not allowed", s.calls[0])
}

func TestPrompter(t *testing.T) {
	found := func(string) (string, error) { return "/usr/bin/zenity", nil }

	tests := []struct {
		name   string
		yesno  bool
		out    string
		err    error
		want   any
		failed bool
	}{
		{name: "text answer", out: "tired", want: "tired"},
		{name: "text cancelled", err: exitError(t, 1), want: nil},
		{name: "text dialog crashed", err: exitError(t, 5), failed: true},
		{name: "yes", yesno: true, want: true},
		{name: "no", yesno: true, err: exitError(t, 1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := &ZenityPrompter{
				lookPath: found,
				run: func(ctx context.Context, name string, args ...string) (string, error) {
					return tt.out, tt.err
				},
			}

			type answer struct {
				value any
				err   error
			}
			got := make(chan answer, 1)
			reply := func(v any) { got <- answer{value: v} }
			fail := func(err error) { got <- answer{err: err} }

			var err error
			if tt.yesno {
				err = z.PromptYesNo(context.Background(), "Exercised?", "exercise", reply, fail)
			} else {
				err = z.PromptText(context.Background(), "Mood?", "mood", reply, fail)
			}
			require.NoError(t, err)

			select {
			case a := <-got:
				if tt.failed {
					assert.ErrorIs(t, a.err, domain.ErrTransient)
				} else {
					require.NoError(t, a.err)
					assert.Equal(t, tt.want, a.value)
				}
			case <-time.After(time.Second):
				t.Fatal("no callback")
			}
		})
	}
}

func TestPrompter_Unavailable(t *testing.T) {
	z := &ZenityPrompter{
		lookPath: func(string) (string, error) { return "", errors.New("not found") },
		run:      runCommand,
	}
	err := z.PromptText(context.Background(), "Mood?", "mood", func(any) {}, func(error) {})
	assert.Error(t, err)
}
