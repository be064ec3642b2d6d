package infra

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// XdotoolWindowInspector implements domain.WindowInspector with xdotool (X11).
type XdotoolWindowInspector struct {
	run runFunc
}

// NewWindowInspector creates an xdotool-backed window inspector.
func NewWindowInspector() *XdotoolWindowInspector {
	return &XdotoolWindowInspector{run: runCommand}
}

// ActiveWindow returns the focused window, or nil when nothing has focus.
func (w *XdotoolWindowInspector) ActiveWindow(ctx context.Context) (*domain.Window, error) {
	id, err := w.run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		if exitCode(err) > 0 {
			// xdotool exits non-zero when no window has focus
			return nil, nil
		}
		return nil, domain.Transient(err)
	}
	if id == "" {
		return nil, nil
	}

	title, err := w.run(ctx, "xdotool", "getwindowname", id)
	if err != nil {
		if exitCode(err) > 0 {
			return nil, nil // window closed in the meantime
		}
		return nil, domain.Transient(err)
	}

	window := &domain.Window{ID: id, Title: title}

	// Some windows (e.g. the desktop) carry no _NET_WM_PID
	if out, err := w.run(ctx, "xdotool", "getwindowpid", id); err == nil {
		if pid, convErr := strconv.Atoi(out); convErr == nil {
			window.PID = pid
		}
	}

	return window, nil
}

// TmuxInspector implements domain.MultiplexerInspector.
type TmuxInspector struct {
	run runFunc
}

// NewTmuxInspector creates a tmux-backed inspector.
func NewTmuxInspector() *TmuxInspector {
	return &TmuxInspector{run: runCommand}
}

// ActivePanePIDs returns the shell PIDs of the active window's panes in
// every attached session. No tmux server means no panes.
func (t *TmuxInspector) ActivePanePIDs(ctx context.Context) ([]int, error) {
	out, err := t.run(ctx, "tmux", "list-panes", "-a", "-F",
		"#{session_attached} #{window_active} #{pane_pid}")
	if err != nil {
		if exitCode(err) > 0 {
			return nil, nil // "no server running"
		}
		return nil, domain.Transient(err)
	}

	var pids []int
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 3 || fields[0] == "0" || fields[1] != "1" {
			continue
		}
		pid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// NotifySendNotifier implements domain.Notifier with notify-send.
type NotifySendNotifier struct {
	run runFunc
}

// NewNotifier creates a notify-send backed notifier.
func NewNotifier() *NotifySendNotifier {
	return &NotifySendNotifier{run: runCommand}
}

func (n *NotifySendNotifier) Notify(ctx context.Context, note domain.Notification) error {
	args := []string{}
	if note.AppName != "" {
		args = append(args, "--app-name", note.AppName)
	}
	if note.Timeout > 0 {
		args = append(args, "--expire-time", strconv.FormatInt(note.Timeout.Milliseconds(), 10))
	}
	args = append(args, note.Headline, note.Message)

	if _, err := n.run(ctx, "notify-send", args...); err != nil {
		return domain.Transient(err)
	}
	return nil
}

// ZenityPrompter implements domain.Prompter with zenity dialogs.
type ZenityPrompter struct {
	run      runFunc
	lookPath func(string) (string, error)
}

// NewPrompter creates a zenity-backed prompter.
func NewPrompter() *ZenityPrompter {
	return &ZenityPrompter{run: runCommand, lookPath: exec.LookPath}
}

// PromptText opens an entry dialog. Cancel replies nil.
func (z *ZenityPrompter) PromptText(ctx context.Context, message, identifier string, reply func(any), fail func(error)) error {
	if _, err := z.lookPath("zenity"); err != nil {
		return fmt.Errorf("prompt unavailable: %w", err)
	}
	go func() {
		out, err := z.run(ctx, "zenity", "--entry", "--title", dialogTitle(identifier), "--text", message)
		switch {
		case err == nil:
			reply(out)
		case exitCode(err) == 1:
			reply(nil)
		default:
			fail(domain.Transient(err))
		}
	}()
	return nil
}

// PromptYesNo opens a question dialog and replies true or false.
func (z *ZenityPrompter) PromptYesNo(ctx context.Context, message, identifier string, reply func(any), fail func(error)) error {
	if _, err := z.lookPath("zenity"); err != nil {
		return fmt.Errorf("prompt unavailable: %w", err)
	}
	go func() {
		_, err := z.run(ctx, "zenity", "--question", "--title", dialogTitle(identifier), "--text", message)
		switch {
		case err == nil:
			reply(true)
		case exitCode(err) == 1:
			reply(false)
		default:
			fail(domain.Transient(err))
		}
	}()
	return nil
}

func dialogTitle(identifier string) string {
	return "Actor: " + identifier
}

// ShellCommandRunner implements domain.CommandRunner.
type ShellCommandRunner struct{}

// NewCommandRunner creates a command runner.
func NewCommandRunner() *ShellCommandRunner {
	return &ShellCommandRunner{}
}

// Start runs command through sh, detached from the daemon's session.
func (r *ShellCommandRunner) Start(ctx context.Context, command string) error {
	cmd := exec.Command("sh", "-c", command)
	cmd.SysProcAttr = detachedAttr()
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child when it exits
	go func() { _ = cmd.Wait() }()
	return nil
}

// SystemClock implements domain.Clock with time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

var (
	_ domain.WindowInspector      = (*XdotoolWindowInspector)(nil)
	_ domain.MultiplexerInspector = (*TmuxInspector)(nil)
	_ domain.Notifier             = (*NotifySendNotifier)(nil)
	_ domain.Prompter             = (*ZenityPrompter)(nil)
	_ domain.CommandRunner        = (*ShellCommandRunner)(nil)
	_ domain.Clock                = SystemClock{}
)
