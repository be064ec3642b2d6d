package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

// NotAllowedMessage is shown before a disallowed window is killed.
const NotAllowedMessage = "Application not allowed"

// Activity enforces the allowed applications while it is active.
// It keeps no state between ticks.
type Activity struct {
	plugin.OrchestratorTraits
	proxy plugin.Proxy

	name                string
	whitelistedCommands []string
	whitelistedTitles   []string
	blacklistedCommands []string
	terminalEmulators   []string

	// Run once by Setup when the activity is entered.
	headline        string
	message         string
	startupCommands []string
	deletePaths     []string
}

// NewActivity builds an activity. Its setup actions run on Setup.
func NewActivity(c *plugin.Context, spec ActivitySpec, globals Globals) (*Activity, error) {
	if spec.Name == "" {
		return nil, domain.NewConfigError("activity.name", "must not be empty")
	}

	a := &Activity{
		name:                spec.Name,
		whitelistedCommands: concat(spec.WhitelistedCommands, globals.WhitelistedCommands),
		whitelistedTitles:   concat(spec.WhitelistedTitles, globals.WhitelistedTitles),
		blacklistedCommands: spec.BlacklistedCommands,
		terminalEmulators:   globals.TerminalEmulators,
		headline:            spec.Headline,
		message:             spec.Message,
		startupCommands:     spec.StartupCommands,
		deletePaths:         spec.DeletePaths,
	}
	a.proxy = plugin.NewProxy(c, a)
	return a, nil
}

func (a *Activity) Identifier() string { return a.name }

// Setup shows the start notification, runs the startup commands and
// deletes the configured paths.
func (a *Activity) Setup(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return fmt.Errorf("set up activity %q: %w", a.name, err)
	}
	return nil
}

func (a *Activity) setup(ctx context.Context) error {
	if a.message != "" {
		args := domain.Args{"message": a.message}
		if a.headline != "" {
			args["headline"] = a.headline
		}
		if _, err := a.proxy.Fix(ctx, "notify", args); err != nil {
			return err
		}
	}
	for _, command := range a.startupCommands {
		if _, err := a.proxy.Fix(ctx, "run_command", domain.Args{"command": command}); err != nil {
			return err
		}
	}
	for _, path := range a.deletePaths {
		if _, err := a.proxy.Fix(ctx, "delete_path", domain.Args{"path": path}); err != nil {
			return err
		}
	}
	return nil
}

// Run performs one enforcement pass.
func (a *Activity) Run(ctx context.Context, args domain.Args) (any, error) {
	title, err := a.reportString(ctx, "active_window_name", nil)
	if err != nil {
		return nil, err
	}
	command, err := a.reportString(ctx, "active_window_process_name", nil)
	if err != nil {
		return nil, err
	}
	if title == nil || command == nil {
		return nil, nil
	}

	var errs []error
	if !a.allowed(*title, *command) {
		errs = append(errs, a.killActiveWindow(ctx))
	}

	if containsAny(*command, a.terminalEmulators) && len(a.blacklistedCommands) > 0 {
		errs = append(errs, a.enforceInTerminal(ctx))
	}
	return nil, errors.Join(errs...)
}

func (a *Activity) allowed(title, command string) bool {
	return containsAny(title, a.whitelistedTitles) || containsAny(command, a.whitelistedCommands)
}

func (a *Activity) killActiveWindow(ctx context.Context) error {
	if _, err := a.proxy.Fix(ctx, "notify", domain.Args{"message": NotAllowedMessage}); err != nil {
		a.proxy.Logger().Warn("failed to notify", zap.Error(err))
	}

	pid, err := a.proxy.Report(ctx, "active_window_pid", nil)
	if err != nil || pid == nil {
		return err
	}
	if _, err := a.proxy.Fix(ctx, "kill_process", domain.Args{"pid": pid}); err != nil {
		return err
	}
	a.proxy.Logger().Info("killed disallowed window", zap.Any("pid", pid))
	return nil
}

// enforceInTerminal kills blacklisted commands running inside the
// focused terminal emulator, or inside the active tmux panes when the
// terminal hosts a tmux client.
func (a *Activity) enforceInTerminal(ctx context.Context) error {
	windowPID, err := a.proxy.Report(ctx, "active_window_pid", nil)
	if err != nil || windowPID == nil {
		return err
	}

	pids, err := a.children(ctx, windowPID)
	if err != nil {
		return err
	}

	tmux, err := a.anyCommandContains(ctx, pids, "tmux")
	if err != nil {
		return err
	}
	if tmux {
		panes, err := a.proxy.Report(ctx, "tmux_active_panes_pids", nil)
		if err != nil {
			return err
		}
		paneIDs, _ := panes.([]int)
		pids = nil
		for _, pane := range paneIDs {
			children, err := a.children(ctx, pane)
			if err != nil {
				return err
			}
			pids = append(pids, children...)
		}
	}

	var errs []error
	for _, pid := range pids {
		command, err := a.reportString(ctx, "process_cmdline", domain.Args{"pid": pid})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if command == nil || !containsAny(*command, a.blacklistedCommands) {
			continue
		}
		killed, err := a.proxy.Fix(ctx, "kill_process", domain.Args{"pid": pid})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok, _ := killed.(bool); ok {
			a.proxy.Logger().Info("killed blacklisted command",
				zap.Int("pid", pid),
				zap.String("command", *command))
		}
	}
	return errors.Join(errs...)
}

// children returns the descendants of pid; an exited pid has none.
func (a *Activity) children(ctx context.Context, pid any) ([]int, error) {
	v, err := a.proxy.Report(ctx, "process_children", domain.Args{"pid": pid})
	if err != nil {
		return nil, err
	}
	pids, _ := v.([]int)
	return pids, nil
}

func (a *Activity) anyCommandContains(ctx context.Context, pids []int, needle string) (bool, error) {
	for _, pid := range pids {
		command, err := a.reportString(ctx, "process_cmdline", domain.Args{"pid": pid})
		if err != nil {
			return false, err
		}
		if command != nil && strings.Contains(*command, needle) {
			return true, nil
		}
	}
	return false, nil
}

// reportString evaluates a reporter whose value is a string or absent.
func (a *Activity) reportString(ctx context.Context, name string, args domain.Args) (*string, error) {
	v, err := a.proxy.Report(ctx, name, args)
	if err != nil || v == nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("reporter %s produced %T, not a string", name, v)
	}
	return &s, nil
}

// containsAny reports whether s contains any non-empty needle.
func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
