package workers

import (
	"context"
	"errors"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

func init() {
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "active_window_name",
		Description: "title of the focused window",
		New:         newWindowReporter(windowTitle),
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "active_window_pid",
		Description: "PID owning the focused window",
		New:         newWindowReporter(windowPID),
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "active_window_process_name",
		Description: "command line of the process owning the focused window",
		New:         newWindowReporter(windowProcessName),
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "tmux_active_panes_pids",
		Description: "shell PIDs of the active tmux panes",
		New:         newPanesReporter,
	})
}

// windowReporter reports one property of the focused window. No focused
// window is reported as nil.
type windowReporter struct {
	plugin.ReporterTraits
	windows   domain.WindowInspector
	processes domain.ProcessManager
	property  func(ctx context.Context, r *windowReporter, w *domain.Window) (any, error)
}

func newWindowReporter(property func(context.Context, *windowReporter, *domain.Window) (any, error)) plugin.Factory {
	return func(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
		deps := c.Deps()
		if err := requireDep(deps.Windows != nil, "windows"); err != nil {
			return nil, err
		}
		return &windowReporter{windows: deps.Windows, processes: deps.Processes, property: property}, nil
	}
}

func (r *windowReporter) Run(ctx context.Context, args domain.Args) (any, error) {
	w, err := r.windows.ActiveWindow(ctx)
	if err != nil || w == nil {
		return nil, err
	}
	return r.property(ctx, r, w)
}

func windowTitle(ctx context.Context, r *windowReporter, w *domain.Window) (any, error) {
	return w.Title, nil
}

func windowPID(ctx context.Context, r *windowReporter, w *domain.Window) (any, error) {
	if w.PID <= 0 {
		return nil, nil
	}
	return w.PID, nil
}

func windowProcessName(ctx context.Context, r *windowReporter, w *domain.Window) (any, error) {
	if w.PID <= 0 || r.processes == nil {
		return nil, nil
	}
	cmdline, err := r.processes.Cmdline(w.PID)
	if errors.Is(err, domain.ErrProcessGone) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cmdline, nil
}

type panesReporter struct {
	plugin.ReporterTraits
	mux domain.MultiplexerInspector
}

func newPanesReporter(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	mux := c.Deps().Multiplexer
	if err := requireDep(mux != nil, "multiplexer"); err != nil {
		return nil, err
	}
	return &panesReporter{mux: mux}, nil
}

func (r *panesReporter) Run(ctx context.Context, args domain.Args) (any, error) {
	pids, err := r.mux.ActivePanePIDs(ctx)
	if err != nil {
		return nil, err
	}
	if pids == nil {
		pids = []int{}
	}
	return pids, nil
}
