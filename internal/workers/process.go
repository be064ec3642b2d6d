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
		Name:        "matching_processes",
		Description: "PIDs whose name contains the pattern option, scanned in the background",
		New:         newMatchingProcesses,
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "process_children",
		Description: "recursive child PIDs of the pid argument",
		New:         newProcessTree(processChildren),
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "process_cmdline",
		Description: "command line of the pid argument",
		New:         newProcessTree(processCmdline),
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleChecker,
		Name:        "process_running",
		Description: "whether a process name contains the pattern argument",
		New:         newProcessRunning,
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleFixer,
		Name:        "kill_process",
		Description: "kill the pid argument; an exited process is not an error",
		New:         newKillProcess,
	})
}

// processScan lists matching PIDs synchronously. It is only exposed
// wrapped in PollAsync because walking the process table is slow.
type processScan struct {
	plugin.ReporterTraits
	processes domain.ProcessManager
	pattern   string
}

func (s *processScan) Run(ctx context.Context, args domain.Args) (any, error) {
	pids, err := s.processes.FindByName(s.pattern)
	if err != nil {
		return nil, domain.Transient(err)
	}
	if pids == nil {
		pids = []int{}
	}
	return pids, nil
}

func newMatchingProcesses(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	processes := c.Deps().Processes
	if err := requireDep(processes != nil, "processes"); err != nil {
		return nil, err
	}
	pattern := opts.String("pattern")
	if pattern == "" {
		return nil, domain.NewConfigError("pattern", "matching_processes needs a pattern option")
	}
	scan := &processScan{processes: processes, pattern: pattern}
	return plugin.NewPollAsync(scan, c.WorkerLogger(domain.RoleReporter, "matching_processes", opts.String("rule"))), nil
}

// processTree reports about one PID. A process that exited is reported
// as nil rather than an error.
type processTree struct {
	plugin.ReporterTraits
	processes domain.ProcessManager
	query     func(pm domain.ProcessManager, pid int) (any, error)
}

func newProcessTree(query func(domain.ProcessManager, int) (any, error)) plugin.Factory {
	return func(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
		processes := c.Deps().Processes
		if err := requireDep(processes != nil, "processes"); err != nil {
			return nil, err
		}
		return &processTree{processes: processes, query: query}, nil
	}
}

func (p *processTree) Run(ctx context.Context, args domain.Args) (any, error) {
	pid, err := pidArg(args)
	if err != nil {
		return nil, err
	}
	v, err := p.query(p.processes, pid)
	if errors.Is(err, domain.ErrProcessGone) {
		return nil, nil
	}
	return v, err
}

func processChildren(pm domain.ProcessManager, pid int) (any, error) {
	children, err := pm.Children(pid)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []int{}
	}
	return children, nil
}

func processCmdline(pm domain.ProcessManager, pid int) (any, error) {
	return pm.Cmdline(pid)
}

type processRunning struct {
	plugin.CheckerTraits
	processes domain.ProcessManager
	pattern   string
}

func newProcessRunning(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	processes := c.Deps().Processes
	if err := requireDep(processes != nil, "processes"); err != nil {
		return nil, err
	}
	return &processRunning{processes: processes, pattern: opts.String("pattern")}, nil
}

func (p *processRunning) Run(ctx context.Context, args domain.Args) (any, error) {
	pattern := args.String("pattern")
	if pattern == "" {
		pattern = p.pattern
	}
	if pattern == "" {
		return nil, domain.NewConfigError("pattern", "process_running needs a pattern")
	}
	pids, err := p.processes.FindByName(pattern)
	if err != nil {
		return nil, domain.Transient(err)
	}
	return len(pids) > 0, nil
}

type killProcess struct {
	plugin.FixerTraits
	processes domain.ProcessManager
}

func newKillProcess(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	processes := c.Deps().Processes
	if err := requireDep(processes != nil, "processes"); err != nil {
		return nil, err
	}
	return &killProcess{processes: processes}, nil
}

// Run returns true when a process was killed.
func (k *killProcess) Run(ctx context.Context, args domain.Args) (any, error) {
	pid, err := pidArg(args)
	if err != nil {
		return nil, err
	}
	if pid == k.processes.GetCurrentPID() {
		return false, nil
	}
	if err := k.processes.Kill(pid); err != nil {
		if errors.Is(err, domain.ErrProcessGone) {
			return false, nil
		}
		return nil, err
	}
	return true, nil
}
