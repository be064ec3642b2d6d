// Package infra implements infrastructure concerns: processes, desktop
// integration, filesystem and the tracker store.
package infra

import (
	"errors"
	"os"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// FindByName returns PIDs of processes matching the pattern (case-insensitive).
func (pm *ProcessManagerImpl) FindByName(pattern string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var found []int
	patternLower := strings.ToLower(pattern)
	self := int32(os.Getpid())

	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		if strings.Contains(strings.ToLower(name), patternLower) {
			found = append(found, int(p.Pid))
		}
	}

	return found, nil
}

// Kill terminates a process by PID using SIGKILL.
func (pm *ProcessManagerImpl) Kill(pid int) error {
	p, err := pm.open(pid)
	if err != nil {
		return err
	}
	if err := p.Kill(); err != nil {
		if !pm.IsRunning(pid) {
			return domain.ErrProcessGone
		}
		return err
	}
	return nil
}

// IsRunning checks if a PID exists and is running.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 only checks for existence
	return proc.Signal(syscall.Signal(0)) == nil
}

// Children returns all descendants of pid, breadth first.
func (pm *ProcessManagerImpl) Children(pid int) ([]int, error) {
	root, err := pm.open(pid)
	if err != nil {
		return nil, err
	}

	var found []int
	seen := map[int32]bool{root.Pid: true}
	queue := []*process.Process{root}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		children, err := p.Children()
		if err != nil {
			// No children, or the process exited while we walked the tree
			continue
		}
		for _, c := range children {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			found = append(found, int(c.Pid))
			queue = append(queue, c)
		}
	}

	return found, nil
}

// Cmdline returns the command line of pid.
func (pm *ProcessManagerImpl) Cmdline(pid int) (string, error) {
	p, err := pm.open(pid)
	if err != nil {
		return "", err
	}
	cmdline, err := p.Cmdline()
	if err != nil {
		if !pm.IsRunning(pid) {
			return "", domain.ErrProcessGone
		}
		return "", err
	}
	return cmdline, nil
}

// GetCurrentPID returns the current process PID.
func (pm *ProcessManagerImpl) GetCurrentPID() int {
	return os.Getpid()
}

func (pm *ProcessManagerImpl) open(pid int) (*process.Process, error) {
	if pid <= 0 {
		return nil, domain.ErrProcessGone
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil, domain.ErrProcessGone
		}
		return nil, err
	}
	return p, nil
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
