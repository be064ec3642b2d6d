package daemon

import (
	"os"
	"os/exec"
	"syscall"
)

// StartDaemon spawns `actor daemon` as a detached process and returns its PID.
func StartDaemon(configPath string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, err
	}

	cmd := daemonCommand(executable, configPath)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid

	// The daemon outlives us; nothing waits for it.
	_ = cmd.Process.Release()
	return pid, nil
}

func daemonCommand(executable, configPath string) *exec.Cmd {
	args := []string{"daemon"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd := exec.Command(executable, args...)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd
}
