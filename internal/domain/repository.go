package domain

import (
	"context"
	"time"
)

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes matching the pattern.
	FindByName(pattern string) ([]int, error)

	// Kill terminates a process by PID (SIGKILL).
	// Returns ErrProcessGone if the process no longer exists.
	Kill(pid int) error

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// Children returns the PIDs of all descendants of pid.
	Children(pid int) ([]int, error)

	// Cmdline returns the space-joined command line of pid.
	Cmdline(pid int) (string, error)

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// FileSystemManager handles filesystem operations.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// Delete removes a file or directory recursively.
	Delete(path string) error

	// ExpandHome expands ~ to the user's home directory.
	ExpandHome(path string) string

	// ReadFile returns the content of path.
	ReadFile(path string) (string, error)
}

// WindowInspector reports the focused desktop window.
type WindowInspector interface {
	// ActiveWindow returns nil, nil when no window has focus.
	ActiveWindow(ctx context.Context) (*Window, error)
}

// MultiplexerInspector reports terminal multiplexer state (tmux).
type MultiplexerInspector interface {
	// ActivePanePIDs returns the shell PIDs of panes in attached sessions.
	ActivePanePIDs(ctx context.Context) ([]int, error)
}

// Notifier shows desktop notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Prompter asks the user for a value. Both methods return as soon as the
// question is on screen; the answer arrives through reply or fail.
type Prompter interface {
	// PromptText delivers the entered text, or nil if the user cancelled.
	PromptText(ctx context.Context, message, identifier string, reply func(any), fail func(error)) error

	// PromptYesNo delivers true or false.
	PromptYesNo(ctx context.Context, message, identifier string, reply func(any), fail func(error)) error
}

// CommandRunner starts shell commands without waiting for them.
type CommandRunner interface {
	Start(ctx context.Context, command string) error
}

// TrackerStore persists daily tracker values and daemon liveness.
type TrackerStore interface {
	// Get returns the record for (tracker, day), or nil if none exists.
	Get(tracker, day string) (*TrackerRecord, error)

	// Record stores a value. An existing record for the same key is kept.
	Record(rec TrackerRecord) error

	// List returns all records of a tracker, newest first.
	List(tracker string) ([]TrackerRecord, error)

	// Heartbeat stores the daemon liveness timestamp.
	Heartbeat(d Daemon, at time.Time) error

	// LastHeartbeat returns the last registered daemon, or nil.
	LastHeartbeat() (*Daemon, time.Time, error)

	// Close releases resources (e.g., database connection).
	Close() error
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// Clock supplies wall-clock time.
type Clock interface {
	Now() time.Time
}
