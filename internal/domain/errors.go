package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the engine raises matches exactly one of these
// through errors.Is, so the tick driver can log and continue.
var (
	ErrConfiguration  = errors.New("invalid configuration")
	ErrNotFound       = errors.New("plugin not found")
	ErrNotImplemented = errors.New("run is not implemented")
	ErrTransient      = errors.New("transient external failure")

	// ErrTimeout is returned when a pushed result never arrives.
	ErrTimeout = fmt.Errorf("%w: timed out waiting for reply", ErrTransient)

	// ErrProcessGone is returned when a process exited before it was inspected.
	ErrProcessGone = errors.New("process no longer exists")
)

// NotFoundError names the role and identifier that could not be resolved.
type NotFoundError struct {
	Role Role
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s plugin named %q", e.Role, e.Name)
}

// Is makes NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConfigError describes a misconfigured orchestrator or worker.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Is makes ConfigError match ErrConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigError creates a ConfigError.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// Transient wraps err so it matches ErrTransient.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Kind classifies err for logging.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrProcessGone):
		return "process_gone"
	}
	return "unknown"
}
