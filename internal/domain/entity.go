// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// Role identifies the kind of plugin a class implements.
type Role string

const (
	RoleReporter Role = "report" // produces a value
	RoleChecker  Role = "check"  // decides a boolean
	RoleFixer    Role = "fix"    // performs an action

	// Orchestrator kinds. They query workers and trigger actions.
	RoleRule     Role = "rule"
	RoleActivity Role = "activity"
	RoleFlow     Role = "flow"
	RoleTracker  Role = "tracker"
)

// Roles lists every role in display order.
var Roles = []Role{RoleReporter, RoleChecker, RoleFixer, RoleRule, RoleActivity, RoleFlow, RoleTracker}

// IsOrchestrator reports whether the role names an orchestrator kind.
func (r Role) IsOrchestrator() bool {
	switch r {
	case RoleRule, RoleActivity, RoleFlow, RoleTracker:
		return true
	}
	return false
}

// Args carries the named arguments of a single worker invocation.
type Args map[string]any

// Options carries constructor options of a worker instance.
type Options map[string]any

// String returns the string value stored under key, or "".
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the integer value stored under key.
func (a Args) Int(key string) (int, bool) {
	return toInt(a[key])
}

// String returns the string value stored under key, or "".
func (o Options) String(key string) string {
	s, _ := o[key].(string)
	return s
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Window describes the currently focused desktop window.
type Window struct {
	ID    string
	Title string
	PID   int
}

// Notification is a desktop notification request.
type Notification struct {
	Headline string
	Message  string
	AppName  string
	Timeout  time.Duration
}

// TrackerRecord is one value captured by a daily tracker.
// At most one record exists per (Tracker, Day).
type TrackerRecord struct {
	Tracker    string
	Day        string // 2006-01-02
	Value      string
	RecordedAt time.Time
}

// DayKey formats t as the calendar-day key used by tracker records.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Daemon represents a running actor daemon process.
type Daemon struct {
	PID       int
	StartedAt time.Time
	Version   string
}

// OrchestratorResult captures what happened to one orchestrator during a tick.
type OrchestratorResult struct {
	Role Role
	Name string
	Err  error
}

// TickResult captures what happened during a single tick.
type TickResult struct {
	ID         string
	Results    []OrchestratorResult
	ExecutedAt time.Time
	DurationMs int64
}

// Failed returns the results that carry an error.
func (r TickResult) Failed() []OrchestratorResult {
	var failed []OrchestratorResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}
