package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/eliteGoblin/focusd/actor/internal/config"
	"github.com/eliteGoblin/focusd/actor/internal/daemon"
	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

var (
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	primaryColor = lipgloss.Color("#7C3AED")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	warnStyle  = lipgloss.NewStyle().Foreground(warningColor)
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// renderList prints every registered class grouped by role.
func renderList(w io.Writer, r *plugin.Registry) {
	for _, role := range domain.Roles {
		fmt.Fprintln(w, string(role))
		classes := r.Classes(role)
		if len(classes) == 0 {
			fmt.Fprintln(w, "  (none)")
			continue
		}
		for _, c := range classes {
			line := fmt.Sprintf("  %-28s %s", c.Name, c.Description)
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}
}

// renderTick prints one line per orchestrator.
func renderTick(w io.Writer, result domain.TickResult) {
	fmt.Fprintln(w, titleStyle.Render("=== Tick "+result.ID+" ==="))
	if len(result.Results) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No orchestrators configured."))
	}
	for _, res := range result.Results {
		label := fmt.Sprintf("[%s] %s", res.Role, res.Name)
		if res.Err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", errStyle.Render("FAIL"), label, res.Err)
			continue
		}
		fmt.Fprintf(w, "%s   %s\n", okStyle.Render("OK"), label)
	}
	fmt.Fprintf(w, "%d failed, took %dms\n", len(result.Failed()), result.DurationMs)
}

type trackerLine struct {
	Name  string
	Value string
	Found bool
}

// statusView is what `status` shows.
type statusView struct {
	Now      time.Time
	Running  bool
	Daemon   *domain.Daemon
	LastBeat time.Time

	DefaultActivity string
	DefaultFlow     string
	Trackers        []trackerLine
	StorePath       string
}

func collectStatus(cfg *config.Config, store domain.TrackerStore, pm domain.ProcessManager, now time.Time) (statusView, error) {
	view := statusView{
		Now:             now,
		DefaultActivity: cfg.DefaultActivity,
		DefaultFlow:     cfg.DefaultFlow,
	}

	d, alive, err := daemon.Alive(store, pm, now, cfg.HeartbeatInterval)
	if err != nil {
		return view, fmt.Errorf("failed to read daemon state: %w", err)
	}
	view.Running = alive
	view.Daemon = d
	if d != nil {
		if _, at, err := store.LastHeartbeat(); err == nil {
			view.LastBeat = at
		}
	}

	day := domain.DayKey(now)
	for _, t := range cfg.Trackers {
		rec, err := store.Get(t.Name, day)
		if err != nil {
			return view, fmt.Errorf("failed to read tracker %s: %w", t.Name, err)
		}
		line := trackerLine{Name: t.Name}
		if rec != nil {
			line.Value, line.Found = rec.Value, true
		}
		view.Trackers = append(view.Trackers, line)
	}
	return view, nil
}

func renderStatus(w io.Writer, v statusView) {
	fmt.Fprintln(w, titleStyle.Render("=== actor Status ==="))

	switch {
	case v.Running:
		fmt.Fprintf(w, "Status: %s (pid %d, version %s)\n", okStyle.Render("RUNNING"), v.Daemon.PID, v.Daemon.Version)
	case v.Daemon != nil:
		fmt.Fprintf(w, "Status: %s (last seen pid %d)\n", errStyle.Render("NOT RUNNING"), v.Daemon.PID)
	default:
		fmt.Fprintf(w, "Status: %s\n", errStyle.Render("NOT RUNNING"))
	}
	if !v.LastBeat.IsZero() {
		fmt.Fprintf(w, "Last heartbeat: %s ago\n", v.Now.Sub(v.LastBeat).Round(time.Second))
	}
	if !v.Running {
		fmt.Fprintln(w, mutedStyle.Render("Run 'actor start' to start the daemon."))
	}

	if v.DefaultFlow != "" {
		fmt.Fprintf(w, "Default flow: %s\n", v.DefaultFlow)
	}
	if v.DefaultActivity != "" {
		fmt.Fprintf(w, "Default activity: %s\n", v.DefaultActivity)
	}

	if len(v.Trackers) > 0 {
		fmt.Fprintf(w, "\nTrackers today (%s):\n", domain.DayKey(v.Now))
		for _, t := range v.Trackers {
			value := warnStyle.Render("not recorded")
			if t.Found {
				value = t.Value
			}
			fmt.Fprintf(w, "  - %s: %s\n", t.Name, value)
		}
	}

	if v.StorePath != "" {
		fmt.Fprintf(w, "\nStore: %s\n", v.StorePath)
	}
}

// formatValue renders a reporter result for the terminal.
func formatValue(v any) string {
	if v == nil {
		return "(no value)"
	}
	return fmt.Sprint(v)
}
