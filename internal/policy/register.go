package policy

import (
	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

// Register adds a class for every configured orchestrator to r. Flows
// report their transitions to owner.
//
// Activity instances are stateless; the driver builds a fresh one with
// Context.New and calls Setup each time an activity is entered.
func Register(r *plugin.Registry, set Set, owner Owner) error {
	activities := make(map[string]bool, len(set.Activities))
	for _, spec := range set.Activities {
		spec := spec
		activities[spec.Name] = true
		err := r.Register(plugin.Class{
			Role:        domain.RoleActivity,
			Name:        spec.Name,
			Description: "allowed applications while " + spec.Name + " is active",
			New: func(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
				return NewActivity(c, spec, set.Globals)
			},
		})
		if err != nil {
			return domain.NewConfigError("activities", err.Error())
		}
	}

	for _, spec := range set.Flows {
		spec := spec
		for _, step := range spec.Steps {
			if !activities[step.Activity] {
				return domain.NewConfigError("flow."+spec.Name, "unknown activity "+step.Activity)
			}
		}
		err := r.Register(plugin.Class{
			Role:        domain.RoleFlow,
			Name:        spec.Name,
			Description: "timed sequence of activities",
			New: func(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
				return NewFlow(spec, owner, c.Deps().Clock, c.Logger())
			},
		})
		if err != nil {
			return domain.NewConfigError("flows", err.Error())
		}
	}

	for _, spec := range set.Trackers {
		spec := spec
		err := r.Register(plugin.Class{
			Role:        domain.RoleTracker,
			Name:        spec.Name,
			Description: "daily " + kindOrDefault(spec.Kind) + " tracker",
			New: func(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
				return NewTracker(c, spec)
			},
		})
		if err != nil {
			return domain.NewConfigError("trackers", err.Error())
		}
	}

	for _, spec := range set.Blocklists {
		resolved, err := ResolvePreset(spec)
		if err != nil {
			return err
		}
		err = r.Register(plugin.Class{
			Role:        domain.RoleRule,
			Name:        resolved.Name,
			Description: "blocklist",
			New: func(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
				return NewBlocklist(c, resolved)
			},
		})
		if err != nil {
			return domain.NewConfigError("blocklists", err.Error())
		}
	}

	return nil
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return TrackerInput
	}
	return kind
}
