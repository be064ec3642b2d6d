// Package usecase contains application business logic.
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
	"github.com/eliteGoblin/focusd/actor/internal/policy"
)

// Actor drives every orchestrator once per tick. It owns the current
// activity and flow; flows switch activities through it.
type Actor struct {
	context *plugin.Context
	clock   domain.Clock
	logger  *zap.Logger

	mu       sync.Mutex
	activity *policy.Activity
	flow     *policy.Flow
}

// NewActor registers the configured orchestrators into a copy of base
// and builds the context they run in.
func NewActor(base *plugin.Registry, set policy.Set, deps plugin.Deps, logger *zap.Logger) (*Actor, error) {
	if deps.Clock == nil {
		return nil, domain.NewConfigError("clock", "collaborator not configured")
	}
	a := &Actor{clock: deps.Clock, logger: logger}

	registry := base.Clone()
	if err := policy.Register(registry, set, a); err != nil {
		return nil, err
	}
	a.context = plugin.NewContext(registry, deps, logger)
	return a, nil
}

// Context returns the plugin context the orchestrators run in.
func (a *Actor) Context() *plugin.Context { return a.context }

// Tick runs every rule, then every tracker, then the current activity,
// then the current flow. A failing orchestrator is logged and the tick
// continues with the next one.
func (a *Actor) Tick(ctx context.Context) domain.TickResult {
	start := a.clock.Now()
	result := domain.TickResult{
		ID:         uuid.NewString(),
		ExecutedAt: start,
	}
	logger := a.logger.With(zap.String("tick", result.ID))

	registry := a.context.Registry()
	for _, role := range []domain.Role{domain.RoleRule, domain.RoleTracker} {
		for _, name := range registry.Names(role) {
			w, err := a.context.Make(role, name, nil)
			if err == nil {
				err = a.run(ctx, logger, role, name, w)
			}
			result.Results = append(result.Results, a.outcome(logger, role, name, err))
		}
	}

	a.mu.Lock()
	activity, flow := a.activity, a.flow
	a.mu.Unlock()

	if activity != nil {
		err := a.run(ctx, logger, domain.RoleActivity, activity.Identifier(), activity)
		result.Results = append(result.Results, a.outcome(logger, domain.RoleActivity, activity.Identifier(), err))
	}
	if flow != nil {
		err := a.run(ctx, logger, domain.RoleFlow, flow.Identifier(), flow)
		result.Results = append(result.Results, a.outcome(logger, domain.RoleFlow, flow.Identifier(), err))
	}

	result.DurationMs = a.clock.Now().Sub(start).Milliseconds()
	return result
}

func (a *Actor) run(ctx context.Context, logger *zap.Logger, role domain.Role, name string, w plugin.Worker) error {
	_, err := plugin.Evaluate(ctx, logger.With(zap.String("role", string(role)), zap.String("rule", name)), w, nil)
	return err
}

func (a *Actor) outcome(logger *zap.Logger, role domain.Role, name string, err error) domain.OrchestratorResult {
	if err != nil {
		logger.Warn("orchestrator failed",
			zap.String("role", string(role)),
			zap.String("rule", name),
			zap.String("kind", domain.Kind(err)),
			zap.Error(err))
	}
	return domain.OrchestratorResult{Role: role, Name: name, Err: err}
}

// SetActivity enters the named activity, running its setup again even
// when it is already current.
func (a *Actor) SetActivity(ctx context.Context, name string) error {
	w, err := a.context.New(domain.RoleActivity, name, nil)
	if err != nil {
		return err
	}
	activity, ok := w.(*policy.Activity)
	if !ok {
		return domain.NewConfigError("activity."+name, "not an activity")
	}
	if err := activity.Setup(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.activity = activity
	a.mu.Unlock()

	a.logger.Info("activity set", zap.String("activity", name))
	return nil
}

// UnsetActivity leaves the current activity.
func (a *Actor) UnsetActivity(ctx context.Context) error {
	a.mu.Lock()
	prev := a.activity
	a.activity = nil
	a.mu.Unlock()

	if prev != nil {
		a.logger.Info("activity unset", zap.String("activity", prev.Identifier()))
	}
	return nil
}

// SetFlow starts the named flow from its first step. The first step
// begins on the next tick.
func (a *Actor) SetFlow(ctx context.Context, name string) error {
	w, err := a.context.New(domain.RoleFlow, name, nil)
	if err != nil {
		return err
	}
	flow, ok := w.(*policy.Flow)
	if !ok {
		return domain.NewConfigError("flow."+name, "not a flow")
	}

	a.mu.Lock()
	a.flow = flow
	a.mu.Unlock()

	a.logger.Info("flow set", zap.String("flow", name))
	return nil
}

// UnsetFlow leaves flow mode. The current activity is kept.
func (a *Actor) UnsetFlow(ctx context.Context) error {
	a.mu.Lock()
	prev := a.flow
	a.flow = nil
	a.mu.Unlock()

	if prev != nil {
		a.logger.Info("flow unset", zap.String("flow", prev.Identifier()))
	}
	return nil
}

// Status is a snapshot of what the actor is doing.
type Status struct {
	Activity string
	Flow     *policy.FlowState
	At       time.Time
}

// Status returns the current activity and flow.
func (a *Actor) Status() Status {
	a.mu.Lock()
	activity, flow := a.activity, a.flow
	a.mu.Unlock()

	// The flow locks itself and may call back into the actor.
	st := Status{At: a.clock.Now()}
	if activity != nil {
		st.Activity = activity.Identifier()
	}
	if flow != nil {
		fs := flow.State()
		st.Flow = &fs
	}
	return st
}

// Ensure Actor satisfies the owner contract of flows.
var _ policy.Owner = (*Actor)(nil)
