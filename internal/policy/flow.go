package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

// Owner is the driver that holds the current activity and flow.
type Owner interface {
	SetActivity(ctx context.Context, name string) error
	UnsetActivity(ctx context.Context) error
	UnsetFlow(ctx context.Context) error
}

// Flow runs a sequence of activities, each for a fixed number of minutes.
//
// Its state is either not started (index nil) or in step *index since
// start. When the last step expires the flow asks its owner to leave
// flow mode.
type Flow struct {
	plugin.OrchestratorTraits
	logger *zap.Logger

	name  string
	steps []FlowStep
	owner Owner
	clock domain.Clock

	mu    sync.Mutex
	index *int
	start time.Time
}

// NewFlow validates spec and returns a flow that has not started.
func NewFlow(spec FlowSpec, owner Owner, clock domain.Clock, logger *zap.Logger) (*Flow, error) {
	if spec.Name == "" {
		return nil, domain.NewConfigError("flow.name", "must not be empty")
	}
	if len(spec.Steps) == 0 {
		return nil, domain.NewConfigError("flow."+spec.Name, "needs at least one step")
	}
	for i, step := range spec.Steps {
		if step.Activity == "" || step.Minutes <= 0 {
			return nil, domain.NewConfigError(fmt.Sprintf("flow.%s.steps[%d]", spec.Name, i),
				"needs an activity and a positive number of minutes")
		}
	}
	if owner == nil || clock == nil {
		return nil, domain.NewConfigError("flow."+spec.Name, "needs an owner and a clock")
	}
	return &Flow{
		logger: logger.With(zap.String("rule", spec.Name)),
		name:   spec.Name,
		steps:  spec.Steps,
		owner:  owner,
		clock:  clock,
	}, nil
}

func (f *Flow) Identifier() string { return f.name }

// Run evaluates at most one transition.
func (f *Flow) Run(ctx context.Context, args domain.Args) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index == nil {
		i := 0
		f.index = &i
		return nil, f.begin(ctx)
	}
	if !f.expired() {
		return nil, nil
	}

	if err := f.end(ctx); err != nil {
		return nil, err
	}
	if *f.index+1 < len(f.steps) {
		next := *f.index + 1
		f.index = &next
		return nil, f.begin(ctx)
	}

	f.logger.Info("flow finished")
	f.index = nil
	return nil, f.owner.UnsetFlow(ctx)
}

func (f *Flow) begin(ctx context.Context) error {
	step := f.steps[*f.index]
	f.start = f.clock.Now()
	f.logger.Info("starting flow step",
		zap.Int("step", *f.index),
		zap.String("activity", step.Activity),
		zap.Int("minutes", step.Minutes))
	return f.owner.SetActivity(ctx, step.Activity)
}

func (f *Flow) end(ctx context.Context) error {
	f.start = time.Time{}
	return f.owner.UnsetActivity(ctx)
}

func (f *Flow) expired() bool {
	step := f.steps[*f.index]
	end := f.start.Add(time.Duration(step.Minutes) * time.Minute)
	return f.clock.Now().After(end)
}

// FlowState describes the progress of a flow.
type FlowState struct {
	Name      string
	Started   bool
	Step      int
	Activity  string
	Remaining time.Duration
}

// State returns the current progress.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := FlowState{Name: f.name}
	if f.index == nil {
		return st
	}
	step := f.steps[*f.index]
	st.Started = true
	st.Step = *f.index
	st.Activity = step.Activity
	if !f.start.IsZero() {
		end := f.start.Add(time.Duration(step.Minutes) * time.Minute)
		if remaining := end.Sub(f.clock.Now()); remaining > 0 {
			st.Remaining = remaining
		}
	}
	return st
}
