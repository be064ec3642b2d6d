// Package plugin implements the registry, the dependency broker and the
// evaluation contracts shared by every pluggable unit.
package plugin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

// Traits is metadata about a worker instance.
type Traits struct {
	// Stateless workers may be reused freely between callers.
	Stateless bool
	// SideEffects is true when invoking the worker changes external state.
	// Callers use it for dry-run and audit decisions.
	SideEffects bool
}

// Worker is the common shape of every pluggable unit.
type Worker interface {
	// Run is the role-specific primitive: produce a value, decide a
	// boolean or perform an action.
	Run(ctx context.Context, args domain.Args) (any, error)

	// Traits describes the instance.
	Traits() Traits
}

// Unimplemented can be embedded by workers. Its Run fails with
// domain.ErrNotImplemented until the embedding type defines its own.
type Unimplemented struct{}

func (Unimplemented) Run(context.Context, domain.Args) (any, error) {
	return nil, domain.ErrNotImplemented
}

// ReporterTraits can be embedded by data producers.
type ReporterTraits struct{}

func (ReporterTraits) Traits() Traits { return Traits{Stateless: true} }

// CheckerTraits can be embedded by deciders.
type CheckerTraits struct{}

func (CheckerTraits) Traits() Traits { return Traits{Stateless: true} }

// FixerTraits can be embedded by action performers.
type FixerTraits struct{}

func (FixerTraits) Traits() Traits { return Traits{Stateless: true, SideEffects: true} }

// OrchestratorTraits can be embedded by rules, activities, flows and trackers.
type OrchestratorTraits struct{}

func (OrchestratorTraits) Traits() Traits { return Traits{} }

// Evaluate runs w with debug logging of inputs and outputs.
func Evaluate(ctx context.Context, logger *zap.Logger, w Worker, args domain.Args) (any, error) {
	logger.Debug("running", zap.Any("args", args))

	result, err := w.Run(ctx, args)
	if err != nil {
		logger.Debug("run failed", zap.Error(err))
		return nil, err
	}

	logger.Debug("result", zap.Any("result", result))
	return result, nil
}

// Decide runs a checker without arguments and returns its verdict.
func Decide(ctx context.Context, logger *zap.Logger, w Worker) (bool, error) {
	result, err := Evaluate(ctx, logger, w, nil)
	if err != nil {
		return false, err
	}
	return asBool(w, result)
}

func asBool(w Worker, result any) (bool, error) {
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%T produced %T, not a boolean", w, result)
	}
	return b, nil
}
