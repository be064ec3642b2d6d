package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
	"github.com/eliteGoblin/focusd/actor/internal/workers"
)

// Tracker asks the user for one value a day once its availability time
// has passed, and records the answer.
//
// Run is called from the tick loop only, so its fields are unguarded.
type Tracker struct {
	plugin.OrchestratorTraits
	proxy plugin.Proxy
	clock domain.Clock

	name         string
	message      string
	yesno        bool
	availability time.Duration // since midnight
	prompt       plugin.AsyncWorker

	// askedDay is the day the open question belongs to, "" when none is.
	askedDay string
	// pending holds an answer whose write failed, retried next tick.
	pending *domain.TrackerRecord
}

// NewTracker validates spec and makes the tracker's own prompt.
func NewTracker(c *plugin.Context, spec TrackerSpec) (*Tracker, error) {
	if spec.Name == "" {
		return nil, domain.NewConfigError("tracker.name", "must not be empty")
	}
	field := "tracker." + spec.Name

	minutes, err := workers.ParseClock(spec.Availability)
	if err != nil {
		return nil, domain.NewConfigError(field+".availability", "want HH:MM")
	}

	promptName := "prompt"
	switch spec.Kind {
	case "", TrackerInput:
	case TrackerYesNo:
		promptName = "prompt_yesno"
	default:
		return nil, domain.NewConfigError(field+".kind", fmt.Sprintf("unknown kind %q", spec.Kind))
	}

	clock := c.Deps().Clock
	if clock == nil {
		return nil, domain.NewConfigError(field, "needs a clock")
	}

	w, err := c.Make(domain.RoleFixer, promptName, domain.Options{"identifier": spec.Name})
	if err != nil {
		return nil, err
	}
	prompt, ok := w.(plugin.AsyncWorker)
	if !ok {
		return nil, domain.NewConfigError(field, promptName+" is not asynchronous")
	}

	message := spec.Message
	if message == "" {
		message = fmt.Sprintf("Please enter the value for %s", spec.Name)
	}

	t := &Tracker{
		clock:        clock,
		name:         spec.Name,
		message:      message,
		yesno:        spec.Kind == TrackerYesNo,
		availability: time.Duration(minutes) * time.Minute,
		prompt:       prompt,
	}
	t.proxy = plugin.NewProxy(c, t)
	return t, nil
}

func (t *Tracker) Identifier() string { return t.name }

// Run asks, waits or records, depending on the day's progress.
func (t *Tracker) Run(ctx context.Context, args domain.Args) (any, error) {
	if t.pending != nil {
		if err := t.record(ctx, t.pending.Day, t.pending.Value); err != nil {
			return nil, err
		}
	}

	now := t.clock.Now()
	day := domain.DayKey(now)
	if t.askedDay != "" && t.askedDay != day {
		// The open question belongs to an earlier day: its answer is
		// recorded under that day before today's question is asked.
		switch t.prompt.State() {
		case plugin.TaskRunning:
			return nil, nil
		case plugin.TaskCompleted:
			if err := t.collect(ctx); err != nil {
				return nil, err
			}
		default:
			t.askedDay = ""
		}
	}

	if !t.obtainable(now) {
		return nil, nil
	}

	done, err := t.proxy.Check(ctx, "recorded", domain.Args{"tracker": t.name, "day": day})
	if err != nil || done {
		return nil, err
	}

	if t.prompt.State() == plugin.TaskIdle {
		t.askedDay = day
	}
	return nil, t.collect(ctx)
}

// collect evaluates the prompt and records a completed answer under the
// day it was asked for.
func (t *Tracker) collect(ctx context.Context) error {
	day := t.askedDay

	// A prompt that was already completed before this call and still
	// yields nothing was declined.
	answered := t.prompt.State() == plugin.TaskCompleted
	value, err := plugin.Evaluate(ctx, t.proxy.Logger(), t.prompt,
		domain.Args{"message": t.message, "identifier": t.name})
	if err != nil {
		t.close()
		return err
	}
	if value == nil {
		if answered {
			t.close()
		}
		return nil
	}

	t.close()
	processed, ok := t.process(value)
	if !ok {
		t.proxy.Logger().Info("tracker prompt declined", zap.String("day", day))
		return nil
	}
	return t.record(ctx, day, processed)
}

// close resets the prompt so the next question starts afresh.
func (t *Tracker) close() {
	t.prompt.Reset()
	t.askedDay = ""
}

// record writes value, keeping it pending when the store fails.
func (t *Tracker) record(ctx context.Context, day, value string) error {
	_, err := t.proxy.Fix(ctx, "track", domain.Args{"tracker": t.name, "day": day, "value": value})
	if err != nil {
		t.pending = &domain.TrackerRecord{Tracker: t.name, Day: day, Value: value}
		return err
	}
	t.pending = nil
	t.proxy.Logger().Info("tracker value recorded", zap.String("day", day))
	return nil
}

func (t *Tracker) obtainable(now time.Time) bool {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return now.Sub(midnight) >= t.availability
}

// process normalizes an answer. ok is false for a blank text answer.
func (t *Tracker) process(value any) (string, bool) {
	if t.yesno {
		if b, _ := value.(bool); b {
			return "Yes", true
		}
		return "No", true
	}
	s := strings.TrimSpace(fmt.Sprint(value))
	return s, s != ""
}
