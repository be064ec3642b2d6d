package workers

import (
	"context"
	"fmt"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

func init() {
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "track",
		Description: "value recorded for tracker on day (default today)",
		New:         newTrackReporter,
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleChecker,
		Name:        "recorded",
		Description: "whether tracker has a value for today",
		New:         newRecorded,
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleFixer,
		Name:        "track",
		Description: "record value for tracker on day; the first value of a day wins",
		New:         newTrackFixer,
	})
}

type trackBase struct {
	store domain.TrackerStore
	clock domain.Clock
}

func newTrackBase(c *plugin.Context) (trackBase, error) {
	deps := c.Deps()
	if err := requireDep(deps.Store != nil, "store"); err != nil {
		return trackBase{}, err
	}
	if err := requireDep(deps.Clock != nil, "clock"); err != nil {
		return trackBase{}, err
	}
	return trackBase{store: deps.Store, clock: deps.Clock}, nil
}

// key returns the (tracker, day) pair addressed by args.
func (b trackBase) key(args domain.Args) (string, string, error) {
	tracker := args.String("tracker")
	if tracker == "" {
		return "", "", domain.NewConfigError("tracker", "a tracker name is required")
	}
	day := args.String("day")
	if day == "" {
		day = domain.DayKey(b.clock.Now())
	}
	return tracker, day, nil
}

func (b trackBase) lookup(args domain.Args) (*domain.TrackerRecord, error) {
	tracker, day, err := b.key(args)
	if err != nil {
		return nil, err
	}
	rec, err := b.store.Get(tracker, day)
	if err != nil {
		return nil, domain.Transient(err)
	}
	return rec, nil
}

type trackReporter struct {
	plugin.ReporterTraits
	trackBase
}

func newTrackReporter(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	base, err := newTrackBase(c)
	if err != nil {
		return nil, err
	}
	return &trackReporter{trackBase: base}, nil
}

func (r *trackReporter) Run(ctx context.Context, args domain.Args) (any, error) {
	rec, err := r.lookup(args)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Value, nil
}

type recorded struct {
	plugin.CheckerTraits
	trackBase
}

func newRecorded(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	base, err := newTrackBase(c)
	if err != nil {
		return nil, err
	}
	return &recorded{trackBase: base}, nil
}

func (r *recorded) Run(ctx context.Context, args domain.Args) (any, error) {
	rec, err := r.lookup(args)
	if err != nil {
		return nil, err
	}
	return rec != nil, nil
}

type trackFixer struct {
	plugin.FixerTraits
	trackBase
}

func newTrackFixer(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	base, err := newTrackBase(c)
	if err != nil {
		return nil, err
	}
	return &trackFixer{trackBase: base}, nil
}

func (f *trackFixer) Run(ctx context.Context, args domain.Args) (any, error) {
	tracker, day, err := f.key(args)
	if err != nil {
		return nil, err
	}
	value, ok := args["value"]
	if !ok || value == nil {
		return nil, domain.NewConfigError("value", "a value is required")
	}
	rec := domain.TrackerRecord{
		Tracker:    tracker,
		Day:        day,
		Value:      fmt.Sprint(value),
		RecordedAt: f.clock.Now(),
	}
	if err := f.store.Record(rec); err != nil {
		return nil, domain.Transient(err)
	}
	return nil, nil
}
