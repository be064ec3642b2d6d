package workers

import (
	"context"
	"time"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
	"github.com/eliteGoblin/focusd/actor/internal/plugin"
)

// TimeLayout is the layout of the time reporter.
const TimeLayout = "15.04"

// ClockLayout is the layout of time_between bounds and tracker availability.
const ClockLayout = "15:04"

func init() {
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "time",
		Description: "current time as HH.MM",
		New:         newClockReporter(func(t time.Time) any { return t.Format(TimeLayout) }),
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleReporter,
		Name:        "weekday",
		Description: "current day of the week",
		New:         newClockReporter(func(t time.Time) any { return t.Weekday().String() }),
	})
	plugin.Register(plugin.Class{
		Role:        domain.RoleChecker,
		Name:        "time_between",
		Description: "whether the time of day lies in [from, to), HH:MM",
		New:         newTimeBetween,
	})
}

type clockReporter struct {
	plugin.ReporterTraits
	clock  domain.Clock
	format func(time.Time) any
}

func newClockReporter(format func(time.Time) any) plugin.Factory {
	return func(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
		clock := c.Deps().Clock
		if err := requireDep(clock != nil, "clock"); err != nil {
			return nil, err
		}
		return &clockReporter{clock: clock, format: format}, nil
	}
}

func (r *clockReporter) Run(ctx context.Context, args domain.Args) (any, error) {
	return r.format(r.clock.Now()), nil
}

type timeBetween struct {
	plugin.CheckerTraits
	clock domain.Clock
	opts  domain.Options
}

func newTimeBetween(c *plugin.Context, opts domain.Options) (plugin.Worker, error) {
	clock := c.Deps().Clock
	if err := requireDep(clock != nil, "clock"); err != nil {
		return nil, err
	}
	return &timeBetween{clock: clock, opts: opts}, nil
}

// Run handles windows that wrap past midnight, like 22:00 to 06:00.
func (t *timeBetween) Run(ctx context.Context, args domain.Args) (any, error) {
	from, err := ParseClock(stringArg(args, t.opts, "from"))
	if err != nil {
		return nil, domain.NewConfigError("from", err.Error())
	}
	to, err := ParseClock(stringArg(args, t.opts, "to"))
	if err != nil {
		return nil, domain.NewConfigError("to", err.Error())
	}

	now := t.clock.Now()
	minute := now.Hour()*60 + now.Minute()
	if from <= to {
		return minute >= from && minute < to, nil
	}
	return minute >= from || minute < to, nil
}

// ParseClock parses an HH:MM time of day into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
