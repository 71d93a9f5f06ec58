package trigger

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
)

// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Compile turns a parsed spec into a cron.Schedule.
func (p ParsedSpec) Compile() (cron.Schedule, error) {
	switch p.Kind {
	case SpecInterval:
		if p.Every <= 0 {
			return nil, fmt.Errorf("interval must be > 0")
		}
		if p.Every < time.Second {
			return fastEvery(p.Every), nil
		}
		return cron.Every(p.Every), nil
	case SpecDaily:
		return cronParser.Parse(fmt.Sprintf("%d %d * * *", p.Minute, p.Hour))
	default:
		sch, err := cronParser.Parse(p.Cron)
		if err != nil {
			return nil, fmt.Errorf("invalid cron %q: %w", p.Cron, err)
		}
		return sch, nil
	}
}

// fastEvery is a sub-second interval; cron.Every rounds up to whole seconds.
type fastEvery time.Duration

func (f fastEvery) Next(t time.Time) time.Time { return t.Add(time.Duration(f)) }

// Due is a condition that reads true once each time a wall-clock schedule comes
// due. Missed fire times collapse into a single pulse.
type Due struct {
	spec ParsedSpec
	sch  cron.Schedule
	clk  clock.Clock
	loc  *time.Location
	next time.Time
}

// NewDue parses raw and arms it relative to clk's current time. A nil clk uses the
// wall clock and a nil loc uses time.Local.
func NewDue(raw string, clk clock.Clock, loc *time.Location) (*Due, error) {
	spec, err := ParseSchedule(raw)
	if err != nil {
		return nil, err
	}
	sch, err := spec.Compile()
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	if loc == nil {
		loc = time.Local
	}
	d := &Due{spec: spec, sch: sch, clk: clk, loc: loc}
	d.next = sch.Next(clk.Now().In(loc))
	return d, nil
}

// Fire reports whether the schedule came due since the previous true result.
func (d *Due) Fire() bool {
	now := d.clk.Now().In(d.loc)
	if now.Before(d.next) {
		return false
	}
	d.next = d.sch.Next(now)
	return true
}

func (d *Due) Next() time.Time { return d.next }

func (d *Due) Spec() ParsedSpec { return d.spec }

// OnSchedule returns a trigger that presses once each time raw comes due.
func OnSchedule(s Scheduler, raw string, clk clock.Clock, loc *time.Location) (*Trigger, *Due, error) {
	d, err := NewDue(raw, clk, loc)
	if err != nil {
		return nil, nil, err
	}
	return New(s, d.Fire), d, nil
}
