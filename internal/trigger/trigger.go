package trigger

import (
	"robocmd/internal/command"
	"robocmd/internal/scheduler"
)

// Scheduler is what a Trigger needs from the scheduler core.
type Scheduler interface {
	command.Scheduler
	AddButton(b scheduler.Button)
}

type edge uint8

const (
	onRise edge = iota + 1
	onFall
)

type binding struct {
	cmd    command.Command
	when   edge
	action func(s Scheduler, c command.Command)
}

// Trigger edge-detects a condition once per tick and runs its bindings.
//
// The previous state starts out false, so a condition that is already true on the
// first poll counts as a press.
type Trigger struct {
	sched    Scheduler
	cond     func() bool
	last     bool
	bindings []binding
}

// New registers a trigger for cond with s. Bindings added later take effect on the
// next poll.
func New(s Scheduler, cond func() bool) *Trigger {
	if cond == nil {
		cond = func() bool { return false }
	}
	t := &Trigger{sched: s, cond: cond}
	s.AddButton(t)
	return t
}

// Poll samples the condition and fires bindings for the edge it observes.
func (t *Trigger) Poll() {
	now := t.cond()
	prev := t.last
	t.last = now
	if now == prev {
		return
	}
	want := onFall
	if now {
		want = onRise
	}
	for _, b := range t.bindings {
		if b.when == want {
			b.action(t.sched, b.cmd)
		}
	}
}

// Get reports the condition's current value without affecting edge detection.
func (t *Trigger) Get() bool { return t.cond() }

// OnTrue schedules cmd when the condition becomes true.
func (t *Trigger) OnTrue(cmd command.Command) *Trigger {
	return t.bind(cmd, onRise, schedule)
}

// OnFalse schedules cmd when the condition becomes false.
func (t *Trigger) OnFalse(cmd command.Command) *Trigger {
	return t.bind(cmd, onFall, schedule)
}

// WhileTrue schedules cmd when the condition becomes true and cancels it when the
// condition becomes false.
func (t *Trigger) WhileTrue(cmd command.Command) *Trigger {
	t.bind(cmd, onRise, schedule)
	return t.bind(cmd, onFall, cancel)
}

// ToggleOnTrue flips cmd between scheduled and cancelled on every press.
func (t *Trigger) ToggleOnTrue(cmd command.Command) *Trigger {
	return t.bind(cmd, onRise, func(s Scheduler, c command.Command) {
		if s.IsScheduled(c) {
			s.Cancel(c)
			return
		}
		s.Schedule(c)
	})
}

// CancelOnTrue cancels cmd when the condition becomes true.
func (t *Trigger) CancelOnTrue(cmd command.Command) *Trigger {
	return t.bind(cmd, onRise, cancel)
}

func (t *Trigger) bind(cmd command.Command, when edge, action func(Scheduler, command.Command)) *Trigger {
	if cmd == nil {
		panic(command.ErrNilCommand)
	}
	t.bindings = append(t.bindings, binding{cmd: cmd, when: when, action: action})
	return t
}

func schedule(s Scheduler, c command.Command) { s.Schedule(c) }
func cancel(s Scheduler, c command.Command)   { s.Cancel(c) }

// And is true when every cond is true.
func And(conds ...func() bool) func() bool {
	return func() bool {
		for _, c := range conds {
			if !c() {
				return false
			}
		}
		return true
	}
}

// Or is true when any cond is true.
func Or(conds ...func() bool) func() bool {
	return func() bool {
		for _, c := range conds {
			if c() {
				return true
			}
		}
		return false
	}
}

func Not(cond func() bool) func() bool {
	return func() bool { return !cond() }
}
