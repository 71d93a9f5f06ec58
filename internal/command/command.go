package command

import "fmt"

// Command is a schedulable unit of behavior.
//
// The scheduler calls Initialize once when the command starts, Execute once per tick,
// IsFinished after every Execute, and End exactly once when the command stops
// (interrupted reports whether it was cancelled rather than finishing on its own).
//
// Implementations must embed Base; the unexported accessor makes that a compile-time
// requirement.
type Command interface {
	Initialize()
	Execute()
	IsFinished() bool
	End(interrupted bool)

	Name() string
	Requirements() Set
	Interruptible() bool
	RunsWhenDisabled() bool

	base() *Base
}

// Scheduler is the slice of the scheduler core that commands may call into.
type Scheduler interface {
	Schedule(cmds ...Command)
	Cancel(cmds ...Command)
	IsScheduled(c Command) bool
}

// Base holds declared capabilities and lifecycle bookkeeping shared by every command.
// The zero value is an unnamed, interruptible command with no requirements.
type Base struct {
	name             string
	reqs             Set
	uninterruptible  bool
	runsWhenDisabled bool

	owner   Command
	running bool
	busy    string // callback currently executing, "" when idle
}

// NewBase returns a Base to embed, named and requiring subs.
func NewBase(name string, subs ...*Subsystem) Base {
	return Base{name: name, reqs: NewSet(subs...)}
}

func (b *Base) base() *Base { return b }

func (b *Base) Initialize()      {}
func (b *Base) Execute()         {}
func (b *Base) IsFinished() bool { return false }
func (b *Base) End(bool)         {}

func (b *Base) Name() string {
	if b.name == "" {
		return "command"
	}
	return b.name
}

func (b *Base) SetName(name string) { b.name = name }

func (b *Base) Requirements() Set { return b.reqs.Clone() }

func (b *Base) Interruptible() bool { return !b.uninterruptible }

func (b *Base) SetInterruptible(v bool) { b.uninterruptible = !v }

func (b *Base) RunsWhenDisabled() bool { return b.runsWhenDisabled }

func (b *Base) SetRunsWhenDisabled(v bool) { b.runsWhenDisabled = v }

// AddRequirements declares subsystems this command claims while running.
// Requirements are frozen once the command is owned by a composite (the composite
// already folded them into its own set) and while it runs.
func (b *Base) AddRequirements(subs ...*Subsystem) {
	b.mustBeMutable("add requirements to")
	b.reqs.Add(subs...)
}

func (b *Base) mustBeMutable(op string) {
	if b.owner != nil {
		panic(fmt.Errorf("%w: can't %s %q (owner %q)", ErrOwned, op, b.Name(), b.owner.Name()))
	}
	if b.running {
		panic(fmt.Errorf("%w: can't %s %q", ErrRunning, op, b.Name()))
	}
}
