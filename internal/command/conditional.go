package command

// Conditional picks one of two branches each time it is scheduled.
//
// The condition is evaluated once, in Initialize; the choice holds until the
// command ends. Requirements are the union of both branches so the scheduler sees
// the same footprint whichever branch runs.
type Conditional struct {
	Base
	onTrue  Command
	onFalse Command // may be nil: the false path is a no-op
	cond    func() bool

	chosen Command
}

func NewConditional(name string, onTrue, onFalse Command, cond func() bool) *Conditional {
	c := &Conditional{Base: NewBase(name), onTrue: onTrue, onFalse: onFalse, cond: cond}
	if onTrue == nil {
		panic(ErrNilCommand)
	}
	Adopt(c, onTrue)
	c.reqs.Add(onTrue.Requirements().items...)
	if onFalse != nil {
		Adopt(c, onFalse)
		c.reqs.Add(onFalse.Requirements().items...)
	}
	return c
}

func (c *Conditional) Initialize() {
	c.chosen = c.onFalse
	if c.cond != nil && c.cond() {
		c.chosen = c.onTrue
	}
	if c.chosen != nil {
		Init(c.chosen)
	}
}

func (c *Conditional) Execute() {
	if c.chosen != nil {
		Exec(c.chosen)
	}
}

func (c *Conditional) IsFinished() bool {
	return c.chosen == nil || Finished(c.chosen)
}

func (c *Conditional) End(interrupted bool) {
	if c.chosen != nil {
		Stop(c.chosen, interrupted)
	}
}

// Chosen returns the branch picked by the last Initialize, or nil.
func (c *Conditional) Chosen() Command { return c.chosen }

// Interruptible is false while the chosen branch is running and can't be
// interrupted.
func (c *Conditional) Interruptible() bool {
	if !c.Base.Interruptible() {
		return false
	}
	if c.chosen != nil && Running(c.chosen) {
		return c.chosen.Interruptible()
	}
	return true
}

func (c *Conditional) RunsWhenDisabled() bool {
	if !c.onTrue.RunsWhenDisabled() {
		return false
	}
	return c.onFalse == nil || c.onFalse.RunsWhenDisabled()
}
