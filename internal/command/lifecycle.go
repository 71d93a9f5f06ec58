package command

import "fmt"

// Init starts c. Callers are the scheduler and composites driving their children.
func Init(c Command) {
	b := enter(c, "initialize")
	defer b.leave()
	b.running = true
	c.Initialize()
}

// Exec runs one execute step of a started command.
func Exec(c Command) {
	b := enter(c, "execute")
	defer b.leave()
	if !b.running {
		panic(fmt.Errorf("%w: execute %q", ErrNotRunning, b.Name()))
	}
	c.Execute()
}

// Finished polls the is-finished predicate.
func Finished(c Command) bool {
	b := enter(c, "is-finished")
	defer b.leave()
	return c.IsFinished()
}

// Stop ends a started command. It is a no-op when c isn't running, so cleanup
// paths can call it without tracking whether the child already ended.
func Stop(c Command, interrupted bool) {
	b := enter(c, "end")
	defer b.leave()
	if !b.running {
		return
	}
	b.running = false
	c.End(interrupted)
}

// Adopt records owner as the exclusive owner of child.
func Adopt(owner, child Command) {
	if child == nil {
		panic(fmt.Errorf("%w: child of %q", ErrNilCommand, owner.Name()))
	}
	if child.base() == owner.base() {
		panic(fmt.Errorf("%w: %q", ErrSelfOwned, owner.Name()))
	}
	cb := child.base()
	if cb.owner != nil {
		panic(fmt.Errorf("%w: %q already belongs to %q, can't add it to %q", ErrOwned, cb.Name(), cb.owner.Name(), owner.Name()))
	}
	if cb.running {
		panic(fmt.Errorf("%w: can't compose %q into %q", ErrRunning, cb.Name(), owner.Name()))
	}
	cb.owner = owner
}

// Owner returns the composite owning c, or nil.
func Owner(c Command) Command { return c.base().owner }

// Running reports whether c has been initialized and not yet ended.
func Running(c Command) bool { return c.base().running }

// Busy reports whether one of c's lifecycle callbacks is on the stack.
func Busy(c Command) bool { return c.base().busy != "" }

func enter(c Command, op string) *Base {
	if c == nil {
		panic(fmt.Errorf("%w: %s", ErrNilCommand, op))
	}
	b := c.base()
	if b.busy != "" {
		panic(fmt.Errorf("%w: %s on %q while %s is in progress", ErrReentrant, op, b.Name(), b.busy))
	}
	b.busy = op
	return b
}

func (b *Base) leave() { b.busy = "" }
