package command

import (
	"time"

	"github.com/benbjohnson/clock"
)

type entryKind int

const (
	entrySequential entryKind = iota
	entryParallel
)

func (k entryKind) String() string {
	if k == entryParallel {
		return "parallel"
	}
	return "sequential"
}

// groupEntry is one child of a Group plus its per-run state.
type groupEntry struct {
	cmd     Command
	kind    entryKind
	timeout time.Duration // 0 means no timeout
	started time.Time
}

func (e *groupEntry) timedOut(now time.Time) bool {
	return e.timeout > 0 && now.Sub(e.started) >= e.timeout
}

// Group runs an ordered list of entries, each either sequential (blocks the sequence
// until it ends) or parallel (started and left running alongside later entries).
//
// Starting any entry force-ends every active parallel child whose requirements
// intersect it, even children that declare themselves non-interruptible. That
// override applies to children of this Group only; the scheduler never does it.
type Group struct {
	Base
	clk clock.Clock

	entries  []*groupEntry
	children []*groupEntry // running parallel entries
	current  *groupEntry   // running sequential entry
	index    int           // next entry to start; -1 before the first Execute
}

type GroupOption func(*Group)

// WithGroupClock sets the clock used to measure entry timeouts.
func WithGroupClock(clk clock.Clock) GroupOption {
	return func(g *Group) { g.clk = clk }
}

func NewGroup(name string, opts ...GroupOption) *Group {
	g := &Group{Base: NewBase(name), index: -1}
	for _, o := range opts {
		o(g)
	}
	if g.clk == nil {
		g.clk = clock.New()
	}
	return g
}

// AddSequential appends cmd; it starts after every previously added entry has
// been started and every previous sequential entry has ended.
func (g *Group) AddSequential(cmd Command) { g.add(cmd, entrySequential, 0) }

// AddSequentialTimeout is AddSequential with an upper bound on the child's run time.
// The child doesn't know about the timeout.
func (g *Group) AddSequentialTimeout(cmd Command, timeout time.Duration) {
	g.add(cmd, entrySequential, timeout)
}

// AddParallel appends cmd as a child that runs concurrently with later entries.
func (g *Group) AddParallel(cmd Command) { g.add(cmd, entryParallel, 0) }

func (g *Group) AddParallelTimeout(cmd Command, timeout time.Duration) {
	g.add(cmd, entryParallel, timeout)
}

func (g *Group) Size() int { return len(g.entries) }

func (g *Group) add(cmd Command, kind entryKind, timeout time.Duration) {
	g.mustBeMutable("add an entry to")
	Adopt(g, cmd)
	if timeout < 0 {
		timeout = 0
	}
	g.entries = append(g.entries, &groupEntry{cmd: cmd, kind: kind, timeout: timeout})
	g.reqs.Add(cmd.Requirements().items...)
}

func (g *Group) Initialize() {
	g.index = -1
	g.current = nil
	g.children = g.children[:0]
}

func (g *Group) Execute() {
	if g.index == -1 {
		g.index = 0
	}
	for g.index < len(g.entries) {
		if e := g.current; e != nil {
			if e.timedOut(g.clk.Now()) {
				Stop(e.cmd, true)
			} else {
				Exec(e.cmd)
				if !Finished(e.cmd) {
					break
				}
				Stop(e.cmd, false)
			}
			g.current = nil
			g.index++
			continue
		}

		e := g.entries[g.index]
		g.cancelConflicts(e.cmd)
		g.start(e)
		switch e.kind {
		case entrySequential:
			g.current = e
		case entryParallel:
			g.children = append(g.children, e)
			g.index++
		}
	}

	kept := g.children[:0]
	now := g.clk.Now()
	for _, e := range g.children {
		if e.timedOut(now) {
			Stop(e.cmd, true)
			continue
		}
		Exec(e.cmd)
		if Finished(e.cmd) {
			Stop(e.cmd, false)
			continue
		}
		kept = append(kept, e)
	}
	g.children = kept
}

func (g *Group) IsFinished() bool {
	return g.index >= len(g.entries) && g.current == nil && len(g.children) == 0
}

func (g *Group) End(interrupted bool) {
	if g.current != nil {
		Stop(g.current.cmd, true)
		g.current = nil
	}
	for _, e := range g.children {
		Stop(e.cmd, true)
	}
	g.children = g.children[:0]
}

// Interruptible is false while the group itself, its running sequential entry or
// any running parallel child is non-interruptible.
func (g *Group) Interruptible() bool {
	if !g.Base.Interruptible() {
		return false
	}
	if g.current != nil && !g.current.cmd.Interruptible() {
		return false
	}
	for _, e := range g.children {
		if !e.cmd.Interruptible() {
			return false
		}
	}
	return true
}

// RunsWhenDisabled holds only if every entry runs while disabled.
func (g *Group) RunsWhenDisabled() bool {
	for _, e := range g.entries {
		if !e.cmd.RunsWhenDisabled() {
			return false
		}
	}
	return true
}

func (g *Group) start(e *groupEntry) {
	e.started = g.clk.Now()
	Init(e.cmd)
}

func (g *Group) cancelConflicts(next Command) {
	reqs := next.Requirements()
	kept := g.children[:0]
	for _, e := range g.children {
		if e.cmd.Requirements().Intersects(reqs) {
			Stop(e.cmd, true)
			continue
		}
		kept = append(kept, e)
	}
	g.children = kept
}
