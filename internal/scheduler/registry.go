package scheduler

import (
	"time"

	"robocmd/internal/command"
)

type entry struct {
	cmd   command.Command
	reqs  command.Set
	runID string
	tick  uint64
	since time.Time
}

// registry maps subsystems to the top-level command claiming them.
//
// Invariant: every subsystem in claims belongs to exactly one entry in active,
// and that entry's reqs contains it.
type registry struct {
	subsystems []*command.Subsystem
	defaults   map[*command.Subsystem]command.Command
	claims     map[*command.Subsystem]command.Command
	active     []*entry
	index      map[command.Command]*entry
}

func newRegistry() *registry {
	return &registry{
		defaults: map[*command.Subsystem]command.Command{},
		claims:   map[*command.Subsystem]command.Command{},
		index:    map[command.Command]*entry{},
	}
}

func (r *registry) addSubsystem(sub *command.Subsystem) {
	if sub == nil {
		return
	}
	for _, s := range r.subsystems {
		if s == sub {
			return
		}
	}
	r.subsystems = append(r.subsystems, sub)
}

func (r *registry) has(c command.Command) bool {
	_, ok := r.index[c]
	return ok
}

// holders returns the distinct active commands claiming any of reqs, in the
// order their subsystems appear in reqs.
func (r *registry) holders(reqs command.Set) []command.Command {
	var out []command.Command
	for _, sub := range reqs.Items() {
		h, ok := r.claims[sub]
		if !ok {
			continue
		}
		dup := false
		for _, o := range out {
			if o == h {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, h)
		}
	}
	return out
}

func (r *registry) register(e *entry) {
	for _, sub := range e.reqs.Items() {
		r.claims[sub] = e.cmd
	}
	r.active = append(r.active, e)
	r.index[e.cmd] = e
}

// release drops c and its claims. It returns nil if c wasn't active.
func (r *registry) release(c command.Command) *entry {
	e, ok := r.index[c]
	if !ok {
		return nil
	}
	delete(r.index, c)
	for _, sub := range e.reqs.Items() {
		if r.claims[sub] == c {
			delete(r.claims, sub)
		}
	}
	for i, a := range r.active {
		if a == e {
			r.active = append(r.active[:i], r.active[i+1:]...)
			break
		}
	}
	return e
}

// order returns the active commands in scheduling order. The slice is a copy so
// callers can mutate the registry while walking it.
func (r *registry) order() []command.Command {
	out := make([]command.Command, 0, len(r.active))
	for _, e := range r.active {
		out = append(out, e.cmd)
	}
	return out
}
