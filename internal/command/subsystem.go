package command

// Subsystem is an exclusive-ownership resource. Identity is the pointer.
type Subsystem struct {
	name     string
	periodic func()
}

type SubsystemOption func(*Subsystem)

// WithPeriodic installs a hook the scheduler calls once per tick, before commands run.
func WithPeriodic(fn func()) SubsystemOption {
	return func(s *Subsystem) { s.periodic = fn }
}

func NewSubsystem(name string, opts ...SubsystemOption) *Subsystem {
	s := &Subsystem{name: name}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Subsystem) Name() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

func (s *Subsystem) Periodic() {
	if s != nil && s.periodic != nil {
		s.periodic()
	}
}

// Set is an insertion-ordered set of subsystems.
//
// Sets are small (a handful of subsystems), so a slice beats a map and keeps
// conflict resolution deterministic.
type Set struct {
	items []*Subsystem
}

func NewSet(subs ...*Subsystem) Set {
	var s Set
	s.Add(subs...)
	return s
}

// Add appends subsystems not already present. Nil entries are ignored.
func (s *Set) Add(subs ...*Subsystem) {
	for _, sub := range subs {
		if sub == nil || s.Has(sub) {
			continue
		}
		s.items = append(s.items, sub)
	}
}

func (s Set) Has(sub *Subsystem) bool {
	for _, it := range s.items {
		if it == sub {
			return true
		}
	}
	return false
}

func (s Set) Len() int { return len(s.items) }

// Items returns a copy of the members in insertion order.
func (s Set) Items() []*Subsystem {
	return append([]*Subsystem(nil), s.items...)
}

func (s Set) Clone() Set { return Set{items: s.Items()} }

func (s Set) Union(o Set) Set {
	out := s.Clone()
	out.Add(o.items...)
	return out
}

func (s Set) Intersects(o Set) bool {
	for _, it := range s.items {
		if o.Has(it) {
			return true
		}
	}
	return false
}

func (s Set) Names() []string {
	out := make([]string, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Name())
	}
	return out
}
