package command

const noChild = -1

// Sequential runs its commands one after another; exactly one child is active at a
// time and the group finishes when the last child does.
type Sequential struct {
	Base
	cmds   []Command
	cursor int
	allRWD bool
}

func NewSequential(name string, cmds ...Command) *Sequential {
	s := &Sequential{Base: NewBase(name), cursor: noChild, allRWD: true}
	s.AddCommands(cmds...)
	return s
}

// AddCommands appends and takes ownership of cmds. Not allowed while the group is
// scheduled or after it has been composed into another composite.
func (s *Sequential) AddCommands(cmds ...Command) {
	if len(cmds) == 0 {
		return
	}
	s.mustBeMutable("add commands to")
	for _, c := range cmds {
		Adopt(s, c)
		s.cmds = append(s.cmds, c)
		s.reqs.Add(c.Requirements().items...)
		s.allRWD = s.allRWD && c.RunsWhenDisabled()
	}
}

func (s *Sequential) Initialize() { s.cursor = noChild }

func (s *Sequential) Execute() {
	if s.cursor == noChild {
		s.cursor = 0
		if len(s.cmds) == 0 {
			return
		}
		Init(s.cmds[0])
	}
	if s.cursor >= len(s.cmds) {
		return
	}
	cur := s.cmds[s.cursor]
	Exec(cur)
	if !Finished(cur) {
		return
	}
	Stop(cur, false)
	s.cursor++
	if s.cursor < len(s.cmds) {
		Init(s.cmds[s.cursor])
	}
}

func (s *Sequential) IsFinished() bool {
	if len(s.cmds) == 0 {
		return true
	}
	return s.cursor != noChild && s.cursor >= len(s.cmds)
}

func (s *Sequential) End(interrupted bool) {
	if interrupted && s.cursor >= 0 && s.cursor < len(s.cmds) {
		Stop(s.cmds[s.cursor], true)
	}
	s.cursor = noChild
}

func (s *Sequential) Interruptible() bool {
	if !s.Base.Interruptible() {
		return false
	}
	if s.cursor >= 0 && s.cursor < len(s.cmds) && Running(s.cmds[s.cursor]) {
		return s.cmds[s.cursor].Interruptible()
	}
	return true
}

func (s *Sequential) RunsWhenDisabled() bool { return s.allRWD }

// Active returns the running child, or nil.
func (s *Sequential) Active() Command {
	if s.cursor >= 0 && s.cursor < len(s.cmds) && Running(s.cmds[s.cursor]) {
		return s.cmds[s.cursor]
	}
	return nil
}
