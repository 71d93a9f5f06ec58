package command

// Proxy forks commands onto the scheduler: they run as ordinary top-level commands
// with the scheduler's normal conflict rules, and the proxy finishes once none of
// them is scheduled any more. Cancelling the proxy cancels the ones still running.
//
// The proxy doesn't own its targets and declares no requirements of its own.
type Proxy struct {
	Base
	sched   Scheduler
	targets []Command
}

func NewProxy(name string, sched Scheduler, targets ...Command) *Proxy {
	p := &Proxy{Base: NewBase(name), sched: sched}
	for _, t := range targets {
		if t == nil {
			panic(ErrNilCommand)
		}
		p.targets = append(p.targets, t)
	}
	return p
}

func (p *Proxy) Initialize() {
	p.sched.Schedule(p.targets...)
}

func (p *Proxy) IsFinished() bool {
	for _, t := range p.targets {
		if p.sched.IsScheduled(t) {
			return false
		}
	}
	return true
}

func (p *Proxy) End(interrupted bool) {
	if !interrupted {
		return
	}
	for _, t := range p.targets {
		if p.sched.IsScheduled(t) {
			p.sched.Cancel(t)
		}
	}
}

// RunsWhenDisabled holds when every target does; otherwise the scheduler would
// refuse the targets anyway.
func (p *Proxy) RunsWhenDisabled() bool {
	for _, t := range p.targets {
		if !t.RunsWhenDisabled() {
			return false
		}
	}
	return true
}
