package scheduler

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"robocmd/internal/command"
	"robocmd/internal/eventbus"
	logx "robocmd/pkg/logx"
)

type opKind uint8

const (
	opSchedule opKind = iota + 1
	opCancel
)

// pendingOp is a Schedule or Cancel that touched a command whose own callback was
// on the stack at the time. It is replayed once that callback returns.
type pendingOp struct {
	kind opKind
	cmd  command.Command
}

type Scheduler struct {
	log      logx.Logger
	limited  *logx.Limited
	bus      eventbus.Bus
	clk      clock.Clock
	disabled func() bool

	reg     *registry
	buttons []Button
	tick    uint64
	changed bool

	pending  []pendingOp
	flushing bool
}

var _ command.Scheduler = (*Scheduler)(nil)

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		bus: eventbus.Nop(),
		clk: clock.New(),
		reg: newRegistry(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(logx.String("comp", "scheduler"))
	s.limited = logx.NewLimited(s.log, 5)
	return s
}

// RegisterSubsystem makes subs known to the scheduler so their periodic hooks run
// and their default commands get scheduled.
func (s *Scheduler) RegisterSubsystem(subs ...*command.Subsystem) {
	for _, sub := range subs {
		s.reg.addSubsystem(sub)
	}
}

// SetDefaultCommand sets the command scheduled whenever sub is unclaimed at the end
// of a tick. cmd must require sub and must not belong to a composite.
func (s *Scheduler) SetDefaultCommand(sub *command.Subsystem, cmd command.Command) {
	if sub == nil || cmd == nil {
		panic(fmt.Errorf("%w: default command for %s", command.ErrNilCommand, sub.Name()))
	}
	if !cmd.Requirements().Has(sub) {
		panic(fmt.Errorf("default command %q must require %s", cmd.Name(), sub.Name()))
	}
	if owner := command.Owner(cmd); owner != nil {
		panic(fmt.Errorf("%w: %q belongs to %q and can't be a default command", command.ErrOwned, cmd.Name(), owner.Name()))
	}
	if !cmd.Interruptible() {
		s.log.Warn("non-interruptible default command will block its subsystem",
			logx.String("subsystem", sub.Name()), logx.String("command", cmd.Name()))
	}
	s.reg.addSubsystem(sub)
	s.reg.defaults[sub] = cmd
}

func (s *Scheduler) DefaultCommand(sub *command.Subsystem) command.Command {
	return s.reg.defaults[sub]
}

// AddButton registers b to be polled at the start of every Run. Buttons are polled
// newest first.
func (s *Scheduler) AddButton(b Button) {
	if b != nil {
		s.buttons = append(s.buttons, b)
	}
}

// Schedule starts each command unless it is already active, gated by the disabled
// signal, or blocked by a non-interruptible holder of one of its subsystems.
// Interruptible holders are ended with interrupted=true before the command starts.
func (s *Scheduler) Schedule(cmds ...command.Command) {
	for _, c := range cmds {
		s.schedule(c)
	}
	s.flush()
}

// Cancel ends each active command with interrupted=true. Inactive commands are
// ignored.
func (s *Scheduler) Cancel(cmds ...command.Command) {
	for _, c := range cmds {
		if c == nil || !s.reg.has(c) {
			continue
		}
		if command.Busy(c) {
			s.postpone(opCancel, c)
			continue
		}
		s.cancel(c, ReasonCancel)
	}
	s.flush()
}

// CancelAll cancels every active command in scheduling order.
func (s *Scheduler) CancelAll() {
	s.Cancel(s.reg.order()...)
}

func (s *Scheduler) IsScheduled(c command.Command) bool {
	return c != nil && s.reg.has(c)
}

// Requiring returns the active command claiming sub, or nil.
func (s *Scheduler) Requiring(sub *command.Subsystem) command.Command {
	return s.reg.claims[sub]
}

// Active returns the active commands in scheduling order.
func (s *Scheduler) Active() []command.Command { return s.reg.order() }

// Tick returns the number of completed or in-progress Run calls.
func (s *Scheduler) Tick() uint64 { return s.tick }

// Run advances the scheduler by one tick.
func (s *Scheduler) Run() {
	s.tick++

	for i := len(s.buttons) - 1; i >= 0; i-- {
		s.buttons[i].Poll()
	}
	s.flush()
	for _, sub := range s.reg.subsystems {
		sub.Periodic()
	}

	disabled := s.isDisabled()
	for _, c := range s.reg.order() {
		// An earlier command in this tick may have cancelled c.
		if !s.reg.has(c) {
			continue
		}
		if disabled && !c.RunsWhenDisabled() {
			s.cancel(c, ReasonDisabled)
			s.flush()
			continue
		}
		command.Exec(c)
		s.flush()
		if !s.reg.has(c) {
			continue
		}
		if command.Finished(c) {
			e := s.reg.release(c)
			s.changed = true
			command.Stop(c, false)
			s.publish(EventFinished, e, LifecycleEvent{})
			s.flush()
		}
	}

	for _, sub := range s.reg.subsystems {
		def, ok := s.reg.defaults[sub]
		if !ok {
			continue
		}
		if _, claimed := s.reg.claims[sub]; claimed || s.reg.has(def) {
			continue
		}
		if disabled && !def.RunsWhenDisabled() {
			continue
		}
		s.schedule(def)
	}
	s.flush()
}

func (s *Scheduler) schedule(c command.Command) {
	if c == nil {
		return
	}
	if owner := command.Owner(c); owner != nil {
		panic(fmt.Errorf("%w: %q belongs to %q and can't be scheduled on its own", command.ErrOwned, c.Name(), owner.Name()))
	}
	if s.reg.has(c) {
		return
	}
	if command.Busy(c) {
		s.postpone(opSchedule, c)
		return
	}
	if s.isDisabled() && !c.RunsWhenDisabled() {
		s.reject(c, ReasonDisabled, nil)
		return
	}

	reqs := c.Requirements()
	if !s.evict(c, reqs) {
		return
	}

	e := &entry{cmd: c, reqs: reqs, runID: uuid.NewString(), tick: s.tick, since: s.clk.Now()}
	s.reg.register(e)
	s.changed = true
	s.publish(EventScheduled, e, LifecycleEvent{})
	command.Init(c)
}

// evict clears reqs for c. An interrupted holder's End may schedule something on
// the subsystems it just released, so holders are looked up again until none are
// left. A holder that comes back after being cancelled once is a conflict.
func (s *Scheduler) evict(c command.Command, reqs command.Set) bool {
	var evicted map[command.Command]bool
	for {
		if s.reg.has(c) {
			// Scheduled from inside a holder's End.
			return false
		}
		holders := s.reg.holders(reqs)
		if len(holders) == 0 {
			return true
		}
		for _, h := range holders {
			if !h.Interruptible() || evicted[h] {
				s.reject(c, ReasonConflict, h)
				return false
			}
		}
		for _, h := range holders {
			if command.Busy(h) {
				s.postpone(opSchedule, c)
				return false
			}
		}
		if evicted == nil {
			evicted = make(map[command.Command]bool, len(holders))
		}
		for _, h := range holders {
			evicted[h] = true
			s.cancel(h, ReasonReplaced)
		}
	}
}

func (s *Scheduler) cancel(c command.Command, reason string) {
	e := s.reg.release(c)
	if e == nil {
		return
	}
	s.changed = true
	command.Stop(c, true)
	s.publish(EventInterrupted, e, LifecycleEvent{Interrupted: true, Reason: reason})
}

func (s *Scheduler) reject(c command.Command, reason string, holder command.Command) {
	ev := LifecycleEvent{
		Command:      c.Name(),
		Requirements: c.Requirements().Names(),
		Reason:       reason,
		Tick:         s.tick,
	}
	fields := []logx.Field{logx.String("command", c.Name()), logx.String("reason", reason)}
	if holder != nil {
		ev.Holder = holder.Name()
		fields = append(fields, logx.String("holder", holder.Name()))
	}
	s.limited.Debug("schedule rejected", fields...)
	s.bus.Publish(eventbus.Event{Type: EventRejected, Time: s.clk.Now(), Data: ev})
}

func (s *Scheduler) postpone(kind opKind, c command.Command) {
	for _, op := range s.pending {
		if op.kind == kind && op.cmd == c {
			return
		}
	}
	s.pending = append(s.pending, pendingOp{kind: kind, cmd: c})
}

// flush replays deferred operations whose blocking callback has returned.
func (s *Scheduler) flush() {
	if s.flushing || len(s.pending) == 0 {
		return
	}
	s.flushing = true
	defer func() { s.flushing = false }()

	for len(s.pending) > 0 {
		ops := s.pending
		s.pending = nil
		progressed := false
		for _, op := range ops {
			if s.blocked(op) {
				s.pending = append(s.pending, op)
				continue
			}
			progressed = true
			switch op.kind {
			case opCancel:
				s.cancel(op.cmd, ReasonCancel)
			case opSchedule:
				s.schedule(op.cmd)
			}
		}
		if !progressed {
			return
		}
	}
}

func (s *Scheduler) blocked(op pendingOp) bool {
	switch op.kind {
	case opCancel:
		return command.Busy(op.cmd)
	case opSchedule:
		if command.Busy(op.cmd) {
			return true
		}
		for _, h := range s.reg.holders(op.cmd.Requirements()) {
			if command.Busy(h) {
				return true
			}
		}
	}
	return false
}

func (s *Scheduler) isDisabled() bool {
	return s.disabled != nil && s.disabled()
}

func (s *Scheduler) publish(typ string, e *entry, ev LifecycleEvent) {
	now := s.clk.Now()
	ev.RunID = e.runID
	ev.Command = e.cmd.Name()
	ev.Requirements = e.reqs.Names()
	ev.Tick = s.tick
	if typ != EventScheduled {
		ev.Ran = now.Sub(e.since)
	}
	if s.log.Enabled(logx.LevelDebug) {
		s.log.Debug(typ,
			logx.String("command", ev.Command),
			logx.String("run_id", ev.RunID),
			logx.Bool("interrupted", ev.Interrupted),
			logx.String("reason", ev.Reason),
		)
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: now, Data: ev})
}
