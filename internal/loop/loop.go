package loop

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	logx "robocmd/pkg/logx"
)

const defaultQueueSize = 64

// Loop calls Scheduler.Run once per period.
type Loop struct {
	cfg      Config
	sched    Scheduler
	clk      clock.Clock
	log      logx.Logger
	overrun  *logx.Limited
	notifier Notifier
	watchdog time.Duration

	submit   chan func()
	periodCh chan time.Duration
	ready    chan struct{}
	running  atomic.Bool
	status   atomic.Pointer[Status]

	// loop goroutine only
	period   time.Duration
	ticks    uint64
	overruns uint64
	maxDur   time.Duration
	lastPing time.Time
	snap     Status
}

func New(cfg Config, sched Scheduler, opts ...Option) (*Loop, error) {
	if cfg.Period <= 0 {
		return nil, ErrBadPeriod
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	l := &Loop{
		cfg:      cfg,
		sched:    sched,
		clk:      clock.New(),
		period:   cfg.Period,
		submit:   make(chan func(), cfg.QueueSize),
		periodCh: make(chan time.Duration, 1),
		ready:    make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	l.log = l.log.With(logx.String("comp", "loop"))
	l.overrun = logx.NewLimited(l.log, cfg.OverrunLogPerSec)
	l.snap = Status{Period: cfg.Period}
	l.publish()
	return l, nil
}

// Ready is closed once Run has started ticking.
func (l *Loop) Ready() <-chan struct{} { return l.ready }

// Status returns the latest published status.
func (l *Loop) Status() Status {
	st := *l.status.Load()
	st.Running = l.running.Load()
	return st
}

// Submit queues fn to run on the loop goroutine before the next tick.
func (l *Loop) Submit(fn func()) error {
	if fn == nil {
		return nil
	}
	select {
	case l.submit <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if !l.running.Load() {
		return ErrNotRunning
	}
	done := make(chan struct{})
	if err := l.Submit(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetPeriod changes the tick period. The new period applies from the next tick.
func (l *Loop) SetPeriod(d time.Duration) error {
	if d <= 0 {
		return ErrBadPeriod
	}
	// Keep only the newest request.
	select {
	case <-l.periodCh:
	default:
	}
	l.periodCh <- d
	return nil
}

// Run ticks until ctx is done. It returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("loop: already running")
	}
	defer l.running.Store(false)

	ticker := l.clk.Ticker(l.period)
	defer ticker.Stop()

	l.notify(stateReady)
	l.lastPing = l.clk.Now()
	select {
	case <-l.ready:
	default:
		close(l.ready)
	}
	l.log.Info("control loop started", logx.Duration("period", l.period))

	for {
		select {
		case <-ctx.Done():
			l.notify(stateStopping)
			l.log.Info("control loop stopped", logx.Uint64("ticks", l.ticks), logx.Uint64("overruns", l.overruns))
			return nil
		case fn := <-l.submit:
			fn()
		case d := <-l.periodCh:
			if d != l.period {
				l.log.Info("control loop period changed", logx.Duration("from", l.period), logx.Duration("to", d))
				l.period = d
				ticker.Reset(d)
				l.snap.Period = d
				l.publish()
			}
		case <-ticker.C:
			l.drain()
			l.tick()
		}
	}
}

func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.submit:
			fn()
		default:
			return
		}
	}
}

func (l *Loop) tick() {
	start := l.clk.Now()
	l.sched.Run()
	dur := l.clk.Since(start)

	l.ticks++
	if dur > l.maxDur {
		l.maxDur = dur
	}
	budget := l.cfg.OverrunBudget
	if budget <= 0 {
		budget = l.period
	}
	if dur > budget {
		l.overruns++
		l.overrun.Warn("loop overrun",
			logx.Duration("took", dur),
			logx.Duration("budget", budget),
			logx.Uint64("tick", l.ticks),
		)
	}

	l.snap.Ticks = l.ticks
	l.snap.Overruns = l.overruns
	l.snap.LastTickAt = start
	l.snap.LastDuration = dur
	l.snap.MaxDuration = l.maxDur
	if l.sched.ConsumeChanged() || l.ticks == 1 {
		l.snap.Scheduler = l.sched.Snapshot()
	}
	l.publish()

	if l.watchdog > 0 {
		now := l.clk.Now()
		if now.Sub(l.lastPing) >= l.watchdog {
			l.lastPing = now
			l.notify(stateWatchdog)
		}
	}
}

func (l *Loop) publish() {
	st := l.snap
	l.status.Store(&st)
}

func (l *Loop) notify(state string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(state); err != nil {
		l.log.Warn("service notify failed", logx.String("state", state), logx.Err(err))
	}
}
