package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"robocmd/internal/config"
	"robocmd/internal/control"
	"robocmd/internal/eventbus"
	"robocmd/internal/journal"
	"robocmd/internal/loop"
	"robocmd/internal/observability/debug"
	"robocmd/internal/robot"
	"robocmd/internal/runtime/supervisor"
	"robocmd/internal/scheduler"
	"robocmd/internal/storage"
	logx "robocmd/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store
	rec   *journal.Recorder

	state *control.State
	sched *scheduler.Scheduler
	robot *robot.Robot
	loop  *loop.Loop
	dbg   *debug.Server

	clk clock.Clock
}

type Option func(*App)

// WithClock replaces the wall clock used by the scheduler, robot and loop.
func WithClock(clk clock.Clock) Option {
	return func(a *App) {
		if clk != nil {
			a.clk = clk
		}
	}
}

// WithMode overrides control.initial_mode.
func WithMode(m control.Mode) Option {
	return func(a *App) { a.state.SetMode(m) }
}

func NewApp(cfgPath string, opts ...Option) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfgm.SetLogger(logx.NewConsole("INFO"))
	cfg, err := cfgm.Load(context.Background())
	if err != nil {
		return nil, err
	}
	res, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(cfg.LogConfig())
	cfgm.SetLogger(log)
	log = log.With(logx.String("comp", "app"))

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     eventbus.New(),
		clk:     clock.New(),
	}

	// Journal (optional)
	if sc, enabled := mapJournalConfig(cfg, res); enabled {
		st, err := storage.Open(sc, log)
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		a.store = st
		a.rec = journal.New(a.bus, st, res.JournalBuffer, log)
		log.Info("journal enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	a.state = control.NewState(res.InitialMode, log, a.bus)
	for _, o := range opts {
		o(a)
	}

	a.sched = scheduler.New(
		scheduler.WithLogger(log),
		scheduler.WithBus(a.bus),
		scheduler.WithDisabledFunc(a.state.Disabled),
		scheduler.WithClock(a.clk),
	)

	a.robot, err = robot.New(a.sched, a.state, mapRobotConfig(cfg, res), robot.WithLogger(log), robot.WithClock(a.clk))
	if err != nil {
		a.closeStore()
		return nil, err
	}

	loopOpts := []loop.Option{loop.WithLogger(log), loop.WithClock(a.clk)}
	if opt, ok := loopNotifier(cfg); ok {
		loopOpts = append(loopOpts, opt)
	}
	a.loop, err = loop.New(mapLoopConfig(res), a.sched, loopOpts...)
	if err != nil {
		a.closeStore()
		return nil, err
	}
	a.dbg = debug.New(log, func(ctx context.Context) (any, error) {
		st, err := a.Status(ctx)
		return st, err
	})
	return a, nil
}

func (a *App) Config() *config.Config { return a.cfgm.Get() }

func (a *App) Robot() *robot.Robot { return a.robot }

func (a *App) Loop() *loop.Loop { return a.loop }

func (a *App) State() *control.State { return a.state }

func (a *App) Bus() eventbus.Bus { return a.bus }

// Done is closed when the app context is cancelled (Stop, or a fatal supervisor error).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		return nil
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app: already started")
	}
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		res, err := cfg.Resolve()
		if err != nil {
			return err
		}
		if res.Period < time.Millisecond {
			return fmt.Errorf("loop.period: must be >= 1ms")
		}
		return nil
	})

	a.sup.Go("loop", a.loop.Run)
	if a.rec != nil {
		a.sup.Go("journal", a.rec.Run)
	}
	sub := a.cfgm.Subscribe(4)
	a.sup.Go("config.reload", func(c context.Context) error { return a.watchReloads(c, sub) })
	a.sup.Go("config.watch", a.cfgm.Watch)
	a.dbg.Reconfigure(a.sup.Context(), a.cfgm.Get().DebugServerConfig())

	select {
	case <-a.loop.Ready():
	case <-a.sup.Context().Done():
		if err := a.sup.Err(); err != nil {
			return err
		}
		return a.sup.Context().Err()
	}
	st := a.loop.Status()
	a.log.Info("started",
		logx.String("mode", a.state.Mode().String()),
		logx.Duration("period", st.Period),
		logx.String("config", a.cfgPath),
	)
	return nil
}

// SetMode switches the control mode; the scheduler sees it on its next tick.
func (a *App) SetMode(m control.Mode) bool { return a.state.SetMode(m) }

// Status is a point-in-time view of the running app.
type Status struct {
	Mode       string             `json:"mode"`
	Loop       loop.Status        `json:"loop"`
	Robot      robot.Status       `json:"robot"`
	Goroutines []supervisor.Stats `json:"goroutines"`
}

// Status collects robot state on the loop goroutine, so it needs a running loop.
func (a *App) Status(ctx context.Context) (Status, error) {
	st := Status{Mode: a.state.Mode().String(), Loop: a.loop.Status()}
	if a.sup != nil {
		st.Goroutines = a.sup.Snapshot()
	}
	err := a.loop.Do(ctx, func() { st.Robot = a.robot.Status() })
	return st, err
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.closeStore()
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Helper: run a shutdown step with an upper bound so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

		stepCtx := ctx
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem < max {
					max = rem
				}
			}
			var cancel context.CancelFunc
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	// End running commands on the loop goroutine so mechanisms see End(true) before
	// the loop stops ticking.
	step("commands", time.Second, func(c context.Context) error {
		err := a.loop.Do(c, func() {
			a.state.Disable()
			a.sched.CancelAll()
		})
		if errors.Is(err, loop.ErrNotRunning) {
			return nil
		}
		return err
	})

	step("debug", time.Second, func(c context.Context) error {
		a.dbg.Stop(c)
		return nil
	})

	a.sup.Cancel()
	// The journal drains into the store while the supervisor winds down.
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("storage", time.Second, func(context.Context) error {
		a.closeStore()
		return nil
	})

	a.log.Info("stopped", logx.Uint64("ticks", a.loop.Status().Ticks))
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

func (a *App) closeStore() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("journal close failed", logx.Err(err))
	}
	a.store = nil
}
