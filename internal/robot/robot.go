package robot

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"robocmd/internal/command"
	"robocmd/internal/control"
	"robocmd/internal/scheduler"
	"robocmd/internal/trigger"
	logx "robocmd/pkg/logx"
)

// Config tunes the robot. Zero values pick the defaults below.
type Config struct {
	AutoTimeout     time.Duration
	ShootWhenLoaded bool

	// SelfCheck is a schedule string understood by trigger.ParseSchedule; empty
	// disables the periodic self-check.
	SelfCheck string
	Location  *time.Location
}

const DefaultAutoTimeout = 3 * time.Second

// Axis is an analog operator input in -1..1, safe to set from any goroutine.
type Axis struct{ bits atomic.Uint64 }

func (a *Axis) Set(v float64) { a.bits.Store(math.Float64bits(clamp(v, -1, 1))) }
func (a *Axis) Get() float64  { return math.Float64frombits(a.bits.Load()) }

// Robot owns the mechanisms and binds operator inputs to commands. Apart from the
// inputs, everything on it belongs to the loop goroutine.
type Robot struct {
	Drive   *Drive
	Shooter *Shooter
	Feeder  *Feeder
	Lights  *Lights

	Throttle   Axis
	FireButton *trigger.Internal
	IntakeHeld *trigger.Internal

	auto      command.Command
	fire      command.Command
	intake    command.Command
	selfCheck *trigger.Due

	selfChecks int

	sched *scheduler.Scheduler
	state *control.State
	log   logx.Logger
	clk   clock.Clock
}

type Option func(*Robot)

func WithLogger(log logx.Logger) Option {
	return func(r *Robot) { r.log = log }
}

func WithClock(clk clock.Clock) Option {
	return func(r *Robot) {
		if clk != nil {
			r.clk = clk
		}
	}
}

// New builds the robot, registers its subsystems and default commands with sched and
// binds its inputs.
func New(sched *scheduler.Scheduler, state *control.State, cfg Config, opts ...Option) (*Robot, error) {
	r := &Robot{
		Drive:      newDrive(),
		Shooter:    newShooter(),
		Feeder:     newFeeder(),
		Lights:     newLights(),
		FireButton: trigger.NewInternal(false),
		IntakeHeld: trigger.NewInternal(false),
		sched:      sched,
		state:      state,
		log:        logx.Nop(),
		clk:        clock.New(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.With(logx.String("comp", "robot"))

	timeout := cfg.AutoTimeout
	if timeout <= 0 {
		timeout = DefaultAutoTimeout
	}

	sched.RegisterSubsystem(r.Drive.Subsystem, r.Shooter.Subsystem, r.Feeder.Subsystem, r.Lights.Subsystem)
	sched.SetDefaultCommand(r.Drive.Subsystem, r.TeleopDrive())
	sched.SetDefaultCommand(r.Shooter.Subsystem, command.Run("shooter.idle", func() { r.Shooter.Target = 0 }, r.Shooter.Subsystem))
	sched.SetDefaultCommand(r.Feeder.Subsystem, command.Run("feeder.hold", func() { r.Feeder.Running = false }, r.Feeder.Subsystem))
	idle := command.Run("lights.idle", func() { r.Lights.Pattern = PatternIdle }, r.Lights.Subsystem)
	idle.SetRunsWhenDisabled(true)
	sched.SetDefaultCommand(r.Lights.Subsystem, idle)

	r.auto = r.Autonomous(timeout, cfg.ShootWhenLoaded)
	r.fire = r.Shoot("shoot")
	r.intake = r.Intake("intake")

	trigger.New(sched, r.state.Is(control.ModeAutonomous)).WhileTrue(r.auto)
	trigger.New(sched, r.FireButton.Pulse()).OnTrue(r.fire)
	trigger.New(sched, r.IntakeHeld.Get).WhileTrue(r.intake)

	if cfg.SelfCheck != "" {
		tr, due, err := trigger.OnSchedule(sched, cfg.SelfCheck, r.clk, cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("robot.self_check: %w", err)
		}
		tr.OnTrue(r.SelfCheck())
		r.selfCheck = due
		r.log.Info("self-check scheduled",
			logx.String("schedule", cfg.SelfCheck),
			logx.String("kind", due.Spec().Kind.String()),
			logx.Time("next", due.Next()),
		)
	}
	return r, nil
}

// AutoCommand is the autonomous routine bound to autonomous mode.
func (r *Robot) AutoCommand() command.Command { return r.auto }

// FireCommand is the command a fire press schedules.
func (r *Robot) FireCommand() command.Command { return r.fire }

// NextSelfCheck reports when the self-check is next due; ok is false when it is off.
func (r *Robot) NextSelfCheck() (next time.Time, ok bool) {
	if r.selfCheck == nil {
		return time.Time{}, false
	}
	return r.selfCheck.Next(), true
}

// Status is a copy of mechanism state.
type Status struct {
	DriveOutput float64 `json:"drive_output"`
	Distance    float64 `json:"distance"`
	ShooterRPM  float64 `json:"shooter_rpm"`
	Loaded      bool    `json:"loaded"`
	Shots       int     `json:"shots"`
	Pattern     string  `json:"lights"`
	SelfChecks  int     `json:"self_checks"`
}

// Status must be called on the loop goroutine (see loop.Loop.Do).
func (r *Robot) Status() Status {
	return Status{
		DriveOutput: r.Drive.Output,
		Distance:    r.Drive.Distance,
		ShooterRPM:  r.Shooter.RPM,
		Loaded:      r.Feeder.Loaded,
		Shots:       r.Feeder.Shots,
		Pattern:     r.Lights.Pattern,
		SelfChecks:  r.selfChecks,
	}
}
