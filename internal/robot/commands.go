package robot

import (
	"time"

	"robocmd/internal/command"
	"robocmd/internal/control"
	logx "robocmd/pkg/logx"
)

const (
	intakeTicks   = 3
	leaveDistance = 3.0
	autoSpeed     = 0.5
)

// TeleopDrive follows the throttle axis while teleoperated and holds still otherwise.
func (r *Robot) TeleopDrive() command.Command {
	return command.Run("drive.teleop", func() {
		if r.state.Mode() == control.ModeTeleop {
			r.Drive.Speed = r.Throttle.Get()
			return
		}
		r.Drive.Speed = 0
	}, r.Drive.Subsystem)
}

// DriveDistance drives at speed until the drivetrain has covered dist.
func (r *Robot) DriveDistance(name string, dist, speed float64) command.Command {
	var start float64
	return command.NewFunctional(name, command.FunctionalOps{
		OnInit: func() {
			start = r.Drive.Distance
			r.Drive.Speed = speed
		},
		IsFinished: func() bool { return abs(r.Drive.Distance-start) >= dist },
		OnEnd:      func(bool) { r.Drive.Speed = 0 },
	}, r.Drive.Subsystem)
}

// SpinUp sets the flywheel target and finishes once it is at speed. The flywheel keeps
// spinning afterwards unless the command was interrupted.
func (r *Robot) SpinUp(name string) command.Command {
	return command.NewFunctional(name, command.FunctionalOps{
		OnInit:     func() { r.Shooter.Target = shooterReady },
		IsFinished: r.Shooter.AtSpeed,
		OnEnd: func(interrupted bool) {
			if interrupted {
				r.Shooter.Target = 0
			}
		},
	}, r.Shooter.Subsystem)
}

// Feed runs the feeder until the ball has left it.
func (r *Robot) Feed(name string) *command.Functional {
	return command.NewFunctional(name, command.FunctionalOps{
		OnInit:     func() { r.Feeder.Running = true },
		IsFinished: func() bool { return !r.Feeder.Loaded },
		OnEnd:      func(bool) { r.Feeder.Running = false },
	}, r.Feeder.Subsystem)
}

// Shoot spins up, feeds one ball and stops the flywheel. The feeding step can't be
// interrupted once the ball is moving.
func (r *Robot) Shoot(name string) command.Command {
	feed := r.Feed(name + ".feed")
	feed.SetInterruptible(false)
	return command.NewSequential(name,
		r.SpinUp(name+".spin-up"),
		feed,
		command.Instant(name+".stop", func() { r.Shooter.Target = 0 }, r.Shooter.Subsystem),
	)
}

// Intake rolls a ball in. It finishes once the feeder holds one; an already loaded
// feeder finishes it right away.
func (r *Robot) Intake(name string) command.Command {
	var ticks int
	return command.NewFunctional(name, command.FunctionalOps{
		OnInit: func() { ticks = 0 },
		OnExecute: func() {
			ticks++
			if ticks >= intakeTicks {
				r.Feeder.Loaded = true
			}
		},
		IsFinished: func() bool { return r.Feeder.Loaded },
	}, r.Feeder.Subsystem)
}

// ShowPattern holds the lights on pattern until cancelled.
func (r *Robot) ShowPattern(name, pattern string) command.Command {
	return command.Run(name, func() { r.Lights.Pattern = pattern }, r.Lights.Subsystem)
}

// Autonomous builds the autonomous routine:
//
//   - lights show the auto pattern for at most timeout (forked, so the lights stay
//     independently schedulable),
//   - drive off the line, bounded by timeout,
//   - shoot if configured to and a ball is loaded, otherwise log and finish.
func (r *Robot) Autonomous(timeout time.Duration, shootWhenLoaded bool) command.Command {
	g := command.NewGroup("auto", command.WithGroupClock(r.clk))
	g.AddParallelTimeout(
		command.NewProxy("auto.lights", r.sched, r.ShowPattern("lights.auto", PatternAuto)),
		timeout,
	)
	g.AddSequentialTimeout(r.DriveDistance("auto.leave", leaveDistance, autoSpeed), timeout)
	g.AddSequential(command.NewConditional("auto.score",
		r.Shoot("auto.shoot"),
		command.Print(r.log, "autonomous: feeder empty, skipping shot"),
		func() bool { return shootWhenLoaded && r.Feeder.Loaded },
	))
	return g
}

// SelfCheck logs the state of every mechanism. It needs no subsystem and runs while
// disabled.
func (r *Robot) SelfCheck() command.Command {
	c := command.Instant("self-check", func() {
		r.selfChecks++
		st := r.Status()
		r.log.Info("self-check",
			logx.String("mode", r.state.Mode().String()),
			logx.Any("drive_output", st.DriveOutput),
			logx.Any("shooter_rpm", st.ShooterRPM),
			logx.Bool("loaded", st.Loaded),
			logx.Int("shots", st.Shots),
			logx.String("lights", st.Pattern),
		)
	})
	c.SetRunsWhenDisabled(true)
	return c
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
