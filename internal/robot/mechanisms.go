package robot

import "robocmd/internal/command"

// Mechanism state is only touched from the loop goroutine: commands mutate the
// setpoints, periodic hooks move the simulated outputs toward them.

// Drive is a differential drivetrain reduced to a single forward speed.
type Drive struct {
	*command.Subsystem
	Speed    float64 // setpoint, -1..1
	Output   float64 // last applied output
	Distance float64 // accumulated output, arbitrary units
}

func newDrive() *Drive {
	d := &Drive{}
	d.Subsystem = command.NewSubsystem("drive", command.WithPeriodic(d.periodic))
	return d
}

func (d *Drive) periodic() {
	d.Output = clamp(d.Speed, -1, 1)
	d.Distance += d.Output
}

// Shooter is a flywheel that ramps toward its target speed by a fixed step per tick.
type Shooter struct {
	*command.Subsystem
	Target float64
	RPM    float64
	Step   float64
}

const (
	shooterStep  = 500
	shooterReady = 3000
	readyWindow  = 50
)

func newShooter() *Shooter {
	s := &Shooter{Step: shooterStep}
	s.Subsystem = command.NewSubsystem("shooter", command.WithPeriodic(s.periodic))
	return s
}

func (s *Shooter) periodic() {
	switch {
	case s.RPM < s.Target:
		s.RPM = min(s.RPM+s.Step, s.Target)
	case s.RPM > s.Target:
		s.RPM = max(s.RPM-s.Step, s.Target)
	}
}

// AtSpeed reports whether the flywheel is within the ready window of a non-zero target.
func (s *Shooter) AtSpeed() bool {
	return s.Target > 0 && s.RPM >= s.Target-readyWindow
}

// Feeder holds at most one ball and pushes it into the shooter while running.
type Feeder struct {
	*command.Subsystem
	Loaded  bool
	Running bool
	Shots   int

	// feeding counts ticks the roller has run with a ball in it.
	feeding int
}

const feedTicks = 2

func newFeeder() *Feeder {
	f := &Feeder{}
	f.Subsystem = command.NewSubsystem("feeder", command.WithPeriodic(f.periodic))
	return f
}

func (f *Feeder) periodic() {
	if !f.Running || !f.Loaded {
		f.feeding = 0
		return
	}
	f.feeding++
	if f.feeding >= feedTicks {
		f.Loaded = false
		f.Shots++
		f.feeding = 0
	}
}

// Lights is a status LED strip; Pattern is whatever the holding command last set.
type Lights struct {
	*command.Subsystem
	Pattern string
}

func newLights() *Lights {
	l := &Lights{Pattern: PatternIdle}
	l.Subsystem = command.NewSubsystem("lights")
	return l
}

const (
	PatternIdle      = "idle"
	PatternAuto      = "auto"
	PatternShooting  = "shooting"
	PatternSelfCheck = "self-check"
)

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
