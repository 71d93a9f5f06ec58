package robot

import (
	"bytes"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robocmd/internal/command"
	"robocmd/internal/control"
	"robocmd/internal/scheduler"
	logx "robocmd/pkg/logx"
)

type rig struct {
	r     *Robot
	s     *scheduler.Scheduler
	state *control.State
	clk   *clock.Mock
}

func newRig(t *testing.T, mode control.Mode, cfg Config, opts ...Option) *rig {
	t.Helper()
	clk := clock.NewMock()
	state := control.NewState(mode, logx.Nop(), nil)
	s := scheduler.New(scheduler.WithClock(clk), scheduler.WithDisabledFunc(state.Disabled))
	r, err := New(s, state, cfg, append([]Option{WithClock(clk)}, opts...)...)
	require.NoError(t, err)
	return &rig{r: r, s: s, state: state, clk: clk}
}

// runUntil ticks until cond holds, failing after max ticks.
func (g *rig) runUntil(t *testing.T, max int, cond func() bool) {
	t.Helper()
	for i := 0; i < max; i++ {
		g.s.Run()
		if cond() {
			return
		}
	}
	t.Fatalf("condition not reached after %d ticks", max)
}

func (g *rig) runN(n int) {
	for i := 0; i < n; i++ {
		g.s.Run()
	}
}

func holderName(s *scheduler.Scheduler, sub *command.Subsystem) string {
	if c := s.Requiring(sub); c != nil {
		return c.Name()
	}
	return ""
}

func TestDefaultsClaimIdleSubsystems(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeTeleop, Config{})
	g.s.Run()

	assert.Equal(t, "drive.teleop", holderName(g.s, g.r.Drive.Subsystem))
	assert.Equal(t, "shooter.idle", holderName(g.s, g.r.Shooter.Subsystem))
	assert.Equal(t, "feeder.hold", holderName(g.s, g.r.Feeder.Subsystem))
	assert.Equal(t, "lights.idle", holderName(g.s, g.r.Lights.Subsystem))
}

func TestTeleopDriveFollowsThrottle(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeTeleop, Config{})
	g.r.Throttle.Set(0.4)
	g.runN(3)
	assert.InDelta(t, 0.4, g.r.Drive.Output, 1e-9)

	g.r.Throttle.Set(5)
	g.runN(2)
	assert.InDelta(t, 1.0, g.r.Drive.Output, 1e-9)
}

func TestIntakeThenFire(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeTeleop, Config{})
	g.s.Run()

	g.r.IntakeHeld.Set(true)
	g.runUntil(t, 10, func() bool { return g.r.Feeder.Loaded })
	g.r.IntakeHeld.Set(false)
	g.s.Run()
	assert.False(t, g.s.IsScheduled(g.r.intake))

	g.r.FireButton.Set(true)
	g.runUntil(t, 30, func() bool { return g.r.Feeder.Shots == 1 })
	g.runUntil(t, 5, func() bool { return !g.s.IsScheduled(g.r.fire) })
	assert.Zero(t, g.r.Shooter.Target)
	assert.False(t, g.r.Feeder.Running)
	assert.False(t, g.r.Feeder.Loaded)
}

func TestFeedingCannotBeInterruptedByIntake(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeTeleop, Config{})
	g.r.Feeder.Loaded = true
	g.s.Run()

	fire := g.r.fire.(*command.Sequential)
	g.r.FireButton.Set(true)
	g.runUntil(t, 30, func() bool {
		a := fire.Active()
		return a != nil && a.Name() == "shoot.feed"
	})

	g.r.IntakeHeld.Set(true)
	g.s.Run()
	assert.False(t, g.s.IsScheduled(g.r.intake))
	assert.True(t, g.s.IsScheduled(g.r.fire))

	g.runUntil(t, 10, func() bool { return g.r.Feeder.Shots == 1 })
}

func TestAutonomousDrivesAndShoots(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeDisabled, Config{AutoTimeout: 3 * time.Second, ShootWhenLoaded: true})
	g.r.Feeder.Loaded = true
	g.s.Run()

	g.state.SetMode(control.ModeAutonomous)
	g.s.Run()
	require.True(t, g.s.IsScheduled(g.r.auto))
	assert.Equal(t, "lights.auto", holderName(g.s, g.r.Lights.Subsystem))
	assert.Equal(t, "auto", holderName(g.s, g.r.Drive.Subsystem))

	g.runUntil(t, 40, func() bool { return g.r.Feeder.Shots == 1 })
	assert.GreaterOrEqual(t, g.r.Drive.Distance, leaveDistance)

	// The forked lights keep the routine alive until their timeout.
	g.runN(3)
	assert.True(t, g.s.IsScheduled(g.r.auto))
	assert.Equal(t, PatternAuto, g.r.Lights.Pattern)
	assert.Zero(t, g.r.Shooter.Target)

	g.clk.Add(3 * time.Second)
	g.s.Run()
	assert.False(t, g.s.IsScheduled(g.r.auto))
	g.runN(2)
	assert.Equal(t, PatternIdle, g.r.Lights.Pattern)
	assert.Equal(t, "drive.teleop", holderName(g.s, g.r.Drive.Subsystem))
}

func TestAutonomousFeedCannotBeInterruptedByIntake(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeAutonomous, Config{AutoTimeout: 3 * time.Second, ShootWhenLoaded: true})
	g.r.Feeder.Loaded = true
	g.runUntil(t, 40, func() bool { return g.r.Feeder.Running })

	g.r.IntakeHeld.Set(true)
	g.s.Run()
	assert.True(t, g.s.IsScheduled(g.r.auto))
	assert.False(t, g.s.IsScheduled(g.r.intake))

	g.runUntil(t, 10, func() bool { return g.r.Feeder.Shots == 1 })
}

func TestAutonomousSkipsShotWhenEmpty(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeAutonomous, Config{ShootWhenLoaded: true})
	g.runUntil(t, 20, func() bool { return g.r.Drive.Distance >= leaveDistance })
	g.runN(3)

	assert.Zero(t, g.r.Feeder.Shots)
	assert.Zero(t, g.r.Shooter.Target)
	assert.Zero(t, g.r.Drive.Speed)
}

func TestAutonomousDriveStepTimesOut(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeAutonomous, Config{AutoTimeout: time.Second})
	g.runN(2)
	require.NotZero(t, g.r.Drive.Speed)

	g.clk.Add(time.Second)
	g.s.Run()
	assert.Zero(t, g.r.Drive.Speed)
	assert.Less(t, g.r.Drive.Distance, leaveDistance)
}

func TestLeavingAutonomousCancelsRoutine(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeAutonomous, Config{})
	g.runN(2)
	require.True(t, g.s.IsScheduled(g.r.auto))

	g.state.SetMode(control.ModeTeleop)
	g.s.Run()
	assert.False(t, g.s.IsScheduled(g.r.auto))
	assert.Zero(t, g.r.Drive.Speed)
	assert.Equal(t, "lights.idle", holderName(g.s, g.r.Lights.Subsystem))
	assert.Equal(t, "drive.teleop", holderName(g.s, g.r.Drive.Subsystem))
}

func TestDisabledKeepsOnlyLights(t *testing.T) {
	t.Parallel()
	g := newRig(t, control.ModeTeleop, Config{})
	g.runN(2)

	g.state.Disable()
	g.runN(2)
	assert.Equal(t, "", holderName(g.s, g.r.Drive.Subsystem))
	assert.Equal(t, "", holderName(g.s, g.r.Shooter.Subsystem))
	assert.Equal(t, "lights.idle", holderName(g.s, g.r.Lights.Subsystem))
}

func TestSelfCheckRunsOnScheduleWhileDisabled(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	g := newRig(t, control.ModeDisabled,
		Config{SelfCheck: "every:1s", Location: time.UTC},
		WithLogger(logx.NewWriter(&buf, "debug")),
	)
	next, ok := g.r.NextSelfCheck()
	require.True(t, ok)
	assert.True(t, next.Equal(g.clk.Now().Add(time.Second)))

	g.s.Run()
	assert.Zero(t, g.r.Status().SelfChecks)

	g.clk.Add(time.Second)
	g.s.Run()
	assert.Equal(t, 1, g.r.Status().SelfChecks)
	assert.Contains(t, buf.String(), `"message":"self-check"`)
	assert.Contains(t, buf.String(), `"comp":"robot"`)
}

func TestBadSelfCheckSchedule(t *testing.T) {
	t.Parallel()
	state := control.NewState(control.ModeDisabled, logx.Nop(), nil)
	_, err := New(scheduler.New(), state, Config{SelfCheck: "whenever"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "robot.self_check")

	_, ok := (&Robot{}).NextSelfCheck()
	assert.False(t, ok)
}
