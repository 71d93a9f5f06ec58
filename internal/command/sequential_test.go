package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robocmd/internal/command"
	"robocmd/internal/scheduler"
)

func TestSequentialRunsChildrenInOrder(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	a, b, c := newProbe(tr, "a", 1), newProbe(tr, "b", 1), newProbe(tr, "c", 1)
	seq := command.NewSequential("seq", a, b, c)
	s := scheduler.New()

	s.Schedule(seq)
	ticks := 0
	for s.IsScheduled(seq) {
		s.Run()
		ticks++
		require.LessOrEqual(t, ticks, 10)
	}
	assert.Equal(t, 3, ticks)
	assert.Equal(t, []string{
		"a init", "a exec", "a end(false)",
		"b init", "b exec", "b end(false)",
		"c init", "c exec", "c end(false)",
	}, tr.reset())
}

func TestSequentialRoundTripIsIdentical(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	seq := command.NewSequential("seq", newProbe(tr, "a", 2), newProbe(tr, "b", 1))
	s := scheduler.New()

	run := func() []string {
		s.Schedule(seq)
		for i := 0; i < 10 && s.IsScheduled(seq); i++ {
			s.Run()
		}
		require.False(t, s.IsScheduled(seq))
		return tr.reset()
	}
	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Len(t, first, 7)
}

func TestSequentialEmptyFinishesImmediately(t *testing.T) {
	t.Parallel()
	seq := command.NewSequential("empty")
	assert.True(t, seq.RunsWhenDisabled())
	s := scheduler.New()
	s.Schedule(seq)
	s.Run()
	assert.False(t, s.IsScheduled(seq))
}

func TestSequentialInterruptEndsActiveChild(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	a, b := newProbe(tr, "a", 1), newProbe(tr, "b", 0)
	seq := command.NewSequential("seq", a, b)
	s := scheduler.New()

	s.Schedule(seq)
	s.Run()
	s.Run()
	assert.Equal(t, b, seq.Active())
	s.Cancel(seq)
	assert.Equal(t, []bool{true}, b.ends)
	assert.Equal(t, []bool{false}, a.ends)
	assert.Nil(t, seq.Active())
}

func TestSequentialUnionsRequirementsAndFlags(t *testing.T) {
	t.Parallel()
	arm, drive := command.NewSubsystem("arm"), command.NewSubsystem("drive")
	tr := &trace{}
	a := newProbe(tr, "a", 1, arm)
	a.SetRunsWhenDisabled(true)
	b := newProbe(tr, "b", 1, drive)
	b.SetInterruptible(false)
	seq := command.NewSequential("seq", a, b)

	assert.Equal(t, []string{"arm", "drive"}, seq.Requirements().Names())
	assert.False(t, seq.RunsWhenDisabled())
	assert.True(t, seq.Interruptible(), "no child running yet")

	s := scheduler.New()
	s.Schedule(seq)
	s.Run() // a finishes, b starts
	assert.False(t, seq.Interruptible())
}

func TestSequentialAppendWhileScheduledPanics(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	seq := command.NewSequential("seq", newProbe(tr, "a", 0))
	s := scheduler.New()
	s.Schedule(seq)
	err := recoverErr(func() { seq.AddCommands(newProbe(tr, "late", 1)) })
	require.ErrorIs(t, err, command.ErrRunning)
}
