package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robocmd/internal/command"
	"robocmd/internal/scheduler"
)

func TestConditionalEvaluatesOncePerSchedule(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	yes, no := newProbe(tr, "yes", 2), newProbe(tr, "no", 1)
	flag := true
	evals := 0
	c := command.NewConditional("pick", yes, no, func() bool {
		evals++
		return flag
	})
	s := scheduler.New()

	s.Schedule(c)
	flag = false // must not switch branches mid-run
	s.Run()
	s.Run()
	require.False(t, s.IsScheduled(c))
	assert.Equal(t, 1, evals)
	assert.Equal(t, []string{"yes init", "yes exec", "yes exec", "yes end(false)"}, tr.reset())

	s.Schedule(c)
	assert.Equal(t, command.Command(no), c.Chosen())
	s.Run()
	assert.Equal(t, []string{"no init", "no exec", "no end(false)"}, tr.reset())
}

func TestConditionalRequirementsAreUnion(t *testing.T) {
	t.Parallel()
	arm, drive := command.NewSubsystem("arm"), command.NewSubsystem("drive")
	tr := &trace{}
	c := command.NewConditional("pick", newProbe(tr, "a", 1, arm), newProbe(tr, "b", 1, drive), func() bool { return true })
	assert.Equal(t, []string{"arm", "drive"}, c.Requirements().Names())

	// The unchosen branch's subsystem is still claimed.
	s := scheduler.New()
	s.Schedule(c)
	assert.Equal(t, command.Command(c), s.Requiring(drive))
}

func TestConditionalMissingBranchFinishesImmediately(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	c := command.NewConditional("maybe", newProbe(tr, "a", 1), nil, func() bool { return false })
	s := scheduler.New()
	s.Schedule(c)
	assert.Nil(t, c.Chosen())
	s.Run()
	assert.False(t, s.IsScheduled(c))
	assert.Empty(t, tr.reset())
}

func TestConditionalInterruptReachesChosenBranch(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	yes, no := newProbe(tr, "yes", 0), newProbe(tr, "no", 0)
	c := command.NewConditional("pick", yes, no, func() bool { return true })
	s := scheduler.New()
	s.Schedule(c)
	s.Run()
	s.Cancel(c)
	assert.Equal(t, []bool{true}, yes.ends)
	assert.Empty(t, no.ends)
}

func TestConditionalProtectsNonInterruptibleBranch(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	arm := command.NewSubsystem("arm")
	feed, skip := newProbe(tr, "feed", 0, arm), newProbe(tr, "skip", 0, arm)
	feed.SetInterruptible(false)
	c := command.NewConditional("maybe-feed", feed, skip, func() bool { return true })
	assert.True(t, c.Interruptible(), "nothing chosen yet")

	s := scheduler.New()
	s.Schedule(c)
	s.Run()
	assert.False(t, c.Interruptible())

	other := newProbe(tr, "other", 0, arm)
	s.Schedule(other)
	assert.False(t, s.IsScheduled(other))
	assert.True(t, s.IsScheduled(c))
	assert.Empty(t, feed.ends)

	s.Cancel(c)
	assert.Equal(t, []bool{true}, feed.ends)
	assert.True(t, c.Interruptible())
}

func TestConditionalRunsWhenDisabled(t *testing.T) {
	t.Parallel()
	tr := &trace{}
	a, b := newProbe(tr, "a", 1), newProbe(tr, "b", 1)
	a.SetRunsWhenDisabled(true)
	assert.True(t, command.NewConditional("only", a, nil, nil).RunsWhenDisabled())

	b.SetRunsWhenDisabled(false)
	c := newProbe(tr, "c", 1)
	c.SetRunsWhenDisabled(true)
	assert.False(t, command.NewConditional("both", c, b, nil).RunsWhenDisabled())
}
