package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robocmd/internal/eventbus"
	logx "robocmd/pkg/logx"
)

func TestSetModePublishesChanges(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(4, EventMode)
	defer unsub()
	s := NewState(ModeDisabled, logx.Nop(), bus)

	assert.True(t, s.Disabled())
	assert.True(t, s.SetMode(ModeTeleop))
	assert.False(t, s.SetMode(ModeTeleop))
	assert.False(t, s.Disabled())
	assert.True(t, s.Is(ModeTeleop)())

	require.Len(t, ch, 1)
	change := (<-ch).Data.(ModeChange)
	assert.Equal(t, ModeDisabled, change.From)
	assert.Equal(t, "teleop", change.ToName)

	assert.True(t, s.Disable())
	assert.True(t, s.Disabled())
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeDisabled},
		{"Teleop", ModeTeleop},
		{"auto", ModeAutonomous},
		{" test ", ModeTest},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseMode("sandstorm")
	assert.Error(t, err)
}
