// Package control holds the robot's control-system state: whether outputs are
// enabled and which mode the operator selected. It is written from any goroutine
// and read by the scheduler on the loop goroutine.
package control

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"robocmd/internal/eventbus"
	logx "robocmd/pkg/logx"
)

type Mode int32

const (
	ModeDisabled Mode = iota
	ModeTeleop
	ModeAutonomous
	ModeTest
)

// EventMode is published whenever the mode changes.
const EventMode = "control.mode"

func (m Mode) String() string {
	switch m {
	case ModeTeleop:
		return "teleop"
	case ModeAutonomous:
		return "autonomous"
	case ModeTest:
		return "test"
	default:
		return "disabled"
	}
}

// Enabled reports whether outputs are live in this mode.
func (m Mode) Enabled() bool { return m != ModeDisabled }

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "disabled":
		return ModeDisabled, nil
	case "teleop":
		return ModeTeleop, nil
	case "autonomous", "auto":
		return ModeAutonomous, nil
	case "test":
		return ModeTest, nil
	}
	return ModeDisabled, fmt.Errorf("unknown control mode %q", s)
}

// ModeChange is the Data payload of EventMode.
type ModeChange struct {
	From Mode `json:"-"`
	To   Mode `json:"-"`

	FromName string `json:"from"`
	ToName   string `json:"to"`
}

type State struct {
	mode atomic.Int32
	log  logx.Logger
	bus  eventbus.Bus
}

func NewState(initial Mode, log logx.Logger, bus eventbus.Bus) *State {
	if bus == nil {
		bus = eventbus.Nop()
	}
	s := &State{log: log.With(logx.String("comp", "control")), bus: bus}
	s.mode.Store(int32(initial))
	return s
}

func (s *State) Mode() Mode { return Mode(s.mode.Load()) }

// Disabled is the signal the scheduler gates on.
func (s *State) Disabled() bool { return !s.Mode().Enabled() }

// SetMode switches modes and reports whether anything changed.
func (s *State) SetMode(m Mode) bool {
	old := Mode(s.mode.Swap(int32(m)))
	if old == m {
		return false
	}
	s.log.Info("control mode changed", logx.String("from", old.String()), logx.String("to", m.String()))
	s.bus.Publish(eventbus.Event{
		Type: EventMode,
		Time: time.Now(),
		Data: ModeChange{From: old, To: m, FromName: old.String(), ToName: m.String()},
	})
	return true
}

// Disable is shorthand for SetMode(ModeDisabled).
func (s *State) Disable() bool { return s.SetMode(ModeDisabled) }

// Is returns a condition for triggers that reads true while the mode is m.
func (s *State) Is(m Mode) func() bool {
	return func() bool { return s.Mode() == m }
}
