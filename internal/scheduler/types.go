package scheduler

import (
	"time"

	"github.com/benbjohnson/clock"
	"robocmd/internal/eventbus"
	logx "robocmd/pkg/logx"
)

// Lifecycle event types published on the bus.
const (
	EventScheduled   = "command.scheduled"
	EventFinished    = "command.finished"
	EventInterrupted = "command.interrupted"
	EventRejected    = "command.rejected"
)

// Reasons attached to rejected and interrupted events.
const (
	ReasonDisabled = "disabled"
	ReasonConflict = "conflict"
	ReasonCancel   = "cancel"
	ReasonReplaced = "replaced"
)

// LifecycleEvent is the Data payload of every command.* event.
type LifecycleEvent struct {
	RunID        string        `json:"run_id,omitempty"`
	Command      string        `json:"command"`
	Requirements []string      `json:"requirements,omitempty"`
	Interrupted  bool          `json:"interrupted,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Holder       string        `json:"holder,omitempty"`
	Tick         uint64        `json:"tick"`
	Ran          time.Duration `json:"ran,omitempty"`
}

// Button is polled at the start of every Run, before any command executes.
type Button interface {
	Poll()
}

// ButtonFunc adapts a function to Button.
type ButtonFunc func()

func (f ButtonFunc) Poll() { f() }

type Option func(*Scheduler)

func WithLogger(log logx.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

func WithBus(bus eventbus.Bus) Option {
	return func(s *Scheduler) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithDisabledFunc sets the "control system is disabled" signal. It is read on
// every Schedule and once per Run.
func WithDisabledFunc(fn func() bool) Option {
	return func(s *Scheduler) { s.disabled = fn }
}

func WithClock(clk clock.Clock) Option {
	return func(s *Scheduler) {
		if clk != nil {
			s.clk = clk
		}
	}
}
