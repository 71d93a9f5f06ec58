package loop

import (
	"time"

	"github.com/benbjohnson/clock"
	"robocmd/internal/scheduler"
	logx "robocmd/pkg/logx"
)

// Config controls the tick driver.
type Config struct {
	Period time.Duration
	// OverrunBudget is the tick duration above which an overrun is counted and
	// logged. Zero means Period.
	OverrunBudget time.Duration
	// OverrunLogPerSec caps overrun warnings per second.
	OverrunLogPerSec int
	QueueSize        int
}

// Scheduler is the part of the scheduler core the loop drives.
type Scheduler interface {
	Run()
	Snapshot() scheduler.Snapshot
	ConsumeChanged() bool
}

// Status is a point-in-time view of the loop, safe to read from any goroutine.
type Status struct {
	Running      bool               `json:"running"`
	Period       time.Duration      `json:"period"`
	Ticks        uint64             `json:"ticks"`
	Overruns     uint64             `json:"overruns"`
	LastTickAt   time.Time          `json:"last_tick_at"`
	LastDuration time.Duration      `json:"last_duration"`
	MaxDuration  time.Duration      `json:"max_duration"`
	Scheduler    scheduler.Snapshot `json:"scheduler"`
}

// Notifier reports service state to a process manager.
type Notifier interface {
	Notify(state string) error
}

type Option func(*Loop)

func WithLogger(log logx.Logger) Option {
	return func(l *Loop) { l.log = log }
}

func WithClock(clk clock.Clock) Option {
	return func(l *Loop) {
		if clk != nil {
			l.clk = clk
		}
	}
}

// WithNotifier enables READY/STOPPING notifications and, when watchdog > 0,
// watchdog pings at that interval.
func WithNotifier(n Notifier, watchdog time.Duration) Option {
	return func(l *Loop) {
		l.notifier = n
		l.watchdog = watchdog
	}
}
