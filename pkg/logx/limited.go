package logx

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Limited wraps a Logger with a token bucket so code on the control-loop hot path
// (overrun warnings, rejected schedule requests) can't flood the sinks.
//
// Lines over budget are dropped and counted; the count is attached to the next
// line that gets through as "suppressed".
type Limited struct {
	log        Logger
	lim        *rate.Limiter
	suppressed atomic.Uint64
}

// NewLimited allows perSec lines per second with a burst of the same size.
// perSec <= 0 means one line per second.
func NewLimited(log Logger, perSec int) *Limited {
	if perSec <= 0 {
		perSec = 1
	}
	return &Limited{log: log, lim: rate.NewLimiter(rate.Limit(perSec), perSec)}
}

func (l *Limited) Warn(msg string, fields ...Field)  { l.emit(LevelWarn, msg, fields) }
func (l *Limited) Debug(msg string, fields ...Field) { l.emit(LevelDebug, msg, fields) }

// Suppressed returns the number of lines dropped since the last emitted line.
func (l *Limited) Suppressed() uint64 { return l.suppressed.Load() }

func (l *Limited) emit(level Level, msg string, fields []Field) {
	if l == nil || l.log.IsZero() || !l.log.Enabled(level) {
		return
	}
	if !l.lim.Allow() {
		l.suppressed.Add(1)
		return
	}
	if n := l.suppressed.Swap(0); n > 0 {
		fields = append(fields, Uint64("suppressed", n))
	}
	switch level {
	case LevelWarn:
		l.log.Warn(msg, fields...)
	default:
		l.log.Debug(msg, fields...)
	}
}
