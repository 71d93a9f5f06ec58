package loop

import "errors"

var (
	ErrQueueFull  = errors.New("loop: submit queue full")
	ErrNotRunning = errors.New("loop: not running")
	ErrBadPeriod  = errors.New("loop: period must be > 0")
)
