package command

import "errors"

// Contract violations. These are used as panic values (wrapped with context),
// never returned from the normal scheduling path.
var (
	ErrNilCommand = errors.New("command is nil")
	ErrOwned      = errors.New("command is owned by a composite")
	ErrSelfOwned  = errors.New("command can't own itself")
	ErrRunning    = errors.New("command is running")
	ErrNotRunning = errors.New("command is not running")
	ErrReentrant  = errors.New("reentrant lifecycle callback")
)
