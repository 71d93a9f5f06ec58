// Package scheduler is the single-threaded core that drives commands once per
// control-loop tick.
//
// The scheduler owns the claims registry: which top-level command currently holds
// each subsystem. It is responsible for:
//   - resolving conflicts when a command is scheduled (interrupt or reject)
//   - advancing every active command in scheduling order on Run
//   - scheduling default commands for idle subsystems
//   - publishing lifecycle events on the bus
//
// A Scheduler is not safe for concurrent use. Everything, including callbacks made
// from commands, must happen on the goroutine that calls Run (see internal/loop).
package scheduler
