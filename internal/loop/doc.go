// Package loop is the periodic tick source for the scheduler.
//
// The loop goroutine is the only goroutine that touches the scheduler. Other
// goroutines hand work to it with Submit and read its state through Status.
// When running under systemd the loop reports READY once ticking starts and pings
// the watchdog only while ticks keep completing, so a wedged command gets the
// process restarted.
package loop
