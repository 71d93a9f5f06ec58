// Package trigger binds commands to boolean conditions.
//
// A Trigger is polled by the scheduler at the start of each tick and acts on edges
// of its condition: schedule on press, cancel on release, toggle, and so on.
// Conditions come from operator inputs (Internal), from combinators (And, Or, Not)
// or from wall-clock schedules (OnSchedule).
package trigger
