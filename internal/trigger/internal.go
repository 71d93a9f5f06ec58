package trigger

import "sync/atomic"

// Internal is a boolean input set from code rather than hardware. It may be set
// from any goroutine; the scheduler reads it on its own.
type Internal struct {
	v        atomic.Bool
	inverted bool
}

// NewInternal returns an input that reads false until Set. An inverted input
// reads true until Set.
func NewInternal(inverted bool) *Internal {
	return &Internal{inverted: inverted}
}

func (i *Internal) Set(v bool) { i.v.Store(v) }

func (i *Internal) Get() bool { return i.v.Load() != i.inverted }

// Pulse returns a condition that is true for a single read after each Set(true),
// then clears the input.
func (i *Internal) Pulse() func() bool {
	return func() bool {
		if i.v.CompareAndSwap(true, false) {
			return !i.inverted
		}
		return i.inverted
	}
}
