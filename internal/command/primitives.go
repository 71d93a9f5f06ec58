package command

import (
	"time"

	"github.com/benbjohnson/clock"

	logx "robocmd/pkg/logx"
)

// FunctionalOps are the callbacks of a Functional command. Nil entries are no-ops;
// a nil IsFinished never finishes.
type FunctionalOps struct {
	OnInit     func()
	OnExecute  func()
	OnEnd      func(interrupted bool)
	IsFinished func() bool
}

// Functional is a command assembled from plain functions.
type Functional struct {
	Base
	ops FunctionalOps
}

func NewFunctional(name string, ops FunctionalOps, reqs ...*Subsystem) *Functional {
	return &Functional{Base: NewBase(name, reqs...), ops: ops}
}

func (f *Functional) Initialize() {
	if f.ops.OnInit != nil {
		f.ops.OnInit()
	}
}

func (f *Functional) Execute() {
	if f.ops.OnExecute != nil {
		f.ops.OnExecute()
	}
}

func (f *Functional) IsFinished() bool {
	if f.ops.IsFinished == nil {
		return false
	}
	return f.ops.IsFinished()
}

func (f *Functional) End(interrupted bool) {
	if f.ops.OnEnd != nil {
		f.ops.OnEnd(interrupted)
	}
}

// Instant runs fn once on initialize and finishes on its first tick.
func Instant(name string, fn func(), reqs ...*Subsystem) *Functional {
	return NewFunctional(name, FunctionalOps{
		OnInit:     fn,
		IsFinished: func() bool { return true },
	}, reqs...)
}

// Run calls fn every tick and never finishes on its own; typical for default commands.
func Run(name string, fn func(), reqs ...*Subsystem) *Functional {
	return NewFunctional(name, FunctionalOps{OnExecute: fn}, reqs...)
}

// WaitUntil finishes once cond reports true.
func WaitUntil(name string, cond func() bool) *Functional {
	return NewFunctional(name, FunctionalOps{IsFinished: cond})
}

// Print logs msg at info level when initialized and finishes immediately.
func Print(log logx.Logger, msg string) *Functional {
	return Instant("print", func() { log.Info(msg) })
}

// WaitCommand finishes after a fixed duration has elapsed since it was initialized.
type WaitCommand struct {
	Base
	clk      clock.Clock
	duration time.Duration
	started  time.Time
}

// Wait returns a command that waits d on clk. A nil clk uses the wall clock.
func Wait(d time.Duration, clk clock.Clock) *WaitCommand {
	if clk == nil {
		clk = clock.New()
	}
	w := &WaitCommand{Base: NewBase("wait " + d.String()), clk: clk, duration: d}
	w.SetRunsWhenDisabled(true)
	return w
}

func (w *WaitCommand) Initialize() { w.started = w.clk.Now() }

func (w *WaitCommand) IsFinished() bool { return w.clk.Since(w.started) >= w.duration }
