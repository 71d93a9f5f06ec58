package command_test

import (
	"fmt"

	"robocmd/internal/command"
)

// trace collects lifecycle calls across commands in call order.
type trace struct{ lines []string }

func (t *trace) add(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func (t *trace) reset() []string {
	out := t.lines
	t.lines = nil
	return out
}

// probe finishes after a fixed number of executes (0 never finishes) and records
// every callback.
type probe struct {
	command.Base
	tr       *trace
	finishAt int
	execs    int
	ends     []bool
}

func newProbe(tr *trace, name string, finishAt int, reqs ...*command.Subsystem) *probe {
	return &probe{Base: command.NewBase(name, reqs...), tr: tr, finishAt: finishAt}
}

func (p *probe) Initialize() {
	p.execs = 0
	p.tr.add("%s init", p.Name())
}

func (p *probe) Execute() {
	p.execs++
	p.tr.add("%s exec", p.Name())
}

func (p *probe) IsFinished() bool { return p.finishAt > 0 && p.execs >= p.finishAt }

func (p *probe) End(interrupted bool) {
	p.ends = append(p.ends, interrupted)
	p.tr.add("%s end(%v)", p.Name(), interrupted)
}
