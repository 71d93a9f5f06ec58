package scheduler

import "time"

// ActiveCommand describes one active top-level command.
type ActiveCommand struct {
	Name          string    `json:"name"`
	RunID         string    `json:"run_id"`
	Requirements  []string  `json:"requirements,omitempty"`
	Interruptible bool      `json:"interruptible"`
	ScheduledTick uint64    `json:"scheduled_tick"`
	Since         time.Time `json:"since"`
}

// Snapshot is a copy of the scheduler state, safe to hand to other goroutines.
type Snapshot struct {
	Tick     uint64            `json:"tick"`
	Disabled bool              `json:"disabled"`
	Commands []ActiveCommand   `json:"commands"`
	Claims   map[string]string `json:"claims"` // subsystem -> command
	Pending  int               `json:"pending,omitempty"`
}

func (s *Scheduler) Snapshot() Snapshot {
	out := Snapshot{
		Tick:     s.tick,
		Disabled: s.isDisabled(),
		Commands: make([]ActiveCommand, 0, len(s.reg.active)),
		Claims:   make(map[string]string, len(s.reg.claims)),
		Pending:  len(s.pending),
	}
	for _, e := range s.reg.active {
		out.Commands = append(out.Commands, ActiveCommand{
			Name:          e.cmd.Name(),
			RunID:         e.runID,
			Requirements:  e.reqs.Names(),
			Interruptible: e.cmd.Interruptible(),
			ScheduledTick: e.tick,
			Since:         e.since,
		})
	}
	for sub, c := range s.reg.claims {
		out.Claims[sub.Name()] = c.Name()
	}
	return out
}

// ConsumeChanged reports whether the set of active commands changed since the
// previous call, and resets the flag.
func (s *Scheduler) ConsumeChanged() bool {
	ch := s.changed
	s.changed = false
	return ch
}
