// Package journal copies scheduler and control events from the bus into the
// lifecycle store.
package journal

import (
	"context"
	"encoding/json"
	"time"

	"robocmd/internal/control"
	"robocmd/internal/eventbus"
	"robocmd/internal/scheduler"
	"robocmd/internal/storage"
	logx "robocmd/pkg/logx"
)

const (
	defaultBatch         = 64
	defaultFlushInterval = 250 * time.Millisecond
	writeTimeout         = 2 * time.Second
)

// Topics the recorder subscribes to.
var Topics = []string{"command.", "control."}

type Recorder struct {
	bus   eventbus.Bus
	store storage.Store
	log   logx.Logger
	warn  *logx.Limited

	buffer        int
	batch         int
	flushInterval time.Duration

	ch    <-chan eventbus.Event
	unsub func()
}

type Option func(*Recorder)

func WithBatch(n int, every time.Duration) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batch = n
		}
		if every > 0 {
			r.flushInterval = every
		}
	}
}

// New subscribes to the bus immediately so no event published after New returns
// is missed, even before Run starts.
func New(bus eventbus.Bus, store storage.Store, buffer int, log logx.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		bus:           bus,
		store:         store,
		log:           log.With(logx.String("comp", "journal")),
		buffer:        buffer,
		batch:         defaultBatch,
		flushInterval: defaultFlushInterval,
	}
	for _, o := range opts {
		o(r)
	}
	r.warn = logx.NewLimited(r.log, 1)
	r.ch, r.unsub = bus.Subscribe(buffer, Topics...)
	return r
}

// Run writes events in batches until ctx is done, then drains what is already
// buffered.
func (r *Recorder) Run(ctx context.Context) error {
	defer r.unsub()
	t := time.NewTicker(r.flushInterval)
	defer t.Stop()

	pending := make([]storage.Record, 0, r.batch)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		wctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.store.Append(wctx, pending...)
		cancel()
		if err != nil {
			r.warn.Warn("journal write failed", logx.Err(err), logx.Int("records", len(pending)))
		}
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e, ok := <-r.ch:
					if !ok {
						flush()
						return nil
					}
					pending = append(pending, ToRecord(e))
				default:
					flush()
					return nil
				}
			}
		case e, ok := <-r.ch:
			if !ok {
				flush()
				return nil
			}
			pending = append(pending, ToRecord(e))
			if len(pending) >= r.batch {
				flush()
			}
		case <-t.C:
			flush()
		}
	}
}

// ToRecord maps a bus event to a journal record.
func ToRecord(e eventbus.Event) storage.Record {
	rec := storage.Record{At: e.Time, Type: e.Type}
	switch d := e.Data.(type) {
	case scheduler.LifecycleEvent:
		rec.RunID = d.RunID
		rec.Command = d.Command
		rec.Requirements = d.Requirements
		rec.Interrupted = d.Interrupted
		rec.Reason = d.Reason
		rec.Holder = d.Holder
		rec.Tick = d.Tick
		rec.RanMS = d.Ran.Milliseconds()
	case control.ModeChange:
		if b, err := json.Marshal(d); err == nil {
			rec.Meta = string(b)
		}
	default:
		if d != nil {
			if b, err := json.Marshal(d); err == nil {
				rec.Meta = string(b)
			}
		}
	}
	return rec
}
