package journal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robocmd/internal/command"
	"robocmd/internal/control"
	"robocmd/internal/eventbus"
	"robocmd/internal/scheduler"
	"robocmd/internal/storage"
	logx "robocmd/pkg/logx"
)

type memStore struct {
	mu   sync.Mutex
	recs []storage.Record
}

func (m *memStore) Append(_ context.Context, recs ...storage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, recs...)
	return nil
}

func (m *memStore) Recent(_ context.Context, limit int) ([]storage.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.recs) > limit {
		return append([]storage.Record(nil), m.recs[len(m.recs)-limit:]...), nil
	}
	return append([]storage.Record(nil), m.recs...), nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.recs))
	for _, r := range m.recs {
		out = append(out, r.Type)
	}
	return out
}

func TestRecorderPersistsSchedulerAndControlEvents(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	store := &memStore{}
	rec := New(bus, store, 32, logx.Nop(), WithBatch(2, 10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	arm := command.NewSubsystem("arm")
	s := scheduler.New(scheduler.WithBus(bus))
	c := command.Instant("zero", func() {}, arm)
	s.Schedule(c)
	s.Run()
	control.NewState(control.ModeDisabled, logx.Nop(), bus).SetMode(control.ModeAutonomous)

	require.Eventually(t, func() bool { return len(store.types()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{scheduler.EventScheduled, scheduler.EventFinished, control.EventMode}, store.types())
	got, _ := store.Recent(context.Background(), 3)
	assert.Equal(t, got[0].RunID, got[1].RunID)
	assert.Equal(t, []string{"arm"}, got[1].Requirements)
	assert.Contains(t, got[2].Meta, `"to":"autonomous"`)
}

func TestRecorderDrainsOnShutdown(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	store := &memStore{}
	rec := New(bus, store, 8, logx.Nop(), WithBatch(100, time.Hour))
	bus.Publish(eventbus.Event{Type: scheduler.EventRejected, Data: scheduler.LifecycleEvent{Command: "x", Reason: scheduler.ReasonConflict}})
	bus.Publish(eventbus.Event{Type: "other.topic"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rec.Run(ctx))
	assert.Equal(t, []string{scheduler.EventRejected}, store.types())
}
