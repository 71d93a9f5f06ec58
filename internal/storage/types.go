package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDisabled = errors.New("storage disabled")
	ErrClosed   = errors.New("storage closed")
)

// Config configures storage.
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Record is one journal line. Keep it compact and schema-stable.
type Record struct {
	At           time.Time `json:"at"`
	Type         string    `json:"type"`
	RunID        string    `json:"run_id,omitempty"`
	Command      string    `json:"command,omitempty"`
	Requirements []string  `json:"requirements,omitempty"`
	Interrupted  bool      `json:"interrupted,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Holder       string    `json:"holder,omitempty"`
	Tick         uint64    `json:"tick,omitempty"`
	RanMS        int64     `json:"ran_ms,omitempty"`
	Meta         string    `json:"meta,omitempty"`
}

// Store is the journal API.
type Store interface {
	// Append writes records in order. A batch is written atomically where the
	// driver supports it.
	Append(ctx context.Context, recs ...Record) error
	// Recent returns up to limit most recent records, oldest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
