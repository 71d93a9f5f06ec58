package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
	logx "robocmd/pkg/logx"
)

//go:embed migrations.sql
var migrations string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.ExecContext(context.Background(), migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	log.Debug("journal opened", logx.String("path", path))
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Append(ctx context.Context, recs ...Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO journal(at, type, run_id, command, requirements, interrupted, reason, holder, tick, ran_ms, meta)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range recs {
		at := r.At
		if at.IsZero() {
			at = time.Now()
		}
		interrupted := 0
		if r.Interrupted {
			interrupted = 1
		}
		if _, err := stmt.ExecContext(ctx,
			at.UTC().Format(time.RFC3339Nano), r.Type, nullStr(r.RunID), nullStr(r.Command),
			nullStr(strings.Join(r.Requirements, ",")), interrupted, nullStr(r.Reason), nullStr(r.Holder),
			int64(r.Tick), r.RanMS, nullStr(r.Meta),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, type, run_id, command, requirements, interrupted, reason, holder, tick, ran_ms, meta
		 FROM (SELECT * FROM journal ORDER BY id DESC LIMIT ?) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                                          Record
			at                                         string
			runID, command, reqs, reason, holder, meta sql.NullString
			interrupted                                int
			tick                                       int64
		)
		if err := rows.Scan(&at, &r.Type, &runID, &command, &reqs, &interrupted, &reason, &holder, &tick, &r.RanMS, &meta); err != nil {
			return nil, err
		}
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		r.RunID = runID.String
		r.Command = command.String
		if reqs.String != "" {
			r.Requirements = strings.Split(reqs.String, ",")
		}
		r.Interrupted = interrupted != 0
		r.Reason = reason.String
		r.Holder = holder.String
		r.Tick = uint64(tick)
		r.Meta = meta.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
