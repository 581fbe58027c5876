package usagedb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	palette_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	context TEXT NOT NULL DEFAULT '',
	ts INTEGER NOT NULL,

	CHECK(palette_id != ''),
	CHECK(mode IN ('light', 'dark', 'system'))
);

CREATE INDEX IF NOT EXISTS idx_usage_events_ts ON usage_events(ts);
`

// Store is a ports.UsageStore backed by a SQLite file.
type Store struct {
	db *sqlx.DB
}

type dbEvent struct {
	ID        int64  `db:"id"`
	PaletteID string `db:"palette_id"`
	Mode      string `db:"mode"`
	Context   string `db:"context"`
	TS        int64  `db:"ts"`
}

func (e dbEvent) toRecord() ports.UsageRecord {
	return ports.UsageRecord{
		PaletteID: e.PaletteID,
		Mode:      e.Mode,
		Context:   e.Context,
		Timestamp: time.Unix(0, e.TS).UTC(),
	}
}

// Open opens or creates the database at path and applies the schema.
// The special path ":memory:" keeps everything in memory.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts record and trims the table to the newest maxEvents rows.
func (s *Store) Append(ctx context.Context, record ports.UsageRecord, maxEvents int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO usage_events (palette_id, mode, context, ts) VALUES (?, ?, ?, ?)`,
		record.PaletteID, record.Mode, record.Context, record.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage event: %w", err)
	}

	if maxEvents > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM usage_events
			WHERE id NOT IN (SELECT id FROM usage_events ORDER BY ts DESC, id DESC LIMIT ?)
		`, maxEvents)
		if err != nil {
			return fmt.Errorf("failed to trim usage events: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage event: %w", err)
	}
	return nil
}

// List returns every record, oldest first.
func (s *Store) List(ctx context.Context) ([]ports.UsageRecord, error) {
	var rows []dbEvent
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, palette_id, mode, context, ts FROM usage_events ORDER BY ts ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage events: %w", err)
	}
	out := make([]ports.UsageRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}

// Prune deletes records older than before and reports how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM usage_events WHERE ts < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage events: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned events: %w", err)
	}
	return int(n), nil
}

var _ ports.UsageStore = (*Store)(nil)
