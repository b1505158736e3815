// Package sqlite provides the durable raffle snapshot and event journal
// store over a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/0xGIDHUB/raffle-engine/internal/platform/storage/sqlitemigrate"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/domain"
	"github.com/0xGIDHUB/raffle-engine/internal/raffle/event"
	"github.com/0xGIDHUB/raffle-engine/internal/storage"
	"github.com/0xGIDHUB/raffle-engine/internal/storage/sqlite/migrations"
)

// Store implements raffle snapshot and journal persistence over SQLite.
//
// One SQLite file backs both so a snapshot write and the event that caused
// it share the same visibility boundary.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

// Open opens a raffle SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, clock: time.Now}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Put persists the raffle snapshot, replacing any previous one.
func (s *Store) Put(ctx context.Context, raffle domain.Raffle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	payload, err := json.Marshal(raffle)
	if err != nil {
		return fmt.Errorf("marshal raffle snapshot: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO raffle_snapshot (id, snapshot_json, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET snapshot_json = excluded.snapshot_json, updated_at = excluded.updated_at
`, string(payload), toMillis(s.clock()))
	if err != nil {
		return fmt.Errorf("store raffle snapshot: %w", err)
	}
	return nil
}

// Get fetches the raffle snapshot.
func (s *Store) Get(ctx context.Context) (domain.Raffle, error) {
	if err := ctx.Err(); err != nil {
		return domain.Raffle{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Raffle{}, fmt.Errorf("storage is not configured")
	}

	var payload string
	row := s.sqlDB.QueryRowContext(ctx, "SELECT snapshot_json FROM raffle_snapshot WHERE id = 1")
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Raffle{}, storage.ErrNotFound
		}
		return domain.Raffle{}, fmt.Errorf("load raffle snapshot: %w", err)
	}

	var raffle domain.Raffle
	if err := json.Unmarshal([]byte(payload), &raffle); err != nil {
		return domain.Raffle{}, fmt.Errorf("unmarshal raffle snapshot: %w", err)
	}
	return raffle, nil
}

// AppendEvent atomically appends an event and returns it with sequence and
// hash set.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	validated, err := evt.ValidateForAppend(s.clock)
	if err != nil {
		return event.Event{}, err
	}
	evt = validated

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	row := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM raffle_events")
	if err := row.Scan(&seq); err != nil {
		return event.Event{}, fmt.Errorf("next event seq: %w", err)
	}
	evt.Seq = uint64(seq)
	evt.Hash = event.ComputeHash(evt)

	if _, err := tx.ExecContext(ctx, `
INSERT INTO raffle_events (seq, event_hash, timestamp, event_type, actor, payload_json)
VALUES (?, ?, ?, ?, ?, ?)
`, seq, evt.Hash, toMillis(evt.Timestamp), string(evt.Type), evt.Actor, string(evt.PayloadJSON)); err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("commit event: %w", err)
	}
	return evt, nil
}

// ListEvents returns all journal events in sequence order.
func (s *Store) ListEvents(ctx context.Context) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT seq, event_hash, timestamp, event_type, actor, payload_json
FROM raffle_events ORDER BY seq ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			seq       int64
			hash      string
			timestamp int64
			eventType string
			actor     string
			payload   string
		)
		if err := rows.Scan(&seq, &hash, &timestamp, &eventType, &actor, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event.Event{
			Seq:         uint64(seq),
			Hash:        hash,
			Timestamp:   fromMillis(timestamp),
			Type:        event.Type(eventType),
			Actor:       actor,
			PayloadJSON: []byte(payload),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
