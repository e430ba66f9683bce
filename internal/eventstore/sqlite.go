package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
)

// MemoryDatabase keeps the journal in memory for the lifetime of the store.
const MemoryDatabase = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT    NOT NULL,
	event_type TEXT    NOT NULL,
	timestamp  INTEGER NOT NULL,
	payload    BLOB    NOT NULL,
	metadata   TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
CREATE INDEX IF NOT EXISTS idx_events_time ON events(timestamp);
`

const selectEvents = "SELECT id, run_id, event_type, timestamp, payload, metadata FROM events "

// SQLiteStore is the run journal kept in the manager database file.
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != MemoryDatabase {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, derrors.IOFailed("create directory", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, derrors.IOFailed("open event store", path, err)
	}
	// Each connection to :memory: would see its own empty database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, derrors.IOFailed("initialize event store", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Append stores event. Missing timestamps become the current time and a
// missing payload is stored as an empty JSON object.
func (s *SQLiteStore) Append(ctx context.Context, event Event) error {
	var meta []byte
	if m := event.Metadata(); m != nil {
		encoded, err := json.Marshal(m)
		if err != nil {
			return derrors.InternalError("marshal event metadata", err)
		}
		meta = encoded
	}
	at := event.Timestamp()
	if at.IsZero() {
		at = time.Now()
	}
	payload := event.Payload()
	if payload == nil {
		payload = []byte("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO events (run_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		event.RunID(), event.Type(), at.UnixMilli(), payload, meta,
	); err != nil {
		return derrors.IOFailed("append event", s.path, err)
	}
	return nil
}

func (s *SQLiteStore) GetByRunID(ctx context.Context, runID string) ([]Event, error) {
	return s.query(ctx, "WHERE run_id = ? ORDER BY id", runID)
}

// GetRange returns the events stamped within [start, end], oldest first.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx, "WHERE timestamp BETWEEN ? AND ? ORDER BY id", start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, clause string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectEvents+clause, args...)
	if err != nil {
		return nil, derrors.IOFailed("query events", s.path, err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		e, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.IOFailed("iterate events", s.path, err)
	}
	return events, nil
}

func (s *SQLiteStore) scan(rows *sql.Rows) (*BaseEvent, error) {
	var (
		e    BaseEvent
		ms   int64
		meta []byte
	)
	if err := rows.Scan(&e.EventID, &e.EventRunID, &e.EventType, &ms, &e.EventPayload, &meta); err != nil {
		return nil, derrors.IOFailed("scan event", s.path, err)
	}
	e.EventTimestamp = time.UnixMilli(ms)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.EventMetadata); err != nil {
			return nil, derrors.InternalError("unmarshal event metadata", err)
		}
	}
	return &e, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
