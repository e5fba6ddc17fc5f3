package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/streamgate/streamgate-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	client_ip  TEXT,
	timestamp  DATETIME NOT NULL,
	metadata   TEXT
);

CREATE INDEX IF NOT EXISTS idx_session_events_type ON session_events(event_type);
`

// SQLiteStore implements store.AuditStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the audit database at dbPath and ensures the
// schema exists.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup opens the database and runs a setup function before use.
// Tests use it to apply a custom schema against ":memory:".
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveEvent appends one session event and returns the persisted record.
func (s *SQLiteStore) SaveEvent(ctx context.Context, event *store.SessionEvent) (*store.SessionEvent, error) {
	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO session_events (event_type, client_ip, timestamp, metadata)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, event.EventType, event.ClientIP, timestamp, metadata)
	if err != nil {
		return nil, fmt.Errorf("insert session event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetEventByID(ctx, id)
}

// GetEventByID retrieves one session event by id.
func (s *SQLiteStore) GetEventByID(ctx context.Context, id int64) (*store.SessionEvent, error) {
	query := `
		SELECT id, event_type, COALESCE(client_ip, ''), timestamp, COALESCE(metadata, '')
		FROM session_events
		WHERE id = ?
	`
	event, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrEventNotFound
		}
		return nil, fmt.Errorf("query session event: %w", err)
	}
	return event, nil
}

// ListEvents returns every recorded session event in insertion order.
func (s *SQLiteStore) ListEvents(ctx context.Context) ([]*store.SessionEvent, error) {
	query := `
		SELECT id, event_type, COALESCE(client_ip, ''), timestamp, COALESCE(metadata, '')
		FROM session_events
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ListEventsByType returns the session events with the given event type in
// insertion order.
func (s *SQLiteStore) ListEventsByType(ctx context.Context, eventType string) ([]*store.SessionEvent, error) {
	query := `
		SELECT id, event_type, COALESCE(client_ip, ''), timestamp, COALESCE(metadata, '')
		FROM session_events
		WHERE event_type = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, eventType)
	if err != nil {
		return nil, fmt.Errorf("query session events by type: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*store.SessionEvent, error) {
	var (
		event    store.SessionEvent
		metadata string
	)
	if err := row.Scan(&event.ID, &event.EventType, &event.ClientIP, &event.Timestamp, &metadata); err != nil {
		return nil, err
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &event, nil
}

func collectEvents(rows *sql.Rows) ([]*store.SessionEvent, error) {
	var events []*store.SessionEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session events: %w", err)
	}
	return events, nil
}

func encodeMetadata(metadata map[string]string) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
