package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/gfranca/batepapo-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS participants (
	name           TEXT PRIMARY KEY COLLATE NOCASE,
	last_heartbeat INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	from_name  TEXT NOT NULL,
	to_name    TEXT NOT NULL,
	body       TEXT NOT NULL,
	kind       TEXT NOT NULL CHECK (kind IN ('message', 'private_message', 'status')),
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_kind ON messages(kind, seq);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
// The handle is meant to live for the whole process; there is no
// per-request open/close.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup opens the database and runs a setup function once the
// schema is applied. Useful for tests seeding fixture rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== participants ====

// CreateParticipant inserts the participant together with its join
// notice in one transaction, so membership and the audit message never
// diverge.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *store.Participant, notice *store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO participants (name, last_heartbeat) VALUES (?, ?)`,
		p.Name, p.LastHeartbeat.UnixMilli(),
	)
	if err != nil {
		if isConstraintErr(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert participant: %w", err)
	}

	if notice != nil {
		if err := insertMessageTx(ctx, tx, notice); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetParticipant retrieves a participant by name (case-insensitive).
func (s *SQLiteStore) GetParticipant(ctx context.Context, name string) (*store.Participant, error) {
	var p store.Participant
	var heartbeat int64
	err := s.db.QueryRowContext(ctx,
		`SELECT name, last_heartbeat FROM participants WHERE name = ?`,
		name,
	).Scan(&p.Name, &heartbeat)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query participant: %w", err)
	}
	p.LastHeartbeat = time.UnixMilli(heartbeat)
	return &p, nil
}

// ListParticipants returns all current participants.
func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]*store.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, last_heartbeat FROM participants`)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*store.Participant, 0)
	for rows.Next() {
		var p store.Participant
		var heartbeat int64
		if err := rows.Scan(&p.Name, &heartbeat); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.LastHeartbeat = time.UnixMilli(heartbeat)
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}

// TouchParticipant refreshes the participant's heartbeat timestamp.
func (s *SQLiteStore) TouchParticipant(ctx context.Context, name string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE participants SET last_heartbeat = ? WHERE name = ?`,
		at.UnixMilli(), name,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RemoveParticipant deletes the participant and appends its departure
// notice in one transaction.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, name string, notice *store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	if notice != nil {
		if err := insertMessageTx(ctx, tx, notice); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ==== messages ====

// InsertMessage appends a message to the log.
func (s *SQLiteStore) InsertMessage(ctx context.Context, m *store.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, from_name, to_name, body, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.From, m.To, m.Text, string(m.Type), m.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isConstraintErr(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func insertMessageTx(ctx context.Context, tx *sql.Tx, m *store.Message) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, from_name, to_name, body, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.From, m.To, m.Text, string(m.Type), m.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	var m store.Message
	var kind string
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, from_name, to_name, body, kind, created_at FROM messages WHERE id = ?`,
		id,
	).Scan(&m.ID, &m.From, &m.To, &m.Text, &kind, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	m.Type = store.MessageType(kind)
	m.CreatedAt = time.UnixMilli(createdAt)
	return &m, nil
}

// ListMessages returns messages visible to requester, oldest first.
// A positive limit selects the most recent N.
func (s *SQLiteStore) ListMessages(ctx context.Context, requester string, limit int) ([]*store.Message, error) {
	const visible = `
		kind != 'private_message'
		OR to_name = 'Todos'
		OR from_name = ? COLLATE NOCASE
		OR to_name = ? COLLATE NOCASE`

	var query string
	var args []any
	if limit > 0 {
		query = `
			SELECT id, from_name, to_name, body, kind, created_at
			FROM messages
			WHERE ` + visible + `
			ORDER BY seq DESC
			LIMIT ?`
		args = []any{requester, requester, limit}
	} else {
		query = `
			SELECT id, from_name, to_name, body, kind, created_at
			FROM messages
			WHERE ` + visible + `
			ORDER BY seq ASC`
		args = []any{requester, requester}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var m store.Message
		var kind string
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Text, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Type = store.MessageType(kind)
		m.CreatedAt = time.UnixMilli(createdAt)
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if limit > 0 {
		// Reverse to get chronological order.
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}
	return messages, nil
}

// UpdateMessage overwrites the mutable fields of the message with m.ID.
// The log position (seq) is untouched.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, m *store.Message) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE messages SET to_name = ?, body = ?, kind = ?, created_at = ? WHERE id = ?`,
		m.To, m.Text, string(m.Type), m.CreatedAt.UnixMilli(), m.ID,
	)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteMessage removes a message by ID.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
