// Package store persists encoded call messages while dial runs in
// offline mode. Queued messages are replayed later by a separate sender;
// dial itself only queues, lists, and deletes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Message struct {
	ID        string
	Target    string
	Method    string
	Payload   []byte
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	method     TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open message store: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init message store: %w", err)
	}
	return &Store{db: db}, nil
}

// Queue stores one encoded message and returns its generated id.
func (s *Store) Queue(ctx context.Context, target, method string, payload []byte) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, target, method, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, target, method, payload, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("queue message: %w", err)
	}
	return id, nil
}

// List returns all queued messages in insertion order.
func (s *Store) List(ctx context.Context) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, method, payload, created_at FROM messages ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Target, &m.Method, &m.Payload, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("no queued message %s", id)
	}
	return err
}

func (s *Store) Close() error { return s.db.Close() }
