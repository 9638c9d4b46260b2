package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innbox/internal/models"

	"github.com/jmoiron/sqlx"
)

// MessageStore is the durable, deduplicated record of every message ever
// seen, keyed by message_id.
type MessageStore struct {
	db *sqlx.DB
}

// NewMessageStore creates a message store on an existing connection
func NewMessageStore(db *sqlx.DB) *MessageStore {
	return &MessageStore{db: db}
}

// CreateTables creates the messages table and its indexes (PostgreSQL)
func (s *MessageStore) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id SERIAL PRIMARY KEY,
			message_id VARCHAR(255) UNIQUE NOT NULL,
			thread_id VARCHAR(255) NOT NULL,
			sent_at TIMESTAMP NOT NULL,
			sender_class VARCHAR(16) NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			raw_snippet TEXT NOT NULL DEFAULT '',
			from_header TEXT NOT NULL DEFAULT '',
			body_text TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create messages table: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_messages_thread_id ON messages(thread_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender_class ON messages(sender_class)`,
		// Compound index keeps thread scans off full table scans
		`CREATE INDEX IF NOT EXISTS idx_messages_thread_sent ON messages(thread_id, sent_at)`,
	}

	for _, query := range indexes {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			fmt.Printf("Warning: Failed to create index: %v\n", err)
		}
	}

	return nil
}

// Upsert inserts a message if its message_id is new and reports whether an
// insert happened. Duplicates are steady state during repeated ingestion
// sweeps: the existing record is left untouched and no error is returned.
func (s *MessageStore) Upsert(ctx context.Context, m *models.Message) (bool, error) {
	query := s.db.Rebind(`
		INSERT INTO messages (message_id, thread_id, sent_at, sender_class, subject, raw_snippet, from_header, body_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (message_id) DO NOTHING
	`)

	result, err := s.db.ExecContext(ctx, query,
		m.MessageID,
		m.ThreadID,
		m.SentAt,
		m.SenderClass,
		m.Subject,
		m.RawSnippet,
		m.FromHeader,
		m.BodyText,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert message %s: %w", m.MessageID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read upsert result: %w", err)
	}

	return rowsAffected > 0, nil
}

// FindByThread returns all messages of a thread, oldest first
func (s *MessageStore) FindByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	query := s.db.Rebind(`
		SELECT id, message_id, thread_id, sent_at, sender_class, subject, raw_snippet, from_header, body_text, created_at, updated_at
		FROM messages
		WHERE thread_id = ?
		ORDER BY sent_at ASC
	`)

	var messages []models.Message
	if err := s.db.SelectContext(ctx, &messages, query, threadID); err != nil {
		return nil, fmt.Errorf("failed to fetch thread %s: %w", threadID, err)
	}

	return messages, nil
}

// LatestByThread returns the head of a thread, or nil when the thread has
// no messages.
func (s *MessageStore) LatestByThread(ctx context.Context, threadID string) (*models.Message, error) {
	query := s.db.Rebind(`
		SELECT id, message_id, thread_id, sent_at, sender_class, subject, raw_snippet, from_header, body_text, created_at, updated_at
		FROM messages
		WHERE thread_id = ?
		ORDER BY sent_at DESC
		LIMIT 1
	`)

	var m models.Message
	err := s.db.GetContext(ctx, &m, query, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch head of thread %s: %w", threadID, err)
	}

	return &m, nil
}

// FindExternalSince returns External messages sent at or after the cutoff,
// newest first. The detector walks these to find candidate threads.
func (s *MessageStore) FindExternalSince(ctx context.Context, since time.Time, limit int) ([]models.Message, error) {
	query := s.db.Rebind(`
		SELECT id, message_id, thread_id, sent_at, sender_class, subject, raw_snippet, from_header, body_text, created_at, updated_at
		FROM messages
		WHERE sender_class = ? AND sent_at >= ?
		ORDER BY sent_at DESC
		LIMIT ?
	`)

	var messages []models.Message
	if err := s.db.SelectContext(ctx, &messages, query, models.SenderExternal, since, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch external messages: %w", err)
	}

	return messages, nil
}

// PendingEmbedding returns messages that have no embedding record yet,
// oldest first so retrieval context accumulates chronologically.
func (s *MessageStore) PendingEmbedding(ctx context.Context) ([]models.Message, error) {
	query := `
		SELECT m.id, m.message_id, m.thread_id, m.sent_at, m.sender_class, m.subject, m.raw_snippet, m.from_header, m.body_text, m.created_at, m.updated_at
		FROM messages m
		LEFT JOIN embedding_records e ON e.message_id = m.message_id
		WHERE e.id IS NULL
		ORDER BY m.sent_at ASC
	`

	var messages []models.Message
	if err := s.db.SelectContext(ctx, &messages, query); err != nil {
		return nil, fmt.Errorf("failed to fetch pending messages: %w", err)
	}

	return messages, nil
}

// FindByMessageIDs returns the messages for a set of message_ids. Missing
// ids are silently absent from the result.
func (s *MessageStore) FindByMessageIDs(ctx context.Context, ids []string) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, message_id, thread_id, sent_at, sender_class, subject, raw_snippet, from_header, body_text, created_at, updated_at
		FROM messages
		WHERE message_id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup query: %w", err)
	}

	var messages []models.Message
	if err := s.db.SelectContext(ctx, &messages, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to fetch messages by id: %w", err)
	}

	return messages, nil
}

// CountBySenderClass returns total, Operator and External message counts
func (s *MessageStore) CountBySenderClass(ctx context.Context) (total, operator, external int, err error) {
	query := s.db.Rebind(`SELECT COUNT(*) FROM messages WHERE sender_class = ?`)

	if err = s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages`); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count messages: %w", err)
	}
	if err = s.db.GetContext(ctx, &operator, query, models.SenderOperator); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count operator messages: %w", err)
	}
	if err = s.db.GetContext(ctx, &external, query, models.SenderExternal); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count external messages: %w", err)
	}

	return total, operator, external, nil
}

// MigrateSenderClass re-runs classification over every stored from_header
// and rewrites rows whose sender_class no longer matches. The operation is
// idempotent: a second run with the same rule updates nothing.
func (s *MessageStore) MigrateSenderClass(ctx context.Context, classify func(string) models.SenderClass) (int64, error) {
	type row struct {
		ID          int                `db:"id"`
		FromHeader  string             `db:"from_header"`
		SenderClass models.SenderClass `db:"sender_class"`
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, from_header, sender_class FROM messages`); err != nil {
		return 0, fmt.Errorf("failed to fetch messages for migration: %w", err)
	}

	update := s.db.Rebind(`UPDATE messages SET sender_class = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)

	var updated int64
	for _, r := range rows {
		want := classify(r.FromHeader)
		if want == r.SenderClass {
			continue
		}
		if _, err := s.db.ExecContext(ctx, update, want, r.ID); err != nil {
			return updated, fmt.Errorf("failed to migrate message %d: %w", r.ID, err)
		}
		updated++
	}

	return updated, nil
}
