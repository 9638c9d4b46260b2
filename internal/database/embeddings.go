package database

import (
	"context"
	"encoding/json"
	"fmt"

	"innbox/internal/models"

	"github.com/jmoiron/sqlx"
)

// EmbeddingStore persists one vector per embedded message. Vectors are
// stored as JSON text so the same schema works on MySQL and PostgreSQL.
type EmbeddingStore struct {
	db *sqlx.DB
}

// NewEmbeddingStore creates an embedding store on an existing connection
func NewEmbeddingStore(db *sqlx.DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// CreateTables creates the embedding_records table (PostgreSQL)
func (s *EmbeddingStore) CreateTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS embedding_records (
			id SERIAL PRIMARY KEY,
			message_id VARCHAR(255) UNIQUE NOT NULL,
			thread_id VARCHAR(255) NOT NULL,
			vector TEXT NOT NULL,
			model_id VARCHAR(128) NOT NULL,
			embedded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create embedding_records table: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_embedding_records_thread_id ON embedding_records(thread_id)`
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		fmt.Printf("Warning: Failed to create index: %v\n", err)
	}

	return nil
}

// ExistingIDs returns the set of message_ids that already have a vector
func (s *EmbeddingStore) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT message_id FROM embedding_records`); err != nil {
		return nil, fmt.Errorf("failed to fetch embedded ids: %w", err)
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// InsertBatch writes a batch of embedding records. Records whose message_id
// already exists are skipped rather than rewritten, so a crashed sweep can
// rerun over the same batch safely. Returns inserted and skipped counts.
func (s *EmbeddingStore) InsertBatch(ctx context.Context, records []models.EmbeddingRecord) (inserted, skipped int, err error) {
	query := s.db.Rebind(`
		INSERT INTO embedding_records (message_id, thread_id, vector, model_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (message_id) DO NOTHING
	`)

	for _, r := range records {
		vectorJSON, err := json.Marshal(r.Vector)
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to encode vector for %s: %w", r.MessageID, err)
		}

		result, err := s.db.ExecContext(ctx, query, r.MessageID, r.ThreadID, string(vectorJSON), r.ModelID)
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to insert embedding for %s: %w", r.MessageID, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to read insert result: %w", err)
		}
		if rowsAffected > 0 {
			inserted++
		} else {
			skipped++
		}
	}

	return inserted, skipped, nil
}

// All returns every embedding record with its vector decoded. The in-process
// similarity scan loads these on each query.
func (s *EmbeddingStore) All(ctx context.Context) ([]models.EmbeddingRecord, error) {
	type row struct {
		ID         int    `db:"id"`
		MessageID  string `db:"message_id"`
		ThreadID   string `db:"thread_id"`
		VectorJSON string `db:"vector"`
		ModelID    string `db:"model_id"`
	}

	var rows []row
	query := `SELECT id, message_id, thread_id, vector, model_id FROM embedding_records`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to fetch embedding records: %w", err)
	}

	records := make([]models.EmbeddingRecord, 0, len(rows))
	for _, r := range rows {
		var vector []float32
		if err := json.Unmarshal([]byte(r.VectorJSON), &vector); err != nil {
			// Decode failures are handled by Verify/Cleanup, not queries
			continue
		}
		records = append(records, models.EmbeddingRecord{
			ID:        r.ID,
			MessageID: r.MessageID,
			ThreadID:  r.ThreadID,
			Vector:    vector,
			ModelID:   r.ModelID,
		})
	}

	return records, nil
}

// CountInvalid counts records whose vector is missing, malformed or has the
// wrong dimension
func (s *EmbeddingStore) CountInvalid(ctx context.Context, dimension int) (int, error) {
	ids, err := s.invalidIDs(ctx, dimension)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// DeleteInvalid removes records whose vector is missing, malformed or has
// the wrong dimension. The messages stay; the next sweep re-embeds them.
func (s *EmbeddingStore) DeleteInvalid(ctx context.Context, dimension int) (int64, error) {
	ids, err := s.invalidIDs(ctx, dimension)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM embedding_records WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete invalid embeddings: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return deleted, nil
}

// Count returns the number of embedding records
func (s *EmbeddingStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM embedding_records`); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

func (s *EmbeddingStore) invalidIDs(ctx context.Context, dimension int) ([]int, error) {
	type row struct {
		ID         int    `db:"id"`
		VectorJSON string `db:"vector"`
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, vector FROM embedding_records`); err != nil {
		return nil, fmt.Errorf("failed to fetch embedding records: %w", err)
	}

	var ids []int
	for _, r := range rows {
		var vector []float32
		if err := json.Unmarshal([]byte(r.VectorJSON), &vector); err != nil {
			ids = append(ids, r.ID)
			continue
		}
		if len(vector) == 0 || (dimension > 0 && len(vector) != dimension) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}
