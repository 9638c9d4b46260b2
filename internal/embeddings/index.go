// Package embeddings keeps the vector index converging toward one
// embedding per stored message.
package embeddings

import (
	"context"
	"fmt"
	"time"

	"innbox/internal/models"
)

// MessageSource lists messages that still need a vector
type MessageSource interface {
	PendingEmbedding(ctx context.Context) ([]models.Message, error)
}

// VectorStore persists and audits embedding records
type VectorStore interface {
	InsertBatch(ctx context.Context, records []models.EmbeddingRecord) (inserted, skipped int, err error)
	CountInvalid(ctx context.Context, dimension int) (int, error)
	DeleteInvalid(ctx context.Context, dimension int) (int64, error)
	Count(ctx context.Context) (int, error)
}

// Embedder turns texts into vectors
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	GetEmbeddingModel() string
}

// Mirror receives a copy of every stored vector, for an external ANN index
type Mirror interface {
	Upsert(ctx context.Context, records []models.EmbeddingRecord) error
}

// SyncStats summarizes one sync sweep
type SyncStats struct {
	Pending  int
	Embedded int
	Skipped  int
	Failed   int
}

// IndexStats reports index coverage
type IndexStats struct {
	Embedded int
	Pending  int
}

// Index embeds pending messages in batches. Sweeps are incremental and
// idempotent: a rerun after a crash picks up exactly the messages the
// previous run did not finish. Two sweeps running concurrently may embed
// the same message; the store keeps only the first record.
type Index struct {
	messages      MessageSource
	vectors       VectorStore
	embedder      Embedder
	mirror        Mirror
	batchSize     int
	truncateChars int
	dimension     int
}

// NewIndex creates an index. mirror may be nil.
func NewIndex(messages MessageSource, vectors VectorStore, embedder Embedder, mirror Mirror, batchSize, truncateChars, dimension int) *Index {
	return &Index{
		messages:      messages,
		vectors:       vectors,
		embedder:      embedder,
		mirror:        mirror,
		batchSize:     batchSize,
		truncateChars: truncateChars,
		dimension:     dimension,
	}
}

// Sync embeds every message that has no vector yet, oldest first. When a
// batch embedding call fails, each message in the batch is retried on its
// own, so only the inputs the provider actually rejects stay pending; the
// sweep always runs to the end of the backlog.
func (idx *Index) Sync(ctx context.Context) (*SyncStats, error) {
	stats := &SyncStats{}
	fmt.Println("[EMBED_INDEX] Starting embedding sweep...")

	pending, err := idx.messages.PendingEmbedding(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch pending messages: %w", err)
	}
	stats.Pending = len(pending)
	fmt.Printf("[EMBED_INDEX] Found %d messages to embed\n", len(pending))

	for i := 0; i < len(pending); i += idx.batchSize {
		end := i + idx.batchSize
		if end > len(pending) {
			end = len(pending)
		}

		batch := pending[i:end]
		fmt.Printf("[EMBED_INDEX] Processing batch %d-%d...\n", i+1, end)

		if err := idx.processBatch(ctx, batch, stats); err != nil {
			fmt.Printf("[EMBED_INDEX] Error processing batch: %v\n", err)
			stats.Failed += len(batch)
		}
	}

	fmt.Printf("[EMBED_INDEX] Sweep complete: %d embedded, %d skipped, %d failed\n",
		stats.Embedded, stats.Skipped, stats.Failed)
	return stats, nil
}

func (idx *Index) processBatch(ctx context.Context, batch []models.Message, stats *SyncStats) error {
	texts := make([]string, len(batch))
	for i, msg := range batch {
		texts[i] = idx.EmbedText(&msg)
	}

	vectors, err := idx.embed(ctx, texts)
	if err != nil {
		// One rejected input fails the whole call, so retry each message
		// alone and let only the rejected ones stay pending
		fmt.Printf("[EMBED_INDEX] Batch embedding failed, retrying messages individually: %v\n", err)
		vectors = idx.embedSingly(ctx, texts)
	} else if len(vectors) != len(batch) {
		return fmt.Errorf("embedding count mismatch: got %d for %d messages", len(vectors), len(batch))
	}

	modelID := idx.embedder.GetEmbeddingModel()
	records := make([]models.EmbeddingRecord, 0, len(batch))
	for i, msg := range batch {
		if vectors[i] == nil {
			stats.Failed++
			continue
		}
		if idx.dimension > 0 && len(vectors[i]) != idx.dimension {
			fmt.Printf("[EMBED_INDEX] Warning: Wrong dimension for %s (got %d, want %d)\n",
				msg.MessageID, len(vectors[i]), idx.dimension)
			stats.Failed++
			continue
		}
		records = append(records, models.EmbeddingRecord{
			MessageID: msg.MessageID,
			ThreadID:  msg.ThreadID,
			Vector:    vectors[i],
			ModelID:   modelID,
		})
	}

	inserted, skipped, err := idx.vectors.InsertBatch(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to store embeddings: %w", err)
	}
	stats.Embedded += inserted
	stats.Skipped += skipped

	if idx.mirror != nil {
		if err := idx.mirror.Upsert(ctx, records); err != nil {
			// The SQL store is the source of truth, a stale mirror heals
			// on the next sweep
			fmt.Printf("[EMBED_INDEX] Warning: Failed to mirror batch: %v\n", err)
		}
	}

	return nil
}

func (idx *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return idx.embedder.CreateEmbeddings(embedCtx, texts)
}

// embedSingly embeds each text on its own after a failed batch call. The
// returned slice is index-aligned with texts; entries the provider still
// rejects are nil.
func (idx *Index) embedSingly(ctx context.Context, texts []string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		single, err := idx.embed(ctx, []string{text})
		if err != nil || len(single) != 1 {
			fmt.Printf("[EMBED_INDEX] Warning: Failed to embed message %d of %d: %v\n", i+1, len(texts), err)
			continue
		}
		vectors[i] = single[0]
	}
	return vectors
}

// EmbedText builds the text a message is embedded under: subject plus body,
// hard truncated to keep one message from dominating token spend.
func (idx *Index) EmbedText(msg *models.Message) string {
	text := msg.BodyText
	if msg.Subject != "" {
		text = msg.Subject + "\n" + text
	}

	runes := []rune(text)
	if idx.truncateChars > 0 && len(runes) > idx.truncateChars {
		return string(runes[:idx.truncateChars])
	}
	return text
}

// Verify counts records whose vector is malformed or has the wrong dimension
func (idx *Index) Verify(ctx context.Context) (int, error) {
	invalid, err := idx.vectors.CountInvalid(ctx, idx.dimension)
	if err != nil {
		return 0, fmt.Errorf("failed to verify embeddings: %w", err)
	}
	if invalid > 0 {
		fmt.Printf("[EMBED_INDEX] Found %d invalid embeddings\n", invalid)
	}
	return invalid, nil
}

// Cleanup deletes invalid records so the next sweep re-embeds their messages
func (idx *Index) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := idx.vectors.DeleteInvalid(ctx, idx.dimension)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up embeddings: %w", err)
	}
	if deleted > 0 {
		fmt.Printf("[EMBED_INDEX] Deleted %d invalid embeddings\n", deleted)
	}
	return deleted, nil
}

// Stats reports current index coverage
func (idx *Index) Stats(ctx context.Context) (*IndexStats, error) {
	embedded, err := idx.vectors.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := idx.messages.PendingEmbedding(ctx)
	if err != nil {
		return nil, err
	}
	return &IndexStats{Embedded: embedded, Pending: len(pending)}, nil
}
