package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"innbox/internal/embeddings"
	"innbox/internal/models"
)

// VectorSource lists every stored vector
type VectorSource interface {
	All(ctx context.Context) ([]models.EmbeddingRecord, error)
}

// ScanSearcher ranks stored vectors by cosine similarity with a full
// in-process scan. It is the default searcher and stays fast well into the
// tens of thousands of messages; beyond that an ANN index takes over.
type ScanSearcher struct {
	vectors VectorSource
}

// NewScanSearcher creates a scan searcher over the given vector source
func NewScanSearcher(vectors VectorSource) *ScanSearcher {
	return &ScanSearcher{vectors: vectors}
}

// Query returns the limit nearest vectors, highest similarity first
func (s *ScanSearcher) Query(ctx context.Context, vector []float32, limit int) ([]embeddings.ScoredID, error) {
	records, err := s.vectors.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	scored := make([]embeddings.ScoredID, 0, len(records))
	for _, r := range records {
		similarity := cosineSimilarity(vector, r.Vector)
		scored = append(scored, embeddings.ScoredID{
			MessageID:  r.MessageID,
			ThreadID:   r.ThreadID,
			Similarity: similarity,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}

// cosineSimilarity calculates cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
