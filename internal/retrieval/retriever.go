// Package retrieval finds stored messages similar to a query text.
package retrieval

import (
	"context"
	"fmt"

	"innbox/internal/embeddings"
	"innbox/internal/models"
)

// QueryEmbedder turns a query text into a vector
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher finds the nearest stored vectors for a query vector
type Searcher interface {
	Query(ctx context.Context, vector []float32, limit int) ([]embeddings.ScoredID, error)
}

// MessageLookup resolves similarity hits back to full messages
type MessageLookup interface {
	FindByMessageIDs(ctx context.Context, ids []string) ([]models.Message, error)
}

// Retriever embeds a query and returns the most similar messages, at most
// one per thread. It overfetches from the searcher so diversification still
// has enough candidates when one thread dominates the neighborhood.
type Retriever struct {
	embedder  QueryEmbedder
	searcher  Searcher
	messages  MessageLookup
	overfetch int
}

// NewRetriever creates a retriever. overfetch multiplies k when querying
// the searcher.
func NewRetriever(embedder QueryEmbedder, searcher Searcher, messages MessageLookup, overfetch int) *Retriever {
	if overfetch < 1 {
		overfetch = 1
	}
	return &Retriever{
		embedder:  embedder,
		searcher:  searcher,
		messages:  messages,
		overfetch: overfetch,
	}
}

// Retrieve returns up to k messages similar to the query, highest
// similarity first, no two from the same thread. Fewer than k results
// means the index simply has nothing more to offer.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.Match, error) {
	if k <= 0 {
		return nil, nil
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.searcher.Query(ctx, vector, k*r.overfetch)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	seenThreads := make(map[string]struct{})
	var selected []embeddings.ScoredID
	for _, hit := range hits {
		if _, seen := seenThreads[hit.ThreadID]; seen {
			continue
		}
		seenThreads[hit.ThreadID] = struct{}{}
		selected = append(selected, hit)
		if len(selected) == k {
			break
		}
	}

	if len(selected) == 0 {
		return nil, nil
	}

	ids := make([]string, len(selected))
	for i, hit := range selected {
		ids[i] = hit.MessageID
	}

	rows, err := r.messages.FindByMessageIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load matched messages: %w", err)
	}

	byID := make(map[string]models.Message, len(rows))
	for _, m := range rows {
		byID[m.MessageID] = m
	}

	matches := make([]models.Match, 0, len(selected))
	for _, hit := range selected {
		msg, ok := byID[hit.MessageID]
		if !ok {
			// Index entry without a message row, Cleanup will reap it
			continue
		}
		matches = append(matches, models.Match{
			Message:    msg,
			Similarity: hit.Similarity,
		})
	}

	fmt.Printf("[RETRIEVER] Query matched %d messages across %d candidate hits\n", len(matches), len(hits))
	return matches, nil
}
