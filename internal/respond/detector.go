// Package respond turns unanswered guest threads into staged draft replies.
package respond

import (
	"context"
	"fmt"
	"time"

	"innbox/internal/models"
)

// maxCandidateScan bounds how many recent External messages one detection
// pass examines.
const maxCandidateScan = 500

// ThreadSource reads messages grouped by thread
type ThreadSource interface {
	FindExternalSince(ctx context.Context, since time.Time, limit int) ([]models.Message, error)
	LatestByThread(ctx context.Context, threadID string) (*models.Message, error)
	FindByThread(ctx context.Context, threadID string) ([]models.Message, error)
}

// Detector finds threads whose last word belongs to a guest
type Detector struct {
	store ThreadSource
}

// NewDetector creates a detector over the given store
func NewDetector(store ThreadSource) *Detector {
	return &Detector{store: store}
}

// FindUnanswered returns the head message of up to limit distinct threads
// that are awaiting an operator reply, newest first. A thread counts as
// unanswered when its most recent message is External. Each thread is
// checked at most once per call no matter how many of its messages fall in
// the window.
func (d *Detector) FindUnanswered(ctx context.Context, since time.Time, limit int) ([]models.Message, error) {
	candidates, err := d.store.FindExternalSince(ctx, since, maxCandidateScan)
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent external messages: %w", err)
	}

	seenThreads := make(map[string]struct{})
	var unanswered []models.Message

	for _, candidate := range candidates {
		if _, seen := seenThreads[candidate.ThreadID]; seen {
			continue
		}
		seenThreads[candidate.ThreadID] = struct{}{}

		head, err := d.store.LatestByThread(ctx, candidate.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch head of thread %s: %w", candidate.ThreadID, err)
		}
		if head == nil {
			continue
		}

		if head.SenderClass == models.SenderExternal {
			unanswered = append(unanswered, *head)
			if limit > 0 && len(unanswered) == limit {
				break
			}
		}
	}

	fmt.Printf("[DETECTOR] Found %d unanswered threads among %d candidates\n", len(unanswered), len(candidates))
	return unanswered, nil
}
