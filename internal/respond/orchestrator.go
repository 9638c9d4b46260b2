package respond

import (
	"context"
	"fmt"
	"time"

	"innbox/internal/models"
)

// Retriever finds messages similar to a query text
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.Match, error)
}

// Generator produces a completion for an assembled prompt
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Notifier stages a generated draft for operator review
type Notifier interface {
	NotifyDraft(ctx context.Context, draft *models.Draft) error
}

// Orchestrator drives detection, retrieval, assembly and generation for
// every unanswered thread. Drafts are always staged for review; nothing is
// ever sent to a guest from here.
type Orchestrator struct {
	detector  *Detector
	retriever Retriever
	assembler *Assembler
	generator Generator
	notifier  Notifier
}

// NewOrchestrator creates an orchestrator. notifier may be nil.
func NewOrchestrator(detector *Detector, retriever Retriever, assembler *Assembler, generator Generator, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		detector:  detector,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		notifier:  notifier,
	}
}

// ProcessUnanswered generates one draft per unanswered thread within the
// window. Every processed thread appears in the result with its terminal
// state; a failing thread never aborts the others.
func (o *Orchestrator) ProcessUnanswered(ctx context.Context, since time.Time, limit, k int) ([]models.Draft, error) {
	heads, err := o.detector.FindUnanswered(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to detect unanswered threads: %w", err)
	}

	drafts := make([]models.Draft, 0, len(heads))
	for i := range heads {
		drafts = append(drafts, o.processThread(ctx, &heads[i], k))
	}

	generated := 0
	for _, d := range drafts {
		if d.State == models.DraftGenerated {
			generated++
		}
	}
	fmt.Printf("[ORCHESTRATOR] Processed %d threads: %d drafts generated\n", len(drafts), generated)
	return drafts, nil
}

func (o *Orchestrator) processThread(ctx context.Context, head *models.Message, k int) models.Draft {
	draft := models.Draft{
		ThreadID:  head.ThreadID,
		Subject:   head.Subject,
		GuestText: head.BodyText,
		State:     models.DraftPending,
	}

	draft.State = models.DraftRetrieving
	matches, err := o.retriever.Retrieve(ctx, head.BodyText, k)
	if err != nil {
		return o.fail(draft, fmt.Errorf("retrieval failed: %w", err))
	}

	// An empty match set is a reported outcome, not an error. The
	// generator is never called without grounding.
	if len(matches) == 0 {
		draft.State = models.DraftNoContext
		return draft
	}

	draft.State = models.DraftGrounded
	for _, m := range matches {
		draft.Matches = append(draft.Matches, models.MatchRef{
			ThreadID:   m.ThreadID,
			Similarity: m.Similarity,
		})
	}

	prompt, err := o.assembler.BuildContext(ctx, head.BodyText, matches)
	if err != nil {
		return o.fail(draft, fmt.Errorf("context assembly failed: %w", err))
	}

	text, err := o.generator.Complete(ctx, prompt)
	if err != nil {
		return o.fail(draft, fmt.Errorf("generation failed: %w", err))
	}

	draft.Text = text
	draft.State = models.DraftGenerated

	if o.notifier != nil {
		if err := o.notifier.NotifyDraft(ctx, &draft); err != nil {
			// The draft is still in the result set, only the email failed
			fmt.Printf("[ORCHESTRATOR] Warning: Failed to notify draft for thread %s: %v\n", draft.ThreadID, err)
		}
	}

	return draft
}

func (o *Orchestrator) fail(draft models.Draft, err error) models.Draft {
	fmt.Printf("[ORCHESTRATOR] Thread %s failed: %v\n", draft.ThreadID, err)
	draft.State = models.DraftFailed
	draft.Error = err.Error()
	return draft
}
