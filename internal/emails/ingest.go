package emails

import (
	"context"
	"fmt"
	"strings"
	"time"

	"innbox/internal/models"
)

// MessageUpserter stores normalized messages, deduplicating by message_id
type MessageUpserter interface {
	Upsert(ctx context.Context, m *models.Message) (bool, error)
}

// IngestStats summarizes one ingestion pass
type IngestStats struct {
	Stored    int
	Skipped   int
	Discarded int
	Failed    int
}

// Ingestor turns raw mailbox payloads into stored, classified messages
type Ingestor struct {
	store      MessageUpserter
	classifier *Classifier
}

// NewIngestor creates an ingestor writing through the given store
func NewIngestor(store MessageUpserter, classifier *Classifier) *Ingestor {
	return &Ingestor{store: store, classifier: classifier}
}

// Ingest normalizes and stores a batch of raw messages. Messages whose
// cleaned body is empty are discarded, duplicates are counted as skipped,
// and a failing message never aborts the rest of the batch.
func (ing *Ingestor) Ingest(ctx context.Context, raw []models.RawMessage) (IngestStats, error) {
	var stats IngestStats

	for i := range raw {
		msg, err := ing.Normalize(&raw[i])
		if err != nil {
			fmt.Printf("[INGEST] Warning: Failed to normalize message %s: %v\n", raw[i].MessageID, err)
			stats.Failed++
			continue
		}
		if msg == nil {
			stats.Discarded++
			continue
		}

		inserted, err := ing.store.Upsert(ctx, msg)
		if err != nil {
			fmt.Printf("[INGEST] Warning: Failed to store message %s: %v\n", msg.MessageID, err)
			stats.Failed++
			continue
		}
		if inserted {
			stats.Stored++
		} else {
			stats.Skipped++
		}
	}

	fmt.Printf("[INGEST] Completed: %d stored, %d skipped, %d discarded, %d failed\n",
		stats.Stored, stats.Skipped, stats.Discarded, stats.Failed)
	return stats, nil
}

// Normalize converts one raw message into its stored form. It returns
// (nil, nil) when the message has no usable text content.
func (ing *Ingestor) Normalize(raw *models.RawMessage) (*models.Message, error) {
	if raw.MessageID == "" {
		return nil, fmt.Errorf("message has no message_id")
	}

	sentAt, err := parseDate(raw.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date %q: %w", raw.Date, err)
	}

	body := CleanContent(ExtractPayloadText(raw.Payload))
	if body == "" {
		return nil, nil
	}

	threadID := raw.ThreadID
	if threadID == "" {
		threadID = raw.MessageID
	}

	return &models.Message{
		MessageID:   raw.MessageID,
		ThreadID:    threadID,
		SentAt:      sentAt,
		SenderClass: ing.classifier.Classify(raw.FromHeader),
		Subject:     raw.Subject,
		RawSnippet:  raw.Snippet,
		FromHeader:  raw.FromHeader,
		BodyText:    body,
	}, nil
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	// Date headers often carry a trailing zone comment, e.g. "-0700 (UTC)"
	if i := strings.LastIndex(value, "("); i > 0 && strings.HasSuffix(value, ")") {
		value = strings.TrimSpace(value[:i])
	}

	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
