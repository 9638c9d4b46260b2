package models

import "time"

// SenderClass labels which side of the conversation a message came from.
// It is a projection of from_header, never a source of truth: it can be
// recomputed at any time by re-running classification (see the sender
// migration operation).
type SenderClass string

const (
	// SenderOperator marks mail sent from the configured internal domain
	SenderOperator SenderClass = "Operator"
	// SenderExternal marks everything else, i.e. guest mail
	SenderExternal SenderClass = "External"
)

// Message represents one physical email message
type Message struct {
	ID          int         `db:"id" json:"id"`
	MessageID   string      `db:"message_id" json:"message_id"`
	ThreadID    string      `db:"thread_id" json:"thread_id"`
	SentAt      time.Time   `db:"sent_at" json:"sent_at"`
	SenderClass SenderClass `db:"sender_class" json:"sender_class"`
	Subject     string      `db:"subject" json:"subject"`
	RawSnippet  string      `db:"raw_snippet" json:"raw_snippet"`
	FromHeader  string      `db:"from_header" json:"from_header"`
	BodyText    string      `db:"body_text" json:"body_text"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// EmbeddingRecord holds the vector for one message. At most one record
// exists per message_id; invalid records are deleted and regenerated on
// the next sweep, never patched in place.
type EmbeddingRecord struct {
	ID         int       `db:"id" json:"id"`
	MessageID  string    `db:"message_id" json:"message_id"`
	ThreadID   string    `db:"thread_id" json:"thread_id"`
	Vector     []float32 `db:"-" json:"-"`
	ModelID    string    `db:"model_id" json:"model_id"`
	EmbeddedAt time.Time `db:"embedded_at" json:"embedded_at"`
}

// Match is a retrieval hit: one message plus its similarity score.
// The retriever guarantees at most one Match per thread.
type Match struct {
	Message    `json:"message"`
	Similarity float64 `json:"similarity"`
}

// DraftState tracks a thread through the response pipeline
type DraftState string

const (
	DraftPending    DraftState = "Pending"
	DraftRetrieving DraftState = "Retrieving"
	DraftGrounded   DraftState = "Grounded"
	DraftGenerated  DraftState = "Generated"
	DraftNoContext  DraftState = "NoContext" // terminal: no grounding, generator not called
	DraftFailed     DraftState = "Failed"    // terminal: unrecoverable error
)

// MatchRef identifies a grounding conversation that contributed to a draft
type MatchRef struct {
	ThreadID   string  `json:"thread_id"`
	Similarity float64 `json:"similarity"`
}

// Draft is the staged output for one unanswered thread. Drafts are always
// reviewed by an operator; nothing is ever sent to the guest automatically.
type Draft struct {
	ThreadID  string     `json:"thread_id"`
	Subject   string     `json:"subject"`
	GuestText string     `json:"guest_text"`
	Text      string     `json:"text,omitempty"`
	State     DraftState `json:"state"`
	Matches   []MatchRef `json:"matches,omitempty"`
	Error     string     `json:"error,omitempty"`
}
