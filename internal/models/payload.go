package models

// MessagePayload is the raw body shape handed over by the message source:
// either a leaf carrying base64url body data, or a node with sub-parts.
// Multipart mail nests arbitrarily, so the normalizer walks this as a tree.
type MessagePayload struct {
	MimeType string           `json:"mime_type"`
	Body     *PayloadBody     `json:"body,omitempty"`
	Parts    []MessagePayload `json:"parts,omitempty"`
}

// PayloadBody carries the base64url-encoded content of a leaf part
type PayloadBody struct {
	Data string `json:"data"`
	Size int    `json:"size"`
}

// RawMessage is one message as delivered by the message source: verbatim
// headers plus the payload tree. The importer and ingestion service consume
// this shape; nothing else in the pipeline sees it.
type RawMessage struct {
	MessageID  string          `json:"message_id"`
	ThreadID   string          `json:"thread_id"`
	Date       string          `json:"date"` // RFC 1123 / RFC 822 date header
	Subject    string          `json:"subject"`
	Snippet    string          `json:"snippet"`
	FromHeader string          `json:"from_header"`
	Payload    *MessagePayload `json:"payload"`
}
