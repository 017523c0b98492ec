package model

import "time"

// Event types published after a turn completes.
const (
	EventSessionStarted   = "session_started"
	EventSessionEnded     = "session_ended"
	EventUploadRejected   = "upload_rejected"
	EventDocumentReady    = "document_ready"
	EventDocumentFailed   = "document_failed"
	EventQuestionAnswered = "question_answered"
	EventGenerationFailed = "generation_failed"
	EventArchiveCleared   = "archive_cleared"
)

// Event describes the outcome of one session turn. It never carries document
// text or message content.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Document  string    `json:"document,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}
