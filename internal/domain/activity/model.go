package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeDocumentRegistered ActivityType = "document_registered"
	TypeProgressReported   ActivityType = "progress_reported"
	TypeStatusChanged      ActivityType = "status_changed"
	TypeEventRejected      ActivityType = "event_rejected"
	TypeDocumentDeleted    ActivityType = "document_deleted"
)

// ActivityEntry represents an event in the ingestion activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	DocumentID   string       `json:"document_id"`
	ActivityType ActivityType `json:"type"`
	Status       string       `json:"status,omitempty"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
