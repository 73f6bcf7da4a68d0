package document

import "time"

// Status represents the ingestion state of a document
type Status string

const (
	StatusQueued       Status = "queued"
	StatusTransferring Status = "transferring"
	StatusProcessing   Status = "processing"
	StatusReady        Status = "ready"
	StatusFailed       Status = "failed"
)

// IsTerminal reports whether no further event may be applied.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusQueued, StatusTransferring, StatusProcessing, StatusReady, StatusFailed}
}

// Metadata describes a file at registration time
type Metadata struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	MIMEType  string `json:"mime_type"`
}

// Record tracks one submitted file through ingestion
type Record struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	SizeBytes       int64      `json:"size_bytes"`
	MIMEType        string     `json:"mime_type"`
	Status          Status     `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	Subject         string     `json:"subject,omitempty"`
	ErrorDetail     string     `json:"error_detail,omitempty"`
	RegisteredAt    time.Time  `json:"registered_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func (r Record) clone() Record {
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		r.CompletedAt = &t
	}
	return r
}

// EventKind identifies what a transport adapter is reporting
type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventError     EventKind = "error"
)

// Event is a report from a transport adapter about one document.
type Event struct {
	Kind    EventKind `json:"kind"`
	Percent int       `json:"percent,omitempty"`
	Subject string    `json:"subject,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// CanceledDetail is the error detail adapters use for a canceled transfer.
const CanceledDetail = "canceled"

// ProgressEvent reports transfer progress.
func ProgressEvent(percent int) Event {
	return Event{Kind: EventProgress, Percent: percent}
}

// CompletedEvent reports that processing finished.
func CompletedEvent(subject string) Event {
	return Event{Kind: EventCompleted, Subject: subject}
}

// ErrorEvent reports a failed transfer or processing step.
func ErrorEvent(detail string) Event {
	return Event{Kind: EventError, Detail: detail}
}

// CancelEvent reports a transfer canceled by the user.
func CancelEvent() Event {
	return ErrorEvent(CanceledDetail)
}
