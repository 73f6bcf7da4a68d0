package mcp

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
)

type RegisterDocumentParams struct {
	Name      string `json:"name" jsonschema:"file name as shown to the student"`
	SizeBytes int64  `json:"size_bytes" jsonschema:"file size in bytes"`
	MIMEType  string `json:"mime_type,omitempty" jsonschema:"declared MIME type, e.g. application/pdf"`
}

type DocumentIDParams struct {
	ID string `json:"id" jsonschema:"document id returned by register_document"`
}

type HandleEventParams struct {
	ID      string `json:"id" jsonschema:"document id"`
	Kind    string `json:"kind" jsonschema:"one of progress or completed or error"`
	Percent int    `json:"percent,omitempty" jsonschema:"transfer progress 0-100 for progress events"`
	Subject string `json:"subject,omitempty" jsonschema:"detected subject for completed events"`
	Detail  string `json:"detail,omitempty" jsonschema:"failure detail for error events"`
}

type ListDocumentsParams struct {
	Statuses []string `json:"statuses,omitempty" jsonschema:"only return documents in these statuses"`
}

type GetDocumentHistoryParams struct {
	ID    string `json:"id" jsonschema:"document id"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of entries, newest first"`
}

type GetRecentActivityParams struct {
	Type  string `json:"type,omitempty" jsonschema:"only return entries of this activity type"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
}

type EmptyParams struct{}

// DocumentResponse is the tool view of a tracked document.
type DocumentResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SizeBytes       int64  `json:"size_bytes"`
	SizeLabel       string `json:"size_label"`
	MIMEType        string `json:"mime_type"`
	Status          string `json:"status"`
	ProgressPercent int    `json:"progress_percent"`
	Subject         string `json:"subject,omitempty"`
	ErrorDetail     string `json:"error_detail,omitempty"`
	RegisteredAt    string `json:"registered_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

type DeleteDocumentResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type HistoryEntryResponse struct {
	Type      string `json:"type"`
	Status    string `json:"status,omitempty"`
	Summary   string `json:"summary"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"created_at"`
}

type DocumentHistoryResponse struct {
	ID      string                 `json:"id"`
	Entries []HistoryEntryResponse `json:"entries"`
}

type RecentActivityResponse struct {
	Entries []RecentActivityEntry `json:"entries"`
}

type RecentActivityEntry struct {
	DocumentID string `json:"document_id"`
	Type       string `json:"type"`
	Status     string `json:"status,omitempty"`
	Summary    string `json:"summary"`
	CreatedAt  string `json:"created_at"`
}

type SummaryResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// NewDocumentResponse converts a record for tool output.
func NewDocumentResponse(rec document.Record) DocumentResponse {
	resp := DocumentResponse{
		ID:              rec.ID,
		Name:            rec.Name,
		SizeBytes:       rec.SizeBytes,
		SizeLabel:       humanize.IBytes(uint64(max(rec.SizeBytes, 0))),
		MIMEType:        rec.MIMEType,
		Status:          string(rec.Status),
		ProgressPercent: rec.ProgressPercent,
		Subject:         rec.Subject,
		ErrorDetail:     rec.ErrorDetail,
		RegisteredAt:    rec.RegisteredAt.UTC().Format(time.RFC3339),
	}
	if rec.CompletedAt != nil {
		resp.CompletedAt = rec.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func newHistoryEntryResponse(entry activity.ActivityEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		Type:      string(entry.ActivityType),
		Status:    entry.Status,
		Summary:   entry.Summary,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}
