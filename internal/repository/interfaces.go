package repository

import (
	"context"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
)

// DocumentRepository persists document snapshots for the archive
type DocumentRepository interface {
	Upsert(ctx context.Context, rec document.Record) error
	Get(ctx context.Context, id string) (*document.Record, error)
	List(ctx context.Context, opts ListDocumentsOptions) ([]document.Record, error)
	Delete(ctx context.Context, id string) error
}

// ListDocumentsOptions provides filtering options for listing archived documents
type ListDocumentsOptions struct {
	Statuses []document.Status
	Limit    int
	Offset   int
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
	List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}
