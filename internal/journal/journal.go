// Package journal persists document snapshots and activity off the hot path.
//
// The registry never blocks on disk: callers enqueue work and a single
// writer goroutine drains the queue into the repositories.
package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/repository"
)

// DefaultBuffer is the queue length used when none is configured.
const DefaultBuffer = 256

// ActivityLogger appends entries to the activity log.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}

type op struct {
	snapshot *document.Record
	deleteID string
	entry    *activity.ActivityEntry
}

// Journal queues writes for a background writer.
type Journal struct {
	documents  repository.DocumentRepository
	activities ActivityLogger
	queue      chan op
	dropped    atomic.Int64
	logger     *slog.Logger
}

// New creates a journal writing to the given repositories.
func New(documents repository.DocumentRepository, activities ActivityLogger, buffer int, logger *slog.Logger) *Journal {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Journal{
		documents:  documents,
		activities: activities,
		queue:      make(chan op, buffer),
		logger:     logger,
	}
}

// Record queues a snapshot upsert and its activity entry.
func (j *Journal) Record(rec document.Record, entry activity.ActivityEntry) {
	j.enqueue(op{snapshot: &rec, entry: &entry})
}

// Note queues an activity entry without touching the snapshot.
func (j *Journal) Note(entry activity.ActivityEntry) {
	j.enqueue(op{entry: &entry})
}

// Forget queues removal of a snapshot and its activity entry.
func (j *Journal) Forget(id string, entry activity.ActivityEntry) {
	j.enqueue(op{deleteID: id, entry: &entry})
}

// Dropped reports how many writes were discarded because the queue was full.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

func (j *Journal) enqueue(o op) {
	select {
	case j.queue <- o:
	default:
		j.dropped.Add(1)
		j.logger.Warn("journal queue full, dropping write", "document_id", documentID(o))
	}
}

// Run drains the queue until ctx is canceled, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case o := <-j.queue:
			j.apply(ctx, o)
		case <-ctx.Done():
			j.flush(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (j *Journal) flush(ctx context.Context) {
	for {
		select {
		case o := <-j.queue:
			j.apply(ctx, o)
		default:
			return
		}
	}
}

func (j *Journal) apply(ctx context.Context, o op) {
	if o.snapshot != nil {
		if err := j.documents.Upsert(ctx, *o.snapshot); err != nil {
			j.logger.Error("failed to persist document snapshot", "document_id", o.snapshot.ID, "error", err)
		}
	}
	if o.deleteID != "" {
		if err := j.documents.Delete(ctx, o.deleteID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			j.logger.Error("failed to delete document snapshot", "document_id", o.deleteID, "error", err)
		}
	}
	if o.entry != nil {
		if err := j.activities.LogActivity(ctx, o.entry); err != nil {
			j.logger.Error("failed to log activity", "document_id", o.entry.DocumentID, "error", err)
		}
	}
}

func documentID(o op) string {
	switch {
	case o.snapshot != nil:
		return o.snapshot.ID
	case o.deleteID != "":
		return o.deleteID
	case o.entry != nil:
		return o.entry.DocumentID
	}
	return ""
}
