// Package ingest ties the tracker registry to its journal and history.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/repository"
)

// Recorder receives changes for durable storage. Implementations must not block.
type Recorder interface {
	Record(rec document.Record, entry activity.ActivityEntry)
	Note(entry activity.ActivityEntry)
	Forget(id string, entry activity.ActivityEntry)
}

// HistoryReader reads the journaled activity log.
type HistoryReader interface {
	GetDocumentHistory(ctx context.Context, documentID string, limit int) ([]activity.ActivityEntry, error)
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Summary counts tracked documents per status.
type Summary struct {
	Total    int                     `json:"total"`
	ByStatus map[document.Status]int `json:"by_status"`
}

// ChangeKind says what happened to a document.
type ChangeKind string

const (
	ChangeRegistered ChangeKind = "registered"
	ChangeUpdated    ChangeKind = "updated"
	ChangeDeleted    ChangeKind = "deleted"
)

// Change is delivered to watchers. Record holds the last known state, which
// for ChangeDeleted is the state at the time of deletion.
type Change struct {
	Kind   ChangeKind
	Record document.Record
}

type watcher struct {
	id int
	fn func(Change)
}

// Service is the entry point used by the HTTP and MCP surfaces.
type Service struct {
	registry *document.Registry
	recorder Recorder
	history  HistoryReader
	archive  repository.DocumentRepository
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastSeen map[string]document.Record
	watchers []watcher
	nextW    int

	unsubscribe func()
}

// NewService wires a registry to a recorder. history and archive may be nil
// when no journal store is configured.
func NewService(registry *document.Registry, recorder Recorder, history HistoryReader, archive repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		registry: registry,
		recorder: recorder,
		history:  history,
		archive:  archive,
		logger:   logger,
		now:      time.Now,
		lastSeen: make(map[string]document.Record),
	}
	s.unsubscribe = registry.Subscribe(s.onChange)
	return s
}

// Close detaches the service from the registry.
func (s *Service) Close() {
	s.unsubscribe()
}

// Register starts tracking a new document.
func (s *Service) Register(meta document.Metadata) (document.Record, error) {
	// Held across registration so the first snapshot and the registered change
	// precede any update.
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.registry.Register(meta)
	if err != nil {
		return document.Record{}, err
	}
	rec, err := s.registry.Get(id)
	if err != nil {
		return document.Record{}, err
	}
	s.logger.Info("document registered", "document_id", id, "name", rec.Name, "size_bytes", rec.SizeBytes)

	if s.recorder != nil {
		s.lastSeen[id] = rec
		s.recorder.Record(rec, activity.ActivityEntry{
			DocumentID:   id,
			ActivityType: activity.TypeDocumentRegistered,
			Status:       string(rec.Status),
			Summary:      fmt.Sprintf("Registered %s", rec.Name),
			CreatedAt:    rec.RegisteredAt,
		})
	}
	s.notify(Change{Kind: ChangeRegistered, Record: rec})
	return rec, nil
}

// HandleEvent forwards an adapter event and notes rejected ones in the history.
func (s *Service) HandleEvent(id string, ev document.Event) (document.Record, error) {
	rec, err := s.registry.HandleEvent(id, ev)
	if err == nil {
		return rec, nil
	}
	if s.recorder != nil && !errors.Is(err, document.ErrUnknownDocument) {
		entry := activity.ActivityEntry{
			DocumentID:   id,
			ActivityType: activity.TypeEventRejected,
			Summary:      fmt.Sprintf("Rejected %s event", ev.Kind),
			Details:      eventDetails(ev, err),
			CreatedAt:    s.now(),
		}
		if current, getErr := s.registry.Get(id); getErr == nil {
			entry.Status = string(current.Status)
		}
		s.recorder.Note(entry)
	}
	return document.Record{}, err
}

// Get returns a tracked document.
func (s *Service) Get(id string) (document.Record, error) {
	return s.registry.Get(id)
}

// List returns every tracked document in registration order.
func (s *Service) List() iter.Seq[document.Record] {
	return s.registry.List()
}

// ListByStatus returns tracked documents whose status is one of statuses.
// An empty filter returns everything.
func (s *Service) ListByStatus(statuses ...document.Status) []document.Record {
	var out []document.Record
	for rec := range s.registry.List() {
		if len(statuses) == 0 || slices.Contains(statuses, rec.Status) {
			out = append(out, rec)
		}
	}
	return out
}

// Delete stops tracking a document.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	if err := s.registry.Delete(id); err != nil {
		return err
	}
	s.logger.Info("document deleted", "document_id", id)

	if s.recorder != nil {
		delete(s.lastSeen, id)
		s.recorder.Forget(id, activity.ActivityEntry{
			DocumentID:   id,
			ActivityType: activity.TypeDocumentDeleted,
			Status:       string(rec.Status),
			Summary:      fmt.Sprintf("Deleted %s", rec.Name),
			CreatedAt:    s.now(),
		})
	}
	s.notify(Change{Kind: ChangeDeleted, Record: rec})
	return nil
}

// Watch registers fn for registrations, applied changes and deletions, in
// the order they happen. fn runs under the service lock and must not block
// or call back into the service. The returned function removes the watcher.
func (s *Service) Watch(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextW++
	id := s.nextW
	s.watchers = append(s.watchers, watcher{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.watchers = slices.DeleteFunc(s.watchers, func(w watcher) bool { return w.id == id })
		})
	}
}

// Summary counts the currently tracked documents per status.
func (s *Service) Summary() Summary {
	sum := Summary{ByStatus: make(map[document.Status]int, len(document.Statuses()))}
	for _, st := range document.Statuses() {
		sum.ByStatus[st] = 0
	}
	for rec := range s.registry.List() {
		sum.Total++
		sum.ByStatus[rec.Status]++
	}
	return sum
}

// History returns the journaled activity of a document, newest first.
func (s *Service) History(ctx context.Context, id string, limit int) ([]activity.ActivityEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.GetDocumentHistory(ctx, id, limit)
}

// RecentActivity lists journaled activity across all documents, newest first.
func (s *Service) RecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.GetRecentActivity(ctx, opts)
}

// Archive lists journaled snapshots, including documents from earlier runs.
func (s *Service) Archive(ctx context.Context, opts repository.ListDocumentsOptions) ([]document.Record, error) {
	if s.archive == nil {
		return nil, nil
	}
	records, err := s.archive.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing archived documents: %w", err)
	}
	return records, nil
}

func (s *Service) onChange(rec document.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A delete may have won the race for the service lock.
	if _, err := s.registry.Get(rec.ID); err != nil {
		return
	}
	s.notify(Change{Kind: ChangeUpdated, Record: rec})
	if s.recorder == nil {
		return
	}

	prev, seen := s.lastSeen[rec.ID]
	if rec.Status.IsTerminal() {
		delete(s.lastSeen, rec.ID)
	} else {
		s.lastSeen[rec.ID] = rec
	}

	entry := activity.ActivityEntry{
		DocumentID: rec.ID,
		Status:     string(rec.Status),
		CreatedAt:  s.now(),
	}
	if rec.CompletedAt != nil {
		entry.CreatedAt = *rec.CompletedAt
	}

	if seen && prev.Status == rec.Status {
		entry.ActivityType = activity.TypeProgressReported
		entry.Summary = fmt.Sprintf("Progress %d%%", rec.ProgressPercent)
	} else {
		entry.ActivityType = activity.TypeStatusChanged
		entry.Summary = statusSummary(prev, seen, rec)
	}
	s.recorder.Record(rec, entry)
}

// notify must be called with s.mu held.
func (s *Service) notify(c Change) {
	for _, w := range s.watchers {
		w.fn(c)
	}
}

func statusSummary(prev document.Record, seen bool, rec document.Record) string {
	var msg string
	if seen {
		msg = fmt.Sprintf("%s -> %s", prev.Status, rec.Status)
	} else {
		msg = fmt.Sprintf("-> %s", rec.Status)
	}
	switch rec.Status {
	case document.StatusReady:
		if rec.Subject != "" {
			msg += fmt.Sprintf(" (subject %s)", rec.Subject)
		}
	case document.StatusFailed:
		msg += fmt.Sprintf(" (%s)", rec.ErrorDetail)
	}
	return msg
}

func eventDetails(ev document.Event, err error) string {
	data, marshalErr := json.Marshal(struct {
		Event document.Event `json:"event"`
		Error string         `json:"error"`
	}{Event: ev, Error: err.Error()})
	if marshalErr != nil {
		return ""
	}
	return string(data)
}
