package ingest_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/ingest"
	"github.com/rpggio/uploadtrack/internal/repository"
	"github.com/rpggio/uploadtrack/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	snapshot *document.Record
	forgot   string
	entry    activity.ActivityEntry
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recorded
}

func (f *fakeRecorder) Record(rec document.Record, entry activity.ActivityEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recorded{snapshot: &rec, entry: entry})
}

func (f *fakeRecorder) Note(entry activity.ActivityEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recorded{entry: entry})
}

func (f *fakeRecorder) Forget(id string, entry activity.ActivityEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, recorded{forgot: id, entry: entry})
}

func (f *fakeRecorder) types() []activity.ActivityType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]activity.ActivityType, 0, len(f.ops))
	for _, op := range f.ops {
		out = append(out, op.entry.ActivityType)
	}
	return out
}

func (f *fakeRecorder) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ops[len(f.ops)-1]
}

func notes() document.Metadata {
	return document.Metadata{Name: "notes.pdf", SizeBytes: 1000, MIMEType: "application/pdf"}
}

func TestService_RecordsLifecycle(t *testing.T) {
	rec := &fakeRecorder{}
	svc := ingest.NewService(document.NewRegistry(), rec, nil, nil, nil)
	defer svc.Close()

	doc, err := svc.Register(notes())
	require.NoError(t, err)
	require.Equal(t, document.StatusQueued, doc.Status)

	_, err = svc.HandleEvent(doc.ID, document.ProgressEvent(50))
	require.NoError(t, err)
	_, err = svc.HandleEvent(doc.ID, document.ProgressEvent(80))
	require.NoError(t, err)
	_, err = svc.HandleEvent(doc.ID, document.ProgressEvent(100))
	require.NoError(t, err)
	final, err := svc.HandleEvent(doc.ID, document.CompletedEvent("Math"))
	require.NoError(t, err)
	require.Equal(t, document.StatusReady, final.Status)

	require.Equal(t, []activity.ActivityType{
		activity.TypeDocumentRegistered,
		activity.TypeStatusChanged,
		activity.TypeProgressReported,
		activity.TypeStatusChanged,
		activity.TypeStatusChanged,
	}, rec.types())

	last := rec.last()
	require.NotNil(t, last.snapshot)
	require.Equal(t, document.StatusReady, last.snapshot.Status)
	require.Equal(t, "processing -> ready (subject Math)", last.entry.Summary)
	require.Equal(t, *final.CompletedAt, last.entry.CreatedAt)
}

func TestService_NotesRejectedEvents(t *testing.T) {
	rec := &fakeRecorder{}
	svc := ingest.NewService(document.NewRegistry(), rec, nil, nil, nil)
	defer svc.Close()

	doc, err := svc.Register(document.Metadata{Name: "bad.pdf", SizeBytes: 1000, MIMEType: "application/pdf"})
	require.NoError(t, err)
	_, err = svc.HandleEvent(doc.ID, document.ErrorEvent("too large"))
	require.NoError(t, err)

	_, err = svc.HandleEvent(doc.ID, document.ProgressEvent(10))
	require.ErrorIs(t, err, document.ErrInvalidTransition)

	last := rec.last()
	require.Nil(t, last.snapshot)
	require.Equal(t, activity.TypeEventRejected, last.entry.ActivityType)
	require.Equal(t, string(document.StatusFailed), last.entry.Status)
	require.Contains(t, last.entry.Details, `"kind":"progress"`)
}

func TestService_UnknownDocumentIsNotJournaled(t *testing.T) {
	rec := &fakeRecorder{}
	svc := ingest.NewService(document.NewRegistry(), rec, nil, nil, nil)
	defer svc.Close()

	_, err := svc.HandleEvent("missing", document.ProgressEvent(10))
	require.ErrorIs(t, err, document.ErrUnknownDocument)
	require.Empty(t, rec.types())
}

func TestService_Delete(t *testing.T) {
	rec := &fakeRecorder{}
	svc := ingest.NewService(document.NewRegistry(), rec, nil, nil, nil)
	defer svc.Close()

	doc, err := svc.Register(notes())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(doc.ID))
	require.Equal(t, doc.ID, rec.last().forgot)
	require.Equal(t, activity.TypeDocumentDeleted, rec.last().entry.ActivityType)

	require.ErrorIs(t, svc.Delete(doc.ID), document.ErrUnknownDocument)
	_, err = svc.Get(doc.ID)
	require.ErrorIs(t, err, document.ErrUnknownDocument)
}

func TestService_WatchSeesLifecycle(t *testing.T) {
	svc := ingest.NewService(document.NewRegistry(), nil, nil, nil, nil)
	defer svc.Close()

	var changes []ingest.Change
	unwatch := svc.Watch(func(c ingest.Change) { changes = append(changes, c) })

	doc, err := svc.Register(notes())
	require.NoError(t, err)
	_, err = svc.HandleEvent(doc.ID, document.ProgressEvent(30))
	require.NoError(t, err)
	_, err = svc.HandleEvent(doc.ID, document.ProgressEvent(10))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(doc.ID))

	require.Len(t, changes, 3)
	require.Equal(t, ingest.ChangeRegistered, changes[0].Kind)
	require.Equal(t, document.StatusQueued, changes[0].Record.Status)
	require.Equal(t, ingest.ChangeUpdated, changes[1].Kind)
	require.Equal(t, 30, changes[1].Record.ProgressPercent)
	require.Equal(t, ingest.ChangeDeleted, changes[2].Kind)
	require.Equal(t, doc.ID, changes[2].Record.ID)

	unwatch()
	unwatch()
	_, err = svc.Register(notes())
	require.NoError(t, err)
	require.Len(t, changes, 3)
}

func TestService_ConcurrentEventsWithRecorder(t *testing.T) {
	reg := document.NewRegistry()
	// A slow subscriber ahead of the service that reads back from the registry.
	reg.Subscribe(func(rec document.Record) {
		time.Sleep(time.Millisecond)
		_, _ = reg.Get(rec.ID)
	})
	rec := &fakeRecorder{}
	svc := ingest.NewService(reg, rec, nil, nil, nil)
	defer svc.Close()

	ids := make([]string, 8)
	for i := range ids {
		doc, err := svc.Register(notes())
		require.NoError(t, err)
		ids[i] = doc.ID
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				for p := 1; p <= 20; p++ {
					_, _ = svc.HandleEvent(id, document.ProgressEvent(p))
				}
			}(id)
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 10 {
				_, _ = svc.Register(notes())
			}
		}()
		go func() {
			defer wg.Done()
			_ = svc.Delete(ids[0])
		}()
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent events did not finish")
	}

	for _, id := range ids[1:] {
		doc, err := svc.Get(id)
		require.NoError(t, err)
		require.Equal(t, 20, doc.ProgressPercent)
	}
	_, err := svc.Get(ids[0])
	require.ErrorIs(t, err, document.ErrUnknownDocument)
	require.Equal(t, len(ids)-1+10, svc.Summary().Total)
}

func TestService_SummaryAndFilter(t *testing.T) {
	svc := ingest.NewService(document.NewRegistry(), nil, nil, nil, nil)

	a, err := svc.Register(notes())
	require.NoError(t, err)
	b, err := svc.Register(notes())
	require.NoError(t, err)
	_, err = svc.Register(notes())
	require.NoError(t, err)

	_, err = svc.HandleEvent(a.ID, document.ProgressEvent(40))
	require.NoError(t, err)
	_, err = svc.HandleEvent(b.ID, document.CancelEvent())
	require.NoError(t, err)

	sum := svc.Summary()
	require.Equal(t, 3, sum.Total)
	require.Equal(t, 1, sum.ByStatus[document.StatusQueued])
	require.Equal(t, 1, sum.ByStatus[document.StatusTransferring])
	require.Equal(t, 1, sum.ByStatus[document.StatusFailed])
	require.Equal(t, 0, sum.ByStatus[document.StatusReady])

	active := svc.ListByStatus(document.StatusQueued, document.StatusTransferring)
	require.Len(t, active, 2)
	require.Len(t, svc.ListByStatus(), 3)
}

func TestService_HistoryAndArchive(t *testing.T) {
	ctx := context.Background()
	actRepo := &mocks.ActivityRepository{}
	docRepo := &mocks.DocumentRepository{}

	id := "doc-1"
	actRepo.On("List", ctx, mock.MatchedBy(func(opts activity.ListActivityOptions) bool {
		return opts.DocumentID != nil && *opts.DocumentID == id && opts.Limit == 5
	})).Return([]activity.ActivityEntry{{ID: 2, DocumentID: id}, {ID: 1, DocumentID: id}}, nil)

	opts := repository.ListDocumentsOptions{Statuses: []document.Status{document.StatusReady}}
	docRepo.On("List", ctx, opts).Return([]document.Record{{ID: id, Status: document.StatusReady}}, nil)

	svc := ingest.NewService(document.NewRegistry(), nil, activity.NewService(actRepo, nil), docRepo, nil)

	history, err := svc.History(ctx, id, 5)
	require.NoError(t, err)
	require.Len(t, history, 2)

	deleted := activity.TypeDocumentDeleted
	actRepo.On("List", ctx, activity.ListActivityOptions{ActivityType: &deleted, Limit: 3}).Return([]activity.ActivityEntry{}, nil)
	recent, err := svc.RecentActivity(ctx, activity.ListActivityOptions{ActivityType: &deleted, Limit: 3})
	require.NoError(t, err)
	require.Empty(t, recent)

	archived, err := svc.Archive(ctx, opts)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	actRepo.AssertExpectations(t)
	docRepo.AssertExpectations(t)
}

func TestService_WithoutStore(t *testing.T) {
	svc := ingest.NewService(document.NewRegistry(), nil, nil, nil, nil)

	history, err := svc.History(context.Background(), "x", 10)
	require.NoError(t, err)
	require.Empty(t, history)

	archived, err := svc.Archive(context.Background(), repository.ListDocumentsOptions{})
	require.NoError(t, err)
	require.Empty(t, archived)

	recent, err := svc.RecentActivity(context.Background(), activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Empty(t, recent)
}
