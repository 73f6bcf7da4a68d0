package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepository_UpsertGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewDocumentRepository(db)
	registered := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	rec := document.Record{
		ID:           "d1",
		Name:         "Calculus Chapter 3.pdf",
		SizeBytes:    2048576,
		MIMEType:     "application/pdf",
		Status:       document.StatusQueued,
		RegisteredAt: registered,
	}
	require.NoError(t, repo.Upsert(ctx, rec))

	loaded, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, rec.Name, loaded.Name)
	require.Equal(t, document.StatusQueued, loaded.Status)
	require.True(t, loaded.RegisteredAt.Equal(registered))
	require.Nil(t, loaded.CompletedAt)

	completed := registered.Add(3 * time.Second)
	rec.Status = document.StatusReady
	rec.ProgressPercent = 100
	rec.Subject = "Mathematics"
	rec.CompletedAt = &completed
	require.NoError(t, repo.Upsert(ctx, rec))

	loaded, err = repo.Get(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, document.StatusReady, loaded.Status)
	require.Equal(t, 100, loaded.ProgressPercent)
	require.Equal(t, "Mathematics", loaded.Subject)
	require.NotNil(t, loaded.CompletedAt)
	require.True(t, loaded.CompletedAt.Equal(completed))
}

func TestDocumentRepository_GetMissing(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), repository.ErrNotFound)
}

func TestDocumentRepository_InvalidStatus(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDocumentRepository(db)

	err := repo.Upsert(context.Background(), document.Record{
		ID:           "d1",
		Name:         "x.pdf",
		SizeBytes:    1,
		Status:       "processed",
		RegisteredAt: time.Now(),
	})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestDocumentRepository_ListFilterDelete(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewDocumentRepository(db)

	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	for i, status := range []document.Status{document.StatusReady, document.StatusProcessing, document.StatusFailed} {
		require.NoError(t, repo.Upsert(ctx, document.Record{
			ID:           []string{"d1", "d2", "d3"}[i],
			Name:         "file.pdf",
			SizeBytes:    10,
			Status:       status,
			RegisteredAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := repo.List(ctx, repository.ListDocumentsOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "d1", all[0].ID)
	require.Equal(t, "d3", all[2].ID)

	terminal, err := repo.List(ctx, repository.ListDocumentsOptions{
		Statuses: []document.Status{document.StatusReady, document.StatusFailed},
	})
	require.NoError(t, err)
	require.Len(t, terminal, 2)

	page, err := repo.List(ctx, repository.ListDocumentsOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "d2", page[0].ID)

	require.NoError(t, repo.Delete(ctx, "d2"))
	all, err = repo.List(ctx, repository.ListDocumentsOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
