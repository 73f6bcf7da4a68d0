package activity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		DocumentID:   "doc1",
		ActivityType: activity.TypeDocumentRegistered,
		Status:       "queued",
		Summary:      "registered notes.pdf",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListActivityOptions{Limit: 10}).Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_LogValidation(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	require.ErrorIs(t, svc.LogActivity(context.Background(), nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(context.Background(), &activity.ActivityEntry{}), activity.ErrInvalidInput)
}

func TestActivityService_DocumentHistory(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, mock.MatchedBy(func(opts activity.ListActivityOptions) bool {
		return opts.DocumentID != nil && *opts.DocumentID == "doc1" && opts.Limit == 5
	})).Return(nil, errors.New("db closed"))

	svc := activity.NewService(repo, nil)
	_, err := svc.GetDocumentHistory(ctx, "doc1", 5)
	require.ErrorContains(t, err, "db closed")

	_, err = svc.GetDocumentHistory(ctx, "", 5)
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}
