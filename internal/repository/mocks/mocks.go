package mocks

import (
	"context"

	"github.com/rpggio/uploadtrack/internal/domain/activity"
	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/repository"
	"github.com/stretchr/testify/mock"
)

// DocumentRepository is a mock for repository.DocumentRepository.
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Upsert(ctx context.Context, rec document.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *DocumentRepository) Get(ctx context.Context, id string) (*document.Record, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*document.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) List(ctx context.Context, opts repository.ListDocumentsOptions) ([]document.Record, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]document.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
