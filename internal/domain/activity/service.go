package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.DocumentID == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	return s.repo.List(ctx, opts)
}

// GetDocumentHistory lists activity for one document, newest first.
func (s *Service) GetDocumentHistory(ctx context.Context, documentID string, limit int) ([]ActivityEntry, error) {
	if documentID == "" {
		return nil, ErrInvalidInput
	}
	entries, err := s.repo.List(ctx, ListActivityOptions{DocumentID: &documentID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing document history: %w", err)
	}
	return entries, nil
}
