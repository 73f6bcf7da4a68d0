package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/uploadtrack/internal/domain/document"
	"github.com/rpggio/uploadtrack/internal/repository"
)

// DocumentRepository implements repository.DocumentRepository for SQLite
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `
	id, name, size_bytes, mime_type, status, progress_percent,
	subject, error_detail, registered_at, completed_at
`

// Upsert stores the latest snapshot of a document
func (r *DocumentRepository) Upsert(ctx context.Context, rec document.Record) error {
	query := `
		INSERT INTO documents (` + documentColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			progress_percent = excluded.progress_percent,
			subject = excluded.subject,
			error_detail = excluded.error_detail,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at
	`

	var completedAt sql.NullTime
	if rec.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *rec.CompletedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Name,
		rec.SizeBytes,
		rec.MIMEType,
		rec.Status,
		rec.ProgressPercent,
		rec.Subject,
		rec.ErrorDetail,
		rec.RegisteredAt,
		completedAt,
		time.Now(),
	)
	if err != nil {
		if isCheckViolation(err) {
			return repository.ErrInvalidInput
		}
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// Get retrieves a document snapshot by ID
func (r *DocumentRepository) Get(ctx context.Context, id string) (*document.Record, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	rec, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return rec, nil
}

// List returns document snapshots in registration order
func (r *DocumentRepository) List(ctx context.Context, opts repository.ListDocumentsOptions) ([]document.Record, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`

	var args []any
	if len(opts.Statuses) > 0 {
		placeholders := make([]string, len(opts.Statuses))
		for i, status := range opts.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}

	query += " ORDER BY registered_at ASC, id ASC"
	query, args = appendPaging(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var records []document.Record
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return records, nil
}

// Delete removes a document snapshot
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*document.Record, error) {
	var rec document.Record
	var completedAt sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.SizeBytes,
		&rec.MIMEType,
		&rec.Status,
		&rec.ProgressPercent,
		&rec.Subject,
		&rec.ErrorDetail,
		&rec.RegisteredAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}
