package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/repository"
)

// attachmentRepository implements repository.AttachmentRepository for SQLite.
type attachmentRepository struct {
	db *DB
}

// NewAttachmentRepository creates a new SQLite attachment repository.
func NewAttachmentRepository(db *DB) repository.AttachmentRepository {
	return &attachmentRepository{db: db}
}

// Create creates a new attachment record.
func (r *attachmentRepository) Create(ctx context.Context, att *domain.Attachment) error {
	query := `
		INSERT INTO attachments (note_id, filename, size, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		att.NoteID,
		att.Filename,
		att.Size,
		att.ContentHash,
		att.CreatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: note %d", domain.ErrNoteNotFound, att.NoteID)
		}
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	att.ID = id

	return nil
}

// GetByID retrieves an attachment by ID.
func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	query := `
		SELECT id, note_id, filename, size, content_hash, created_at
		FROM attachments
		WHERE id = ?
	`

	att := &domain.Attachment{}
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&att.ID,
		&att.NoteID,
		&att.Filename,
		&att.Size,
		&att.ContentHash,
		&createdAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment by ID: %w", err)
	}

	att.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return att, nil
}

// ListByNote returns all attachments for a note.
func (r *attachmentRepository) ListByNote(ctx context.Context, noteID int64) ([]*domain.Attachment, error) {
	query := `
		SELECT id, note_id, filename, size, content_hash, created_at
		FROM attachments
		WHERE note_id = ?
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var atts []*domain.Attachment
	for rows.Next() {
		att := &domain.Attachment{}
		var createdAt string

		err := rows.Scan(
			&att.ID,
			&att.NoteID,
			&att.Filename,
			&att.Size,
			&att.ContentHash,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}

		att.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		atts = append(atts, att)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}

	return atts, nil
}

// Delete deletes an attachment by ID.
func (r *attachmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrAttachmentNotFound
	}

	return nil
}

// CountByContentHash returns how many attachments reference a content hash.
func (r *attachmentRepository) CountByContentHash(ctx context.Context, contentHash string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attachments WHERE content_hash = ?`, contentHash).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attachments by hash: %w", err)
	}
	return count, nil
}

// Ensure attachmentRepository implements repository.AttachmentRepository.
var _ repository.AttachmentRepository = (*attachmentRepository)(nil)
