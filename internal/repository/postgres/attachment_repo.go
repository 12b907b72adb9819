package postgres

import (
	"context"
	"fmt"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/repository"
)

// attachmentRepository implements repository.AttachmentRepository for PostgreSQL.
type attachmentRepository struct {
	db *DB
}

// NewAttachmentRepository creates a new PostgreSQL attachment repository.
func NewAttachmentRepository(db *DB) repository.AttachmentRepository {
	return &attachmentRepository{db: db}
}

// Create creates a new attachment record.
func (r *attachmentRepository) Create(ctx context.Context, att *domain.Attachment) error {
	query := `
		INSERT INTO attachments (note_id, filename, size, content_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		att.NoteID,
		att.Filename,
		att.Size,
		att.ContentHash,
		att.CreatedAt,
	).Scan(&att.ID)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: note %d", domain.ErrNoteNotFound, att.NoteID)
		}
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

// GetByID retrieves an attachment by ID.
func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	query := `
		SELECT id, note_id, filename, size, content_hash, created_at
		FROM attachments
		WHERE id = $1
	`

	att := &domain.Attachment{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&att.ID,
		&att.NoteID,
		&att.Filename,
		&att.Size,
		&att.ContentHash,
		&att.CreatedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment by ID: %w", err)
	}

	return att, nil
}

// ListByNote returns all attachments for a note.
func (r *attachmentRepository) ListByNote(ctx context.Context, noteID int64) ([]*domain.Attachment, error) {
	query := `
		SELECT id, note_id, filename, size, content_hash, created_at
		FROM attachments
		WHERE note_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var atts []*domain.Attachment
	for rows.Next() {
		att := &domain.Attachment{}
		err := rows.Scan(
			&att.ID,
			&att.NoteID,
			&att.Filename,
			&att.Size,
			&att.ContentHash,
			&att.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		atts = append(atts, att)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}

	return atts, nil
}

// Delete deletes an attachment by ID.
func (r *attachmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAttachmentNotFound
	}

	return nil
}

// CountByContentHash returns how many attachments reference a content hash.
func (r *attachmentRepository) CountByContentHash(ctx context.Context, contentHash string) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM attachments WHERE content_hash = $1`, contentHash).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attachments by hash: %w", err)
	}
	return count, nil
}

// Ensure attachmentRepository implements repository.AttachmentRepository.
var _ repository.AttachmentRepository = (*attachmentRepository)(nil)
