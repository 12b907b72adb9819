package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/repository"
)

// noteRepository implements repository.NoteRepository for SQLite.
type noteRepository struct {
	db *DB
}

// NewNoteRepository creates a new SQLite note repository.
func NewNoteRepository(db *DB) repository.NoteRepository {
	return &noteRepository{db: db}
}

// Create creates a new note.
func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	query := `
		INSERT INTO notes (title, content, owner_username, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		note.Title,
		note.Content,
		note.OwnerUsername,
		note.CreatedAt.Format(time.RFC3339),
		note.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: owner %q", domain.ErrUserNotFound, note.OwnerUsername)
		}
		return fmt.Errorf("failed to create note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	note.ID = id

	return nil
}

// GetByID retrieves a note by ID.
func (r *noteRepository) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	query := `
		SELECT id, title, content, owner_username, created_at, updated_at
		FROM notes
		WHERE id = ?
	`

	note := &domain.Note{}
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.OwnerUsername,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note by ID: %w", err)
	}

	note.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	note.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return note, nil
}

// ListByOwner returns all notes owned by a user, newest first.
func (r *noteRepository) ListByOwner(ctx context.Context, ownerUsername string) ([]*domain.Note, error) {
	query := `
		SELECT id, title, content, owner_username, created_at, updated_at
		FROM notes
		WHERE owner_username = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		note := &domain.Note{}
		var createdAt, updatedAt string

		err := rows.Scan(
			&note.ID,
			&note.Title,
			&note.Content,
			&note.OwnerUsername,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}

		note.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		note.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}

// Update updates an existing note's title and content.
func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	note.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE notes
		SET title = ?, content = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		note.Title,
		note.Content,
		note.UpdatedAt.Format(time.RFC3339),
		note.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrNoteNotFound
	}

	return nil
}

// Delete deletes a note by ID.
func (r *noteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrNoteNotFound
	}

	return nil
}

// DeleteAllByOwner deletes all notes owned by a user.
func (r *noteRepository) DeleteAllByOwner(ctx context.Context, ownerUsername string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE owner_username = ?`, ownerUsername)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notes by owner: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// Ensure noteRepository implements repository.NoteRepository.
var _ repository.NoteRepository = (*noteRepository)(nil)
