package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/repository"
)

// noteRepository implements repository.NoteRepository for PostgreSQL.
type noteRepository struct {
	db *DB
}

// NewNoteRepository creates a new PostgreSQL note repository.
func NewNoteRepository(db *DB) repository.NoteRepository {
	return &noteRepository{db: db}
}

// Create creates a new note.
func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	query := `
		INSERT INTO notes (title, content, owner_username, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		note.Title,
		note.Content,
		note.OwnerUsername,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: owner %q", domain.ErrUserNotFound, note.OwnerUsername)
		}
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// GetByID retrieves a note by ID.
func (r *noteRepository) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	query := `
		SELECT id, title, content, owner_username, created_at, updated_at
		FROM notes
		WHERE id = $1
	`

	note := &domain.Note{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.OwnerUsername,
		&note.CreatedAt,
		&note.UpdatedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note by ID: %w", err)
	}

	return note, nil
}

// ListByOwner returns all notes owned by a user, newest first.
func (r *noteRepository) ListByOwner(ctx context.Context, ownerUsername string) ([]*domain.Note, error) {
	query := `
		SELECT id, title, content, owner_username, created_at, updated_at
		FROM notes
		WHERE owner_username = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		note := &domain.Note{}
		err := rows.Scan(
			&note.ID,
			&note.Title,
			&note.Content,
			&note.OwnerUsername,
			&note.CreatedAt,
			&note.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
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
		SET title = $1, content = $2, updated_at = $3
		WHERE id = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		note.Title,
		note.Content,
		note.UpdatedAt,
		note.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}

	return nil
}

// Delete deletes a note by ID.
func (r *noteRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}

	return nil
}

// DeleteAllByOwner deletes all notes owned by a user.
func (r *noteRepository) DeleteAllByOwner(ctx context.Context, ownerUsername string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM notes WHERE owner_username = $1`, ownerUsername)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notes by owner: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Ensure noteRepository implements repository.NoteRepository.
var _ repository.NoteRepository = (*noteRepository)(nil)
