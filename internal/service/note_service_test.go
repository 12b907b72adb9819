package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/repository"
)

func newNoteService(notes *mockNoteRepo, locks *mockLock) *NoteService {
	return NewNoteService(notes, locks, nil, zerolog.Nop())
}

func seedNote(t *testing.T, repo *mockNoteRepo, owner, title string) *domain.Note {
	t.Helper()

	note := domain.NewNote(owner, title, "content of "+title)
	if err := repo.Create(context.Background(), note); err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}
	return note
}

func TestNoteService_CreateNote(t *testing.T) {
	notes := newMockNoteRepo()
	svc := newNoteService(notes, newMockLock())

	out, err := svc.CreateNote(context.Background(), CreateNoteInput{
		Identity: auth.AuthenticatedAs("alice"),
		Title:    "groceries",
		Content:  "milk, eggs",
	})
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}

	if out.Note.ID == 0 {
		t.Error("Note.ID not assigned")
	}
	if out.Note.OwnerUsername != "alice" {
		t.Errorf("OwnerUsername = %q, want %q", out.Note.OwnerUsername, "alice")
	}
}

func TestNoteService_CreateNoteValidation(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr error
	}{
		{name: "empty title", title: "", wantErr: domain.ErrNoteTitleEmpty},
		{name: "title too long", title: strings.Repeat("x", domain.MaxNoteTitleLength+1), wantErr: domain.ErrNoteTitleTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newNoteService(newMockNoteRepo(), newMockLock())

			_, err := svc.CreateNote(context.Background(), CreateNoteInput{
				Identity: auth.AuthenticatedAs("alice"),
				Title:    tt.title,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateNote() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNoteService_CreateNoteAnonymous(t *testing.T) {
	svc := newNoteService(newMockNoteRepo(), newMockLock())

	_, err := svc.CreateNote(context.Background(), CreateNoteInput{
		Identity: auth.Anonymous(),
		Title:    "groceries",
	})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("CreateNote() error = %v, want ErrAccessDenied", err)
	}
}

func TestNoteService_GetNote(t *testing.T) {
	notes := newMockNoteRepo()
	svc := newNoteService(notes, newMockLock())
	note := seedNote(t, notes, "alice", "groceries")

	tests := []struct {
		name     string
		identity auth.Identity
		noteID   int64
		wantErr  error
	}{
		{name: "owner", identity: auth.AuthenticatedAs("alice"), noteID: note.ID},
		{name: "non-owner", identity: auth.AuthenticatedAs("bob"), noteID: note.ID, wantErr: domain.ErrAccessDenied},
		{name: "anonymous", identity: auth.Anonymous(), noteID: note.ID, wantErr: domain.ErrAccessDenied},
		{name: "missing note", identity: auth.AuthenticatedAs("alice"), noteID: 999, wantErr: domain.ErrNoteNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.GetNote(context.Background(), GetNoteInput{
				Identity: tt.identity,
				NoteID:   tt.noteID,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetNote() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetNote() error = %v", err)
			}
			if out.Note.Title != "groceries" {
				t.Errorf("Title = %q, want %q", out.Note.Title, "groceries")
			}
		})
	}
}

func TestNoteService_ListNotes(t *testing.T) {
	notes := newMockNoteRepo()
	svc := newNoteService(notes, newMockLock())
	ctx := context.Background()

	seedNote(t, notes, "alice", "one")
	seedNote(t, notes, "alice", "two")
	seedNote(t, notes, "bob", "three")

	out, err := svc.ListNotes(ctx, ListNotesInput{Identity: auth.AuthenticatedAs("alice")})
	if err != nil {
		t.Fatalf("ListNotes() error = %v", err)
	}
	if len(out.Notes) != 2 {
		t.Errorf("len(Notes) = %d, want 2", len(out.Notes))
	}
	for _, n := range out.Notes {
		if n.OwnerUsername != "alice" {
			t.Errorf("listed note owned by %q", n.OwnerUsername)
		}
	}

	_, err = svc.ListNotes(ctx, ListNotesInput{Identity: auth.Anonymous()})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("ListNotes() anonymous error = %v, want ErrAccessDenied", err)
	}
}

func TestNoteService_UpdateNote(t *testing.T) {
	notes := newMockNoteRepo()
	locks := newMockLock()
	svc := newNoteService(notes, locks)
	ctx := context.Background()
	note := seedNote(t, notes, "alice", "groceries")

	out, err := svc.UpdateNote(ctx, UpdateNoteInput{
		Identity: auth.AuthenticatedAs("alice"),
		NoteID:   note.ID,
		Title:    "groceries v2",
		Content:  "milk, eggs, bread",
	})
	if err != nil {
		t.Fatalf("UpdateNote() error = %v", err)
	}
	if out.Note.Title != "groceries v2" {
		t.Errorf("Title = %q, want %q", out.Note.Title, "groceries v2")
	}

	if locks.acquires != 1 || locks.releases != 1 {
		t.Errorf("lock acquires/releases = %d/%d, want 1/1", locks.acquires, locks.releases)
	}

	stored, err := notes.GetByID(ctx, note.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Content != "milk, eggs, bread" {
		t.Errorf("stored content = %q", stored.Content)
	}
}

func TestNoteService_UpdateNoteDenied(t *testing.T) {
	notes := newMockNoteRepo()
	locks := newMockLock()
	svc := newNoteService(notes, locks)
	ctx := context.Background()
	note := seedNote(t, notes, "alice", "groceries")

	_, err := svc.UpdateNote(ctx, UpdateNoteInput{
		Identity: auth.AuthenticatedAs("bob"),
		NoteID:   note.ID,
		Title:    "hijacked",
	})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("UpdateNote() error = %v, want ErrAccessDenied", err)
	}

	// The lock must be released even on denial.
	if locks.releases != locks.acquires {
		t.Errorf("lock leaked: acquires = %d, releases = %d", locks.acquires, locks.releases)
	}

	stored, err := notes.GetByID(ctx, note.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Title != "groceries" {
		t.Errorf("note mutated after denied update: title = %q", stored.Title)
	}
}

func TestNoteService_UpdateNoteLockContention(t *testing.T) {
	notes := newMockNoteRepo()
	locks := newMockLock()
	svc := newNoteService(notes, locks)
	note := seedNote(t, notes, "alice", "groceries")

	locks.denyNext = true

	_, err := svc.UpdateNote(context.Background(), UpdateNoteInput{
		Identity: auth.AuthenticatedAs("alice"),
		NoteID:   note.ID,
		Title:    "groceries v2",
	})
	if !errors.Is(err, repository.ErrLockNotAcquired) {
		t.Errorf("UpdateNote() error = %v, want ErrLockNotAcquired", err)
	}
}

func TestNoteService_DeleteNote(t *testing.T) {
	notes := newMockNoteRepo()
	svc := newNoteService(notes, newMockLock())
	ctx := context.Background()
	note := seedNote(t, notes, "alice", "groceries")

	if err := svc.DeleteNote(ctx, DeleteNoteInput{
		Identity: auth.AuthenticatedAs("bob"),
		NoteID:   note.ID,
	}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("DeleteNote() by non-owner error = %v, want ErrAccessDenied", err)
	}

	if err := svc.DeleteNote(ctx, DeleteNoteInput{
		Identity: auth.AuthenticatedAs("alice"),
		NoteID:   note.ID,
	}); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}

	if _, err := notes.GetByID(ctx, note.ID); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNoteNotFound", err)
	}
}
