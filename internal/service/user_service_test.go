package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
)

func seedUser(t *testing.T, repo *mockUserRepo, username string) {
	t.Helper()

	user := domain.NewUser(username, "$2a$10$hash", username+"@example.com", "Test", "User")
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %q: %v", username, err)
	}
}

func TestUserService_GetProfile(t *testing.T) {
	users := newMockUserRepo()
	notes := newMockNoteRepo()
	svc := NewUserService(users, notes, nil, zerolog.Nop())
	ctx := context.Background()

	seedUser(t, users, "alice")
	note := domain.NewNote("alice", "groceries", "milk, eggs")
	if err := notes.Create(ctx, note); err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}

	out, err := svc.GetProfile(ctx, GetProfileInput{
		Identity: auth.AuthenticatedAs("alice"),
		Username: "alice",
	})
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}

	if out.User.Username != "alice" {
		t.Errorf("Username = %q, want %q", out.User.Username, "alice")
	}
	if len(out.Notes) != 1 {
		t.Errorf("len(Notes) = %d, want 1", len(out.Notes))
	}
}

func TestUserService_GetProfileDenied(t *testing.T) {
	tests := []struct {
		name     string
		identity auth.Identity
		username string
	}{
		{name: "anonymous", identity: auth.Anonymous(), username: "alice"},
		{name: "other user", identity: auth.AuthenticatedAs("bob"), username: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserRepo()
			svc := NewUserService(users, newMockNoteRepo(), nil, zerolog.Nop())

			seedUser(t, users, "alice")

			_, err := svc.GetProfile(context.Background(), GetProfileInput{
				Identity: tt.identity,
				Username: tt.username,
			})
			if !errors.Is(err, domain.ErrAccessDenied) {
				t.Errorf("GetProfile() error = %v, want ErrAccessDenied", err)
			}
		})
	}
}

func TestUserService_DeleteAccount(t *testing.T) {
	users := newMockUserRepo()
	notes := newMockNoteRepo()
	svc := NewUserService(users, notes, nil, zerolog.Nop())
	ctx := context.Background()

	seedUser(t, users, "alice")

	err := svc.DeleteAccount(ctx, DeleteAccountInput{
		Identity: auth.AuthenticatedAs("alice"),
		Username: "alice",
	})
	if err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	if _, err := users.GetByUsername(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetByUsername() after delete error = %v, want ErrUserNotFound", err)
	}
}

func TestUserService_DeleteAccountDenied(t *testing.T) {
	tests := []struct {
		name     string
		identity auth.Identity
	}{
		{name: "anonymous", identity: auth.Anonymous()},
		{name: "other user", identity: auth.AuthenticatedAs("bob")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newMockUserRepo()
			svc := NewUserService(users, newMockNoteRepo(), nil, zerolog.Nop())
			ctx := context.Background()

			seedUser(t, users, "alice")

			err := svc.DeleteAccount(ctx, DeleteAccountInput{
				Identity: tt.identity,
				Username: "alice",
			})
			if !errors.Is(err, domain.ErrAccessDenied) {
				t.Errorf("DeleteAccount() error = %v, want ErrAccessDenied", err)
			}

			// The account must be untouched after a denial.
			if _, err := users.GetByUsername(ctx, "alice"); err != nil {
				t.Errorf("user disappeared after denied delete: %v", err)
			}
		})
	}
}

func TestUserService_ListUsers(t *testing.T) {
	users := newMockUserRepo()
	svc := NewUserService(users, newMockNoteRepo(), nil, zerolog.Nop())

	seedUser(t, users, "alice")
	seedUser(t, users, "bob")

	out, err := svc.ListUsers(context.Background(), ListUsersInput{})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if out.Total != 2 {
		t.Errorf("Total = %d, want 2", out.Total)
	}
}
