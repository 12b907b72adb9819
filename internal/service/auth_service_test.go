package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/pkg/crypto"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Password:  "correct horse battery",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	}
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	out, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if out.User.Username != "alice" {
		t.Errorf("Username = %q, want %q", out.User.Username, "alice")
	}
	if out.User.PasswordHash == "" {
		t.Error("PasswordHash is empty")
	}
	if out.User.PasswordHash == "correct horse battery" {
		t.Error("password stored in plaintext")
	}
	if !crypto.VerifyPassword(out.User.PasswordHash, "correct horse battery") {
		t.Error("stored hash does not verify against the password")
	}
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	// Same username, different everything else.
	input := validRegisterInput()
	input.Password = "a completely different pw"
	input.Email = "other@example.com"

	_, err := svc.Register(ctx, input)
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Errorf("second Register() error = %v, want ErrDuplicateUsername", err)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegisterInput)
		wantErr error
	}{
		{
			name:    "empty username",
			mutate:  func(in *RegisterInput) { in.Username = "" },
			wantErr: ErrUsernameRequired,
		},
		{
			name:    "username too long",
			mutate:  func(in *RegisterInput) { in.Username = strings.Repeat("a", MaxUsernameLength+1) },
			wantErr: ErrUsernameTooLong,
		},
		{
			name:    "username with spaces",
			mutate:  func(in *RegisterInput) { in.Username = "al ice" },
			wantErr: ErrUsernameInvalid,
		},
		{
			name:    "empty password",
			mutate:  func(in *RegisterInput) { in.Password = "" },
			wantErr: ErrPasswordRequired,
		},
		{
			name:    "password too short",
			mutate:  func(in *RegisterInput) { in.Password = "short" },
			wantErr: ErrPasswordTooShort,
		},
		{
			name:    "password too long",
			mutate:  func(in *RegisterInput) { in.Password = strings.Repeat("a", MaxPasswordLength+1) },
			wantErr: ErrPasswordTooLong,
		},
		{
			name:    "empty email",
			mutate:  func(in *RegisterInput) { in.Email = "" },
			wantErr: ErrEmailRequired,
		},
		{
			name:    "email too long",
			mutate:  func(in *RegisterInput) { in.Email = strings.Repeat("a", MaxEmailLength) + "@example.com" },
			wantErr: ErrEmailTooLong,
		},
		{
			name:    "email without at sign",
			mutate:  func(in *RegisterInput) { in.Email = "alice.example.com" },
			wantErr: ErrEmailInvalid,
		},
		{
			name:    "email without domain dot",
			mutate:  func(in *RegisterInput) { in.Email = "alice@example" },
			wantErr: ErrEmailInvalid,
		},
		{
			name:    "first name too long",
			mutate:  func(in *RegisterInput) { in.FirstName = strings.Repeat("a", MaxNameLength+1) },
			wantErr: ErrNameTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(newMockUserRepo(), nil, zerolog.Nop())

			input := validRegisterInput()
			tt.mutate(&input)

			_, err := svc.Register(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	out, err := svc.Authenticate(ctx, AuthenticateInput{
		Username: "alice",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if out.User.Username != "alice" {
		t.Errorf("Username = %q, want %q", out.User.Username, "alice")
	}
}

func TestAuthService_AuthenticateFailuresIndistinguishable(t *testing.T) {
	// Wrong password, unknown user and an integrity fault must all come
	// back as the same error so callers cannot probe for usernames.
	tests := []struct {
		name          string
		username      string
		password      string
		duplicateRows bool
	}{
		{name: "wrong password", username: "alice", password: "not the password"},
		{name: "unknown username", username: "nobody", password: "correct horse battery"},
		{name: "empty username", username: "", password: "correct horse battery"},
		{name: "empty password", username: "alice", password: ""},
		{name: "integrity fault", username: "alice", password: "correct horse battery", duplicateRows: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockUserRepo()
			svc := NewAuthService(repo, nil, zerolog.Nop())
			ctx := context.Background()

			if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			repo.duplicateRows = tt.duplicateRows

			_, err := svc.Authenticate(ctx, AuthenticateInput{
				Username: tt.username,
				Password: tt.password,
			})
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
			}
			if err != nil && err.Error() != domain.ErrInvalidCredentials.Error() {
				t.Errorf("Authenticate() error message %q leaks detail beyond %q",
					err.Error(), domain.ErrInvalidCredentials.Error())
			}
		})
	}
}

func TestAuthService_AuthenticateRepoFailure(t *testing.T) {
	repo := newMockUserRepo()
	repo.failWith = errors.New("connection refused")
	svc := NewAuthService(repo, nil, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), AuthenticateInput{
		Username: "alice",
		Password: "correct horse battery",
	})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
	}
}
