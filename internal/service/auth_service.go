package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/metrics"
	"github.com/halverson/notevault/internal/pkg/crypto"
	"github.com/halverson/notevault/internal/repository"
)

// dummyHash is a valid bcrypt hash of an unguessable value. Authenticate
// verifies against it when the username is unknown so that known and
// unknown usernames take the same time to reject.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService handles registration and credential verification.
type AuthService struct {
	users   repository.UserRepository
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, m *metrics.Metrics, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:   users,
		metrics: m,
		logger:  logger.With().Str("service", "auth").Logger(),
	}
}

// RegisterInput contains parameters for user registration.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// RegisterOutput contains the result of user registration.
type RegisterOutput struct {
	User *domain.User
}

// Register creates a new user account.
// The password is hashed before it touches the repository; registration
// does not establish a session.
// Returns domain.ErrDuplicateUsername if the username is taken.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if err := validateRegisterInput(&input); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	user := domain.NewUser(input.Username, hash, input.Email, input.FirstName, input.LastName)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			s.logger.Info().
				Str("username", input.Username).
				Msg("Registration rejected: username taken")
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}

	s.logger.Info().
		Str("username", user.Username).
		Msg("User registered")

	return &RegisterOutput{User: user}, nil
}

// AuthenticateInput contains login credentials.
type AuthenticateInput struct {
	Username string
	Password string
}

// AuthenticateOutput contains the authenticated user.
type AuthenticateOutput struct {
	User *domain.User
}

// Authenticate verifies a username/password pair.
// Every failure mode returns domain.ErrInvalidCredentials: an unknown
// username, a wrong password and an integrity fault are indistinguishable
// to the caller. Faults are logged for operators.
func (s *AuthService) Authenticate(ctx context.Context, input AuthenticateInput) (*AuthenticateOutput, error) {
	if input.Username == "" || input.Password == "" {
		s.recordLogin(false)
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			// Burn a hash comparison so the response time matches the
			// wrong-password path.
			crypto.VerifyPassword(dummyHash, input.Password)
		case errors.Is(err, domain.ErrIntegrityFault):
			s.logger.Error().
				Err(err).
				Str("username", input.Username).
				Msg("Integrity fault during authentication")
		default:
			s.logger.Error().
				Err(err).
				Msg("Failed to look up user during authentication")
		}
		s.recordLogin(false)
		return nil, domain.ErrInvalidCredentials
	}

	if !crypto.VerifyPassword(user.PasswordHash, input.Password) {
		s.logger.Info().
			Str("username", input.Username).
			Msg("Authentication failed")
		s.recordLogin(false)
		return nil, domain.ErrInvalidCredentials
	}

	s.recordLogin(true)

	s.logger.Info().
		Str("username", user.Username).
		Msg("User authenticated")

	return &AuthenticateOutput{User: user}, nil
}

func (s *AuthService) recordLogin(success bool) {
	if s.metrics != nil {
		s.metrics.RecordLogin(success)
	}
}

// validateRegisterInput checks registration fields against the limits.
func validateRegisterInput(input *RegisterInput) error {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Username == "" {
		return ErrUsernameRequired
	}
	if len(input.Username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	for _, c := range input.Username {
		if !isUsernameChar(c) {
			return ErrUsernameInvalid
		}
	}

	if input.Password == "" {
		return ErrPasswordRequired
	}
	if len(input.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(input.Password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	if input.Email == "" {
		return ErrEmailRequired
	}
	if len(input.Email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !isValidEmail(input.Email) {
		return ErrEmailInvalid
	}

	if len(input.FirstName) > MaxNameLength || len(input.LastName) > MaxNameLength {
		return ErrNameTooLong
	}

	return nil
}

func isUsernameChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '-' || c == '_':
		return true
	}
	return false
}

// isValidEmail does a minimal structural check: exactly one '@' with a
// non-empty local part and a domain containing a dot.
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	local, dom := email[:at], email[at+1:]
	if local == "" || dom == "" {
		return false
	}
	dot := strings.LastIndex(dom, ".")
	return dot > 0 && dot < len(dom)-1
}
