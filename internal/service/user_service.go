package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
	"github.com/halverson/notevault/internal/metrics"
	"github.com/halverson/notevault/internal/repository"
)

// UserService handles account operations gated by the self check:
// a user may only view and delete their own account.
type UserService struct {
	users   repository.UserRepository
	notes   repository.NoteRepository
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, notes repository.NoteRepository, m *metrics.Metrics, logger zerolog.Logger) *UserService {
	return &UserService{
		users:   users,
		notes:   notes,
		metrics: m,
		logger:  logger.With().Str("service", "user").Logger(),
	}
}

// GetProfileInput contains parameters for fetching a user profile.
type GetProfileInput struct {
	Identity auth.Identity
	Username string
}

// GetProfileOutput contains the profile and the user's notes.
type GetProfileOutput struct {
	User  *domain.User
	Notes []*domain.Note
}

// GetProfile returns a user's profile page data: the account plus all of
// their notes. Only the account holder may view it.
// Returns domain.ErrAccessDenied on any gate denial.
func (s *UserService) GetProfile(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	if d := auth.CheckSelf(input.Identity, input.Username); !d.Allowed() {
		s.recordDecision("self", d)
		s.logger.Warn().
			Str("identity", input.Identity.String()).
			Str("username", input.Username).
			Msg("Profile access denied")
		return nil, domain.ErrAccessDenied
	}
	s.recordDecision("self", auth.Allow)

	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	notes, err := s.notes.ListByOwner(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &GetProfileOutput{User: user, Notes: notes}, nil
}

// DeleteAccountInput contains parameters for account deletion.
type DeleteAccountInput struct {
	Identity auth.Identity
	Username string
}

// DeleteAccount removes a user account together with all of their notes
// and attachment records in one transaction. Only the account holder may
// delete it. Orphaned attachment blobs are reclaimed by the garbage
// collector.
// Returns domain.ErrAccessDenied on any gate denial.
func (s *UserService) DeleteAccount(ctx context.Context, input DeleteAccountInput) error {
	if d := auth.CheckSelf(input.Identity, input.Username); !d.Allowed() {
		s.recordDecision("self", d)
		s.logger.Warn().
			Str("identity", input.Identity.String()).
			Str("username", input.Username).
			Msg("Account deletion denied")
		return domain.ErrAccessDenied
	}
	s.recordDecision("self", auth.Allow)

	if err := s.users.Delete(ctx, input.Username); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.metrics != nil {
		s.metrics.AccountDeletesTotal.Inc()
	}

	s.logger.Info().
		Str("username", input.Username).
		Msg("Account deleted")

	return nil
}

// ListUsersInput contains parameters for listing users.
type ListUsersInput struct {
	Offset int
	Limit  int
}

// ListUsersOutput contains the paginated user list.
type ListUsersOutput struct {
	Users  []*domain.User
	Total  int64
	Offset int
	Limit  int
}

// ListUsers returns all users with pagination. This is an administrative
// operation and is not exposed over HTTP.
func (s *UserService) ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 100
	}

	result, err := s.users.List(ctx, repository.ListOptions{
		Offset: input.Offset,
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListUsersOutput{
		Users:  result.Items,
		Total:  result.Total,
		Offset: result.Offset,
		Limit:  result.Limit,
	}, nil
}

func (s *UserService) recordDecision(check string, d auth.Decision) {
	if s.metrics != nil {
		s.metrics.RecordAuthzDecision(check, d.String())
	}
}
