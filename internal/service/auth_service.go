package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gatekeep/gatekeep/internal/domain"
	"github.com/gatekeep/gatekeep/internal/pkg/crypto"
	"github.com/gatekeep/gatekeep/internal/repository"
)

// AuthService orchestrates registration and credential verification.
type AuthService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		logger: logger.With().Str("service", "auth").Logger(),
	}
}

// RegisterInput contains the data needed to register a user.
type RegisterInput struct {
	Username string
	Password string
}

// RegisterOutput contains the result of a registration.
// It deliberately carries no token: a just-registered user still logs in
// explicitly.
type RegisterOutput struct {
	UserID   int64
	Username string
}

// Register creates a new user account. The username is case-folded before
// any check or write, so "Alice" and "alice" are the same account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	username := domain.NormalizeUsername(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to check username existence")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}

	hash, salt, err := crypto.HashPassword(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.NewUser(username, hash, salt)

	if err := s.users.Create(ctx, user); err != nil {
		// The pre-check above is a best-effort optimization; the unique
		// index is the source of truth under concurrent registrations.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, domain.ErrUsernameTaken
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user registered")

	return &RegisterOutput{UserID: user.ID, Username: user.Username}, nil
}

// Login verifies credentials and returns the verified identity.
// An unknown username and a wrong password both return
// domain.ErrInvalidCredentials so responses do not reveal which usernames
// exist.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	username = domain.NormalizeUsername(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Str("username", username).Msg("user not found during login")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !crypto.VerifyPassword(password, user.PasswordHash, user.PasswordSalt) {
		s.logger.Debug().Str("username", username).Msg("invalid password during login")
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user authenticated")

	return &domain.Identity{ID: user.ID, Username: user.Username}, nil
}

// GetByID retrieves a user by ID. Used by the authenticated /me endpoint
// and the admin CLI.
func (s *AuthService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return user, nil
}

// List returns registered users, newest first.
func (s *AuthService) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	users, err := s.users.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return users, nil
}
