// Package repository defines data access interfaces for Gatekeep.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// UserRepository defines the interface for user data access.
// Usernames passed to any method must already be normalized
// (domain.NormalizeUsername); repositories match them exactly.
type UserRepository interface {
	// Create persists a new user and assigns its ID.
	// Returns ErrDuplicateKey if the username is already taken. The unique
	// index on username is the source of truth under concurrent
	// registrations; callers must handle this error even after a
	// successful ExistsByUsername check.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by normalized username.
	// Returns ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// List returns users ordered by creation time, newest first.
	List(ctx context.Context, opts ListOptions) ([]*domain.User, error)
}

// ListOptions contains pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int
}
