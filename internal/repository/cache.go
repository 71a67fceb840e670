package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// Cache defines the interface for caching operations.
// Implemented by Redis for multi-instance deployments and by an in-memory
// cache for single-node ones.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}

// cachedUser is the serialized form of a cached user record.
// Hash and salt are included so a cached hit can serve credential
// verification without touching the database.
type cachedUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"password_hash"`
	PasswordSalt []byte    `json:"password_salt"`
	CreatedAt    time.Time `json:"created_at"`
}

// CachedUserRepository wraps a UserRepository with a read-through cache for
// username lookups. User records are immutable once created, so the only
// staleness window is the TTL itself. Cache failures degrade to the
// underlying repository; they are logged, never surfaced.
type CachedUserRepository struct {
	inner  UserRepository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedUserRepository creates a caching decorator around repo.
func NewCachedUserRepository(repo UserRepository, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		inner:  repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "user_cache").Logger(),
	}
}

func cacheKey(username string) string {
	return "user:name:" + username
}

// Create passes through to the underlying repository and primes the cache
// on success so a login right after registration is served from cache.
func (r *CachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.inner.Create(ctx, user); err != nil {
		return err
	}
	r.store(ctx, user)
	return nil
}

// GetByID is not cached; it is only used by the admin surface.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.inner.GetByID(ctx, id)
}

// GetByUsername returns the cached record if present, falling back to the
// underlying repository and caching the result.
func (r *CachedUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if data, err := r.cache.Get(ctx, cacheKey(username)); err == nil {
		var cu cachedUser
		if err := json.Unmarshal(data, &cu); err == nil {
			return &domain.User{
				ID:           cu.ID,
				Username:     cu.Username,
				PasswordHash: cu.PasswordHash,
				PasswordSalt: cu.PasswordSalt,
				CreatedAt:    cu.CreatedAt,
			}, nil
		}
		// Unreadable entry: drop it and fall through.
		_ = r.cache.Delete(ctx, cacheKey(username))
	} else if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn().Err(err).Msg("cache get failed")
	}

	user, err := r.inner.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

// ExistsByUsername treats a cached record as proof of existence and falls
// back to the repository otherwise. Negative results are not cached.
func (r *CachedUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if _, err := r.cache.Get(ctx, cacheKey(username)); err == nil {
		return true, nil
	}
	return r.inner.ExistsByUsername(ctx, username)
}

// List is not cached.
func (r *CachedUserRepository) List(ctx context.Context, opts ListOptions) ([]*domain.User, error) {
	return r.inner.List(ctx, opts)
}

func (r *CachedUserRepository) store(ctx context.Context, user *domain.User) {
	data, err := json.Marshal(cachedUser{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		PasswordSalt: user.PasswordSalt,
		CreatedAt:    user.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(user.Username), data, r.ttl); err != nil {
		r.logger.Warn().Err(err).Msg("cache set failed")
	}
}

// Ensure CachedUserRepository implements UserRepository.
var _ UserRepository = (*CachedUserRepository)(nil)
