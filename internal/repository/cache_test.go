package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// fakeCache is a map-backed Cache for tests.
type fakeCache struct {
	items  map[string][]byte
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if data, ok := c.items[key]; ok {
		return data, nil
	}
	return nil, ErrCacheMiss
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.items[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.items, key)
	return nil
}

// countingRepo records how often each method hits the underlying store.
type countingRepo struct {
	users    map[string]*domain.User
	getCalls int
}

func newCountingRepo(users ...*domain.User) *countingRepo {
	r := &countingRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.Username] = u
	}
	return r
}

func (r *countingRepo) Create(ctx context.Context, user *domain.User) error {
	if _, exists := r.users[user.Username]; exists {
		return ErrDuplicateKey
	}
	user.ID = int64(len(r.users) + 1)
	r.users[user.Username] = user
	return nil
}

func (r *countingRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *countingRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.getCalls++
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (r *countingRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := r.users[username]
	return ok, nil
}

func (r *countingRepo) List(ctx context.Context, opts ListOptions) ([]*domain.User, error) {
	var users []*domain.User
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func testUser(id int64, username string) *domain.User {
	return &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: []byte("hash"),
		PasswordSalt: []byte("salt"),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestCachedUserRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	inner := newCountingRepo(testUser(1, "alice"))
	cache := newFakeCache()
	repo := NewCachedUserRepository(inner, cache, time.Minute, zerolog.Nop())

	first, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if inner.getCalls != 1 {
		t.Fatalf("expected 1 store lookup, got %d", inner.getCalls)
	}

	// A second lookup is served from cache.
	second, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if inner.getCalls != 1 {
		t.Fatalf("expected cached hit, store lookups = %d", inner.getCalls)
	}
	if second.ID != first.ID || second.Username != first.Username {
		t.Fatalf("cached user = %+v, want %+v", second, first)
	}
	if string(second.PasswordHash) != string(first.PasswordHash) ||
		string(second.PasswordSalt) != string(first.PasswordSalt) {
		t.Fatal("cached credentials do not match stored credentials")
	}
}

func TestCachedUserRepository_NotFoundNotCached(t *testing.T) {
	ctx := context.Background()
	inner := newCountingRepo()
	cache := newFakeCache()
	repo := NewCachedUserRepository(inner, cache, time.Minute, zerolog.Nop())

	if _, err := repo.GetByUsername(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByUsername() error = %v, want ErrNotFound", err)
	}
	if len(cache.items) != 0 {
		t.Fatal("negative result must not be cached")
	}
}

func TestCachedUserRepository_CreatePrimesCache(t *testing.T) {
	ctx := context.Background()
	inner := newCountingRepo()
	cache := newFakeCache()
	repo := NewCachedUserRepository(inner, cache, time.Minute, zerolog.Nop())

	user := testUser(0, "bob")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The login right after registration should not touch the store.
	if _, err := repo.GetByUsername(ctx, "bob"); err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if inner.getCalls != 0 {
		t.Fatalf("expected cache-primed lookup, store lookups = %d", inner.getCalls)
	}

	exists, err := repo.ExistsByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("ExistsByUsername() error = %v", err)
	}
	if !exists {
		t.Fatal("expected cached record to count as existing")
	}
}

func TestCachedUserRepository_WrappedMissIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	inner := newCountingRepo(testUser(1, "alice"))
	cache := newFakeCache()
	cache.getErr = fmt.Errorf("lookup: %w", ErrCacheMiss)

	var buf bytes.Buffer
	repo := NewCachedUserRepository(inner, cache, time.Minute, zerolog.New(&buf))

	if _, err := repo.GetByUsername(ctx, "alice"); err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if strings.Contains(buf.String(), "cache get failed") {
		t.Fatalf("wrapped cache miss logged as failure: %s", buf.String())
	}
}

func TestCachedUserRepository_DegradesOnCacheFailure(t *testing.T) {
	ctx := context.Background()
	inner := newCountingRepo(testUser(1, "alice"))
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	repo := NewCachedUserRepository(inner, cache, time.Minute, zerolog.Nop())

	user, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("user.ID = %d, want 1", user.ID)
	}
	if inner.getCalls != 1 {
		t.Fatalf("expected store fallback, lookups = %d", inner.getCalls)
	}
}
