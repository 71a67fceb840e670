package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatekeep/gatekeep/internal/config"
	"github.com/gatekeep/gatekeep/internal/domain"
	"github.com/gatekeep/gatekeep/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "test.db"),
		JournalMode:     "WAL",
		BusyTimeout:     5000,
		SynchronousMode: "NORMAL",
	}

	db, err := NewDB(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	user := domain.NewUser("alice", []byte("hash"), []byte("salt"))
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != user.ID || got.Username != "alice" {
		t.Fatalf("got %+v, want id=%d username=alice", got, user.ID)
	}
	if string(got.PasswordHash) != "hash" || string(got.PasswordSalt) != "salt" {
		t.Fatal("stored credentials do not round-trip")
	}
	// created_at is stored at second precision.
	if !got.CreatedAt.Equal(user.CreatedAt.Truncate(time.Second)) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, user.CreatedAt.Truncate(time.Second))
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	if err := repo.Create(ctx, domain.NewUser("alice", []byte("h"), []byte("s"))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.Create(ctx, domain.NewUser("alice", []byte("h2"), []byte("s2")))
	if !errors.Is(err, repository.ErrDuplicateKey) {
		t.Fatalf("Create() error = %v, want ErrDuplicateKey", err)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	if _, err := repo.GetByUsername(ctx, "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByUsername() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, 42); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserRepository_CorruptTimestamp(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	// A row whose created_at doesn't parse must surface an error, not a
	// user with a zero timestamp.
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, password_salt, created_at) VALUES (?, ?, ?, ?)`,
		"mangled", []byte("h"), []byte("s"), "not-a-timestamp",
	)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := repo.GetByUsername(ctx, "mangled"); err == nil {
		t.Fatal("GetByUsername() = nil error for corrupt created_at")
	}
	if _, err := repo.List(ctx, repository.ListOptions{Limit: 10}); err == nil {
		t.Fatal("List() = nil error for corrupt created_at")
	}
}
