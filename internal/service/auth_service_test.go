package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gatekeep/gatekeep/internal/domain"
	"github.com/gatekeep/gatekeep/internal/pkg/crypto"
	"github.com/gatekeep/gatekeep/internal/repository"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	users     map[string]*domain.User
	nextID    int64
	createErr error
	getErr    error
	existsErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[string]*domain.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Username]; exists {
		return repository.ErrDuplicateKey
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.Username] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, exists := m.users[username]; exists {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, exists := m.users[username]
	return exists, nil
}

func (m *MockUserRepository) List(ctx context.Context, opts repository.ListOptions) ([]*domain.User, error) {
	var result []*domain.User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

// mustRegister seeds a user through the real registration path.
func mustRegister(t *testing.T, svc *AuthService, username, password string) *RegisterOutput {
	t.Helper()
	out, err := svc.Register(context.Background(), RegisterInput{Username: username, Password: password})
	if err != nil {
		t.Fatalf("Register(%q) error: %v", username, err)
	}
	return out
}

func newTestAuthService() (*AuthService, *MockUserRepository) {
	repo := NewMockUserRepository()
	return NewAuthService(repo, zerolog.Nop()), repo
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name      string
		input     RegisterInput
		wantErr   error
		setupRepo func(*MockUserRepository)
	}{
		{
			name:    "success",
			input:   RegisterInput{Username: "alice", Password: "pass1234"},
			wantErr: nil,
		},
		{
			name:    "username is normalized",
			input:   RegisterInput{Username: "  Alice  ", Password: "pass1234"},
			wantErr: nil,
		},
		{
			name:    "empty username",
			input:   RegisterInput{Username: "", Password: "pass1234"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "empty password",
			input:   RegisterInput{Username: "alice", Password: ""},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "username taken",
			input:   RegisterInput{Username: "bob", Password: "other"},
			wantErr: domain.ErrUsernameTaken,
			setupRepo: func(m *MockUserRepository) {
				m.users["bob"] = &domain.User{ID: 1, Username: "bob"}
			},
		},
		{
			name:    "username taken case-insensitively",
			input:   RegisterInput{Username: "BOB", Password: "other"},
			wantErr: domain.ErrUsernameTaken,
			setupRepo: func(m *MockUserRepository) {
				m.users["bob"] = &domain.User{ID: 1, Username: "bob"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockUserRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			svc := NewAuthService(repo, zerolog.Nop())

			output, err := svc.Register(context.Background(), tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if output.UserID == 0 {
				t.Error("expected assigned user ID")
			}
			if output.Username != domain.NormalizeUsername(tt.input.Username) {
				t.Errorf("expected normalized username %q, got %q",
					domain.NormalizeUsername(tt.input.Username), output.Username)
			}

			stored, ok := repo.users[output.Username]
			if !ok {
				t.Fatalf("user %q not persisted", output.Username)
			}
			if len(stored.PasswordHash) != crypto.HashSize || len(stored.PasswordSalt) != crypto.SaltSize {
				t.Errorf("stored credential sizes = (%d, %d), want (%d, %d)",
					len(stored.PasswordHash), len(stored.PasswordSalt), crypto.HashSize, crypto.SaltSize)
			}
		})
	}
}

func TestAuthService_Register_DuplicateKeyRace(t *testing.T) {
	// The repository can still report a duplicate after a clean existence
	// check; the service must translate that into the same taken error.
	repo := NewMockUserRepository()
	svc := NewAuthService(repo, zerolog.Nop())
	repo.createErr = repository.ErrDuplicateKey

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "pass1234"})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_Register_StoreUnavailable(t *testing.T) {
	repo := NewMockUserRepository()
	svc := NewAuthService(repo, zerolog.Nop())
	repo.existsErr = errors.New("connection refused")

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "pass1234"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestAuthService()
	registered := mustRegister(t, svc, "Alice", "pass1234")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "success", username: "alice", password: "pass1234"},
		{name: "case-insensitive username", username: "ALICE", password: "pass1234"},
		{name: "wrong password", username: "alice", password: "wrong", wantErr: domain.ErrInvalidCredentials},
		{name: "unknown user", username: "nobody", password: "pass1234", wantErr: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := svc.Login(context.Background(), tt.username, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if identity.ID != registered.UserID {
				t.Errorf("identity ID = %d, want %d", identity.ID, registered.UserID)
			}
			if identity.Username != "alice" {
				t.Errorf("identity username = %q, want %q", identity.Username, "alice")
			}
		})
	}
}

func TestAuthService_Login_IndistinguishableFailures(t *testing.T) {
	svc, _ := newTestAuthService()
	mustRegister(t, svc, "alice", "pass1234")

	_, errUnknown := svc.Login(context.Background(), "nobody", "pass1234")
	_, errWrongPw := svc.Login(context.Background(), "alice", "wrong")

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errWrongPw, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", errUnknown, errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("failure messages differ: %q vs %q", errUnknown, errWrongPw)
	}
}

func TestAuthService_Login_StoreUnavailable(t *testing.T) {
	svc, repo := newTestAuthService()
	repo.getErr = errors.New("connection refused")

	_, err := svc.Login(context.Background(), "alice", "pass1234")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Error("store failure must not look like invalid credentials")
	}
}
