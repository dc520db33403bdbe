package authpw

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"kavosh/internal/store"
	"kavosh/internal/util"
)

// mockUserStore is a mock implementation of UserStore for testing
type mockUserStore struct {
	users  map[string]store.User
	emails map[string]bool
	nextID int64
	err    error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:  make(map[string]store.User),
		emails: make(map[string]bool),
	}
}

func (m *mockUserStore) CreateUser(ctx context.Context, user store.User) (store.User, error) {
	if m.err != nil {
		return store.User{}, m.err
	}
	if _, ok := m.users[user.Username]; ok {
		return store.User{}, store.ErrConflict
	}
	if user.Email != nil && m.emails[*user.Email] {
		return store.User{}, store.ErrConflict
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.Username] = user
	if user.Email != nil {
		m.emails[*user.Email] = true
	}
	return user, nil
}

func (m *mockUserStore) GetUserByUsername(ctx context.Context, username string) (store.User, error) {
	if m.err != nil {
		return store.User{}, m.err
	}
	if user, ok := m.users[username]; ok {
		return user, nil
	}
	return store.User{}, store.ErrNotFound
}

func newTestService(s UserStore) *Service {
	svc := NewService(s)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockUserStore()
	svc := newTestService(mockStore)

	t.Run("successful registration", func(t *testing.T) {
		user, err := svc.Register(ctx, RegisterRequest{
			FirstName: "سارا",
			LastName:  "رضایی",
			Email:     "sara@example.ir",
			Username:  "sara",
			Password:  "secret",
			Interest:  "تاریخ",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID == 0 {
			t.Error("expected ID to be set")
		}
		if user.PasswordHash == "secret" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")) != nil {
			t.Error("expected bcrypt hash of the password")
		}
		if user.Email == nil || *user.Email != "sara@example.ir" {
			t.Errorf("unexpected email %v", user.Email)
		}
	})

	t.Run("email is optional", func(t *testing.T) {
		user, err := svc.Register(ctx, RegisterRequest{
			FirstName: "علی", LastName: "محمدی", Username: "ali", Password: "secret",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != nil {
			t.Errorf("expected no email, got %q", *user.Email)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{
			FirstName: "سارا", LastName: "دیگر", Username: "sara", Password: "secret",
		})
		if !errors.Is(err, ErrUsernameTaken) {
			t.Errorf("expected ErrUsernameTaken, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{Email: "bad"})
		var verr *util.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"first_name", "last_name", "username", "password", "email"} {
			if _, ok := verr.Fields[field]; !ok {
				t.Errorf("expected error for %s, got %v", field, verr.Fields)
			}
		}
	})

	t.Run("store failure", func(t *testing.T) {
		failing := newMockUserStore()
		failing.err = errors.New("db down")
		_, err := newTestService(failing).Register(ctx, RegisterRequest{
			FirstName: "a", LastName: "b", Username: "c", Password: "d",
		})
		if err == nil || errors.Is(err, ErrUsernameTaken) || util.IsValidation(err) {
			t.Errorf("expected store error, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockUserStore()
	svc := newTestService(mockStore)

	if _, err := svc.Register(ctx, RegisterRequest{
		FirstName: "سارا", LastName: "رضایی", Username: "sara", Password: "secret",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("successful login", func(t *testing.T) {
		user, err := svc.Login(ctx, LoginRequest{Username: "sara", Password: "secret"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Username != "sara" {
			t.Errorf("expected sara, got %s", user.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Username: "sara", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("non-existent user", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Username: "ghost", Password: "secret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		if _, err := svc.Login(ctx, LoginRequest{}); !util.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}
