// Package authpw provides username/password registration and login.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"kavosh/internal/store"
	"kavosh/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username or email already registered")
)

// UserStore defines the storage interface for auth
type UserStore interface {
	CreateUser(ctx context.Context, user store.User) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
}

// Service provides username/password authentication
type Service struct {
	store    UserStore
	validate *validator.Validate
	cost     int
}

// NewService creates a new auth service
func NewService(s UserStore) *Service {
	return &Service{
		store:    s,
		validate: util.NewValidator(),
		cost:     bcrypt.DefaultCost,
	}
}

// RegisterRequest contains registration parameters
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,notblank"`
	LastName  string `json:"last_name" validate:"required,notblank"`
	Email     string `json:"email" validate:"omitempty,email"`
	Username  string `json:"username" validate:"required,notblank"`
	Password  string `json:"password" validate:"required"`
	Interest  string `json:"interest"`
}

// LoginRequest contains login parameters
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a user account with a bcrypt password hash
func (s *Service) Register(ctx context.Context, req RegisterRequest) (store.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return store.User{}, &util.ValidationError{Fields: util.FieldErrors(err)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := store.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Interest:     req.Interest,
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = &email
	}

	created, err := s.store.CreateUser(ctx, user)
	if errors.Is(err, store.ErrConflict) {
		return store.User{}, ErrUsernameTaken
	}
	if err != nil {
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Login checks the password for username and returns the user
func (s *Service) Login(ctx context.Context, req LoginRequest) (store.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return store.User{}, &util.ValidationError{Fields: util.FieldErrors(err)}
	}

	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}
