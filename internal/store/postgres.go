package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateUser inserts a user and fills in the generated id and timestamps.
// A duplicate username or email returns ErrConflict.
func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	const query = `
		INSERT INTO users (first_name, last_name, email, interest, username, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Email, user.Interest, user.Username, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, fmt.Errorf("insert user: %w", ErrConflict)
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	const query = `
		SELECT id, first_name, last_name, email, interest, username, password_hash, created_at, updated_at
		FROM users WHERE username = $1
	`
	var user User
	err := s.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Interest,
		&user.Username, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", userID, err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertHistory(ctx context.Context, userID int64, query string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO histories (user_id, query) VALUES ($1, $2)`, userID, query)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ListHistory returns a user's queries, newest first.
func (s *PostgresStore) ListHistory(ctx context.Context, userID int64, limit int) ([]History, error) {
	const query = `
		SELECT id, user_id, query, created_at
		FROM histories
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []History{}
	for rows.Next() {
		var entry History
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Query, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
