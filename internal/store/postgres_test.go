package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func expectationsMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	email := "sara@example.ir"

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("سارا", "رضایی", &email, "تاریخ", "sara", "hash").
		WillReturnRows(mock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	user, err := s.CreateUser(context.Background(), User{
		FirstName: "سارا", LastName: "رضایی", Email: &email, Interest: "تاریخ",
		Username: "sara", PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID != 7 || !user.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user %+v", user)
	}
	expectationsMet(t, mock)
}

func TestCreateUserConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("", "", (*string)(nil), "", "sara", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.CreateUser(context.Background(), User{Username: "sara", PasswordHash: "hash"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetUserByUsername(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	email := "ali@example.ir"

	rows := mock.NewRows([]string{"id", "first_name", "last_name", "email", "interest", "username", "password_hash", "created_at", "updated_at"}).
		AddRow(int64(3), "علی", "", &email, "", "ali", "hash", now, now)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("ali").
		WillReturnRows(rows)

	user, err := s.GetUserByUsername(context.Background(), "ali")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user.ID != 3 || user.FirstName != "علی" || user.Email == nil || *user.Email != email {
		t.Fatalf("unexpected user %+v", user)
	}
	expectationsMet(t, mock)
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	if _, err := s.GetUserByUsername(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUserExists(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(6)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := s.UserExists(context.Background(), 5)
	if err != nil || !ok {
		t.Fatalf("expected user 5 to exist, got %v %v", ok, err)
	}
	ok, err = s.UserExists(context.Background(), 6)
	if err != nil || ok {
		t.Fatalf("expected user 6 to be missing, got %v %v", ok, err)
	}
	expectationsMet(t, mock)
}

func TestInsertHistory(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO histories").
		WithArgs(int64(5), "گزارش").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := s.InsertHistory(context.Background(), 5, "گزارش"); err != nil {
		t.Fatalf("InsertHistory: %v", err)
	}
	expectationsMet(t, mock)
}

func TestListHistory(t *testing.T) {
	s, mock := newMockStore(t)
	newer := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	rows := mock.NewRows([]string{"id", "user_id", "query", "created_at"}).
		AddRow(int64(2), int64(5), "دوم", newer).
		AddRow(int64(1), int64(5), "اول", older)
	mock.ExpectQuery("SELECT (.+) FROM histories WHERE user_id = \\$1 ORDER BY created_at DESC").
		WithArgs(int64(5), 50).
		WillReturnRows(rows)

	entries, err := s.ListHistory(context.Background(), 5, 50)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(entries) != 2 || entries[0].Query != "دوم" || entries[1].Query != "اول" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	expectationsMet(t, mock)
}

func TestListHistoryEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM histories").
		WithArgs(int64(9), 50).
		WillReturnRows(mock.NewRows([]string{"id", "user_id", "query", "created_at"}))

	entries, err := s.ListHistory(context.Background(), 9, 50)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
	expectationsMet(t, mock)
}
