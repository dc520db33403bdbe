package store

import "time"

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        *string
	Interest     string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type History struct {
	ID        int64
	UserID    int64
	Query     string
	CreatedAt time.Time
}
