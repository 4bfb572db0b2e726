// Package storage defines persistence contracts for users and scores.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// User is one registered player.
type User struct {
	ID           int64
	Name         string
	PasswordHash string // Empty for users registered without a password
	CreatedAt    time.Time
}

// Best is one leaderboard row.
type Best struct {
	Name      string
	BestScore int
}

// Store persists users and their scores.
type Store interface {
	// CreateUser inserts a user. Returns ErrAlreadyExists if the name is taken.
	CreateUser(ctx context.Context, name, passwordHash string, at time.Time) (User, error)
	// GetUser returns a user by name or ErrNotFound.
	GetUser(ctx context.Context, name string) (User, error)
	// AddScore records one finished run for the user.
	AddScore(ctx context.Context, userID int64, score int, at time.Time) error
	// ListScores returns the user's scores, newest first.
	ListScores(ctx context.Context, userID int64) ([]int, error)
	// Leaderboard returns each scoring user's best, highest first, ties by name.
	Leaderboard(ctx context.Context) ([]Best, error)
	Close() error
}
