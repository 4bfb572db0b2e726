// Package sqlstore implements storage.Store over database/sql. Dialect
// differences (placeholders, constraint errors) are supplied by the driver
// packages sqlite and postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomz197/respace/internal/storage"
)

// Dialect describes what differs between SQL backends.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2, ...) instead of ?.
	Numbered bool
	// IsUniqueViolation reports whether err is a unique or primary key
	// constraint failure.
	IsUniqueViolation func(err error) bool
}

// Store persists users and scores in a SQL database.
type Store struct {
	sqlDB   *sql.DB
	dialect Dialect
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// New wraps an open database. Migrations must already be applied.
func New(sqlDB *sql.DB, dialect Dialect) *Store {
	return &Store{sqlDB: sqlDB, dialect: dialect}
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *Store) rebind(query string) string {
	return Rebind(s.dialect, query)
}

// Rebind rewrites ? placeholders in query for the dialect.
func Rebind(d Dialect, query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// CreateUser inserts one user.
func (s *Store) CreateUser(ctx context.Context, name, passwordHash string, at time.Time) (storage.User, error) {
	if err := ctx.Err(); err != nil {
		return storage.User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.User{}, fmt.Errorf("user name is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	var id int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		s.rebind(`INSERT INTO users (name, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`),
		name,
		passwordHash,
		toMillis(at),
	).Scan(&id)
	if err != nil {
		if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
			return storage.User{}, storage.ErrAlreadyExists
		}
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}
	return storage.User{ID: id, Name: name, PasswordHash: passwordHash, CreatedAt: fromMillis(toMillis(at))}, nil
}

// GetUser returns one user by name.
func (s *Store) GetUser(ctx context.Context, name string) (storage.User, error) {
	if err := ctx.Err(); err != nil {
		return storage.User{}, err
	}
	var (
		user    storage.User
		created int64
	)
	err := s.sqlDB.QueryRowContext(
		ctx,
		s.rebind(`SELECT id, name, password_hash, created_at FROM users WHERE name = ?`),
		strings.TrimSpace(name),
	).Scan(&user.ID, &user.Name, &user.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.User{}, storage.ErrNotFound
		}
		return storage.User{}, fmt.Errorf("get user: %w", err)
	}
	user.CreatedAt = fromMillis(created)
	return user, nil
}

// AddScore records one score for a user.
func (s *Store) AddScore(ctx context.Context, userID int64, score int, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		s.rebind(`INSERT INTO scores (user_id, score, created_at) VALUES (?, ?, ?)`),
		userID,
		score,
		toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("add score: %w", err)
	}
	return nil
}

// ListScores returns a user's scores, newest first.
func (s *Store) ListScores(ctx context.Context, userID int64) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		s.rebind(`SELECT score FROM scores WHERE user_id = ? ORDER BY created_at DESC, id DESC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	scores := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return scores, nil
}

// Leaderboard returns the best score of every user with at least one score.
func (s *Store) Leaderboard(ctx context.Context) ([]storage.Best, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT u.name, MAX(s.score) AS best_score
FROM scores s
JOIN users u ON s.user_id = u.id
GROUP BY u.id, u.name
ORDER BY best_score DESC, u.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	board := []storage.Best{}
	for rows.Next() {
		var b storage.Best
		if err := rows.Scan(&b.Name, &b.BestScore); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		board = append(board, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return board, nil
}

var _ storage.Store = (*Store)(nil)
