// Package scoreboard implements the backend operations behind the HTTP API:
// registration, login, score submission and the leaderboard.
package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomz197/respace/internal/score"
	"github.com/tomz197/respace/internal/storage"
)

var (
	ErrNotFound     = errors.New("User not found.")
	ErrConflict     = errors.New("User already exists.")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError is a bad request whose message is shown to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Messages surfaced for invalid requests.
const (
	msgCredentialsRequired = "Name and password are required."
	msgScoreRequired       = "Name and score are required."
	msgNegativeScore       = "Score must not be negative."
	msgPasswordTooLong     = "Password must be at most 72 bytes."
	msgLoginSuccessful     = "Login successful"
)

// UserInfo is the public view of a user.
type UserInfo struct {
	Name        string `json:"name"`
	HasPassword bool   `json:"hasPassword"`
}

// Login is a successful authentication.
type Login struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Options configures a Service. Every field is optional.
type Options struct {
	Now      func() time.Time
	HashCost int // bcrypt cost, bcrypt.DefaultCost when zero
	NewToken func() string
	Logger   *log.Logger
}

// Service implements the scoreboard on top of a storage.Store.
type Service struct {
	store    storage.Store
	now      func() time.Time
	cost     int
	newToken func() string
	log      *log.Logger
}

// New creates a service backed by store.
func New(store storage.Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.NewToken == nil {
		opts.NewToken = NewToken
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Service{
		store:    store,
		now:      opts.Now,
		cost:     opts.HashCost,
		newToken: opts.NewToken,
		log:      opts.Logger,
	}
}

// NewToken returns a random opaque login token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, name, password string) (UserInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return UserInfo{}, &ValidationError{Message: msgCredentialsRequired}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return UserInfo{}, &ValidationError{Message: msgPasswordTooLong}
		}
		return UserInfo{}, fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.store.CreateUser(ctx, name, string(hash), s.now()); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return UserInfo{}, ErrConflict
		}
		return UserInfo{}, fmt.Errorf("register %q: %w", name, err)
	}
	s.log.Info("user registered", "name", name)
	return UserInfo{Name: name}, nil
}

// User returns the public view of a user.
func (s *Service) User(ctx context.Context, name string) (UserInfo, error) {
	user, err := s.lookup(ctx, name)
	if err != nil {
		return UserInfo{}, err
	}
	return UserInfo{Name: user.Name, HasPassword: user.PasswordHash != ""}, nil
}

// Login checks the credentials and issues a token. Unknown users and wrong
// passwords both return ErrUnauthorized.
func (s *Service) Login(ctx context.Context, name, password string) (Login, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return Login{}, &ValidationError{Message: msgCredentialsRequired}
	}
	user, err := s.lookup(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Login{}, ErrUnauthorized
		}
		return Login{}, err
	}
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Login{}, ErrUnauthorized
	}
	return Login{Message: msgLoginSuccessful, Token: s.newToken()}, nil
}

// Scores returns a user's scores, newest first, and their best.
func (s *Service) Scores(ctx context.Context, name string) (score.UserScores, error) {
	user, err := s.lookup(ctx, name)
	if err != nil {
		return score.UserScores{}, err
	}
	scores, err := s.store.ListScores(ctx, user.ID)
	if err != nil {
		return score.UserScores{}, fmt.Errorf("scores of %q: %w", user.Name, err)
	}
	best := 0
	for _, v := range scores {
		best = max(best, v)
	}
	return score.UserScores{Name: user.Name, Scores: scores, BestScore: best}, nil
}

// Leaderboard returns every scoring user's best, highest first.
func (s *Service) Leaderboard(ctx context.Context) ([]score.Entry, error) {
	board, err := s.store.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]score.Entry, len(board))
	for i, b := range board {
		entries[i] = score.Entry{Name: b.Name, BestScore: b.BestScore}
	}
	return entries, nil
}

// Submit records a finished run. A nil value means the score was missing.
func (s *Service) Submit(ctx context.Context, name string, value *int) (score.Submission, error) {
	name = strings.TrimSpace(name)
	if name == "" || value == nil {
		return score.Submission{}, &ValidationError{Message: msgScoreRequired}
	}
	if *value < 0 {
		return score.Submission{}, &ValidationError{Message: msgNegativeScore}
	}
	user, err := s.lookup(ctx, name)
	if err != nil {
		return score.Submission{}, err
	}
	if err := s.store.AddScore(ctx, user.ID, *value, s.now()); err != nil {
		return score.Submission{}, fmt.Errorf("submit for %q: %w", user.Name, err)
	}
	s.log.Debug("score recorded", "name", user.Name, "score", *value)
	return score.Submission{Name: user.Name, Score: *value}, nil
}

func (s *Service) lookup(ctx context.Context, name string) (storage.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.User{}, ErrNotFound
	}
	user, err := s.store.GetUser(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, ErrNotFound
		}
		return storage.User{}, fmt.Errorf("lookup %q: %w", name, err)
	}
	return user, nil
}
