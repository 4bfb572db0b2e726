package scoreboard

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomz197/respace/internal/storage/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	return New(store, Options{
		HashCost: bcrypt.MinCost,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewToken: func() string { return "token" },
	})
}

func intPtr(v int) *int { return &v }

func TestRegisterValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, tc := range []struct{ name, password string }{
		{"", "secret"},
		{"   ", "secret"},
		{"alice", ""},
	} {
		_, err := svc.Register(ctx, tc.name, tc.password)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Message != "Name and password are required." {
			t.Fatalf("Register(%q, %q) = %v, want validation error", tc.name, tc.password, err)
		}
	}
	_, err := svc.Register(ctx, "alice", strings.Repeat("x", 73))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("long password error = %v, want validation error", err)
	}
}

func TestRegisterConflictAndEmptyScores(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.Register(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if info.Name != "alice" {
		t.Fatalf("name = %q, want alice", info.Name)
	}
	if _, err := svc.Register(ctx, "alice", "secret"); !errors.Is(err, ErrConflict) {
		t.Fatalf("second register = %v, want ErrConflict", err)
	}

	scores, err := svc.Scores(ctx, "alice")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if scores.Name != "alice" || scores.Scores == nil || len(scores.Scores) != 0 || scores.BestScore != 0 {
		t.Fatalf("scores = %#v, want empty", scores)
	}
}

func TestUserReportsPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.Register(ctx, "alice", "secret")

	info, err := svc.User(ctx, "alice")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if !info.HasPassword {
		t.Fatal("hasPassword = false, want true")
	}
	if _, err := svc.User(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user = %v, want ErrNotFound", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.Register(ctx, "alice", "secret")

	login, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Token != "token" || login.Message != "Login successful" {
		t.Fatalf("login = %+v", login)
	}

	tests := []struct {
		name, user, password string
		want                 error
	}{
		{"wrong password", "alice", "nope", ErrUnauthorized},
		{"unknown user", "bob", "secret", ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tt.user, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("login = %v, want %v", err, tt.want)
			}
		})
	}

	var vErr *ValidationError
	if _, err := svc.Login(ctx, "alice", ""); !errors.As(err, &vErr) {
		t.Fatalf("missing password = %v, want validation error", err)
	}
}

func TestNewTokenIsOpaqueHex(t *testing.T) {
	tok := NewToken()
	if len(tok) != 32 || strings.Contains(tok, "-") {
		t.Fatalf("token = %q, want 32 hex chars", tok)
	}
	if tok == NewToken() {
		t.Fatal("tokens repeat")
	}
}

func TestSubmitAndLeaderboard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.Register(ctx, "alice", "a")
	svc.Register(ctx, "bob", "b")

	for _, s := range []struct {
		name  string
		score int
	}{{"alice", 3}, {"bob", 7}, {"alice", 5}} {
		sub, err := svc.Submit(ctx, s.name, intPtr(s.score))
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if sub.Name != s.name || sub.Score != s.score {
			t.Fatalf("submission = %+v", sub)
		}
	}

	scores, err := svc.Scores(ctx, "alice")
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if len(scores.Scores) != 2 || scores.Scores[0] != 5 || scores.Scores[1] != 3 || scores.BestScore != 5 {
		t.Fatalf("scores = %+v, want [5 3] best 5", scores)
	}

	board, err := svc.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].Name != "bob" || board[1].BestScore != 5 {
		t.Fatalf("leaderboard = %+v", board)
	}
}

func TestSubmitErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.Register(ctx, "alice", "a")

	var vErr *ValidationError
	if _, err := svc.Submit(ctx, "", intPtr(1)); !errors.As(err, &vErr) || vErr.Message != "Name and score are required." {
		t.Fatalf("missing name = %v", err)
	}
	if _, err := svc.Submit(ctx, "alice", nil); !errors.As(err, &vErr) {
		t.Fatalf("missing score = %v", err)
	}
	if _, err := svc.Submit(ctx, "alice", intPtr(-1)); !errors.As(err, &vErr) {
		t.Fatalf("negative score = %v", err)
	}
	if _, err := svc.Submit(ctx, "bob", intPtr(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user = %v, want ErrNotFound", err)
	}
}
