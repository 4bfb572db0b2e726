package score

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v5"

	"github.com/tomz197/respace/internal/clock"
)

type fakeSubmitter struct {
	calls atomic.Int32
	errs  []error // Returned in order, then nil
}

func (f *fakeSubmitter) SubmitScore(_ context.Context, name string, score int) (Submission, error) {
	n := int(f.calls.Add(1)) - 1
	if n < len(f.errs) && f.errs[n] != nil {
		return Submission{}, f.errs[n]
	}
	return Submission{Name: name, Score: score}, nil
}

func newTestReporter(sub Submitter, s *clock.Scheduler, onBest func(int)) *Reporter {
	return NewReporter("alice", sub, s, ReporterOptions{
		OnBest:  onBest,
		BackOff: &backoff.ZeroBackOff{},
	})
}

func report(r *Reporter, s *clock.Scheduler, score int) {
	r.Report(score)
	r.Wait()
	s.Advance(0)
}

func TestReporterRaisesBestOnlyWhenHigher(t *testing.T) {
	s := clock.New()
	var bests []int
	r := newTestReporter(Offline{}, s, func(b int) { bests = append(bests, b) })
	r.SetBest(5)

	report(r, s, 3)
	if r.Best() != 5 {
		t.Fatalf("best = %d after a lower score, want 5", r.Best())
	}
	report(r, s, 5)
	if r.Best() != 5 {
		t.Fatalf("best = %d after an equal score, want 5", r.Best())
	}
	report(r, s, 9)
	if r.Best() != 9 {
		t.Fatalf("best = %d, want 9", r.Best())
	}
	if len(bests) != 1 || bests[0] != 9 {
		t.Fatalf("OnBest calls = %v, want [9]", bests)
	}
}

func TestReporterAppliesResultOnPosterGoroutine(t *testing.T) {
	s := clock.New()
	r := newTestReporter(Offline{}, s, nil)
	r.Report(4)
	r.Wait()
	if r.Best() != 0 {
		t.Fatal("best changed before the scheduler ran the posted result")
	}
	s.Advance(0)
	if r.Best() != 4 {
		t.Fatalf("best = %d, want 4", r.Best())
	}
}

func TestReporterRetriesTransientFailures(t *testing.T) {
	s := clock.New()
	sub := &fakeSubmitter{errs: []error{
		errors.New("connection reset"),
		&StatusError{Code: http.StatusServiceUnavailable},
	}}
	r := newTestReporter(sub, s, nil)
	report(r, s, 7)
	if got := sub.calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if r.Best() != 7 {
		t.Fatalf("best = %d, want 7", r.Best())
	}
}

func TestReporterDoesNotRetryClientErrors(t *testing.T) {
	s := clock.New()
	sub := &fakeSubmitter{errs: []error{&StatusError{Code: http.StatusNotFound, Message: "User not found."}}}
	r := newTestReporter(sub, s, nil)
	report(r, s, 7)
	if got := sub.calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if r.Best() != 0 {
		t.Fatalf("best = %d after a rejected score, want 0", r.Best())
	}
}

func TestReporterGivesUpAfterMaxTries(t *testing.T) {
	s := clock.New()
	down := errors.New("down")
	sub := &fakeSubmitter{errs: []error{down, down, down, down, down, down, down}}
	r := NewReporter("alice", sub, s, ReporterOptions{BackOff: &backoff.ZeroBackOff{}, MaxTries: 3})
	report(r, s, 2)
	if got := sub.calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if r.Best() != 0 {
		t.Fatalf("best = %d, want 0", r.Best())
	}
}

func TestSetBestNeverLowers(t *testing.T) {
	r := newTestReporter(Offline{}, clock.New(), nil)
	r.SetBest(10)
	r.SetBest(3)
	if r.Best() != 10 {
		t.Fatalf("best = %d, want 10", r.Best())
	}
}

func TestClientRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /scores", func(w http.ResponseWriter, r *http.Request) {
		var s Submission
		json.NewDecoder(r.Body).Decode(&s)
		if s.Name == "ghost" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(errorBody{Message: "User not found."})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(s)
	})
	mux.HandleFunc("GET /scores/{name}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(UserScores{Name: r.PathValue("name"), Scores: []int{3, 1}, BestScore: 3})
	})
	mux.HandleFunc("GET /scores", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Entry{{Name: "bob", BestScore: 9}, {Name: "alice", BestScore: 3}})
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var c credentials
		json.NewDecoder(r.Body).Decode(&c)
		if c.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(loginResponse{Message: "Logged in.", Token: "abc"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	ctx := context.Background()

	sub, err := c.SubmitScore(ctx, "alice", 3)
	if err != nil || sub.Score != 3 {
		t.Fatalf("SubmitScore = %+v, %v", sub, err)
	}

	_, err = c.SubmitScore(ctx, "ghost", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("SubmitScore(ghost) err = %v, want ErrNotFound", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "User not found." {
		t.Fatalf("status error = %+v", se)
	}

	us, err := c.UserScores(ctx, "alice")
	if err != nil || us.BestScore != 3 || len(us.Scores) != 2 {
		t.Fatalf("UserScores = %+v, %v", us, err)
	}

	board, err := c.Leaderboard(ctx)
	if err != nil || len(board) != 2 || board[0].Name != "bob" {
		t.Fatalf("Leaderboard = %+v, %v", board, err)
	}

	token, err := c.Login(ctx, "alice", "secret")
	if err != nil || token != "abc" {
		t.Fatalf("Login = %q, %v", token, err)
	}
	if _, err := c.Login(ctx, "alice", "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Login(bad) err = %v, want ErrUnauthorized", err)
	}
}
