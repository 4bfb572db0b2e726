package score

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"
)

// Submitter records a finished run.
type Submitter interface {
	SubmitScore(ctx context.Context, name string, score int) (Submission, error)
}

// Poster runs fn on the goroutine that owns the displayed best score.
// clock.Scheduler implements it.
type Poster interface {
	Post(fn func())
}

// ReporterOptions configures a Reporter. Every field is optional.
type ReporterOptions struct {
	Logger   *log.Logger
	OnBest   func(best int) // Called on the Poster goroutine when the best rises
	Timeout  time.Duration  // Total time spent retrying one report
	MaxTries uint
	BackOff  backoff.BackOff
}

// Reporter submits scores in the background and keeps the best score shown
// to the player. Best, SetBest and OnBest belong to the Poster goroutine.
type Reporter struct {
	name   string
	sub    Submitter
	post   Poster
	log    *log.Logger
	onBest func(int)

	timeout  time.Duration
	maxTries uint
	newBack  func() backoff.BackOff

	best int
	wg   sync.WaitGroup
}

// NewReporter creates a reporter that submits as name.
func NewReporter(name string, sub Submitter, post Poster, opts ReporterOptions) *Reporter {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 5
	}
	newBack := func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 250 * time.Millisecond
		b.MaxInterval = 5 * time.Second
		return b
	}
	if opts.BackOff != nil {
		fixed := opts.BackOff
		newBack = func() backoff.BackOff {
			fixed.Reset()
			return fixed
		}
	}
	return &Reporter{
		name:     name,
		sub:      sub,
		post:     post,
		log:      opts.Logger,
		onBest:   opts.OnBest,
		timeout:  opts.Timeout,
		maxTries: opts.MaxTries,
		newBack:  newBack,
	}
}

// Report submits score without blocking. The acknowledgment is handed back
// through the Poster; failures are logged and dropped.
func (r *Reporter) Report(score int) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := r.submit(score)
		if err != nil {
			r.log.Warn("score not recorded", "name", r.name, "score", score, "err", err)
		}
		accepted := err == nil
		r.post.Post(func() { r.acknowledge(score, accepted) })
	}()
}

func (r *Reporter) submit(score int) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	_, err := backoff.Retry(ctx, func() (Submission, error) {
		s, err := r.sub.SubmitScore(ctx, r.name, score)
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return s, backoff.Permanent(err)
		}
		return s, err
	},
		backoff.WithBackOff(r.newBack()),
		backoff.WithMaxTries(r.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.log.Debug("retrying score", "err", err, "in", next)
		}),
	)
	return err
}

func (r *Reporter) acknowledge(score int, accepted bool) {
	if !accepted || score <= r.best {
		return
	}
	r.best = score
	if r.onBest != nil {
		r.onBest(score)
	}
}

// Best returns the displayed best score.
func (r *Reporter) Best() int {
	return r.best
}

// SetBest seeds the displayed best, e.g. from the backend at connect time.
// The best never decreases.
func (r *Reporter) SetBest(best int) {
	if best > r.best {
		r.best = best
	}
}

// Wait blocks until every report in flight has been handed to the Poster.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

// Offline accepts every score without a backend, for local play.
type Offline struct{}

// SubmitScore accepts the score.
func (Offline) SubmitScore(_ context.Context, name string, score int) (Submission, error) {
	return Submission{Name: name, Score: score}, nil
}
