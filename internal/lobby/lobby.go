// Package lobby is the process-wide meeting point of terminal sessions. Each
// session plays its own independent dive; the lobby only counts them,
// caches the leaderboard they show in the pause menu and tells them when
// the server is going away.
package lobby

import (
	"context"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/respace/internal/loop/config"
	"github.com/tomz197/respace/internal/score"
)

// Leaderboarder fetches the current leaderboard.
type Leaderboarder interface {
	Leaderboard(ctx context.Context) ([]score.Entry, error)
}

// EventType identifies the type of lobby event.
type EventType int

const (
	EventServerShutdown EventType = iota
	EventLeaderboard              // The cached leaderboard changed
)

// Event is sent from the lobby to a session.
type Event struct {
	Type EventType
}

// Handle represents a session's membership in the lobby.
type Handle struct {
	ID     int
	Name   string
	Events chan Event // Closed on Unregister
}

// TopScoreEntry represents a single entry on the leaderboard.
type TopScoreEntry struct {
	Name  string
	Score int
}

// Snapshot is an immutable view of the lobby for rendering.
type Snapshot struct {
	Players   int
	TopScores []TopScoreEntry
	UpdatedAt time.Time
}

// Options configures a Lobby. Every field is optional.
type Options struct {
	Source  Leaderboarder // Nil disables the leaderboard
	Refresh time.Duration
	Size    int
	Logger  *log.Logger
}

// Lobby tracks connected sessions.
type Lobby struct {
	mu      sync.RWMutex
	clients map[int]*Handle
	nextID  int

	top     atomic.Pointer[[]TopScoreEntry]
	updated atomic.Int64
	poke    chan struct{}

	source  Leaderboarder
	refresh time.Duration
	size    int
	log     *log.Logger
}

// New creates an empty lobby.
func New(opts Options) *Lobby {
	if opts.Refresh <= 0 {
		opts.Refresh = config.LeaderboardRefresh
	}
	if opts.Size <= 0 {
		opts.Size = config.LeaderboardSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	l := &Lobby{
		clients: make(map[int]*Handle),
		nextID:  1,
		poke:    make(chan struct{}, 1),
		source:  opts.Source,
		refresh: opts.Refresh,
		size:    opts.Size,
		log:     opts.Logger,
	}
	empty := []TopScoreEntry{}
	l.top.Store(&empty)
	return l
}

// Register adds a session with the given display name and returns its handle.
func (l *Lobby) Register(name string) *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := &Handle{
		ID:     l.nextID,
		Name:   name,
		Events: make(chan Event, 16),
	}
	l.nextID++
	l.clients[h.ID] = h
	l.log.Info("session joined", "id", h.ID, "name", name, "players", len(l.clients))
	return h
}

// Unregister removes a session and closes its event channel.
func (l *Lobby) Unregister(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.clients[id]
	if !ok {
		return
	}
	close(h.Events)
	delete(l.clients, id)
	l.log.Info("session left", "id", id, "name", h.Name, "players", len(l.clients))
}

// Players returns the number of registered sessions.
func (l *Lobby) Players() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

// Snapshot returns the current player count and cached leaderboard.
func (l *Lobby) Snapshot() Snapshot {
	var at time.Time
	if ns := l.updated.Load(); ns != 0 {
		at = time.Unix(0, ns)
	}
	return Snapshot{
		Players:   l.Players(),
		TopScores: *l.top.Load(),
		UpdatedAt: at,
	}
}

// RequestRefresh asks Run to refresh the leaderboard now, e.g. after a
// session's score was accepted. It never blocks.
func (l *Lobby) RequestRefresh() {
	select {
	case l.poke <- struct{}{}:
	default:
	}
}

// Run refreshes the leaderboard immediately, then periodically and on
// request. Blocks until the context is cancelled.
func (l *Lobby) Run(ctx context.Context) {
	if l.source == nil {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(l.refresh)
	defer ticker.Stop()

	for {
		if err := l.Refresh(ctx); err != nil && ctx.Err() == nil {
			l.log.Warn("leaderboard refresh failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-l.poke:
		}
	}
}

// Refresh fetches the leaderboard once and notifies sessions.
func (l *Lobby) Refresh(ctx context.Context) error {
	if l.source == nil {
		return nil
	}
	entries, err := l.source.Leaderboard(ctx)
	if err != nil {
		return err
	}
	top := Top(entries, l.size)
	l.top.Store(&top)
	l.updated.Store(time.Now().UnixNano())
	l.broadcast(Event{Type: EventLeaderboard})
	return nil
}

// Top orders entries by score descending, then name, and keeps the first n.
func Top(entries []score.Entry, n int) []TopScoreEntry {
	top := make([]TopScoreEntry, len(entries))
	for i, e := range entries {
		top[i] = TopScoreEntry{Name: e.Name, Score: e.BestScore}
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Score != top[j].Score {
			return top[i].Score > top[j].Score
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}

func (l *Lobby) broadcast(ev Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, h := range l.clients {
		select {
		case h.Events <- ev:
		default:
		}
	}
}

// Shutdown notifies all sessions and waits for them to unregister, up to
// the given timeout.
func (l *Lobby) Shutdown(timeout time.Duration) {
	l.broadcast(Event{Type: EventServerShutdown})

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Players() == 0 {
			return
		}
		select {
		case <-deadline:
			l.log.Warn("shutdown timed out", "players", l.Players())
			return
		case <-ticker.C:
		}
	}
}
