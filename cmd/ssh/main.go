package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/respace/internal/client"
	"github.com/tomz197/respace/internal/config"
	"github.com/tomz197/respace/internal/draw"
	"github.com/tomz197/respace/internal/lobby"
	"github.com/tomz197/respace/internal/score"
)

// Shared lobby - every SSH session registers here
var (
	gameLobby   *lobby.Lobby
	cancelLobby context.CancelFunc
	lobbyOnce   sync.Once
	backend     *score.Client // Nil when scores are kept local
	logger      *log.Logger
)

func main() {
	var cfg config.SSH
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger = config.NewLogger("ssh", cfg.LogLevel)

	workingDir, workErr := os.Getwd()
	if workErr != nil {
		logger.Warn("failed to get working directory", "err", workErr)
	}
	logger.Info("ssh config",
		"host", cfg.Host,
		"port", cfg.Port,
		"hostKeyPath", cfg.HostKeyPath,
		"requireLogin", cfg.RequireLogin,
		"backend", cfg.BackendURL,
		"workingDir", workingDir,
	)

	if cfg.BackendURL != "" {
		backend = score.NewClient(cfg.BackendURL, nil)
	}

	// Initialize and start the shared lobby
	lobbyOnce.Do(func() {
		var ctx context.Context
		ctx, cancelLobby = context.WithCancel(context.Background())
		opts := lobby.Options{Logger: logger.WithPrefix("lobby")}
		if backend != nil {
			opts.Source = backend
		}
		gameLobby = lobby.New(opts)
		go gameLobby.Run(ctx)
		logger.Info("lobby started")
	})

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(cfg.Host, cfg.Port)),
		wish.WithMiddleware(
			gameMiddleware,
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(cfg.HostKeyPath))
	}
	if cfg.RequireLogin {
		if backend == nil {
			logger.Fatal("SSH_REQUIRE_LOGIN needs BACKEND_URL")
		}
		opts = append(opts, wish.WithPasswordAuth(passwordAuth))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting SSH server", "addr", net.JoinHostPort(cfg.Host, cfg.Port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down server")

	// Gracefully shut down: notify players and wait for them to disconnect
	if gameLobby != nil {
		logger.Info("notifying connected players about shutdown", "players", gameLobby.Players())
		gameLobby.Shutdown(15 * time.Second)
		cancelLobby()
		logger.Info("lobby stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}

// passwordAuth checks the SSH user and password against the backend login.
func passwordAuth(ctx ssh.Context, password string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := backend.Login(reqCtx, ctx.User(), password); err != nil {
		if !errors.Is(err, score.ErrUnauthorized) && !errors.Is(err, score.ErrInvalid) {
			logger.Warn("login check failed", "user", ctx.User(), "err", err)
		}
		return false
	}
	return true
}

// gameMiddleware handles SSH sessions and runs the game client.
func gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		name := playerName(sess.User())
		logger.Info("new game session", "user", name, "term", pty.Term,
			"size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

		// Listen for window size changes in a goroutine
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		clientOpts := client.Options{
			TermSizeFunc: sizeTracker.getSize,
			Name:         name,
			Lobby:        gameLobby,
			Rand:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
			Logger:       logger.WithPrefix("session"),
		}
		if backend != nil {
			clientOpts.Scores = backend
			clientOpts.Best = fetchBest(sess.Context(), name)
		}

		c := client.New(sess, sess, clientOpts)
		if err := c.Run(sess.Context()); err != nil {
			logger.Error("game error", "user", name, "err", err)
		}

		logger.Info("session ended", "user", name)
		next(sess)
	}
}

// fetchBest seeds the displayed best score from the backend. Unknown
// players start at zero.
func fetchBest(ctx context.Context, name string) int {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	us, err := backend.UserScores(ctx, name)
	if err != nil {
		if !errors.Is(err, score.ErrNotFound) {
			logger.Warn("fetch best score failed", "user", name, "err", err)
		}
		return 0
	}
	return us.BestScore
}

// playerName is the name scores are submitted under.
func playerName(user string) string {
	if user == "" {
		return "diver"
	}
	return user
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
