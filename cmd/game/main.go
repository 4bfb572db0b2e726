package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/tomz197/respace/internal/client"
	"github.com/tomz197/respace/internal/config"
	"github.com/tomz197/respace/internal/lobby"
	"github.com/tomz197/respace/internal/score"
)

func main() {
	var cfg config.Local
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger("respace", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := client.Options{Name: cfg.Player, Logger: logger}
	lobbyOpts := lobby.Options{Logger: logger}
	if cfg.BackendURL != "" {
		backend := score.NewClient(cfg.BackendURL, nil)
		opts.Scores = backend
		lobbyOpts.Source = backend

		reqCtx, reqCancel := context.WithTimeout(ctx, 3*time.Second)
		us, err := backend.UserScores(reqCtx, cfg.Player)
		reqCancel()
		switch {
		case err == nil:
			opts.Best = us.BestScore
		case errors.Is(err, score.ErrNotFound):
			logger.Warn("player is not registered, scores will be rejected", "player", cfg.Player)
		default:
			logger.Warn("fetch best score failed", "err", err)
		}
	}
	opts.Lobby = lobby.New(lobbyOpts)
	go opts.Lobby.Run(ctx)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	if err := client.New(os.Stdin, os.Stdout, opts).Run(ctx); err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}
