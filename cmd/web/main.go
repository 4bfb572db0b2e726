package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomz197/respace/internal/api"
	"github.com/tomz197/respace/internal/config"
	"github.com/tomz197/respace/internal/scoreboard"
	"github.com/tomz197/respace/internal/storage"
	"github.com/tomz197/respace/internal/storage/postgres"
	"github.com/tomz197/respace/internal/storage/sqlite"
)

//go:embed index.html
var htmlPage string

func main() {
	var cfg config.Web
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger("web", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("open store", "driver", cfg.Database.Driver, "err", err)
	}
	defer store.Close()

	svc := scoreboard.New(store, scoreboard.Options{Logger: logger.WithPrefix("scoreboard")})
	router := api.NewRouter(svc, api.Options{
		Logger:  logger.WithPrefix("http"),
		Landing: api.LandingPage(htmlPage, cfg.SSHHost),
	})

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting web server", "addr", "http://"+addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

func openStore(ctx context.Context, db config.Database) (storage.Store, error) {
	switch db.Driver {
	case "sqlite", "":
		return sqlite.Open(db.Path)
	case "postgres":
		return postgres.Open(ctx, db.DSN())
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", db.Driver)
}
