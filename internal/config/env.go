// Package config provides shared configuration utilities.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// SSH configures cmd/ssh.
type SSH struct {
	Host         string `env:"SSH_HOST" envDefault:"::"`
	Port         string `env:"SSH_PORT" envDefault:"2222"`
	HostKeyPath  string `env:"SSH_HOST_KEY" envDefault:"/app/keys/host_key"`
	RequireLogin bool   `env:"SSH_REQUIRE_LOGIN" envDefault:"false"`
	BackendURL   string `env:"BACKEND_URL"` // Empty keeps scores local
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

// Web configures cmd/web.
type Web struct {
	Host     string `env:"WEB_HOST" envDefault:"0.0.0.0"`
	Port     string `env:"WEB_PORT" envDefault:"8080"`
	SSHHost  string `env:"SSH_DISPLAY_HOST" envDefault:"your-server.com"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Database Database
}

// Local configures cmd/game.
type Local struct {
	Player     string `env:"RESPACE_PLAYER" envDefault:"diver"`
	BackendURL string `env:"BACKEND_URL"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"warn"`
}

// Database selects and configures the score store.
type Database struct {
	Driver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	Path     string `env:"DB_PATH" envDefault:"respace.db"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	Name     string `env:"DB_NAME" envDefault:"respace"`
	User     string `env:"DB_USER" envDefault:"respace"`
	Password string `env:"DB_PASSWORD"`
}

// DSN returns the Postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// Load reads an optional .env file and parses the environment into target.
// Variables already set in the environment win over the file.
func Load(target any) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return ParseEnv(target)
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// NewLogger creates the process logger at the given level. Unknown levels
// fall back to info.
func NewLogger(prefix, level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
