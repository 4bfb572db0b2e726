// Package score talks to the scoreboard backend: submitting finished runs,
// reading a player's scores and the leaderboard, and logging in.
package score

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Entry is one leaderboard line.
type Entry struct {
	Name      string `json:"name"`
	BestScore int    `json:"bestScore"`
}

// UserScores is a player's score history.
type UserScores struct {
	Name      string `json:"name"`
	Scores    []int  `json:"scores"`
	BestScore int    `json:"bestScore"`
}

// Submission echoes an accepted score.
type Submission struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Client is an HTTP client for the scoreboard API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the backend at baseURL. A nil hc uses a
// client with a 10 second timeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// SubmitScore records a finished run for name.
func (c *Client) SubmitScore(ctx context.Context, name string, score int) (Submission, error) {
	var out Submission
	err := c.do(ctx, http.MethodPost, "/scores", Submission{Name: name, Score: score}, http.StatusCreated, &out)
	return out, err
}

// UserScores returns the score history of name.
func (c *Client) UserScores(ctx context.Context, name string) (UserScores, error) {
	var out UserScores
	err := c.do(ctx, http.MethodGet, "/scores/"+url.PathEscape(name), nil, http.StatusOK, &out)
	return out, err
}

// Leaderboard returns every player's best score, highest first.
func (c *Client) Leaderboard(ctx context.Context) ([]Entry, error) {
	var out []Entry
	err := c.do(ctx, http.MethodGet, "/scores", nil, http.StatusOK, &out)
	return out, err
}

// Register creates a user.
func (c *Client) Register(ctx context.Context, name, password string) error {
	return c.do(ctx, http.MethodPost, "/users", credentials{Name: name, Password: password}, http.StatusCreated, nil)
}

// Login checks credentials and returns the issued token.
func (c *Client) Login(ctx context.Context, name, password string) (string, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", credentials{Name: name, Password: password}, http.StatusOK, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &StatusError{Code: resp.StatusCode, Message: eb.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
