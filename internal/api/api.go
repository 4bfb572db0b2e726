// Package api exposes the scoreboard over HTTP with JSON bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/tomz197/respace/internal/score"
	"github.com/tomz197/respace/internal/scoreboard"
)

// Scoreboard is the backend the handlers call.
type Scoreboard interface {
	Register(ctx context.Context, name, password string) (scoreboard.UserInfo, error)
	User(ctx context.Context, name string) (scoreboard.UserInfo, error)
	Login(ctx context.Context, name, password string) (scoreboard.Login, error)
	Scores(ctx context.Context, name string) (score.UserScores, error)
	Leaderboard(ctx context.Context) ([]score.Entry, error)
	Submit(ctx context.Context, name string, value *int) (score.Submission, error)
}

// Options configures the router.
type Options struct {
	Logger  *log.Logger
	Landing http.Handler // Served at GET /; nil disables it
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

type handlers struct {
	board Scoreboard
	log   *log.Logger
}

// NewRouter returns the API routes.
func NewRouter(board Scoreboard, opts Options) *mux.Router {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	h := &handlers{board: board, log: opts.Logger}

	r := mux.NewRouter()
	r.Use(requestLogger(opts.Logger))

	r.HandleFunc("/users", h.register).Methods(http.MethodPost)
	r.HandleFunc("/users/{name}", h.user).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/scores", h.leaderboard).Methods(http.MethodGet)
	r.HandleFunc("/scores", h.submit).Methods(http.MethodPost)
	r.HandleFunc("/scores/{name}", h.scores).Methods(http.MethodGet)
	r.HandleFunc("/healthz", health).Methods(http.MethodGet)
	if opts.Landing != nil {
		r.Handle("/", opts.Landing).Methods(http.MethodGet)
	}
	return r
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type scoreRequest struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	info, err := h.board.Register(r.Context(), req.Name, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Name string `json:"name"`
	}{info.Name})
}

func (h *handlers) user(w http.ResponseWriter, r *http.Request) {
	info, err := h.board.User(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	login, err := h.board.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, login)
}

func (h *handlers) scores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.board.Scores(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.board.Leaderboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decode(w, r, &req) {
		return
	}
	sub, err := h.board.Submit(r.Context(), req.Name, req.Score)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v. On failure it writes a 400 and returns
// false.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request."})
		return false
	}
	return true
}

// writeError maps service errors onto status codes. Unauthorized responses
// carry no body.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	var vErr *scoreboard.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: vErr.Message})
	case errors.Is(err, scoreboard.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: scoreboard.ErrNotFound.Error()})
	case errors.Is(err, scoreboard.ErrConflict):
		writeJSON(w, http.StatusConflict, messageResponse{Message: scoreboard.ErrConflict.Error()})
	case errors.Is(err, scoreboard.ErrUnauthorized):
		w.WriteHeader(http.StatusUnauthorized)
	default:
		h.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal Server Error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// LandingPage serves page with every {{.SSHHost}} replaced by sshHost.
func LandingPage(page, sshHost string) http.Handler {
	rendered := strings.ReplaceAll(page, "{{.SSHHost}}", sshHost)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, rendered)
	})
}
