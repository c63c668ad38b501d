package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"stylestudio/internal/jobs"
	"stylestudio/internal/middleware"
)

// multipartSlack covers form boundaries and the style field on top of the
// image itself.
const multipartSlack = 1 << 20

type App struct {
	Jobs           *jobs.Orchestrator
	Logger         zerolog.Logger
	MaxUploadBytes int64
	Engine         string
	Started        time.Time
}

func NewApp(orch *jobs.Orchestrator, logger zerolog.Logger, maxUploadBytes int64, engine string) *App {
	return &App{
		Jobs:           orch,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
		Engine:         engine,
		Started:        time.Now(),
	}
}

type errorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string, hint ...string) {
	body := errorResponse{Error: code, Message: message}
	if len(hint) > 0 {
		body.Hint = hint[0]
	}
	a.json(w, status, body)
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) requestLogger(r *http.Request) *zerolog.Logger {
	log := a.Logger.With().
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("owner_id", a.currentUserID(r)).
		Logger()
	return &log
}

func (a *App) uploadLimitMB() int64 {
	return (a.MaxUploadBytes + 1<<20 - 1) >> 20
}
