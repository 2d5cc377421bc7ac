// Package api exposes a board over HTTP.
package api

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
)

// Config configures the HTTP surface.
type Config struct {
	// AllowedOrigins enables CORS for browser front ends. Empty disables it.
	AllowedOrigins []string
	Logger         *slog.Logger
	// Sink receives /backup requests. Nil makes /backup fail.
	Sink board.Sink
	// EventBuffer is the per-client queue for /events.
	EventBuffer int
}

// Handler serves one board.
type Handler struct {
	board  *board.Board
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	drags map[string]*board.Drag
	seq   uint64
}

// NewRouter builds the chi router for b.
func NewRouter(b *board.Board, cfg Config) http.Handler {
	return newHandler(b, cfg).routes()
}

func newHandler(b *board.Board, cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{board: b, cfg: cfg, logger: cfg.Logger, drags: make(map[string]*board.Drag)}
}

func (h *Handler) routes() http.Handler {
	cfg := h.cfg
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(changeReason)

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", ChangeReasonHeader},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/state", h.State)
	r.Get("/events", h.Events)

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.AddNote)
		r.Delete("/", h.ClearNotes)

		r.Get("/{id}", h.GetNote)
		r.Patch("/{id}", h.UpdateNote)
		r.Delete("/{id}", h.RemoveNote)
		r.Put("/{id}/size", h.Resize)
		r.Post("/{id}/expand", h.ToggleExpanded)
		r.Post("/{id}/drag", h.BeginDrag)
	})

	r.Route("/drags/{drag}", func(r chi.Router) {
		r.Post("/move", h.MoveDrag)
		r.Post("/release", h.ReleaseDrag)
	})

	r.Get("/viewport", h.GetViewport)
	r.Put("/viewport", h.SetViewport)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", h.ListSnapshots)
		r.Post("/", h.CaptureSnapshot)
		r.Post("/save", h.SaveBoard)
		r.Get("/current", h.CurrentSnapshot)
		r.Get("/{id}", h.GetSnapshot)
		r.Patch("/{id}", h.RenameSnapshot)
		r.Delete("/{id}", h.DeleteSnapshot)
		r.Post("/{id}/restore", h.RestoreSnapshot)
	})

	r.Get("/export", h.Export)
	r.Post("/backup", h.Backup)

	return r
}

// ChangeReasonHeader carries the commit message for versioned stores.
const ChangeReasonHeader = "X-Change-Reason"

func changeReason(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := r.Header.Get(ChangeReasonHeader); reason != "" {
			r = r.WithContext(core.WithChangeReason(r.Context(), reason))
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
