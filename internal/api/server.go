// Package api serves the JSON API and the embedded UI.
package api

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/farwmarth/liveedit/internal/httputil"
	"github.com/farwmarth/liveedit/internal/journal"
	"github.com/farwmarth/liveedit/internal/linestore"
	"github.com/farwmarth/liveedit/internal/ratelimit"
	"github.com/farwmarth/liveedit/internal/recordings"
	"github.com/farwmarth/liveedit/internal/watcher"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Deps are the collaborators a Server needs. Journal, Watcher and Limiter
// may be nil.
type Deps struct {
	Store     *linestore.Store
	Proxy     *recordings.Proxy
	Journal   *journal.Journal
	Watcher   *watcher.Watcher
	Limiter   *ratelimit.Limiter
	UI        fs.FS
	Logger    *slog.Logger
	Version   string
	AccessLog bool
}

// Server routes API requests onto the store, the recorder proxy and the
// journal.
type Server struct {
	store     *linestore.Store
	proxy     *recordings.Proxy
	journal   *journal.Journal
	watcher   *watcher.Watcher
	limiter   *ratelimit.Limiter
	ui        fs.FS
	logger    *slog.Logger
	version   string
	accessLog bool
}

// New creates a Server.
func New(d Deps) *Server {
	return &Server{
		store:     d.Store,
		proxy:     d.Proxy,
		journal:   d.Journal,
		watcher:   d.Watcher,
		limiter:   d.Limiter,
		ui:        d.UI,
		logger:    d.Logger,
		version:   d.Version,
		accessLog: d.AccessLog,
	}
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/entries", s.handleList)
	mux.HandleFunc("POST /api/entries", s.handleAdd)
	mux.HandleFunc("POST /api/entries/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/entries/toggle-target", s.handleToggleTarget)
	mux.HandleFunc("POST /api/entries/delete", s.handleDelete)
	mux.HandleFunc("POST /api/entries/modify", s.handleModify)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/recordings", s.proxy.Recordings)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.ui != nil {
		mux.Handle("GET /", http.FileServer(http.FS(s.ui)))
	}

	return s.withAccessLog(secure(s.limiter.Middleware(mux)))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":       "ok",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"version":      s.version,
		"entries_file": "ok",
		"recorder":     "unknown",
		"journal":      s.journal.Enabled(),
		"watcher":      s.watcher != nil,
	}

	if _, err := os.Stat(s.store.Path()); err != nil {
		status["entries_file"] = "missing"
		status["status"] = "degraded"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	switch err := s.proxy.Health(ctx); {
	case err == nil:
		status["recorder"] = "connected"
	case errors.Is(err, recordings.ErrNoURL):
		status["recorder"] = "not configured"
	default:
		status["recorder"] = "unreachable"
	}

	if r.URL.Query().Has("diag") {
		status["diagnostics"] = map[string]any{
			"entries_path": s.store.Path(),
			"recorder_url": s.proxy.URL(),
			"access_log":   s.accessLog,
			"write_limit":  s.limiter.Enabled(),
		}
	}

	httputil.JSON(w, http.StatusOK, status)
}
