package api

import (
	"net/http"
	"strconv"

	"github.com/farwmarth/liveedit/internal/httputil"
	"github.com/farwmarth/liveedit/internal/journal"
)

// handleHistory serves GET /api/history?limit=.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.journal.Enabled() {
		httputil.Error(w, r, s.logger, http.StatusNotImplemented, "change journal is disabled",
			"WHY: LIVEEDIT_JOURNAL_PATH is not set")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.Error(w, r, s.logger, http.StatusBadRequest, "limit must be a non-negative integer",
				"WHY: strconv.Atoi failed on limit query parameter")
			return
		}
		limit = n
	}

	changes, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		httputil.ServerError(w, r, s.logger, "failed to read change journal",
			"WHY: SQLite query failed", err)
		return
	}
	if changes == nil {
		changes = []journal.Change{}
	}
	httputil.JSON(w, http.StatusOK, changes)
}

// handleEvents serves GET /api/events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		httputil.Error(w, r, s.logger, http.StatusNotImplemented, "file watcher is disabled",
			"WHY: LIVEEDIT_WATCH=false or the watcher failed to start")
		return
	}
	s.watcher.SSEHandler()(w, r)
}
