// Package httputil provides centralized HTTP JSON responses for liveedit.
//
// Every HTTP error response goes through this package so that errors are
// always logged with request context and always reach the browser as JSON
// of the form {"error": "...", "status": N}.
//
// Usage:
//
//	httputil.Error(w, r, logger, http.StatusBadRequest, "target is required",
//	    "WHY: add request had an empty target field")
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error writes a JSON error response and logs it with the request's method,
// path and remote address.
//
// The 'reason' parameter is returned to the client. The 'why' parameter is
// logged only. Client errors (4xx) log at warn level, everything else at error.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, reason string, why string) {
	level := slog.LevelError
	if status >= 400 && status < 500 {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, reason,
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
		"why", why,
	)
	writeError(w, status, reason)
}

// ServerError is a convenience for 500 Internal Server Error. The cause is
// logged but never sent to the client; it may contain filesystem paths.
func ServerError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string, why string, err error) {
	logger.Error(reason,
		"status", http.StatusInternalServerError,
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
		"why", why,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, reason)
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	JSON(w, status, map[string]any{
		"error":  reason,
		"status": status,
	})
}
