package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	rec := httptest.NewRecorder()
	Error(rec, req, logger, http.StatusBadRequest, "target is required", "WHY: empty target")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] != "target is required" || body["status"] != float64(400) {
		t.Errorf("body = %v", body)
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "path=/api/entries") {
		t.Errorf("log = %q, want warn line with path", logs.String())
	}
}

func TestServerErrorHidesCause(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	rec := httptest.NewRecorder()
	ServerError(rec, req, logger, "failed to save entry", "WHY: write failed", errors.New("open /secret/path: permission denied"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "/secret/path") {
		t.Error("response must not leak the underlying error")
	}
	if !strings.Contains(logs.String(), "/secret/path") {
		t.Error("log should carry the underlying error")
	}
}
