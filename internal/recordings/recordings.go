// Package recordings relays the recorder's live status to the browser.
//
// The recorder is a separate process exposing a JSON status endpoint. Its
// URL comes from the startup INI file; the response body is passed through
// unmodified.
package recordings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/farwmarth/liveedit/internal/config"
	"github.com/farwmarth/liveedit/internal/httputil"
)

// maxBody caps how much of the recorder's response is read.
const maxBody = 4 << 20

// ErrNoURL is returned when the startup file has no recorder URL.
var ErrNoURL = errors.New("URL not found in config")

// UpstreamError describes a failed status request.
type UpstreamError struct {
	Timeout bool  // the request hit the client timeout
	Status  int   // non-2xx status from the recorder, 0 otherwise
	Err     error // underlying cause, may be nil for status errors
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("recorder request timed out: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("recorder returned %d", e.Status)
	default:
		return fmt.Sprintf("recorder request failed: %v", e.Err)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Proxy fetches recording status from the recorder.
type Proxy struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// New creates a Proxy from the startup configuration.
func New(startup *config.Startup, logger *slog.Logger) *Proxy {
	timeout := startup.RecorderTimeout
	if timeout <= 0 {
		timeout = config.DefaultRecorderTimeout
	}
	return &Proxy{
		url:    startup.RecorderURL,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// URL returns the configured recorder URL.
func (p *Proxy) URL() string {
	return p.url
}

// Fetch performs one status request and returns the raw JSON body.
// There are no retries.
func (p *Proxy) Fetch(ctx context.Context) (json.RawMessage, error) {
	if p.url == "" {
		return nil, ErrNoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &UpstreamError{Timeout: isTimeout(err), Err: err}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{Err: errors.New("response is not valid JSON")}
	}

	p.logger.Debug("recorder status fetched", "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	return json.RawMessage(body), nil
}

// Recordings handles GET /api/recordings.
func (p *Proxy) Recordings(w http.ResponseWriter, r *http.Request) {
	data, err := p.Fetch(r.Context())
	if err != nil {
		var ue *UpstreamError
		switch {
		case errors.Is(err, ErrNoURL):
			httputil.Error(w, r, p.logger, http.StatusBadRequest, ErrNoURL.Error(),
				"WHY: startup file has no url key")
		case errors.As(err, &ue) && ue.Timeout:
			httputil.ServerError(w, r, p.logger, "recording service timed out",
				"WHY: recorder did not answer within the client timeout", err)
		case errors.As(err, &ue) && ue.Status != 0:
			httputil.Error(w, r, p.logger, ue.Status, fmt.Sprintf("recording service returned %d", ue.Status),
				"WHY: recorder answered with a non-success status")
		default:
			httputil.ServerError(w, r, p.logger, "failed to fetch recordings",
				"WHY: recorder unreachable or returned an unusable body", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Health checks if the recorder is reachable.
func (p *Proxy) Health(ctx context.Context) error {
	if p.url == "" {
		return ErrNoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("recorder unreachable: %w", err)
	}
	// Drain so the connection goes back to the pool.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	resp.Body.Close()
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
