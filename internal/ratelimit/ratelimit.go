// Package ratelimit throttles entry mutations per client address. Reads are
// never limited; the panel polls constantly.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/farwmarth/liveedit/internal/httputil"
)

// Limiter allows up to limit mutating requests per client per window.
// A nil or zero-limit Limiter allows everything.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	limit   int
	window  time.Duration
	exempt  []*net.IPNet
	logger  *slog.Logger
}

type bucket struct {
	left    int
	resetAt time.Time
}

// New creates a Limiter. exempt holds IPs or CIDRs that are never limited;
// unparsable items are logged and skipped.
func New(limit int, window time.Duration, exempt []string, logger *slog.Logger) *Limiter {
	l := &Limiter{
		clients: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		logger:  logger,
	}
	for _, item := range exempt {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.Contains(item, "/") {
			if ip := net.ParseIP(item); ip != nil && ip.To4() != nil {
				item += "/32"
			} else {
				item += "/128"
			}
		}
		_, network, err := net.ParseCIDR(item)
		if err != nil {
			logger.Warn("ignoring invalid rate limit exemption", "value", item, "error", err)
			continue
		}
		l.exempt = append(l.exempt, network)
	}
	return l
}

// Enabled reports whether the limiter does anything.
func (l *Limiter) Enabled() bool {
	return l != nil && l.limit > 0
}

// Allow spends one token for remote (host or host:port).
func (l *Limiter) Allow(remote string) bool {
	if !l.Enabled() {
		return true
	}
	host := clientHost(remote)
	if l.isExempt(host) {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.clients[host]
	if !ok || !now.Before(b.resetAt) {
		l.clients[host] = &bucket{left: l.limit - 1, resetAt: now.Add(l.window)}
		return true
	}
	if b.left > 0 {
		b.left--
		return true
	}
	return false
}

// Middleware answers 429 to mutating requests over the limit.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if !l.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isRead(r.Method) || l.Allow(r.RemoteAddr) {
			next.ServeHTTP(w, r)
			return
		}
		httputil.Error(w, r, l.logger, http.StatusTooManyRequests, "too many changes, slow down",
			"WHY: client exceeded LIVEEDIT_WRITE_LIMIT")
	})
}

// Sweep drops clients whose window ended before now.
func (l *Limiter) Sweep(now time.Time) {
	if !l.Enabled() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for host, b := range l.clients {
		if now.After(b.resetAt) {
			delete(l.clients, host)
		}
	}
}

// Run sweeps once per window until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	if !l.Enabled() {
		return
	}
	t := time.NewTicker(l.window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.Sweep(now)
		}
	}
}

func (l *Limiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) isExempt(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range l.exempt {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func clientHost(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
