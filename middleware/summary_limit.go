// ABOUTME: Sliding-window budget for the summary routes, one log of start times per client
// ABOUTME: A client that spends its budget gets 429 until its oldest summary leaves the window

package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// compactEvery is how many admissions pass between drops of idle clients.
const compactEvery = 256

// SummaryLimiter admits at most budget summaries per client in any window.
type SummaryLimiter struct {
	budget int
	window time.Duration
	now    func() time.Time

	mu         sync.Mutex
	starts     map[string][]time.Time
	admissions int
}

// NewSummaryLimiter allows budget summaries per client in any span of window.
func NewSummaryLimiter(budget int, window time.Duration) *SummaryLimiter {
	return &SummaryLimiter{
		budget: budget,
		window: window,
		now:    time.Now,
		starts: make(map[string][]time.Time),
	}
}

// Admit records a summary start for client when budget remains. Otherwise it
// reports how long until the oldest start in the window ages out.
func (l *SummaryLimiter) Admit(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	live := l.live(client, now)

	if len(live) >= l.budget {
		l.starts[client] = live
		return false, live[0].Add(l.window).Sub(now)
	}

	l.starts[client] = append(live, now)
	l.admissions++
	if l.admissions%compactEvery == 0 {
		l.compact(now)
	}
	return true, 0
}

// live drops start times that have left the window. Caller holds l.mu.
func (l *SummaryLimiter) live(client string, now time.Time) []time.Time {
	stamps := l.starts[client]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

// compact forgets clients with nothing left in the window. Caller holds l.mu.
func (l *SummaryLimiter) compact(now time.Time) {
	for client := range l.starts {
		if len(l.live(client, now)) == 0 {
			delete(l.starts, client)
		}
	}
}

// Clients returns how many clients are currently tracked.
func (l *SummaryLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.starts)
}

// SummaryClient identifies the caller by the first X-Forwarded-For address,
// falling back to the connection's remote host. Only deploy behind a proxy
// that overwrites X-Forwarded-For.
func SummaryClient(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// LimitSummaries wraps a summary handler with limiter. A nil limiter or a
// request with no identifiable client passes straight through.
func LimitSummaries(limiter *SummaryLimiter, clientOf func(*http.Request) string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil || clientOf == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			client := clientOf(r)
			if client == "" {
				next(w, r)
				return
			}
			ok, wait := limiter.Admit(client)
			if ok {
				next(w, r)
				return
			}

			seconds := int(math.Ceil(wait.Seconds()))
			slog.Warn("Summary budget exhausted",
				"client", client,
				"path", sanitizePath(r.URL.Path),
				"retry_after", seconds,
				"request_id", RequestID(r.Context()),
			)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSONError(w, errorBody{
				Error:      "Rate limit exceeded",
				Details:    fmt.Sprintf("Summaries are limited to %d per %s; retry in %ds", limiter.budget, limiter.window, seconds),
				Code:       http.StatusTooManyRequests,
				RetryAfter: seconds,
			})
		}
	}
}
