// ABOUTME: HTTP request logging middleware with correlation IDs.
// ABOUTME: Logs request start/end with method, path, status, and latency, and puts the ID on the context.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LogRequest logs HTTP requests with timing and correlation ID. A valid UUID
// in an inbound X-Request-ID header is reused so the UI and backend logs line up.
func LogRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := requestIDFrom(r)
		path := sanitizePath(r.URL.Path)

		w.Header().Set("X-Request-ID", requestID)

		slog.Info("Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", path,
		)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)

		next(wrapped, r.WithContext(ctx))

		slog.Info("Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", path,
			"status", wrapped.statusCode,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// RequestID returns the correlation ID set by LogRequest, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDFrom(r *http.Request) string {
	if inbound := r.Header.Get("X-Request-ID"); inbound != "" {
		if id, err := uuid.Parse(inbound); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}

// sanitizePath strips control characters so a crafted path cannot forge log lines.
func sanitizePath(path string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, path)
}
