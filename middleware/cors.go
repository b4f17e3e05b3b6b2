// ABOUTME: CORS middleware for the clinician UI origin allow-list
// ABOUTME: Echoes allowed origins and answers preflight OPTIONS without calling the handler

package middleware

import "net/http"

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Request-ID"
	corsMaxAge       = "600"
)

// CORSWithConfig returns middleware that only grants cross-origin access to
// the listed origins. An empty list blocks all cross-origin reads. Requests
// without an Origin header pass through untouched.
func CORSWithConfig(allowedOrigins []string) Middleware {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				w.Header().Add("Vary", "Origin")
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
					w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
					w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
					w.Header().Set("Access-Control-Max-Age", corsMaxAge)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next(w, r)
		}
	}
}
