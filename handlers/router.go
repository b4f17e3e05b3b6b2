// ABOUTME: Builds the HTTP mux from the route table with logging, CORS, and rate limiting
// ABOUTME: Shared by main and the end-to-end tests so both serve the same stack

package handlers

import (
	"net/http"

	"github.com/clinicflow/patient-journey/backend/middleware"
)

// NewRouter registers every route on a fresh ServeMux. limiter may be nil to
// leave the summary routes unlimited.
func NewRouter(h *Handler, limiter *middleware.SummaryLimiter, allowedOrigins []string) *http.ServeMux {
	cors := middleware.CORSWithConfig(allowedOrigins)

	var summaryLimit middleware.Middleware
	if limiter != nil {
		summaryLimit = middleware.LimitSummaries(limiter, middleware.SummaryClient)
	}

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		var limit middleware.Middleware
		if route.Limited {
			limit = summaryLimit
		}
		mux.HandleFunc(route.Pattern(), middleware.Chain(route.Handler, middleware.LogRequest, cors, limit))
	}
	// Preflight requests carry no route method of their own
	mux.HandleFunc("OPTIONS /", middleware.Chain(func(w http.ResponseWriter, r *http.Request) {}, cors))

	return mux
}
