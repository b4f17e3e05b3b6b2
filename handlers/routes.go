// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods, handlers, and whether they are rate limited

package handlers

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path (e.g., "/api/health")
	Handler http.HandlerFunc // Handler function
	Limited bool             // subject to the summary rate limit
}

// Pattern returns the ServeMux pattern, e.g. "GET /api/health".
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health & Status
		{Method: http.MethodGet, Path: "/healthz", Handler: h.Healthz},
		{Method: http.MethodGet, Path: "/api/health", Handler: h.Health},

		// Discovery
		{Method: http.MethodGet, Path: "/api/prescription-urls", Handler: h.PrescriptionURLs},
		{Method: http.MethodPost, Path: "/api/prescription-urls", Handler: h.PrescriptionURLs},

		// Summaries
		{Method: http.MethodGet, Path: "/api/patient-summary", Handler: h.PatientSummary, Limited: true},
		{Method: http.MethodPost, Path: "/api/patient-summary", Handler: h.PatientSummary, Limited: true},
	}
}
