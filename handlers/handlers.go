// ABOUTME: HTTP handlers for the patient journey API
// ABOUTME: Shared handler state, JSON response helpers, and error-to-status mapping

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clinicflow/patient-journey/backend/config"
	"github.com/clinicflow/patient-journey/backend/middleware"
	"github.com/clinicflow/patient-journey/backend/models"
	"github.com/clinicflow/patient-journey/backend/services"
)

// JourneyService is the pipeline the handlers drive. *services.Orchestrator
// satisfies it.
type JourneyService interface {
	DiscoverURLs(ctx context.Context, patientID string, pageNo int) (*models.URLsResponse, error)
	Summarize(ctx context.Context, req models.SummaryRequest) (*models.SummaryResult, error)
	BackendName() string
	DemoMode() bool
}

type Handler struct {
	cfg      *config.Config
	journeys JourneyService
}

// NewHandler creates a handler. cfg may be nil in tests; defaults are used.
func NewHandler(cfg *config.Config, journeys JourneyService) *Handler {
	if cfg == nil {
		cfg = &config.Config{
			EkaBaseURL:      "https://api.eka.care",
			SummaryProvider: "gemini",
			MaxDocsLimit:    50,
		}
	}
	return &Handler{
		cfg:      cfg,
		journeys: journeys,
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response in the API's JSON error format.
func (h *Handler) writeError(w http.ResponseWriter, message, details string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{
		Error:   message,
		Details: details,
		Code:    code,
	})
}

// writeServiceError maps pipeline errors onto HTTP statuses. Upstream statuses
// pass through; auth and malformed-listing failures are gateway errors.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var upErr *services.UpstreamError
	var authErr *services.AuthError

	switch {
	case errors.As(err, &upErr):
		status := upErr.StatusCode
		if status < 400 {
			// a 2xx/3xx other than 200 is still not a listing
			status = http.StatusBadGateway
		}
		h.writeError(w, "Records API request failed", upErr.Body, status)
	case errors.Is(err, services.ErrBadGateway):
		h.writeError(w, "Records API returned an invalid response", err.Error(), http.StatusBadGateway)
	case errors.As(err, &authErr):
		h.writeError(w, "Authentication with records API failed", authErr.Error(), http.StatusBadGateway)
	default:
		slog.Error("Unhandled request error",
			"request_id", middleware.RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		h.writeError(w, "Internal server error", "", http.StatusInternalServerError)
	}
}
