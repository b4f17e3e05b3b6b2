// ABOUTME: HTTP handlers for liveness and readiness endpoints
// ABOUTME: Reports records API target and which summarization backend is active

package handlers

import (
	"net/http"

	"github.com/clinicflow/patient-journey/backend/models"
)

// Healthz is the bare liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Health reports configuration-level readiness. It makes no upstream calls.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		OK:              true,
		RecordsAPI:      h.cfg.EkaBaseURL,
		SummaryProvider: h.cfg.SummaryProvider,
		SummaryBackend:  "unavailable",
		DemoMode:        h.cfg.DemoMode,
	}
	if h.journeys != nil {
		resp.SummaryBackend = h.journeys.BackendName()
		resp.DemoMode = h.journeys.DemoMode()
	}

	h.writeJSON(w, http.StatusOK, resp)
}
