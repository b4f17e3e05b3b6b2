// ABOUTME: HTTP handlers for document URL discovery and patient journey summaries
// ABOUTME: Accepts both JSON bodies (POST) and query parameters (GET)

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/clinicflow/patient-journey/backend/middleware"
	"github.com/clinicflow/patient-journey/backend/models"
	"github.com/clinicflow/patient-journey/backend/services"
)

// maxBodyBytes bounds inbound JSON bodies.
const maxBodyBytes = 1 << 20

// PrescriptionURLs lists document URLs for a patient page. raw_sample is only
// included on POST.
func (h *Handler) PrescriptionURLs(w http.ResponseWriter, r *http.Request) {
	var req models.URLsRequest
	switch r.Method {
	case http.MethodPost:
		if err := decodeBody(w, r, &req); err != nil {
			h.writeError(w, "Invalid JSON", err.Error(), http.StatusBadRequest)
			return
		}
	default:
		q := r.URL.Query()
		req.PatientID = q.Get("patient_id")
		pageNo, err := queryInt(q, "page_no", 0)
		if err != nil {
			h.writeError(w, "Invalid query parameter", err.Error(), http.StatusBadRequest)
			return
		}
		req.PageNo = pageNo
	}

	if err := services.ValidatePatientID(req.PatientID); err != nil {
		h.writeError(w, "Invalid patient_id", err.Error(), http.StatusBadRequest)
		return
	}
	if req.PageNo < 0 {
		h.writeError(w, "Invalid page_no", fmt.Sprintf("page_no must be >= 0, got %d", req.PageNo), http.StatusBadRequest)
		return
	}

	resp, err := h.journeys.DiscoverURLs(r.Context(), req.PatientID, req.PageNo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if r.Method != http.MethodPost {
		resp.RawSample = nil
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// PatientSummary runs the summary pipeline. Model failures still answer 200
// with a labelled fallback; only listing failures become error statuses.
func (h *Handler) PatientSummary(w http.ResponseWriter, r *http.Request) {
	req := models.NewSummaryRequest("")
	switch r.Method {
	case http.MethodPost:
		if err := decodeBody(w, r, &req); err != nil {
			h.writeError(w, "Invalid JSON", err.Error(), http.StatusBadRequest)
			return
		}
	default:
		if err := summaryRequestFromQuery(r.URL.Query(), &req); err != nil {
			h.writeError(w, "Invalid query parameter", err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := req.Validate(h.cfg.MaxDocsLimit); err != nil {
		h.writeError(w, "Invalid summary request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := services.ValidatePatientID(req.PatientID); err != nil {
		h.writeError(w, "Invalid patient_id", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.journeys.Summarize(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	attrs := []any{
		"request_id", middleware.RequestID(r.Context()),
		"patient_id", req.PatientID,
		"ingested_docs", result.IngestedDocs,
		"source_count", result.SourceCount,
	}
	if result.Debug != nil {
		attrs = append(attrs, "source", result.Debug.Source, "reason", result.Debug.Reason)
	}
	slog.Info("Patient summary served", attrs...)

	h.writeJSON(w, http.StatusOK, result)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func summaryRequestFromQuery(q url.Values, req *models.SummaryRequest) error {
	req.PatientID = q.Get("patient_id")

	var err error
	if req.PageNo, err = queryInt(q, "page_no", req.PageNo); err != nil {
		return err
	}
	if req.MaxDocs, err = queryInt(q, "max_docs", req.MaxDocs); err != nil {
		return err
	}
	if req.PerDocMaxChars, err = queryInt(q, "per_doc_max_chars", req.PerDocMaxChars); err != nil {
		return err
	}
	return nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}
