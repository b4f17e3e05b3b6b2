// ABOUTME: Request and response shapes for URL discovery and summary endpoints
// ABOUTME: Carries the inbound defaults and validation shared by GET and POST forms

package models

import "fmt"

// Inbound defaults.
const (
	DefaultMaxDocs        = 15
	DefaultPerDocMaxChars = 40000
)

// URLsRequest asks for the document URLs of one appointment page.
type URLsRequest struct {
	PatientID string `json:"patient_id"`
	PageNo    int    `json:"page_no"`
}

// SummaryRequest asks for a patient journey summary.
type SummaryRequest struct {
	PatientID      string `json:"patient_id"`
	PageNo         int    `json:"page_no"`
	MaxDocs        int    `json:"max_docs"`
	PerDocMaxChars int    `json:"per_doc_max_chars"`
}

// NewSummaryRequest returns a request with the inbound defaults applied.
func NewSummaryRequest(patientID string) SummaryRequest {
	return SummaryRequest{
		PatientID:      patientID,
		MaxDocs:        DefaultMaxDocs,
		PerDocMaxChars: DefaultPerDocMaxChars,
	}
}

// Validate checks the request against the inbound contract. maxDocsLimit caps
// max_docs when positive.
func (r *SummaryRequest) Validate(maxDocsLimit int) error {
	if r.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if r.PageNo < 0 {
		return fmt.Errorf("page_no must be >= 0, got %d", r.PageNo)
	}
	if r.MaxDocs < 1 {
		return fmt.Errorf("max_docs must be >= 1, got %d", r.MaxDocs)
	}
	if maxDocsLimit > 0 && r.MaxDocs > maxDocsLimit {
		return fmt.Errorf("max_docs must be <= %d, got %d", maxDocsLimit, r.MaxDocs)
	}
	if r.PerDocMaxChars < 1 {
		return fmt.Errorf("per_doc_max_chars must be >= 1, got %d", r.PerDocMaxChars)
	}
	return nil
}

// URLsResponse lists discovered document URLs.
type URLsResponse struct {
	PatientID string   `json:"patient_id"`
	Count     int      `json:"count"`
	URLs      []string `json:"urls"`
	RawSample []string `json:"raw_sample,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse reports backend readiness.
type HealthResponse struct {
	OK              bool   `json:"ok"`
	RecordsAPI      string `json:"records_api"`
	SummaryProvider string `json:"summary_provider"`
	SummaryBackend  string `json:"summary_backend"`
	DemoMode        bool   `json:"demo_mode"`
}
