// ABOUTME: HTTP client for the Patient Journey backend API
// ABOUTME: Wraps API calls with proper error handling for CLI usage

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the API client for the Patient Journey backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the given base URL. The timeout covers
// model calls plus document downloads.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// HealthResponse represents the /api/health endpoint response
type HealthResponse struct {
	OK              bool   `json:"ok"`
	RecordsAPI      string `json:"records_api"`
	SummaryProvider string `json:"summary_provider"`
	SummaryBackend  string `json:"summary_backend"`
	DemoMode        bool   `json:"demo_mode"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Code       int    `json:"code"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// URLsResponse lists discovered document URLs for one appointment page
type URLsResponse struct {
	PatientID string   `json:"patient_id"`
	Count     int      `json:"count"`
	URLs      []string `json:"urls"`
}

// SummaryRequest selects the patient page and document budget for a summary.
// Zero values leave the backend defaults in place.
type SummaryRequest struct {
	PatientID      string
	PageNo         int
	MaxDocs        int
	PerDocMaxChars int
}

// TimelineEntry is one dated event in the journey
type TimelineEntry struct {
	Date    *string `json:"date"`
	Title   string  `json:"title"`
	Details string  `json:"details"`
}

// MentalState is the traffic-light well-being estimate
type MentalState struct {
	Color       string  `json:"color"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// SummaryDebug tells model output apart from fallbacks
type SummaryDebug struct {
	Source string `json:"source"`
	Note   string `json:"note,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// SummaryResult represents the /api/patient-summary response
type SummaryResult struct {
	PatientID            string          `json:"patient_id"`
	Summary              string          `json:"summary"`
	Timeline             []TimelineEntry `json:"timeline"`
	KeyFindings          []string        `json:"key_findings"`
	MedicationsMentioned []string        `json:"medications_mentioned"`
	FollowupsOrActions   []string        `json:"followups_or_actions"`
	MentalState          MentalState     `json:"mental_state"`
	IngestedDocs         int             `json:"_ingested_docs"`
	SourceCount          int             `json:"_source_count"`
	Debug                *SummaryDebug   `json:"debug,omitempty"`

	// Raw is the response body as received
	Raw json.RawMessage `json:"-"`
}

// IsFallback reports whether the backend substituted a canned summary
func (r *SummaryResult) IsFallback() bool {
	return r.Debug != nil && r.Debug.Source == "fallback"
}

// Health calls the /api/health endpoint
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if _, err := c.get(ctx, "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// URLs calls GET /api/prescription-urls
func (c *Client) URLs(ctx context.Context, patientID string, pageNo int) (*URLsResponse, error) {
	q := url.Values{}
	q.Set("patient_id", patientID)
	q.Set("page_no", strconv.Itoa(pageNo))

	var urls URLsResponse
	if _, err := c.get(ctx, "/api/prescription-urls", q, &urls); err != nil {
		return nil, err
	}
	return &urls, nil
}

// Summary calls GET /api/patient-summary
func (c *Client) Summary(ctx context.Context, in SummaryRequest) (*SummaryResult, error) {
	q := url.Values{}
	q.Set("patient_id", in.PatientID)
	q.Set("page_no", strconv.Itoa(in.PageNo))
	if in.MaxDocs > 0 {
		q.Set("max_docs", strconv.Itoa(in.MaxDocs))
	}
	if in.PerDocMaxChars > 0 {
		q.Set("per_doc_max_chars", strconv.Itoa(in.PerDocMaxChars))
	}

	var result SummaryResult
	raw, err := c.get(ctx, "/api/patient-summary", q, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// get issues a GET and decodes a 200 body into dst, returning the raw body.
func (c *Client) get(ctx context.Context, path string, query url.Values, dst interface{}) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	return body, nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	switch {
	case errResp.RetryAfter > 0:
		return fmt.Errorf("backend error: %s (retry after %ds)", errResp.Error, errResp.RetryAfter)
	case errResp.Details != "":
		return fmt.Errorf("backend error: %s: %s", errResp.Error, errResp.Details)
	default:
		return fmt.Errorf("backend error: %s", errResp.Error)
	}
}
