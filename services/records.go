// ABOUTME: Records API client for a patient's appointment listing
// ABOUTME: Authenticates via TokenManager and collapses identical concurrent fetches

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

const appointmentsPath = "/dr/v1/appointment"

// RecordsClient fetches appointment listings from the records API.
type RecordsClient struct {
	baseURL string
	tokens  *TokenManager
	client  *http.Client
	sfGroup singleflight.Group
}

// NewRecordsClient creates a records client that authenticates through tokens.
func NewRecordsClient(baseURL string, tokens *TokenManager) *RecordsClient {
	return &RecordsClient{
		baseURL: baseURL,
		tokens:  tokens,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (c *RecordsClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// FetchAppointments returns the raw JSON listing for a patient page. Concurrent
// calls for the same patient and page share one upstream request. The shared
// request is detached from any single caller's cancellation and bounded by the
// client timeout; each caller still returns as soon as its own ctx is done.
func (c *RecordsClient) FetchAppointments(ctx context.Context, patientID string, pageNo int) ([]byte, error) {
	key := patientID + "|" + strconv.Itoa(pageNo)
	ch := c.sfGroup.DoChan(key, func() (interface{}, error) {
		return c.fetchAppointments(context.WithoutCancel(ctx), patientID, pageNo)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("Appointment listing shared with concurrent request", "patient_id", patientID)
		}
		return res.Val.([]byte), nil
	}
}

func (c *RecordsClient) fetchAppointments(ctx context.Context, patientID string, pageNo int) ([]byte, error) {
	auth, err := c.tokens.AuthHeader(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("patient_id", patientID)
	params.Set("page_no", strconv.Itoa(pageNo))
	endpoint := c.baseURL + appointmentsPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create appointments request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read appointments response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(body), 500)}
	}
	if !json.Valid(body) {
		return nil, ErrBadGateway
	}
	return body, nil
}
