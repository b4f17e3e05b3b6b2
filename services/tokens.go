// ABOUTME: Access/refresh token lifecycle for the records API
// ABOUTME: Serializes login and refresh behind one mutex so only one auth call is ever in flight

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	loginPath   = "/connect-auth/v1/account/login"
	refreshPath = "/connect-auth/v1/account/refresh-token"

	// tokenSafetyMargin treats a token as expired this long before it actually is.
	tokenSafetyMargin = 60 * time.Second

	defaultAccessTTL  = 600 * time.Second
	defaultRefreshTTL = 86400 * time.Second
)

// tokenState is replaced as a whole after every successful login or refresh.
type tokenState struct {
	accessToken   string
	refreshToken  string
	accessExpiry  time.Time
	refreshExpiry time.Time
}

type tokenResponse struct {
	AccessToken      string  `json:"access_token"`
	RefreshToken     string  `json:"refresh_token"`
	ExpiresIn        float64 `json:"expires_in"`
	RefreshExpiresIn float64 `json:"refresh_expires_in"`
}

// TokenManager owns the records API token pair. A single instance is shared by
// every request in the process.
type TokenManager struct {
	baseURL string
	creds   Credentials
	client  *http.Client
	now     func() time.Time

	mu    sync.Mutex
	state tokenState
}

// NewTokenManager creates a token manager. No network call is made until the
// first AccessToken call.
func NewTokenManager(baseURL string, creds Credentials) *TokenManager {
	return &TokenManager{
		baseURL: baseURL,
		creds:   creds,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (m *TokenManager) SetHTTPClient(client *http.Client) {
	m.client = client
}

// AccessToken returns a token valid for at least the safety margin, logging in
// or refreshing first when needed.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.state.accessToken != "" && m.state.accessExpiry.Sub(now) >= tokenSafetyMargin {
		return m.state.accessToken, nil
	}

	if m.state.refreshToken == "" || m.state.refreshExpiry.Sub(now) < tokenSafetyMargin {
		if err := m.login(ctx); err != nil {
			return m.staleOrFail(now, err)
		}
		return m.state.accessToken, nil
	}

	if err := m.refresh(ctx); err != nil {
		slog.Warn("Token refresh failed, falling back to login", "error", err)
		if err := m.login(ctx); err != nil {
			return m.staleOrFail(now, err)
		}
	}
	return m.state.accessToken, nil
}

// AuthHeader returns the Authorization header value for the records API.
func (m *TokenManager) AuthHeader(ctx context.Context) (string, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}

// staleOrFail hands back a token that is inside the margin but not yet expired
// when login fails; otherwise the login error is surfaced.
func (m *TokenManager) staleOrFail(now time.Time, err error) (string, error) {
	if m.state.accessToken != "" && now.Before(m.state.accessExpiry) {
		slog.Warn("Login failed, reusing token close to expiry",
			"expires_in", m.state.accessExpiry.Sub(now).String(),
			"error", err,
		)
		return m.state.accessToken, nil
	}
	return "", err
}

// login must be called with m.mu held.
func (m *TokenManager) login(ctx context.Context) error {
	body, err := json.Marshal(m.creds.loginPayload())
	if err != nil {
		return &AuthError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return &AuthError{Err: fmt.Errorf("failed to create login request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	tr, status, respBody, err := m.do(req)
	if err != nil {
		return &AuthError{Err: err}
	}
	if status != http.StatusOK {
		return &AuthError{StatusCode: status, Body: truncate(respBody, 300)}
	}
	if tr.AccessToken == "" {
		return &AuthError{StatusCode: status, Body: "login response missing access_token"}
	}

	m.store(tr)
	slog.Debug("Logged in to records API")
	return nil
}

// refresh must be called with m.mu held.
func (m *TokenManager) refresh(ctx context.Context) error {
	if m.state.accessToken == "" || m.state.refreshToken == "" {
		return fmt.Errorf("no token pair to refresh")
	}

	body, err := json.Marshal(map[string]string{
		"access_token":  m.state.accessToken,
		"refresh_token": m.state.refreshToken,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+refreshPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.state.accessToken)

	tr, status, respBody, err := m.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("refresh returned status %d: %s", status, truncate(respBody, 300))
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("refresh response missing access_token")
	}

	m.store(tr)
	slog.Debug("Refreshed records API token")
	return nil
}

func (m *TokenManager) do(req *http.Request) (*tokenResponse, int, string, error) {
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, "", fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, string(raw), nil
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, resp.StatusCode, "", fmt.Errorf("failed to parse token response: %w", err)
	}
	return &tr, resp.StatusCode, "", nil
}

func (m *TokenManager) store(tr *tokenResponse) {
	now := m.now()
	accessTTL := defaultAccessTTL
	if tr.ExpiresIn > 0 {
		accessTTL = time.Duration(tr.ExpiresIn * float64(time.Second))
	}
	refreshTTL := defaultRefreshTTL
	if tr.RefreshExpiresIn > 0 {
		refreshTTL = time.Duration(tr.RefreshExpiresIn * float64(time.Second))
	}
	m.state = tokenState{
		accessToken:   tr.AccessToken,
		refreshToken:  tr.RefreshToken,
		accessExpiry:  now.Add(accessTTL),
		refreshExpiry: now.Add(refreshTTL),
	}
}
