// ABOUTME: Integration tests for CORS security features
// ABOUTME: Verifies allowed, blocked, and preflight requests through the full router

package e2e

import (
	"net/http"
	"testing"
)

// TestCORSIntegration_AllowedOriginThroughRouter verifies that only allowed
// origins receive CORS headers when requests pass through the same middleware
// chain main uses.
func TestCORSIntegration_AllowedOriginThroughRouter(t *testing.T) {
	eka := newFakeEka(t)
	t.Cleanup(withTestEkaEnv(t, eka.server.URL, map[string]string{
		"CORS_ALLOWED_ORIGINS": "https://clinic.example.com, http://localhost:5173",
	}))
	server := newTestStack(t)

	tests := []struct {
		name           string
		origin         string
		expectHeaders  bool
		expectedOrigin string
	}{
		{
			name:           "allowed origin gets CORS headers",
			origin:         "https://clinic.example.com",
			expectHeaders:  true,
			expectedOrigin: "https://clinic.example.com",
		},
		{
			name:           "localhost dev origin gets CORS headers",
			origin:         "http://localhost:5173",
			expectHeaders:  true,
			expectedOrigin: "http://localhost:5173",
		},
		{
			name:          "disallowed origin gets no CORS headers",
			origin:        "https://evil.com",
			expectHeaders: false,
		},
		{
			name:          "different port is not allowed",
			origin:        "http://localhost:3000",
			expectHeaders: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", server.URL+"/api/health", nil)
			req.Header.Set("Origin", tt.origin)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("Expected status 200, got %d", resp.StatusCode)
			}

			got := resp.Header.Get("Access-Control-Allow-Origin")
			if tt.expectHeaders && got != tt.expectedOrigin {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.expectedOrigin, got)
			}
			if !tt.expectHeaders && got != "" {
				t.Errorf("Expected no Access-Control-Allow-Origin, got %q", got)
			}
			if resp.Header.Get("Vary") != "Origin" {
				t.Errorf("Expected Vary: Origin, got %q", resp.Header.Get("Vary"))
			}
			if resp.Header.Get("Access-Control-Allow-Credentials") != "" {
				t.Error("Credentials must never be allowed")
			}
		})
	}
}

// TestCORSIntegration_Preflight verifies OPTIONS requests are answered by the
// middleware without reaching the records API.
func TestCORSIntegration_Preflight(t *testing.T) {
	eka := newFakeEka(t)
	t.Cleanup(withTestEkaEnv(t, eka.server.URL, map[string]string{
		"CORS_ALLOWED_ORIGINS": "https://clinic.example.com",
	}))
	server := newTestStack(t)

	for _, path := range []string{"/api/patient-summary", "/api/prescription-urls"} {
		req, _ := http.NewRequest("OPTIONS", server.URL+path, nil)
		req.Header.Set("Origin", "https://clinic.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("OPTIONS %s failed: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("OPTIONS %s: expected 204, got %d", path, resp.StatusCode)
		}
		if resp.Header.Get("Access-Control-Allow-Methods") != "GET, POST, OPTIONS" {
			t.Errorf("OPTIONS %s: unexpected methods %q", path, resp.Header.Get("Access-Control-Allow-Methods"))
		}
	}

	if eka.logins.Load() != 0 || eka.listings.Load() != 0 {
		t.Error("Preflight requests must not reach the records API")
	}
}

// TestCORSIntegration_RequestIDExposed verifies every response carries a
// request ID the browser is allowed to read.
func TestCORSIntegration_RequestIDExposed(t *testing.T) {
	eka := newFakeEka(t)
	t.Cleanup(withTestEkaEnv(t, eka.server.URL, map[string]string{
		"CORS_ALLOWED_ORIGINS": "https://clinic.example.com",
	}))
	server := newTestStack(t)

	req, _ := http.NewRequest("GET", server.URL+"/healthz", nil)
	req.Header.Set("Origin", "https://clinic.example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
	if resp.Header.Get("Access-Control-Expose-Headers") != "X-Request-ID, Retry-After" {
		t.Errorf("Unexpected expose headers %q", resp.Header.Get("Access-Control-Expose-Headers"))
	}
}
