// ABOUTME: Tests for CORS middleware and middleware chaining
// ABOUTME: Verifies origin allow-list, preflight handling, and chain ordering

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var uiOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

func TestCORSWithConfig_AllowedOriginEchoed(t *testing.T) {
	handler := CORSWithConfig(uiOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/prescription-urls", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:5173")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, "GET, POST, OPTIONS")
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Access-Control-Allow-Credentials should not be set, got %q", got)
	}
}

func TestCORSWithConfig_DisallowedOriginNoHeaders(t *testing.T) {
	handler := CORSWithConfig(uiOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/prescription-urls", nil)
	req.Header.Set("Origin", "https://evil.com")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin should be empty for disallowed origin, got %q", got)
	}
}

func TestCORSWithConfig_SameOriginPassesThrough(t *testing.T) {
	handler := CORSWithConfig(uiOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	// Same-origin requests don't include Origin header
	req := httptest.NewRequest(http.MethodPost, "/api/patient-summary", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if got := rec.Header().Get("Vary"); got != "" {
		t.Errorf("Vary should not be set without Origin, got %q", got)
	}
}

func TestCORSWithConfig_Preflight(t *testing.T) {
	tests := []struct {
		origin     string
		wantOrigin string
	}{
		{"http://127.0.0.1:5173", "http://127.0.0.1:5173"},
		{"http://localhost:3000", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			handlerCalled := false
			handler := CORSWithConfig(uiOrigins)(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})

			req := httptest.NewRequest(http.MethodOptions, "/api/patient-summary", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Errorf("Status = %d, want %d", rec.Code, http.StatusNoContent)
			}
			if handlerCalled {
				t.Error("Handler should not be called for OPTIONS preflight")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestCORSWithConfig_EmptyAllowedOrigins(t *testing.T) {
	handler := CORSWithConfig(nil)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/prescription-urls", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin should be empty with no allowed origins, got %q", got)
	}
}

func TestChain_AppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	first := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "first-before")
			next(w, r)
			order = append(order, "first-after")
		}
	}

	second := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "second-before")
			next(w, r)
			order = append(order, "second-after")
		}
	}

	handler := Chain(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}, first, nil, second)

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	expected := []string{"first-before", "second-before", "handler", "second-after", "first-after"}
	if len(order) != len(expected) {
		t.Fatalf("order = %v, want %v", order, expected)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("order[%d] = %q, want %q", i, order[i], v)
		}
	}
}
