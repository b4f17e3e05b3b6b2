// ABOUTME: Test helpers for e2e tests
// ABOUTME: Fake records API and model servers plus a full backend stack built from env config

package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clinicflow/patient-journey/backend/config"
	"github.com/clinicflow/patient-journey/backend/handlers"
	"github.com/clinicflow/patient-journey/backend/middleware"
	"github.com/clinicflow/patient-journey/backend/services"
)

// fakeGeminiKey passes the placeholder-key heuristics.
const fakeGeminiKey = "AIzaSyFakeE2EKey0000000000"

// ekaEnvKeys are saved and restored around every test that touches the env.
var ekaEnvKeys = []string{
	"EKA_BASE_URL", "EKA_API_KEY", "EKA_CLIENT_ID", "EKA_CLIENT_SECRET", "EKA_USER_TOKEN",
	"EKA_ALL_PROXY", "TRUSTED_DOC_DOMAIN", "LISTING_CACHE_TTL",
	"SUMMARY_PROVIDER", "GOOGLE_API_KEY", "GEMINI_BASE_URL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"DEMO_MODE", "SUMMARY_TIMEOUT_SECONDS", "DOWNLOAD_CONCURRENCY", "MAX_DOCS_LIMIT",
	"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_ENABLED", "RATE_LIMIT_SUMMARY",
}

// withTestEkaEnv points the records API at baseURL, clears the summarization
// keys, applies extra, and returns a cleanup function that restores all
// original values.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Cleanup(withTestEkaEnv(t, eka.server.URL, map[string]string{
//	        "CORS_ALLOWED_ORIGINS": "https://example.com",
//	    }))
//	}
func withTestEkaEnv(t *testing.T, baseURL string, extra map[string]string) func() {
	t.Helper()

	type saved struct {
		value string
		ok    bool
	}
	originals := make(map[string]saved)
	for _, key := range ekaEnvKeys {
		v, ok := os.LookupEnv(key)
		originals[key] = saved{v, ok}
		os.Unsetenv(key)
	}
	for key := range extra {
		if _, ok := originals[key]; !ok {
			v, ok := os.LookupEnv(key)
			originals[key] = saved{v, ok}
		}
	}

	os.Setenv("EKA_BASE_URL", baseURL)
	os.Setenv("EKA_API_KEY", "e2e-api-key")
	os.Setenv("EKA_CLIENT_ID", "e2e-client")
	os.Setenv("EKA_CLIENT_SECRET", "e2e-secret")
	os.Setenv("TRUSTED_DOC_DOMAIN", "127.0.0.1")

	for key, value := range extra {
		os.Setenv(key, value)
	}

	return func() {
		for key, s := range originals {
			if s.ok {
				os.Setenv(key, s.value)
			} else {
				os.Unsetenv(key)
			}
		}
	}
}

// fakeEka serves the records API login, appointment listing, and document
// downloads. Listing bodies reference documents on the same server in the
// order they were added.
type fakeEka struct {
	server *httptest.Server

	logins    atomic.Int32
	listings  atomic.Int32
	downloads atomic.Int32

	mu          sync.Mutex
	listed      []string
	docs        map[string]string
	docAuth     map[string]string
	listingCode int
}

func newFakeEka(t *testing.T) *fakeEka {
	t.Helper()
	f := &fakeEka{
		docs:        make(map[string]string),
		docAuth:     make(map[string]string),
		listingCode: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /connect-auth/v1/account/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "e2e-access",
			"refresh_token": "e2e-refresh",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("GET /dr/v1/appointment", func(w http.ResponseWriter, r *http.Request) {
		f.listings.Add(1)
		if r.Header.Get("Authorization") != "Bearer e2e-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		code := f.listingCode
		names := append([]string(nil), f.listed...)
		f.mu.Unlock()

		if code != http.StatusOK {
			w.WriteHeader(code)
			w.Write([]byte(`{"error":"patient not found"}`))
			return
		}

		files := make([]string, 0, len(names))
		for _, name := range names {
			files = append(files, f.server.URL+"/docs/"+name)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"patient_id":   r.URL.Query().Get("patient_id"),
			"appointments": []map[string]interface{}{{"id": "a-1", "files": files}},
		})
	})
	mux.HandleFunc("GET /docs/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.downloads.Add(1)
		name := r.PathValue("name")
		f.mu.Lock()
		body, ok := f.docs[name]
		f.docAuth[name] = r.Header.Get("Authorization")
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeEka) addDoc(name, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, name)
	f.docs[name] = body
}

// addMissing lists a document that answers 404 when downloaded.
func (f *fakeEka) addMissing(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, name)
}

func (f *fakeEka) setListingStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listingCode = code
}

func (f *fakeEka) authFor(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docAuth[name]
}

// fakeGemini answers generateContent with a fixed model reply and records the
// last prompt it saw.
type fakeGemini struct {
	server *httptest.Server
	calls  atomic.Int32

	mu     sync.Mutex
	prompt string
	reply  string
}

func newFakeGemini(t *testing.T, reply string) *fakeGemini {
	t.Helper()
	g := &fakeGemini{reply: reply}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, ":generateContent") || r.Header.Get("x-goog-api-key") != fakeGeminiKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		g.mu.Lock()
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			g.prompt = req.Contents[0].Parts[0].Text
		}
		reply := g.reply
		g.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": reply}}}},
			},
		})
	}))
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGemini) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompt
}

// newTestStack loads config from the environment and wires the same services,
// router, and middleware as main.
func newTestStack(t *testing.T) *httptest.Server {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() failed: %v", err)
	}

	creds, err := services.NewCredentials(cfg.EkaAPIKey, cfg.EkaClientID, cfg.EkaClientSecret, cfg.EkaUserToken)
	if err != nil {
		t.Fatalf("NewCredentials failed: %v", err)
	}

	transport := services.NewUpstreamTransport(cfg.EkaAllProxy)
	upstream := &http.Client{Timeout: 5 * time.Second, Transport: transport}
	tokens := services.NewTokenManager(cfg.EkaBaseURL, creds)
	tokens.SetHTTPClient(upstream)
	records := services.NewRecordsClient(cfg.EkaBaseURL, tokens)
	records.SetHTTPClient(upstream)
	fetcher := services.NewDocumentFetcher(tokens, cfg.TrustedDocDomain)
	fetcher.SetHTTPClient(&http.Client{Timeout: 5 * time.Second, Transport: transport})

	backend := services.NewSummaryBackend(services.BackendConfig{
		Provider:      cfg.SummaryProvider,
		GoogleAPIKey:  cfg.GoogleAPIKey,
		GeminiModel:   cfg.ModelName,
		GeminiBaseURL: cfg.GeminiBaseURL,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	})

	orchestrator := services.NewOrchestrator(records, fetcher, backend, services.OrchestratorConfig{
		DemoMode:            cfg.DemoMode,
		SummaryTimeout:      cfg.SummaryTimeoutDuration(),
		DownloadConcurrency: cfg.DownloadConcurrency,
		ListingCacheTTL:     cfg.ListingCacheTTLDuration(),
	})
	t.Cleanup(orchestrator.Close)

	var limiter *middleware.SummaryLimiter
	if cfg.RateLimitEnabled {
		limiter = middleware.NewSummaryLimiter(cfg.RateLimitSummary, time.Minute)
	}

	server := httptest.NewServer(handlers.NewRouter(handlers.NewHandler(cfg, orchestrator), limiter, cfg.CORSAllowedOrigins))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}
