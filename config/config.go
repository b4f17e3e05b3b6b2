// ABOUTME: Configuration loader for the patient journey service
// ABOUTME: Loads settings from environment variables (and an optional .env) with defaults

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string
	CORSAllowedOrigins []string // allowed CORS origins (empty = block all cross-origin)
	RateLimitEnabled   bool     // Enable rate limiting on summary endpoints (default: true)
	RateLimitSummary   int      // Summary requests per minute per client (default: 20)

	// Records API
	EkaBaseURL       string
	EkaAPIKey        string
	EkaClientID      string
	EkaClientSecret  string
	EkaUserToken     string // optional, sent on login only when set
	EkaAllProxy      string // optional ssh+socks5://user@host:port?private-key=/path
	TrustedDocDomain string // downloads from this domain carry the records API token
	ListingCacheTTL  int    // seconds, 0 disables (default: 0)

	// Summarization
	SummaryProvider     string // gemini or openai (default: gemini)
	GoogleAPIKey        string
	ModelName           string
	GeminiBaseURL       string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	DemoMode            bool
	SummaryTimeout      int // seconds (default: 15)
	DownloadConcurrency int // parallel document downloads (default: 4)
	MaxDocsLimit        int // upper bound accepted for max_docs (default: 50)
}

// SummaryTimeoutDuration returns SummaryTimeout as a time.Duration.
func (c *Config) SummaryTimeoutDuration() time.Duration {
	return time.Duration(c.SummaryTimeout) * time.Second
}

// ListingCacheTTLDuration returns ListingCacheTTL as a time.Duration.
func (c *Config) ListingCacheTTLDuration() time.Duration {
	return time.Duration(c.ListingCacheTTL) * time.Second
}

// Load reads .env (if present) and the environment. Variables already set in
// the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to read .env file", "error", err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		RateLimitEnabled:   getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitSummary:   getEnvInt("RATE_LIMIT_SUMMARY", 20),

		EkaBaseURL:       strings.TrimRight(ensureScheme(getEnv("EKA_BASE_URL", "https://api.eka.care")), "/"),
		EkaAPIKey:        os.Getenv("EKA_API_KEY"),
		EkaClientID:      os.Getenv("EKA_CLIENT_ID"),
		EkaClientSecret:  os.Getenv("EKA_CLIENT_SECRET"),
		EkaUserToken:     os.Getenv("EKA_USER_TOKEN"),
		EkaAllProxy:      os.Getenv("EKA_ALL_PROXY"),
		TrustedDocDomain: getEnv("TRUSTED_DOC_DOMAIN", "eka.care"),
		ListingCacheTTL:  getEnvInt("LISTING_CACHE_TTL", 0),

		SummaryProvider:     strings.ToLower(getEnv("SUMMARY_PROVIDER", "gemini")),
		GoogleAPIKey:        os.Getenv("GOOGLE_API_KEY"),
		ModelName:           getEnv("MODEL_NAME", "gemini-1.5-pro-latest"),
		GeminiBaseURL:       os.Getenv("GEMINI_BASE_URL"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		DemoMode:            getEnvFlag("DEMO_MODE"),
		SummaryTimeout:      getEnvInt("SUMMARY_TIMEOUT_SECONDS", 15),
		DownloadConcurrency: getEnvInt("DOWNLOAD_CONCURRENCY", 4),
		MaxDocsLimit:        getEnvInt("MAX_DOCS_LIMIT", 50),
	}

	// Validate required fields
	for _, req := range []struct {
		name  string
		value string
	}{
		{"EKA_API_KEY", cfg.EkaAPIKey},
		{"EKA_CLIENT_ID", cfg.EkaClientID},
		{"EKA_CLIENT_SECRET", cfg.EkaClientSecret},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("%s is required", req.name)
		}
	}

	switch cfg.SummaryProvider {
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("SUMMARY_PROVIDER must be gemini or openai, got %q", cfg.SummaryProvider)
	}

	for _, rng := range []struct {
		name     string
		value    int
		min, max int
	}{
		{"SUMMARY_TIMEOUT_SECONDS", cfg.SummaryTimeout, 1, 300},
		{"DOWNLOAD_CONCURRENCY", cfg.DownloadConcurrency, 1, 32},
		{"MAX_DOCS_LIMIT", cfg.MaxDocsLimit, 1, 500},
		{"RATE_LIMIT_SUMMARY", cfg.RateLimitSummary, 1, 10000},
		{"LISTING_CACHE_TTL", cfg.ListingCacheTTL, 0, 3600},
	} {
		if rng.value < rng.min || rng.value > rng.max {
			return nil, fmt.Errorf("%s must be between %d and %d, got %d", rng.name, rng.min, rng.max, rng.value)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvFlag accepts 1, true, or yes (any case) as on; anything else is off.
func getEnvFlag(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func getEnvStringList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
