// ABOUTME: Summarization backend selection and credential sanity checks
// ABOUTME: A missing or placeholder key means no backend, so callers take the fallback path

package services

import (
	"context"
	"log/slog"
	"strings"
)

// SummaryBackend submits a single prompt to a generative model and returns its
// text answer, which is expected to be JSON.
type SummaryBackend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// BackendConfig selects and configures a summarization backend.
type BackendConfig struct {
	Provider string // gemini or openai

	GoogleAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

var placeholderPrefixes = []string{"your_", "test", "abc"}

// LooksLikePlaceholderKey reports whether key is absent or obviously not a
// real credential.
func LooksLikePlaceholderKey(key string) bool {
	k := strings.TrimSpace(key)
	if k == "" {
		return true
	}
	lower := strings.ToLower(k)
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return len(k) < 20
}

// NewSummaryBackend returns nil when the configured provider has no usable
// credential. No network call is made.
func NewSummaryBackend(cfg BackendConfig) SummaryBackend {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if LooksLikePlaceholderKey(cfg.OpenAIAPIKey) {
			slog.Warn("No OpenAI key or likely placeholder key provided, will use fallback")
			return nil
		}
		return NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	case "", "gemini":
		if LooksLikePlaceholderKey(cfg.GoogleAPIKey) {
			slog.Warn("No Gemini key or likely placeholder key provided, will use fallback")
			return nil
		}
		return NewGeminiBackend(cfg.GoogleAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	default:
		slog.Error("Unknown summary provider, will use fallback", "provider", cfg.Provider)
		return nil
	}
}
