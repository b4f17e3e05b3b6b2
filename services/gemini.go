// ABOUTME: Gemini generateContent backend using an API key
// ABOUTME: Builds the request with sjson and reads candidate text with gjson

package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-pro-latest"
	geminiAPIVersion     = "v1beta"
)

// GeminiBackend calls the Generative Language API.
type GeminiBackend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiBackend creates a Gemini backend. Empty model and baseURL use defaults.
func NewGeminiBackend(apiKey, model, baseURL string) *GeminiBackend {
	if model == "" {
		model = defaultGeminiModel
	}
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiBackend{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Name returns the provider identifier.
func (g *GeminiBackend) Name() string { return "gemini" }

// Generate requests a JSON answer for prompt.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	body := []byte(`{}`)
	body, err := sjson.SetBytes(body, "contents", []map[string]interface{}{
		{
			"role":  "user",
			"parts": []map[string]string{{"text": prompt}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build gemini request: %w", err)
	}
	body, _ = sjson.SetBytes(body, "generationConfig.responseMimeType", "application/json")
	body, _ = sjson.SetBytes(body, "generationConfig.temperature", 0.2)

	endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent", g.baseURL, geminiAPIVersion, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, truncate(string(data), 300))
	}

	var text strings.Builder
	gjson.GetBytes(data, "candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		text.WriteString(part.Get("text").String())
		return true
	})
	if text.Len() == 0 {
		if reason := gjson.GetBytes(data, "promptFeedback.blockReason").String(); reason != "" {
			return "", fmt.Errorf("gemini blocked prompt: %s", reason)
		}
		return "{}", nil
	}
	return text.String(), nil
}
