// ABOUTME: OpenAI chat completion backend for patient journey summaries
// ABOUTME: Requests JSON object output at low temperature

package services

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIBackend calls the OpenAI chat completion API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend constructs an OpenAI-backed summarizer. baseURL overrides
// the API endpoint when set.
func NewOpenAIBackend(apiKey, model, baseURL string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Name returns the provider identifier.
func (o *OpenAIBackend) Name() string { return "openai" }

// Generate sends prompt as a single user turn and returns the reply text.
func (o *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "{}", nil
	}
	return resp.Choices[0].Message.Content, nil
}
