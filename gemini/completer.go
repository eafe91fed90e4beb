// Package gemini implements manx.Completer and manx.Embedder using Google
// Gemini.
package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/manx"
	"google.golang.org/genai"
)

// NewClient creates a Gemini API client for apiKey. baseURL overrides the
// API endpoint when non-empty.
func NewClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// Ensure Completer implements manx.Completer at compile time.
var _ manx.Completer = (*Completer)(nil)

// Completer implements manx.Completer using Google Gemini.
type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter creates a new Completer. An empty model selects the
// provider default.
func NewCompleter(client *genai.Client, model string) *Completer {
	if model == "" {
		model = manx.ProviderGemini.DefaultModel()
	}
	return &Completer{client: client, model: model}
}

// Provider returns manx.ProviderGemini.
func (c *Completer) Provider() manx.LLMProvider {
	return manx.ProviderGemini
}

// Complete sends a single-turn request to Gemini.
func (c *Completer) Complete(ctx context.Context, req manx.CompletionRequest) (*manx.Completion, error) {
	if req.User == "" {
		return nil, manx.Errorf(manx.EINVALID, "prompt required")
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	result, err := c.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: req.User}},
		}},
		BuildConfig(req),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, manx.Errorf(manx.EINTERNAL, "gemini returned nil result")
	}

	completion := &manx.Completion{
		Text:  result.Text(),
		Model: model,
	}
	if result.UsageMetadata != nil {
		completion.TokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}
	if len(result.Candidates) > 0 {
		completion.FinishReason = string(result.Candidates[0].FinishReason)
	}
	return completion, nil
}

// BuildConfig returns the GenerateContentConfig for a request.
func BuildConfig(req manx.CompletionRequest) *genai.GenerateContentConfig {
	temp := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	return config
}
