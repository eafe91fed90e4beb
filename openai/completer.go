// Package openai implements manx.Completer and manx.Embedder for
// OpenAI-compatible APIs: OpenAI itself, Groq, OpenRouter, the HuggingFace
// router and custom endpoints.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/eino"
)

// Base URLs of the hosted OpenAI-compatible providers.
const (
	OpenAIBaseURL      = "https://api.openai.com/v1"
	GroqBaseURL        = "https://api.groq.com/openai/v1"
	OpenRouterBaseURL  = "https://openrouter.ai/api/v1"
	HuggingFaceBaseURL = "https://router.huggingface.co/v1"
)

// BaseURL returns the API base URL for provider. Custom providers append
// /v1 to the configured endpoint.
func BaseURL(provider manx.LLMProvider, customEndpoint string) (string, error) {
	switch provider {
	case manx.ProviderOpenAI:
		return OpenAIBaseURL, nil
	case manx.ProviderGroq:
		return GroqBaseURL, nil
	case manx.ProviderOpenRouter:
		return OpenRouterBaseURL, nil
	case manx.ProviderHuggingFace:
		return HuggingFaceBaseURL, nil
	case manx.ProviderCustom:
		if customEndpoint == "" {
			return "", manx.Errorf(manx.EINVALID, "custom provider requires an endpoint")
		}
		return strings.TrimRight(customEndpoint, "/") + "/v1", nil
	}
	return "", manx.Errorf(manx.EINVALID, "%s is not an OpenAI-compatible provider", provider)
}

// Config configures an OpenAI-compatible completer.
type Config struct {
	Provider manx.LLMProvider
	APIKey   string
	// BaseURL overrides the provider's default API base URL.
	BaseURL string
	// Model defaults to the provider's default model.
	Model   string
	Timeout time.Duration
}

// NewCompleter creates a completer for an OpenAI-compatible provider.
func NewCompleter(ctx context.Context, cfg Config) (*eino.Completer, error) {
	if cfg.BaseURL == "" {
		base, err := BaseURL(cfg.Provider, "")
		if err != nil {
			return nil, err
		}
		cfg.BaseURL = base
	}
	if cfg.Model == "" {
		cfg.Model = cfg.Provider.DefaultModel()
	}

	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	return eino.NewCompleter(cfg.Provider, cfg.Model, chat), nil
}
