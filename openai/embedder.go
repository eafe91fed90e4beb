package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/fwojciec/manx"
)

var _ manx.Embedder = (*Embedder)(nil)

// Embedder implements manx.Embedder against an OpenAI-compatible
// /embeddings endpoint.
type Embedder struct {
	client *openai.EmbeddingClient
	info   manx.ProviderInfo
}

// EmbedderConfig configures an Embedder.
type EmbedderConfig struct {
	// Type is manx.EmbeddingOpenAI, manx.EmbeddingHuggingFace or
	// manx.EmbeddingCustom.
	Type    string
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewEmbedder creates an Embedder. An empty BaseURL selects the default
// for Type.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (*Embedder, error) {
	if cfg.BaseURL == "" {
		switch cfg.Type {
		case manx.EmbeddingOpenAI:
			cfg.BaseURL = OpenAIBaseURL
		case manx.EmbeddingHuggingFace:
			cfg.BaseURL = HuggingFaceBaseURL
		default:
			return nil, manx.Errorf(manx.EINVALID, "%s embeddings require an endpoint", cfg.Type)
		}
	}

	client, err := openai.NewEmbeddingClient(ctx, &openai.EmbeddingConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating embedding client: %w", err)
	}

	return &Embedder{
		client: client,
		info: manx.ProviderInfo{
			Name:           "OpenAI-compatible Embeddings",
			Type:           cfg.Type,
			Model:          cfg.Model,
			Description:    fmt.Sprintf("Embeddings model %s at %s", cfg.Model, cfg.BaseURL),
			MaxInputLength: 8191,
		},
	}, nil
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, manx.Errorf(manx.EINVALID, "text required")
	}

	vectors, err := e.client.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, manx.Errorf(manx.EINTERNAL, "no embeddings returned")
	}

	out := make([]float32, len(vectors[0]))
	for i, x := range vectors[0] {
		out[i] = float32(x)
	}
	return out, nil
}

// Info describes the provider.
func (e *Embedder) Info() manx.ProviderInfo {
	return e.info
}
