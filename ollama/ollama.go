// Package ollama implements manx.Embedder and manx.Completer against a local
// Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/eino"
	"github.com/ollama/ollama/api"
)

// DefaultEndpoint is the address of a default local Ollama install.
const DefaultEndpoint = "http://localhost:11434"

var _ manx.Embedder = (*Embedder)(nil)

// Embedder implements manx.Embedder using the Ollama embed API.
type Embedder struct {
	client *api.Client
	model  string
}

// NewEmbedder creates an Embedder for model served at endpoint. An empty
// endpoint selects DefaultEndpoint.
func NewEmbedder(endpoint, model string, timeout time.Duration) (*Embedder, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, manx.Errorf(manx.EINVALID, "invalid ollama endpoint %q", endpoint)
	}
	return &Embedder{
		client: api.NewClient(base, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, manx.Errorf(manx.EINVALID, "text required")
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("ollama embed failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, manx.Errorf(manx.EINTERNAL, "no embeddings returned from Ollama")
	}
	return resp.Embeddings[0], nil
}

// Info describes the provider.
func (e *Embedder) Info() manx.ProviderInfo {
	return manx.ProviderInfo{
		Name:        "Ollama Embeddings",
		Type:        manx.EmbeddingOllama,
		Model:       e.model,
		Description: fmt.Sprintf("Local Ollama model: %s", e.model),
	}
}

// NewCompleter creates a chat completer for model served at endpoint. An
// empty model selects the provider default.
func NewCompleter(ctx context.Context, endpoint, model string, timeout time.Duration) (*eino.Completer, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = manx.ProviderOllama.DefaultModel()
	}

	chat, err := einoollama.NewChatModel(ctx, &einoollama.ChatModelConfig{
		BaseURL: endpoint,
		Model:   model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ollama chat model: %w", err)
	}
	return eino.NewCompleter(manx.ProviderOllama, model, chat), nil
}
