package gemini

import (
	"context"

	"github.com/fwojciec/manx"
	"google.golang.org/genai"
)

// maxEmbedInput is the documented input limit of Gemini embedding models.
const maxEmbedInput = 2048

var _ manx.Embedder = (*Embedder)(nil)

// Embedder implements manx.Embedder using the Gemini embedding API.
type Embedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder creates a new Embedder for model (e.g. "text-embedding-004").
func NewEmbedder(client *genai.Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, manx.Errorf(manx.EINVALID, "text required")
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, manx.Errorf(manx.EINTERNAL, "gemini returned no embedding")
	}
	return result.Embeddings[0].Values, nil
}

// Info describes the provider.
func (e *Embedder) Info() manx.ProviderInfo {
	return manx.ProviderInfo{
		Name:           "Gemini Embeddings",
		Type:           manx.EmbeddingGemini,
		Model:          e.model,
		Description:    "Google Gemini embedding API",
		MaxInputLength: maxEmbedInput,
	}
}
