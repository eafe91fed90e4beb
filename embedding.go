package manx

import (
	"context"
	"math"
	"strings"
)

// Embedding provider types.
const (
	EmbeddingHash        = "hash"
	EmbeddingOllama      = "ollama"
	EmbeddingOpenAI      = "openai"
	EmbeddingHuggingFace = "huggingface"
	EmbeddingGemini      = "gemini"
	EmbeddingCustom      = "custom"
)

// EmbeddingProvider is a parsed embedding provider setting.
type EmbeddingProvider struct {
	Type string
	// Model is the model name, or the endpoint URL for custom providers.
	Model string
}

// String returns the "type:model" form.
func (p EmbeddingProvider) String() string {
	if p.Model == "" {
		return p.Type
	}
	return p.Type + ":" + p.Model
}

// ParseEmbeddingProvider parses "hash" or "<type>:<model>".
func ParseEmbeddingProvider(s string) (EmbeddingProvider, error) {
	typ, model, _ := strings.Cut(strings.TrimSpace(s), ":")
	typ = strings.ToLower(typ)

	switch typ {
	case EmbeddingHash:
		return EmbeddingProvider{Type: typ}, nil
	case EmbeddingOllama, EmbeddingOpenAI, EmbeddingHuggingFace, EmbeddingGemini, EmbeddingCustom:
		if model == "" {
			return EmbeddingProvider{}, Errorf(EINVALID, "%s embedding provider requires a model: %s:<model>", typ, typ)
		}
		return EmbeddingProvider{Type: typ, Model: model}, nil
	case "onnx":
		return EmbeddingProvider{}, Errorf(EINVALID, "onnx provider not supported; use hash, ollama, openai, huggingface, gemini or custom")
	case "":
		return EmbeddingProvider{}, Errorf(EINVALID, "embedding provider required")
	}
	return EmbeddingProvider{}, Errorf(EINVALID, "unknown embedding provider %q", s)
}

// ProviderInfo describes an embedding provider.
type ProviderInfo struct {
	Name           string `json:"name"`
	Type           string `json:"provider_type"`
	Model          string `json:"model_name,omitempty"`
	Description    string `json:"description"`
	MaxInputLength int    `json:"max_input_length,omitempty"`
}

// Embedder converts text to vectors.
type Embedder interface {
	// Embed returns the embedding for text. Empty text is EINVALID.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Info describes the provider.
	Info() ProviderInfo
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length or zero magnitude have similarity 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Normalize scales v to unit length in place and returns it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
