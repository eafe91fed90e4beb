package manx

import (
	"context"
	"strings"
)

// LLMProvider identifies a chat completion backend.
type LLMProvider string

// Supported LLM providers.
const (
	ProviderAuto        LLMProvider = "auto"
	ProviderOpenAI      LLMProvider = "openai"
	ProviderAnthropic   LLMProvider = "anthropic"
	ProviderGroq        LLMProvider = "groq"
	ProviderOpenRouter  LLMProvider = "openrouter"
	ProviderHuggingFace LLMProvider = "huggingface"
	ProviderGemini      LLMProvider = "gemini"
	ProviderOllama      LLMProvider = "ollama"
	ProviderCustom      LLMProvider = "custom"
)

// AllProviders lists every concrete provider.
var AllProviders = []LLMProvider{
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderGroq,
	ProviderOpenRouter,
	ProviderHuggingFace,
	ProviderGemini,
	ProviderOllama,
	ProviderCustom,
}

// ParseLLMProvider validates a provider name.
func ParseLLMProvider(s string) (LLMProvider, error) {
	p := LLMProvider(strings.ToLower(strings.TrimSpace(s)))
	if p == ProviderAuto {
		return p, nil
	}
	for _, known := range AllProviders {
		if p == known {
			return p, nil
		}
	}
	return "", Errorf(EINVALID, "unknown LLM provider %q", s)
}

// DefaultModel returns the model used when none is configured.
func (p LLMProvider) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-haiku-20240307"
	case ProviderGroq:
		return "llama-3.1-8b-instant"
	case ProviderOpenRouter:
		return "openai/gpt-3.5-turbo"
	case ProviderHuggingFace:
		return "microsoft/DialoGPT-medium"
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderOllama:
		return "llama3.2"
	case ProviderCustom:
		return "custom-model"
	}
	return "auto"
}

// Confidence returns the fixed confidence reported for answers from p.
func (p LLMProvider) Confidence() float32 {
	switch p {
	case ProviderOpenAI:
		return 0.9
	case ProviderAnthropic:
		return 0.85
	case ProviderGemini:
		return 0.85
	case ProviderOpenRouter:
		return 0.82
	case ProviderGroq, ProviderCustom:
		return 0.8
	case ProviderHuggingFace, ProviderOllama:
		return 0.75
	}
	return 0
}

// CompletionRequest is a single-turn chat request.
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Completion is the response to a CompletionRequest.
type Completion struct {
	Text         string
	Model        string
	TokensUsed   int
	FinishReason string
}

// Completer produces chat completions from a single provider.
type Completer interface {
	// Provider identifies the backend.
	Provider() LLMProvider

	// Complete sends the request and returns the model's reply.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Citation links a synthesized answer to one of its sources.
type Citation struct {
	SourceID       string  `json:"source_id"`
	SourceTitle    string  `json:"source_title"`
	SourceURL      string  `json:"source_url,omitempty"`
	RelevanceScore float32 `json:"relevance_score"`
	Excerpt        string  `json:"excerpt"`
}

// Synthesis is an LLM-generated answer grounded in search results.
type Synthesis struct {
	Answer         string      `json:"answer"`
	SourcesUsed    []string    `json:"sources_used"`
	Confidence     float32     `json:"confidence"`
	Provider       LLMProvider `json:"provider_used"`
	Model          string      `json:"model_used"`
	TokensUsed     int         `json:"tokens_used,omitempty"`
	ResponseTimeMS int64       `json:"response_time_ms"`
	FinishReason   string      `json:"finish_reason,omitempty"`
	Citations      []Citation  `json:"citations"`
}

// Synthesizer answers a question from a set of retrieved results.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results []RAGResult) (*Synthesis, error)
}
