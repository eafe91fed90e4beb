// Package llm answers questions from search results with a chain of chat
// completion providers.
package llm

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/fwojciec/manx"
)

// Providers returns the providers to try, in order: the preferred provider
// when it is configured, then each configured fallback. Duplicates are
// skipped. Returns EINVALID when none is configured.
func Providers(cfg manx.LLMConfig) ([]manx.LLMProvider, error) {
	var out []manx.LLMProvider
	add := func(p manx.LLMProvider) {
		if p == manx.ProviderAuto || cfg.APIKey(p) == "" || slices.Contains(out, p) {
			return
		}
		out = append(out, p)
	}

	add(cfg.PreferredProvider)
	for _, p := range cfg.FallbackProviders {
		add(p)
	}

	if len(out) == 0 {
		return nil, manx.Errorf(manx.EINVALID, "no LLM provider configured")
	}
	return out, nil
}

var _ manx.Synthesizer = (*Synthesizer)(nil)

// Synthesizer implements manx.Synthesizer by trying each completer in turn
// until one answers.
type Synthesizer struct {
	completers  []manx.Completer
	model       string
	maxTokens   int
	temperature float32
	logger      *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithModel overrides every provider's default model.
func WithModel(model string) Option {
	return func(s *Synthesizer) { s.model = model }
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(s *Synthesizer) { s.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(s *Synthesizer) { s.temperature = t }
}

// WithLogger reports provider failures to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = logger }
}

// NewSynthesizer creates a Synthesizer over completers, tried in order.
func NewSynthesizer(completers []manx.Completer, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		completers:  completers,
		maxTokens:   1000,
		temperature: 0.1,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize asks each provider in turn to answer query from results.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, results []manx.RAGResult) (*manx.Synthesis, error) {
	if len(s.completers) == 0 {
		return nil, manx.Errorf(manx.EINVALID, "no LLM provider configured")
	}

	req := manx.CompletionRequest{
		System:      SystemPrompt,
		User:        UserPrompt(query, results),
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	for _, c := range s.completers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		begin := time.Now()
		completion, err := c.Complete(ctx, req)
		if err != nil {
			s.logger.Warn("provider failed", "provider", c.Provider(), "error", err)
			continue
		}

		answer := ExtractFinalAnswer(completion.Text)
		sources := make([]string, len(results))
		for i, r := range results {
			sources[i] = r.ID
		}

		return &manx.Synthesis{
			Answer:         answer,
			SourcesUsed:    sources,
			Confidence:     c.Provider().Confidence(),
			Provider:       c.Provider(),
			Model:          completion.Model,
			TokensUsed:     completion.TokensUsed,
			ResponseTimeMS: time.Since(begin).Milliseconds(),
			FinishReason:   completion.FinishReason,
			Citations:      Citations(answer, results),
		}, nil
	}

	return nil, manx.Errorf(manx.EINTERNAL, "all LLM providers failed")
}
