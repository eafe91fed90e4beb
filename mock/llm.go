package mock

import (
	"context"

	"github.com/fwojciec/manx"
)

var _ manx.Completer = (*Completer)(nil)

// Completer is a mock implementation of manx.Completer.
type Completer struct {
	ProviderFn func() manx.LLMProvider
	CompleteFn func(ctx context.Context, req manx.CompletionRequest) (*manx.Completion, error)
}

func (c *Completer) Provider() manx.LLMProvider {
	return c.ProviderFn()
}

func (c *Completer) Complete(ctx context.Context, req manx.CompletionRequest) (*manx.Completion, error) {
	return c.CompleteFn(ctx, req)
}

var _ manx.Synthesizer = (*Synthesizer)(nil)

// Synthesizer is a mock implementation of manx.Synthesizer.
type Synthesizer struct {
	SynthesizeFn func(ctx context.Context, query string, results []manx.RAGResult) (*manx.Synthesis, error)
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, results []manx.RAGResult) (*manx.Synthesis, error) {
	return s.SynthesizeFn(ctx, query, results)
}
