package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/manx"
)

var _ manx.Embedder = (*LoggingEmbedder)(nil)

// LoggingEmbedder wraps an Embedder with debug logging.
type LoggingEmbedder struct {
	next   manx.Embedder
	logger *slog.Logger
}

// NewLoggingEmbedder creates a new LoggingEmbedder.
func NewLoggingEmbedder(next manx.Embedder, logger *slog.Logger) *LoggingEmbedder {
	return &LoggingEmbedder{next: next, logger: logger}
}

func (e *LoggingEmbedder) Embed(ctx context.Context, text string) (vec []float32, err error) {
	defer func(begin time.Time) {
		e.logger.Debug("embed",
			"provider", e.next.Info().Type,
			"chars", len(text),
			"dimension", len(vec),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Embed(ctx, text)
}

func (e *LoggingEmbedder) Info() manx.ProviderInfo {
	return e.next.Info()
}

var _ manx.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer and logs each completion with its token
// usage.
type LoggingCompleter struct {
	next   manx.Completer
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter.
func NewLoggingCompleter(next manx.Completer, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, logger: logger}
}

func (c *LoggingCompleter) Provider() manx.LLMProvider {
	return c.next.Provider()
}

func (c *LoggingCompleter) Complete(ctx context.Context, req manx.CompletionRequest) (resp *manx.Completion, err error) {
	defer func(begin time.Time) {
		attrs := []any{"provider", c.next.Provider()}
		if resp != nil {
			attrs = append(attrs, "model", resp.Model, "tokens", resp.TokensUsed, "finish_reason", resp.FinishReason)
		}
		attrs = append(attrs, "duration", time.Since(begin), "err", err)
		c.logger.Debug("completion", attrs...)
	}(time.Now())
	return c.next.Complete(ctx, req)
}
