// Package rag searches the local index.
package rag

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fwojciec/manx"
)

// healthProbe is embedded by HealthCheck to exercise the provider.
const healthProbe = "health check"

// Service answers queries against an IndexStore, falling back from semantic
// to keyword search.
type Service struct {
	store    manx.IndexStore
	embedder manx.Embedder
	config   manx.RAGConfig
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service.
func NewService(store manx.IndexStore, embedder manx.Embedder, cfg manx.RAGConfig, opts ...Option) *Service {
	s := &Service{
		store:    store,
		embedder: embedder,
		config:   cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrDisabled is returned by commands that need the index when RAG is off.
var ErrDisabled = manx.Errorf(manx.EINVALID, "RAG is disabled; enable it with 'manx config --rag on'")

// Search returns up to limit chunks for query. A non-positive limit uses
// the configured max_results.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]manx.RAGResult, error) {
	if query == "" {
		return nil, manx.Errorf(manx.EINVALID, "search query required")
	}
	if limit <= 0 {
		limit = s.config.MaxResults
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, using keyword search", "error", err)
		return s.keywordSearch(ctx, query, limit)
	}

	results, err := s.store.SearchChunks(ctx, vec, manx.SearchOptions{
		Limit:    limit,
		MinScore: s.config.SimilarityThreshold,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		s.logger.Debug("no semantic matches, using keyword search", "query", query)
		return s.keywordSearch(ctx, query, limit)
	}
	return results, nil
}

func (s *Service) keywordSearch(ctx context.Context, query string, limit int) ([]manx.RAGResult, error) {
	return s.store.KeywordSearch(ctx, manx.Keywords(query), manx.SearchOptions{Limit: limit})
}

// Stats summarizes the index.
func (s *Service) Stats(ctx context.Context) (*manx.IndexStats, error) {
	return s.store.Stats(ctx)
}

// Sources lists indexed sources ordered by path.
func (s *Service) Sources(ctx context.Context) ([]*manx.Source, error) {
	return s.store.FindSources(ctx, manx.SourceFilter{})
}

// RemoveSource deletes one source and its chunks.
func (s *Service) RemoveSource(ctx context.Context, path string) error {
	return s.store.DeleteSource(ctx, path)
}

// Clear removes everything from the index.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Health reports the state of the index and the embedding provider.
type Health struct {
	Store     bool              `json:"store"`
	Embedder  bool              `json:"embedder"`
	Provider  manx.ProviderInfo `json:"provider"`
	Dimension int               `json:"dimension,omitempty"`
	Stats     *manx.IndexStats  `json:"stats,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// HealthCheck queries the store and embeds a probe string. The returned
// error is set when either check fails; Health is always populated.
func (s *Service) HealthCheck(ctx context.Context) (*Health, error) {
	h := &Health{Provider: s.embedder.Info()}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		h.Error = err.Error()
		return h, fmt.Errorf("index store: %w", err)
	}
	h.Store = true
	h.Stats = stats

	vec, err := s.embedder.Embed(ctx, healthProbe)
	if err != nil {
		h.Error = err.Error()
		return h, fmt.Errorf("embedding provider %s: %w", h.Provider.Name, err)
	}
	h.Embedder = true
	h.Dimension = len(vec)
	return h, nil
}
