package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/manx"
)

var _ manx.IndexStore = (*LoggingIndexStore)(nil)

// LoggingIndexStore wraps an IndexStore, logging writes and searches.
// Lookups are passed through unlogged.
type LoggingIndexStore struct {
	next   manx.IndexStore
	logger *slog.Logger
}

// NewLoggingIndexStore creates a new LoggingIndexStore.
func NewLoggingIndexStore(next manx.IndexStore, logger *slog.Logger) *LoggingIndexStore {
	return &LoggingIndexStore{next: next, logger: logger}
}

func (s *LoggingIndexStore) ReplaceSource(ctx context.Context, source *manx.Source, chunks []*manx.Chunk) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("replace source",
			"path", source.Path,
			"count", len(chunks),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ReplaceSource(ctx, source, chunks)
}

func (s *LoggingIndexStore) FindSourceByPath(ctx context.Context, path string) (*manx.Source, error) {
	return s.next.FindSourceByPath(ctx, path)
}

func (s *LoggingIndexStore) FindSources(ctx context.Context, filter manx.SourceFilter) ([]*manx.Source, error) {
	return s.next.FindSources(ctx, filter)
}

func (s *LoggingIndexStore) DeleteSource(ctx context.Context, path string) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("delete source", "path", path, "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.DeleteSource(ctx, path)
}

func (s *LoggingIndexStore) SearchChunks(ctx context.Context, embedding []float32, opts manx.SearchOptions) (results []manx.RAGResult, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("semantic search",
			"dimension", len(embedding),
			"min_score", opts.MinScore,
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SearchChunks(ctx, embedding, opts)
}

func (s *LoggingIndexStore) KeywordSearch(ctx context.Context, terms []string, opts manx.SearchOptions) (results []manx.RAGResult, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("keyword search",
			"query", terms,
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.KeywordSearch(ctx, terms, opts)
}

func (s *LoggingIndexStore) Stats(ctx context.Context) (*manx.IndexStats, error) {
	return s.next.Stats(ctx)
}

func (s *LoggingIndexStore) Clear(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("clear index", "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.Clear(ctx)
}
