package mock

import (
	"context"

	"github.com/fwojciec/manx"
)

var _ manx.IndexStore = (*IndexStore)(nil)

// IndexStore is a mock implementation of manx.IndexStore.
type IndexStore struct {
	ReplaceSourceFn    func(ctx context.Context, source *manx.Source, chunks []*manx.Chunk) error
	FindSourceByPathFn func(ctx context.Context, path string) (*manx.Source, error)
	FindSourcesFn      func(ctx context.Context, filter manx.SourceFilter) ([]*manx.Source, error)
	DeleteSourceFn     func(ctx context.Context, path string) error
	SearchChunksFn     func(ctx context.Context, embedding []float32, opts manx.SearchOptions) ([]manx.RAGResult, error)
	KeywordSearchFn    func(ctx context.Context, terms []string, opts manx.SearchOptions) ([]manx.RAGResult, error)
	StatsFn            func(ctx context.Context) (*manx.IndexStats, error)
	ClearFn            func(ctx context.Context) error
}

func (s *IndexStore) ReplaceSource(ctx context.Context, source *manx.Source, chunks []*manx.Chunk) error {
	return s.ReplaceSourceFn(ctx, source, chunks)
}

func (s *IndexStore) FindSourceByPath(ctx context.Context, path string) (*manx.Source, error) {
	return s.FindSourceByPathFn(ctx, path)
}

func (s *IndexStore) FindSources(ctx context.Context, filter manx.SourceFilter) ([]*manx.Source, error) {
	return s.FindSourcesFn(ctx, filter)
}

func (s *IndexStore) DeleteSource(ctx context.Context, path string) error {
	return s.DeleteSourceFn(ctx, path)
}

func (s *IndexStore) SearchChunks(ctx context.Context, embedding []float32, opts manx.SearchOptions) ([]manx.RAGResult, error) {
	return s.SearchChunksFn(ctx, embedding, opts)
}

func (s *IndexStore) KeywordSearch(ctx context.Context, terms []string, opts manx.SearchOptions) ([]manx.RAGResult, error) {
	return s.KeywordSearchFn(ctx, terms, opts)
}

func (s *IndexStore) Stats(ctx context.Context) (*manx.IndexStats, error) {
	return s.StatsFn(ctx)
}

func (s *IndexStore) Clear(ctx context.Context) error {
	return s.ClearFn(ctx)
}

var _ manx.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of manx.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, text string) ([]float32, error)
	InfoFn  func() manx.ProviderInfo
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedFn(ctx, text)
}

func (e *Embedder) Info() manx.ProviderInfo {
	return e.InfoFn()
}

var _ manx.TextReader = (*TextReader)(nil)

// TextReader is a mock implementation of manx.TextReader.
type TextReader struct {
	ReadTextFn func(path string) (string, error)
}

func (r *TextReader) ReadText(path string) (string, error) {
	return r.ReadTextFn(path)
}
