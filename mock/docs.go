package mock

import (
	"context"

	"github.com/fwojciec/manx"
)

var _ manx.DocsService = (*DocsService)(nil)

// DocsService is a mock implementation of manx.DocsService.
type DocsService struct {
	ResolveLibraryFn   func(ctx context.Context, name string) (*manx.Library, error)
	GetDocumentationFn func(ctx context.Context, libraryID, topic string) (string, error)
}

func (s *DocsService) ResolveLibrary(ctx context.Context, name string) (*manx.Library, error) {
	return s.ResolveLibraryFn(ctx, name)
}

func (s *DocsService) GetDocumentation(ctx context.Context, libraryID, topic string) (string, error) {
	return s.GetDocumentationFn(ctx, libraryID, topic)
}

var _ manx.Ranker = (*Ranker)(nil)

// Ranker is a mock implementation of manx.Ranker.
type Ranker struct {
	RankFn func(query string, results []manx.SearchResult) []manx.SearchResult
}

func (r *Ranker) Rank(query string, results []manx.SearchResult) []manx.SearchResult {
	return r.RankFn(query, results)
}
