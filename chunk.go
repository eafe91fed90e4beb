package manx

import (
	"context"
	"time"
)

// SourceType classifies where indexed content came from.
type SourceType string

// Source types.
const (
	SourceLocal   SourceType = "local"
	SourceRemote  SourceType = "remote"
	SourceCurated SourceType = "curated"
	SourceWeb     SourceType = "web"
)

// DocumentMetadata describes the document a chunk belongs to.
type DocumentMetadata struct {
	FileType string    `json:"file_type"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Tags     []string  `json:"tags,omitempty"`
	Language string    `json:"language,omitempty"`
}

// Chunk is a section of a document optimized for embedding and retrieval.
type Chunk struct {
	ID         string           `json:"id"`
	Content    string           `json:"content"`
	SourcePath string           `json:"source_path"`
	SourceType SourceType       `json:"source_type"`
	Title      string           `json:"title,omitempty"`
	Section    string           `json:"section,omitempty"`
	ChunkIndex int              `json:"chunk_index"`
	Metadata   DocumentMetadata `json:"metadata"`
	Embedding  []float32        `json:"embedding,omitempty"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.SourcePath == "" {
		return Errorf(EINVALID, "chunk source path required")
	}
	if c.Content == "" {
		return Errorf(EINVALID, "chunk content required")
	}
	return nil
}

// Source is an indexed file or web page.
type Source struct {
	ID          string     `json:"id"`
	Path        string     `json:"path"`
	SourceType  SourceType `json:"source_type"`
	Title       string     `json:"title,omitempty"`
	ContentHash string     `json:"content_hash"`
	ChunkCount  int        `json:"chunk_count"`
	IndexedAt   time.Time  `json:"indexed_at"`
}

// Validate returns an error if the source contains invalid fields.
func (s *Source) Validate() error {
	if s.Path == "" {
		return Errorf(EINVALID, "source path required")
	}
	switch s.SourceType {
	case SourceLocal, SourceRemote, SourceCurated, SourceWeb:
	default:
		return Errorf(EINVALID, "invalid source type %q", s.SourceType)
	}
	return nil
}

// SourceFilter represents a filter for FindSources.
type SourceFilter struct {
	Path       *string     `json:"path"`
	SourceType *SourceType `json:"sourceType"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// IndexStats summarizes the local index.
type IndexStats struct {
	Documents   int       `json:"total_documents"`
	Chunks      int       `json:"total_chunks"`
	SizeBytes   int64     `json:"index_size_bytes"`
	LastUpdated time.Time `json:"last_updated"`
	Sources     []string  `json:"sources"`
}

// RAGResult is a chunk matched by a local search.
type RAGResult struct {
	ID         string           `json:"id"`
	Content    string           `json:"content"`
	SourcePath string           `json:"source_path"`
	SourceType SourceType       `json:"source_type"`
	Title      string           `json:"title,omitempty"`
	Section    string           `json:"section,omitempty"`
	Score      float32          `json:"score"`
	Metadata   DocumentMetadata `json:"metadata"`
}

// SearchOptions configures index search.
type SearchOptions struct {
	// Maximum number of results to return.
	Limit int `json:"limit,omitempty"`

	// Minimum similarity score (0-1).
	MinScore float32 `json:"minScore,omitempty"`
}

// IndexStore persists sources and their embedded chunks.
type IndexStore interface {
	// ReplaceSource stores a source with its chunks, replacing any chunks
	// previously stored for the same path.
	ReplaceSource(ctx context.Context, source *Source, chunks []*Chunk) error

	// FindSourceByPath retrieves a source by path.
	// Returns ENOTFOUND if the source does not exist.
	FindSourceByPath(ctx context.Context, path string) (*Source, error)

	// FindSources retrieves sources matching the filter.
	FindSources(ctx context.Context, filter SourceFilter) ([]*Source, error)

	// DeleteSource removes a source and its chunks.
	// Returns ENOTFOUND if the source does not exist.
	DeleteSource(ctx context.Context, path string) error

	// SearchChunks returns chunks ordered by cosine similarity to embedding.
	SearchChunks(ctx context.Context, embedding []float32, opts SearchOptions) ([]RAGResult, error)

	// KeywordSearch returns chunks ordered by the fraction of query terms
	// they contain.
	KeywordSearch(ctx context.Context, terms []string, opts SearchOptions) ([]RAGResult, error)

	// Stats summarizes the index.
	Stats(ctx context.Context) (*IndexStats, error)

	// Clear removes all sources and chunks.
	Clear(ctx context.Context) error
}

// TextReader extracts plain text from a binary document such as a PDF.
type TextReader interface {
	// ReadText returns the document's text. Returns EINVALID if the
	// document fails validation.
	ReadText(path string) (string, error)
}
