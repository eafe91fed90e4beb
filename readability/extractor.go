// Package readability extracts article content with Mozilla's Readability
// algorithm. It serves as the fallback for pages trafilatura cannot parse.
package readability

import (
	"strings"

	"github.com/fwojciec/manx"
	"github.com/go-shiori/go-readability"
)

var _ manx.Extractor = (*Extractor)(nil)

// Extractor implements manx.Extractor.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the article title and content of rawHTML.
func (e *Extractor) Extract(rawHTML string) (*manx.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, manx.Errorf(manx.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, manx.Errorf(manx.EINVALID, "readability: %v", err)
	}

	return &manx.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
	}, nil
}
