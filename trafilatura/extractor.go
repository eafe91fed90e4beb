// Package trafilatura strips boilerplate from crawled pages.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/manx"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ manx.Extractor = (*Extractor)(nil)

// Extractor returns the main content of a page with navigation, footers
// and sidebars removed. When extraction finds no content and Fallback is
// set, Fallback is used instead.
type Extractor struct {
	Fallback manx.Extractor
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the title and main content HTML of rawHTML.
func (e *Extractor) Extract(rawHTML string) (*manx.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, manx.Errorf(manx.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback: true,
		IncludeLinks:   true,
		IncludeImages:  false,
	})
	if err != nil {
		if e.Fallback != nil {
			return e.Fallback.Extract(rawHTML)
		}
		return nil, err
	}

	var buf bytes.Buffer
	if result.ContentNode != nil {
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, err
		}
	}

	if buf.Len() == 0 && e.Fallback != nil {
		return e.Fallback.Extract(rawHTML)
	}

	return &manx.ExtractResult{
		Title:       strings.TrimSpace(result.Metadata.Title),
		ContentHTML: buf.String(),
	}, nil
}
