package manx

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// LibrarySpec is a library name with an optional version, as typed by the
// user (e.g. "react@18").
type LibrarySpec struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ParseLibrarySpec splits a "name@version" string at the first '@'.
func ParseLibrarySpec(s string) LibrarySpec {
	name, version, _ := strings.Cut(s, "@")
	return LibrarySpec{Name: name, Version: version}
}

// String returns the spec in "name@version" form, or just the name when no
// version is set.
func (s LibrarySpec) String() string {
	if s.Version == "" {
		return s.Name
	}
	return s.Name + "@" + s.Version
}

// Library is a documentation source resolved by the docs service.
type Library struct {
	// ID is the Context7-compatible identifier (e.g. "/facebook/react").
	ID    string `json:"id"`
	Title string `json:"title"`
}

// LibraryCandidate is one match listed by the docs service when resolving
// a library name, in the service's ranking order.
type LibraryCandidate struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	TrustScore float64 `json:"trust_score"`
	Snippets   int     `json:"snippets"`
}

// Snippet is a single documentation entry returned for a library query.
type Snippet struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	Language    string `json:"language,omitempty"`
	Code        string `json:"code,omitempty"`
}

// Excerpt returns the description followed by the fenced code, if any.
func (s *Snippet) Excerpt() string {
	var b strings.Builder
	b.WriteString(s.Description)
	if s.Code != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "```%s\n%s\n```", s.Language, s.Code)
	}
	return b.String()
}

// SearchResult is a ranked documentation hit.
type SearchResult struct {
	ID             string  `json:"id"`
	Library        string  `json:"library"`
	Title          string  `json:"title"`
	Excerpt        string  `json:"excerpt"`
	URL            string  `json:"url,omitempty"`
	RelevanceScore float32 `json:"relevance_score"`
}

// DocsService resolves libraries and retrieves their documentation.
type DocsService interface {
	// ResolveLibrary finds the best matching library for a name.
	// Returns ENOTFOUND if no library matches.
	ResolveLibrary(ctx context.Context, name string) (*Library, error)

	// GetDocumentation returns documentation text for a resolved library ID.
	// The topic narrows the documentation when non-empty.
	GetDocumentation(ctx context.Context, libraryID, topic string) (string, error)
}

// Ranker orders search results by relevance to a query.
type Ranker interface {
	// Rank returns results sorted by descending relevance. The returned
	// results carry their combined relevance score.
	Rank(query string, results []SearchResult) []SearchResult
}

// snippetSeparatorRe matches the dashed lines separating snippet blocks.
var snippetSeparatorRe = regexp.MustCompile(`^-{10,}\s*$`)

// ParseSnippets parses documentation text into snippets. Blocks are
// separated by dashed lines and hold TITLE/DESCRIPTION/SOURCE/LANGUAGE/CODE
// fields. Blocks missing a title or any content are skipped. Snippet IDs are
// assigned as doc-1, doc-2, ... in document order.
func ParseSnippets(text string) []Snippet {
	var snippets []Snippet
	var block []string

	flush := func() {
		if s, ok := parseSnippetBlock(block); ok {
			s.ID = fmt.Sprintf("doc-%d", len(snippets)+1)
			snippets = append(snippets, s)
		}
		block = block[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if snippetSeparatorRe.MatchString(strings.TrimSpace(line)) {
			flush()
			continue
		}
		block = append(block, line)
	}
	flush()

	return snippets
}

func parseSnippetBlock(lines []string) (Snippet, bool) {
	var s Snippet
	var field string
	var desc, code []string
	inFence := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if field == "code" {
			if strings.HasPrefix(trimmed, "```") {
				if !inFence && s.Language == "" {
					s.Language = strings.TrimPrefix(trimmed, "```")
				}
				inFence = !inFence
				continue
			}
			if inFence {
				code = append(code, line)
				continue
			}
		}

		switch {
		case strings.HasPrefix(trimmed, "TITLE:"):
			s.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "TITLE:"))
			field = "title"
		case strings.HasPrefix(trimmed, "DESCRIPTION:"):
			desc = append(desc, strings.TrimSpace(strings.TrimPrefix(trimmed, "DESCRIPTION:")))
			field = "description"
		case strings.HasPrefix(trimmed, "SOURCE:"):
			s.Source = strings.TrimSpace(strings.TrimPrefix(trimmed, "SOURCE:"))
			field = "source"
		case strings.HasPrefix(trimmed, "LANGUAGE:"):
			s.Language = strings.TrimSpace(strings.TrimPrefix(trimmed, "LANGUAGE:"))
			field = "language"
		case strings.HasPrefix(trimmed, "CODE:"):
			field = "code"
		case field == "description" && trimmed != "":
			desc = append(desc, trimmed)
		}
	}

	s.Description = strings.TrimSpace(strings.Join(desc, " "))
	s.Code = strings.TrimRight(strings.Join(code, "\n"), "\n")
	if s.Title == "" || (s.Code == "" && s.Description == "") {
		return Snippet{}, false
	}
	return s, true
}

// SnippetResults converts snippets into search results for a library. The
// service-side order is kept as a positional score in (0, 1].
func SnippetResults(library string, snippets []Snippet) []SearchResult {
	results := make([]SearchResult, 0, len(snippets))
	n := float32(len(snippets))
	for i := range snippets {
		s := &snippets[i]
		results = append(results, SearchResult{
			ID:             s.ID,
			Library:        library,
			Title:          s.Title,
			Excerpt:        s.Excerpt(),
			URL:            s.Source,
			RelevanceScore: 1 - float32(i)/n,
		})
	}
	return results
}

// SnippetKey returns the cache key under which a snippet of a library is stored.
func SnippetKey(library, id string) string {
	return library + "_" + id
}

// ParseSnippetID splits a snippet reference into an optional library and a
// doc-N identifier. Both "doc-3" and "react-doc-3" are accepted.
func ParseSnippetID(ref string) (library, id string, err error) {
	if strings.HasPrefix(ref, "doc-") {
		return "", ref, nil
	}
	lib, n, ok := strings.Cut(ref, "-doc-")
	if !ok || lib == "" || n == "" {
		return "", "", Errorf(EINVALID, "invalid snippet ID %q: expected doc-N or <library>-doc-N", ref)
	}
	return lib, "doc-" + n, nil
}
