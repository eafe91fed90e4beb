package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/fs"
	"github.com/fwojciec/manx/rag"
)

// maxDocSections is the number of leading documentation sections passed to
// synthesis.
const maxDocSections = 5

// docSectionScore is the relevance assigned to official documentation
// sections.
const docSectionScore = 0.9

// cachedDoc is the value stored in the docs cache category.
type cachedDoc struct {
	Library *manx.Library `json:"library"`
	Text    string        `json:"text"`
}

// Run executes the doc command.
func (c *DocCmd) Run(deps *Dependencies) error {
	ctx, cfg := deps.Ctx, deps.Config

	spec := manx.ParseLibrarySpec(c.Library)
	if spec.Name == "" {
		return manx.Errorf(manx.EINVALID, "library name required")
	}
	if c.RAG {
		return c.runLocal(deps, spec.Name)
	}
	key := manx.SearchCacheKey(spec.String(), c.Query)

	var doc cachedDoc
	var snippets []manx.Snippet
	if cfg.OfflineMode || deps.Docs == nil {
		hit, err := deps.Cache.Get(ctx, manx.CategoryDocs, key, &doc)
		if err != nil {
			return err
		}
		if !hit {
			return manx.Errorf(manx.ENOTFOUND, "no cached documentation available in offline mode")
		}
		snippets = manx.ParseSnippets(doc.Text)
		if doc.Library == nil {
			doc.Library = &manx.Library{ID: spec.String(), Title: spec.Name}
		}
	} else {
		var err error
		if doc.Library, snippets, doc.Text, err = fetchSnippets(ctx, deps.Docs, spec, c.Query); err != nil {
			return err
		}
		if cfg.AutoCacheEnabled {
			if err := deps.Cache.Set(ctx, manx.CategoryDocs, key, doc); err != nil {
				deps.Logger.Warn("failed to cache documentation", "key", key, "error", err)
			} else {
				cacheSnippets(deps, manx.SnippetResults(spec.Name, snippets))
			}
		}
	}

	var synthesis *manx.Synthesis
	if deps.Synthesizer != nil && strings.TrimSpace(doc.Text) != "" {
		synthesis = synthesize(deps, docQuestion(spec.Name, c.Query), docSections(spec.Name, doc.Text))
	}

	if c.Output != "" {
		var err error
		if len(snippets) > 0 {
			err = fs.ExportResults(c.Output, manx.SnippetResults(spec.Name, snippets))
		} else {
			err = fs.ExportText(c.Output, spec.Name, doc.Text)
		}
		if err != nil {
			return err
		}
		deps.Renderer.Success("Documentation exported to %s", c.Output)
	}

	if c.Limit > 0 && len(snippets) > c.Limit {
		snippets = snippets[:c.Limit]
	}
	if deps.Renderer.Quiet() && synthesis != nil {
		return deps.Renderer.JSON(struct {
			Synthesis *manx.Synthesis `json:"synthesis"`
			Library   *manx.Library   `json:"library"`
			Snippets  []manx.Snippet  `json:"snippets,omitempty"`
			Text      string          `json:"text,omitempty"`
		}{synthesis, doc.Library, snippets, rawIfEmpty(snippets, doc.Text)})
	}
	if synthesis != nil {
		deps.Renderer.Synthesis(synthesis)
	}
	return deps.Renderer.Documentation(doc.Library, snippets, doc.Text)
}

// runLocal answers the doc command from indexed documents.
func (c *DocCmd) runLocal(deps *Dependencies, library string) error {
	if deps.RAG == nil {
		return rag.ErrDisabled
	}
	query := strings.TrimSpace(library + " " + c.Query)
	results, err := deps.RAG.Search(deps.Ctx, query, c.Limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return manx.Errorf(manx.ENOTFOUND, "no documentation found for %q in indexed documents", library)
	}

	var synthesis *manx.Synthesis
	if deps.Synthesizer != nil {
		synthesis = synthesize(deps, query, results)
	}

	if c.Output != "" {
		if err := fs.ExportRAGResults(c.Output, results); err != nil {
			return err
		}
		deps.Renderer.Success("Documentation exported to %s", c.Output)
	}

	if deps.Renderer.Quiet() && synthesis != nil {
		return deps.Renderer.JSON(struct {
			Synthesis *manx.Synthesis  `json:"synthesis"`
			Results   []manx.RAGResult `json:"results"`
		}{synthesis, results})
	}
	if synthesis != nil {
		deps.Renderer.Synthesis(synthesis)
	}
	return deps.Renderer.RAGResults(results)
}

// docQuestion phrases the synthesis question for a library and optional
// topic.
func docQuestion(library, topic string) string {
	if topic == "" {
		return fmt.Sprintf("What is %s and how do I use it?", library)
	}
	return fmt.Sprintf("%s in %s", topic, library)
}

// docSections splits documentation text on blank lines and returns the
// first non-empty sections as synthesis context.
func docSections(library, text string) []manx.RAGResult {
	var sections []manx.RAGResult
	for _, part := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n := len(sections) + 1
		sections = append(sections, manx.RAGResult{
			ID:         fmt.Sprintf("%s-section-%d", library, n),
			Content:    part,
			SourcePath: library,
			SourceType: manx.SourceCurated,
			Title:      fmt.Sprintf("%s - Section %d", library, n),
			Section:    fmt.Sprintf("Section %d", n),
			Score:      docSectionScore,
		})
		if len(sections) == maxDocSections {
			break
		}
	}
	return sections
}
