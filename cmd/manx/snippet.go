package main

import (
	"context"
	"path/filepath"

	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/fs"
)

// Local results merged into snippet searches and results passed to
// synthesis are capped.
const (
	maxLocalResults     = 5
	maxSynthesisResults = 5
)

// localLibrary labels indexed documents among snippet results.
const localLibrary = "Local"

// Run executes the snippet command.
func (c *SnippetCmd) Run(deps *Dependencies) error {
	ctx, cfg := deps.Ctx, deps.Config

	spec := manx.ParseLibrarySpec(c.Library)
	if spec.Name == "" {
		return manx.Errorf(manx.EINVALID, "library name required")
	}
	limit := c.Limit
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}

	var lib *manx.Library
	var results []manx.SearchResult
	key := manx.SearchCacheKey(spec.String(), c.Query)

	if cfg.OfflineMode || deps.Docs == nil {
		hit, err := deps.Cache.Get(ctx, manx.CategorySearch, key, &results)
		if err != nil {
			return err
		}
		if !hit {
			return manx.Errorf(manx.ENOTFOUND, "no cached results available in offline mode")
		}
	} else {
		var snippets []manx.Snippet
		var err error
		if lib, snippets, _, err = fetchSnippets(ctx, deps.Docs, spec, c.Query); err != nil {
			return err
		}
		results = manx.SnippetResults(spec.Name, snippets)
		if c.Query != "" && deps.Ranker != nil {
			results = deps.Ranker.Rank(c.Query, results)
		}
		if cfg.AutoCacheEnabled {
			cacheResults(deps, key, results)
		}
	}

	// Local results are shown in addition to the limited snippets.
	results = limitResults(results, limit)
	if deps.RAG != nil && c.Query != "" {
		results = append(results, localResults(deps, c.Query)...)
	}

	var synthesis *manx.Synthesis
	if deps.Synthesizer != nil && c.Query != "" && len(results) > 0 {
		synthesis = synthesize(deps, c.Query, searchToRAG(results))
	}

	if err := c.export(deps, spec.Name, results); err != nil {
		return err
	}

	if deps.Renderer.Quiet() && synthesis != nil {
		return deps.Renderer.JSON(struct {
			Synthesis *manx.Synthesis     `json:"synthesis"`
			Results   []manx.SearchResult `json:"results"`
		}{synthesis, results})
	}
	if synthesis != nil {
		deps.Renderer.Synthesis(synthesis)
	}
	return deps.Renderer.SearchResults(results, lib, 0)
}

// export handles -o, --save and --save-all.
func (c *SnippetCmd) export(deps *Dependencies, library string, results []manx.SearchResult) error {
	if c.Output != "" {
		if err := fs.ExportResults(c.Output, results); err != nil {
			return err
		}
		deps.Renderer.Success("Results exported to %s", c.Output)
	}

	if c.Save == "" && !c.SaveAll {
		return nil
	}
	selected := results
	if !c.SaveAll {
		nums, err := fs.ParseSaveNumbers(c.Save)
		if err != nil {
			return err
		}
		if selected, err = fs.SelectResults(results, nums); err != nil {
			return err
		}
	}
	path := filepath.Join(c.SaveDir, fs.SnippetFilename(library, c.SaveAll, c.JSON))
	if err := fs.ExportSnippets(path, library, selected, c.JSON); err != nil {
		return err
	}
	deps.Renderer.Success("Saved %d snippets to %s", len(selected), path)
	return nil
}

// fetchSnippets resolves a library and parses its documentation.
func fetchSnippets(ctx context.Context, docs manx.DocsService, spec manx.LibrarySpec, query string) (*manx.Library, []manx.Snippet, string, error) {
	lib, err := docs.ResolveLibrary(ctx, spec.String())
	if err != nil {
		return nil, nil, "", err
	}
	text, err := docs.GetDocumentation(ctx, lib.ID, query)
	if err != nil {
		return nil, nil, "", err
	}
	return lib, manx.ParseSnippets(text), text, nil
}

// cacheResults stores a search and each of its snippets. Cache failures
// are logged and otherwise ignored.
func cacheResults(deps *Dependencies, key string, results []manx.SearchResult) {
	if err := deps.Cache.Set(deps.Ctx, manx.CategorySearch, key, results); err != nil {
		deps.Logger.Warn("failed to cache search results", "key", key, "error", err)
		return
	}
	cacheSnippets(deps, results)
}

func cacheSnippets(deps *Dependencies, results []manx.SearchResult) {
	for _, r := range results {
		key := manx.SnippetKey(r.Library, r.ID)
		if err := deps.Cache.Set(deps.Ctx, manx.CategorySnippets, key, r); err != nil {
			deps.Logger.Warn("failed to cache snippet", "key", key, "error", err)
			return
		}
	}
}

// localResults searches the index and labels hits as local results.
func localResults(deps *Dependencies, query string) []manx.SearchResult {
	hits, err := deps.RAG.Search(deps.Ctx, query, maxLocalResults)
	if err != nil {
		deps.Logger.Warn("local search failed", "error", err)
		return nil
	}

	results := make([]manx.SearchResult, 0, len(hits))
	for _, h := range hits {
		title := h.Title
		if title == "" {
			title = filepath.Base(h.SourcePath)
		}
		results = append(results, manx.SearchResult{
			ID:             "rag-" + h.ID,
			Library:        localLibrary,
			Title:          title,
			Excerpt:        h.Content,
			URL:            h.SourcePath,
			RelevanceScore: h.Score,
		})
	}
	return results
}

// synthesize answers query from the top results. Failures are reported as
// a warning and yield no synthesis.
func synthesize(deps *Dependencies, query string, results []manx.RAGResult) *manx.Synthesis {
	if len(results) > maxSynthesisResults {
		results = results[:maxSynthesisResults]
	}
	s, err := deps.Synthesizer.Synthesize(deps.Ctx, query, results)
	if err != nil {
		deps.Renderer.Warn("AI synthesis unavailable: %s", errorText(err))
		return nil
	}
	return s
}

func searchToRAG(results []manx.SearchResult) []manx.RAGResult {
	out := make([]manx.RAGResult, 0, len(results))
	for _, r := range results {
		out = append(out, manx.RAGResult{
			ID:         r.ID,
			Content:    r.Excerpt,
			SourcePath: r.URL,
			Title:      r.Title,
			Score:      r.RelevanceScore,
		})
	}
	return out
}

func limitResults(results []manx.SearchResult, limit int) []manx.SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
