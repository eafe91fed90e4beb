package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/crawl"
	"github.com/fwojciec/manx/fs"
	"github.com/fwojciec/manx/index"
	"github.com/fwojciec/manx/rag"
)

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	if deps.Indexer == nil {
		return rag.ErrDisabled
	}

	var report *index.Report
	var err error
	if isURL(c.Path) {
		opts := index.CrawlOptions{Depth: c.Depth, MaxPages: c.MaxPages, All: c.CrawlAll}
		if c.Export != "" {
			opts.Export = fs.NewPageStore(c.Export)
		}
		report, err = deps.Indexer.IndexURL(deps.Ctx, c.Path, opts, c.progress(deps))
	} else {
		report, err = deps.Indexer.IndexPath(deps.Ctx, c.Path)
	}
	if err != nil {
		return err
	}

	if deps.Renderer.Quiet() {
		return deps.Renderer.JSON(report)
	}
	deps.Renderer.Success("Indexed %d documents (%d chunks) from %s", report.Indexed, report.Chunks, c.Path)
	if report.Unchanged > 0 {
		deps.Renderer.Field("Unchanged", report.Unchanged)
	}
	if report.Skipped > 0 {
		deps.Renderer.Field("Skipped", report.Skipped)
	}
	if report.Failed > 0 {
		deps.Renderer.Field("Failed", report.Failed)
	}
	switch {
	case report.Exported > 0:
		deps.Renderer.Field("Exported to", c.Export)
	case c.Export != "":
		deps.Renderer.Warn("No pages crawled, kept existing export at %s", c.Export)
	}
	return nil
}

// progress prints one line per fetched page to stderr. Quiet mode prints
// nothing.
func (c *IndexCmd) progress(deps *Dependencies) crawl.ProgressFunc {
	if deps.Renderer.Quiet() {
		return nil
	}
	return func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressCompleted:
			fmt.Fprintf(deps.Stderr, "[%d/%d] %s\n", e.Completed, e.Total, crawl.TruncateURL(e.URL, 80))
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "[%d/%d] failed %s: %v\n", e.Completed, e.Total, crawl.TruncateURL(e.URL, 80), e.Error)
		}
	}
}

// Run executes the sources list command.
func (c *SourcesListCmd) Run(deps *Dependencies) error {
	if deps.RAG == nil {
		return rag.ErrDisabled
	}
	sources, err := deps.RAG.Sources(deps.Ctx)
	if err != nil {
		return err
	}

	if deps.Renderer.Quiet() {
		if sources == nil {
			sources = []*manx.Source{}
		}
		return deps.Renderer.JSON(sources)
	}
	if len(sources) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents indexed. Use 'manx index <path>' to add some.")
		return nil
	}
	for _, s := range sources {
		fmt.Fprintf(deps.Stdout, "%s  %-6s  %3d chunks  %s\n", s.IndexedAt.Local().Format("2006-01-02 15:04"), s.SourceType, s.ChunkCount, s.Path)
	}
	return nil
}

// Run executes the sources clear command.
func (c *SourcesClearCmd) Run(deps *Dependencies) error {
	if deps.RAG == nil {
		return rag.ErrDisabled
	}
	if err := deps.RAG.Clear(deps.Ctx); err != nil {
		return err
	}
	deps.Renderer.Success("Cleared all indexed documents")
	return nil
}

// Run executes the sources remove command.
func (c *SourcesRemoveCmd) Run(deps *Dependencies) error {
	if deps.RAG == nil {
		return rag.ErrDisabled
	}
	path := c.Path
	if !isURL(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		path = abs
	}
	if err := deps.RAG.RemoveSource(deps.Ctx, path); err != nil {
		return err
	}
	deps.Renderer.Success("Removed %s", path)
	return nil
}

// Run executes the rag command.
func (c *RAGCmd) Run(deps *Dependencies) error {
	if deps.RAG == nil {
		return rag.ErrDisabled
	}
	results, err := deps.RAG.Search(deps.Ctx, c.Query, c.Limit)
	if err != nil {
		return err
	}

	var synthesis *manx.Synthesis
	if deps.Synthesizer != nil && len(results) > 0 {
		synthesis = synthesize(deps, c.Query, results)
	}

	if c.Output != "" {
		if err := fs.ExportRAGResults(c.Output, results); err != nil {
			return err
		}
		deps.Renderer.Success("Results exported to %s", c.Output)
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
