// Package index builds the local RAG index from files, directories and
// crawled web pages.
package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/crawl"
	"github.com/fwojciec/manx/xxhash"
	"golang.org/x/sync/errgroup"
)

// Indexer chunks, embeds and stores documents.
type Indexer struct {
	Store    manx.IndexStore
	Embedder manx.Embedder
	Config   manx.RAGConfig

	// PDF extracts text from PDF files. PDFs are skipped when nil.
	PDF manx.TextReader

	// Crawler fetches web pages for IndexURL.
	Crawler *crawl.Crawler

	// Logger receives security warnings and per-file failures.
	Logger *slog.Logger
}

// Report summarizes an indexing run.
type Report struct {
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Chunks    int `json:"chunks"`
	Exported  int `json:"exported,omitempty"`
}

type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeUnchanged
	outcomeSkipped
)

func (ix *Indexer) logger() *slog.Logger {
	if ix.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return ix.Logger
}

func (ix *Indexer) maxFileSize() int64 {
	return int64(ix.Config.MaxFileSizeMB) * 1024 * 1024
}

// IndexPath indexes a file or every supported file under a directory.
// Failures of individual files in a directory are counted, not returned.
func (ix *Indexer) IndexPath(ctx context.Context, p string) (*Report, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, manx.Errorf(manx.ENOTFOUND, "path does not exist: %s", p)
		}
		return nil, err
	}

	var report Report
	if !info.IsDir() {
		if !manx.IsSupportedFile(abs) && !manx.IsEnvFile(abs) {
			return nil, manx.Errorf(manx.EINVALID, "unsupported file type: %s", p)
		}
		if err := ix.indexOne(ctx, abs, &report); err != nil {
			return nil, err
		}
		return &report, nil
	}

	files, err := FindDocuments(abs, ix.maxFileSize())
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &report, err
		}
		if err := ix.indexOne(ctx, f, &report); err != nil {
			report.Failed++
			ix.logger().Warn("failed to index file", "path", f, "error", err)
		}
	}
	return &report, nil
}

func (ix *Indexer) indexOne(ctx context.Context, p string, report *Report) error {
	result, chunks, err := ix.indexFile(ctx, p)
	if err != nil {
		return err
	}
	switch result {
	case outcomeIndexed:
		report.Indexed++
		report.Chunks += chunks
	case outcomeUnchanged:
		report.Unchanged++
	case outcomeSkipped:
		report.Skipped++
	}
	return nil
}

// indexFile indexes a single local file and returns how it was handled and
// the number of chunks stored.
func (ix *Indexer) indexFile(ctx context.Context, p string) (outcome, int, error) {
	log := ix.logger()

	if manx.IsPDF(p) && (!ix.Config.AllowPDFProcessing || ix.PDF == nil) {
		log.Warn("PDF processing disabled, skipping", "path", p)
		return outcomeSkipped, 0, nil
	}
	if manx.IsCodeFile(p) && !ix.Config.AllowCodeProcessing {
		log.Warn("code processing disabled, skipping", "path", p)
		return outcomeSkipped, 0, nil
	}

	info, err := os.Stat(p)
	if err != nil {
		return 0, 0, err
	}
	if limit := ix.maxFileSize(); limit > 0 && info.Size() > limit {
		return 0, 0, manx.Errorf(manx.EINVALID, "file exceeds %d MB: %s", ix.Config.MaxFileSizeMB, p)
	}

	content, err := ix.readText(p)
	if err != nil {
		return 0, 0, err
	}
	if strings.TrimSpace(content) == "" {
		return 0, 0, manx.Errorf(manx.EINVALID, "document contains no text content: %s", p)
	}

	hash := xxhash.ContentHash(content)
	if existing, err := ix.Store.FindSourceByPath(ctx, p); err == nil && existing.ContentHash == hash {
		return outcomeUnchanged, 0, nil
	} else if err != nil && manx.ErrorCode(err) != manx.ENOTFOUND {
		return 0, 0, err
	}

	title, sections := manx.DetectStructure(content, p)
	meta := manx.DocumentMetadata{
		FileType: strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), "."),
		Size:     info.Size(),
		Modified: info.ModTime(),
		Tags:     manx.TagsFromPath(p),
		Language: "en",
	}
	source := &manx.Source{
		Path:        p,
		SourceType:  manx.SourceLocal,
		Title:       title,
		ContentHash: hash,
	}

	n, err := ix.store(ctx, source, content, sections, meta)
	if err != nil {
		return 0, 0, err
	}
	return outcomeIndexed, n, nil
}

// readText reads a file as text and applies secret masking and the
// configured security checks.
func (ix *Indexer) readText(p string) (string, error) {
	if manx.IsPDF(p) {
		return ix.PDF.ReadText(p)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", manx.Errorf(manx.EINVALID, "file is not valid UTF-8 text: %s", p)
	}
	content := string(data)

	if manx.IsEnvFile(p) {
		return manx.MaskEnvSecrets(content), nil
	}
	if manx.IsCodeFile(p) {
		if err := ix.checkSecurity(p, content); err != nil {
			return "", err
		}
	}
	if ix.Config.MaskSecrets {
		content = manx.MaskSecrets(content)
	}
	return content, nil
}

func (ix *Indexer) checkSecurity(p, content string) error {
	level := ix.Config.CodeSecurityLevel
	for _, f := range manx.ScanContent(content, manx.IsShellScript(p)) {
		if f.Rejects(level) {
			return manx.Errorf(manx.EINVALID, "file rejected by %s security policy (%s: %s): %s", level, f.Kind, f.Detail, p)
		}
		if level == manx.SecurityPermissive {
			ix.logger().Debug("security finding ignored", "path", p, "kind", f.Kind, "detail", f.Detail)
		} else {
			ix.logger().Warn("security finding", "path", p, "kind", f.Kind, "detail", f.Detail)
		}
	}
	return nil
}

// store chunks content, embeds the chunks concurrently and replaces the
// source in the index.
func (ix *Indexer) store(ctx context.Context, source *manx.Source, content string, sections []string, meta manx.DocumentMetadata) (int, error) {
	var chunks []*manx.Chunk
	for i, text := range manx.ChunkContent(content, manx.DefaultChunkSize, manx.DefaultChunkOverlap) {
		cleaned := manx.CleanText(text)
		if cleaned == "" {
			continue
		}
		chunks = append(chunks, &manx.Chunk{
			ID:         fmt.Sprintf("%s_%d", source.Path, i),
			Content:    cleaned,
			SourcePath: source.Path,
			SourceType: source.SourceType,
			Title:      source.Title,
			Section:    manx.SectionFor(text, sections),
			ChunkIndex: i,
			Metadata:   meta,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(ix.Config.Embedding.BatchSize, 1))
	for _, c := range chunks {
		g.Go(func() error {
			vec, err := ix.Embedder.Embed(gctx, c.Content)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", c.ID, err)
			}
			c.Embedding = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := ix.Store.ReplaceSource(ctx, source, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// CrawlOptions controls IndexURL.
type CrawlOptions struct {
	// Depth is the number of link levels followed. Zero indexes the page only.
	Depth int

	// MaxPages caps the number of pages fetched. Zero means no explicit cap.
	MaxPages int

	// All crawls every page under the URL's path, trying the sitemap first.
	All bool

	// Export, if set, also receives every crawled page as markdown.
	Export manx.PageStore
}

// IndexURL crawls rawURL and indexes every fetched page as a web source.
func (ix *Indexer) IndexURL(ctx context.Context, rawURL string, opts CrawlOptions, progress crawl.ProgressFunc) (*Report, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, manx.Errorf(manx.EINVALID, "invalid URL %q: only http and https URLs can be indexed", rawURL)
	}
	if ix.Crawler == nil {
		return nil, manx.Errorf(manx.EINTERNAL, "no crawler configured")
	}

	crawlOpts := crawl.Options{MaxDepth: opts.Depth, MaxPages: opts.MaxPages}
	if opts.All {
		crawlOpts.MaxDepth = -1
		crawlOpts.UseSitemap = true
	}

	result, err := ix.Crawler.Crawl(ctx, rawURL, crawlOpts, progress)
	if err != nil {
		return nil, err
	}

	report := Report{Failed: result.Failed, Skipped: result.Duplicates}
	for _, page := range result.Pages {
		if err := ctx.Err(); err != nil {
			return &report, err
		}
		n, err := ix.indexPage(ctx, page)
		switch {
		case err != nil:
			report.Failed++
			ix.logger().Warn("failed to index page", "url", page.URL, "error", err)
		case n == 0:
			report.Unchanged++
		default:
			report.Indexed++
			report.Chunks += n
		}
	}

	if opts.Export != nil {
		if err := exportPages(ctx, opts.Export, result.Pages); err != nil {
			return &report, err
		}
		report.Exported = len(result.Pages)
	}
	return &report, nil
}

func (ix *Indexer) indexPage(ctx context.Context, page *manx.Page) (int, error) {
	content := page.Content
	if ix.Config.MaskSecrets {
		content = manx.MaskSecrets(content)
	}
	if strings.TrimSpace(content) == "" {
		return 0, manx.Errorf(manx.EINVALID, "page has no content: %s", page.URL)
	}

	hash := xxhash.ContentHash(content)
	if existing, err := ix.Store.FindSourceByPath(ctx, page.URL); err == nil && existing.ContentHash == hash {
		return 0, nil
	}

	u, err := url.Parse(page.URL)
	if err != nil {
		return 0, manx.Errorf(manx.EINVALID, "invalid page URL %q", page.URL)
	}
	name := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if name == "/" || name == "." || name == "" {
		name = u.Host
	}
	title, sections := manx.DetectStructure(content, name+".md")
	if page.Title != "" {
		title = page.Title
	}

	meta := manx.DocumentMetadata{
		FileType: "md",
		Size:     int64(len(content)),
		Tags:     manx.TagsFromPath(path.Join(u.Host, u.Path)),
		Language: "en",
	}
	source := &manx.Source{
		Path:        page.URL,
		SourceType:  manx.SourceWeb,
		Title:       title,
		ContentHash: hash,
	}
	return ix.store(ctx, source, content, sections, meta)
}

func exportPages(ctx context.Context, store manx.PageStore, pages []*manx.Page) error {
	if len(pages) == 0 {
		return store.Abort()
	}
	for _, page := range pages {
		if err := store.Save(ctx, page); err != nil {
			_ = store.Abort()
			return err
		}
	}
	return store.Commit()
}
