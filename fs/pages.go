package fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/manx"
)

var _ manx.PageStore = (*PageStore)(nil)

// PageStore mirrors crawled pages as markdown files. Pages are written to
// <dir>.tmp and replace <dir> on Commit, so a failed crawl never leaves a
// partial export behind.
type PageStore struct {
	dir   string
	now   func() time.Time
	saved int
}

// NewPageStore creates a PageStore exporting to dir. Leftovers of an
// interrupted export are removed.
func NewPageStore(dir string) *PageStore {
	s := &PageStore{dir: filepath.Clean(dir), now: time.Now}
	_ = os.RemoveAll(s.tempDir())
	return s
}

func (s *PageStore) tempDir() string {
	return s.dir + ".tmp"
}

func (s *PageStore) backupDir() string {
	return s.dir + ".bak"
}

// Save writes page under the path of its URL.
func (s *PageStore) Save(ctx context.Context, page *manx.Page) error {
	rel, err := URLToPath(page.URL)
	if err != nil {
		return err
	}
	root := s.tempDir()
	full := filepath.Join(root, rel)
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return manx.Errorf(manx.EINVALID, "page path escapes export directory: %s", page.URL)
	}
	if err := writeFileAtomic(full, []byte(FormatPage(page, s.now()))); err != nil {
		return err
	}
	s.saved++
	return nil
}

// Commit replaces the export directory with the saved pages. Without saved
// pages the existing export is kept.
func (s *PageStore) Commit() error {
	if s.saved == 0 {
		return s.Abort()
	}

	backup := s.backupDir()
	if err := os.RemoveAll(backup); err != nil {
		return err
	}
	hadExport := true
	if err := os.Rename(s.dir, backup); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		hadExport = false
	}
	if err := os.Rename(s.tempDir(), s.dir); err != nil {
		if hadExport {
			_ = os.Rename(backup, s.dir)
		}
		return err
	}
	s.saved = 0
	return os.RemoveAll(backup)
}

// Abort discards the saved pages.
func (s *PageStore) Abort() error {
	s.saved = 0
	return os.RemoveAll(s.tempDir())
}

// URLToPath maps a page URL to a relative markdown path.
// https://example.com/docs/api/users becomes docs/api/users.md; a trailing
// slash maps to index.md.
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", manx.Errorf(manx.EINVALID, "invalid page URL %q", rawURL)
	}

	p := strings.TrimPrefix(u.Path, "/")
	switch {
	case p == "":
		return "index.md", nil
	case strings.HasSuffix(p, "/"):
		return filepath.FromSlash(p + "index.md"), nil
	case strings.HasSuffix(p, ".md"):
		return filepath.FromSlash(p), nil
	}
	return filepath.FromSlash(strings.TrimSuffix(p, ".html") + ".md"), nil
}

// FormatPage renders page with YAML frontmatter.
func FormatPage(page *manx.Page, crawled time.Time) string {
	var b strings.Builder
	b.WriteString("---\nsource: ")
	b.WriteString(page.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(page.Title)
	b.WriteString("\ncrawled: ")
	b.WriteString(crawled.Format(time.DateOnly))
	b.WriteString("\n---\n\n")
	b.WriteString(page.Content)
	return b.String()
}
