package main_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/fwojciec/manx"
	main "github.com/fwojciec/manx/cmd/manx"
	"github.com/fwojciec/manx/fs"
	"github.com/fwojciec/manx/mock"
	"github.com/fwojciec/manx/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reactDocs = "TITLE: Using useState\n" +
	"DESCRIPTION: Declare a state variable.\n" +
	"SOURCE: https://react.dev/reference/useState\n" +
	"LANGUAGE: js\n" +
	"CODE:\n" +
	"```js\n" +
	"const [count, setCount] = useState(0)\n" +
	"```\n" +
	"----------------------------------------\n" +
	"TITLE: Using useEffect\n" +
	"DESCRIPTION: Synchronize with an external system.\n" +
	"CODE:\n" +
	"```js\n" +
	"useEffect(() => {})\n" +
	"```\n"

func reactService(t *testing.T) *mock.DocsService {
	t.Helper()
	return &mock.DocsService{
		ResolveLibraryFn: func(_ context.Context, name string) (*manx.Library, error) {
			assert.Equal(t, "react", name)
			return &manx.Library{ID: "/facebook/react", Title: "React"}, nil
		},
		GetDocumentationFn: func(_ context.Context, id, topic string) (string, error) {
			assert.Equal(t, "/facebook/react", id)
			assert.Equal(t, "hooks", topic)
			return reactDocs, nil
		},
	}
}

func newCache(t *testing.T) *fs.Cache {
	t.Helper()
	c, err := fs.NewCache(t.TempDir())
	require.NoError(t, err)
	return c
}

func TestSnippetCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("renders and caches results", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)

		cmd := &main.SnippetCmd{Library: "react", Query: "hooks"}
		require.NoError(t, cmd.Run(deps))

		out := stdout.String()
		assert.Contains(t, out, "2 results found in React /facebook/react:")
		assert.Contains(t, out, "[1] Using useState (react)")
		assert.Contains(t, out, "ID: react-doc-1")
		assert.Contains(t, out, "URL: https://react.dev/reference/useState")

		var cached []manx.SearchResult
		hit, err := deps.Cache.Get(context.Background(), manx.CategorySearch, "react_hooks", &cached)
		require.NoError(t, err)
		require.True(t, hit)
		assert.Len(t, cached, 2)

		var snippet manx.SearchResult
		hit, err = deps.Cache.Get(context.Background(), manx.CategorySnippets, "react_doc-2", &snippet)
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, "Using useEffect", snippet.Title)
	})

	t.Run("does not cache when auto-cache is off", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(true)
		deps.Config.AutoCacheEnabled = false
		deps.Docs = reactService(t)
		deps.Cache = &mock.Cache{
			SetFn: func(context.Context, string, string, any) error {
				t.Error("unexpected cache write")
				return nil
			},
		}

		require.NoError(t, (&main.SnippetCmd{Library: "react", Query: "hooks"}).Run(deps))
	})

	t.Run("applies ranking and limit", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(true)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)
		deps.Ranker = &mock.Ranker{
			RankFn: func(query string, results []manx.SearchResult) []manx.SearchResult {
				assert.Equal(t, "hooks", query)
				return []manx.SearchResult{results[1], results[0]}
			},
		}

		require.NoError(t, (&main.SnippetCmd{Library: "react", Query: "hooks", Limit: 1}).Run(deps))

		var results []manx.SearchResult
		require.NoError(t, sonic.Unmarshal(stdout.Bytes(), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "Using useEffect", results[0].Title)
	})

	t.Run("reads the cache offline", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Config.OfflineMode = true
		deps.Cache = newCache(t)
		require.NoError(t, deps.Cache.Set(context.Background(), manx.CategorySearch, "react_hooks",
			[]manx.SearchResult{{ID: "doc-1", Library: "react", Title: "Cached hooks"}}))

		require.NoError(t, (&main.SnippetCmd{Library: "react", Query: "hooks"}).Run(deps))
		assert.Contains(t, stdout.String(), "1 result found:")
		assert.Contains(t, stdout.String(), "Cached hooks")
	})

	t.Run("fails offline on a cache miss", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		deps.Config.OfflineMode = true
		deps.Cache = newCache(t)

		err := (&main.SnippetCmd{Library: "react", Query: "hooks"}).Run(deps)
		assert.Equal(t, manx.ENOTFOUND, manx.ErrorCode(err))
		assert.Equal(t, "no cached results available in offline mode", manx.ErrorMessage(err))
	})

	t.Run("returns resolve errors", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		deps.Cache = newCache(t)
		deps.Docs = &mock.DocsService{
			ResolveLibraryFn: func(context.Context, string) (*manx.Library, error) {
				return nil, manx.Errorf(manx.ENOTFOUND, "library %q not found", "reactt")
			},
		}

		err := (&main.SnippetCmd{Library: "reactt"}).Run(deps)
		assert.Equal(t, manx.ENOTFOUND, manx.ErrorCode(err))
	})

	t.Run("appends local results", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)
		store := &mock.IndexStore{
			SearchChunksFn: func(_ context.Context, _ []float32, opts manx.SearchOptions) ([]manx.RAGResult, error) {
				assert.Equal(t, 5, opts.Limit)
				return []manx.RAGResult{{ID: "notes_0", Content: "team hook conventions", SourcePath: "/docs/notes.md", Score: 0.8}}, nil
			},
		}
		embedder := &mock.Embedder{
			EmbedFn: func(context.Context, string) ([]float32, error) { return []float32{1}, nil },
			InfoFn:  func() manx.ProviderInfo { return manx.ProviderInfo{Name: "Hash"} },
		}
		deps.RAG = rag.NewService(store, embedder, deps.Config.RAG)

		require.NoError(t, (&main.SnippetCmd{Library: "react", Query: "hooks"}).Run(deps))
		out := stdout.String()
		assert.Contains(t, out, "3 results found")
		assert.Contains(t, out, "[3] notes.md (Local)")
		assert.Contains(t, out, "ID: rag-notes_0")
	})

	t.Run("keeps local results when snippets fill the limit", func(t *testing.T) {
		t.Parallel()

		var docs strings.Builder
		for i := 1; i <= 12; i++ {
			fmt.Fprintf(&docs, "TITLE: Hook %d\nCODE:\n```js\nuse%d()\n```\n%s\n", i, i, strings.Repeat("-", 40))
		}

		deps, stdout, _ := newDeps(false)
		deps.Cache = newCache(t)
		deps.Docs = &mock.DocsService{
			ResolveLibraryFn: func(context.Context, string) (*manx.Library, error) {
				return &manx.Library{ID: "/facebook/react", Title: "React"}, nil
			},
			GetDocumentationFn: func(context.Context, string, string) (string, error) {
				return docs.String(), nil
			},
		}
		store := &mock.IndexStore{
			SearchChunksFn: func(context.Context, []float32, manx.SearchOptions) ([]manx.RAGResult, error) {
				return []manx.RAGResult{{ID: "notes_0", Content: "team hook conventions", SourcePath: "/docs/notes.md", Score: 0.8}}, nil
			},
		}
		embedder := &mock.Embedder{
			EmbedFn: func(context.Context, string) ([]float32, error) { return []float32{1}, nil },
			InfoFn:  func() manx.ProviderInfo { return manx.ProviderInfo{Name: "Hash"} },
		}
		deps.RAG = rag.NewService(store, embedder, deps.Config.RAG)

		require.NoError(t, (&main.SnippetCmd{Library: "react", Query: "hooks"}).Run(deps))
		out := stdout.String()
		assert.Contains(t, out, "11 results found in React /facebook/react:")
		assert.Contains(t, out, "[10] Hook 10 (react)")
		assert.NotContains(t, out, "Hook 11")
		assert.Contains(t, out, "[11] notes.md (Local)")
		assert.Contains(t, out, "ID: rag-notes_0")
	})

	t.Run("prints synthesis before results", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)
		deps.Synthesizer = &mock.Synthesizer{
			SynthesizeFn: func(_ context.Context, query string, results []manx.RAGResult) (*manx.Synthesis, error) {
				assert.Equal(t, "hooks", query)
				require.Len(t, results, 2)
				assert.Equal(t, "Using useState", results[0].Title)
				return &manx.Synthesis{
					Answer:   "**Quick Answer**: call hooks at the top level.",
					Provider: manx.ProviderOpenAI,
					Model:    "gpt-4o-mini",
				}, nil
			},
		}

		require.NoError(t, (&main.SnippetCmd{Library: "react", Query: "hooks"}).Run(deps))
		out := stdout.String()
		assert.Contains(t, out, "AI Summary (openai, gpt-4o-mini)")
		assert.Contains(t, out, "❯ Quick Answer: call hooks at the top level.")
		assert.Less(t, strings.Index(out, "AI Summary"), strings.Index(out, "results found"))
	})

	t.Run("warns when synthesis fails", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)
		deps.Synthesizer = &mock.Synthesizer{
			SynthesizeFn: func(context.Context, string, []manx.RAGResult) (*manx.Synthesis, error) {
				return nil, errors.New("rate limited")
			},
		}

		require.NoError(t, (&main.SnippetCmd{Library: "react", Query: "hooks"}).Run(deps))
		assert.Contains(t, stdout.String(), "AI synthesis unavailable: rate limited")
		assert.Contains(t, stdout.String(), "2 results found")
	})

	t.Run("exports and saves results", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		deps, stdout, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)

		cmd := &main.SnippetCmd{
			Library: "react",
			Query:   "hooks",
			Output:  filepath.Join(dir, "out.json"),
			Save:    "2,9",
			SaveDir: dir,
		}
		require.NoError(t, cmd.Run(deps))
		assert.Contains(t, stdout.String(), "Saved 1 snippets to "+filepath.Join(dir, "react-snippets.md"))

		data, err := os.ReadFile(filepath.Join(dir, "react-snippets.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "## Using useEffect")
		assert.NotContains(t, string(data), "Using useState")

		var exported []manx.SearchResult
		data, err = os.ReadFile(filepath.Join(dir, "out.json"))
		require.NoError(t, err)
		require.NoError(t, sonic.Unmarshal(data, &exported))
		assert.Len(t, exported, 2)
	})

	t.Run("rejects invalid save numbers", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)

		err := (&main.SnippetCmd{Library: "react", Query: "hooks", Save: "one", SaveDir: t.TempDir()}).Run(deps)
		assert.Equal(t, manx.EINVALID, manx.ErrorCode(err))
	})
}
