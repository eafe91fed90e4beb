package main_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/manx"
	main "github.com/fwojciec/manx/cmd/manx"
	"github.com/fwojciec/manx/mock"
	"github.com/fwojciec/manx/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("renders parsed snippets and caches them", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)

		require.NoError(t, (&main.DocCmd{Library: "react", Query: "hooks"}).Run(deps))

		out := stdout.String()
		assert.Contains(t, out, "React /facebook/react")
		assert.Contains(t, out, "Using useState [doc-1]")
		assert.Contains(t, out, "const [count, setCount] = useState(0)")

		var snippet manx.SearchResult
		hit, err := deps.Cache.Get(context.Background(), manx.CategorySnippets, "react_doc-1", &snippet)
		require.NoError(t, err)
		assert.True(t, hit)
	})

	t.Run("serves cached documentation offline", func(t *testing.T) {
		t.Parallel()

		online, _, _ := newDeps(true)
		online.Docs = reactService(t)
		online.Cache = newCache(t)
		require.NoError(t, (&main.DocCmd{Library: "react", Query: "hooks"}).Run(online))

		deps, stdout, _ := newDeps(false)
		deps.Config.OfflineMode = true
		deps.Cache = online.Cache

		require.NoError(t, (&main.DocCmd{Library: "react", Query: "hooks"}).Run(deps))
		assert.Contains(t, stdout.String(), "Using useEffect [doc-2]")
	})

	t.Run("fails offline on a cache miss", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		deps.Config.OfflineMode = true
		deps.Cache = newCache(t)

		err := (&main.DocCmd{Library: "react"}).Run(deps)
		assert.Equal(t, manx.ENOTFOUND, manx.ErrorCode(err))
	})

	t.Run("exports raw text without snippets", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		deps.Cache = newCache(t)
		deps.Docs = &mock.DocsService{
			ResolveLibraryFn: func(context.Context, string) (*manx.Library, error) {
				return &manx.Library{ID: "/vuejs/core", Title: "Vue"}, nil
			},
			GetDocumentationFn: func(context.Context, string, string) (string, error) {
				return "Plain overview text.", nil
			},
		}
		out := filepath.Join(t.TempDir(), "vue.md")

		require.NoError(t, (&main.DocCmd{Library: "vue", Output: out}).Run(deps))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "Plain overview text.", string(data))
	})

	t.Run("synthesizes from leading documentation sections", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Cache = newCache(t)
		deps.Docs = &mock.DocsService{
			ResolveLibraryFn: func(context.Context, string) (*manx.Library, error) {
				return &manx.Library{ID: "/vuejs/core", Title: "Vue"}, nil
			},
			GetDocumentationFn: func(context.Context, string, string) (string, error) {
				return "Part 1\n\nPart 2\n\n\n\nPart 3\n\nPart 4\n\nPart 5\n\nPart 6\n\nPart 7", nil
			},
		}
		deps.Synthesizer = &mock.Synthesizer{
			SynthesizeFn: func(_ context.Context, query string, results []manx.RAGResult) (*manx.Synthesis, error) {
				assert.Equal(t, "What is vue and how do I use it?", query)
				require.Len(t, results, 5)
				assert.Equal(t, "vue-section-1", results[0].ID)
				assert.Equal(t, "vue - Section 1", results[0].Title)
				assert.Equal(t, manx.SourceCurated, results[0].SourceType)
				assert.Equal(t, "Part 3", results[2].Content)
				assert.Equal(t, "Part 5", results[4].Content)
				return &manx.Synthesis{Answer: "Vue is a UI framework.", Provider: manx.ProviderGroq, Model: "llama-3.1-8b-instant"}, nil
			},
		}

		require.NoError(t, (&main.DocCmd{Library: "vue"}).Run(deps))
		out := stdout.String()
		assert.Contains(t, out, "Vue is a UI framework.")
		assert.Less(t, strings.Index(out, "AI Summary"), strings.Index(out, "Vue /vuejs/core"))
	})

	t.Run("asks about the topic within the library", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)
		var asked string
		deps.Synthesizer = &mock.Synthesizer{
			SynthesizeFn: func(_ context.Context, query string, _ []manx.RAGResult) (*manx.Synthesis, error) {
				asked = query
				return &manx.Synthesis{Answer: "Call hooks at the top level."}, nil
			},
		}

		require.NoError(t, (&main.DocCmd{Library: "react", Query: "hooks"}).Run(deps))
		assert.Equal(t, "hooks in react", asked)
	})

	t.Run("limits displayed snippets", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Docs = reactService(t)
		deps.Cache = newCache(t)

		require.NoError(t, (&main.DocCmd{Library: "react", Query: "hooks", Limit: 1}).Run(deps))
		out := stdout.String()
		assert.Contains(t, out, "Using useState [doc-1]")
		assert.NotContains(t, out, "Using useEffect")
	})

	t.Run("searches indexed documents", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		store := &mock.IndexStore{
			SearchChunksFn: func(_ context.Context, _ []float32, opts manx.SearchOptions) ([]manx.RAGResult, error) {
				assert.Equal(t, 3, opts.Limit)
				return []manx.RAGResult{{ID: "hooks_0", Title: "Hooks guide", Content: "Team hook conventions.", SourcePath: "/docs/hooks.md", Score: 0.8}}, nil
			},
		}
		embedder := &mock.Embedder{
			EmbedFn: func(_ context.Context, text string) ([]float32, error) {
				assert.Equal(t, "react hooks", text)
				return []float32{1}, nil
			},
			InfoFn: func() manx.ProviderInfo { return manx.ProviderInfo{Name: "Hash"} },
		}
		deps.RAG = rag.NewService(store, embedder, deps.Config.RAG)
		deps.Synthesizer = &mock.Synthesizer{
			SynthesizeFn: func(_ context.Context, query string, results []manx.RAGResult) (*manx.Synthesis, error) {
				assert.Equal(t, "react hooks", query)
				require.Len(t, results, 1)
				return &manx.Synthesis{Answer: "Follow the team conventions."}, nil
			},
		}

		require.NoError(t, (&main.DocCmd{Library: "react", Query: "hooks", Limit: 3, RAG: true}).Run(deps))
		out := stdout.String()
		assert.Contains(t, out, "Follow the team conventions.")
		assert.Contains(t, out, "[1] Hooks guide")
		assert.Contains(t, out, "Source: /docs/hooks.md")
	})

	t.Run("requires the index for indexed documents", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)

		err := (&main.DocCmd{Library: "react", RAG: true}).Run(deps)
		assert.ErrorIs(t, err, rag.ErrDisabled)
	})
}

func TestGetCmd_Run(t *testing.T) {
	t.Parallel()

	snippet := manx.SearchResult{
		ID:      "doc-3",
		Library: "react",
		Title:   "Refs",
		Excerpt: "Use useRef to hold a mutable value.",
		URL:     "https://react.dev/reference/useRef",
	}

	t.Run("expands a library-qualified ID", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.Cache = newCache(t)
		require.NoError(t, deps.Cache.Set(context.Background(), manx.CategorySnippets, "react_doc-3", snippet))

		require.NoError(t, (&main.GetCmd{ID: "react-doc-3"}).Run(deps))
		out := stdout.String()
		assert.Contains(t, out, "react-doc-3 (react)")
		assert.Contains(t, out, "Use useRef to hold a mutable value.")
		assert.Contains(t, out, "Source: https://react.dev/reference/useRef")
	})

	t.Run("finds the latest snippet with a bare ID", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(true)
		deps.Cache = newCache(t)
		require.NoError(t, deps.Cache.Set(context.Background(), manx.CategorySnippets, "react_doc-3", snippet))

		require.NoError(t, (&main.GetCmd{ID: "doc-3"}).Run(deps))
		assert.JSONEq(t, `{
			"id": "react-doc-3",
			"library": "react",
			"content": "Refs\n\nUse useRef to hold a mutable value.\n\nSource: https://react.dev/reference/useRef"
		}`, stdout.String())
	})

	t.Run("reports a missing snippet", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		deps.Cache = newCache(t)

		err := (&main.GetCmd{ID: "doc-7"}).Run(deps)
		assert.Equal(t, manx.ENOTFOUND, manx.ErrorCode(err))
		assert.Equal(t, "snippet doc-7 not found in cache; run a search first", manx.ErrorMessage(err))

		err = (&main.GetCmd{ID: "vue-doc-7"}).Run(deps)
		assert.Equal(t, manx.ENOTFOUND, manx.ErrorCode(err))
	})

	t.Run("rejects malformed IDs", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		deps.Cache = newCache(t)

		err := (&main.GetCmd{ID: "snippet-3"}).Run(deps)
		assert.Equal(t, manx.EINVALID, manx.ErrorCode(err))
	})
}
