package main_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fwojciec/manx"
	main "github.com/fwojciec/manx/cmd/manx"
	"github.com/fwojciec/manx/index"
	"github.com/fwojciec/manx/mock"
	"github.com/fwojciec/manx/rag"
	"github.com/fwojciec/manx/sqlite"
	"github.com/fwojciec/manx/xxhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withIndex wires an in-memory index with the hash embedder into deps.
func withIndex(t *testing.T, deps *main.Dependencies) {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.NewIndexStore(db)
	embedder := xxhash.NewEmbedder(xxhash.DefaultDimension)
	deps.Config.RAG.Enabled = true
	deps.Embedder = embedder
	deps.RAG = rag.NewService(store, embedder, deps.Config.RAG)
	deps.Indexer = &index.Indexer{Store: store, Embedder: embedder, Config: deps.Config.RAG}
}

func TestIndexCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("indexes a directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# Alpha\n\nFirst document."), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("Second document."), 0o644))

		deps, stdout, _ := newDeps(false)
		withIndex(t, deps)

		require.NoError(t, (&main.IndexCmd{Path: dir}).Run(deps))
		assert.Contains(t, stdout.String(), "✓ Indexed 2 documents (")
		assert.Contains(t, stdout.String(), "chunks) from "+dir)

		stdout.Reset()
		require.NoError(t, (&main.IndexCmd{Path: dir}).Run(deps))
		assert.Contains(t, stdout.String(), "Indexed 0 documents")
		assert.Contains(t, stdout.String(), "Unchanged")
	})

	t.Run("reports JSON in quiet mode", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "a.md")
		require.NoError(t, os.WriteFile(path, []byte("# Alpha\n\nFirst document."), 0o644))

		deps, stdout, _ := newDeps(true)
		withIndex(t, deps)

		require.NoError(t, (&main.IndexCmd{Path: path}).Run(deps))
		var report index.Report
		require.NoError(t, sonic.Unmarshal(stdout.Bytes(), &report))
		assert.Equal(t, 1, report.Indexed)
		assert.Positive(t, report.Chunks)
	})

	t.Run("requires RAG", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		err := (&main.IndexCmd{Path: "."}).Run(deps)
		assert.Equal(t, rag.ErrDisabled, err)
	})
}

func TestSourcesCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists, removes and clears sources", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a := filepath.Join(dir, "a.md")
		b := filepath.Join(dir, "b.md")
		require.NoError(t, os.WriteFile(a, []byte("Alpha notes."), 0o644))
		require.NoError(t, os.WriteFile(b, []byte("Beta notes."), 0o644))

		deps, stdout, _ := newDeps(false)
		withIndex(t, deps)
		require.NoError(t, (&main.IndexCmd{Path: dir}).Run(deps))

		stdout.Reset()
		require.NoError(t, (&main.SourcesListCmd{}).Run(deps))
		assert.Contains(t, stdout.String(), a)
		assert.Contains(t, stdout.String(), b)

		require.NoError(t, (&main.SourcesRemoveCmd{Path: a}).Run(deps))
		stdout.Reset()
		require.NoError(t, (&main.SourcesListCmd{}).Run(deps))
		assert.NotContains(t, stdout.String(), a)
		assert.Contains(t, stdout.String(), b)

		require.NoError(t, (&main.SourcesClearCmd{}).Run(deps))
		stdout.Reset()
		require.NoError(t, (&main.SourcesListCmd{}).Run(deps))
		assert.Equal(t, "No documents indexed. Use 'manx index <path>' to add some.\n", stdout.String())
	})

	t.Run("lists an empty index as a JSON array", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(true)
		withIndex(t, deps)

		require.NoError(t, (&main.SourcesListCmd{}).Run(deps))
		assert.JSONEq(t, "[]", stdout.String())
	})

	t.Run("removing an unknown source is not found", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		withIndex(t, deps)

		err := (&main.SourcesRemoveCmd{Path: "https://example.com/docs"}).Run(deps)
		assert.Equal(t, manx.ENOTFOUND, manx.ErrorCode(err))
	})

	t.Run("requires RAG", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps(false)
		assert.Equal(t, rag.ErrDisabled, (&main.SourcesListCmd{}).Run(deps))
		assert.Equal(t, rag.ErrDisabled, (&main.SourcesClearCmd{}).Run(deps))
		assert.Equal(t, rag.ErrDisabled, (&main.SourcesRemoveCmd{Path: "x"}).Run(deps))
	})
}

func TestRAGCmd_Run(t *testing.T) {
	t.Parallel()

	store := func() *mock.IndexStore {
		return &mock.IndexStore{
			SearchChunksFn: func(context.Context, []float32, manx.SearchOptions) ([]manx.RAGResult, error) {
				return []manx.RAGResult{{
					ID:         "/docs/auth.md_0",
					Content:    "Rotate refresh tokens hourly.",
					SourcePath: "/docs/auth.md",
					Title:      "Auth",
					Section:    "Tokens",
					Score:      0.91,
					Metadata:   manx.DocumentMetadata{Modified: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
				}}, nil
			},
		}
	}
	embedder := &mock.Embedder{
		EmbedFn: func(context.Context, string) ([]float32, error) { return []float32{1}, nil },
		InfoFn:  func() manx.ProviderInfo { return manx.ProviderInfo{Name: "Hash"} },
	}

	t.Run("renders local results", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(false)
		deps.RAG = rag.NewService(store(), embedder, deps.Config.RAG)

		require.NoError(t, (&main.RAGCmd{Query: "refresh tokens"}).Run(deps))
		out := stdout.String()
		assert.Contains(t, out, "1 local results:")
		assert.Contains(t, out, "[1] Auth (0.910)")
		assert.Contains(t, out, "Source: /docs/auth.md")
		assert.Contains(t, out, "Section: Tokens")
	})

	t.Run("combines synthesis and results in quiet mode", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps(true)
		deps.RAG = rag.NewService(store(), embedder, deps.Config.RAG)
		deps.Synthesizer = &mock.Synthesizer{
			SynthesizeFn: func(_ context.Context, _ string, results []manx.RAGResult) (*manx.Synthesis, error) {
				require.Len(t, results, 1)
				return &manx.Synthesis{Answer: "Rotate hourly [Source 1].", Provider: manx.ProviderAnthropic}, nil
			},
		}

		require.NoError(t, (&main.RAGCmd{Query: "refresh tokens"}).Run(deps))
		var got struct {
			Synthesis manx.Synthesis   `json:"synthesis"`
			Results   []manx.RAGResult `json:"results"`
		}
		require.NoError(t, sonic.Unmarshal(stdout.Bytes(), &got))
		assert.Equal(t, "Rotate hourly [Source 1].", got.Synthesis.Answer)
		assert.Len(t, got.Results, 1)
	})

	t.Run("exports results", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "rag.md")
		deps, _, _ := newDeps(false)
		deps.RAG = rag.NewService(store(), embedder, deps.Config.RAG)

		require.NoError(t, (&main.RAGCmd{Query: "refresh tokens", Output: path}).Run(deps))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "## [1] Auth")
	})

	t.Run("returns search errors", func(t *testing.T) {
		t.Parallel()

		failing := &mock.IndexStore{
			SearchChunksFn: func(context.Context, []float32, manx.SearchOptions) ([]manx.RAGResult, error) {
				return nil, errors.New("disk I/O error")
			},
		}
		deps, _, _ := newDeps(false)
		deps.RAG = rag.NewService(failing, embedder, deps.Config.RAG)

		err := (&main.RAGCmd{Query: "tokens"}).Run(deps)
		assert.ErrorContains(t, err, "disk I/O error")
	})
}
