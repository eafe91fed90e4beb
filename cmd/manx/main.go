package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/context7"
	"github.com/fwojciec/manx/fuzzy"
	"github.com/fwojciec/manx/index"
	"github.com/fwojciec/manx/pdf"
	"github.com/fwojciec/manx/rag"
	manxslog "github.com/fwojciec/manx/slog"
	"github.com/fwojciec/manx/sqlite"
	"github.com/fwojciec/manx/yaml"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Configuration file path. Set before calling Run().
	ConfigPath string

	// EnvFile is loaded before the environment is read. Empty disables it.
	EnvFile string

	// Getenv replaces os.Getenv for environment overrides.
	Getenv func(string) string

	// closers release the services opened for one run.
	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	path, err := yaml.DefaultPath()
	if err != nil {
		path = "manx.yaml"
	}
	return &Main{
		ConfigPath: path,
		EnvFile:    ".env",
		Getenv:     os.Getenv,
	}
}

// Close releases every service opened by Run.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i]())
	}
	m.closers = nil
	return errors.Join(errs...)
}

func (m *Main) onClose(fn func() error) {
	m.closers = append(m.closers, fn)
}

// Run executes the CLI with the given arguments. Errors are printed to
// stderr before being returned.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("manx"),
		kong.Description("Find documentation snippets, search local docs and synthesize answers."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}
	if args[0] == "--version" {
		fmt.Fprintf(stdout, "manx %s\n", version)
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		NewRenderer(stderr, cli.Quiet, false).Error(stderr, err)
		return err
	}

	err = m.run(kongCtx, cli, deps)
	if err != nil {
		deps.Renderer.Error(stderr, err)
	}
	if cerr := m.Close(); cerr != nil && err == nil {
		deps.Logger.Warn("failed to release resources", "error", cerr)
	}
	return err
}

func (m *Main) run(kongCtx *kong.Context, cli *CLI, deps *Dependencies) error {
	configs := yaml.NewConfigService(m.ConfigPath, yaml.WithEnvFile(m.EnvFile), yaml.WithGetenv(m.Getenv))
	deps.Configs = configs
	deps.Logger = newLogger(deps.Stderr, cli.Debug)
	deps.Renderer = NewRenderer(deps.Stdout, cli.Quiet, !color.NoColor)

	cfg, err := configs.Load()
	if err != nil {
		return err
	}
	deps.Config = cfg
	deps.Renderer = NewRenderer(deps.Stdout, cli.Quiet, cfg.ColorOutput && !color.NoColor)

	if cli.Offline {
		cfg.OfflineMode = true
	}
	if cli.AutoCacheOn || cli.AutoCacheOff {
		cfg.AutoCacheEnabled = cli.AutoCacheOn
		if err := configs.Save(cfg); err != nil {
			return err
		}
		deps.Renderer.Success("Auto-cache %s", onOff(cfg.AutoCacheEnabled))
	}

	command := kongCtx.Command()
	cmd := strings.Fields(command)[0]
	if err := m.wire(command, cli, deps); err != nil {
		return err
	}

	if cli.ClearCache {
		if err := deps.Cache.Clear(deps.Ctx); err != nil {
			return err
		}
		deps.Renderer.Success("Cache cleared")
	}

	if cmd == "root" && !cli.ClearCache && !cli.AutoCacheOn && !cli.AutoCacheOff {
		deps.Renderer.Warn("No command specified. Run 'manx --help' to see available commands.")
		return nil
	}

	return kongCtx.Run(deps)
}

// wire sets up the services a command needs.
func (m *Main) wire(command string, cli *CLI, deps *Dependencies) error {
	ctx, cfg, logger := deps.Ctx, deps.Config, deps.Logger
	cmd := strings.Fields(command)[0]

	needsCache := cli.ClearCache
	switch cmd {
	case "snippet", "doc", "get", "cache":
		needsCache = true
	}
	if needsCache {
		cache, closeCache, err := newCache(ctx, cfg)
		if err != nil {
			return err
		}
		m.onClose(closeCache)
		deps.Cache = manxslog.NewLoggingCache(cache, logger)
	}

	switch cmd {
	case "snippet", "doc":
		if !cfg.OfflineMode {
			client := context7.NewClient(context7.WithAPIKey(cfg.APIKey), context7.WithVersion(version))
			m.onClose(client.Close)
			deps.Docs = manxslog.NewLoggingDocsService(client, logger)
		}
		deps.Ranker = fuzzy.NewRanker()
	}

	switch cmd {
	case "snippet":
		if cfg.RAG.Enabled {
			if err := m.wireRAG(deps); err != nil {
				return err
			}
		}
		if cfg.ShouldUseLLM(cli.Snippet.NoLLM) {
			if err := m.wireSynthesizer(deps); err != nil {
				return err
			}
		}
	case "doc":
		if cli.Doc.RAG && cfg.RAG.Enabled {
			if err := m.wireRAG(deps); err != nil {
				return err
			}
		}
		if cfg.ShouldUseLLM(cli.Doc.NoLLM) {
			if err := m.wireSynthesizer(deps); err != nil {
				return err
			}
		}
	case "rag":
		if err := m.wireRAG(deps); err != nil {
			return err
		}
		if cfg.ShouldUseLLM(cli.RAG.NoLLM) {
			if err := m.wireSynthesizer(deps); err != nil {
				return err
			}
		}
	case "index":
		if err := m.wireRAG(deps); err != nil {
			return err
		}
		if deps.Indexer != nil && isURL(cli.Index.Path) {
			crawler, closeCrawler, err := newCrawler(cli.Index.Render, logger)
			if err != nil {
				return err
			}
			m.onClose(closeCrawler)
			deps.Indexer.Crawler = crawler
		}
	case "sources":
		if err := m.wireRAG(deps); err != nil {
			return err
		}
	case "embedding":
		deps.NewEmbedder = func(ctx context.Context, ec manx.EmbeddingConfig) (manx.Embedder, error) {
			return newEmbedder(ctx, ec, cfg.LLM)
		}
		// Selecting a provider must work even when the current one is broken.
		if strings.HasPrefix(command, "embedding set") {
			return nil
		}
		if err := m.wireRAG(deps); err != nil {
			return err
		}
	}
	return nil
}

// wireRAG builds the embedder and, when RAG is enabled, opens the index
// and sets up search and indexing.
func (m *Main) wireRAG(deps *Dependencies) error {
	cfg := deps.Config
	embedder, err := newEmbedder(deps.Ctx, cfg.RAG.Embedding, cfg.LLM)
	if err != nil {
		return err
	}
	deps.Embedder = manxslog.NewLoggingEmbedder(embedder, deps.Logger)

	if !cfg.RAG.Enabled {
		return nil
	}

	path, err := indexPath(cfg.RAG)
	if err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	db := sqlite.NewDB(path)
	if err := db.Open(); err != nil {
		return fmt.Errorf("failed to open index at %q: %w", path, err)
	}
	m.onClose(db.Close)

	store := manxslog.NewLoggingIndexStore(sqlite.NewIndexStore(db), deps.Logger)
	deps.RAG = rag.NewService(store, deps.Embedder, cfg.RAG, rag.WithLogger(deps.Logger))
	deps.Indexer = &index.Indexer{
		Store:    store,
		Embedder: deps.Embedder,
		Config:   cfg.RAG,
		PDF:      pdf.NewReader(),
		Logger:   deps.Logger,
	}
	return nil
}

func (m *Main) wireSynthesizer(deps *Dependencies) error {
	synth, err := newSynthesizer(deps.Ctx, deps.Config.LLM, deps.Logger)
	if err != nil {
		return err
	}
	deps.Synthesizer = synth
	return nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
