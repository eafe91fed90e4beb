package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/anthropic"
	"github.com/fwojciec/manx/crawl"
	"github.com/fwojciec/manx/fs"
	"github.com/fwojciec/manx/gemini"
	"github.com/fwojciec/manx/goquery"
	"github.com/fwojciec/manx/htmltomarkdown"
	manxhttp "github.com/fwojciec/manx/http"
	"github.com/fwojciec/manx/llm"
	"github.com/fwojciec/manx/ollama"
	"github.com/fwojciec/manx/openai"
	"github.com/fwojciec/manx/readability"
	"github.com/fwojciec/manx/redis"
	"github.com/fwojciec/manx/rod"
	manxslog "github.com/fwojciec/manx/slog"
	"github.com/fwojciec/manx/trafilatura"
	"github.com/fwojciec/manx/xxhash"
)

// indexFile is the SQLite database inside rag.index_path.
const indexFile = "index.db"

// customEmbeddingModel is sent as the model name to custom endpoints, which
// serve a single model.
const customEmbeddingModel = "custom-embedding"

// newCache opens the configured cache backend. The returned close function
// releases backend connections.
func newCache(ctx context.Context, cfg *manx.Config) (manx.Cache, func() error, error) {
	maxSize := int64(cfg.MaxCacheSizeMB) << 20
	if cfg.CacheBackend == manx.CacheBackendRedis {
		c, err := redis.Open(ctx, cfg.RedisURL, cfg.CacheTTLHours, maxSize)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis cache: %w", err)
		}
		return c, c.Close, nil
	}

	c, err := fs.NewCache(cfg.ResolvedCacheDir(), fs.WithTTLHours(cfg.CacheTTLHours), fs.WithMaxSize(maxSize))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return c, func() error { return nil }, nil
}

// indexPath returns the SQLite path for the RAG index, creating its
// directory.
func indexPath(cfg manx.RAGConfig) (string, error) {
	if err := os.MkdirAll(cfg.IndexPath, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(cfg.IndexPath, indexFile), nil
}

// newEmbedder builds the embedder selected by cfg. Provider API keys fall
// back to the matching LLM key.
func newEmbedder(ctx context.Context, cfg manx.EmbeddingConfig, llmCfg manx.LLMConfig) (manx.Embedder, error) {
	p, err := manx.ParseEmbeddingProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	switch p.Type {
	case manx.EmbeddingHash:
		return xxhash.NewEmbedder(cfg.Dimension), nil
	case manx.EmbeddingOllama:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = llmCfg.OllamaEndpoint
		}
		return ollama.NewEmbedder(endpoint, p.Model, cfg.Timeout())
	case manx.EmbeddingOpenAI:
		return openai.NewEmbedder(ctx, openai.EmbedderConfig{
			Type:    p.Type,
			Model:   p.Model,
			APIKey:  firstNonEmpty(cfg.APIKey, llmCfg.OpenAIAPIKey),
			BaseURL: cfg.Endpoint,
			Timeout: cfg.Timeout(),
		})
	case manx.EmbeddingHuggingFace:
		return openai.NewEmbedder(ctx, openai.EmbedderConfig{
			Type:    p.Type,
			Model:   p.Model,
			APIKey:  firstNonEmpty(cfg.APIKey, llmCfg.HuggingFaceAPIKey),
			BaseURL: cfg.Endpoint,
			Timeout: cfg.Timeout(),
		})
	case manx.EmbeddingCustom:
		// The model of a custom provider is its endpoint URL.
		return openai.NewEmbedder(ctx, openai.EmbedderConfig{
			Type:    p.Type,
			Model:   customEmbeddingModel,
			APIKey:  cfg.APIKey,
			BaseURL: p.Model,
			Timeout: cfg.Timeout(),
		})
	case manx.EmbeddingGemini:
		client, err := gemini.NewClient(ctx, firstNonEmpty(cfg.APIKey, llmCfg.GeminiAPIKey), cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return gemini.NewEmbedder(client, p.Model), nil
	}
	return nil, manx.Errorf(manx.EINVALID, "unsupported embedding provider %q", cfg.Provider)
}

// newCompleter builds the completer for one LLM provider.
func newCompleter(ctx context.Context, cfg manx.LLMConfig, p manx.LLMProvider) (manx.Completer, error) {
	model := firstNonEmpty(cfg.ModelName, p.DefaultModel())
	key := cfg.APIKey(p)

	switch p {
	case manx.ProviderOpenAI, manx.ProviderGroq, manx.ProviderOpenRouter, manx.ProviderHuggingFace:
		return openai.NewCompleter(ctx, openai.Config{Provider: p, APIKey: key, Model: model, Timeout: cfg.Timeout()})
	case manx.ProviderCustom:
		base, err := openai.BaseURL(p, cfg.CustomEndpoint)
		if err != nil {
			return nil, err
		}
		return openai.NewCompleter(ctx, openai.Config{Provider: p, BaseURL: base, Model: model, Timeout: cfg.Timeout()})
	case manx.ProviderAnthropic:
		return anthropic.NewCompleter(key, anthropic.WithModel(model), anthropic.WithTimeout(cfg.Timeout())), nil
	case manx.ProviderGemini:
		client, err := gemini.NewClient(ctx, key, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return gemini.NewCompleter(client, model), nil
	case manx.ProviderOllama:
		return ollama.NewCompleter(ctx, cfg.OllamaEndpoint, model, cfg.Timeout())
	}
	return nil, manx.Errorf(manx.EINVALID, "unsupported LLM provider %q", p)
}

// newSynthesizer builds the provider fallback chain. It returns nil when no
// provider is available.
func newSynthesizer(ctx context.Context, cfg manx.LLMConfig, logger *slog.Logger) (manx.Synthesizer, error) {
	providers, err := llm.Providers(cfg)
	if err != nil {
		if manx.ErrorCode(err) == manx.EINVALID {
			return nil, nil
		}
		return nil, err
	}

	var completers []manx.Completer
	for _, p := range providers {
		c, err := newCompleter(ctx, cfg, p)
		if err != nil {
			logger.Warn("skipping LLM provider", "provider", p, "error", err)
			continue
		}
		completers = append(completers, manxslog.NewLoggingCompleter(c, logger))
	}
	if len(completers) == 0 {
		return nil, nil
	}

	opts := []llm.Option{
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithTemperature(cfg.Temperature),
		llm.WithLogger(logger),
	}
	if cfg.ModelName != "" {
		opts = append(opts, llm.WithModel(cfg.ModelName))
	}
	return llm.NewSynthesizer(completers, opts...), nil
}

// newCrawler builds the page crawler. Rendering uses headless Chrome; the
// default is plain HTTP. The returned close function stops the browser.
func newCrawler(render bool, logger *slog.Logger) (*crawl.Crawler, func() error, error) {
	var fetcher manx.Fetcher = manxhttp.NewFetcher()
	if render {
		f, err := rod.NewFetcher(rod.WithTimeout(30 * time.Second))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
		}
		fetcher = f
	}
	fetcher = manxslog.NewLoggingFetcher(fetcher, logger)

	extractor := trafilatura.NewExtractor()
	extractor.Fallback = readability.NewExtractor()

	return &crawl.Crawler{
		Sitemaps:     manxslog.NewLoggingSitemapService(manxhttp.NewSitemapService(nil), logger),
		Fetcher:      fetcher,
		Extractor:    extractor,
		Converter:    htmltomarkdown.NewConverter(),
		LinkSelector: goquery.NewLinkSelector(),
		RateLimiter:  crawl.NewDomainLimiter(1.0),
		Log: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
	}, fetcher.Close, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
