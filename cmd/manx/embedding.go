package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/manx"
)

// dimensionProbe is embedded to detect a provider's dimension.
const dimensionProbe = "dimension probe"

// Run executes the embedding status command.
func (c *EmbeddingStatusCmd) Run(deps *Dependencies) error {
	cfg := deps.Config.RAG.Embedding
	status := struct {
		Provider string            `json:"provider"`
		Info     manx.ProviderInfo `json:"info"`
		Healthy  bool              `json:"healthy"`
		Dim      int               `json:"dimension"`
		Chunks   int               `json:"indexed_chunks,omitempty"`
		Error    string            `json:"error,omitempty"`
	}{Provider: cfg.Provider, Info: deps.Embedder.Info(), Dim: cfg.Dimension}

	if deps.RAG != nil {
		h, err := deps.RAG.HealthCheck(deps.Ctx)
		status.Healthy = err == nil
		if h.Stats != nil {
			status.Chunks = h.Stats.Chunks
		}
		if err != nil {
			status.Error = errorText(err)
		}
	} else {
		_, err := deps.Embedder.Embed(deps.Ctx, dimensionProbe)
		status.Healthy = err == nil
		if err != nil {
			status.Error = errorText(err)
		}
	}

	if deps.Renderer.Quiet() {
		return deps.Renderer.JSON(status)
	}
	r := deps.Renderer
	r.Heading("Embedding Provider")
	r.Field("Provider", status.Provider)
	r.Field("Name", status.Info.Name)
	if status.Info.Model != "" {
		r.Field("Model", status.Info.Model)
	}
	r.Field("Dimension", status.Dim)
	if deps.RAG != nil {
		r.Field("Indexed chunks", status.Chunks)
	}
	if status.Healthy {
		r.Success("Provider is working")
	} else {
		r.Warn("Provider check failed: %s", status.Error)
	}
	return nil
}

// Run executes the embedding set command. Unless a dimension is given, the
// provider is probed to detect it.
func (c *EmbeddingSetCmd) Run(deps *Dependencies) error {
	p, err := manx.ParseEmbeddingProvider(c.Provider)
	if err != nil {
		return err
	}

	cfg := deps.Config
	ec := cfg.RAG.Embedding
	ec.Provider = p.String()
	if c.APIKey != "" {
		ec.APIKey = c.APIKey
	}
	if c.Endpoint != "" {
		ec.Endpoint = c.Endpoint
	}

	previous := cfg.RAG.Embedding.Dimension
	switch {
	case c.Dimension > 0:
		ec.Dimension = c.Dimension
	case p.Type == manx.EmbeddingHash:
		if ec.Dimension <= 0 {
			ec.Dimension = manx.DefaultConfig().RAG.Embedding.Dimension
		}
	default:
		e, err := deps.NewEmbedder(deps.Ctx, ec)
		if err != nil {
			return err
		}
		vec, err := e.Embed(deps.Ctx, dimensionProbe)
		if err != nil {
			return fmt.Errorf("failed to reach embedding provider %s: %w", ec.Provider, err)
		}
		ec.Dimension = len(vec)
	}

	cfg.RAG.Embedding = ec
	if err := deps.Configs.Save(cfg); err != nil {
		return err
	}
	deps.Renderer.Success("Embedding provider set to %s (%d dimensions)", ec.Provider, ec.Dimension)

	if cfg.RAG.Enabled && ec.Dimension != previous {
		deps.Renderer.Warn("Embedding dimension changed from %d; re-index your documents.", previous)
	}
	return nil
}

// Run executes the embedding test command.
func (c *EmbeddingTestCmd) Run(deps *Dependencies) error {
	begin := time.Now()
	vec, err := deps.Embedder.Embed(deps.Ctx, c.Text)
	if err != nil {
		return err
	}
	elapsed := time.Since(begin)

	preview := vec[:min(5, len(vec))]
	if deps.Renderer.Quiet() {
		return deps.Renderer.JSON(struct {
			Provider   string    `json:"provider"`
			Dimension  int       `json:"dimension"`
			DurationMS int64     `json:"duration_ms"`
			Preview    []float32 `json:"preview"`
		}{deps.Config.RAG.Embedding.Provider, len(vec), elapsed.Milliseconds(), preview})
	}

	r := deps.Renderer
	r.Heading("Embedding Test")
	r.Field("Provider", deps.Config.RAG.Embedding.Provider)
	r.Field("Text", truncate(c.Text, 60))
	r.Field("Dimension", len(vec))
	r.Field("Time", elapsed.Round(time.Millisecond))
	r.Field("Preview", fmt.Sprintf("%.4f", preview))
	return nil
}
