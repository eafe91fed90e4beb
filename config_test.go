package manx_test

import (
	"testing"

	"github.com/fwojciec/manx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := manx.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.DefaultLimit)
	assert.Equal(t, 24, cfg.CacheTTLHours)
	assert.Equal(t, 100, cfg.MaxCacheSizeMB)
	assert.Equal(t, manx.CacheBackendFile, cfg.CacheBackend)
	assert.Equal(t, "hash", cfg.RAG.Embedding.Provider)
	assert.Equal(t, 384, cfg.RAG.Embedding.Dimension)
	assert.Equal(t, manx.SecurityModerate, cfg.RAG.CodeSecurityLevel)
	assert.Equal(t, manx.ProviderAuto, cfg.LLM.PreferredProvider)
	assert.False(t, cfg.LLM.Available())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]func(*manx.Config){
		"zero limit":        func(c *manx.Config) { c.DefaultLimit = 0 },
		"zero ttl":          func(c *manx.Config) { c.CacheTTLHours = 0 },
		"redis without url": func(c *manx.Config) { c.CacheBackend = manx.CacheBackendRedis },
		"unknown backend":   func(c *manx.Config) { c.CacheBackend = "memcached" },
		"threshold":         func(c *manx.Config) { c.RAG.SimilarityThreshold = 1.5 },
		"security level":    func(c *manx.Config) { c.RAG.CodeSecurityLevel = "paranoid" },
		"embedding":         func(c *manx.Config) { c.RAG.Embedding.Provider = "onnx:model" },
		"llm provider":      func(c *manx.Config) { c.LLM.PreferredProvider = "skynet" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := manx.DefaultConfig()
			mutate(cfg)
			assert.Equal(t, manx.EINVALID, manx.ErrorCode(cfg.Validate()))
		})
	}
}

func TestConfig_ShouldUseLLM(t *testing.T) {
	t.Parallel()

	cfg := manx.DefaultConfig()
	assert.False(t, cfg.ShouldUseLLM(false))

	cfg.LLM.OllamaEndpoint = "http://localhost:11434"
	assert.True(t, cfg.ShouldUseLLM(false))
	assert.False(t, cfg.ShouldUseLLM(true))
}

func TestMaskAPIKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Not set", manx.MaskAPIKey(""))
	assert.Equal(t, "***", manx.MaskAPIKey("short"))
	assert.Equal(t, "sk-a...ijkl", manx.MaskAPIKey("sk-abcdefghijkl"))
}

func TestParseLLMProvider(t *testing.T) {
	t.Parallel()

	p, err := manx.ParseLLMProvider(" OpenAI ")
	require.NoError(t, err)
	assert.Equal(t, manx.ProviderOpenAI, p)
	assert.Equal(t, "gpt-4o-mini", p.DefaultModel())
	assert.InDelta(t, 0.9, p.Confidence(), 1e-6)

	_, err = manx.ParseLLMProvider("bogus")
	assert.Equal(t, manx.EINVALID, manx.ErrorCode(err))
}
