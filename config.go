package manx

import (
	"os"
	"path/filepath"
	"time"
)

// Cache backends.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
)

// Config holds user settings.
type Config struct {
	APIKey           string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	CacheDir         string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	DefaultLimit     int    `yaml:"default_limit" json:"default_limit"`
	OfflineMode      bool   `yaml:"offline_mode" json:"offline_mode"`
	ColorOutput      bool   `yaml:"color_output" json:"color_output"`
	AutoCacheEnabled bool   `yaml:"auto_cache_enabled" json:"auto_cache_enabled"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours" json:"cache_ttl_hours"`
	MaxCacheSizeMB   int    `yaml:"max_cache_size_mb" json:"max_cache_size_mb"`
	CacheBackend     string `yaml:"cache_backend" json:"cache_backend"`
	RedisURL         string `yaml:"redis_url,omitempty" json:"redis_url,omitempty"`

	RAG RAGConfig `yaml:"rag" json:"rag"`
	LLM LLMConfig `yaml:"llm" json:"llm"`
}

// Code security levels applied to indexed code and scripts.
const (
	SecurityStrict     = "strict"
	SecurityModerate   = "moderate"
	SecurityPermissive = "permissive"
)

// RAGConfig configures the local document index.
type RAGConfig struct {
	Enabled             bool            `yaml:"enabled" json:"enabled"`
	IndexPath           string          `yaml:"index_path" json:"index_path"`
	MaxResults          int             `yaml:"max_results" json:"max_results"`
	SimilarityThreshold float32         `yaml:"similarity_threshold" json:"similarity_threshold"`
	AllowPDFProcessing  bool            `yaml:"allow_pdf_processing" json:"allow_pdf_processing"`
	AllowCodeProcessing bool            `yaml:"allow_code_processing" json:"allow_code_processing"`
	CodeSecurityLevel   string          `yaml:"code_security_level" json:"code_security_level"`
	MaskSecrets         bool            `yaml:"mask_secrets" json:"mask_secrets"`
	MaxFileSizeMB       int             `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	Embedding           EmbeddingConfig `yaml:"embedding" json:"embedding"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "hash", "ollama:<model>", "openai:<model>",
	// "huggingface:<model>", "gemini:<model>" or "custom:<url>".
	Provider       string `yaml:"provider" json:"provider"`
	Dimension      int    `yaml:"dimension" json:"dimension"`
	APIKey         string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	BatchSize      int    `yaml:"batch_size" json:"batch_size"`
}

// Timeout returns the request timeout as a duration.
func (c EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LLMConfig configures answer synthesis.
type LLMConfig struct {
	OpenAIAPIKey      string        `yaml:"openai_api_key,omitempty" json:"openai_api_key,omitempty"`
	AnthropicAPIKey   string        `yaml:"anthropic_api_key,omitempty" json:"anthropic_api_key,omitempty"`
	GroqAPIKey        string        `yaml:"groq_api_key,omitempty" json:"groq_api_key,omitempty"`
	OpenRouterAPIKey  string        `yaml:"openrouter_api_key,omitempty" json:"openrouter_api_key,omitempty"`
	HuggingFaceAPIKey string        `yaml:"huggingface_api_key,omitempty" json:"huggingface_api_key,omitempty"`
	GeminiAPIKey      string        `yaml:"gemini_api_key,omitempty" json:"gemini_api_key,omitempty"`
	CustomEndpoint    string        `yaml:"custom_endpoint,omitempty" json:"custom_endpoint,omitempty"`
	OllamaEndpoint    string        `yaml:"ollama_endpoint,omitempty" json:"ollama_endpoint,omitempty"`
	PreferredProvider LLMProvider   `yaml:"preferred_provider" json:"preferred_provider"`
	FallbackProviders []LLMProvider `yaml:"fallback_providers" json:"fallback_providers"`
	TimeoutSeconds    int           `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxTokens         int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature       float32       `yaml:"temperature" json:"temperature"`
	ModelName         string        `yaml:"model_name,omitempty" json:"model_name,omitempty"`
}

// Timeout returns the request timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// APIKey returns the credential configured for a provider. Providers that
// need no key (custom, ollama) report their endpoint instead so that a
// non-empty result always means "configured".
func (c LLMConfig) APIKey(p LLMProvider) string {
	switch p {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case ProviderHuggingFace:
		return c.HuggingFaceAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderCustom:
		return c.CustomEndpoint
	case ProviderOllama:
		return c.OllamaEndpoint
	}
	return ""
}

// Available reports whether any provider is configured.
func (c LLMConfig) Available() bool {
	for _, p := range AllProviders {
		if c.APIKey(p) != "" {
			return true
		}
	}
	return false
}

// ShouldUseLLM reports whether synthesis should run given the --no-llm flag.
func (c *Config) ShouldUseLLM(noLLM bool) bool {
	return !noLLM && c.LLM.Available()
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit:     10,
		ColorOutput:      true,
		AutoCacheEnabled: true,
		CacheTTLHours:    24,
		MaxCacheSizeMB:   100,
		CacheBackend:     CacheBackendFile,
		RAG: RAGConfig{
			IndexPath:           filepath.Join(defaultCacheRoot(), "rag_index"),
			MaxResults:          10,
			SimilarityThreshold: 0.6,
			AllowCodeProcessing: true,
			CodeSecurityLevel:   SecurityModerate,
			MaskSecrets:         true,
			MaxFileSizeMB:       100,
			Embedding: EmbeddingConfig{
				Provider:       "hash",
				Dimension:      384,
				TimeoutSeconds: 30,
				BatchSize:      32,
			},
		},
		LLM: LLMConfig{
			PreferredProvider: ProviderAuto,
			FallbackProviders: []LLMProvider{ProviderOpenAI, ProviderAnthropic, ProviderGroq, ProviderOpenRouter},
			TimeoutSeconds:    30,
			MaxTokens:         1000,
			Temperature:       0.1,
		},
	}
}

// ResolvedCacheDir returns the configured cache directory or the default.
func (c *Config) ResolvedCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return defaultCacheRoot()
}

// Validate returns an error if the configuration contains invalid fields.
func (c *Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return Errorf(EINVALID, "default limit must be positive")
	}
	if c.CacheTTLHours <= 0 {
		return Errorf(EINVALID, "cache TTL must be positive")
	}
	if c.MaxCacheSizeMB <= 0 {
		return Errorf(EINVALID, "max cache size must be positive")
	}
	switch c.CacheBackend {
	case CacheBackendFile:
	case CacheBackendRedis:
		if c.RedisURL == "" {
			return Errorf(EINVALID, "redis cache backend requires redis_url")
		}
	default:
		return Errorf(EINVALID, "unknown cache backend %q", c.CacheBackend)
	}
	if c.RAG.SimilarityThreshold < 0 || c.RAG.SimilarityThreshold > 1 {
		return Errorf(EINVALID, "similarity threshold must be between 0 and 1")
	}
	switch c.RAG.CodeSecurityLevel {
	case SecurityStrict, SecurityModerate, SecurityPermissive:
	default:
		return Errorf(EINVALID, "unknown code security level %q", c.RAG.CodeSecurityLevel)
	}
	if _, err := ParseEmbeddingProvider(c.RAG.Embedding.Provider); err != nil {
		return err
	}
	if _, err := ParseLLMProvider(string(c.LLM.PreferredProvider)); err != nil {
		return err
	}
	for _, p := range c.LLM.FallbackProviders {
		if _, err := ParseLLMProvider(string(p)); err != nil {
			return err
		}
	}
	return nil
}

// MaskAPIKey returns a display-safe form of an API key.
func MaskAPIKey(key string) string {
	switch {
	case key == "":
		return "Not set"
	case len(key) <= 8:
		return "***"
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}

// ConfigService loads and persists configuration.
type ConfigService interface {
	// Load returns the stored configuration merged over defaults.
	Load() (*Config, error)

	// Save persists the configuration.
	Save(cfg *Config) error

	// Path returns the location of the configuration file.
	Path() string
}

func defaultCacheRoot() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".cache", "manx")
	}
	return filepath.Join(dir, "manx")
}
