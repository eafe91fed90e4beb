// Package yaml loads and saves the manx configuration file.
package yaml

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/manx"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var _ manx.ConfigService = (*ConfigService)(nil)

// envOverrides maps environment variables to the fields they replace.
var envOverrides = []struct {
	name  string
	field func(*manx.Config) *string
}{
	{"CONTEXT7_API_KEY", func(c *manx.Config) *string { return &c.APIKey }},
	{"MANX_CACHE_DIR", func(c *manx.Config) *string { return &c.CacheDir }},
	{"MANX_REDIS_URL", func(c *manx.Config) *string { return &c.RedisURL }},
	{"OPENAI_API_KEY", func(c *manx.Config) *string { return &c.LLM.OpenAIAPIKey }},
	{"ANTHROPIC_API_KEY", func(c *manx.Config) *string { return &c.LLM.AnthropicAPIKey }},
	{"GROQ_API_KEY", func(c *manx.Config) *string { return &c.LLM.GroqAPIKey }},
	{"OPENROUTER_API_KEY", func(c *manx.Config) *string { return &c.LLM.OpenRouterAPIKey }},
	{"HUGGINGFACE_API_KEY", func(c *manx.Config) *string { return &c.LLM.HuggingFaceAPIKey }},
	{"GEMINI_API_KEY", func(c *manx.Config) *string { return &c.LLM.GeminiAPIKey }},
}

// ConfigService stores the configuration as YAML.
type ConfigService struct {
	path    string
	envFile string
	getenv  func(string) string
}

// Option configures a ConfigService.
type Option func(*ConfigService)

// WithEnvFile loads variables from path before reading the environment.
// A missing file is ignored.
func WithEnvFile(path string) Option {
	return func(s *ConfigService) { s.envFile = path }
}

// WithGetenv replaces os.Getenv.
func WithGetenv(fn func(string) string) Option {
	return func(s *ConfigService) { s.getenv = fn }
}

// NewConfigService returns a service for the file at path.
func NewConfigService(path string, opts ...Option) *ConfigService {
	s := &ConfigService{path: path, getenv: os.Getenv}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPath returns <user config dir>/manx/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "manx", "config.yaml"), nil
}

// Path returns the configuration file location.
func (s *ConfigService) Path() string {
	return s.path
}

// Load reads the file over the defaults and applies environment overrides.
// A missing file yields the defaults.
func (s *ConfigService) Load() (*manx.Config, error) {
	if s.envFile != "" {
		if err := godotenv.Load(s.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, manx.Errorf(manx.EINVALID, "parsing %s: %v", s.envFile, err)
		}
	}

	cfg := manx.DefaultConfig()
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, manx.Errorf(manx.EINVALID, "parsing %s: %v", s.path, err)
		}
	}

	for _, o := range envOverrides {
		if v := s.getenv(o.name); v != "" {
			*o.field(cfg) = v
		}
	}
	if s.getenv("NO_COLOR") != "" {
		cfg.ColorOutput = false
	}
	if s.getenv("MANX_REDIS_URL") != "" {
		cfg.CacheBackend = manx.CacheBackendRedis
	}
	return cfg, nil
}

// Save validates cfg and writes it with owner-only permissions.
func (s *ConfigService) Save(cfg *manx.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
