package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/manx"
)

// Run executes the config command. Without settings it shows the
// configuration.
func (c *ConfigCmd) Run(deps *Dependencies) error {
	cfg := deps.Config

	var changes []string
	set := func(msg string, args ...any) {
		changes = append(changes, fmt.Sprintf(msg, args...))
	}

	if c.APIKey != "" {
		cfg.APIKey = c.APIKey
		set("Context7 API key set")
	}
	if c.CacheDir != "" {
		cfg.CacheDir = c.CacheDir
		set("Cache directory set to %s", c.CacheDir)
	}
	if c.AutoCache != "" {
		on, err := parseOnOff("--auto-cache", c.AutoCache)
		if err != nil {
			return err
		}
		cfg.AutoCacheEnabled = on
		set("Auto-cache %s", onOff(on))
	}
	if c.CacheTTL != 0 {
		cfg.CacheTTLHours = c.CacheTTL
		set("Cache TTL set to %d hours", c.CacheTTL)
	}
	if c.MaxCacheSize != 0 {
		cfg.MaxCacheSizeMB = c.MaxCacheSize
		set("Max cache size set to %d MB", c.MaxCacheSize)
	}
	if c.RAG != "" {
		on, err := parseOnOff("--rag", c.RAG)
		if err != nil {
			return err
		}
		cfg.RAG.Enabled = on
		set("Local document search %s", onOff(on))
	}
	if c.LLMProvider != "" {
		p, err := manx.ParseLLMProvider(c.LLMProvider)
		if err != nil {
			return err
		}
		cfg.LLM.PreferredProvider = p
		set("LLM provider set to %s", p)
	}
	if c.LLMModel != "" {
		cfg.LLM.ModelName = c.LLMModel
		set("LLM model set to %s", c.LLMModel)
	}

	keys := []struct {
		value string
		field *string
		name  string
	}{
		{c.OpenAIKey, &cfg.LLM.OpenAIAPIKey, "OpenAI API key"},
		{c.AnthropicKey, &cfg.LLM.AnthropicAPIKey, "Anthropic API key"},
		{c.GroqKey, &cfg.LLM.GroqAPIKey, "Groq API key"},
		{c.OpenRouterKey, &cfg.LLM.OpenRouterAPIKey, "OpenRouter API key"},
		{c.HuggingFaceKey, &cfg.LLM.HuggingFaceAPIKey, "HuggingFace API key"},
		{c.GeminiKey, &cfg.LLM.GeminiAPIKey, "Gemini API key"},
		{c.CustomEndpoint, &cfg.LLM.CustomEndpoint, "Custom endpoint"},
		{c.OllamaEndpoint, &cfg.LLM.OllamaEndpoint, "Ollama endpoint"},
	}
	for _, k := range keys {
		if k.value != "" {
			*k.field = k.value
			set("%s set", k.name)
		}
	}

	if len(changes) > 0 {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := deps.Configs.Save(cfg); err != nil {
			return err
		}
		for _, msg := range changes {
			deps.Renderer.Success("%s", msg)
		}
	}

	if len(changes) == 0 || c.Show {
		return showConfig(deps)
	}
	return nil
}

func parseOnOff(flag, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, manx.Errorf(manx.EINVALID, "%s expects on or off, got %q", flag, value)
}

// maskedConfig returns a copy of cfg with every credential masked.
func maskedConfig(cfg *manx.Config) manx.Config {
	m := *cfg
	m.APIKey = manx.MaskAPIKey(m.APIKey)
	m.RAG.Embedding.APIKey = manx.MaskAPIKey(m.RAG.Embedding.APIKey)
	m.LLM.OpenAIAPIKey = manx.MaskAPIKey(m.LLM.OpenAIAPIKey)
	m.LLM.AnthropicAPIKey = manx.MaskAPIKey(m.LLM.AnthropicAPIKey)
	m.LLM.GroqAPIKey = manx.MaskAPIKey(m.LLM.GroqAPIKey)
	m.LLM.OpenRouterAPIKey = manx.MaskAPIKey(m.LLM.OpenRouterAPIKey)
	m.LLM.HuggingFaceAPIKey = manx.MaskAPIKey(m.LLM.HuggingFaceAPIKey)
	m.LLM.GeminiAPIKey = manx.MaskAPIKey(m.LLM.GeminiAPIKey)
	return m
}

func showConfig(deps *Dependencies) error {
	cfg := maskedConfig(deps.Config)
	if deps.Renderer.Quiet() {
		return deps.Renderer.JSON(cfg)
	}

	r := deps.Renderer
	r.Heading("Configuration")
	r.Field("Config file", deps.Configs.Path())
	r.Field("Context7 API key", cfg.APIKey)
	r.Field("Cache directory", deps.Config.ResolvedCacheDir())
	r.Field("Cache backend", cfg.CacheBackend)
	r.Field("Auto-cache", onOff(cfg.AutoCacheEnabled))
	r.Field("Cache TTL", fmt.Sprintf("%d hours", cfg.CacheTTLHours))
	r.Field("Max cache size", fmt.Sprintf("%d MB", cfg.MaxCacheSizeMB))
	r.Field("Default limit", cfg.DefaultLimit)
	r.Field("Offline mode", onOff(cfg.OfflineMode))

	r.Heading("Local Documents")
	r.Field("Search", onOff(cfg.RAG.Enabled))
	r.Field("Index path", cfg.RAG.IndexPath)
	r.Field("Embedding provider", cfg.RAG.Embedding.Provider)
	r.Field("Dimension", cfg.RAG.Embedding.Dimension)
	r.Field("Code security", cfg.RAG.CodeSecurityLevel)

	r.Heading("AI Synthesis")
	r.Field("Preferred provider", cfg.LLM.PreferredProvider)
	model := cfg.LLM.ModelName
	if model == "" {
		model = "provider default"
	}
	r.Field("Model", model)
	r.Field("OpenAI", cfg.LLM.OpenAIAPIKey)
	r.Field("Anthropic", cfg.LLM.AnthropicAPIKey)
	r.Field("Groq", cfg.LLM.GroqAPIKey)
	r.Field("OpenRouter", cfg.LLM.OpenRouterAPIKey)
	r.Field("HuggingFace", cfg.LLM.HuggingFaceAPIKey)
	r.Field("Gemini", cfg.LLM.GeminiAPIKey)
	if cfg.LLM.CustomEndpoint != "" {
		r.Field("Custom endpoint", cfg.LLM.CustomEndpoint)
	}
	if cfg.LLM.OllamaEndpoint != "" {
		r.Field("Ollama endpoint", cfg.LLM.OllamaEndpoint)
	}
	return nil
}
