// Package anthropic implements manx.Completer using the Anthropic Messages
// API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fwojciec/manx"
)

var _ manx.Completer = (*Completer)(nil)

// Completer implements manx.Completer for Claude models.
type Completer struct {
	client anthropic.Client
	model  string
}

// Option configures a Completer.
type Option func(*config)

type config struct {
	model   string
	baseURL string
	timeout time.Duration
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// NewCompleter creates a Completer authenticated with apiKey.
func NewCompleter(apiKey string, opts ...Option) *Completer {
	cfg := config{model: manx.ProviderAnthropic.DefaultModel()}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(cfg.timeout))
	}

	return &Completer{
		client: anthropic.NewClient(clientOpts...),
		model:  cfg.model,
	}
}

// Provider returns manx.ProviderAnthropic.
func (c *Completer) Provider() manx.LLMProvider {
	return manx.ProviderAnthropic
}

// Complete sends a single user message with an optional system prompt.
func (c *Completer) Complete(ctx context.Context, req manx.CompletionRequest) (*manx.Completion, error) {
	if req.User == "" {
		return nil, manx.Errorf(manx.EINVALID, "prompt required")
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, manx.Errorf(manx.EINTERNAL, "anthropic returned no text content")
	}

	return &manx.Completion{
		Text:         text.String(),
		Model:        string(message.Model),
		TokensUsed:   int(message.Usage.InputTokens + message.Usage.OutputTokens),
		FinishReason: string(message.StopReason),
	}, nil
}
