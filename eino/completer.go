// Package eino adapts eino chat models to manx.Completer.
package eino

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/fwojciec/manx"
)

var _ manx.Completer = (*Completer)(nil)

// Completer implements manx.Completer over any eino chat model.
type Completer struct {
	provider manx.LLMProvider
	model    string
	chat     model.BaseChatModel
}

// NewCompleter wraps chat. defaultModel is the model chat was built with
// and is reported when a request names none.
func NewCompleter(provider manx.LLMProvider, defaultModel string, chat model.BaseChatModel) *Completer {
	return &Completer{provider: provider, model: defaultModel, chat: chat}
}

// Provider returns the wrapped provider.
func (c *Completer) Provider() manx.LLMProvider {
	return c.provider
}

// Complete sends a system and user message and returns the reply.
func (c *Completer) Complete(ctx context.Context, req manx.CompletionRequest) (*manx.Completion, error) {
	if req.User == "" {
		return nil, manx.Errorf(manx.EINVALID, "prompt required")
	}

	var messages []*schema.Message
	if req.System != "" {
		messages = append(messages, schema.SystemMessage(req.System))
	}
	messages = append(messages, schema.UserMessage(req.User))

	opts := []model.Option{model.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	name := c.model
	if req.Model != "" {
		name = req.Model
		opts = append(opts, model.WithModel(req.Model))
	}

	msg, err := c.chat.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion failed: %w", c.provider, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, manx.Errorf(manx.EINTERNAL, "%s returned an empty response", c.provider)
	}

	completion := &manx.Completion{Text: msg.Content, Model: name}
	if meta := msg.ResponseMeta; meta != nil {
		completion.FinishReason = meta.FinishReason
		if meta.Usage != nil {
			completion.TokensUsed = meta.Usage.TotalTokens
		}
	}
	return completion, nil
}
