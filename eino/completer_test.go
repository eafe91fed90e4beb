package eino_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/eino"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatModel is a stub eino chat model.
type chatModel struct {
	generateFn func(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

func (m *chatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return m.generateFn(ctx, input, opts...)
}

func (m *chatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestCompleter_Complete(t *testing.T) {
	t.Parallel()

	var got []*schema.Message
	var options *model.Options
	chat := &chatModel{generateFn: func(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
		got = input
		options = model.GetCommonOptions(nil, opts...)
		return &schema.Message{
			Role:    schema.Assistant,
			Content: "answer",
			ResponseMeta: &schema.ResponseMeta{
				FinishReason: "stop",
				Usage:        &schema.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			},
		}, nil
	}}

	c := eino.NewCompleter(manx.ProviderOllama, "llama3.2", chat)
	completion, err := c.Complete(context.Background(), manx.CompletionRequest{
		System:      "sys",
		User:        "question",
		MaxTokens:   200,
		Temperature: 0.3,
	})

	require.NoError(t, err)
	assert.Equal(t, manx.ProviderOllama, c.Provider())
	assert.Equal(t, &manx.Completion{Text: "answer", Model: "llama3.2", TokensUsed: 15, FinishReason: "stop"}, completion)

	require.Len(t, got, 2)
	assert.Equal(t, schema.System, got[0].Role)
	assert.Equal(t, "question", got[1].Content)
	require.NotNil(t, options.MaxTokens)
	assert.Equal(t, 200, *options.MaxTokens)
	require.NotNil(t, options.Temperature)
	assert.InDelta(t, 0.3, *options.Temperature, 1e-6)
	assert.Nil(t, options.Model)
}

func TestCompleter_Complete_NoSystemPrompt(t *testing.T) {
	t.Parallel()

	var got []*schema.Message
	chat := &chatModel{generateFn: func(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
		got = input
		return schema.AssistantMessage("ok", nil), nil
	}}

	completion, err := eino.NewCompleter(manx.ProviderOpenAI, "gpt-4o-mini", chat).
		Complete(context.Background(), manx.CompletionRequest{User: "q", Model: "gpt-4o"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schema.User, got[0].Role)
	assert.Equal(t, "gpt-4o", completion.Model)
}

func TestCompleter_Complete_Errors(t *testing.T) {
	t.Parallel()

	failing := &chatModel{generateFn: func(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
		return nil, errors.New("connection refused")
	}}
	empty := &chatModel{generateFn: func(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
		return schema.AssistantMessage("  ", nil), nil
	}}

	_, err := eino.NewCompleter(manx.ProviderGroq, "m", failing).Complete(context.Background(), manx.CompletionRequest{User: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = eino.NewCompleter(manx.ProviderGroq, "m", empty).Complete(context.Background(), manx.CompletionRequest{User: "q"})
	assert.Equal(t, manx.EINTERNAL, manx.ErrorCode(err))

	_, err = eino.NewCompleter(manx.ProviderGroq, "m", empty).Complete(context.Background(), manx.CompletionRequest{})
	assert.Equal(t, manx.EINVALID, manx.ErrorCode(err))
}
