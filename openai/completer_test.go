package openai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer fakes the chat completion and embedding endpoints and records
// the last decoded request body.
func newServer(t *testing.T, got *map[string]any) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(body, got)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			_, _ = io.WriteString(w, `{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"created": 1700000000,
				"model": "gpt-4o-mini",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "Use context [Source 2]"}, "finish_reason": "stop"}],
				"usage": {"prompt_tokens": 80, "completion_tokens": 20, "total_tokens": 100}
			}`)
		case "/v1/embeddings":
			_, _ = io.WriteString(w, `{
				"object": "list",
				"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 1]}],
				"model": "text-embedding-3-small",
				"usage": {"prompt_tokens": 2, "total_tokens": 2}
			}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestCompleter_Complete(t *testing.T) {
	t.Parallel()

	var got map[string]any
	ts := newServer(t, &got)

	c, err := openai.NewCompleter(context.Background(), openai.Config{
		Provider: manx.ProviderGroq,
		APIKey:   "gsk-test",
		BaseURL:  ts.URL + "/v1",
	})
	require.NoError(t, err)

	completion, err := c.Complete(context.Background(), manx.CompletionRequest{
		System:      "system prompt",
		User:        "question",
		MaxTokens:   300,
		Temperature: 0.1,
	})

	require.NoError(t, err)
	assert.Equal(t, manx.ProviderGroq, c.Provider())
	assert.Equal(t, "Use context [Source 2]", completion.Text)
	assert.Equal(t, "llama-3.1-8b-instant", completion.Model)
	assert.Equal(t, 100, completion.TokensUsed)
	assert.Equal(t, "stop", completion.FinishReason)

	assert.Equal(t, "llama-3.1-8b-instant", got["model"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "question", messages[1].(map[string]any)["content"])
}

func TestCompleter_Complete_ModelOverride(t *testing.T) {
	t.Parallel()

	var got map[string]any
	ts := newServer(t, &got)

	c, err := openai.NewCompleter(context.Background(), openai.Config{
		Provider: manx.ProviderOpenAI,
		APIKey:   "sk-test",
		BaseURL:  ts.URL + "/v1",
	})
	require.NoError(t, err)

	completion, err := c.Complete(context.Background(), manx.CompletionRequest{User: "q", Model: "gpt-4o"})

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", completion.Model)
	assert.Equal(t, "gpt-4o", got["model"])
}

func TestCompleter_Complete_RequiresPrompt(t *testing.T) {
	t.Parallel()

	c, err := openai.NewCompleter(context.Background(), openai.Config{Provider: manx.ProviderOpenAI, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), manx.CompletionRequest{})

	assert.Equal(t, manx.EINVALID, manx.ErrorCode(err))
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider manx.LLMProvider
		custom   string
		want     string
	}{
		{manx.ProviderOpenAI, "", "https://api.openai.com/v1"},
		{manx.ProviderGroq, "", "https://api.groq.com/openai/v1"},
		{manx.ProviderOpenRouter, "", "https://openrouter.ai/api/v1"},
		{manx.ProviderHuggingFace, "", "https://router.huggingface.co/v1"},
		{manx.ProviderCustom, "http://localhost:8080/", "http://localhost:8080/v1"},
	}
	for _, tt := range tests {
		got, err := openai.BaseURL(tt.provider, tt.custom)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.provider)
	}

	_, err := openai.BaseURL(manx.ProviderCustom, "")
	assert.Equal(t, manx.EINVALID, manx.ErrorCode(err))
	_, err = openai.BaseURL(manx.ProviderAnthropic, "")
	assert.Equal(t, manx.EINVALID, manx.ErrorCode(err))
}
