package llm_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt(t *testing.T) {
	t.Parallel()

	for _, want := range []string{"**Quick Answer**", "**Key Points**", "**Code Example**", "[Source N]"} {
		assert.Contains(t, llm.SystemPrompt, want)
	}
	assert.False(t, strings.HasPrefix(llm.SystemPrompt, "\t"))
}

func TestUserPrompt(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 1500)
	got := llm.UserPrompt("how?", []manx.RAGResult{
		{Title: "Guide", SourcePath: "/docs/guide.md", Content: "short"},
		{SourcePath: "https://x.dev/a", Content: long},
	})

	want := "Question: how?\n\nSearch Results:\n\n" +
		"[Source 1] Guide\nURL: /docs/guide.md\nContent: short\n\n" +
		"[Source 2] Untitled\nURL: https://x.dev/a\nContent: " + strings.Repeat("é", 1000) + "\n\n" +
		"\nPlease provide a comprehensive answer based on these search results."
	assert.Equal(t, want, got)
}

func TestExtractFinalAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "thinking tags",
			in:   "<thinking>\nThe user wants hooks.\n</thinking>\n\n**Quick Answer**\nUse hooks.",
			want: "**Quick Answer**\nUse hooks.",
		},
		{
			name: "think tags",
			in:   "<think>reasoning</think>**Quick Answer** Yes.",
			want: "**Quick Answer** Yes.",
		},
		{
			name: "no thinking",
			in:   "**Quick Answer**\nPlain.",
			want: "**Quick Answer**\nPlain.",
		},
		{
			name: "thinking prefix with formatting transition",
			in:   "Let me think about this question carefully...\nThe sources mention X.\n\n**Quick Answer**\nHere is the answer.",
			want: "**Quick Answer**\nHere is the answer.",
		},
		{
			name: "thinking prefix with phrase transition",
			in:   "I need to think. The answer is: 42",
			want: "42",
		},
		{
			name: "thinking prefix without transition",
			in:   "Let me think. Nothing else.",
			want: "Let me think. Nothing else.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, llm.ExtractFinalAnswer(tt.in))
		})
	}
}

func TestCitations(t *testing.T) {
	t.Parallel()

	results := []manx.RAGResult{
		{ID: "one", Title: "One", SourcePath: "/one.md", Content: strings.Repeat("a", 300), Score: 0.9},
		{ID: "two", SourcePath: "/two.md", Content: "b", Score: 0.8},
		{ID: "three", Title: "Three", SourcePath: "/three.md", Content: "c", Score: 0.7},
	}

	got := llm.Citations("See [Source 1] and [Source 2].", results)

	require.Len(t, got, 2)
	assert.Equal(t, manx.Citation{
		SourceID:       "one",
		SourceTitle:    "One",
		SourceURL:      "/one.md",
		RelevanceScore: 0.9,
		Excerpt:        strings.Repeat("a", 200),
	}, got[0])
	assert.Equal(t, "Untitled", got[1].SourceTitle)
}
