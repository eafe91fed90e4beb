package manx_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/manx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	got := manx.CleanText("  This  is\n a test\twith multiple\n\nlines  ")

	assert.Equal(t, "This is a test with multiple lines", got)
}

func TestCleanText_CapsLength(t *testing.T) {
	t.Parallel()

	got := manx.CleanText(strings.Repeat("é", 3000))

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 2048+3)
}

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func TestChunkText(t *testing.T) {
	t.Parallel()

	chunks := manx.ChunkText(words(10), 4, 2)

	require.Len(t, chunks, 4)
	assert.Equal(t, "w0 w1 w2 w3", chunks[0])
	assert.Equal(t, "w2 w3 w4 w5", chunks[1])
	assert.Equal(t, "w4 w5 w6 w7", chunks[2])
	assert.Equal(t, "w6 w7 w8 w9", chunks[3])
}

func TestChunkText_ShortText(t *testing.T) {
	t.Parallel()

	text := "short  text"

	assert.Equal(t, []string{text}, manx.ChunkText(text, 10, 2))
}

func TestChunkText_OverlapNotSmallerThanSize(t *testing.T) {
	t.Parallel()

	chunks := manx.ChunkText(words(5), 2, 5)

	// Overlap is clamped so every window advances by one word.
	assert.Equal(t, []string{"w0 w1", "w1 w2", "w2 w3", "w3 w4"}, chunks)
}

func TestChunkContent(t *testing.T) {
	t.Parallel()

	// 8 tokens is 6 words, 4 tokens of overlap is 3 words.
	chunks := manx.ChunkContent(words(9), 8, 4)

	assert.Equal(t, []string{"w0 w1 w2 w3 w4 w5", "w3 w4 w5 w6 w7 w8"}, chunks)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "héll", manx.Truncate("héllo", 4))
	assert.Equal(t, "hi", manx.Truncate("hi", 4))
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"how", "use", "the", "api"}, manx.Keywords("How do I use the API"))
	assert.Empty(t, manx.Keywords("a to"))
}

func TestChunkText_OneWordOverlap(t *testing.T) {
	t.Parallel()

	chunks := manx.ChunkText("one two three four five six seven eight nine ten", 3, 1)

	assert.Equal(t, []string{
		"one two three",
		"three four five",
		"five six seven",
		"seven eight nine",
		"nine ten",
	}, chunks)
}
