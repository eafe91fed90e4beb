package manx

import (
	"strings"
	"unicode/utf8"
)

// Chunking defaults, expressed in approximate tokens.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// maxCleanTextLength caps cleaned text to keep embedding inputs bounded.
const maxCleanTextLength = 2048

// CleanText collapses all whitespace runs into single spaces and caps the
// result at 2048 bytes followed by "...".
func CleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) > maxCleanTextLength {
		cut := maxCleanTextLength
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		return cleaned[:cut] + "..."
	}
	return cleaned
}

// ChunkText splits text into windows of size words, each overlapping the
// previous by overlap words. Text of at most size words is one chunk.
func ChunkText(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if size <= 0 {
		size = 1
	}
	if len(words) <= size {
		return []string{text}
	}
	if overlap >= size {
		overlap = size - 1
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(words); {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// ChunkContent chunks text by approximate token counts, using a ratio of
// 0.75 words per token.
func ChunkContent(text string, size, overlap int) []string {
	wordSize := int(float64(size) * 0.75)
	wordOverlap := int(float64(overlap) * 0.75)
	return ChunkText(text, wordSize, wordOverlap)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Keywords returns the lowercased query terms longer than two characters.
func Keywords(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(w) > 2 {
			terms = append(terms, w)
		}
	}
	return terms
}
