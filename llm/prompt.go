package llm

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fwojciec/manx"
)

// SystemPrompt asks for a short, scannable, cited answer.
var SystemPrompt = heredoc.Doc(`
	You are a concise technical documentation assistant. Provide clear, scannable answers based ONLY on the provided search results.

	RESPONSE FORMAT:
	1. **Quick Answer** (1-2 sentences max)
	2. **Key Points** (bullet points, max 4 items)
	3. **Code Example** (if available - keep it short and practical)

	RULES:
	- Be extremely concise and scannable
	- Use bullet points and short paragraphs
	- Only include essential information
	- Cite sources as [Source N]
	- Never add information not in the sources
	- Focus on what developers need to know immediately

	STYLE:
	- Write for busy developers who want quick answers
	- Use clear, simple language
	- Keep code examples minimal but complete
	- Prioritize readability over completeness
`)

const (
	promptContentRunes  = 1000
	citationExcerptRune = 200
)

// UserPrompt lists the question and numbered results. Each result's content
// is cut to its first 1000 runes.
func UserPrompt(query string, results []manx.RAGResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nSearch Results:\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "[Source %d] %s\nURL: %s\nContent: %s\n\n",
			i+1, titleOf(r), r.SourcePath, manx.Truncate(r.Content, promptContentRunes))
	}
	b.WriteString("\nPlease provide a comprehensive answer based on these search results.")
	return b.String()
}

func titleOf(r manx.RAGResult) string {
	if r.Title == "" {
		return "Untitled"
	}
	return r.Title
}

var thinkingPrefixes = []string{"Let me think", "I need to think"}

// transitions mark where an answer starts after a thinking preamble. Those
// starting with a blank line keep the text that follows the blank line.
var transitions = []string{
	"Here's my answer:",
	"My answer is:",
	"To answer your question:",
	"Based on the search results:",
	"The answer is:",
	"\n\n**",
	"\n\nQuick Answer:",
	"\n\n##",
}

// ExtractFinalAnswer strips reasoning emitted before the answer: anything up
// to a closing </thinking> or </think> tag, or a "Let me think" preamble up
// to the first transition phrase. Other text is returned unchanged.
func ExtractFinalAnswer(text string) string {
	for _, tag := range []string{"thinking", "think"} {
		open, end := "<"+tag+">", "</"+tag+">"
		if strings.Contains(text, open) {
			if i := strings.Index(text, end); i >= 0 {
				return strings.TrimSpace(text[i+len(end):])
			}
		}
	}

	for _, prefix := range thinkingPrefixes {
		if !strings.HasPrefix(text, prefix) {
			continue
		}
		for _, phrase := range transitions {
			i := strings.Index(text, phrase)
			if i < 0 {
				continue
			}
			if strings.HasPrefix(phrase, "\n") {
				return strings.TrimSpace(text[i+2:])
			}
			return strings.TrimSpace(text[i+len(phrase):])
		}
	}

	return text
}

// Citations returns a citation for every result referenced as [Source N]
// in answer.
func Citations(answer string, results []manx.RAGResult) []manx.Citation {
	var citations []manx.Citation
	for i, r := range results {
		if !strings.Contains(answer, fmt.Sprintf("[Source %d]", i+1)) {
			continue
		}
		citations = append(citations, manx.Citation{
			SourceID:       r.ID,
			SourceTitle:    titleOf(r),
			SourceURL:      r.SourcePath,
			RelevanceScore: r.Score,
			Excerpt:        manx.Truncate(r.Content, citationExcerptRune),
		})
	}
	return citations
}
