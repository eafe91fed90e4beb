package fs

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/fwojciec/manx"
)

// ParseSaveNumbers parses a comma-separated list of 1-based result numbers
// such as "1, 3,7".
func ParseSaveNumbers(s string) ([]int, error) {
	var nums []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, manx.Errorf(manx.EINVALID, "invalid format for --save: use comma-separated numbers like 1,3,7")
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// SelectResults returns the results at the given 1-based numbers, ignoring
// numbers out of range. Selecting nothing is EINVALID.
func SelectResults(results []manx.SearchResult, nums []int) ([]manx.SearchResult, error) {
	var selected []manx.SearchResult
	for _, n := range nums {
		if n >= 1 && n <= len(results) {
			selected = append(selected, results[n-1])
		}
	}
	if len(selected) == 0 {
		return nil, manx.Errorf(manx.EINVALID, "no valid result numbers specified")
	}
	return selected, nil
}

// SnippetFilename returns the default export name for a library, such as
// "react-all.md" or "react-snippets.json".
func SnippetFilename(library string, all, asJSON bool) string {
	prefix := "snippets"
	if all {
		prefix = "all"
	}
	ext := "md"
	if asJSON {
		ext = "json"
	}
	return fmt.Sprintf("%s-%s.%s", manx.SafeKey(library), prefix, ext)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func writeJSON(path string, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// ExportResults writes search results to path as indented JSON when the
// extension is .json, and as markdown otherwise.
func ExportResults(path string, results []manx.SearchResult) error {
	if isJSON(path) {
		return writeJSON(path, results)
	}

	var b strings.Builder
	b.WriteString("# Documentation Search Results\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "## [%d] %s\n\n", i+1, r.Title)
		fmt.Fprintf(&b, "**Library:** %s  \n", r.Library)
		if r.URL != "" {
			fmt.Fprintf(&b, "**Source:** %s  \n", r.URL)
		}
		fmt.Fprintf(&b, "**Score:** %.2f\n\n", r.RelevanceScore)
		b.WriteString(r.Excerpt)
		b.WriteString("\n\n---\n\n")
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// ExportSnippets writes the snippets of one library, as JSON when asJSON is
// set and as markdown otherwise.
func ExportSnippets(path, library string, results []manx.SearchResult, asJSON bool) error {
	if len(results) == 0 {
		return manx.Errorf(manx.EINVALID, "no snippets to save")
	}
	if asJSON {
		return writeJSON(path, struct {
			Library  string              `json:"library"`
			Snippets []manx.SearchResult `json:"snippets"`
		}{library, results})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Documentation Snippets\n\n", library)
	for _, r := range results {
		fmt.Fprintf(&b, "## %s\n\n", r.Title)
		fmt.Fprintf(&b, "*ID: %s*\n\n", r.ID)
		b.WriteString(r.Excerpt)
		b.WriteString("\n\n---\n\n")
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// ExportRAGResults writes local search results to path as JSON or markdown.
func ExportRAGResults(path string, results []manx.RAGResult) error {
	if isJSON(path) {
		return writeJSON(path, results)
	}

	var b strings.Builder
	b.WriteString("# Local Document Search Results\n\n")
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "## [%d] %s\n\n", i+1, title)
		fmt.Fprintf(&b, "**Source:** `%s`  \n", r.SourcePath)
		fmt.Fprintf(&b, "**Score:** %.3f\n\n", r.Score)
		b.WriteString(r.Content)
		b.WriteString("\n\n---\n\n")
	}
	return writeFileAtomic(path, []byte(b.String()))
}

// ExportText writes raw documentation text to path, wrapped in a JSON
// object when the extension is .json.
func ExportText(path, library, text string) error {
	if isJSON(path) {
		return writeJSON(path, struct {
			Library string `json:"library"`
			Text    string `json:"text"`
		}{library, text})
	}
	return writeFileAtomic(path, []byte(text))
}
