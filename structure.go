package manx

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Section represents a heading in a markdown document.
type Section struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

var (
	headingRe   = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	codeBlockRe = regexp.MustCompile("(?s)```.*?```")
)

// ExtractSections parses markdown and returns all headings (H1-H6) outside
// fenced code blocks. Duplicate anchors get numeric suffixes.
func ExtractSections(markdown string) []Section {
	matches := headingRe.FindAllStringSubmatch(codeBlockRe.ReplaceAllString(markdown, ""), -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make([]Section, 0, len(matches))
	seen := make(map[string]int)

	for _, m := range matches {
		title := strings.TrimSpace(m[2])
		anchor := generateAnchor(title)
		if n := seen[anchor]; n > 0 {
			seen[anchor]++
			anchor += "-" + strconv.Itoa(n)
		} else {
			seen[anchor] = 1
		}
		sections = append(sections, Section{Level: len(m[1]), Title: title, Anchor: anchor})
	}

	return sections
}

// generateAnchor creates a URL-safe anchor from a title.
func generateAnchor(title string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			prevHyphen = false
		case (unicode.IsSpace(r) || r == '-') && !prevHyphen && sb.Len() > 0:
			sb.WriteRune('-')
			prevHyphen = true
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}

// DetectStructure returns a document title and its section names. Markdown
// files take the title from the first H1 and sections from H2 and H3
// headings. Other files are titled after their file stem.
func DetectStructure(content, path string) (title string, sections []string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".md" || ext == ".markdown" {
		for _, s := range ExtractSections(content) {
			switch {
			case s.Level == 1 && title == "":
				title = s.Title
			case s.Level == 2 || s.Level == 3:
				sections = append(sections, s.Title)
			}
		}
	}

	if title == "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	}
	return title, sections
}

// SectionFor returns the first section name contained in a chunk, or "".
func SectionFor(chunk string, sections []string) string {
	for _, s := range sections {
		if strings.Contains(chunk, s) {
			return s
		}
	}
	return ""
}

// tagKeywords are file name fragments promoted to tags.
var tagKeywords = []string{"readme", "api", "guide", "tutorial"}

// TagsFromPath derives lowercase tags from the directory components and file
// name of path. Hidden directories are skipped.
func TagsFromPath(path string) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}

	dir := filepath.Dir(filepath.ToSlash(path))
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == "" || part == "." || strings.HasPrefix(part, ".") {
			continue
		}
		add(strings.ToLower(part))
	}

	name := strings.ToLower(filepath.Base(path))
	for _, kw := range tagKeywords {
		if strings.Contains(name, kw) {
			add(kw)
		}
	}

	return tags
}
