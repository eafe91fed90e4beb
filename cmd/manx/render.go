package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/fatih/color"
	"github.com/fwojciec/manx"
)

// excerptWidth is the number of runes of an excerpt shown per result.
const excerptWidth = 200

// Renderer writes command output as colored text, or as JSON in quiet mode.
type Renderer struct {
	w     io.Writer
	quiet bool

	heading *color.Color
	number  *color.Color
	id      *color.Color
	dim     *color.Color
	link    *color.Color
	ok      *color.Color
	warn    *color.Color
	fail    *color.Color
	quick   *color.Color
	points  *color.Color
	code    *color.Color
	bullet  *color.Color
}

// NewRenderer returns a Renderer writing to w. Colors are used only when
// colored is set and quiet is not.
func NewRenderer(w io.Writer, quiet, colored bool) *Renderer {
	r := &Renderer{
		w:       w,
		quiet:   quiet,
		heading: color.New(color.Bold),
		number:  color.New(color.FgCyan, color.Bold),
		id:      color.New(color.FgYellow),
		dim:     color.New(color.Faint),
		link:    color.New(color.FgBlue, color.Underline),
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		quick:   color.New(color.FgGreen, color.Bold),
		points:  color.New(color.FgBlue, color.Bold),
		code:    color.New(color.FgMagenta, color.Bold),
		bullet:  color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{r.heading, r.number, r.id, r.dim, r.link, r.ok, r.warn, r.fail, r.quick, r.points, r.code, r.bullet} {
		if colored && !quiet {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Quiet reports whether output is JSON.
func (r *Renderer) Quiet() bool {
	return r.quiet
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.w, "%s\n", data)
	return err
}

// Success prints a confirmation line. Nothing is printed in quiet mode.
func (r *Renderer) Success(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintln(r.w, r.ok.Sprintf("✓ "+format, args...))
}

// Warn prints a warning line. Nothing is printed in quiet mode.
func (r *Renderer) Warn(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintln(r.w, r.warn.Sprintf(format, args...))
}

// Error writes err to w as "error: <message>", or as {"error": "..."} in
// quiet mode.
func (r *Renderer) Error(w io.Writer, err error) {
	msg := errorText(err)
	if r.quiet {
		data, _ := sonic.ConfigStd.Marshal(map[string]string{"error": msg})
		fmt.Fprintf(w, "%s\n", data)
		return
	}
	fmt.Fprintf(w, "%s %s\n", r.fail.Sprint("error:"), msg)
}

// SearchResults prints ranked results, at most limit when limit is
// positive.
func (r *Renderer) SearchResults(results []manx.SearchResult, lib *manx.Library, limit int) error {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	if r.quiet {
		return r.JSON(results)
	}
	if len(results) == 0 {
		fmt.Fprintln(r.w, r.warn.Sprint("No results found."))
		return nil
	}

	noun := "results"
	if len(results) == 1 {
		noun = "result"
	}
	if lib != nil {
		fmt.Fprintf(r.w, "\n%s %s found in %s %s:\n\n", r.number.Sprint(len(results)), noun, r.heading.Sprint(lib.Title), r.dim.Sprint(lib.ID))
	} else {
		fmt.Fprintf(r.w, "\n%s %s found:\n\n", r.number.Sprint(len(results)), noun)
	}

	for i, res := range results {
		fmt.Fprintf(r.w, "%s %s %s\n", r.number.Sprintf("[%d]", i+1), r.heading.Sprint(res.Title), r.dim.Sprintf("(%s)", res.Library))
		fmt.Fprintf(r.w, "  %s: %s\n", r.dim.Sprint("ID"), r.id.Sprint(displayID(res)))
		if res.URL != "" {
			fmt.Fprintf(r.w, "  %s: %s\n", r.dim.Sprint("URL"), r.link.Sprint(res.URL))
		}
		fmt.Fprintf(r.w, "\n  %s\n", truncate(res.Excerpt, excerptWidth))
		fmt.Fprintln(r.w, r.dim.Sprint(strings.Repeat("─", 60)))
	}
	if hasExpandable(results) {
		fmt.Fprintf(r.w, "\n%s\n", r.dim.Sprint("Tip: Use 'manx get <id>' to expand a result."))
	}
	return nil
}

// hasExpandable reports whether any result can be passed to "get". Local
// index hits cannot.
func hasExpandable(results []manx.SearchResult) bool {
	for _, res := range results {
		if !strings.HasPrefix(res.ID, "rag-") {
			return true
		}
	}
	return false
}

// displayID returns the ID users pass to "get": <library>-doc-N for
// documentation snippets.
func displayID(res manx.SearchResult) string {
	if strings.HasPrefix(res.ID, "doc-") {
		return res.Library + "-" + res.ID
	}
	return res.ID
}

// Documentation prints the snippets of a library, or the raw text when it
// has no recognizable snippets.
func (r *Renderer) Documentation(lib *manx.Library, snippets []manx.Snippet, raw string) error {
	if r.quiet {
		return r.JSON(struct {
			Library  *manx.Library `json:"library"`
			Snippets []manx.Snippet `json:"snippets,omitempty"`
			Text     string         `json:"text,omitempty"`
		}{lib, snippets, rawIfEmpty(snippets, raw)})
	}

	fmt.Fprintf(r.w, "\n%s %s\n", r.heading.Sprint(lib.Title), r.dim.Sprint(lib.ID))
	if len(snippets) == 0 {
		fmt.Fprintf(r.w, "\n%s\n", raw)
		return nil
	}
	for _, s := range snippets {
		fmt.Fprintf(r.w, "\n%s %s\n", r.quick.Sprint(s.Title), r.dim.Sprintf("[%s]", s.ID))
		if s.Source != "" {
			fmt.Fprintf(r.w, "%s: %s\n", r.dim.Sprint("Source"), r.link.Sprint(s.Source))
		}
		if s.Description != "" {
			fmt.Fprintf(r.w, "\n%s\n", s.Description)
		}
		if s.Code != "" {
			fmt.Fprintf(r.w, "\n%s\n%s\n%s\n", r.dim.Sprintf("```%s", s.Language), s.Code, r.dim.Sprint("```"))
		}
	}
	return nil
}

func rawIfEmpty(snippets []manx.Snippet, raw string) string {
	if len(snippets) == 0 {
		return raw
	}
	return ""
}

// Snippet prints a single cached snippet.
func (r *Renderer) Snippet(id, library, content string) error {
	if r.quiet {
		return r.JSON(map[string]string{"id": id, "library": library, "content": content})
	}
	fmt.Fprintf(r.w, "\n%s %s\n\n%s\n", r.number.Sprint(id), r.dim.Sprintf("(%s)", library), content)
	return nil
}

// Synthesis prints a synthesized answer with its sections highlighted.
func (r *Renderer) Synthesis(s *manx.Synthesis) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.w, "\n%s %s\n\n", r.number.Sprint("AI Summary"), r.dim.Sprintf("(%s, %s)", s.Provider, s.Model))
	for _, line := range strings.Split(s.Answer, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			fmt.Fprintln(r.w)
		case strings.HasPrefix(trimmed, "**Quick Answer**"):
			fmt.Fprintf(r.w, "  %s\n", strings.Replace(trimmed, "**Quick Answer**", r.quick.Sprint("❯ Quick Answer"), 1))
		case strings.HasPrefix(trimmed, "**Key Points**"):
			fmt.Fprintf(r.w, "  %s\n", strings.Replace(trimmed, "**Key Points**", r.points.Sprint("❯ Key Points"), 1))
		case strings.HasPrefix(trimmed, "**Code Example**"):
			fmt.Fprintf(r.w, "  %s\n", strings.Replace(trimmed, "**Code Example**", r.code.Sprint("❯ Code Example"), 1))
		case strings.HasPrefix(trimmed, "- "):
			fmt.Fprintf(r.w, "  %s\n", r.bullet.Sprint(trimmed))
		case strings.HasPrefix(trimmed, "```"):
			fmt.Fprintf(r.w, "  %s\n", r.warn.Sprint(trimmed))
		default:
			fmt.Fprintf(r.w, "  %s\n", trimmed)
		}
	}
	if n := len(s.Citations); n > 0 && n <= 3 {
		fmt.Fprintf(r.w, "\n  %s\n", r.dim.Sprint("Sources used:"))
		for _, c := range s.Citations {
			fmt.Fprintf(r.w, "  %s\n", r.dim.Sprintf("• %s", c.SourceTitle))
		}
	}
	fmt.Fprintln(r.w)
}

// RAGResults prints local search results.
func (r *Renderer) RAGResults(results []manx.RAGResult) error {
	if r.quiet {
		return r.JSON(results)
	}
	if len(results) == 0 {
		fmt.Fprintln(r.w, r.warn.Sprint("No matching documents found."))
		return nil
	}
	fmt.Fprintf(r.w, "\n%s local results:\n\n", r.number.Sprint(len(results)))
	for i, res := range results {
		title := res.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(r.w, "%s %s %s\n", r.number.Sprintf("[%d]", i+1), r.heading.Sprint(title), r.dim.Sprintf("(%.3f)", res.Score))
		fmt.Fprintf(r.w, "  %s: %s\n", r.dim.Sprint("Source"), r.link.Sprint(res.SourcePath))
		if res.Section != "" {
			fmt.Fprintf(r.w, "  %s: %s\n", r.dim.Sprint("Section"), res.Section)
		}
		fmt.Fprintf(r.w, "\n  %s\n", truncate(res.Content, excerptWidth))
		fmt.Fprintln(r.w, r.dim.Sprint(strings.Repeat("─", 60)))
	}
	return nil
}

// Field prints an aligned "label: value" line.
func (r *Renderer) Field(label string, value any) {
	fmt.Fprintf(r.w, "  %-22s %v\n", r.dim.Sprint(label+":"), value)
}

// Heading prints a section title.
func (r *Renderer) Heading(title string) {
	fmt.Fprintf(r.w, "\n%s\n", r.heading.Sprint(title))
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if t := manx.Truncate(s, n); t != s {
		return t + "..."
	}
	return s
}

// errorText returns the user-facing message for err. Application errors
// show their message; other errors show in full.
func errorText(err error) string {
	var e *manx.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
