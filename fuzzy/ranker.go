// Package fuzzy scores documentation results against queries with
// approximate string matching.
package fuzzy

import (
	"slices"
	"strings"

	"github.com/fwojciec/manx"
	"github.com/sahilm/fuzzy"
)

// Relevance weights.
const (
	apiWeight   = 0.5
	fuzzyWeight = 0.25
)

var _ manx.Ranker = (*Ranker)(nil)

// Ranker combines the service's positional score with fuzzy matches of the
// query against each result's title and excerpt.
type Ranker struct{}

// NewRanker creates a new Ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns a copy of results scored as
// api*0.5 + (match(title) + match(excerpt))*0.25, best first. Ties keep
// the service order.
func (r *Ranker) Rank(query string, results []manx.SearchResult) []manx.SearchResult {
	ranked := slices.Clone(results)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ranked
	}
	for i := range ranked {
		res := &ranked[i]
		res.RelevanceScore = res.RelevanceScore*apiWeight +
			(Score(q, res.Title)+Score(q, res.Excerpt))*fuzzyWeight
	}
	slices.SortStableFunc(ranked, func(a, b manx.SearchResult) int {
		switch {
		case a.RelevanceScore > b.RelevanceScore:
			return -1
		case a.RelevanceScore < b.RelevanceScore:
			return 1
		}
		return 0
	})
	return ranked
}

// Score returns how well pattern fuzzily matches text, in [0, 1]. Any
// match scores at least 0.5; the rest grows with match quality relative to
// pattern matched against itself.
func Score(pattern, text string) float32 {
	pattern = strings.ToLower(pattern)
	matches := fuzzy.Find(pattern, []string{strings.ToLower(text)})
	if len(matches) == 0 {
		return 0
	}
	best := fuzzy.Find(pattern, []string{pattern})
	quality := float32(0)
	if len(best) > 0 && best[0].Score > 0 {
		quality = min(max(float32(matches[0].Score)/float32(best[0].Score), 0), 1)
	}
	return 0.5 + 0.5*quality
}

// Suggest returns up to n of candidates matching name, best first.
func Suggest(name string, candidates []string, n int) []string {
	lower := make([]string, len(candidates))
	for i, c := range candidates {
		lower[i] = strings.ToLower(c)
	}
	var out []string
	for _, m := range fuzzy.Find(strings.ToLower(name), lower) {
		if len(out) == n {
			break
		}
		out = append(out, candidates[m.Index])
	}
	return out
}
