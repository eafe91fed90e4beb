// Package goquery extracts crawlable links from documentation pages.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/manx"
)

var _ manx.LinkSelector = (*LinkSelector)(nil)

// linkGroup maps a CSS selector to the priority of the links it finds.
type linkGroup struct {
	selector string
	priority manx.LinkPriority
}

// groups are matched in order. A link found by several groups keeps the
// highest priority.
var groups = []linkGroup{
	{".toc a[href], .table-of-contents a[href], .sidebar a[href], aside a[href]", manx.PriorityTOC},
	{`nav a[href], [role="navigation"] a[href], .nav a[href], .menu a[href], .navbar a[href]`, manx.PriorityNavigation},
	{"main a[href], article a[href], .content a[href], .doc-content a[href]", manx.PriorityContent},
	{"footer a[href], .footer a[href]", manx.PriorityFooter},
	{"a[href]", manx.PriorityOther},
}

// LinkSelector finds same-host links using framework-agnostic selectors
// for tables of contents, navigation, content and footers.
type LinkSelector struct{}

// NewLinkSelector creates a new LinkSelector.
func NewLinkSelector() *LinkSelector {
	return &LinkSelector{}
}

// ExtractLinks returns the links of html resolved against baseURL, grouped
// by the first selector group that matched them. Fragments are dropped, and links to
// other hosts, to the page itself, or with non-HTTP schemes are skipped.
func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]manx.DiscoveredLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, manx.Errorf(manx.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, manx.Errorf(manx.EINVALID, "failed to parse HTML: %v", err)
	}

	index := make(map[string]int)
	var links []manx.DiscoveredLink

	for _, g := range groups {
		doc.Find(g.selector).Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			resolved, ok := resolve(base, href)
			if !ok {
				return
			}
			if i, seen := index[resolved]; seen {
				if g.priority > links[i].Priority {
					links[i].Priority = g.priority
				}
				return
			}
			index[resolved] = len(links)
			links = append(links, manx.DiscoveredLink{URL: resolved, Priority: g.priority})
		})
	}

	return links, nil
}

// resolve returns href as an absolute same-host URL without fragment.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href[0] == '#' {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host != base.Host {
		return "", false
	}
	u.Fragment = ""

	self := *base
	self.Fragment = ""
	if u.String() == self.String() {
		return "", false
	}
	return u.String(), true
}
