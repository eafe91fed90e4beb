// Package context7 implements manx.DocsService over the Context7 MCP server.
package context7

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/fuzzy"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultURL is the public Context7 MCP endpoint.
const DefaultURL = "https://mcp.context7.com/mcp"

// DefaultTimeout bounds each MCP HTTP request.
const DefaultTimeout = 30 * time.Second

// APIKeyHeader carries the optional Context7 API key.
const APIKeyHeader = "CONTEXT7_API_KEY"

// Tool names exposed by the Context7 server.
const (
	resolveTool = "resolve-library-id"
	docsTool    = "get-library-docs"
)

// maxSuggestions caps the "did you mean" list for unknown libraries.
const maxSuggestions = 5

// Compile-time interface verification.
var _ manx.DocsService = (*Client)(nil)

// Client is a lazily connected Context7 MCP client.
type Client struct {
	url     string
	apiKey  string
	timeout time.Duration
	version string

	mu  sync.Mutex
	mcp *client.Client
}

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the MCP endpoint.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithAPIKey sends key in the CONTEXT7_API_KEY header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithVersion sets the version reported in the MCP client info.
func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// NewClient creates a Client. No connection is made until the first call.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url:     DefaultURL,
		timeout: DefaultTimeout,
		version: "dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close terminates the MCP session, if one was opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcp == nil {
		return nil
	}
	err := c.mcp.Close()
	c.mcp = nil
	return err
}

func (c *Client) connect(ctx context.Context) (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcp != nil {
		return c.mcp, nil
	}

	opts := []transport.StreamableHTTPCOption{transport.WithHTTPTimeout(c.timeout)}
	if c.apiKey != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{APIKeyHeader: c.apiKey}))
	}
	mc, err := client.NewStreamableHttpClient(c.url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	if err := mc.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	var init mcp.InitializeRequest
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "manx", Version: c.version}
	if _, err := mc.Initialize(ctx, init); err != nil {
		_ = mc.Close()
		return nil, fmt.Errorf("failed to initialize Context7 session: %w", err)
	}

	c.mcp = mc
	return mc, nil
}

// callTool invokes a tool and returns its first text content.
func (c *Client) callTool(ctx context.Context, name string, args map[string]any) (string, error) {
	mc, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := mc.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("context7 %s: %w", name, err)
	}

	var text string
	for _, content := range res.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			text = tc.Text
			break
		}
	}
	if res.IsError {
		return "", manx.Errorf(manx.EINTERNAL, "context7 %s failed: %s", name, text)
	}
	return text, nil
}

// ResolveLibrary asks Context7 for libraries matching name and picks the
// best candidate.
func (c *Client) ResolveLibrary(ctx context.Context, name string) (*manx.Library, error) {
	if strings.TrimSpace(name) == "" {
		return nil, manx.Errorf(manx.EINVALID, "library name required")
	}

	text, err := c.callTool(ctx, resolveTool, map[string]any{"libraryName": name})
	if err != nil {
		return nil, err
	}

	candidates, titles := ParseCandidates(text)
	if best, ok := BestCandidate(name, candidates); ok {
		return &manx.Library{ID: best.ID, Title: best.Title}, nil
	}
	if suggestions := fuzzy.Suggest(name, titles, maxSuggestions); len(suggestions) > 0 {
		return nil, manx.Errorf(manx.ENOTFOUND, "Library '%s' not found. Did you mean one of: %s?",
			name, strings.Join(suggestions, ", "))
	}
	return nil, manx.Errorf(manx.ENOTFOUND, "no library ID found for '%s'", name)
}

// GetDocumentation fetches documentation for a library ID, optionally
// narrowed to topic.
func (c *Client) GetDocumentation(ctx context.Context, libraryID, topic string) (string, error) {
	args := map[string]any{"context7CompatibleLibraryID": libraryID}
	if topic != "" {
		args["topic"] = topic
	}
	return c.callTool(ctx, docsTool, args)
}

const idMarker = "Context7-compatible library ID:"

// ParseCandidates extracts library candidates from resolve-library-id
// output. A candidate is recorded when an ID line follows a title; snippet counts
// and trust scores listed after the ID update that candidate. All titles
// seen are returned for suggestions.
func ParseCandidates(text string) (candidates []manx.LibraryCandidate, titles []string) {
	var title string
	inBlock := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		last := len(candidates) - 1

		switch {
		case strings.HasPrefix(line, "- Title:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "- Title:"))
			titles = append(titles, title)
			inBlock = true
		case strings.Contains(line, idMarker) && inBlock:
			_, rest, _ := strings.Cut(line, idMarker)
			i := strings.Index(rest, "/")
			if i < 0 {
				continue
			}
			id := rest[i:]
			if j := strings.IndexFunc(id, isSpace); j >= 0 {
				id = id[:j]
			}
			candidates = append(candidates, manx.LibraryCandidate{ID: id, Title: title})
		case strings.Contains(line, "Code Snippets:") && last >= 0:
			n, err := strconv.Atoi(fieldValue(line, "Code Snippets:"))
			if err == nil {
				candidates[last].Snippets = n
			}
		case strings.Contains(line, "Trust Score:") && last >= 0:
			f, err := strconv.ParseFloat(fieldValue(line, "Trust Score:"), 64)
			if err == nil {
				candidates[last].TrustScore = f
			}
		}
	}
	return candidates, titles
}

func fieldValue(line, label string) string {
	_, v, _ := strings.Cut(line, label)
	return strings.TrimSpace(v)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}

// BestCandidate scores candidates and returns the highest. The service's
// ranking dominates; title matches, high trust and snippet counts add
// bonuses.
func BestCandidate(name string, candidates []manx.LibraryCandidate) (manx.LibraryCandidate, bool) {
	var best manx.LibraryCandidate
	bestScore := -1
	lower := strings.ToLower(name)

	for i, cand := range candidates {
		score := (1000 - i) * 100
		title := strings.ToLower(cand.Title)
		if title == lower {
			score += 500
		}
		if strings.Contains(title, lower) {
			score += 200
		}
		if cand.TrustScore >= 7 {
			score += int(cand.TrustScore * 10)
		}
		score += min(cand.Snippets, 100)

		// Ties go to the later candidate.
		if score >= bestScore {
			best, bestScore = cand, score
		}
	}
	return best, bestScore >= 0
}
