package main

import (
	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/fs"
)

// Run executes the get command.
func (c *GetCmd) Run(deps *Dependencies) error {
	ctx := deps.Ctx

	library, id, err := manx.ParseSnippetID(c.ID)
	if err != nil {
		return err
	}

	key := manx.SnippetKey(library, id)
	if library == "" {
		// Without a library, the most recently cached snippet with this ID wins.
		if key, err = deps.Cache.Latest(ctx, manx.CategorySnippets, "_"+id); err != nil {
			if manx.ErrorCode(err) == manx.ENOTFOUND {
				return manx.Errorf(manx.ENOTFOUND, "snippet %s not found in cache; run a search first", c.ID)
			}
			return err
		}
	}

	var res manx.SearchResult
	hit, err := deps.Cache.Get(ctx, manx.CategorySnippets, key, &res)
	if err != nil {
		return err
	}
	if !hit {
		return manx.Errorf(manx.ENOTFOUND, "snippet %s not found in cache; run a search first", c.ID)
	}

	if c.Output != "" {
		if err := fs.ExportResults(c.Output, []manx.SearchResult{res}); err != nil {
			return err
		}
		deps.Renderer.Success("Snippet exported to %s", c.Output)
	}

	content := res.Excerpt
	if res.URL != "" {
		content += "\n\nSource: " + res.URL
	}
	return deps.Renderer.Snippet(displayID(res), res.Library, res.Title+"\n\n"+content)
}
