package main

import (
	"fmt"
	"strings"
)

// Run executes the cache clear command.
func (c *CacheClearCmd) Run(deps *Dependencies) error {
	if err := deps.Cache.Clear(deps.Ctx); err != nil {
		return err
	}
	deps.Renderer.Success("Cache cleared")
	return nil
}

// Run executes the cache stats command.
func (c *CacheStatsCmd) Run(deps *Dependencies) error {
	stats, err := deps.Cache.Stats(deps.Ctx)
	if err != nil {
		return err
	}
	if deps.Renderer.Quiet() {
		return deps.Renderer.JSON(stats)
	}

	deps.Renderer.Heading("Cache Statistics")
	deps.Renderer.Field("Total size", fmt.Sprintf("%.2f MB / %d MB", stats.TotalSizeMB, deps.Config.MaxCacheSizeMB))
	deps.Renderer.Field("Entries", stats.FileCount)
	deps.Renderer.Field("Categories", strings.Join(stats.Categories, ", "))
	deps.Renderer.Field("TTL", fmt.Sprintf("%d hours", deps.Config.CacheTTLHours))
	deps.Renderer.Field("Auto-cache", onOff(deps.Config.AutoCacheEnabled))
	return nil
}

// Run executes the cache list command.
func (c *CacheListCmd) Run(deps *Dependencies) error {
	items, err := deps.Cache.List(deps.Ctx)
	if err != nil {
		return err
	}
	if deps.Renderer.Quiet() {
		return deps.Renderer.JSON(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(deps.Stdout, "Cache is empty.")
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(deps.Stdout, "%-9s %8.1f KB  %s\n", it.Category, it.SizeKB, it.Name)
	}
	return nil
}
