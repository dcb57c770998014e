package preflight

import (
	"context"
	"fmt"
	"strings"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/config"
	"loopsleuth/internal/deps"
)

// MinFreeBytes is the free space below which the data directory check fails.
const MinFreeBytes uint64 = 512 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results are reported but do not block a scan.
	Optional bool
}

// RunAll executes every preflight check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Preview directory", cfg.Paths.PreviewDir),
		CheckFreeSpace("Free space", cfg.Paths.DataDir, MinFreeBytes),
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		results = append(results, FromDependency(status))
	}
	results = append(results, CheckCatalog(ctx, cfg.Paths.CatalogPath))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// FromDependency converts a binary lookup into a check result.
func FromDependency(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	if status.Available {
		result.Detail = status.Path
	} else {
		result.Detail = status.Detail
	}
	return result
}

// CheckCatalog opens the catalog (applying pending migrations) and reports
// its schema version and integrity.
func CheckCatalog(ctx context.Context, path string) Result {
	const name = "Catalog"

	store, err := catalog.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !health.IntegrityCheck {
		detail := strings.TrimSpace(health.Error)
		if detail == "" {
			detail = "integrity check failed"
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, detail)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (schema v%d, %d clips, %d flagged)", path, health.SchemaVersion, health.TotalClips, health.FlaggedClips),
	}
}
