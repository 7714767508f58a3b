package preflight

import (
	"context"

	"github.com/nivram913/fuse-digiposte/internal/config"
	"github.com/nivram913/fuse-digiposte/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunMount executes the checks a mount depends on. The API check is run
// only when a token is supplied.
func RunMount(ctx context.Context, cfg *config.Config, mountpoint, token string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Mount.CacheDir))
	results = append(results, CheckFuseDevice(FuseDevice))
	results = append(results, CheckHelpers(deps.FuseRequirements())...)
	if mountpoint != "" {
		results = append(results, CheckMountpoint(mountpoint))
	}
	if token != "" {
		results = append(results, CheckAPI(ctx, cfg.API.BaseURL, token))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
