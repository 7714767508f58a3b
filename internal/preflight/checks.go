package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nivram913/fuse-digiposte/internal/deps"
	"github.com/nivram913/fuse-digiposte/internal/services"
	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
)

// FuseDevice is the kernel device a FUSE mount talks to.
const FuseDevice = "/dev/fuse"

const apiCheckTimeout = 10 * time.Second

// CheckAPI verifies that the API is reachable and accepts the token by
// fetching the folder tree once, without retries.
func CheckAPI(ctx context.Context, baseURL, token string) Result {
	const name = "Digiposte API"

	if token == "" {
		return Result{Name: name, Detail: "no token (run digiposte login or pass --token)"}
	}
	client, err := digiposte.New(token, digiposte.WithBaseURL(baseURL), digiposte.WithTimeout(apiCheckTimeout))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer client.Close()

	checkCtx, cancel := context.WithTimeout(ctx, apiCheckTimeout)
	defer cancel()

	if _, err := client.FoldersTree(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFuseDevice verifies that the FUSE device can be opened for reading
// and writing.
func CheckFuseDevice(path string) Result {
	const name = "FUSE device"

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s missing (load the fuse kernel module)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckHelpers converts binary availability into results. Optional helpers
// that are missing still pass.
func CheckHelpers(requirements []deps.Requirement) []Result {
	statuses := deps.CheckBinaries(requirements)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name}
		switch {
		case status.Available:
			result.Passed = true
			result.Detail = status.Path
		case status.Optional:
			result.Passed = true
			result.Detail = status.Detail + " (optional)"
		default:
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

// summarizeAPIError produces a human-readable summary for API check failures.
func summarizeAPIError(err error) string {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return "auth failed (token rejected)"
	case errors.Is(err, services.ErrTimeout):
		return "check timed out (API unresponsive)"
	case errors.Is(err, services.ErrTransport):
		return "unreachable (check network and api.base_url)"
	}
	var statusErr *digiposte.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("check failed (%d)", statusErr.StatusCode)
	}
	return err.Error()
}
