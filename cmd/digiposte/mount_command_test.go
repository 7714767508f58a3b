package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/nivram913/fuse-digiposte/internal/preflight"
)

func TestMountCheckRendersPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	mountpoint := filepath.Join(env.baseDir, "mnt")

	// FUSE may be missing on the test host, so only the report is asserted.
	out, _, _ := env.run(t, "mount", "--check", mountpoint)
	for _, name := range []string{"Cache directory", "FUSE device", "Mountpoint", "Digiposte API"} {
		requireContains(t, out, name)
	}
}

func TestRenderPreflightColours(t *testing.T) {
	results := []preflight.Result{
		{Name: "Cache directory", Passed: true, Detail: "/tmp/cache"},
		{Name: "FUSE device", Passed: false, Detail: "missing"},
	}
	plain := renderPreflight(results, false)
	if strings.Contains(plain, "\033[") || !strings.Contains(plain, "FAIL") {
		t.Fatalf("unexpected plain output:\n%s", plain)
	}
	coloured := renderPreflight(results, true)
	if !strings.Contains(coloured, failColors.Sprint("FAIL")) || !strings.Contains(coloured, passColors.Sprint("OK")) {
		t.Fatalf("expected ANSI status colours:\n%s", coloured)
	}
}
