package preflight

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nivram913/fuse-digiposte/internal/deps"
	"github.com/nivram913/fuse-digiposte/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFuseDevice_Missing(t *testing.T) {
	result := CheckFuseDevice(filepath.Join(t.TempDir(), "fuse"))
	if result.Passed || !strings.Contains(result.Detail, "missing") {
		t.Fatalf("expected missing device failure, got %#v", result)
	}
}

func TestCheckAPI_OK(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	result := CheckAPI(context.Background(), api.URL(), testsupport.FakeToken)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckAPI_BadToken(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	result := CheckAPI(context.Background(), api.URL(), "bad-token")
	if result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("expected auth failure, got %#v", result)
	}
}

func TestCheckAPI_ServerError(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	api.FailRoute(testsupport.RouteFolders, http.StatusServiceUnavailable)
	result := CheckAPI(context.Background(), api.URL(), testsupport.FakeToken)
	if result.Passed || !strings.Contains(result.Detail, "503") {
		t.Fatalf("expected 503 failure, got %#v", result)
	}
}

func TestCheckAPI_MissingToken(t *testing.T) {
	if result := CheckAPI(context.Background(), "http://localhost", ""); result.Passed {
		t.Fatal("expected failure for missing token")
	}
}

func TestCheckHelpers_OptionalMissingPasses(t *testing.T) {
	results := CheckHelpers([]deps.Requirement{
		{Name: "required", Commands: []string{"clearly-not-present-binary"}},
		{Name: "optional", Commands: []string{"clearly-not-present-binary"}, Optional: true},
	})
	if results[0].Passed {
		t.Fatal("missing required helper must fail")
	}
	if !results[1].Passed || !strings.Contains(results[1].Detail, "optional") {
		t.Fatalf("missing optional helper should pass, got %#v", results[1])
	}
}

func TestLookupMountTable(t *testing.T) {
	dir := t.TempDir()
	mountpoint := filepath.Join(dir, "my docs")
	table := filepath.Join(dir, "mounts")
	content := "proc /proc proc rw 0 0\n" +
		"digiposte " + strings.ReplaceAll(mountpoint, " ", `\040`) + " fuse.digiposte ro 0 0\n"
	if err := os.WriteFile(table, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	status := lookupMountTable(table, mountpoint)
	if !status.Mounted || status.FsType != "fuse.digiposte" || status.Source != "digiposte" {
		t.Fatalf("unexpected mount status %#v", status)
	}
	if other := lookupMountTable(table, dir); other.Mounted {
		t.Fatalf("parent directory should not be mounted: %#v", other)
	}
	if result := checkMountpoint("Mountpoint", mountpoint, status); result.Passed {
		t.Fatal("mounted path must fail the mountpoint check")
	}
}

func TestCheckMountpoint(t *testing.T) {
	dir := t.TempDir()
	if result := CheckMountpoint(filepath.Join(dir, "absent")); !result.Passed {
		t.Fatalf("absent mountpoint should pass: %s", result.Detail)
	}
	if result := CheckMountpoint(dir); !result.Passed {
		t.Fatalf("empty mountpoint should pass: %s", result.Detail)
	}
	if err := os.WriteFile(filepath.Join(dir, "x"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckMountpoint(dir); result.Passed {
		t.Fatal("non-empty mountpoint should fail")
	}
}

func TestRunMount_NilConfig(t *testing.T) {
	if results := RunMount(context.Background(), nil, "", ""); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunMount_IncludesAPIWhenTokenGiven(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(api.URL()))
	if err := os.MkdirAll(cfg.Mount.CacheDir, 0o700); err != nil {
		t.Fatal(err)
	}

	results := RunMount(context.Background(), cfg, "", testsupport.FakeToken)
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "Cache directory") || !strings.Contains(joined, "FUSE device") || !strings.Contains(joined, "Digiposte API") {
		t.Fatalf("unexpected checks %v", names)
	}
	if results[0].Passed != true {
		t.Fatalf("cache directory check failed: %s", results[0].Detail)
	}

	withoutToken := RunMount(context.Background(), cfg, "", "")
	if len(withoutToken) != len(results)-1 {
		t.Fatalf("API check should be skipped without a token: %d vs %d", len(withoutToken), len(results))
	}
}

func TestFailed(t *testing.T) {
	if Failed([]Result{{Passed: true}}) {
		t.Fatal("all passed")
	}
	if !Failed([]Result{{Passed: true}, {Passed: false}}) {
		t.Fatal("one failed")
	}
}
