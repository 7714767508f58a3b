package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills path with size bytes of a repeating, position-dependent
// pattern and returns the content so callers can compare round trips. A
// size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int) []byte {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	content := make([]byte, size)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return content
}
