package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/nivram913/fuse-digiposte/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Interactive login is disabled so tests never try to open a browser.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.API.Token = "test-token"
	cfgVal.Auth.Interactive = false
	cfgVal.Auth.BrowserCommand = "true"
	cfgVal.Auth.TokenFile = filepath.Join(base, "auth", "token")
	cfgVal.Auth.StateFile = filepath.Join(base, "auth", "auth.json")
	cfgVal.Mount.CacheDir = filepath.Join(base, "cache")
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithToken sets the API token on the test config.
func WithToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithBaseURL points the test config at a fake API server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Mount.CacheDir)
}
