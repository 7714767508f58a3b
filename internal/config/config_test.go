package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/nivram913/fuse-digiposte/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("DIGIPOSTE_CONFIG", "")
	t.Setenv("DIGIPOSTE_TOKEN", "  env-token ")
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "digiposte", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.API.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.API.Token)
	}
	if cfg.API.BaseURL != "https://api.digiposte.fr/api/v3" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if want := filepath.Join(tempHome, ".cache", "digiposte"); cfg.Mount.CacheDir != want {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Mount.CacheDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "digiposte", "auth.json"); cfg.Auth.StateFile != want {
		t.Fatalf("unexpected state file: got %q want %q", cfg.Auth.StateFile, want)
	}
	if !cfg.Auth.Interactive {
		t.Fatal("expected interactive login enabled by default")
	}
	if cfg.PollInterval() != time.Second {
		t.Fatalf("expected one second poll interval, got %s", cfg.PollInterval())
	}
	if cfg.RequestTimeout() != 0 {
		t.Fatalf("expected transport default timeout, got %s", cfg.RequestTimeout())
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DIGIPOSTE_TOKEN", "env-token")

	path := filepath.Join(tempHome, "custom.toml")
	content := `
[api]
base_url = "http://127.0.0.1:8080/api/v3/"
token = "file-token"
timeout_seconds = 15

[auth]
interactive = false
poll_interval_seconds = 2

[mount]
cache_dir = "~/cache"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to be used, got %q (exists=%v)", resolved, exists)
	}
	if cfg.API.Token != "file-token" {
		t.Fatalf("file token should win over env, got %q", cfg.API.Token)
	}
	if cfg.API.BaseURL != "http://127.0.0.1:8080/api/v3" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.RequestTimeout() != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.RequestTimeout())
	}
	if cfg.Auth.Interactive {
		t.Fatal("expected interactive login disabled")
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("unexpected poll interval %s", cfg.PollInterval())
	}
	if cfg.Mount.CacheDir != filepath.Join(tempHome, "cache") {
		t.Fatalf("unexpected cache dir %q", cfg.Mount.CacheDir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased logging settings, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadUsesConfigEnvPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "env.toml")
	if err := os.WriteFile(path, []byte("[api]\ntoken = \"from-env-path\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DIGIPOSTE_CONFIG", path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected DIGIPOSTE_CONFIG path, got %q", resolved)
	}
	if cfg.API.Token != "from-env-path" {
		t.Fatalf("unexpected token %q", cfg.API.Token)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"base url scheme", func(c *config.Config) { c.API.BaseURL = "ftp://example.com" }, "api.base_url"},
		{"negative timeout", func(c *config.Config) { c.API.TimeoutSeconds = -1 }, "api.timeout_seconds"},
		{"zero poll interval", func(c *config.Config) { c.Auth.PollIntervalSeconds = 0 }, "auth.poll_interval_seconds"},
		{"same auth files", func(c *config.Config) { c.Auth.StateFile = c.Auth.TokenFile }, "must differ"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestCreateSampleProducesValidConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if parsed.API.BaseURL != config.Default().API.BaseURL {
		t.Fatalf("unexpected sample base url %q", parsed.API.BaseURL)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Auth.StateFile = filepath.Join(base, "state", "auth.json")
	cfg.Auth.TokenFile = filepath.Join(base, "drop", "token")
	cfg.Mount.CacheDir = filepath.Join(base, "cache")
	cfg.Logging.Dir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{"state", "drop", "cache", "logs"} {
		info, err := os.Stat(filepath.Join(base, dir))
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist: %v", dir, err)
		}
	}
}
