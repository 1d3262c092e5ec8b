package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configDirEnvKey, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("api url: %s", cfg.APIURL)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log level: %s", cfg.LogLevel)
	}
	if cfg.Sync.TransferConcurrency != DefaultConcurrency {
		t.Errorf("concurrency: %d", cfg.Sync.TransferConcurrency)
	}
	if cfg.AutosaveDebounce() != DefaultAutosaveDebounce {
		t.Errorf("debounce: %v", cfg.AutosaveDebounce())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	content := `
api_url = "https://boards.example.com/api"
db_path = "/var/lib/boardsync/replica.db"
log_level = "debug"

[sync]
transfer_concurrency = 5
autosave_debounce = "2s"
`
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "https://boards.example.com/api" {
		t.Errorf("api url: %s", cfg.APIURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: %s", cfg.LogLevel)
	}
	if cfg.Sync.TransferConcurrency != 5 {
		t.Errorf("concurrency: %d", cfg.Sync.TransferConcurrency)
	}
	if cfg.AutosaveDebounce() != 2*time.Second {
		t.Errorf("debounce: %v", cfg.AutosaveDebounce())
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		t.Fatalf("resolve db path: %v", err)
	}
	if dbPath != "/var/lib/boardsync/replica.db" {
		t.Errorf("db path: %s", dbPath)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	content := `log_level = "warn"`
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level: %s", cfg.LogLevel)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("api url should keep default, got %s", cfg.APIURL)
	}
	if cfg.Sync.TransferConcurrency != DefaultConcurrency {
		t.Errorf("concurrency should keep default, got %d", cfg.Sync.TransferConcurrency)
	}
}

func TestLoadClampsInvalidConcurrency(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	content := `
[sync]
transfer_concurrency = -2
`
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sync.TransferConcurrency != DefaultConcurrency {
		t.Errorf("concurrency not clamped: %d", cfg.Sync.TransferConcurrency)
	}
}

func TestLoadBadTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte("api_url = ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAutosaveDebounceFallback(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", DefaultAutosaveDebounce},
		{"500ms", 500 * time.Millisecond},
		{"1m", time.Minute},
		{"0s", DefaultAutosaveDebounce},
		{"-3s", DefaultAutosaveDebounce},
		{"soon", DefaultAutosaveDebounce},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Sync.AutosaveDebounce = tt.raw
		if got := cfg.AutosaveDebounce(); got != tt.want {
			t.Errorf("debounce for %q: got %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestPathHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	path, err := Path()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != filepath.Join(dir, configFileName) {
		t.Errorf("path: %s", path)
	}
}
