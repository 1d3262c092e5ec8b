package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL            = "http://127.0.0.1:8087/api"
	DefaultDBFileName        = ".boardsync.db"
	DefaultLogLevel          = "info"
	DefaultConcurrency       = 3
	DefaultAutosaveDebounce  = 5 * time.Second
	DefaultAutosaveDebounceS = "5s"

	configDirEnvKey = "BOARDSYNC_CONFIG_DIR"
	configFileName  = ".boardsync.toml"
)

// SyncConfig tunes attachment transfer and autosave behavior.
type SyncConfig struct {
	// TransferConcurrency bounds simultaneously in-flight attachment
	// downloads/uploads per batch.
	TransferConcurrency int `toml:"transfer_concurrency"`

	// AutosaveDebounce is how long a scene must stay unmutated before
	// the local-only autosave fires. Duration string, e.g. "5s".
	AutosaveDebounce string `toml:"autosave_debounce"`
}

// Config defines runtime configuration for boardsync.
type Config struct {
	APIURL   string     `toml:"api_url"`
	DBPath   string     `toml:"db_path"`
	LogLevel string     `toml:"log_level"`
	Sync     SyncConfig `toml:"sync"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		DBPath:   "",
		LogLevel: DefaultLogLevel,
		Sync: SyncConfig{
			TransferConcurrency: DefaultConcurrency,
			AutosaveDebounce:    DefaultAutosaveDebounceS,
		},
	}
}

// Load reads config from the config file (if present) over defaults.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		return nil, err
	}
	if _, err := loadFileIfExists(path, &cfg); err != nil {
		return nil, err
	}

	if cfg.Sync.TransferConcurrency <= 0 {
		cfg.Sync.TransferConcurrency = DefaultConcurrency
	}
	return &cfg, nil
}

// Path returns the path of the config file.
func Path() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ResolveDBPath returns the configured database path, defaulting to a
// file in the user's home directory.
func (c *Config) ResolveDBPath() (string, error) {
	if strings.TrimSpace(c.DBPath) != "" {
		return c.DBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDBFileName), nil
}

// AutosaveDebounce parses the configured debounce interval, falling back
// to the default on an empty or invalid value.
func (c *Config) AutosaveDebounce() time.Duration {
	raw := strings.TrimSpace(c.Sync.AutosaveDebounce)
	if raw == "" {
		return DefaultAutosaveDebounce
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return DefaultAutosaveDebounce
	}
	return d
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}
