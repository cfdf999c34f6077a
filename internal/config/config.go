// Package config loads the daemon configuration from a YAML file and
// environment variables. Precedence: environment > config file > defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full daemon configuration.
type Config struct {
	Port     int           `mapstructure:"port"`
	LogLevel string        `mapstructure:"log_level"`
	Storage  StorageConfig `mapstructure:"storage"`
	Sync     SyncConfig    `mapstructure:"sync"`
}

// StorageConfig selects the persistence backend. Path may be empty, in which
// case a default under the user config dir is used.
type StorageConfig struct {
	Kind string `mapstructure:"kind"` // "document" or "relational"
	Path string `mapstructure:"path"`
}

// SyncConfig holds the gist sync settings. The token is a GitHub personal
// access token with the gist scope; it is usually supplied via
// SNIPPETD_SYNC_TOKEN rather than written to the config file.
type SyncConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// Load reads snippetd.yaml from the working directory or ~/.config/snippetd,
// applies SNIPPETD_* environment overrides, and fills in defaults. A missing
// config file is fine; a malformed one is an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("snippetd")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "snippetd"))
	}

	v.SetDefault("port", 8790)
	v.SetDefault("log_level", "info")
	v.SetDefault("storage.kind", "document")
	v.SetDefault("storage.path", "")
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.token", "")

	v.SetEnvPrefix("SNIPPETD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding config: %w", err)
	}
	return &cfg, nil
}

// ResolveStoragePath returns the configured storage path, or the default
// location under the user config dir: snippets.json for the document backend,
// snippets.db for the relational one.
func (c *Config) ResolveStoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locating user config dir: %w", err)
	}

	name := "snippets.json"
	if c.Storage.Kind == "relational" {
		name = "snippets.db"
	}
	return filepath.Join(configDir, "snippetd", name), nil
}

// SlogLevel translates the configured log level. Unknown values fall back to
// info rather than failing startup.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
