// Package config loads console configuration from ~/.hostflow/config.yaml
// and HOSTFLOW_* environment variables, with environment taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full console configuration.
type Config struct {
	// DataDir holds the local cache database and daemon logs.
	DataDir string `mapstructure:"data_dir"`

	// InboxDir is where the front-desk kiosk drops check-in records.
	InboxDir string `mapstructure:"inbox_dir"`

	Remote struct {
		BaseURL string        `mapstructure:"base_url"`
		Bucket  string        `mapstructure:"bucket"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"remote"`

	Sync struct {
		DebounceInterval time.Duration `mapstructure:"debounce_interval"`
	} `mapstructure:"sync"`

	Dashboard struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"dashboard"`

	AI struct {
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"ai"`

	Log struct {
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	} `mapstructure:"log"`
}

// Dir returns the configuration directory, ~/.hostflow by default.
// HOSTFLOW_HOME overrides it, which the tests rely on.
func Dir() string {
	if home := os.Getenv("HOSTFLOW_HOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hostflow"
	}
	return filepath.Join(home, ".hostflow")
}

// Load reads config.yaml from the configuration directory, applies
// defaults, and overlays HOSTFLOW_* environment variables. A missing
// config file is fine; a malformed one is not.
func Load() (*Config, error) {
	v := viper.New()

	dir := Dir()

	v.SetDefault("data_dir", dir)
	v.SetDefault("inbox_dir", filepath.Join(dir, "inbox"))
	v.SetDefault("remote.base_url", "https://kvdb.io")
	v.SetDefault("remote.bucket", "hostflow_v9_global_sync")
	v.SetDefault("remote.timeout", 15*time.Second)
	v.SetDefault("sync.debounce_interval", 5*time.Second)
	v.SetDefault("dashboard.port", 8090)
	v.SetDefault("ai.model", "claude-sonnet-4-5")
	v.SetDefault("log.file", filepath.Join(dir, "hostflow.log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 30)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("HOSTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// explicit bindings
	_ = v.BindEnv("remote.base_url", "HOSTFLOW_REMOTE_BASE_URL")
	_ = v.BindEnv("remote.bucket", "HOSTFLOW_REMOTE_BUCKET")
	_ = v.BindEnv("sync.debounce_interval", "HOSTFLOW_SYNC_DEBOUNCE_INTERVAL")
	_ = v.BindEnv("dashboard.port", "HOSTFLOW_DASHBOARD_PORT")
	_ = v.BindEnv("ai.api_key", "HOSTFLOW_AI_API_KEY")
	_ = v.BindEnv("ai.model", "HOSTFLOW_AI_MODEL")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &c, nil
}
