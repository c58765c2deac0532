// Package config loads portman settings from defaults, an optional YAML
// file and PORTMAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pranshuparmar/portman/internal/classify"
)

const EnvPrefix = "PORTMAN"

type Config struct {
	Scan    ScanConfig    `mapstructure:"scan"`
	Control ControlConfig `mapstructure:"control"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
}

type ScanConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	// Comma-separated, matched case-insensitively.
	DevKeywords string `mapstructure:"dev_keywords"`
	// Enrich fills in executable paths and start times in-process.
	Enrich bool `mapstructure:"enrich"`
}

// Keywords splits DevKeywords into trimmed lowercase entries.
func (s ScanConfig) Keywords() []string {
	return classify.ParseKeywords(s.DevKeywords)
}

type ControlConfig struct {
	LaunchAgentsDir  string `mapstructure:"launch_agents_dir"`
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
	// Process name (substring, or "=name" for an exact match) to launchd
	// label. Empty means the built-in Homebrew table.
	ServiceLabels map[string]string `mapstructure:"service_labels"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
	// Manual scans allowed per second on POST /api/scan.
	ScanRate  float64 `mapstructure:"scan_rate"`
	ScanBurst int     `mapstructure:"scan_burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so that environment overrides apply.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scan.interval", "5s")
	v.SetDefault("scan.command_timeout", "10s")
	v.SetDefault("scan.dev_keywords", classify.DefaultDevKeywords)
	v.SetDefault("scan.enrich", true)

	v.SetDefault("control.launch_agents_dir", "~/Library/LaunchAgents")
	v.SetDefault("control.batch_concurrency", 4)
	v.SetDefault("control.service_labels", map[string]string{})

	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("http.scan_rate", 1.0)
	v.SetDefault("http.scan_burst", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path, or $HOME/.config/portman/config.yaml
// when path is empty and that file exists, and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "portman"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Control.LaunchAgentsDir = expandHome(cfg.Control.LaunchAgentsDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Scan.Interval <= 0 {
		return fmt.Errorf("scan.interval must be positive, got %s", c.Scan.Interval)
	}
	if c.Scan.CommandTimeout <= 0 {
		return fmt.Errorf("scan.command_timeout must be positive, got %s", c.Scan.CommandTimeout)
	}
	if c.Control.BatchConcurrency < 1 {
		return fmt.Errorf("control.batch_concurrency must be at least 1, got %d", c.Control.BatchConcurrency)
	}
	if c.HTTP.ScanRate <= 0 || c.HTTP.ScanBurst < 1 {
		return errors.New("http.scan_rate and http.scan_burst must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
