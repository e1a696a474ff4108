package config

import (
	"fmt"
	"time"

	"github.com/vijay-prabhu/mailpeek/internal/email/graph"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Upstream UpstreamConfig `toml:"upstream"`
	Graph    GraphConfig    `toml:"graph"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains inbound HTTP settings
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// UpstreamConfig contains settings shared by every provider adapter
type UpstreamConfig struct {
	Timeout       Duration `toml:"timeout"`
	RetryAttempts uint     `toml:"retry_attempts"`
	RetryDelay    Duration `toml:"retry_delay"`
}

// GraphConfig contains Microsoft Graph endpoints
type GraphConfig struct {
	TokenURL   string `toml:"token_url"`
	APIBaseURL string `toml:"api_base_url"`
	Scope      string `toml:"scope"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a string such as "30s" in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
		},
		Database: DatabaseConfig{
			Path: "~/.local/share/mailpeek/mailpeek.db",
		},
		Upstream: UpstreamConfig{
			Timeout:       Duration{30 * time.Second},
			RetryAttempts: 1,
			RetryDelay:    Duration{500 * time.Millisecond},
		},
		Graph: GraphConfig(graph.DefaultConfig()),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
