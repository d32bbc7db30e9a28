package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Host      HostConfig      `yaml:"host" toml:"host"`
	Poll      PollConfig      `yaml:"poll" toml:"poll"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	NATS      NATSConfig      `yaml:"nats" toml:"nats"`
	Export    ExportConfig    `yaml:"export" toml:"export"`
	Events    EventsConfig    `yaml:"events" toml:"events"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" yaml:"port" toml:"port"`
	Host            string        `envconfig:"HOST" yaml:"host" toml:"host"`
	AllowOrigins    []string      `envconfig:"CORS_ORIGINS" yaml:"allow_origins" toml:"allow_origins"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// HostConfig describes the link to the host process.
type HostConfig struct {
	URL              string        `envconfig:"HOST_URL" yaml:"url" toml:"url"`
	Platform         string        `envconfig:"HOST_PLATFORM" yaml:"platform" toml:"platform"`
	HandshakeTimeout time.Duration `envconfig:"HOST_HANDSHAKE_TIMEOUT" yaml:"handshake_timeout" toml:"handshake_timeout"`
	WriteTimeout     time.Duration `envconfig:"HOST_WRITE_TIMEOUT" yaml:"write_timeout" toml:"write_timeout"`
}

// PollConfig holds polling and initial view settings.
type PollConfig struct {
	Interval   time.Duration `envconfig:"POLL_INTERVAL" yaml:"interval" toml:"interval"`
	InitialTab string        `envconfig:"INITIAL_TAB" yaml:"initial_tab" toml:"initial_tab"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
}

// NATSConfig configures the optional feed mirror.
type NATSConfig struct {
	Enabled      bool   `envconfig:"NATS_ENABLED" yaml:"enabled" toml:"enabled"`
	URL          string `envconfig:"NATS_URL" yaml:"url" toml:"url"`
	Subject      string `envconfig:"NATS_SUBJECT" yaml:"subject" toml:"subject"`
	DrivePolling bool   `envconfig:"NATS_DRIVE_POLLING" yaml:"drive_polling" toml:"drive_polling"`
}

// ExportConfig holds log dump settings.
type ExportConfig struct {
	Dir              string        `envconfig:"EXPORT_DIR" yaml:"dir" toml:"dir"`
	Compression      string        `envconfig:"EXPORT_COMPRESSION" yaml:"compression" toml:"compression"`
	Timeout          time.Duration `envconfig:"EXPORT_TIMEOUT" yaml:"timeout" toml:"timeout"`
	PrivacyStripping bool          `envconfig:"EXPORT_PRIVACY_STRIPPING" yaml:"privacy_stripping" toml:"privacy_stripping"`
}

// EventsConfig bounds the log entry store.
type EventsConfig struct {
	Capacity int `envconfig:"EVENTS_CAPACITY" yaml:"capacity" toml:"capacity"`
}

// Load builds configuration from defaults and environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile builds configuration from defaults, then the file at path (if
// not empty), then environment variables. The file format follows the
// extension: .yaml, .yml or .toml.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		case ".toml":
			err = toml.Unmarshal(data, cfg)
		default:
			err = fmt.Errorf("unsupported config format %q", ext)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			AllowOrigins:    []string{"*"},
			ShutdownTimeout: 5 * time.Second,
		},
		Host: HostConfig{
			URL:              "ws://127.0.0.1:9222/net-internals",
			Platform:         DetectPlatform(),
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     5 * time.Second,
		},
		Poll: PollConfig{
			Interval: 5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		NATS: NATSConfig{
			URL:     "nats://127.0.0.1:4222",
			Subject: "netinternals",
		},
		Export: ExportConfig{
			Dir:              "dumps",
			Compression:      "gzip",
			Timeout:          10 * time.Second,
			PrivacyStripping: true,
		},
		Events: EventsConfig{
			Capacity: 50000,
		},
	}
}

// DetectPlatform maps the running OS to a host platform name.
func DetectPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "mac"
	default:
		return "linux"
	}
}

// Validate checks values that cannot be caught by parsing.
func (c *Config) Validate() error {
	if c.Host.URL == "" {
		return fmt.Errorf("host url is required")
	}
	switch c.Host.Platform {
	case "windows", "mac", "linux", "chromeos":
	default:
		return fmt.Errorf("unknown host platform %q", c.Host.Platform)
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive when enabled")
	}
	return nil
}
