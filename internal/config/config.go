// Package config loads the chat client configuration.
//
// Precedence, lowest first: Default, a TOML file (Load), environment
// variables (ApplyEnv), then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/omochice/pingpong-chat/internal/observability"
)

const (
	EnvURL          = "CHAT_URL"
	EnvDialTimeout  = "CHAT_DIAL_TIMEOUT"
	EnvWriteTimeout = "CHAT_WRITE_TIMEOUT"
	EnvLogLevel     = "CHAT_LOG_LEVEL"
	EnvLogFormat    = "CHAT_LOG_FORMAT"
	EnvColor        = "CHAT_COLOR"
	EnvRenderStream = "CHAT_RENDER_STREAM"
	EnvMetricsAddr  = "CHAT_METRICS_ADDR"
)

// Color modes for terminal output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("config: invalid value")

// Log configures the process logger.
type Log struct {
	Level  string
	Format string
}

// Config holds all configuration for the chat client.
type Config struct {
	URL          string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Log          Log
	Color        string

	// RenderStream is a file path receiving delimited render commands. Empty disables it.
	RenderStream string

	// MetricsAddr is the listen address of the metrics endpoint. Empty disables it.
	MetricsAddr string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		URL:          "ws://localhost:82/chat",
		DialTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Color: ColorAuto,
	}
}

type fileConfig struct {
	URL          string `toml:"url"`
	DialTimeout  string `toml:"dial_timeout"`
	WriteTimeout string `toml:"write_timeout"`
	Color        string `toml:"color"`
	RenderStream string `toml:"render_stream"`
	MetricsAddr  string `toml:"metrics_addr"`
	Log          struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Load overlays the keys defined in the TOML file at path onto cfg.
func Load(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return fmt.Errorf("parse dial_timeout: %w", err)
		}
		cfg.DialTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.WriteTimeout = d
	}
	if meta.IsDefined("color") {
		cfg.Color = strings.TrimSpace(raw.Color)
	}
	if meta.IsDefined("render_stream") {
		cfg.RenderStream = strings.TrimSpace(raw.RenderStream)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.TrimSpace(raw.Log.Format)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files (".env" when none is
// given) without overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays the CHAT_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if v, ok := lookup(EnvURL); ok {
		cfg.URL = v
	}
	if v, ok := lookup(EnvDialTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvDialTimeout, err)
		}
		cfg.DialTimeout = d
	}
	if v, ok := lookup(EnvWriteTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvWriteTimeout, err)
		}
		cfg.WriteTimeout = d
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.Log.Format = v
	}
	if v, ok := lookup(EnvColor); ok {
		cfg.Color = v
	}
	if v, ok := lookup(EnvRenderStream); ok {
		cfg.RenderStream = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("%w: url %q: %v", ErrInvalid, c.URL, err)
	}
	switch u.Scheme {
	case "ws", "wss", "tcp":
	default:
		return fmt.Errorf("%w: url %q: unsupported scheme %q", ErrInvalid, c.URL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url %q: missing host", ErrInvalid, c.URL)
	}

	if c.DialTimeout < 0 {
		return fmt.Errorf("%w: dial_timeout must not be negative", ErrInvalid)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("%w: write_timeout must not be negative", ErrInvalid)
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color %q", ErrInvalid, c.Color)
	}

	if _, ok := observability.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	if _, ok := observability.ParseFormat(c.Log.Format); !ok {
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}

	return nil
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", false
	}
	return v, true
}
