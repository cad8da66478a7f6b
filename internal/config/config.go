package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/matheus3301/wppmcp/internal/bridge"
	"github.com/matheus3301/wppmcp/internal/paths"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const DefaultListenAddr = "127.0.0.1:8090"

// Duration is a time.Duration written as "30s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents ~/.wppmcp/config.toml after environment overrides.
type Config struct {
	BridgeURL      string   `toml:"bridge_url"`
	APIKey         string   `toml:"api_key,omitempty"`
	MessagesDB     string   `toml:"messages_db"`
	WhatsAppDB     string   `toml:"whatsapp_db"`
	RequestTimeout Duration `toml:"request_timeout"`
	FileTimeout    Duration `toml:"file_timeout"`
	Transport      string   `toml:"transport"`
	ListenAddr     string   `toml:"listen_addr"`
	LogLevel       string   `toml:"log_level"`
	LogFile        string   `toml:"log_file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		BridgeURL:      bridge.BaseURL(bridge.DefaultHost),
		MessagesDB:     paths.MessagesDBPath(),
		WhatsAppDB:     paths.WhatsAppDBPath(),
		RequestTimeout: Duration{bridge.DefaultTimeout},
		FileTimeout:    Duration{bridge.DefaultFileTimeout},
		Transport:      TransportStdio,
		ListenAddr:     DefaultListenAddr,
		LogLevel:       "info",
		LogFile:        paths.LogPath(),
	}
}

// Load reads config from the given path over the defaults. Returns an error
// if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Resolve builds the effective configuration: defaults, then the file at
// path when it exists, then a .env file in the working directory, then the
// process environment.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	// A missing .env is the normal case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. BRIDGE_URL wins
// over BRIDGE_HOST.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("BRIDGE_HOST"); ok {
		c.BridgeURL = bridge.BaseURL(v)
	}
	if v, ok := get("BRIDGE_URL"); ok {
		c.BridgeURL = v
	}
	if v, ok := get("API_KEY"); ok {
		c.APIKey = v
	}
	if v, ok := get("MESSAGES_DB_PATH"); ok {
		c.MessagesDB = v
	}
	if v, ok := get("WHATSAPP_DB_PATH"); ok {
		c.WhatsAppDB = v
	}
	if v, ok := get("WPPMCP_TRANSPORT"); ok {
		c.Transport = strings.ToLower(v)
	}
	if v, ok := get("WPPMCP_LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := get("DEBUG"); ok && strings.EqualFold(v, "true") {
		c.LogLevel = "debug"
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("invalid transport %q: must be %s or %s", c.Transport, TransportStdio, TransportHTTP)
	}
	if c.Transport == TransportHTTP && c.ListenAddr == "" {
		return errors.New("listen_addr is required for the http transport")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.RequestTimeout.Duration <= 0 || c.FileTimeout.Duration <= 0 {
		return errors.New("request_timeout and file_timeout must be positive")
	}
	if c.MessagesDB == "" || c.WhatsAppDB == "" {
		return errors.New("messages_db and whatsapp_db must be set")
	}
	return nil
}

// BridgeOptions returns the bridge client settings.
func (c *Config) BridgeOptions() bridge.Options {
	return bridge.Options{
		BaseURL:     c.BridgeURL,
		APIKey:      c.APIKey,
		Timeout:     c.RequestTimeout.Duration,
		FileTimeout: c.FileTimeout.Duration,
	}
}
