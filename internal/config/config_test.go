package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/wppmcp/internal/paths"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.BridgeURL = "http://bridge:9000/api"
	cfg.RequestTimeout = Duration{45 * time.Second}
	cfg.Transport = TransportHTTP
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.BridgeURL != "http://bridge:9000/api" {
		t.Errorf("BridgeURL = %q", loaded.BridgeURL)
	}
	if loaded.RequestTimeout.Duration != 45*time.Second {
		t.Errorf("RequestTimeout = %v, want 45s", loaded.RequestTimeout)
	}
	if loaded.Transport != TransportHTTP {
		t.Errorf("Transport = %q", loaded.Transport)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	t.Setenv(paths.HomeEnv, t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_key = \"k\"\nfile_timeout = \"2m\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "k" || cfg.FileTimeout.Duration != 2*time.Minute {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.BridgeURL != "http://localhost:8080/api" || cfg.RequestTimeout.Duration != 30*time.Second {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.MessagesDB != paths.MessagesDBPath() {
		t.Errorf("MessagesDB = %q", cfg.MessagesDB)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("request_timeout = \"soon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for bad duration")
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(*Config) bool
	}{
		{"bridge host", map[string]string{"BRIDGE_HOST": "bridge"},
			func(c *Config) bool { return c.BridgeURL == "http://bridge:8080/api" }},
		{"bridge url wins over host", map[string]string{"BRIDGE_HOST": "bridge", "BRIDGE_URL": "https://wa.example.com/api"},
			func(c *Config) bool { return c.BridgeURL == "https://wa.example.com/api" }},
		{"api key", map[string]string{"API_KEY": "secret"},
			func(c *Config) bool { return c.APIKey == "secret" }},
		{"db paths", map[string]string{"MESSAGES_DB_PATH": "/data/m.db", "WHATSAPP_DB_PATH": "/data/w.db"},
			func(c *Config) bool { return c.MessagesDB == "/data/m.db" && c.WhatsAppDB == "/data/w.db" }},
		{"transport", map[string]string{"WPPMCP_TRANSPORT": "HTTP", "WPPMCP_LISTEN_ADDR": ":9999"},
			func(c *Config) bool { return c.Transport == TransportHTTP && c.ListenAddr == ":9999" }},
		{"debug", map[string]string{"DEBUG": "True"},
			func(c *Config) bool { return c.LogLevel == "debug" }},
		{"debug false", map[string]string{"DEBUG": "false"},
			func(c *Config) bool { return c.LogLevel == "info" }},
		{"blank ignored", map[string]string{"API_KEY": "  "},
			func(c *Config) bool { return c.APIKey == "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ApplyEnv(func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			if !tt.check(cfg) {
				t.Errorf("config after env %v = %+v", tt.env, cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"http", func(c *Config) { c.Transport = TransportHTTP }, true},
		{"unknown transport", func(c *Config) { c.Transport = "grpc" }, false},
		{"http without addr", func(c *Config) { c.Transport = TransportHTTP; c.ListenAddr = "" }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"zero timeout", func(c *Config) { c.RequestTimeout = Duration{} }, false},
		{"no db", func(c *Config) { c.MessagesDB = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestResolveWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WPPMCP_TRANSPORT", "")
	t.Setenv("API_KEY", "from-env")

	cfg, err := Resolve(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "from-env" || cfg.Transport != TransportStdio {
		t.Errorf("config = %+v", cfg)
	}
}

func TestResolveReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MESSAGES_DB_PATH=/from/dotenv.db\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set.
	t.Setenv("MESSAGES_DB_PATH", "")
	_ = os.Unsetenv("MESSAGES_DB_PATH")

	cfg, err := Resolve(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MessagesDB != "/from/dotenv.db" {
		t.Errorf("MessagesDB = %q", cfg.MessagesDB)
	}
}
