package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/ladderpulse/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Sections.Store != StoreMemory {
		t.Errorf("Sections.Store = %q, want %q", cfg.Sections.Store, StoreMemory)
	}
	if cfg.SettleTimeout() != 5*time.Second {
		t.Errorf("SettleTimeout() = %v, want 5s", cfg.SettleTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if errors.CodeOf(err) != "N141" {
		t.Errorf("missing config: err = %v, want N141", err)
	}

	configJSON := `{
  "server": {"host": "0.0.0.0", "port": 9000},
  "api": {"baseURL": "https://ladder.example.com", "timeout": "10s"},
  "navigation": {"settleTimeout": "750ms", "defaultTitle": "Ladder"},
  "sections": {"store": "redis", "redis": {"addr": "localhost:6379", "ttl": "24h"}},
  "log": {"level": "debug"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Address() != "0.0.0.0:9000" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.API.BaseURL != "https://ladder.example.com" || cfg.APITimeout() != 10*time.Second {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.SettleTimeout() != 750*time.Millisecond {
		t.Errorf("SettleTimeout() = %v", cfg.SettleTimeout())
	}
	if cfg.Navigation.DefaultTitle != "Ladder" {
		t.Errorf("DefaultTitle = %q", cfg.Navigation.DefaultTitle)
	}
	if cfg.Sections.Store != StoreRedis || cfg.RedisTTL() != 24*time.Hour {
		t.Errorf("Sections = %+v", cfg.Sections)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}
	// Unset fields get defaults.
	if cfg.Metrics.Namespace != "ladderpulse" || cfg.Log.Format != "text" {
		t.Errorf("defaults not applied: %+v %+v", cfg.Metrics, cfg.Log)
	}
	if cfg.LayoutPath() != filepath.Join(tmpDir, DefaultLayout) {
		t.Errorf("LayoutPath() = %q", cfg.LayoutPath())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if errors.CodeOf(err) != "N120" {
		t.Errorf("err = %v, want N120", err)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	if err := cfg.Save(); err == nil {
		t.Error("Save without a path should fail")
	}

	cfg.API.BaseURL = "http://api"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q", cfg.Path())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("saved file should end with a newline")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.API.BaseURL != "http://api" {
		t.Errorf("BaseURL = %q", loaded.API.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "N122"},
		{"settle timeout", func(c *Config) { c.Navigation.SettleTimeout = "soon" }, "N123"},
		{"negative timeout", func(c *Config) { c.API.Timeout = "-1s" }, "N123"},
		{"redis without addr", func(c *Config) { c.Sections.Store = StoreRedis }, "N121"},
		{"unknown store", func(c *Config) { c.Sections.Store = "disk" }, "N121"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "N121"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "N121"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if got := errors.CodeOf(err); got != tt.code {
				t.Errorf("Validate() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := New()
	cfg.Navigation.SettleTimeout = "garbage"
	cfg.Sections.Redis.TTL = ""

	if cfg.SettleTimeout() != 5*time.Second {
		t.Errorf("SettleTimeout() = %v, want default", cfg.SettleTimeout())
	}
	if cfg.RedisTTL() != 0 {
		t.Errorf("RedisTTL() = %v, want 0", cfg.RedisTTL())
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()
	if Exists(tmpDir) {
		t.Error("Exists should be false for empty dir")
	}
	if err := New().SaveTo(filepath.Join(tmpDir, ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Error("Exists should be true after save")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := New().SaveTo(filepath.Join(root, ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	want, _ := filepath.Abs(root)
	if found != want {
		t.Errorf("FindProjectRoot = %q, want %q", found, want)
	}
}
