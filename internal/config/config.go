package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/ladderpulse/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "ladderpulse.json"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultSettleTimeout bounds every wait for a view transition.
	DefaultSettleTimeout = "5s"

	// DefaultAPITimeout is the per-request timeout of data loads.
	DefaultAPITimeout = "30s"

	// DefaultLayout is the layout file name, relative to the config.
	DefaultLayout = "layout.yaml"

	// Section store backends.
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config represents the complete ladderpulse.json configuration.
type Config struct {
	// Server contains the HTTP/websocket listener settings.
	Server ServerConfig `json:"server,omitempty"`

	// API contains the data API settings.
	API APIConfig `json:"api,omitempty"`

	// Navigation contains engine settings.
	Navigation NavigationConfig `json:"navigation,omitempty"`

	// Sections selects the section parameter cache backend.
	Sections SectionsConfig `json:"sections,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// Layout is the path to the YAML page layout.
	Layout string `json:"layout,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// AllowedOrigins restricts websocket upgrades. Empty allows same-origin
	// requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// APIConfig contains data API settings.
type APIConfig struct {
	// BaseURL is the root of the ladder REST API. Empty disables data loads.
	BaseURL string `json:"baseURL,omitempty"`

	// Timeout is the per-request timeout (e.g., "30s").
	Timeout string `json:"timeout,omitempty"`
}

// NavigationConfig contains engine settings.
type NavigationConfig struct {
	// SettleTimeout bounds every wait for a transition (e.g., "5s").
	SettleTimeout string `json:"settleTimeout,omitempty"`

	// DefaultTitle is used when no title generator matches the anchor.
	DefaultTitle string `json:"defaultTitle,omitempty"`

	// DefaultDescription is used when no description generator matches.
	DefaultDescription string `json:"defaultDescription,omitempty"`
}

// SectionsConfig selects the section cache backend.
type SectionsConfig struct {
	// Store is "memory" or "redis".
	Store string `json:"store,omitempty"`

	Redis RedisConfig `json:"redis,omitempty"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty"`

	// TTL expires cached sections (e.g., "24h"). Empty keeps them.
	TTL string `json:"ttl,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		API: APIConfig{
			Timeout: DefaultAPITimeout,
		},
		Navigation: NavigationConfig{
			SettleTimeout: DefaultSettleTimeout,
		},
		Sections: SectionsConfig{
			Store: StoreMemory,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "ladderpulse",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Layout: DefaultLayout,
	}
}

// Load reads configuration from the specified directory.
// It looks for ladderpulse.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("N141").
				WithDetail("No ladderpulse.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'ladderpulse init' to write a default configuration")
		}
		return nil, errors.New("N120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("N120").
			WithDetail("Failed to parse ladderpulse.json: " + err.Error()).
			WithSuggestion("Check that ladderpulse.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("N120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("N120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.Navigation.SettleTimeout == "" {
		c.Navigation.SettleTimeout = DefaultSettleTimeout
	}
	if c.Sections.Store == "" {
		c.Sections.Store = StoreMemory
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "ladderpulse"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Layout == "" {
		c.Layout = DefaultLayout
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("N122").
			WithDetail("Port must be between 0 and 65535")
	}

	durations := []struct {
		name  string
		value string
	}{
		{"api.timeout", c.API.Timeout},
		{"navigation.settleTimeout", c.Navigation.SettleTimeout},
		{"sections.redis.ttl", c.Sections.Redis.TTL},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if v, err := time.ParseDuration(d.value); err != nil || v < 0 {
			return errors.New("N123").
				WithDetailf("%s: %q is not a valid duration", d.name, d.value)
		}
	}

	switch c.Sections.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Sections.Redis.Addr == "" {
			return errors.New("N121").
				WithDetail("sections.redis.addr is required when sections.store is \"redis\"")
		}
	default:
		return errors.New("N121").
			WithDetailf("sections.store must be %q or %q, got %q", StoreMemory, StoreRedis, c.Sections.Store)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return errors.New("N121").
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return errors.New("N121").
			WithDetailf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}

	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// SettleTimeout returns the parsed settle timeout, falling back to the
// default when unset or invalid.
func (c *Config) SettleTimeout() time.Duration {
	return duration(c.Navigation.SettleTimeout, DefaultSettleTimeout)
}

// APITimeout returns the parsed data load timeout.
func (c *Config) APITimeout() time.Duration {
	return duration(c.API.Timeout, DefaultAPITimeout)
}

// RedisTTL returns the parsed section TTL. Zero means no expiry.
func (c *Config) RedisTTL() time.Duration {
	return duration(c.Sections.Redis.TTL, "0s")
}

// LogLevel returns the configured slog level, info when invalid.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LayoutPath returns the absolute path to the layout file.
func (c *Config) LayoutPath() string {
	if filepath.IsAbs(c.Layout) {
		return c.Layout
	}
	return filepath.Join(c.Dir(), c.Layout)
}

func duration(value, fallback string) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the directory holding
// ladderpulse.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("N141").
				WithDetail("No ladderpulse.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'ladderpulse init' to write a default configuration")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
