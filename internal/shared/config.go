package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Provider  ProviderConfig  `toml:"provider"`
	Lifecycle LifecycleConfig `toml:"lifecycle"`
	Cache     CacheConfig     `toml:"cache"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// ProviderConfig contains InnerTube endpoint and session settings.
type ProviderConfig struct {
	BaseURL           string  `toml:"base_url"`
	LandingURL        string  `toml:"landing_url"`
	APIKey            string  `toml:"api_key"`
	VisitorData       string  `toml:"visitor_data"`
	FetchKeys         bool    `toml:"fetch_keys"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	InlineThumbnails  bool    `toml:"inline_thumbnails"`
}

// Timeout returns the transport timeout, defaulting to 10 seconds.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// LifecycleConfig contains stream URL refresh settings.
type LifecycleConfig struct {
	MarginMs             int64 `toml:"margin_ms"`
	RefreshUnknownExpiry bool  `toml:"refresh_unknown_expiry"`
	Workers              int   `toml:"workers"`
}

// Margin returns the refresh window before expiry, defaulting to 10 seconds.
func (l LifecycleConfig) Margin() time.Duration {
	if l.MarginMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(l.MarginMs) * time.Millisecond
}

// CacheConfig selects the asset cache backend: sqlite, redis or none.
type CacheConfig struct {
	Backend string `toml:"backend"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RedisConfig contains connection settings for the redis asset cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	KeyPrefix  string `toml:"key_prefix"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// TTL is the key lifetime for cached assets. Zero keeps keys until evicted.
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// AllowedOrigins lists extra origins accepted on the websocket endpoint.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Addr joins host and port for [http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains the log level name.
type LogConfig struct {
	Level string `toml:"level"`
}

// Validate checks the fields that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("%w: provider.base_url is required", ErrInvalidConfig)
	}
	switch c.Cache.Backend {
	case "", "none", "sqlite", "redis":
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Lifecycle.Workers < 0 {
		return fmt.Errorf("%w: lifecycle.workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	buf.WriteString("# ytstream configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
