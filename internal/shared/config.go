package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// A handful of deployment secrets (Redis credentials, S3 bucket, listen port)
// may be overridden through environment variables, see [LoadConfig].
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Redis   RedisConfig   `toml:"redis"`
	Tools   ToolsConfig   `toml:"tools"`
	Cache   CacheConfig   `toml:"cache"`
	Catalog CatalogConfig `toml:"catalog"`
	Ledger  LedgerConfig  `toml:"ledger"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	PublicBaseURL  string   `toml:"public_base_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`

	// ExposeErrorDetails includes raw tool diagnostics in failure responses.
	// Disable in hardened deployments.
	ExposeErrorDetails bool `toml:"expose_error_details"`
}

// Addr returns the host:port pair the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects and configures the artifact store backend.
type StorageConfig struct {
	Backend string   `toml:"backend"` // "local" or "s3"
	WorkDir string   `toml:"work_dir"`
	S3      S3Config `toml:"s3"`
}

// S3Config contains remote object storage settings.
// Credentials come from the standard AWS environment/credential chain.
type S3Config struct {
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Prefix        string `toml:"prefix"`
	PublicBaseURL string `toml:"public_base_url"`
}

// RedisConfig contains optional Redis settings.
// An empty Addr disables Redis and the service runs on in-memory fallbacks.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ToolsConfig locates the external extractor and transcoder binaries and
// bounds their run time.
type ToolsConfig struct {
	YtDlp                 string `toml:"ytdlp"`
	FFmpeg                string `toml:"ffmpeg"`
	ProbeTimeoutSeconds   int    `toml:"probe_timeout_seconds"`
	ConvertTimeoutSeconds int    `toml:"convert_timeout_seconds"`
}

// ProbeTimeout returns the time budget for metadata/search probes.
func (t ToolsConfig) ProbeTimeout() time.Duration {
	return time.Duration(t.ProbeTimeoutSeconds) * time.Second
}

// ConvertTimeout returns the time budget for a full fetch+transcode run.
func (t ToolsConfig) ConvertTimeout() time.Duration {
	return time.Duration(t.ConvertTimeoutSeconds) * time.Second
}

// CacheConfig tunes the search result cache.
type CacheConfig struct {
	SearchTTLMinutes int `toml:"search_ttl_minutes"`
	SearchLimit      int `toml:"search_limit"`
}

// SearchTTL returns the fixed TTL applied to cached search results.
func (c CacheConfig) SearchTTL() time.Duration {
	return time.Duration(c.SearchTTLMinutes) * time.Minute
}

// CatalogConfig contains artifact catalog database settings.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// LedgerConfig tunes the conversion job ledger.
type LedgerConfig struct {
	GraceSeconds int `toml:"grace_seconds"`
}

// Grace returns how long a succeeded job stays joinable after completion.
func (l LedgerConfig) Grace() time.Duration {
	return time.Duration(l.GraceSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment overrides (REDIS_ADDR, REDIS_PASSWORD, S3_BUCKET,
// S3_REGION, PORT).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&config)
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	applyEnv(&config)
	return &config
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

func applyEnv(config *Config) {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		config.Redis.Password = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		config.Storage.S3.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		config.Storage.S3.Region = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Server.Port = n
		}
	}
}
