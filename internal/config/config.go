// Package config provides configuration management for the WaPOR STAC proxy service.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig  `envPrefix:"SERVER_"`
	WaPOR    WaPORConfig   `envPrefix:"WAPOR_"`
	Catalog  CatalogConfig `envPrefix:"CATALOG_"`
	STAC     STACConfig    `envPrefix:"STAC_"`
	Features FeatureConfig `envPrefix:"FEATURE_"`
	Metrics  MetricsConfig `envPrefix:"METRICS_"`
	Logging  LoggingConfig `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// WaPORConfig contains WaPOR API client configuration.
type WaPORConfig struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"https://io.apps.fao.org/gismgr/api/v1"`
	Workspace string        `env:"WORKSPACE" envDefault:"WAPOR_2"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// APIKey enables signed download links. Optional.
	APIKey string `env:"API_KEY" envDefault:""`

	MosaicBaseURL       string `env:"MOSAIC_BASE_URL" envDefault:"http://www.fao.org/wapor-download/WAPOR/coverages/mosaic"`
	DownloadConcurrency int    `env:"DOWNLOAD_CONCURRENCY" envDefault:"4"`
}

// CatalogConfig controls how cubes are exposed as collections.
type CatalogConfig struct {
	CacheSize int           `env:"CACHE_SIZE" envDefault:"256"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	// MetadataDir holds optional per-cube JSON metadata files.
	MetadataDir string `env:"METADATA_DIR" envDefault:""`

	// Cubes restricts the exposed collections. Empty exposes every cube.
	Cubes []string `env:"CUBES" envDefault:"" envSeparator:","`
}

// STACConfig contains STAC API metadata configuration.
type STACConfig struct {
	Version     string `env:"VERSION" envDefault:"1.0.0"`
	BaseURL     string `env:"BASE_URL"` // Public-facing URL (required)
	Title       string `env:"TITLE" envDefault:"WaPOR STAC API"`
	Description string `env:"DESCRIPTION" envDefault:"STAC API proxy for the FAO WaPOR data cubes"`
}

// FeatureConfig contains feature flags and limits.
type FeatureConfig struct {
	EnableDownloads bool `env:"ENABLE_DOWNLOADS" envDefault:"true"`
	DefaultLimit    int  `env:"DEFAULT_LIMIT" envDefault:"10"`
	MaxLimit        int  `env:"MAX_LIMIT" envDefault:"250"`

	// EarliestDate bounds open-ended time ranges from below.
	EarliestDate string `env:"EARLIEST_DATE" envDefault:"2009-01-01"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	// Validate WaPOR config
	if c.WaPOR.BaseURL == "" {
		return fmt.Errorf("WaPOR base URL is required")
	}
	if _, err := url.ParseRequestURI(c.WaPOR.BaseURL); err != nil {
		return fmt.Errorf("WaPOR base URL is invalid: %w", err)
	}

	if c.WaPOR.Workspace == "" {
		return fmt.Errorf("WaPOR workspace is required")
	}

	if c.WaPOR.Timeout <= 0 {
		return fmt.Errorf("WaPOR timeout must be positive, got %s", c.WaPOR.Timeout)
	}

	if c.WaPOR.DownloadConcurrency < 1 {
		return fmt.Errorf("download concurrency must be at least 1, got %d", c.WaPOR.DownloadConcurrency)
	}

	// Validate catalog config
	if c.Catalog.CacheSize < 0 {
		return fmt.Errorf("catalog cache size must be non-negative, got %d", c.Catalog.CacheSize)
	}

	if c.Catalog.CacheSize > 0 && c.Catalog.CacheTTL <= 0 {
		return fmt.Errorf("catalog cache TTL must be positive, got %s", c.Catalog.CacheTTL)
	}

	// Validate STAC config
	if c.STAC.BaseURL == "" {
		return fmt.Errorf("STAC base URL is required")
	}

	if c.STAC.Version == "" {
		return fmt.Errorf("STAC version is required")
	}

	// Validate feature config
	if c.Features.DefaultLimit < 1 {
		return fmt.Errorf("default limit must be at least 1, got %d", c.Features.DefaultLimit)
	}

	if c.Features.MaxLimit < c.Features.DefaultLimit {
		return fmt.Errorf("max limit (%d) must be >= default limit (%d)", c.Features.MaxLimit, c.Features.DefaultLimit)
	}

	if _, err := time.Parse(time.DateOnly, c.Features.EarliestDate); err != nil {
		return fmt.Errorf("earliest date must be YYYY-MM-DD, got %q", c.Features.EarliestDate)
	}

	// Validate metrics config
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/', got %q", c.Metrics.Path)
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DownloadsEnabled reports whether signed download links can be served.
func (c *Config) DownloadsEnabled() bool {
	return c.Features.EnableDownloads && c.WaPOR.APIKey != ""
}

// Exposes reports whether a cube is exposed as a collection.
func (c *CatalogConfig) Exposes(cubeCode string) bool {
	if len(c.Cubes) == 0 {
		return true
	}
	for _, code := range c.Cubes {
		if strings.TrimSpace(code) == cubeCode {
			return true
		}
	}
	return false
}
