// Package server provides a public API for embedding the WaPOR STAC proxy.
package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/api"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/backend"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/config"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/coverage"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/metrics"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/translate"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/wapor"
)

// Options configures the WaPOR STAC server.
type Options struct {
	// BaseURL is the public-facing URL for self-referential links (required).
	// Example: "https://api.example.com/wapor" or "http://localhost:8080"
	BaseURL string

	// WaPORBaseURL is the gismgr API base URL.
	// Default: "https://io.apps.fao.org/gismgr/api/v1"
	WaPORBaseURL string

	// Workspace is the WaPOR workspace code.
	// Default: "WAPOR_2"
	Workspace string

	// APIKey enables signed download links when set.
	APIKey string

	// MosaicBaseURL is the base of the static mosaic download links.
	// Default: the FAO mosaic coverage directory
	MosaicBaseURL string

	// Timeout is the upstream request timeout.
	// Default: 30s
	Timeout time.Duration

	// Title is the STAC API title.
	// Default: "WaPOR STAC API"
	Title string

	// Description is the STAC API description.
	// Default: "STAC API proxy for the FAO WaPOR data cubes"
	Description string

	// DefaultLimit is the default number of items per page.
	// Default: 10
	DefaultLimit int

	// MaxLimit is the maximum number of items per page.
	// Default: 250
	MaxLimit int

	// Cubes restricts the exposed collections.
	// Default: every cube of the workspace
	Cubes []string

	// MetadataDir is the path to per-cube metadata JSON files.
	// Default: "" (catalog metadata only)
	MetadataDir string

	// CacheSize and CacheTTL bound the cube descriptor cache.
	// Default: 256 descriptors for 1h
	CacheSize int
	CacheTTL  time.Duration

	// DownloadConcurrency bounds parallel signing requests.
	// Default: 4
	DownloadConcurrency int

	// EnableMetrics serves Prometheus metrics on /metrics.
	// Default: false
	EnableMetrics bool

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is a WaPOR STAC proxy server that can be embedded in another application.
type Server struct {
	router chi.Router
}

// New creates a new WaPOR STAC server with the given options.
func New(opts Options) (*Server, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("server: BaseURL is required")
	}

	// Apply defaults
	if opts.WaPORBaseURL == "" {
		opts.WaPORBaseURL = wapor.DefaultBaseURL
	}
	if opts.Workspace == "" {
		opts.Workspace = wapor.DefaultWorkspace
	}
	if opts.MosaicBaseURL == "" {
		opts.MosaicBaseURL = coverage.DefaultMosaicBase
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "WaPOR STAC API"
	}
	if opts.Description == "" {
		opts.Description = "STAC API proxy for the FAO WaPOR data cubes"
	}
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit == 0 {
		opts.MaxLimit = 250
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.DownloadConcurrency == 0 {
		opts.DownloadConcurrency = coverage.DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	// Build internal config
	cfg := &config.Config{
		WaPOR: config.WaPORConfig{
			BaseURL:             opts.WaPORBaseURL,
			Workspace:           opts.Workspace,
			Timeout:             opts.Timeout,
			APIKey:              opts.APIKey,
			MosaicBaseURL:       opts.MosaicBaseURL,
			DownloadConcurrency: opts.DownloadConcurrency,
		},
		Catalog: config.CatalogConfig{
			CacheSize:   opts.CacheSize,
			CacheTTL:    opts.CacheTTL,
			MetadataDir: opts.MetadataDir,
			Cubes:       opts.Cubes,
		},
		STAC: config.STACConfig{
			Version:     "1.0.0",
			BaseURL:     opts.BaseURL,
			Title:       opts.Title,
			Description: opts.Description,
		},
		Features: config.FeatureConfig{
			EnableDownloads: true,
			DefaultLimit:    opts.DefaultLimit,
			MaxLimit:        opts.MaxLimit,
			EarliestDate:    "2009-01-01",
		},
		Metrics: config.MetricsConfig{
			Enabled: opts.EnableMetrics,
			Path:    "/metrics",
		},
	}

	// Load cube metadata
	metadata, err := config.LoadMetadata(opts.MetadataDir)
	if err != nil {
		opts.Logger.Warn("failed to load cube metadata, using catalog metadata only",
			"dir", opts.MetadataDir,
			"error", err,
		)
		metadata = config.NewMetadataRegistry()
	}

	var provider *metrics.Provider
	if opts.EnableMetrics {
		provider = metrics.New()
	}

	client := wapor.NewClient(cfg.WaPOR.BaseURL, cfg.WaPOR.Workspace, cfg.WaPOR.Timeout).
		WithLogger(opts.Logger).
		WithDescriptorCache(cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	if provider != nil {
		client.WithMetrics(metrics.NewUpstream(provider.Registerer()))
	}
	if cfg.WaPOR.APIKey != "" {
		client.WithSession(wapor.NewSession(client, cfg.WaPOR.APIKey))
	}

	translator := translate.NewTranslator(cfg, metadata, opts.Logger)
	b := backend.NewWaPORBackend(client, translator, cfg, opts.Logger)
	opts.Logger.Info("using WaPOR backend",
		"base_url", cfg.WaPOR.BaseURL,
		"workspace", cfg.WaPOR.Workspace,
		"downloads", cfg.DownloadsEnabled(),
	)

	handlers := api.NewHandlers(cfg, b, opts.Logger)
	router := api.NewRouter(handlers, opts.Logger, provider)

	return &Server{router: router}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}
