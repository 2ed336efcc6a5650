// Package wapor provides a client for the FAO WaPOR catalog, query and
// download services.
package wapor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/oauth2"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/metrics"
)

const (
	// DefaultBaseURL is the default gismgr API base URL.
	DefaultBaseURL = "https://io.apps.fao.org/gismgr/api/v1"

	// DefaultWorkspace is the default WaPOR workspace code.
	DefaultWorkspace = "WAPOR_2"

	userAgent = "wapor-stac-proxy/1.0"
)

// Client handles communication with the WaPOR API.
type Client struct {
	baseURL     string
	workspace   string
	httpClient  *http.Client
	authClient  *http.Client
	logger      *slog.Logger
	metrics     *metrics.Upstream
	descriptors *expirable.LRU[string, *availability.Descriptor]
}

// NewClient creates a new WaPOR API client.
func NewClient(baseURL, workspace string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if workspace == "" {
		workspace = DefaultWorkspace
	}

	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		workspace: workspace,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// WithMetrics records every upstream request in m.
func (c *Client) WithMetrics(m *metrics.Upstream) *Client {
	c.metrics = m
	return c
}

// WithDescriptorCache keeps up to size cube descriptors for ttl. Descriptors
// change only when the catalog is republished.
func (c *Client) WithDescriptorCache(size int, ttl time.Duration) *Client {
	if size > 0 {
		c.descriptors = expirable.NewLRU[string, *availability.Descriptor](size, nil, ttl)
	}
	return c
}

// WithSession authenticates download requests with tokens from s.
func (c *Client) WithSession(s *Session) *Client {
	c.authClient = &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: s,
			Base:   c.httpClient.Transport,
		},
	}
	return c
}

// Workspace returns the workspace code the client queries.
func (c *Client) Workspace() string {
	return c.workspace
}

// envelope is the common wrapper around every gismgr response.
type envelope[T any] struct {
	Status   int    `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
	Response T      `json:"response"`
}

// request describes one call to the API.
type request struct {
	endpoint string // metrics and log label
	method   string
	url      string
	body     any
	header   http.Header
	auth     bool
}

// do executes req and decodes the JSON reply into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var reader io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", req.endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	httpClient := c.httpClient
	if req.auth {
		if c.authClient == nil {
			return ErrNoSession
		}
		httpClient = c.authClient
	}

	c.logger.DebugContext(ctx, "executing WaPOR request",
		slog.String("endpoint", req.endpoint),
		slog.String("method", req.method),
		slog.String("url", req.url),
	)

	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		c.metrics.Observe(req.endpoint, 0, time.Since(start))
		c.logger.ErrorContext(ctx, "WaPOR API request failed",
			slog.String("endpoint", req.endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("WaPOR %s request failed: %w", req.endpoint, err)
	}
	defer resp.Body.Close()
	c.metrics.Observe(req.endpoint, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", req.endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, body)
		c.logger.ErrorContext(ctx, "WaPOR API returned non-2xx status",
			slog.String("endpoint", req.endpoint),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)),
		)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode WaPOR response",
			slog.String("endpoint", req.endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to decode %s response: %w", req.endpoint, err)
	}

	return nil
}

// catalogURL builds a catalog URL below the client's workspace.
func (c *Client) catalogURL(query url.Values, segments ...string) string {
	parts := []string{c.baseURL, "catalog", "workspaces", url.PathEscape(c.workspace)}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	u := strings.Join(parts, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
