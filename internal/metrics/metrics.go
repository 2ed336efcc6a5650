// Package metrics exposes Prometheus metrics for the proxy.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider owns the metrics registry.
type Provider struct {
	reg *prometheus.Registry
}

// New creates a registry with the Go and process collectors registered.
func New() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Provider{reg: reg}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// Registerer returns the underlying registry for custom collectors.
func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Upstream records calls made to the catalog service.
type Upstream struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewUpstream creates the upstream metric set and registers it with r when r
// is not nil.
func NewUpstream(r prometheus.Registerer) *Upstream {
	u := &Upstream{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wapor_upstream_requests_total",
				Help: "Requests sent to the catalog service by endpoint and status.",
			},
			[]string{"endpoint", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wapor_upstream_latency_seconds",
				Help:    "Latency of catalog service requests in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
			},
			[]string{"endpoint"},
		),
	}
	if r != nil {
		r.MustRegister(u.requests, u.latency)
	}
	return u
}

// Observe records one request. A status of 0 means the request never got a
// response.
func (u *Upstream) Observe(endpoint string, status int, elapsed time.Duration) {
	if u == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	u.requests.WithLabelValues(endpoint, label).Inc()
	u.latency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// HTTP records requests served by the proxy.
type HTTP struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTP creates the HTTP metric set and registers it with r when r is not
// nil.
func NewHTTP(r prometheus.Registerer) *HTTP {
	h := &HTTP{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wapor_stac_http_requests_total",
				Help: "HTTP requests served by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wapor_stac_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
	if r != nil {
		r.MustRegister(h.requests, h.latency)
	}
	return h
}

// Observe records one served request. route is the matched route pattern.
func (h *HTTP) Observe(route, method string, status int, elapsed time.Duration) {
	if h == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	h.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	h.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
