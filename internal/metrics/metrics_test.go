package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstream_Observe(t *testing.T) {
	p := New()
	u := NewUpstream(p.Registerer())

	u.Observe("query", 200, 10*time.Millisecond)
	u.Observe("query", 200, 20*time.Millisecond)
	u.Observe("query", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(u.requests.WithLabelValues("query", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(u.requests.WithLabelValues("query", "error")))
}

func TestUpstream_NilIsNoop(t *testing.T) {
	var u *Upstream
	assert.NotPanics(t, func() { u.Observe("query", 200, time.Second) })
}

func TestProvider_Handler(t *testing.T) {
	p := New()
	NewUpstream(p.Registerer()).Observe("cubes", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "wapor_upstream_requests_total"))
}

func TestHTTP_Observe(t *testing.T) {
	p := New()
	h := NewHTTP(p.Registerer())

	h.Observe("/collections/{cubeCode}", "GET", 200, time.Millisecond)
	h.Observe("", "GET", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("/collections/{cubeCode}", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("unmatched", "GET", "404")))

	var nilHTTP *HTTP
	assert.NotPanics(t, func() { nilHTTP.Observe("/", "GET", 200, time.Second) })
}
