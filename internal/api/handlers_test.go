package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/backend"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/config"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/coverage"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/metrics"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/stac"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/translate"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/wapor"
)

// mockBackend is a test backend that returns configurable results
type mockBackend struct {
	table *availability.Table
	err   error

	lastCube    string
	lastRequest *stac.ItemsRequest
	lastType    string
}

func (m *mockBackend) Collections(ctx context.Context) ([]*stac.Collection, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*stac.Collection{
		stac.NewCollection("L1_AETI_A", "AETI", "Annual AETI", "1.0.0"),
		stac.NewCollection("L2_T_S", "T", "Seasonal transpiration", "1.0.0"),
	}, nil
}

func (m *mockBackend) Collection(ctx context.Context, cubeCode string) (*stac.Collection, error) {
	m.lastCube = cubeCode
	if m.err != nil {
		return nil, m.err
	}
	return stac.NewCollection(cubeCode, cubeCode, cubeCode, "1.0.0"), nil
}

func (m *mockBackend) Items(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*stac.ItemCollection, error) {
	m.lastCube, m.lastRequest = cubeCode, req
	if m.err != nil {
		return nil, m.err
	}
	items := []*stac.Item{stac.NewItem("L1_AETI_15", cubeCode, "1.0.0")}
	ic := stac.NewItemCollection(items)
	matched := 1
	ic.SetContext(1, 10, &matched)
	return ic, nil
}

func (m *mockBackend) Availability(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*availability.Table, error) {
	m.lastCube, m.lastRequest = cubeCode, req
	if m.err != nil {
		return nil, m.err
	}
	return m.table, nil
}

func (m *mockBackend) Downloads(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*backend.DownloadSet, error) {
	m.lastCube, m.lastRequest = cubeCode, req
	if m.err != nil {
		return nil, m.err
	}
	return &backend.DownloadSet{
		Cube:    cubeCode,
		Matched: 1,
		Links:   []coverage.Link{{RasterID: "L1_AETI_15", Year: "2015", URL: "https://storage.example.com/x.tif"}},
	}, nil
}

func (m *mockBackend) Locations(ctx context.Context, locationType string) ([]wapor.Location, error) {
	m.lastType = locationType
	if m.err != nil {
		return nil, m.err
	}
	return []wapor.Location{{Name: "Awash", Code: "ETB", Type: "BASIN"}}, nil
}

func (m *mockBackend) Name() string {
	return "mock"
}

// createTestConfig creates a config for testing
func createTestConfig() *config.Config {
	return &config.Config{
		STAC: config.STACConfig{
			Version: "1.0.0",
			BaseURL: "http://test.example.com",
			Title:   "WaPOR STAC API",
		},
		Features: config.FeatureConfig{
			DefaultLimit: 10,
			MaxLimit:     250,
		},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func testTable() *availability.Table {
	return availability.NewTable("L1_AETI_A", availability.ShapeTime, availability.Annual, []availability.Record{
		{
			RasterID: "L1_AETI_16",
			Period:   availability.Period{Granularity: availability.Annual, Date: time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)},
			BBox:     &availability.BBox{SRID: "EPSG:4326", Value: json.RawMessage(`[50,50,60,60]`)},
		},
		{
			RasterID: "L1_AETI_15",
			Period:   availability.Period{Granularity: availability.Annual, Date: time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC)},
			BBox:     &availability.BBox{SRID: "EPSG:4326", Value: json.RawMessage(`[0,0,10,10]`)},
		},
	})
}

func newTestRouter(mock *mockBackend) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlers(createTestConfig(), mock, logger)
	return NewRouter(h, logger, metrics.New())
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func getJSON(t *testing.T, router http.Handler, target string, v any) int {
	t.Helper()
	w := get(router, target)
	if v != nil {
		if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
			t.Fatalf("Failed to decode response of %s: %v", target, err)
		}
	}
	return w.Code
}

func TestHandlers_LandingPage(t *testing.T) {
	router := newTestRouter(&mockBackend{})

	var landing stac.LandingPage
	if status := getJSON(t, router, "/", &landing); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}

	if landing.Type != "Catalog" || landing.Title != "WaPOR STAC API" {
		t.Errorf("Unexpected landing page %+v", landing)
	}

	rels := map[string]bool{}
	for _, l := range landing.Links {
		rels[l.Rel] = true
	}
	for _, rel := range []string{"self", "root", "conformance", "data", "related"} {
		if !rels[rel] {
			t.Errorf("Missing %s link", rel)
		}
	}
	if rels["search"] {
		t.Error("Search is not offered and must not be linked")
	}
}

func TestHandlers_Collections(t *testing.T) {
	router := newTestRouter(&mockBackend{})

	var list stac.CollectionsList
	if status := getJSON(t, router, "/collections", &list); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if len(list.Collections) != 2 {
		t.Errorf("Expected 2 collections, got %d", len(list.Collections))
	}
	if len(list.Links) != 2 {
		t.Errorf("Expected self and root links, got %d", len(list.Links))
	}
}

func TestHandlers_Collection_NotFound(t *testing.T) {
	mock := &mockBackend{err: fmt.Errorf("%w: L9_NOPE", translate.ErrCollectionNotFound)}
	router := newTestRouter(mock)

	var errResp STACError
	if status := getJSON(t, router, "/collections/L9_NOPE", &errResp); status != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", status)
	}
	if errResp.Code != ErrCodeNotFound {
		t.Errorf("Expected NotFound code, got %s", errResp.Code)
	}
	if mock.lastCube != "L9_NOPE" {
		t.Errorf("Expected cube code from the path, got %q", mock.lastCube)
	}
}

func TestHandlers_Items(t *testing.T) {
	mock := &mockBackend{}
	router := newTestRouter(mock)

	w := get(router, "/collections/L2_T_S/items?start=2015-01-01&season=S1,S2&limit=5&offset=5")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Expected GeoJSON content type, got %s", ct)
	}

	if mock.lastCube != "L2_T_S" {
		t.Errorf("Expected cube L2_T_S, got %q", mock.lastCube)
	}
	req := mock.lastRequest
	if req.Start != "2015-01-01" || len(req.Seasons) != 2 || req.Limit != 5 || req.Offset != 5 {
		t.Errorf("Unexpected parsed request %+v", req)
	}
}

func TestHandlers_Items_InvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"limit above max", "limit=1000"},
		{"negative offset", "offset=-1"},
		{"datetime with start", "datetime=2015-01-01&start=2015-01-01"},
		{"bad bbox", "bbox=1,2,3"},
		{"location type without location", "location_type=BASIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockBackend{}
			router := newTestRouter(mock)

			var errResp STACError
			status := getJSON(t, router, "/collections/L1_AETI_A/items?"+tt.query, &errResp)
			if status != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", status)
			}
			if errResp.Code != ErrCodeInvalidParameter {
				t.Errorf("Expected InvalidParameterValue, got %s", errResp.Code)
			}
			if mock.lastRequest != nil {
				t.Error("Backend must not be called for invalid parameters")
			}
		})
	}
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("x: %w", translate.ErrCollectionNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"bad datetime", fmt.Errorf("x: %w", translate.ErrInvalidDateTime), http.StatusBadRequest, ErrCodeInvalidParameter},
		{"missing members", fmt.Errorf("x: %w", availability.ErrMissingMemberValues), http.StatusBadRequest, ErrCodeInvalidParameter},
		{"bad shape", fmt.Errorf("x: %w", availability.ErrInvalidDimensionCount), http.StatusUnprocessableEntity, ErrCodeUnprocessable},
		{"bad granularity", fmt.Errorf("x: %w", availability.ErrUnsupportedGranularity), http.StatusUnprocessableEntity, ErrCodeUnprocessable},
		{"upstream", &availability.UpstreamQueryError{Code: "Bad Request", Message: "secret detail"}, http.StatusBadGateway, ErrCodeUpstreamError},
		{"malformed", fmt.Errorf("x: %w", availability.ErrMalformedTimeValue), http.StatusBadGateway, ErrCodeUpstreamError},
		{"downloads disabled", backend.ErrDownloadsDisabled, http.StatusNotFound, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockBackend{err: tt.err})

			var errResp STACError
			status := getJSON(t, router, "/collections/L1_AETI_A/availability", &errResp)
			if status != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, status)
			}
			if errResp.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, errResp.Code)
			}
			if strings.Contains(errResp.Description, "secret detail") {
				t.Error("Upstream details must not leak to clients")
			}
		})
	}
}

func TestHandlers_Availability(t *testing.T) {
	router := newTestRouter(&mockBackend{table: testTable()})

	var resp availabilityResponse
	if status := getJSON(t, router, "/collections/L1_AETI_A/availability", &resp); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}

	if resp.Shape != "time" || resp.Granularity != "annual" {
		t.Errorf("Unexpected shape/granularity %s/%s", resp.Shape, resp.Granularity)
	}
	if resp.NumberMatched != 2 || len(resp.Years) != 2 || resp.Years[0] != "2015" {
		t.Errorf("Unexpected availability %+v", resp)
	}
	if resp.Records[0].RasterID != "L1_AETI_15" {
		t.Errorf("Expected records ordered by year, got %s first", resp.Records[0].RasterID)
	}
	if resp.Records[0].Period.Granularity != availability.Annual {
		t.Errorf("Expected annual records, got %v", resp.Records[0].Period.Granularity)
	}

	rr := get(router, "/collections/L1_AETI_A/availability")
	var raw struct {
		Records []map[string]any `json:"records"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if raw.Records[0]["year"] != "2015" || raw.Records[1]["year"] != "2016" {
		t.Errorf("Expected every record to carry its year, got %v", raw.Records)
	}
}

func TestHandlers_Availability_BBox(t *testing.T) {
	router := newTestRouter(&mockBackend{table: testTable()})

	var resp availabilityResponse
	if status := getJSON(t, router, "/collections/L1_AETI_A/availability?bbox=55,55,70,70", &resp); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if resp.NumberMatched != 1 || resp.Records[0].RasterID != "L1_AETI_16" {
		t.Errorf("Expected only the intersecting record, got %+v", resp.Records)
	}
	if len(resp.Years) != 1 || resp.Years[0] != "2016" {
		t.Errorf("Expected years of the filtered records, got %v", resp.Years)
	}
}

func TestHandlers_Downloads(t *testing.T) {
	mock := &mockBackend{}
	router := newTestRouter(mock)

	var set backend.DownloadSet
	if status := getJSON(t, router, "/collections/L2_AETI_D/downloads?location=ETB&location_type=basin", &set); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if len(set.Links) != 1 || set.Links[0].RasterID != "L1_AETI_15" {
		t.Errorf("Unexpected download set %+v", set)
	}
	if mock.lastRequest.Location != "ETB" || mock.lastRequest.LocationType != "BASIN" {
		t.Errorf("Expected location to be passed through, got %+v", mock.lastRequest)
	}
}

func TestHandlers_Locations(t *testing.T) {
	mock := &mockBackend{}
	router := newTestRouter(mock)

	var resp struct {
		Locations     []wapor.Location `json:"locations"`
		NumberMatched int              `json:"numberMatched"`
	}
	if status := getJSON(t, router, "/locations?type=basin", &resp); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if mock.lastType != "BASIN" {
		t.Errorf("Expected uppercased type, got %q", mock.lastType)
	}
	if resp.NumberMatched != 1 || resp.Locations[0].Code != "ETB" {
		t.Errorf("Unexpected locations %+v", resp)
	}
}

func TestHandlers_Locations_InvalidType(t *testing.T) {
	router := newTestRouter(&mockBackend{err: fmt.Errorf("%w: CITY", wapor.ErrInvalidLocationType)})

	if status := getJSON(t, router, "/locations?type=city", nil); status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", status)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(&mockBackend{})

	var health map[string]string
	if status := getJSON(t, router, "/health", &health); status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if health["status"] != "ok" || health["backend"] != "mock" {
		t.Errorf("Unexpected health %v", health)
	}

	body := get(router, "/metrics").Body.String()
	if !strings.Contains(body, "wapor_stac_http_requests_total") {
		t.Errorf("Expected HTTP metrics in exposition, got:\n%s", body)
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(&mockBackend{})

	var errResp STACError
	if status := getJSON(t, router, "/search", &errResp); status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", status)
	}
	if errResp.Code != ErrCodeNotFound {
		t.Errorf("Expected NotFound code, got %s", errResp.Code)
	}
}
