package wapor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
)

func TestClient_Execute_PostsQuery(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/query/" {
			t.Errorf("Expected path /query/, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":200,"response":{"items":[[{"value":"2015"},{"metadata":{"rasterId":"L1_AETI_15"}}]]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "WAPOR_2", 30*time.Second)

	q, err := availability.BuildQuery("L1_AETI_A", "WAPOR_2", []string{"YEAR"}, "AETI",
		availability.Selection{TimeRange: "[2015-01-01,2016-01-01]"})
	if err != nil {
		t.Fatalf("BuildQuery failed: %v", err)
	}

	resp, err := client.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if captured["type"] != "MDAQuery_Table" {
		t.Errorf("Expected MDAQuery_Table, got %v", captured["type"])
	}
	if n := len(resp.Items()); n != 1 {
		t.Fatalf("Expected 1 item, got %d", n)
	}
	if got := resp.Items()[0][0].Text(); got != "2015" {
		t.Errorf("Expected time value 2015, got %q", got)
	}
}

func TestClient_Execute_ErrorBodyBecomesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Bad Request","message":"x"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 30*time.Second)

	resp, err := client.Execute(context.Background(), &availability.Query{Type: availability.QueryTypeTable})
	if err != nil {
		t.Fatalf("Execute returned error instead of response: %v", err)
	}
	if resp.Error != "Bad Request" || resp.Message != "x" {
		t.Errorf("Expected error body to be copied, got %q / %q", resp.Error, resp.Message)
	}
}

func TestClient_Execute_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "", time.Second)

	_, err := client.Execute(context.Background(), &availability.Query{})
	if err == nil {
		t.Fatal("Expected error for closed server, got nil")
	}
	if !strings.Contains(err.Error(), "query request failed") {
		t.Errorf("Error should mention the failed request: %v", err)
	}
}

func TestClient_Execute_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not valid json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 30*time.Second)

	_, err := client.Execute(context.Background(), &availability.Query{})
	if err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("Error should mention decode failure: %v", err)
	}
}

// catalogServer serves a minimal catalog for one cube and counts requests.
func catalogServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/catalog/workspaces/WAPOR_2/cubes":
			if r.URL.Query().Get("paged") != "false" {
				t.Errorf("Expected paged=false, got %q", r.URL.RawQuery)
			}
			w.Write([]byte(`{"response":[{"code":"L2_T_S","workspaceCode":"WAPOR_2","caption":"Transpiration"},{"code":"L1_AETI_A","workspaceCode":"WAPOR_2","caption":"AETI"}]}`))
		case "/catalog/workspaces/WAPOR_2/cubes/L2_T_S":
			w.Write([]byte(`{"response":{"code":"L2_T_S","workspaceCode":"WAPOR_2","caption":"Transpiration","additionalInfo":{"format":"Raster Dataset"}}}`))
		case "/catalog/workspaces/WAPOR_2/cubes/L2_T_S/dimensions":
			w.Write([]byte(`{"response":[{"code":"SEASON","type":"WHAT"},{"code":"YEAR","type":"TIME"}]}`))
		case "/catalog/workspaces/WAPOR_2/cubes/L2_T_S/measures":
			w.Write([]byte(`{"response":[{"code":"T","caption":"Transpiration","unit":"mm","multiplier":0.1}]}`))
		case "/catalog/workspaces/WAPOR_2/cubes/L2_T_S/dimensions/SEASON/members":
			w.Write([]byte(`{"response":[{"code":"S1","caption":"Season 1"},{"code":"S2","caption":"Season 2"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Not Found","message":"no such resource"}`))
		}
	}))
}

func TestClient_Cubes(t *testing.T) {
	var hits atomic.Int32
	server := catalogServer(t, &hits)
	defer server.Close()

	cubes, err := NewClient(server.URL, "WAPOR_2", 30*time.Second).Cubes(context.Background())
	if err != nil {
		t.Fatalf("Cubes failed: %v", err)
	}
	if len(cubes) != 2 {
		t.Fatalf("Expected 2 cubes, got %d", len(cubes))
	}
	if cubes[0].Level() != "L2" {
		t.Errorf("Expected level L2, got %q", cubes[0].Level())
	}
}

func TestClient_Cube_NotFound(t *testing.T) {
	var hits atomic.Int32
	server := catalogServer(t, &hits)
	defer server.Close()

	_, err := NewClient(server.URL, "WAPOR_2", 30*time.Second).Cube(context.Background(), "L9_NOPE")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "no such resource" {
		t.Errorf("Expected APIError with message, got %v", err)
	}
}

func TestClient_Descriptor_AssemblesAndCaches(t *testing.T) {
	var hits atomic.Int32
	server := catalogServer(t, &hits)
	defer server.Close()

	client := NewClient(server.URL, "WAPOR_2", 30*time.Second).WithDescriptorCache(10, time.Minute)

	d, err := client.Descriptor(context.Background(), "L2_T_S")
	if err != nil {
		t.Fatalf("Descriptor failed: %v", err)
	}
	if got := d.DimensionCodes(); len(got) != 2 || got[0] != "SEASON" || got[1] != "YEAR" {
		t.Errorf("Unexpected dimensions %v", got)
	}
	if d.Measure.Code != "T" || d.WorkspaceCode != "WAPOR_2" {
		t.Errorf("Unexpected descriptor %+v", d)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 3 catalog requests, got %d", hits.Load())
	}

	d.Dimensions[0].Code = "MUTATED"

	again, err := client.Descriptor(context.Background(), "L2_T_S")
	if err != nil {
		t.Fatalf("Descriptor failed: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected cached descriptor, got %d requests", hits.Load())
	}
	if again.Dimensions[0].Code != "SEASON" {
		t.Errorf("Cached descriptor was mutated through a returned copy")
	}
}

func TestClient_Members(t *testing.T) {
	var hits atomic.Int32
	server := catalogServer(t, &hits)
	defer server.Close()

	members, err := NewClient(server.URL, "WAPOR_2", 30*time.Second).Members(context.Background(), "L2_T_S", "SEASON")
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 2 || members[0].Code != "S1" {
		t.Errorf("Unexpected members %+v", members)
	}
}

func TestClient_Locations(t *testing.T) {
	var types []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q tableQuery
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		if q.Type != "TableQuery_GetList_1" || q.Params.Table.Code != "LOCATION" {
			t.Errorf("Unexpected table query %+v", q)
		}
		locType := q.Params.Filter[0].Values[0].(string)
		types = append(types, locType)
		switch locType {
		case LocationBasin:
			w.Write([]byte(`{"response":[{"name":"Awash","code":"ETB","type":"BASIN","bbox":"37.95,7.89,43.32,12.26","l1":true,"l2":true}]}`))
		default:
			w.Write([]byte(`{"response":[{"name":"Benin","code":"BEN","type":"COUNTRY","bbox":"broken","l2":true}]}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "WAPOR_2", 30*time.Second)

	locs, err := client.Locations(context.Background(), "")
	if err != nil {
		t.Fatalf("Locations failed: %v", err)
	}
	if len(types) != 2 || types[0] != LocationBasin || types[1] != LocationCountry {
		t.Errorf("Expected BASIN then COUNTRY queries, got %v", types)
	}
	if len(locs) != 2 {
		t.Fatalf("Expected 2 locations, got %d", len(locs))
	}
	if want := []float64{37.95, 7.89, 43.32, 12.26}; len(locs[0].BBox) != 4 || locs[0].BBox[2] != want[2] {
		t.Errorf("Expected bbox %v, got %v", want, locs[0].BBox)
	}
	if locs[1].BBox != nil {
		t.Errorf("Expected unparsable bbox to be dropped, got %v", locs[1].BBox)
	}

	if _, err := client.Locations(context.Background(), "CITY"); !errors.Is(err, ErrInvalidLocationType) {
		t.Errorf("Expected ErrInvalidLocationType, got %v", err)
	}
}
