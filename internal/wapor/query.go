package wapor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/pkg/geojson"
)

// Location types known to the LOCATION table.
const (
	LocationBasin   = "BASIN"
	LocationCountry = "COUNTRY"
)

// Location is a named area for which clipped L2 rasters exist.
type Location struct {
	Name string    `json:"name"`
	Code string    `json:"code"`
	Type string    `json:"type"`
	BBox []float64 `json:"bbox"`
	L1   bool      `json:"l1"`
	L2   bool      `json:"l2"`
	L3   bool      `json:"l3"`
}

func (c *Client) queryURL() string {
	return c.baseURL + "/query/"
}

// Execute posts an availability query. A non-2xx reply carrying an error
// body is returned as a Response so callers see the service's error code and
// message; other failures are returned as errors.
func (c *Client) Execute(ctx context.Context, q *availability.Query) (*availability.Response, error) {
	var resp availability.Response
	err := c.do(ctx, request{endpoint: "query", method: http.MethodPost, url: c.queryURL(), body: q}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return &availability.Response{Error: apiErr.Code, Message: apiErr.Message}, nil
		}
		return nil, err
	}
	return &resp, nil
}

// tableQuery is the TableQuery_GetList_1 payload.
type tableQuery struct {
	Type   string           `json:"type"`
	Params tableQueryParams `json:"params"`
}

type tableQueryParams struct {
	Table      tableRef        `json:"table"`
	Properties tableProperties `json:"properties"`
	Filter     []columnFilter  `json:"filter"`
	Sort       []columnSort    `json:"sort"`
}

type tableRef struct {
	WorkspaceCode string `json:"workspaceCode"`
	Code          string `json:"code"`
}

type tableProperties struct {
	Paged bool `json:"paged"`
}

type columnFilter struct {
	ColumnName string `json:"columnName"`
	Values     []any  `json:"values"`
}

type columnSort struct {
	ColumnName string `json:"columnName"`
}

type locationRow struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type"`
	BBox string `json:"bbox"`
	L1   bool   `json:"l1"`
	L2   bool   `json:"l2"`
	L3   bool   `json:"l3"`
}

// Locations lists the basins and/or countries with L2 coverage. An empty
// locationType lists both.
func (c *Client) Locations(ctx context.Context, locationType string) ([]Location, error) {
	var types []string
	switch locationType {
	case "":
		types = []string{LocationBasin, LocationCountry}
	case LocationBasin, LocationCountry:
		types = []string{locationType}
	default:
		return nil, fmt.Errorf("%w: %q, must be %s or %s", ErrInvalidLocationType, locationType, LocationBasin, LocationCountry)
	}

	var out []Location
	for _, t := range types {
		locs, err := c.locations(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, locs...)
	}
	return out, nil
}

func (c *Client) locations(ctx context.Context, locationType string) ([]Location, error) {
	q := tableQuery{
		Type: "TableQuery_GetList_1",
		Params: tableQueryParams{
			Table:      tableRef{WorkspaceCode: c.workspace, Code: "LOCATION"},
			Properties: tableProperties{Paged: false},
			Filter: []columnFilter{
				{ColumnName: "type", Values: []any{locationType}},
				{ColumnName: "l2", Values: []any{true}},
			},
			Sort: []columnSort{{ColumnName: "name"}},
		},
	}

	var env envelope[[]locationRow]
	if err := c.do(ctx, request{endpoint: "locations", method: http.MethodPost, url: c.queryURL(), body: q}, &env); err != nil {
		return nil, fmt.Errorf("failed to list %s locations: %w", locationType, err)
	}

	locs := make([]Location, 0, len(env.Response))
	for _, row := range env.Response {
		bbox, err := geojson.ParseBBox(row.BBox)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping bbox of location",
				slog.String("code", row.Code),
				slog.String("error", err.Error()),
			)
		}
		locs = append(locs, Location{
			Name: row.Name,
			Code: row.Code,
			Type: row.Type,
			BBox: bbox,
			L1:   row.L1,
			L2:   row.L2,
			L3:   row.L3,
		})
	}
	return locs, nil
}
