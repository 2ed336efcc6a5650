package stac

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/robert-malhotra/wapor-stac-proxy/pkg/geojson"
)

// ItemsRequest holds the query parameters of /collections/{id}/items and
// the availability and download endpoints.
type ItemsRequest struct {
	// Temporal filter: either a STAC datetime interval or separate bounds.
	DateTime string
	Start    string
	End      string

	// Members of the SEASON and STAGE axes. Empty means all members.
	Seasons []string
	Stages  []string

	// Spatial filter applied to record extents.
	BBox []float64

	// Location code used to build clipped L2 asset links.
	Location     string
	LocationType string

	Limit  int
	Offset int
}

// ParseItemsRequest parses an items request from GET query parameters.
// List parameters accept comma-separated values and may be repeated.
func ParseItemsRequest(r *http.Request) (*ItemsRequest, error) {
	query := r.URL.Query()
	req := &ItemsRequest{
		DateTime:     strings.TrimSpace(query.Get("datetime")),
		Start:        strings.TrimSpace(query.Get("start")),
		End:          strings.TrimSpace(query.Get("end")),
		Seasons:      splitList(query["season"]),
		Stages:       splitList(query["stage"]),
		Location:     strings.TrimSpace(query.Get("location")),
		LocationType: strings.ToUpper(strings.TrimSpace(query.Get("location_type"))),
	}

	if bboxStr := query.Get("bbox"); bboxStr != "" {
		bbox, err := geojson.ParseBBox(bboxStr)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox parameter: %w", err)
		}
		req.BBox = bbox
	}

	var err error
	if req.Limit, err = parseNonNegative(query, "limit"); err != nil {
		return nil, err
	}
	if req.Offset, err = parseNonNegative(query, "offset"); err != nil {
		return nil, err
	}

	return req, nil
}

// ToQueryParams converts the request back to URL query parameters, for
// building pagination links. Limit and offset are left to the caller.
func (req *ItemsRequest) ToQueryParams() url.Values {
	params := url.Values{}

	if req.DateTime != "" {
		params.Set("datetime", req.DateTime)
	}
	if req.Start != "" {
		params.Set("start", req.Start)
	}
	if req.End != "" {
		params.Set("end", req.End)
	}
	if len(req.Seasons) > 0 {
		params.Set("season", strings.Join(req.Seasons, ","))
	}
	if len(req.Stages) > 0 {
		params.Set("stage", strings.Join(req.Stages, ","))
	}
	if len(req.BBox) == 4 {
		bboxStrs := make([]string, len(req.BBox))
		for i, v := range req.BBox {
			bboxStrs[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		params.Set("bbox", strings.Join(bboxStrs, ","))
	}
	if req.Location != "" {
		params.Set("location", req.Location)
	}
	if req.LocationType != "" {
		params.Set("location_type", req.LocationType)
	}

	return params
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseNonNegative(query url.Values, name string) (int, error) {
	s := query.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %w", name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must be non-negative, got %d", name, n)
	}
	return n, nil
}
