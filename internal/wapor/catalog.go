package wapor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
)

// Cube is a data product listed in the catalog.
type Cube struct {
	Code           string         `json:"code"`
	WorkspaceCode  string         `json:"workspaceCode"`
	Caption        string         `json:"caption"`
	Description    string         `json:"description,omitempty"`
	DataType       string         `json:"dataType,omitempty"`
	AdditionalInfo map[string]any `json:"additionalInfo,omitempty"`
}

// Level returns the product level prefix of the cube code ("L1", "L2", ...).
func (c *Cube) Level() string {
	if len(c.Code) < 2 {
		return ""
	}
	return c.Code[:2]
}

// Info returns a string-valued additionalInfo entry.
func (c *Cube) Info(key string) string {
	if v, ok := c.AdditionalInfo[key].(string); ok {
		return v
	}
	return ""
}

// Member is one value of a categorical dimension.
type Member struct {
	Code    string `json:"code"`
	Caption string `json:"caption,omitempty"`
}

var unpaged = url.Values{"paged": []string{"false"}}

// Cubes lists every cube of the workspace.
func (c *Client) Cubes(ctx context.Context) ([]Cube, error) {
	q := url.Values{"overview": []string{"false"}, "paged": []string{"false"}}

	var env envelope[[]Cube]
	err := c.do(ctx, request{endpoint: "cubes", method: http.MethodGet, url: c.catalogURL(q, "cubes")}, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to list cubes: %w", err)
	}

	c.logger.DebugContext(ctx, "listed cubes", slog.Int("count", len(env.Response)))
	return env.Response, nil
}

// Cube fetches one cube including its additional info.
func (c *Client) Cube(ctx context.Context, code string) (*Cube, error) {
	var env envelope[*Cube]
	err := c.do(ctx, request{endpoint: "cube", method: http.MethodGet, url: c.catalogURL(nil, "cubes", code)}, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to get cube %s: %w", code, err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("cube %s: %w", code, ErrNotFound)
	}
	return env.Response, nil
}

// Dimensions lists the declared axes of a cube in declared order.
func (c *Client) Dimensions(ctx context.Context, code string) ([]availability.Dimension, error) {
	var env envelope[[]availability.Dimension]
	err := c.do(ctx, request{endpoint: "dimensions", method: http.MethodGet, url: c.catalogURL(unpaged, "cubes", code, "dimensions")}, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to list dimensions of %s: %w", code, err)
	}
	return env.Response, nil
}

// Measures lists the measures of a cube.
func (c *Client) Measures(ctx context.Context, code string) ([]availability.Measure, error) {
	var env envelope[[]availability.Measure]
	err := c.do(ctx, request{endpoint: "measures", method: http.MethodGet, url: c.catalogURL(unpaged, "cubes", code, "measures")}, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to list measures of %s: %w", code, err)
	}
	return env.Response, nil
}

// Members lists the member codes of a categorical dimension.
func (c *Client) Members(ctx context.Context, code, dimension string) ([]Member, error) {
	var env envelope[[]Member]
	err := c.do(ctx, request{endpoint: "members", method: http.MethodGet, url: c.catalogURL(unpaged, "cubes", code, "dimensions", dimension, "members")}, &env)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s/%s: %w", code, dimension, err)
	}
	return env.Response, nil
}

// Descriptor assembles the dimensions and measure of a cube. Results are
// served from the descriptor cache when one is configured.
func (c *Client) Descriptor(ctx context.Context, code string) (*availability.Descriptor, error) {
	if c.descriptors != nil {
		if d, ok := c.descriptors.Get(code); ok {
			return cloneDescriptor(d), nil
		}
	}

	cube, err := c.Cube(ctx, code)
	if err != nil {
		return nil, err
	}
	dims, err := c.Dimensions(ctx, code)
	if err != nil {
		return nil, err
	}
	measures, err := c.Measures(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(measures) == 0 {
		return nil, fmt.Errorf("cube %s: %w", code, ErrNoMeasure)
	}

	workspace := cube.WorkspaceCode
	if workspace == "" {
		workspace = c.workspace
	}
	d := &availability.Descriptor{
		Code:          code,
		WorkspaceCode: workspace,
		Dimensions:    dims,
		Measure:       measures[0],
	}

	if c.descriptors != nil {
		c.descriptors.Add(code, d)
	}

	c.logger.DebugContext(ctx, "assembled cube descriptor",
		slog.String("cube", code),
		slog.Int("dimensions", len(dims)),
		slog.String("measure", d.Measure.Code),
	)

	return cloneDescriptor(d), nil
}

func cloneDescriptor(d *availability.Descriptor) *availability.Descriptor {
	out := *d
	out.Dimensions = slices.Clone(d.Dimensions)
	return &out
}
