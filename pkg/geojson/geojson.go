// Package geojson provides GeoJSON geometry types and bounding box utilities.
package geojson

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Polygon returns the coordinates as a Polygon [][][lon, lat].
// Returns error if geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// BBox computes the bounding box of a Polygon geometry.
// Returns [west, south, east, north].
func (g *Geometry) BBox() ([]float64, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}
	coords, err := g.Polygon()
	if err != nil {
		return nil, err
	}

	var bbox []float64
	for _, ring := range coords {
		for _, point := range ring {
			if len(point) < 2 {
				continue
			}
			if bbox == nil {
				bbox = []float64{point[0], point[1], point[0], point[1]}
				continue
			}
			bbox[0] = min(bbox[0], point[0])
			bbox[1] = min(bbox[1], point[1])
			bbox[2] = max(bbox[2], point[0])
			bbox[3] = max(bbox[3], point[1])
		}
	}
	if bbox == nil {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}
	return bbox, nil
}

// NewPolygonFromBBox creates a polygon geometry from a bounding box.
// bbox should be [west, south, east, north].
func NewPolygonFromBBox(bbox []float64) (*Geometry, error) {
	if err := ValidateBBox(bbox); err != nil {
		return nil, err
	}

	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]

	coords := [][][]float64{
		{
			{west, south},
			{east, south},
			{east, north},
			{west, north},
			{west, south},
		},
	}

	coordsJSON, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon coordinates: %w", err)
	}

	return &Geometry{
		Type:        "Polygon",
		Coordinates: coordsJSON,
	}, nil
}

// ParseBBox parses a "west,south,east,north" string.
func ParseBBox(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty bbox")
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values [west, south, east, north], got %d", len(parts))
	}

	bbox := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox value %q: %w", p, err)
		}
		bbox[i] = v
	}

	if err := ValidateBBox(bbox); err != nil {
		return nil, err
	}
	return bbox, nil
}

// ValidateBBox checks that bbox has four values with west <= east and
// south <= north.
func ValidateBBox(bbox []float64) error {
	if len(bbox) != 4 {
		return fmt.Errorf("bbox must have 4 values [west, south, east, north], got %d", len(bbox))
	}
	if bbox[0] > bbox[2] {
		return fmt.Errorf("bbox west %v is greater than east %v", bbox[0], bbox[2])
	}
	if bbox[1] > bbox[3] {
		return fmt.Errorf("bbox south %v is greater than north %v", bbox[1], bbox[3])
	}
	return nil
}

// Intersects reports whether two bounding boxes overlap. Touching edges count
// as overlapping.
func Intersects(a, b []float64) bool {
	if len(a) != 4 || len(b) != 4 {
		return false
	}
	return a[0] <= b[2] && b[0] <= a[2] && a[1] <= b[3] && b[1] <= a[3]
}
