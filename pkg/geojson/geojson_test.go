package geojson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []float64
		wantErr bool
	}{
		{name: "plain", input: "37.95,7.89,43.32,12.26", want: []float64{37.95, 7.89, 43.32, 12.26}},
		{name: "spaces", input: " -10 , -5 , 10 , 5 ", want: []float64{-10, -5, 10, 5}},
		{name: "degenerate point", input: "1,2,1,2", want: []float64{1, 2, 1, 2}},
		{name: "empty", input: "", wantErr: true},
		{name: "three values", input: "1,2,3", wantErr: true},
		{name: "five values", input: "1,2,3,4,5", wantErr: true},
		{name: "not a number", input: "a,2,3,4", wantErr: true},
		{name: "west greater than east", input: "10,0,5,1", wantErr: true},
		{name: "south greater than north", input: "0,10,1,5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBBox(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPolygonFromBBox(t *testing.T) {
	g, err := NewPolygonFromBBox([]float64{-122.5, 37.8, -122.4, 37.9})
	require.NoError(t, err)
	assert.Equal(t, "Polygon", g.Type)

	coords, err := g.Polygon()
	require.NoError(t, err)
	require.Len(t, coords, 1)
	require.Len(t, coords[0], 5)
	assert.Equal(t, coords[0][0], coords[0][4], "ring must be closed")

	bbox, err := g.BBox()
	require.NoError(t, err)
	assert.Equal(t, []float64{-122.5, 37.8, -122.4, 37.9}, bbox)
}

func TestNewPolygonFromBBox_InvalidInput(t *testing.T) {
	_, err := NewPolygonFromBBox([]float64{1, 2, 3})
	assert.Error(t, err)

	_, err = NewPolygonFromBBox([]float64{5, 0, 1, 1})
	assert.Error(t, err)
}

func TestPolygon_WrongType(t *testing.T) {
	g := &Geometry{Type: "Point", Coordinates: json.RawMessage(`[1,2]`)}

	_, err := g.Polygon()
	assert.Error(t, err)

	_, err = g.BBox()
	assert.Error(t, err)
}

func TestBBox_PolygonWithHole(t *testing.T) {
	g := &Geometry{
		Type:        "Polygon",
		Coordinates: json.RawMessage(`[[[0,0],[10,0],[10,10],[0,10],[0,0]],[[2,2],[8,2],[8,8],[2,8],[2,2]]]`),
	}

	bbox, err := g.BBox()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 10, 10}, bbox)
}

func TestBBox_Empty(t *testing.T) {
	g := &Geometry{Type: "Polygon", Coordinates: json.RawMessage(`[[]]`)}

	_, err := g.BBox()
	assert.Error(t, err)

	var nilGeom *Geometry
	_, err = nilGeom.BBox()
	assert.Error(t, err)
}

func TestIntersects(t *testing.T) {
	base := []float64{0, 0, 10, 10}

	assert.True(t, Intersects(base, []float64{5, 5, 15, 15}))
	assert.True(t, Intersects(base, []float64{2, 2, 3, 3}), "contained")
	assert.True(t, Intersects(base, []float64{10, 10, 20, 20}), "touching corner")
	assert.False(t, Intersects(base, []float64{11, 0, 20, 10}))
	assert.False(t, Intersects(base, []float64{0, -5, 10, -1}))
	assert.False(t, Intersects(base, []float64{1, 2, 3}))
}

func TestGeometryJSON(t *testing.T) {
	g, err := NewPolygonFromBBox([]float64{0, 0, 1, 1})
	require.NoError(t, err)

	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`, string(data))
}
