package availability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robert-malhotra/wapor-stac-proxy/pkg/geojson"
)

// Response is the query service reply. A rejected query carries Error and
// Message instead of a body.
type Response struct {
	Response *ResponseBody `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// ResponseBody holds the table rows.
type ResponseBody struct {
	Items []Item `json:"items"`
}

// Item is one table row: per-axis header cells followed by a data cell.
type Item []Cell

// Cell is one entry of an item.
type Cell struct {
	Type     string          `json:"type,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Metadata *CellMetadata   `json:"metadata,omitempty"`
}

// CellMetadata is the metadata blob attached to the data cell. Older service
// variants put rasterId at the top level; newer ones nest it under raster
// together with the bounding boxes.
type CellMetadata struct {
	RasterID string          `json:"rasterId,omitempty"`
	BBox     BBoxList        `json:"bbox,omitempty"`
	Raster   *RasterMetadata `json:"raster,omitempty"`
}

// RasterMetadata describes one raster tile.
type RasterMetadata struct {
	ID   string   `json:"id,omitempty"`
	BBox BBoxList `json:"bbox,omitempty"`
}

// BBoxList holds the bounding boxes of a raster. The service sends either a
// list or a single object; any other shape decodes to nil.
type BBoxList []BBox

// UnmarshalJSON never fails, so a malformed bbox drops only the extent.
func (l *BBoxList) UnmarshalJSON(data []byte) error {
	var list []BBox
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var one BBox
	if err := json.Unmarshal(data, &one); err == nil && len(one.Value) > 0 {
		*l = BBoxList{one}
		return nil
	}
	*l = nil
	return nil
}

// BBox is a bounding box in a named spatial reference system.
type BBox struct {
	SRID  string          `json:"srid"`
	Value json.RawMessage `json:"value"`
}

// Extent decodes the bbox value as [minx, miny, maxx, maxy]. The value is
// either a JSON array or a "minx,miny,maxx,maxy" string.
func (b *BBox) Extent() ([]float64, error) {
	var s string
	if json.Unmarshal(b.Value, &s) == nil {
		return geojson.ParseBBox(s)
	}
	var extent []float64
	if err := json.Unmarshal(b.Value, &extent); err != nil {
		return nil, fmt.Errorf("failed to decode bbox value: %w", err)
	}
	if err := geojson.ValidateBBox(extent); err != nil {
		return nil, err
	}
	return extent, nil
}

// Items returns the rows of the response, or nil when there are none.
func (r *Response) Items() []Item {
	if r == nil || r.Response == nil {
		return nil
	}
	return r.Response.Items
}

// Text returns the cell value as text. Strings are unquoted; numbers and
// other literals are returned as written.
func (c Cell) Text() string {
	raw := bytes.TrimSpace(c.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return string(raw)
}

func (m *CellMetadata) rasterID() string {
	if m == nil {
		return ""
	}
	if m.RasterID != "" {
		return m.RasterID
	}
	if m.Raster != nil {
		return m.Raster.ID
	}
	return ""
}

func (m *CellMetadata) bbox() *BBox {
	if m == nil {
		return nil
	}
	boxes := m.BBox
	if len(boxes) == 0 && m.Raster != nil {
		boxes = m.Raster.BBox
	}
	if len(boxes) == 0 {
		return nil
	}
	b := boxes[0]
	return &b
}
