package availability

import (
	"cmp"
	"encoding/json"
	"slices"
)

// Record is one available raster.
type Record struct {
	RasterID string `json:"rasterId"`
	Period   Period `json:"period"`
	Season   string `json:"season,omitempty"`
	Stage    string `json:"stage,omitempty"`
	BBox     *BBox  `json:"bbox,omitempty"`
}

// Year returns the record's year index.
func (r Record) Year() string {
	return r.Period.Year()
}

// MarshalJSON adds the year index to the encoded record.
func (r Record) MarshalJSON() ([]byte, error) {
	type record Record
	return json.Marshal(struct {
		Year string `json:"year"`
		record
	}{Year: r.Year(), record: record(r)})
}

// clone copies r including its bbox.
func (r Record) clone() Record {
	if r.BBox != nil {
		b := *r.BBox
		b.Value = slices.Clone(b.Value)
		r.BBox = &b
	}
	return r
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}

// Table is the normalized availability of one cube for one selection,
// ordered by year. It is not modified after construction.
type Table struct {
	cube        string
	shape       Shape
	granularity Granularity
	records     []Record
}

// NewTable sorts records by year index and wraps them in a Table. Records of
// the same year keep chronological order.
func NewTable(cube string, shape Shape, granularity Granularity, records []Record) *Table {
	sorted := cloneRecords(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		if c := cmp.Compare(a.Year(), b.Year()); c != 0 {
			return c
		}
		as, _ := a.Period.Interval()
		bs, _ := b.Period.Interval()
		return as.Compare(bs)
	})
	return &Table{cube: cube, shape: shape, granularity: granularity, records: sorted}
}

// Cube returns the code of the cube the table was resolved for.
func (t *Table) Cube() string { return t.cube }

// Shape returns the axis combination of the cube.
func (t *Table) Shape() Shape { return t.shape }

// Granularity returns the temporal granularity shared by every record.
func (t *Table) Granularity() Granularity { return t.granularity }

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Records returns a copy of the records in year order.
func (t *Table) Records() []Record {
	return cloneRecords(t.records)
}

// Years returns the distinct year indices in ascending order.
func (t *Table) Years() []string {
	years := make([]string, 0, len(t.records))
	for _, r := range t.records {
		if n := len(years); n == 0 || years[n-1] != r.Year() {
			years = append(years, r.Year())
		}
	}
	return years
}

// Between returns the records whose year index lies in [from, to]. An empty
// bound is open.
func (t *Table) Between(from, to string) []Record {
	var out []Record
	for _, r := range t.records {
		y := r.Year()
		if from != "" && y < from {
			continue
		}
		if to != "" && y > to {
			continue
		}
		out = append(out, r.clone())
	}
	return out
}

// Lookup finds a record by raster identifier.
func (t *Table) Lookup(rasterID string) (Record, bool) {
	for _, r := range t.records {
		if r.RasterID == rasterID {
			return r.clone(), true
		}
	}
	return Record{}, false
}
