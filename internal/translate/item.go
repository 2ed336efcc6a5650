package translate

import (
	"fmt"
	"strings"

	"github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/coverage"
	"github.com/robert-malhotra/wapor-stac-proxy/pkg/geojson"
)

// RecordToItem converts an availability record to a STAC Item. location is
// the location code used for clipped L2 mosaic assets and may be empty.
func (t *Translator) RecordToItem(desc *availability.Descriptor, rec availability.Record, location string) (*stac.Item, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: descriptor is nil", ErrInvalidRecord)
	}
	if rec.RasterID == "" {
		return nil, fmt.Errorf("%w: record has no raster id", ErrInvalidRecord)
	}

	item := &stac.Item{
		Version:    t.cfg.STAC.Version,
		Id:         rec.RasterID,
		Collection: desc.Code,
		Properties: make(map[string]any),
		Assets:     make(map[string]*stac.Asset),
		Links:      make([]*stac.Link, 0),
	}

	// Geometry from the EPSG:4326 extent, when the service returned one
	if extent, ok := recordExtent(rec); ok {
		geom, err := geojson.NewPolygonFromBBox(extent)
		if err != nil {
			return nil, fmt.Errorf("failed to build geometry: %w", err)
		}
		item.Geometry = geom
		item.Bbox = extent
	}

	addTemporalProperties(item, rec.Period)

	item.Properties["wapor:cube"] = desc.Code
	item.Properties["wapor:workspace"] = desc.WorkspaceCode
	item.Properties["wapor:year"] = rec.Year()
	item.Properties["wapor:granularity"] = rec.Period.Granularity.String()
	if rec.Season != "" {
		item.Properties["wapor:season"] = rec.Season
	}
	if rec.Stage != "" {
		item.Properties["wapor:stage"] = rec.Stage
	}
	if d := rec.Period.StartDekad(); d != "" {
		item.Properties["wapor:start_dekad"] = d
		item.Properties["wapor:end_dekad"] = rec.Period.EndDekad()
	}
	if m := desc.Measure; m.Code != "" {
		item.Properties["wapor:measure"] = m.Code
		if m.Unit != "" {
			item.Properties["wapor:unit"] = m.Unit
		}
		if m.Multiplier != 0 {
			item.Properties["wapor:multiplier"] = m.Multiplier
		}
	}

	t.addAssets(item, desc.Code, rec, location)
	addLinks(item, desc.Code, t.cfg.STAC.BaseURL)

	return item, nil
}

// addTemporalProperties sets datetime for daily records and a
// start_datetime/end_datetime range otherwise.
func addTemporalProperties(item *stac.Item, p availability.Period) {
	start, end := p.Interval()
	if p.Granularity == availability.Daily {
		item.Properties["datetime"] = FormatSTACTime(start)
		return
	}
	item.Properties["datetime"] = nil
	item.Properties["start_datetime"] = FormatSTACTime(start)
	item.Properties["end_datetime"] = FormatSTACTime(end)
}

// addAssets adds the static mosaic asset when the cube level has one.
func (t *Translator) addAssets(item *stac.Item, cubeCode string, rec availability.Record, location string) {
	href, err := coverage.MosaicURL(t.cfg.WaPOR.MosaicBaseURL, cubeCode, rec.Year(), rec.RasterID, location)
	if err != nil {
		t.logger.Debug("no mosaic asset for record",
			"raster_id", rec.RasterID,
			"error", err.Error(),
		)
		return
	}
	item.Assets["mosaic"] = &stac.Asset{
		Href:  href,
		Title: "Raster Mosaic",
		Type:  "image/tiff; application=geotiff",
		Roles: []string{"data"},
	}
}

// addLinks adds STAC links (self, parent, collection, root) to the item
func addLinks(item *stac.Item, collectionID, baseURL string) {
	if baseURL == "" {
		return
	}

	collectionURL := fmt.Sprintf("%s/collections/%s", baseURL, collectionID)

	item.Links = append(item.Links,
		&stac.Link{
			Rel:  "self",
			Href: fmt.Sprintf("%s/items/%s", collectionURL, item.Id),
			Type: "application/geo+json",
		},
		&stac.Link{
			Rel:  "parent",
			Href: collectionURL,
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "collection",
			Href: collectionURL,
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "root",
			Href: baseURL,
			Type: "application/json",
		},
	)
}

// recordExtent returns the record's extent when it is in geographic
// coordinates.
func recordExtent(rec availability.Record) ([]float64, bool) {
	if rec.BBox == nil || !isWGS84(rec.BBox.SRID) {
		return nil, false
	}
	extent, err := rec.BBox.Extent()
	if err != nil {
		return nil, false
	}
	return extent, true
}

func isWGS84(srid string) bool {
	switch strings.ToUpper(strings.TrimSpace(srid)) {
	case "EPSG:4326", "4326", "WGS84":
		return true
	}
	return false
}
