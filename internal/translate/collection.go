package translate

import (
	"fmt"

	"github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/config"
	intstac "github.com/robert-malhotra/wapor-stac-proxy/internal/stac"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/wapor"
)

// continentalBBox covers the WaPOR L1 continental extent (Africa and the
// Near East).
var continentalBBox = []float64{-30, -40, 65, 40}

const defaultLicense = "proprietary"

// CubeToCollection converts a catalog cube to a STAC Collection. desc adds
// axis and measure summaries and may be nil.
func (t *Translator) CubeToCollection(cube *wapor.Cube, desc *availability.Descriptor) *stac.Collection {
	description := cube.Description
	if description == "" {
		description = cube.Caption
	}
	if description == "" {
		description = cube.Code
	}

	collection := intstac.NewCollection(cube.Code, cube.Caption, description, t.cfg.STAC.Version)
	collection.License = defaultLicense
	collection.Extent = &stac.Extent{
		Spatial: &stac.SpatialExtent{
			Bbox: [][]float64{continentalBBox},
		},
		Temporal: &stac.TemporalExtent{
			Interval: [][]any{{FormatSTACTime(t.earliest()), nil}},
		},
	}

	collection.Summaries["wapor:level"] = []string{cube.Level()}
	if cube.DataType != "" {
		collection.Summaries["wapor:data_type"] = []string{cube.DataType}
	}
	if desc != nil {
		collection.Summaries["wapor:dimensions"] = desc.DimensionCodes()
		if desc.Measure.Code != "" {
			collection.Summaries["wapor:measure"] = []string{desc.Measure.Code}
		}
		if desc.Measure.Unit != "" {
			collection.Summaries["wapor:unit"] = []string{desc.Measure.Unit}
		}
	}

	t.applyMetadata(collection, t.metadata.Get(cube.Code))
	t.addCollectionLinks(collection)

	return collection
}

// applyMetadata overrides catalog-derived fields with configured metadata.
func (t *Translator) applyMetadata(collection *stac.Collection, md *config.CubeMetadata) {
	if md == nil {
		return
	}

	if md.Title != "" {
		collection.Title = md.Title
	}
	if md.License != "" {
		collection.License = md.License
	}
	if len(md.Keywords) > 0 {
		collection.Keywords = md.Keywords
	}

	if len(md.Providers) > 0 {
		collection.Providers = make([]*stac.Provider, len(md.Providers))
		for i, p := range md.Providers {
			collection.Providers[i] = &stac.Provider{
				Name:        p.Name,
				Description: p.Description,
				Roles:       p.Roles,
				Url:         p.URL,
			}
		}
	}

	if md.Extent != nil {
		if len(md.Extent.Spatial.BBox) > 0 {
			collection.Extent.Spatial.Bbox = md.Extent.Spatial.BBox
		}
		if len(md.Extent.Temporal.Interval) > 0 {
			collection.Extent.Temporal.Interval = md.Extent.Temporal.Interval
		}
	}

	for k, v := range md.Summaries {
		collection.Summaries[k] = v
	}
}

func (t *Translator) addCollectionLinks(collection *stac.Collection) {
	baseURL := t.cfg.STAC.BaseURL
	if baseURL == "" {
		return
	}

	collectionURL := fmt.Sprintf("%s/collections/%s", baseURL, collection.Id)

	collection.Links = append(collection.Links,
		&stac.Link{
			Rel:  "self",
			Href: collectionURL,
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "root",
			Href: baseURL + "/",
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "parent",
			Href: baseURL + "/",
			Type: "application/json",
		},
		&stac.Link{
			Rel:   "items",
			Href:  collectionURL + "/items",
			Type:  "application/geo+json",
			Title: "Items",
		},
		&stac.Link{
			Rel:   "related",
			Href:  collectionURL + "/availability",
			Type:  "application/json",
			Title: "Availability",
		},
	)

	if t.cfg.DownloadsEnabled() {
		collection.Links = append(collection.Links, &stac.Link{
			Rel:   "related",
			Href:  collectionURL + "/downloads",
			Type:  "application/json",
			Title: "Signed downloads",
		})
	}
}
