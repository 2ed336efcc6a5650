// Package backend provides the data source behind the STAC API handlers.
package backend

import (
	"context"
	"errors"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/coverage"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/stac"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/wapor"
)

// ErrDownloadsDisabled is returned by Downloads when signed links are not
// configured.
var ErrDownloadsDisabled = errors.New("downloads are not enabled")

// Backend defines the operations the HTTP layer needs.
type Backend interface {
	// Collections lists every exposed cube as a STAC collection.
	Collections(ctx context.Context) ([]*stac.Collection, error)

	// Collection returns one cube as a STAC collection.
	Collection(ctx context.Context, cubeCode string) (*stac.Collection, error)

	// Items returns one page of a cube's available rasters as STAC items.
	Items(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*stac.ItemCollection, error)

	// Availability returns the normalized availability table of a cube.
	Availability(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*availability.Table, error)

	// Downloads returns signed download links for one page of a cube's rasters.
	Downloads(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*DownloadSet, error)

	// Locations lists the basins and countries with clipped rasters.
	Locations(ctx context.Context, locationType string) ([]wapor.Location, error)

	// Name returns the backend name.
	Name() string
}

// Catalog is the subset of the WaPOR client used by WaPORBackend.
type Catalog interface {
	availability.Executor
	coverage.Signer

	Cubes(ctx context.Context) ([]wapor.Cube, error)
	Cube(ctx context.Context, code string) (*wapor.Cube, error)
	Descriptor(ctx context.Context, code string) (*availability.Descriptor, error)
	Members(ctx context.Context, code, dimension string) ([]wapor.Member, error)
	Locations(ctx context.Context, locationType string) ([]wapor.Location, error)
}

// DownloadSet is one page of signed download links.
type DownloadSet struct {
	Cube    string          `json:"cube"`
	Matched int             `json:"numberMatched"`
	Links   []coverage.Link `json:"links"`
}
