package coverage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/wapor"
)

// DefaultConcurrency bounds parallel signing requests when Options leaves it unset.
const DefaultConcurrency = 4

// Signer issues signed download links. *wapor.Client implements it.
type Signer interface {
	CoverageURL(ctx context.Context, req wapor.CoverageRequest) (*wapor.Coverage, error)
}

// Options controls ResolveLinks.
type Options struct {
	Concurrency  int
	LocationType string
	LocationCode string
}

// Link is a signed download link for one record.
type Link struct {
	RasterID string    `json:"rasterId"`
	Year     string    `json:"year"`
	URL      string    `json:"url"`
	Expires  time.Time `json:"expires,omitzero"`
}

// Expired reports whether the link is no longer usable at now. Links
// without an expiry never expire.
func (l Link) Expired(now time.Time) bool {
	return !l.Expires.IsZero() && !now.Before(l.Expires)
}

// ResolveLinks signs a download link for every record. Links are returned in
// record order. The first failure cancels the remaining requests.
func ResolveLinks(ctx context.Context, signer Signer, cubeCode string, records []availability.Record, opts Options) ([]Link, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	links := make([]Link, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rec := range records {
		g.Go(func() error {
			cov, err := signer.CoverageURL(ctx, wapor.CoverageRequest{
				CubeCode:     cubeCode,
				RasterID:     rec.RasterID,
				LocationType: opts.LocationType,
				LocationCode: opts.LocationCode,
			})
			if err != nil {
				return fmt.Errorf("signing %s: %w", rec.RasterID, err)
			}
			links[i] = Link{
				RasterID: rec.RasterID,
				Year:     rec.Year(),
				URL:      cov.DownloadURL,
				Expires:  cov.Expires,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return links, nil
}
