package wapor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/araddon/dateparse"
)

// CoverageRequest identifies one raster to download, optionally clipped to a
// location.
type CoverageRequest struct {
	CubeCode     string
	RasterID     string
	LocationType string
	LocationCode string
}

// Coverage is a signed, short-lived download link.
type Coverage struct {
	DownloadURL string    `json:"downloadUrl"`
	Expires     time.Time `json:"expiryDatetime"`
}

type coverageReply struct {
	DownloadURL    string `json:"downloadUrl"`
	ExpiryDatetime string `json:"expiryDatetime"`
}

// CoverageURL requests a signed download link for one raster. It needs a
// session.
func (c *Client) CoverageURL(ctx context.Context, req CoverageRequest) (*Coverage, error) {
	q := url.Values{}
	q.Set("requestType", "mapset_raster")
	q.Set("cubeCode", req.CubeCode)
	q.Set("rasterId", req.RasterID)
	q.Set("language", "en")
	if req.LocationCode != "" {
		q.Set("locationType", req.LocationType)
		q.Set("locationCode", req.LocationCode)
	}
	u := fmt.Sprintf("%s/download/%s?%s", c.baseURL, url.PathEscape(c.workspace), q.Encode())

	var env envelope[coverageReply]
	if err := c.do(ctx, request{endpoint: "download", method: http.MethodGet, url: u, auth: true}, &env); err != nil {
		return nil, fmt.Errorf("failed to get coverage of %s: %w", req.RasterID, err)
	}
	if env.Response.DownloadURL == "" {
		return nil, fmt.Errorf("coverage of %s: reply has no download URL", req.RasterID)
	}

	cov := &Coverage{DownloadURL: env.Response.DownloadURL}
	if env.Response.ExpiryDatetime != "" {
		expires, err := dateparse.ParseIn(env.Response.ExpiryDatetime, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("coverage of %s: invalid expiry %q: %w", req.RasterID, env.Response.ExpiryDatetime, err)
		}
		cov.Expires = expires.UTC()
	}
	return cov, nil
}
