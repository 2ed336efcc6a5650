// Package coverage turns availability records into raster download links,
// either static mosaic paths or signed links from the download service.
package coverage

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMosaicBase is the root of the static mosaic archive.
const DefaultMosaicBase = "http://www.fao.org/wapor-download/WAPOR/coverages/mosaic"

var (
	// ErrUnsupportedLevel is returned for cubes that are neither L1 nor L2.
	ErrUnsupportedLevel = errors.New("no static mosaic for cube level")

	// ErrLocationRequired is returned for L2 cubes without a location code.
	ErrLocationRequired = errors.New("L2 mosaics are clipped per location, a location code is required")
)

// MosaicURL builds the static download path of one raster. L2 rasters are
// clipped per location and filed by year and raster suffix; L1 rasters are
// continental and filed by cube only.
func MosaicURL(base, cubeCode, year, rasterID, locationCode string) (string, error) {
	if base == "" {
		base = DefaultMosaicBase
	}
	base = strings.TrimSuffix(base, "/")

	if rasterID == "" {
		return "", fmt.Errorf("mosaic of %s: empty raster id", cubeCode)
	}

	switch level(cubeCode) {
	case "L2":
		if locationCode == "" {
			return "", fmt.Errorf("mosaic of %s: %w", rasterID, ErrLocationRequired)
		}
		if len(rasterID) < 4 {
			return "", fmt.Errorf("mosaic of %s: raster id too short", rasterID)
		}
		suffix := rasterID[len(rasterID)-4:]
		return fmt.Sprintf("%s/CLIPPED/%s/%s/%s/%s_%s.tif", base, cubeCode, year, suffix, rasterID, locationCode), nil
	case "L1":
		return fmt.Sprintf("%s/%s/%s.tif", base, cubeCode, rasterID), nil
	default:
		return "", fmt.Errorf("mosaic of %s: %w %q", cubeCode, ErrUnsupportedLevel, level(cubeCode))
	}
}

func level(cubeCode string) string {
	if len(cubeCode) < 2 {
		return cubeCode
	}
	return cubeCode[:2]
}
