package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CubeMetadata is STAC collection metadata the WaPOR catalog does not carry,
// such as license, providers and extent. It is loaded from JSON files, one
// per cube, keyed by cube code.
type CubeMetadata struct {
	Code       string         `json:"code"`
	Title      string         `json:"title,omitempty"`
	License    string         `json:"license,omitempty"`
	Keywords   []string       `json:"keywords,omitempty"`
	Providers  []Provider     `json:"providers,omitempty"`
	Extent     *Extent        `json:"extent,omitempty"`
	Summaries  map[string]any `json:"summaries,omitempty"`
	Extensions []string       `json:"stac_extensions,omitempty"`
}

// Provider represents a data provider in a STAC collection.
type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Extent defines the spatial and temporal extent of a collection.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// SpatialExtent defines the bounding boxes for a collection.
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent defines the time intervals for a collection.
type TemporalExtent struct {
	Interval [][]any `json:"interval"`
}

// MetadataRegistry holds cube metadata indexed by cube code.
type MetadataRegistry struct {
	cubes map[string]*CubeMetadata
}

// NewMetadataRegistry creates a new empty metadata registry.
func NewMetadataRegistry() *MetadataRegistry {
	return &MetadataRegistry{
		cubes: make(map[string]*CubeMetadata),
	}
}

// LoadMetadata loads cube metadata from JSON files in dir. An empty dir
// yields an empty registry. Only files with a .json extension are processed.
func LoadMetadata(dir string) (*MetadataRegistry, error) {
	registry := NewMetadataRegistry()
	if dir == "" {
		return registry, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access metadata directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("metadata path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		md, err := loadMetadataFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load metadata from %q: %w", path, err)
		}

		if err := registry.Add(md); err != nil {
			return nil, fmt.Errorf("failed to add metadata from %q: %w", path, err)
		}
	}

	return registry, nil
}

func loadMetadataFile(path string) (*CubeMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var md CubeMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := validateMetadata(&md); err != nil {
		return nil, fmt.Errorf("invalid cube metadata: %w", err)
	}

	return &md, nil
}

func validateMetadata(md *CubeMetadata) error {
	if md.Code == "" {
		return fmt.Errorf("cube code is required")
	}

	if md.Extent == nil {
		return nil
	}

	for i, bbox := range md.Extent.Spatial.BBox {
		if len(bbox) != 4 && len(bbox) != 6 {
			return fmt.Errorf("bbox[%d] must have 4 or 6 values, got %d", i, len(bbox))
		}
	}

	for i, interval := range md.Extent.Temporal.Interval {
		if len(interval) != 2 {
			return fmt.Errorf("temporal interval[%d] must have exactly 2 values, got %d", i, len(interval))
		}
	}

	return nil
}

// Add registers cube metadata.
// Returns an error if metadata for the same cube already exists.
func (r *MetadataRegistry) Add(md *CubeMetadata) error {
	if md == nil {
		return fmt.Errorf("cannot add nil metadata")
	}

	if _, exists := r.cubes[md.Code]; exists {
		return fmt.Errorf("metadata for cube %q already exists", md.Code)
	}

	r.cubes[md.Code] = md
	return nil
}

// Get retrieves metadata by cube code.
// Returns nil if there is none. A nil registry has no metadata.
func (r *MetadataRegistry) Get(code string) *CubeMetadata {
	if r == nil {
		return nil
	}
	return r.cubes[code]
}

// Count returns the number of cubes with metadata.
func (r *MetadataRegistry) Count() int {
	if r == nil {
		return 0
	}
	return len(r.cubes)
}
