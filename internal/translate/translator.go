// Package translate converts WaPOR cubes and availability records into STAC
// collections and items, and STAC request parameters into query selections.
package translate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/config"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/stac"
	"github.com/robert-malhotra/wapor-stac-proxy/pkg/geojson"
)

// Translator handles conversion between STAC and WaPOR representations.
type Translator struct {
	cfg      *config.Config
	metadata *config.MetadataRegistry
	logger   *slog.Logger
	now      func() time.Time
}

// NewTranslator creates a new translator instance. metadata may be nil.
func NewTranslator(cfg *config.Config, metadata *config.MetadataRegistry, logger *slog.Logger) *Translator {
	return &Translator{
		cfg:      cfg,
		metadata: metadata,
		logger:   logger,
		now:      time.Now,
	}
}

// TimeRange converts the temporal parameters of req into the query
// service's range literal. An open start falls back to the configured
// earliest date; an open end to the first day of next year.
func (t *Translator) TimeRange(req *stac.ItemsRequest) (string, error) {
	var start, end *time.Time
	var err error

	switch {
	case req.DateTime != "":
		start, end, err = ParseDateTimeInterval(req.DateTime)
		if err != nil {
			return "", err
		}
	default:
		if start, err = parseOpenBound(req.Start); err != nil {
			return "", fmt.Errorf("invalid start: %w", err)
		}
		if end, err = parseOpenBound(req.End); err != nil {
			return "", fmt.Errorf("invalid end: %w", err)
		}
	}

	from := t.earliest()
	if start != nil {
		from = *start
	}
	to := time.Date(t.now().Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	if end != nil {
		to = *end
	}

	if from.After(to) {
		return "", fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateTime, from.Format(rangeLayout), to.Format(rangeLayout))
	}

	return FormatRange(from, to), nil
}

// Selection builds the availability selection for req.
func (t *Translator) Selection(req *stac.ItemsRequest) (availability.Selection, error) {
	timeRange, err := t.TimeRange(req)
	if err != nil {
		return availability.Selection{}, err
	}
	return availability.Selection{
		TimeRange: timeRange,
		Seasons:   req.Seasons,
		Stages:    req.Stages,
	}, nil
}

func (t *Translator) earliest() time.Time {
	d, err := time.Parse(time.DateOnly, t.cfg.Features.EarliestDate)
	if err != nil {
		return time.Date(2009, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

// FilterRecords keeps the records whose extent intersects bbox. Records
// without a usable extent are kept. A nil bbox keeps everything.
func FilterRecords(records []availability.Record, bbox []float64) []availability.Record {
	if bbox == nil {
		return records
	}
	out := make([]availability.Record, 0, len(records))
	for _, rec := range records {
		extent, ok := recordExtent(rec)
		if !ok || geojson.Intersects(extent, bbox) {
			out = append(out, rec)
		}
	}
	return out
}

// TableToItemCollection converts one page of a resolved table to a STAC
// ItemCollection. Records that cannot be translated are skipped.
func (t *Translator) TableToItemCollection(
	desc *availability.Descriptor,
	table *availability.Table,
	req *stac.ItemsRequest,
) *stac.ItemCollection {
	limit := req.Limit
	if limit == 0 {
		limit = t.cfg.Features.DefaultLimit
	}

	records := FilterRecords(table.Records(), req.BBox)
	matched := len(records)
	start, end := stac.Page(matched, req.Offset, limit)

	items := make([]*stac.Item, 0, end-start)
	for _, rec := range records[start:end] {
		item, err := t.RecordToItem(desc, rec, req.Location)
		if err != nil {
			t.logger.Warn("failed to translate record",
				slog.String("raster_id", rec.RasterID),
				slog.String("error", err.Error()),
			)
			continue
		}
		items = append(items, item)
	}

	itemCollection := stac.NewItemCollection(items)
	itemCollection.SetContext(len(items), limit, &matched)

	baseURL := t.cfg.STAC.BaseURL
	if baseURL != "" {
		itemsURL := fmt.Sprintf("%s/collections/%s/items", baseURL, desc.Code)
		itemCollection.AddLink("self", itemsURL, "application/geo+json")
		itemCollection.AddLink("root", baseURL, "application/json")

		itemCollection.Links = append(itemCollection.Links, stac.BuildPaginationLinks(stac.PaginationInfo{
			BaseURL:     itemsURL,
			Offset:      req.Offset,
			Limit:       limit,
			Matched:     matched,
			QueryParams: req.ToQueryParams(),
		})...)
	}

	return itemCollection
}
