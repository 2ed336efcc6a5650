package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/config"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/coverage"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/stac"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/translate"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/wapor"
)

// WaPORBackend implements Backend over the WaPOR catalog and query services.
type WaPORBackend struct {
	catalog    Catalog
	resolver   *availability.Resolver
	translator *translate.Translator
	cfg        *config.Config
	logger     *slog.Logger
}

// NewWaPORBackend creates a new WaPOR backend. Availability queries are
// executed through catalog.
func NewWaPORBackend(
	catalog Catalog,
	translator *translate.Translator,
	cfg *config.Config,
	logger *slog.Logger,
) *WaPORBackend {
	return &WaPORBackend{
		catalog:    catalog,
		resolver:   availability.NewResolver(catalog).WithLogger(logger),
		translator: translator,
		cfg:        cfg,
		logger:     logger,
	}
}

// Name returns the backend name.
func (b *WaPORBackend) Name() string {
	return "wapor"
}

// Collections lists the exposed cubes. Listing does not fetch descriptors,
// so the collections carry no axis summaries.
func (b *WaPORBackend) Collections(ctx context.Context) ([]*stac.Collection, error) {
	cubes, err := b.catalog.Cubes(ctx)
	if err != nil {
		return nil, err
	}

	collections := make([]*stac.Collection, 0, len(cubes))
	for i := range cubes {
		if !b.cfg.Catalog.Exposes(cubes[i].Code) {
			continue
		}
		collections = append(collections, b.translator.CubeToCollection(&cubes[i], nil))
	}
	return collections, nil
}

// Collection returns one cube with its axis and measure summaries.
func (b *WaPORBackend) Collection(ctx context.Context, cubeCode string) (*stac.Collection, error) {
	if err := b.checkExposed(cubeCode); err != nil {
		return nil, err
	}

	cube, err := b.catalog.Cube(ctx, cubeCode)
	if err != nil {
		return nil, notFound(cubeCode, err)
	}

	desc, err := b.catalog.Descriptor(ctx, cubeCode)
	if err != nil {
		b.logger.WarnContext(ctx, "collection without descriptor",
			slog.String("cube", cubeCode),
			slog.String("error", err.Error()),
		)
		desc = nil
	}

	return b.translator.CubeToCollection(cube, desc), nil
}

// Items resolves the availability of a cube and returns one page of it as
// STAC items.
func (b *WaPORBackend) Items(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*stac.ItemCollection, error) {
	desc, table, err := b.resolve(ctx, cubeCode, req)
	if err != nil {
		return nil, err
	}
	return b.translator.TableToItemCollection(desc, table, req), nil
}

// Availability resolves the availability table of a cube.
func (b *WaPORBackend) Availability(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*availability.Table, error) {
	_, table, err := b.resolve(ctx, cubeCode, req)
	return table, err
}

// Downloads signs download links for one page of a cube's rasters.
func (b *WaPORBackend) Downloads(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*DownloadSet, error) {
	if !b.cfg.DownloadsEnabled() {
		return nil, ErrDownloadsDisabled
	}

	_, table, err := b.resolve(ctx, cubeCode, req)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit == 0 {
		limit = b.cfg.Features.DefaultLimit
	}
	records := translate.FilterRecords(table.Records(), req.BBox)
	start, end := stac.Page(len(records), req.Offset, limit)

	links, err := coverage.ResolveLinks(ctx, b.catalog, cubeCode, records[start:end], coverage.Options{
		Concurrency:  b.cfg.WaPOR.DownloadConcurrency,
		LocationType: req.LocationType,
		LocationCode: req.Location,
	})
	if err != nil {
		return nil, err
	}

	b.logger.DebugContext(ctx, "signed download links",
		slog.String("cube", cubeCode),
		slog.Int("links", len(links)),
	)

	return &DownloadSet{Cube: cubeCode, Matched: len(records), Links: links}, nil
}

// Locations lists the locations with clipped rasters.
func (b *WaPORBackend) Locations(ctx context.Context, locationType string) ([]wapor.Location, error) {
	return b.catalog.Locations(ctx, locationType)
}

// resolve fetches the descriptor, builds the selection and runs the
// availability query.
func (b *WaPORBackend) resolve(ctx context.Context, cubeCode string, req *stac.ItemsRequest) (*availability.Descriptor, *availability.Table, error) {
	if err := b.checkExposed(cubeCode); err != nil {
		return nil, nil, err
	}

	desc, err := b.catalog.Descriptor(ctx, cubeCode)
	if err != nil {
		return nil, nil, notFound(cubeCode, err)
	}

	sel, err := b.translator.Selection(req)
	if err != nil {
		return nil, nil, err
	}

	if sel.Seasons, err = b.members(ctx, desc, availability.DimensionSeason, sel.Seasons); err != nil {
		return nil, nil, err
	}
	if sel.Stages, err = b.members(ctx, desc, availability.DimensionStage, sel.Stages); err != nil {
		return nil, nil, err
	}

	table, err := b.resolver.Resolve(ctx, desc, sel)
	if err != nil {
		return nil, nil, err
	}
	return desc, table, nil
}

// members returns requested unchanged, or every member of dimension when
// the cube declares it and nothing was requested.
func (b *WaPORBackend) members(ctx context.Context, desc *availability.Descriptor, dimension string, requested []string) ([]string, error) {
	if len(requested) > 0 || !desc.HasDimension(dimension) {
		return requested, nil
	}

	members, err := b.catalog.Members(ctx, desc.Code, dimension)
	if err != nil {
		return nil, err
	}

	codes := make([]string, len(members))
	for i, m := range members {
		codes[i] = m.Code
	}

	b.logger.DebugContext(ctx, "selecting all members",
		slog.String("cube", desc.Code),
		slog.String("dimension", dimension),
		slog.Int("count", len(codes)),
	)

	return codes, nil
}

func (b *WaPORBackend) checkExposed(cubeCode string) error {
	if !b.cfg.Catalog.Exposes(cubeCode) {
		return fmt.Errorf("%w: %s", translate.ErrCollectionNotFound, cubeCode)
	}
	return nil
}

// notFound maps a catalog 404 to ErrCollectionNotFound and passes other
// errors through.
func notFound(cubeCode string, err error) error {
	if errors.Is(err, wapor.ErrNotFound) {
		return fmt.Errorf("%w: %s: %w", translate.ErrCollectionNotFound, cubeCode, err)
	}
	return err
}
