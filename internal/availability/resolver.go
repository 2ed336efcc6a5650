// Package availability resolves which rasters a cube holds for a
// spatiotemporal selection. It builds the dimension-shaped table query,
// runs it through an Executor and normalizes the reply into a Table.
package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Executor runs a query against the query service. Retry and timeout policy
// belong to the implementation.
type Executor interface {
	Execute(ctx context.Context, q *Query) (*Response, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, q *Query) (*Response, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, q *Query) (*Response, error) {
	return f(ctx, q)
}

// Resolver turns a cube descriptor and a selection into an availability
// table. It holds no per-call state and may be shared between goroutines.
type Resolver struct {
	exec   Executor
	logger *slog.Logger
}

// NewResolver creates a resolver over the given executor.
func NewResolver(exec Executor) *Resolver {
	return &Resolver{
		exec:   exec,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the resolver.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	r.logger = logger
	return r
}

// Resolve queries the availability of desc for sel. Any failure aborts the
// whole resolution; no partial table is returned.
func (r *Resolver) Resolve(ctx context.Context, desc *Descriptor, sel Selection) (*Table, error) {
	q, err := BuildQuery(desc.Code, desc.WorkspaceCode, desc.DimensionCodes(), desc.Measure.Code, sel)
	if err != nil {
		return nil, err
	}

	granularity, err := GranularityOf(desc.TimeDimension())
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "executing availability query",
		slog.String("cube", desc.Code),
		slog.String("shape", q.Shape().String()),
		slog.String("granularity", granularity.String()),
		slog.String("range", sel.TimeRange),
	)

	resp, err := r.exec.Execute(ctx, q)
	if err != nil {
		var upstream *UpstreamQueryError
		if errors.As(err, &upstream) {
			return nil, err
		}
		return nil, &UpstreamQueryError{Message: err.Error(), Err: err}
	}
	if resp == nil {
		return nil, &UpstreamQueryError{Message: "empty response"}
	}
	if resp.Error != "" {
		r.logger.WarnContext(ctx, "availability query rejected",
			slog.String("cube", desc.Code),
			slog.String("error", resp.Error),
			slog.String("message", resp.Message),
		)
		return nil, &UpstreamQueryError{Code: resp.Error, Message: resp.Message}
	}

	items := resp.Items()
	records := make([]Record, 0, len(items))
	for i, item := range items {
		rec, err := parseItem(q.Shape(), granularity, item)
		if err != nil {
			return nil, fmt.Errorf("item %d of cube %s: %w", i, desc.Code, err)
		}
		records = append(records, rec)
	}

	table := NewTable(desc.Code, q.Shape(), granularity, records)

	r.logger.DebugContext(ctx, "availability resolved",
		slog.String("cube", desc.Code),
		slog.Int("records", table.Len()),
	)

	return table, nil
}

func parseItem(shape Shape, granularity Granularity, item Item) (Record, error) {
	axes := shape.Axes()
	if len(item) < axes+1 {
		return Record{}, fmt.Errorf("%w: %d cells, want %d", ErrMalformedItem, len(item), axes+1)
	}

	var rec Record
	var timeCell Cell
	switch shape {
	case ShapeTime:
		timeCell = item[0]
	case ShapeSeasonTime:
		rec.Season = item[0].Text()
		timeCell = item[1]
	case ShapeSeasonStageTime:
		rec.Season = item[0].Text()
		rec.Stage = item[1].Text()
		timeCell = item[2]
	}

	period, err := ParsePeriod(granularity, timeCell.Text())
	if err != nil {
		return Record{}, err
	}
	rec.Period = period

	meta := item[axes].Metadata
	rec.RasterID = meta.rasterID()
	if rec.RasterID == "" {
		return Record{}, fmt.Errorf("%w: no raster id", ErrMalformedItem)
	}
	rec.BBox = meta.bbox()

	return rec, nil
}
