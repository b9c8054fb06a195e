package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
	"github.com/groundsql/groundsql/internal/observability"
)

type Collector struct {
	logger *slog.Logger
	rowCap int
}

func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Collector{logger: logger, rowCap: SampleRowCap}
}

// Collect builds a preview of every catalog table. The source is pinged once;
// after that a failing table degrades to an empty sample instead of failing
// the whole preview.
func (c *Collector) Collect(ctx context.Context, cat catalog.Catalog, src datastore.SampleSource) (Preview, error) {
	if src == nil {
		return schemaOnlyPreview(cat), nil
	}
	if err := src.Ping(ctx); err != nil {
		if !errors.Is(err, datastore.ErrConnectivity) {
			err = fmt.Errorf("%w: %w", datastore.ErrConnectivity, err)
		}
		return Preview{}, fmt.Errorf("collect samples: %w", err)
	}

	preview := Preview{Tables: make([]TablePreview, 0, len(cat.Tables))}
	for _, table := range cat.Tables {
		if err := ctx.Err(); err != nil {
			return Preview{}, fmt.Errorf("collect samples: %w", err)
		}
		rows, err := src.SampleRows(ctx, table.Name, c.rowCap)
		if err != nil {
			c.logger.WarnContext(ctx, "sample fetch failed",
				slog.String("trace_id", observability.TraceIDFromContext(ctx)),
				slog.String("table", table.Name),
				slog.Bool("table_not_found", errors.Is(err, datastore.ErrTableNotFound)),
				slog.String("error", err.Error()),
			)
			observability.IncrementSampleFetchFailures()
			rows = []datastore.Row{}
		}
		if len(rows) > c.rowCap {
			rows = rows[:c.rowCap]
		}
		preview.Tables = append(preview.Tables, TablePreview{Schema: table, SampleRows: rows, RowCap: c.rowCap})
	}
	return preview, nil
}
