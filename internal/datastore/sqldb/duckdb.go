package sqldb

import (
	"context"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/groundsql/groundsql/internal/catalog"
)

type duckDBDialect struct {
	ansiDialect
	informationSchema
}

func DuckDB() Dialect {
	return duckDBDialect{informationSchema: informationSchema{schema: "main"}}
}

func (duckDBDialect) Name() string       { return "duckdb" }
func (duckDBDialect) DriverName() string { return "duckdb" }

func (d duckDBDialect) Tables(ctx context.Context, q queryer) ([]catalog.Table, error) {
	return d.tables(ctx, q)
}

func (duckDBDialect) Classify(err error) error {
	if err == nil {
		return nil
	}
	if classified := classifyCommon(err); classified != nil {
		return classified
	}
	msg := err.Error()
	if strings.Contains(msg, "Catalog Error") && strings.Contains(msg, "does not exist") {
		return tableNotFound(err)
	}
	if strings.Contains(msg, "IO Error") && strings.Contains(msg, "Could not set lock") {
		return connectivity(err)
	}
	return err
}
