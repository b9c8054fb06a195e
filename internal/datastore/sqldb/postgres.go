package sqldb

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/groundsql/groundsql/internal/catalog"
)

const pgUndefinedTable = "42P01"

type postgresDialect struct {
	ansiDialect
	informationSchema
}

func Postgres() Dialect {
	return postgresDialect{informationSchema: informationSchema{schema: "public"}}
}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "pgx" }

func (d postgresDialect) Tables(ctx context.Context, q queryer) ([]catalog.Table, error) {
	return d.tables(ctx, q)
}

func (postgresDialect) Classify(err error) error {
	if err == nil {
		return nil
	}
	if classified := classifyCommon(err); classified != nil {
		return classified
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUndefinedTable:
			return tableNotFound(err)
		case strings.HasPrefix(pgErr.Code, "08"):
			return connectivity(err)
		}
		return err
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return connectivity(err)
	}
	return err
}
