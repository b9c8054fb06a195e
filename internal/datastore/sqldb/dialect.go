package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Dialect holds the engine-specific parts of a Store.
type Dialect interface {
	Name() string
	DriverName() string
	// Tables returns every user table with its columns in declaration order.
	Tables(ctx context.Context, q queryer) ([]catalog.Table, error)
	// Classify maps a driver error onto the datastore sentinels. Errors it
	// does not recognise are returned unchanged.
	Classify(err error) error
	QuoteIdent(name string) string
	// PrepareDSN adjusts a configured DSN to the options the store relies on.
	PrepareDSN(dsn string) (string, error)
}

func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql":
		return Postgres(), nil
	case "duckdb":
		return DuckDB(), nil
	case "sqlite", "sqlite3":
		return SQLite(), nil
	case "mysql", "mariadb":
		return MySQL(), nil
	default:
		return nil, fmt.Errorf("unsupported datastore dialect %q", name)
	}
}

// ansiDialect quotes identifiers with double quotes and uses the DSN as is.
type ansiDialect struct{}

func (ansiDialect) QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func (ansiDialect) PrepareDSN(dsn string) (string, error) {
	return dsn, nil
}

func connectivity(err error) error {
	return fmt.Errorf("%w: %w", datastore.ErrConnectivity, err)
}

func tableNotFound(err error) error {
	return fmt.Errorf("%w: %w", datastore.ErrTableNotFound, err)
}

// classifyCommon handles the failures every driver reports the same way. It
// returns nil when err needs dialect-specific inspection.
func classifyCommon(err error) error {
	if errors.Is(err, datastore.ErrConnectivity) || errors.Is(err, datastore.ErrTableNotFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return connectivity(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return connectivity(err)
	}
	return nil
}

// informationSchema reads tables and keys through the SQL-standard views.
type informationSchema struct {
	schema string
}

const informationSchemaColumnsSQL = `
SELECT c.table_name, c.column_name, c.data_type
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE c.table_schema = $1 AND t.table_type = 'BASE TABLE'
ORDER BY c.table_name, c.ordinal_position`

const informationSchemaKeysSQL = `
SELECT kcu.table_name, kcu.column_name, tc.constraint_type, COALESCE(pk.table_name, '')
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema AND kcu.constraint_name = tc.constraint_name
LEFT JOIN information_schema.referential_constraints rc
  ON rc.constraint_schema = tc.constraint_schema AND rc.constraint_name = tc.constraint_name
LEFT JOIN information_schema.table_constraints pk
  ON pk.constraint_schema = rc.unique_constraint_schema AND pk.constraint_name = rc.unique_constraint_name
WHERE tc.table_schema = $1 AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')`

func (s informationSchema) tables(ctx context.Context, q queryer) ([]catalog.Table, error) {
	rows, err := q.QueryContext(ctx, informationSchemaColumnsSQL, s.schema)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []catalog.Table
	index := map[string]int{}
	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		pos, ok := index[tableName]
		if !ok {
			pos = len(tables)
			index[tableName] = pos
			tables = append(tables, catalog.Table{Name: tableName})
		}
		tables[pos].Columns = append(tables[pos].Columns, catalog.Column{Name: columnName, DeclaredType: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	keyRows, err := q.QueryContext(ctx, informationSchemaKeysSQL, s.schema)
	if err != nil {
		return nil, fmt.Errorf("list key constraints: %w", err)
	}
	defer func() { _ = keyRows.Close() }()

	for keyRows.Next() {
		var tableName, columnName, constraintType, referenced string
		if err := keyRows.Scan(&tableName, &columnName, &constraintType, &referenced); err != nil {
			return nil, fmt.Errorf("scan key constraint: %w", err)
		}
		pos, ok := index[tableName]
		if !ok {
			continue
		}
		role := catalog.KeyForeign
		if constraintType == "PRIMARY KEY" {
			role = catalog.KeyPrimary
		}
		markKey(&tables[pos], columnName, role, referenced)
	}
	if err := keyRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key constraints: %w", err)
	}
	return tables, nil
}

// markKey records a key role; a primary key wins over a foreign key but the
// referenced table is kept.
func markKey(table *catalog.Table, columnName string, role catalog.KeyRole, referenced string) {
	for i := range table.Columns {
		column := &table.Columns[i]
		if !strings.EqualFold(column.Name, columnName) {
			continue
		}
		if role == catalog.KeyPrimary || column.KeyRole == catalog.KeyNone {
			column.KeyRole = role
		}
		if referenced != "" {
			column.References = referenced
		}
		return
	}
}
