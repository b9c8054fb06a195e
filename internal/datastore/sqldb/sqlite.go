package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/groundsql/groundsql/internal/catalog"
)

type sqliteDialect struct {
	ansiDialect
}

func SQLite() Dialect {
	return sqliteDialect{}
}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite3" }

func (sqliteDialect) Tables(ctx context.Context, q queryer) ([]catalog.Table, error) {
	names, err := sqliteTableNames(ctx, q)
	if err != nil {
		return nil, err
	}

	tables := make([]catalog.Table, 0, len(names))
	for _, name := range names {
		table := catalog.Table{Name: name}
		if err := sqliteColumns(ctx, q, &table); err != nil {
			return nil, err
		}
		if err := sqliteForeignKeys(ctx, q, &table); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func sqliteTableNames(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

func sqliteColumns(ctx context.Context, q queryer, table *catalog.Table) error {
	rows, err := q.QueryContext(ctx, `SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`, table.Name)
	if err != nil {
		return fmt.Errorf("describe table %q: %w", table.Name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name, declaredType string
		var pk int
		if err := rows.Scan(&name, &declaredType, &pk); err != nil {
			return fmt.Errorf("scan column of %q: %w", table.Name, err)
		}
		column := catalog.Column{Name: name, DeclaredType: declaredType}
		if pk > 0 {
			column.KeyRole = catalog.KeyPrimary
		}
		table.Columns = append(table.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate columns of %q: %w", table.Name, err)
	}
	return nil
}

func sqliteForeignKeys(ctx context.Context, q queryer, table *catalog.Table) error {
	rows, err := q.QueryContext(ctx, `SELECT "from", "table" FROM pragma_foreign_key_list(?)`, table.Name)
	if err != nil {
		return fmt.Errorf("list foreign keys of %q: %w", table.Name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var from, referenced string
		if err := rows.Scan(&from, &referenced); err != nil {
			return fmt.Errorf("scan foreign key of %q: %w", table.Name, err)
		}
		markKey(table, from, catalog.KeyForeign, referenced)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate foreign keys of %q: %w", table.Name, err)
	}
	return nil
}

func (sqliteDialect) Classify(err error) error {
	if err == nil {
		return nil
	}
	if classified := classifyCommon(err); classified != nil {
		return classified
	}
	if strings.Contains(err.Error(), "no such table") {
		return tableNotFound(err)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked:
			return connectivity(err)
		}
	}
	return err
}
