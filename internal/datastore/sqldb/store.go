package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
)

// internalTablePrefix marks bookkeeping tables hidden from the catalog.
const internalTablePrefix = "groundsql_"

type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ datastore.Store = (*Store)(nil)

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		classified := s.dialect.Classify(err)
		if !errors.Is(classified, datastore.ErrConnectivity) {
			classified = connectivity(classified)
		}
		return fmt.Errorf("ping %s datastore: %w", s.dialect.Name(), classified)
	}
	return nil
}

func (s *Store) Schema(ctx context.Context) (catalog.Catalog, error) {
	tables, err := s.dialect.Tables(ctx, s.db)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("load %s schema: %w", s.dialect.Name(), s.dialect.Classify(err))
	}
	visible := make([]catalog.Table, 0, len(tables))
	for _, table := range tables {
		if strings.HasPrefix(strings.ToLower(table.Name), internalTablePrefix) {
			continue
		}
		visible = append(visible, table)
	}
	cat := catalog.New(visible)
	if err := cat.Validate(); err != nil {
		return catalog.Catalog{}, fmt.Errorf("load %s schema: %w", s.dialect.Name(), err)
	}
	return cat, nil
}

func (s *Store) SampleRows(ctx context.Context, table string, limit int) ([]datastore.Row, error) {
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("sample limit must be > 0")
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", s.dialect.QuoteIdent(table), limit)
	columns, values, err := s.scan(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sample rows of %q: %w", table, err)
	}

	rows := make([]datastore.Row, 0, len(values))
	for _, record := range values {
		row := make(datastore.Row, len(columns))
		for i, column := range columns {
			row[i] = datastore.Cell{Column: column, Value: record[i]}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) Query(ctx context.Context, sqlText string, rowLimit int) (datastore.Result, error) {
	sqlText = datastore.StripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return datastore.Result{}, fmt.Errorf("sql is required")
	}
	if err := datastore.CheckReadOnly(sqlText); err != nil {
		return datastore.Result{}, err
	}
	if rowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, rowLimit)
	}

	columns, values, err := s.scan(ctx, sqlText)
	if err != nil {
		return datastore.Result{}, fmt.Errorf("execute query: %w", err)
	}
	return datastore.Result{Columns: columns, Rows: values}, nil
}

func (s *Store) scan(ctx context.Context, query string) ([]string, [][]datastore.Value, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, s.dialect.Classify(err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}
	declared := make([]string, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, columnType := range types {
			declared[i] = columnType.DatabaseTypeName()
		}
	}

	result := make([][]datastore.Value, 0)
	for rows.Next() {
		raw := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range raw {
			targets[i] = &raw[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", s.dialect.Classify(err))
		}
		record := make([]datastore.Value, len(columns))
		for i, value := range raw {
			record[i] = datastore.FromDriver(value, declared[i])
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", s.dialect.Classify(err))
	}
	return columns, result, nil
}
