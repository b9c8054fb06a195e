package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/groundsql/groundsql/internal/catalog"
)

// MySQL server error numbers.
const (
	mysqlTooManyConnections = 1040
	mysqlAccessDenied       = 1045
	mysqlUnknownDatabase    = 1049
	mysqlServerShutdown     = 1053
	mysqlNoSuchTable        = 1146
)

type mysqlDialect struct{}

func MySQL() Dialect {
	return mysqlDialect{}
}

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) QuoteIdent(value string) string {
	return "`" + strings.ReplaceAll(value, "`", "``") + "`"
}

// PrepareDSN turns on time parsing so DATE and DATETIME columns scan as
// time.Time, and keeps multi-statement mode off.
func (mysqlDialect) PrepareDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = false
	return cfg.FormatDSN(), nil
}

// COLUMN_KEY is PRI for primary key columns and MUL for columns leading a
// non-unique index, which covers every foreign key column.
const mysqlColumnsSQL = `
SELECT c.TABLE_NAME, c.COLUMN_NAME, c.COLUMN_TYPE, c.COLUMN_KEY, COALESCE(k.REFERENCED_TABLE_NAME, '')
FROM information_schema.COLUMNS c
JOIN information_schema.TABLES t
  ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
LEFT JOIN information_schema.KEY_COLUMN_USAGE k
  ON k.TABLE_SCHEMA = c.TABLE_SCHEMA AND k.TABLE_NAME = c.TABLE_NAME
 AND k.COLUMN_NAME = c.COLUMN_NAME AND k.REFERENCED_TABLE_NAME IS NOT NULL
WHERE c.TABLE_SCHEMA = DATABASE() AND t.TABLE_TYPE = 'BASE TABLE'
ORDER BY c.TABLE_NAME, c.ORDINAL_POSITION`

func (mysqlDialect) Tables(ctx context.Context, q queryer) ([]catalog.Table, error) {
	rows, err := q.QueryContext(ctx, mysqlColumnsSQL)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []catalog.Table
	index := map[string]int{}
	for rows.Next() {
		var tableName, columnName, columnType, columnKey, referenced string
		if err := rows.Scan(&tableName, &columnName, &columnType, &columnKey, &referenced); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		pos, ok := index[tableName]
		if !ok {
			pos = len(tables)
			index[tableName] = pos
			tables = append(tables, catalog.Table{Name: tableName})
		}
		table := &tables[pos]
		// a column with several foreign keys comes back once per key
		if n := len(table.Columns); n > 0 && table.Columns[n-1].Name == columnName {
			continue
		}
		table.Columns = append(table.Columns, catalog.Column{
			Name:         columnName,
			DeclaredType: columnType,
			KeyRole:      mysqlKeyRole(columnKey),
			References:   referenced,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return tables, nil
}

func mysqlKeyRole(columnKey string) catalog.KeyRole {
	switch strings.ToUpper(columnKey) {
	case "PRI":
		return catalog.KeyPrimary
	case "MUL":
		return catalog.KeyForeign
	default:
		return catalog.KeyNone
	}
}

func (mysqlDialect) Classify(err error) error {
	if err == nil {
		return nil
	}
	if classified := classifyCommon(err); classified != nil {
		return classified
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlNoSuchTable:
			return tableNotFound(err)
		case mysqlTooManyConnections, mysqlAccessDenied, mysqlUnknownDatabase, mysqlServerShutdown:
			return connectivity(err)
		}
		return err
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return connectivity(err)
	}
	return err
}
