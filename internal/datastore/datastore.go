package datastore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/sqltext"
)

var (
	ErrConnectivity  = errors.New("datastore: store unreachable")
	ErrTableNotFound = errors.New("datastore: table not found")
	ErrNotReadOnly   = errors.New("datastore: only read statements can be executed")
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type SchemaSource interface {
	Schema(ctx context.Context) (catalog.Catalog, error)
}

type SampleSource interface {
	Pinger
	SampleRows(ctx context.Context, table string, limit int) ([]Row, error)
}

type Store interface {
	SampleSource
	SchemaSource
	Query(ctx context.Context, sql string, rowLimit int) (Result, error)
	Close() error
}

type Cell struct {
	Column string
	Value  Value
}

type Row []Cell

type Result struct {
	Columns []string
	Rows    [][]Value
}

// Get returns the value for column, matched case-insensitively.
func (r Row) Get(column string) (Value, bool) {
	for _, cell := range r {
		if strings.EqualFold(cell.Column, column) {
			return cell.Value, true
		}
	}
	return Value{}, false
}

func (r Row) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, cell := range r {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(cell.Column)
		b.WriteString(": ")
		b.WriteString(cell.Value.String())
	}
	b.WriteString("}")
	return b.String()
}

// StripTrailingSemicolons trims whitespace and any run of trailing semicolons.
func StripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}

// CheckReadOnly returns ErrNotReadOnly unless sqlText is a single SELECT or
// WITH statement free of write and DDL keywords.
func CheckReadOnly(sqlText string) error {
	if err := sqltext.ReadOnly(sqlText); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReadOnly, err)
	}
	return nil
}
