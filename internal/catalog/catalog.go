package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownReference = errors.New("catalog: foreign key references unknown table")

type KeyRole string

const (
	KeyNone    KeyRole = ""
	KeyPrimary KeyRole = "primary"
	KeyForeign KeyRole = "foreign"
)

type Catalog struct {
	Tables []Table `json:"tables"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

type Column struct {
	Name         string  `json:"name"`
	DeclaredType string  `json:"declared_type"`
	KeyRole      KeyRole `json:"key_role,omitempty"`
	References   string  `json:"references,omitempty"`
}

// New sorts tables by name and drops nothing.
func New(tables []Table) Catalog {
	out := make([]Table, len(tables))
	copy(out, tables)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return Catalog{Tables: out}
}

func (c Catalog) Table(name string) (Table, bool) {
	for _, table := range c.Tables {
		if strings.EqualFold(table.Name, name) {
			return table, true
		}
	}
	return Table{}, false
}

func (c Catalog) HasTable(name string) bool {
	_, ok := c.Table(name)
	return ok
}

func (c Catalog) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for _, table := range c.Tables {
		names = append(names, table.Name)
	}
	return names
}

func (c Catalog) Validate() error {
	for _, table := range c.Tables {
		for _, column := range table.Columns {
			if column.References == "" {
				continue
			}
			if !c.HasTable(column.References) {
				return fmt.Errorf("%w: %s.%s -> %s", ErrUnknownReference, table.Name, column.Name, column.References)
			}
		}
	}
	return nil
}

func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, column := range t.Columns {
		names = append(names, column.Name)
	}
	return names
}

func (t Table) Column(name string) (Column, bool) {
	for _, column := range t.Columns {
		if strings.EqualFold(column.Name, name) {
			return column, true
		}
	}
	return Column{}, false
}

func (t Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}
