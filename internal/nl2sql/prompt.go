package nl2sql

import (
	"fmt"
	"strings"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
)

type Composer struct {
	hints []JoinHint
	notes []string
}

// NewComposer builds a composer. Nil hints or notes fall back to the defaults;
// pass empty slices to disable them.
func NewComposer(hints []JoinHint, notes []string) *Composer {
	if hints == nil {
		hints = DefaultJoinHints
	}
	if notes == nil {
		notes = DefaultNotes
	}
	return &Composer{
		hints: append([]JoinHint(nil), hints...),
		notes: append([]string(nil), notes...),
	}
}

func (c *Composer) Compose(question string, preview Preview) string {
	var b strings.Builder
	b.WriteString("You are an expert SQL analyst. Write one SQL query that answers the question below ")
	b.WriteString("using the tables, columns and sample rows provided.\n\n")
	fmt.Fprintf(&b, "Question: %q\n\n", strings.TrimSpace(question))

	b.WriteString("Database tables:\n")
	for _, table := range preview.Tables {
		b.WriteString("\n")
		writeTable(&b, table)
	}

	if hints := applicableHints(c.hints, preview); len(hints) > 0 {
		b.WriteString("\n=== Join relationships ===\n")
		for _, hint := range hints {
			fmt.Fprintf(&b, "  - %s\n", hint.Predicate)
		}
	}

	b.WriteString("\nAnswer with the SQL query only.\n")
	if len(c.notes) > 0 {
		b.WriteString("Notes:\n")
		for _, note := range c.notes {
			fmt.Fprintf(&b, "  - %s\n", note)
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, table TablePreview) {
	fmt.Fprintf(b, "=== %s table ===\n", table.Schema.Name)
	b.WriteString("Columns:\n")
	for _, column := range table.Schema.Columns {
		fmt.Fprintf(b, "  - %s (%s)%s\n", column.Name, column.DeclaredType, keyMarker(column.KeyRole))
	}
	if len(table.SampleRows) == 0 {
		b.WriteString("Sample rows: (no sample rows)\n")
		return
	}
	fmt.Fprintf(b, "Sample rows (%d):\n", len(table.SampleRows))
	for i, row := range table.SampleRows {
		fmt.Fprintf(b, "  row %d: %s\n", i+1, row.String())
	}
}

func keyMarker(role catalog.KeyRole) string {
	switch role {
	case catalog.KeyPrimary:
		return " [PRIMARY KEY]"
	case catalog.KeyForeign:
		return " [FOREIGN KEY]"
	default:
		return ""
	}
}

// AppendFeedback extends prompt with the diagnostics of a rejected candidate.
func AppendFeedback(prompt string, candidate Candidate, outcome Outcome) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\nYour previous answer was rejected.\n")
	fmt.Fprintf(&b, "Previous query: %s\n", candidate.SQL)
	if len(outcome.Messages) > 0 {
		b.WriteString("Problems:\n")
		for _, message := range outcome.Messages {
			fmt.Fprintf(&b, "  - %s\n", message)
		}
	}
	b.WriteString("Write a corrected query.\n")
	return b.String()
}

// schemaOnlyPreview wraps a catalog without sample rows.
func schemaOnlyPreview(cat catalog.Catalog) Preview {
	tables := make([]TablePreview, 0, len(cat.Tables))
	for _, table := range cat.Tables {
		tables = append(tables, TablePreview{Schema: table, SampleRows: []datastore.Row{}, RowCap: SampleRowCap})
	}
	return Preview{Tables: tables}
}
