package api

import (
	"net/http"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
	"github.com/groundsql/groundsql/internal/nl2sql"
)

type schemaTable struct {
	Name       string                       `json:"name"`
	Columns    []catalog.Column             `json:"columns"`
	SampleRows []map[string]datastore.Value `json:"sample_rows"`
}

func (h *handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	cat, ok := h.loadSchema(w, r)
	if !ok {
		return
	}

	collector := h.deps.Collector
	if collector == nil {
		collector = nl2sql.NewCollector(h.deps.Logger)
	}
	preview, err := collector.Collect(r.Context(), cat, h.deps.Store)
	if err != nil {
		writeDomainError(r.Context(), w, "SAMPLE_FETCH_FAILED", "failed to collect sample rows", err)
		return
	}

	tables := make([]schemaTable, 0, len(preview.Tables))
	for _, table := range preview.Tables {
		rows := make([]map[string]datastore.Value, 0, len(table.SampleRows))
		for _, row := range table.SampleRows {
			values := make(map[string]datastore.Value, len(row))
			for _, cell := range row {
				values[cell.Column] = cell.Value
			}
			rows = append(rows, values)
		}
		tables = append(tables, schemaTable{Name: table.Schema.Name, Columns: table.Schema.Columns, SampleRows: rows})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tables":     tables,
		"strategies": h.strategyNames(),
	})
}
