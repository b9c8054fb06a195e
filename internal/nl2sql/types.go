package nl2sql

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
)

// SampleRowCap bounds the rows fetched per table for a preview.
const SampleRowCap = 3

type TablePreview struct {
	Schema     catalog.Table   `json:"schema"`
	SampleRows []datastore.Row `json:"-"`
	RowCap     int             `json:"row_cap"`
}

type Preview struct {
	Tables []TablePreview `json:"tables"`
}

func (p Preview) HasTable(name string) bool {
	for _, table := range p.Tables {
		if strings.EqualFold(table.Schema.Name, name) {
			return true
		}
	}
	return false
}

type Request struct {
	Question string
	Preview  Preview
}

type Candidate struct {
	Raw string
	SQL string
}

func NewCandidate(raw string) Candidate {
	return Candidate{Raw: raw, SQL: Normalize(raw)}
}

type Outcome struct {
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages,omitempty"`
}

type Result struct {
	Success        bool
	SQL            string
	Elapsed        time.Duration
	ErrorMessage   string
	Attempts       int
	Strategy       string
	ReasoningSteps []string
	// Err keeps the failure chain for errors.Is; it is not serialised.
	Err error
}

func (r Result) ExecutionTimeSeconds() float64 {
	return r.Elapsed.Seconds()
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success              bool     `json:"success"`
		SQL                  string   `json:"sql_query"`
		ExecutionTimeSeconds float64  `json:"execution_time_seconds"`
		ErrorMessage         string   `json:"error_message,omitempty"`
		Attempts             int      `json:"attempts"`
		Strategy             string   `json:"strategy"`
		ReasoningSteps       []string `json:"reasoning_steps,omitempty"`
	}{
		Success:              r.Success,
		SQL:                  r.SQL,
		ExecutionTimeSeconds: r.ExecutionTimeSeconds(),
		ErrorMessage:         r.ErrorMessage,
		Attempts:             r.Attempts,
		Strategy:             r.Strategy,
		ReasoningSteps:       r.ReasoningSteps,
	})
}

func failed(strategy string, attempts int, err error) Result {
	return Result{
		Success:      false,
		ErrorMessage: err.Error(),
		Attempts:     attempts,
		Strategy:     strategy,
		Err:          err,
	}
}

// Strategy turns a question into a Result against a catalog.
type Strategy interface {
	Name() string
	Generate(ctx context.Context, question string, cat catalog.Catalog) Result
}
