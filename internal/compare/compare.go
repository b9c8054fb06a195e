package compare

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/groundsql/groundsql/internal/datastore"
	"github.com/groundsql/groundsql/internal/nl2sql"
	"github.com/groundsql/groundsql/internal/observability"
)

type Store interface {
	datastore.SchemaSource
	Query(ctx context.Context, sql string, rowLimit int) (datastore.Result, error)
}

type Outcome struct {
	Result   nl2sql.Result       `json:"result"`
	Columns  []string            `json:"columns,omitempty"`
	Rows     [][]datastore.Value `json:"rows,omitempty"`
	RowCount int                 `json:"row_count"`
}

type Report struct {
	Question string    `json:"question"`
	Outcomes []Outcome `json:"outcomes"`
}

// Runner runs every strategy on the same question and executes the SQL each
// one produces.
type Runner struct {
	Strategies []nl2sql.Strategy
	Store      Store
	RowLimit   int
	Logger     *slog.Logger
}

func (r *Runner) Run(ctx context.Context, question string) (Report, error) {
	if strings.TrimSpace(question) == "" {
		return Report{}, nl2sql.ErrEmptyQuestion
	}
	if r.Store == nil {
		return Report{}, fmt.Errorf("compare store is required")
	}
	logger := r.Logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}

	cat, err := r.Store.Schema(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load schema: %w", err)
	}

	report := Report{Question: question, Outcomes: make([]Outcome, 0, len(r.Strategies))}
	for _, strategy := range r.Strategies {
		outcome := Outcome{Result: strategy.Generate(ctx, question, cat)}
		if outcome.Result.Success {
			result, err := query(ctx, r.Store, outcome.Result.SQL, r.RowLimit)
			if err != nil {
				outcome.Result.Success = false
				outcome.Result.ErrorMessage = err.Error()
				outcome.Result.Err = err
			} else {
				outcome.Columns = result.Columns
				outcome.Rows = result.Rows
				outcome.RowCount = len(result.Rows)
			}
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "strategy compared",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("strategy", strategy.Name()),
			slog.Bool("success", outcome.Result.Success),
			slog.Int("row_count", outcome.RowCount),
		)
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

// Execute runs a single accepted result and returns its rows.
func Execute(ctx context.Context, store Store, result nl2sql.Result, rowLimit int) (Outcome, error) {
	outcome := Outcome{Result: result}
	if !result.Success {
		return outcome, nil
	}
	rows, err := query(ctx, store, result.SQL, rowLimit)
	if err != nil {
		return outcome, fmt.Errorf("execute generated sql: %w", err)
	}
	outcome.Columns = rows.Columns
	outcome.Rows = rows.Rows
	outcome.RowCount = len(rows.Rows)
	return outcome, nil
}

// query refuses anything but a single read statement before it reaches the
// store; cot and direct output is never validated.
func query(ctx context.Context, store Store, sqlText string, rowLimit int) (datastore.Result, error) {
	if err := datastore.CheckReadOnly(sqlText); err != nil {
		return datastore.Result{}, err
	}
	return store.Query(ctx, sqlText, rowLimit)
}
