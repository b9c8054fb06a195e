package nl2sql

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
	"github.com/groundsql/groundsql/internal/observability"
)

const (
	ToolStrategyName   = "tool"
	CoTStrategyName    = "cot"
	DirectStrategyName = "direct"
)

// ToolStrategy grounds prompts in sample rows and retries rejected candidates.
type ToolStrategy struct {
	loop   *Loop
	source datastore.SampleSource
}

func NewToolStrategy(loop *Loop, source datastore.SampleSource) *ToolStrategy {
	return &ToolStrategy{loop: loop, source: source}
}

func (s *ToolStrategy) Name() string { return ToolStrategyName }

func (s *ToolStrategy) Generate(ctx context.Context, question string, cat catalog.Catalog) Result {
	return s.loop.Run(ctx, question, cat, s.source)
}

// CoTStrategy asks for step by step reasoning over the schema alone and takes
// the SQL from the first sql code block of the answer.
type CoTStrategy struct {
	completer   Completer
	temperature float64
	logger      *slog.Logger
}

func NewCoTStrategy(completer Completer, temperature float64, logger *slog.Logger) *CoTStrategy {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &CoTStrategy{completer: completer, temperature: temperature, logger: logger}
}

func (s *CoTStrategy) Name() string { return CoTStrategyName }

func (s *CoTStrategy) Generate(ctx context.Context, question string, cat catalog.Catalog) Result {
	start := time.Now()
	result := s.generate(ctx, question, cat)
	return finishSingleShot(ctx, s.logger, CoTStrategyName, start, result)
}

func (s *CoTStrategy) generate(ctx context.Context, question string, cat catalog.Catalog) Result {
	if strings.TrimSpace(question) == "" {
		return failed(CoTStrategyName, 0, ErrEmptyQuestion)
	}
	if s.completer == nil {
		return failed(CoTStrategyName, 0, fmt.Errorf("%w: no completer configured", ErrGeneration))
	}
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:      "You are a careful SQL analyst who reasons step by step.",
		Prompt:      composeCoT(question, cat),
		Temperature: s.temperature,
	})
	if err != nil {
		return failed(CoTStrategyName, 1, fmt.Errorf("%w: %w", ErrGeneration, err))
	}
	steps := extractReasoningSteps(raw)
	sql := Normalize(extractSQLBlock(raw))
	if sql == "" {
		result := failed(CoTStrategyName, 1, fmt.Errorf("%w: response contained no sql code block", ErrGeneration))
		result.ReasoningSteps = steps
		return result
	}
	return Result{Success: true, SQL: sql, Attempts: 1, ReasoningSteps: steps}
}

var cotSteps = []string{
	"Understand what the question asks for.",
	"Identify the tables that hold the required data.",
	"Identify the columns needed for output and filtering.",
	"Work out the join conditions between those tables.",
	"Decide on filters, grouping, aggregation and ordering.",
	"Write the final SQL query.",
}

func composeCoT(question string, cat catalog.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %q\n\n", strings.TrimSpace(question))
	b.WriteString("Database schema:\n")
	for _, table := range cat.Tables {
		fmt.Fprintf(&b, "\n=== %s table ===\n", table.Name)
		for _, column := range table.Columns {
			fmt.Fprintf(&b, "  - %s (%s)%s\n", column.Name, column.DeclaredType, keyMarker(column.KeyRole))
		}
	}
	b.WriteString("\nThink through the problem in these steps, labelling each one \"Step N:\".\n")
	for i, step := range cotSteps {
		fmt.Fprintf(&b, "Step %d: %s\n", i+1, step)
	}
	b.WriteString("\nPut the final query in a ```sql code block.\n")
	return b.String()
}

var (
	sqlBlockPattern = regexp.MustCompile("(?is)```sql\\s*(.*?)```")
	stepPattern     = regexp.MustCompile(`(?i)\bstep\s*(\d+)\s*[:.]`)
)

func extractSQLBlock(raw string) string {
	match := sqlBlockPattern.FindStringSubmatch(raw)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// extractReasoningSteps returns the text of each "Step N:" segment, ending at
// the next step or the first code fence.
func extractReasoningSteps(raw string) []string {
	if idx := strings.Index(raw, fence); idx >= 0 {
		raw = raw[:idx]
	}
	locations := stepPattern.FindAllStringIndex(raw, -1)
	steps := make([]string, 0, len(locations))
	for i, loc := range locations {
		end := len(raw)
		if i+1 < len(locations) {
			end = locations[i+1][0]
		}
		text := strings.Join(strings.Fields(raw[loc[1]:end]), " ")
		if text != "" {
			steps = append(steps, text)
		}
	}
	return steps
}

// DirectStrategy sends the bare question without schema or samples.
type DirectStrategy struct {
	completer   Completer
	temperature float64
	logger      *slog.Logger
}

func NewDirectStrategy(completer Completer, temperature float64, logger *slog.Logger) *DirectStrategy {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &DirectStrategy{completer: completer, temperature: temperature, logger: logger}
}

func (s *DirectStrategy) Name() string { return DirectStrategyName }

func (s *DirectStrategy) Generate(ctx context.Context, question string, _ catalog.Catalog) Result {
	start := time.Now()
	result := s.generate(ctx, question)
	return finishSingleShot(ctx, s.logger, DirectStrategyName, start, result)
}

func (s *DirectStrategy) generate(ctx context.Context, question string) Result {
	if strings.TrimSpace(question) == "" {
		return failed(DirectStrategyName, 0, ErrEmptyQuestion)
	}
	if s.completer == nil {
		return failed(DirectStrategyName, 0, fmt.Errorf("%w: no completer configured", ErrGeneration))
	}
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		System:      toolSystemPrompt,
		Prompt:      fmt.Sprintf("Convert this question into a SQL query.\n\nQuestion: %q\n\nAnswer with the SQL query only.", strings.TrimSpace(question)),
		Temperature: s.temperature,
	})
	if err != nil {
		return failed(DirectStrategyName, 1, fmt.Errorf("%w: %w", ErrGeneration, err))
	}
	sql := Normalize(raw)
	if sql == "" {
		return failed(DirectStrategyName, 1, fmt.Errorf("%w: model returned empty SQL", ErrGeneration))
	}
	return Result{Success: true, SQL: sql, Attempts: 1}
}

func finishSingleShot(ctx context.Context, logger *slog.Logger, strategy string, start time.Time, result Result) Result {
	result.Elapsed = time.Since(start)
	result.Strategy = strategy
	observability.ObserveGeneration(strategy, result.Success, result.Attempts, result.Elapsed)
	logger.LogAttrs(ctx, slog.LevelInfo, "generation finished",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("strategy", strategy),
		slog.Bool("success", result.Success),
		slog.String("duration", result.Elapsed.String()),
	)
	return result
}
