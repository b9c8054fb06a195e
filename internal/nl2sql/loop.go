package nl2sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/datastore"
	"github.com/groundsql/groundsql/internal/observability"
)

type Stage string

const (
	StageCollecting Stage = "collecting"
	StageComposing  Stage = "composing"
	StageGenerating Stage = "generating"
	StageValidating Stage = "validating"
	StageAccepted   Stage = "accepted"
	StageRetry      Stage = "retry"
)

const DefaultMaxAttempts = 3

type LoopConfig struct {
	// MaxAttempts bounds validation retries. Zero retries until a candidate
	// is accepted or ctx ends.
	MaxAttempts     int
	FeedbackOnRetry bool
}

// Loop runs collect, compose, generate and validate until a candidate is
// accepted. Only validation rejections are retried; any other failure ends
// the run. A Loop holds no per-run state.
type Loop struct {
	collector *Collector
	composer  *Composer
	generator *Generator
	validator *Validator
	cfg       LoopConfig
	logger    *slog.Logger
}

func NewLoop(collector *Collector, composer *Composer, generator *Generator, validator *Validator, cfg LoopConfig, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	if collector == nil {
		collector = NewCollector(logger)
	}
	if composer == nil {
		composer = NewComposer(nil, nil)
	}
	if validator == nil {
		validator = NewValidator(ValidatorConfig{})
	}
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Loop{
		collector: collector,
		composer:  composer,
		generator: generator,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
	}
}

func (l *Loop) Run(ctx context.Context, question string, cat catalog.Catalog, src datastore.SampleSource) Result {
	start := time.Now()
	result := l.run(ctx, question, cat, src)
	result.Elapsed = time.Since(start)
	result.Strategy = ToolStrategyName

	observability.ObserveGeneration(ToolStrategyName, result.Success, result.Attempts, result.Elapsed)
	attrs := []slog.Attr{
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("strategy", ToolStrategyName),
		slog.Bool("success", result.Success),
		slog.Int("attempts", result.Attempts),
		slog.String("duration", result.Elapsed.String()),
	}
	if result.Err != nil {
		attrs = append(attrs, slog.String("error", result.ErrorMessage))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "generation finished", attrs...)
	return result
}

func (l *Loop) run(ctx context.Context, question string, cat catalog.Catalog, src datastore.SampleSource) Result {
	if strings.TrimSpace(question) == "" {
		return failed(ToolStrategyName, 0, ErrEmptyQuestion)
	}
	if l.generator == nil {
		return failed(ToolStrategyName, 0, fmt.Errorf("%w: no generator configured", ErrGeneration))
	}

	var (
		previous Candidate
		rejected Outcome
	)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return failed(ToolStrategyName, attempt-1, fmt.Errorf("generation cancelled: %w", err))
		}

		l.stage(ctx, StageCollecting, attempt)
		preview, err := l.collector.Collect(ctx, cat, src)
		if err != nil {
			return failed(ToolStrategyName, attempt, err)
		}

		l.stage(ctx, StageComposing, attempt)
		prompt := l.composer.Compose(question, preview)
		if attempt > 1 && l.cfg.FeedbackOnRetry {
			prompt = AppendFeedback(prompt, previous, rejected)
		}

		l.stage(ctx, StageGenerating, attempt)
		candidate, err := l.generator.Generate(ctx, prompt)
		if err != nil {
			return failed(ToolStrategyName, attempt, err)
		}

		l.stage(ctx, StageValidating, attempt)
		outcome := l.validator.Validate(candidate.SQL, cat)
		if outcome.Valid {
			l.stage(ctx, StageAccepted, attempt)
			return Result{Success: true, SQL: candidate.SQL, Attempts: attempt}
		}

		observability.IncrementValidationRejections()
		l.logger.LogAttrs(ctx, slog.LevelDebug, "candidate rejected",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.Int("attempt", attempt),
			slog.String("sql", candidate.SQL),
			slog.Any("messages", outcome.Messages),
		)
		if l.cfg.MaxAttempts > 0 && attempt >= l.cfg.MaxAttempts {
			err := fmt.Errorf("%w after %d attempts: %s", ErrValidationFailed, attempt, strings.Join(outcome.Messages, "; "))
			result := failed(ToolStrategyName, attempt, err)
			result.SQL = candidate.SQL
			return result
		}
		l.stage(ctx, StageRetry, attempt)
		previous, rejected = candidate, outcome
	}
}

func (l *Loop) stage(ctx context.Context, stage Stage, attempt int) {
	l.logger.LogAttrs(ctx, slog.LevelDebug, "generation stage",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("stage", string(stage)),
		slog.Int("attempt", attempt),
	)
}
