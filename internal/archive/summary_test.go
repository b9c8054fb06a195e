package archive

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestSummarizeAggregatesRunsPerStrategy(t *testing.T) {
	store := newMemoryStore()
	archiver := &Archiver{Store: store}
	day := time.Date(2026, time.February, 19, 9, 0, 0, 0, time.UTC)

	batches := [][]Record{
		{
			{RunID: "r1", Strategy: "tool", Success: true, Attempts: 1, DurationMs: 100, CreatedAtUnixMs: day.UnixMilli()},
			{RunID: "r2", Strategy: "cot", Success: false, Attempts: 1, DurationMs: 300, CreatedAtUnixMs: day.UnixMilli()},
		},
		{
			{RunID: "r3", Strategy: "tool", Success: false, Attempts: 3, DurationMs: 500, CreatedAtUnixMs: day.Add(2 * time.Hour).UnixMilli()},
		},
		{
			{RunID: "r4", Strategy: "tool", Success: true, Attempts: 1, DurationMs: 50, CreatedAtUnixMs: day.Add(24 * time.Hour).UnixMilli()},
		},
	}
	for _, batch := range batches {
		if _, err := archiver.Write(context.Background(), batch); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	summary, err := archiver.Summarize(context.Background(), day)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Date != "2026-02-19" || summary.Files != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Strategies) != 2 {
		t.Fatalf("strategies = %+v", summary.Strategies)
	}
	cot, tool := summary.Strategies[0], summary.Strategies[1]
	if cot.Strategy != "cot" || cot.Runs != 1 || cot.Succeeded != 0 {
		t.Fatalf("cot = %+v", cot)
	}
	if tool.Strategy != "tool" || tool.Runs != 2 || tool.Succeeded != 1 {
		t.Fatalf("tool = %+v", tool)
	}
	if math.Abs(tool.SuccessRate-0.5) > 1e-9 || math.Abs(tool.AvgAttempts-2) > 1e-9 || math.Abs(tool.AvgDurationMs-300) > 1e-9 {
		t.Fatalf("tool aggregates = %+v", tool)
	}
}

func TestSummarizeEmptyDay(t *testing.T) {
	summary, err := (&Archiver{Store: newMemoryStore()}).Summarize(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.Files != 0 || len(summary.Strategies) != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}
