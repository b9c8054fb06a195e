package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/groundsql/groundsql/internal/storage"
)

// StrategySummary aggregates one day of archived runs for a strategy.
type StrategySummary struct {
	Strategy      string  `json:"strategy"`
	Runs          int64   `json:"runs"`
	Succeeded     int64   `json:"succeeded"`
	SuccessRate   float64 `json:"success_rate"`
	AvgAttempts   float64 `json:"avg_attempts"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

type DaySummary struct {
	Date       string            `json:"date"`
	Files      int               `json:"files"`
	Strategies []StrategySummary `json:"strategies"`
}

const summarySQL = `
SELECT
	strategy,
	COUNT(*) AS runs,
	CAST(SUM(CASE WHEN success THEN 1 ELSE 0 END) AS BIGINT) AS succeeded,
	AVG(attempts) AS avg_attempts,
	AVG(duration_ms) AS avg_duration_ms
FROM read_parquet(%s)
GROUP BY strategy
ORDER BY strategy`

// Summarize downloads every archive file of day and aggregates it per
// strategy with an in-memory DuckDB.
func (a *Archiver) Summarize(ctx context.Context, day time.Time) (DaySummary, error) {
	summary := DaySummary{Date: day.UTC().Format("2006-01-02"), Strategies: []StrategySummary{}}
	if a.Store == nil {
		return summary, fmt.Errorf("archive object store is required")
	}

	objects, err := a.Store.List(ctx, storage.BuildRunArchiveDayPrefix(day))
	if err != nil {
		return summary, err
	}
	keys := make([]string, 0, len(objects))
	for _, object := range objects {
		if strings.HasSuffix(object.Key, ".parquet") {
			keys = append(keys, object.Key)
		}
	}
	if len(keys) == 0 {
		return summary, nil
	}

	workDir, err := os.MkdirTemp("", "groundsql-archive-")
	if err != nil {
		return summary, fmt.Errorf("create summary temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	localPaths := make([]string, 0, len(keys))
	for index, key := range keys {
		localPath := filepath.Join(workDir, fmt.Sprintf("runs_%05d.parquet", index))
		if err := a.download(ctx, key, localPath); err != nil {
			return summary, err
		}
		localPaths = append(localPaths, localPath)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return summary, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(summarySQL, quoteStringArray(localPaths)))
	if err != nil {
		return summary, fmt.Errorf("summarize runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item StrategySummary
		if err := rows.Scan(&item.Strategy, &item.Runs, &item.Succeeded, &item.AvgAttempts, &item.AvgDurationMs); err != nil {
			return summary, fmt.Errorf("scan summary row: %w", err)
		}
		if item.Runs > 0 {
			item.SuccessRate = float64(item.Succeeded) / float64(item.Runs)
		}
		summary.Strategies = append(summary.Strategies, item)
	}
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("iterate summary rows: %w", err)
	}
	summary.Files = len(localPaths)
	return summary, nil
}

func (a *Archiver) download(ctx context.Context, key, localPath string) error {
	reader, err := a.Store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get archive %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %q: %w", localPath, err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return fmt.Errorf("download archive %q: %w", key, err)
	}
	return file.Close()
}

func quoteStringArray(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, `'`+strings.ReplaceAll(value, `'`, `''`)+`'`)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
