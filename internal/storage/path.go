package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

const runArchiveRoot = "runs"

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildRunArchivePath places a batch of run records under an hourly
// partition named after the batch's first run id.
func BuildRunArchivePath(createdAt time.Time, firstRunID string) (string, error) {
	if err := validatePathComponent(firstRunID, "run id"); err != nil {
		return "", err
	}
	if createdAt.IsZero() {
		return "", fmt.Errorf("created at is required")
	}

	ts := createdAt.UTC()
	return path.Join(
		runArchiveRoot,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("hour=%02d", ts.Hour()),
		fmt.Sprintf("run-%s.parquet", firstRunID),
	), nil
}

// BuildRunArchiveDayPrefix is the listing prefix for one UTC day of runs.
func BuildRunArchiveDayPrefix(day time.Time) string {
	ts := day.UTC()
	return fmt.Sprintf("%s/date=%04d-%02d-%02d/", runArchiveRoot, ts.Year(), ts.Month(), ts.Day())
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
