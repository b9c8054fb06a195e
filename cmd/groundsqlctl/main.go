package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/groundsql/groundsql/internal/cli/groundsqlctl"
)

func main() {
	timeout := parseDurationWithDefault(strings.TrimSpace(os.Getenv("GROUNDSQL_CLI_TIMEOUT")), 60*time.Second)
	options := groundsqlctl.Options{
		BaseURL:  envOr("GROUNDSQL_API_URL", "http://localhost:8080"),
		APIKey:   strings.TrimSpace(os.Getenv("GROUNDSQL_API_KEY")),
		Strategy: strings.TrimSpace(os.Getenv("GROUNDSQL_CLI_STRATEGY")),
		Timeout:  timeout,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}

	os.Exit(groundsqlctl.Run(context.Background(), os.Args[1:], options))
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid GROUNDSQL_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
