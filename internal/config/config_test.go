package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("groundsql-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Datastore.Dialect != "postgres" {
		t.Fatalf("Datastore.Dialect = %q", cfg.Datastore.Dialect)
	}
	if cfg.Generation.MaxAttempts != 3 {
		t.Fatalf("Generation.MaxAttempts = %d", cfg.Generation.MaxAttempts)
	}
	if !cfg.Generation.FeedbackOnRetry {
		t.Fatal("Generation.FeedbackOnRetry should default to true")
	}
	if cfg.Generation.AllowWrites {
		t.Fatal("Generation.AllowWrites should default to false")
	}
	if cfg.AI.Temperature != 0 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.CoTTemperature != 0.1 {
		t.Fatalf("AI.CoTTemperature = %f", cfg.AI.CoTTemperature)
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
}

func TestLoadTestProfileUsesSQLite(t *testing.T) {
	cfg, err := Load("groundsql-api", mapLookup(map[string]string{"GROUNDSQL_PROFILE": "test"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Datastore.Dialect != "sqlite" {
		t.Fatalf("Datastore.Dialect = %q", cfg.Datastore.Dialect)
	}
	if cfg.HTTP.Address != ":18080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("groundsql-api", mapLookup(map[string]string{"GROUNDSQL_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
	if cfg.ObjectStore.AutoCreateBucket {
		t.Fatal("ObjectStore.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"GROUNDSQL_SERVICE_NAME":                 "groundsql-custom",
		"GROUNDSQL_HTTP_ADDR":                    ":9999",
		"GROUNDSQL_HTTP_READ_TIMEOUT":            "2s",
		"GROUNDSQL_DATASTORE_DIALECT":            "DuckDB",
		"GROUNDSQL_DATASTORE_DSN":                "/tmp/shop.duckdb",
		"GROUNDSQL_DATASTORE_MAX_OPEN_CONNS":     "4",
		"GROUNDSQL_AI_BASE_URL":                  "https://llm.example.com",
		"GROUNDSQL_AI_API_KEY":                   "secret-key",
		"GROUNDSQL_AI_MODEL":                     "gpt-4.1",
		"GROUNDSQL_AI_TEMPERATURE":               "0.05",
		"GROUNDSQL_AI_TIMEOUT":                   "21s",
		"GROUNDSQL_GENERATION_MAX_ATTEMPTS":      "0",
		"GROUNDSQL_GENERATION_FEEDBACK_ON_RETRY": "false",
		"GROUNDSQL_GENERATION_RESULT_ROW_LIMIT":  "50",
		"GROUNDSQL_ARCHIVE_ENABLED":              "true",
		"GROUNDSQL_OBJECTSTORE_BUCKET":           "runs",
		"GROUNDSQL_OBJECTSTORE_PREFIX":           "groundsql/dev",
		"GROUNDSQL_LOG_LEVEL":                    "error",
		"GROUNDSQL_LOG_JSON":                     "false",
		"GROUNDSQL_AUTH_REQUIRED":                "true",
		"GROUNDSQL_AUTH_STATIC_KEYS":             "k1:alice:sql_generator",
	})
	cfg, err := Load("groundsql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "groundsql-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Datastore.Dialect != "duckdb" {
		t.Fatalf("Datastore.Dialect = %q", cfg.Datastore.Dialect)
	}
	if cfg.Datastore.DSN != "/tmp/shop.duckdb" {
		t.Fatalf("Datastore.DSN = %q", cfg.Datastore.DSN)
	}
	if cfg.Datastore.MaxOpenConns != 4 {
		t.Fatalf("Datastore.MaxOpenConns = %d", cfg.Datastore.MaxOpenConns)
	}
	if cfg.AI.BaseURL != "https://llm.example.com" || cfg.AI.APIKey != "secret-key" || cfg.AI.Model != "gpt-4.1" {
		t.Fatalf("AI = %+v", cfg.AI)
	}
	if cfg.AI.Temperature != 0.05 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.Generation.MaxAttempts != 0 {
		t.Fatalf("Generation.MaxAttempts = %d", cfg.Generation.MaxAttempts)
	}
	if cfg.Generation.FeedbackOnRetry {
		t.Fatal("Generation.FeedbackOnRetry = true, want false")
	}
	if cfg.Generation.ResultRowLimit != 50 {
		t.Fatalf("Generation.ResultRowLimit = %d", cfg.Generation.ResultRowLimit)
	}
	if !cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled = false, want true")
	}
	if cfg.ObjectStore.Bucket != "runs" || cfg.ObjectStore.Prefix != "groundsql/dev" {
		t.Fatalf("ObjectStore = %+v", cfg.ObjectStore)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogJSON {
		t.Fatal("LogJSON = true, want false")
	}
	if !cfg.Auth.Required || cfg.Auth.StaticKeys != "k1:alice:sql_generator" {
		t.Fatalf("Auth = %+v", cfg.Auth)
	}
}

func TestLoadAcceptsMySQLDialect(t *testing.T) {
	cfg, err := Load("groundsql-api", mapLookup(map[string]string{
		"GROUNDSQL_DATASTORE_DIALECT": "MySQL",
		"GROUNDSQL_DATASTORE_DSN":     "shop:secret@tcp(localhost:3306)/shop",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Datastore.Dialect != "mysql" {
		t.Fatalf("Datastore.Dialect = %q", cfg.Datastore.Dialect)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"GROUNDSQL_PROFILE": "oops"},
		{"GROUNDSQL_HTTP_READ_TIMEOUT": "NaN"},
		{"GROUNDSQL_DATASTORE_DIALECT": "oracle"},
		{"GROUNDSQL_DATASTORE_MAX_OPEN_CONNS": "oops"},
		{"GROUNDSQL_AI_TEMPERATURE": "bad"},
		{"GROUNDSQL_GENERATION_MAX_ATTEMPTS": "-1"},
		{"GROUNDSQL_GENERATION_RESULT_ROW_LIMIT": "-5"},
		{"GROUNDSQL_AUTH_REQUIRED": "not-bool"},
		{"GROUNDSQL_LOG_LEVEL": "verbose"},
		{"GROUNDSQL_HTTP_ADDR": ""},
	}
	for _, env := range tests {
		_, err := Load("groundsql-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
