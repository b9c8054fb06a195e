package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/groundsql/groundsql/internal/archive"
	"github.com/groundsql/groundsql/internal/auth"
	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/config"
	"github.com/groundsql/groundsql/internal/datastore"
	"github.com/groundsql/groundsql/internal/nl2sql"
	"github.com/groundsql/groundsql/internal/observability"
)

type handlers struct {
	cfg  config.Config
	deps Dependencies
}

// authorize writes the error response and returns false when the request
// may not use the generation routes.
func (h *handlers) authorize(w http.ResponseWriter, r *http.Request) bool {
	if err := auth.RequireRole(r.Context(), auth.RoleSQLGenerator); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return false
	}
	if h.deps.Store == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "DATASTORE_NOT_CONFIGURED", "datastore dependency is not configured", false, nil)
		return false
	}
	return true
}

func (h *handlers) loadSchema(w http.ResponseWriter, r *http.Request) (catalog.Catalog, bool) {
	cat, err := h.deps.Store.Schema(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, "SCHEMA_FETCH_FAILED", "failed to load schema", err)
		return catalog.Catalog{}, false
	}
	return cat, true
}

func (h *handlers) strategy(name string) (nl2sql.Strategy, bool) {
	if strings.TrimSpace(name) == "" {
		name = nl2sql.ToolStrategyName
	}
	for _, strategy := range h.deps.Strategies {
		if strings.EqualFold(strategy.Name(), name) {
			return strategy, true
		}
	}
	return nil, false
}

func (h *handlers) strategyNames() []string {
	names := make([]string, 0, len(h.deps.Strategies))
	for _, strategy := range h.deps.Strategies {
		names = append(names, strategy.Name())
	}
	return names
}

// archiveRuns stores one record per result. Failures are logged and counted
// but never surface to the caller.
func (h *handlers) archiveRuns(ctx context.Context, question string, results ...nl2sql.Result) {
	if h.deps.Archiver == nil || len(results) == 0 {
		return
	}
	createdAt := h.now()
	records := make([]archive.Record, 0, len(results))
	for _, result := range results {
		records = append(records, archive.NewRecord(question, result, createdAt))
	}

	info, err := h.deps.Archiver.Write(ctx, records)
	observability.ObserveArchiveWrite(err)
	if h.deps.Logger == nil {
		return
	}
	if err != nil {
		h.deps.Logger.WarnContext(ctx, "archive write failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("error", err.Error()),
		)
		return
	}
	h.deps.Logger.DebugContext(ctx, "runs archived",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("key", info.Key),
		slog.Int("records", len(records)),
	)
}

func (h *handlers) now() time.Time {
	if h.deps.Now != nil {
		return h.deps.Now()
	}
	return time.Now()
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return false
	}
	return true
}

// writeDomainError maps datastore and generation sentinels onto HTTP errors.
func writeDomainError(ctx context.Context, w http.ResponseWriter, code, message string, err error) {
	details := map[string]any{"details": err.Error()}
	switch {
	case errors.Is(err, nl2sql.ErrEmptyQuestion):
		writeError(ctx, w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
	case errors.Is(err, datastore.ErrConnectivity):
		writeError(ctx, w, http.StatusServiceUnavailable, "DATASTORE_UNAVAILABLE", message, true, details)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(ctx, w, http.StatusGatewayTimeout, "TIMEOUT", message, true, details)
	case errors.Is(err, catalog.ErrUnknownReference):
		writeError(ctx, w, http.StatusInternalServerError, "SCHEMA_INVALID", message, false, details)
	default:
		writeError(ctx, w, http.StatusInternalServerError, code, message, true, details)
	}
}
