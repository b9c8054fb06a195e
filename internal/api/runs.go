package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/groundsql/groundsql/internal/auth"
)

func (h *handlers) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	if err := auth.RequireRole(r.Context(), auth.RoleSQLGenerator); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}
	if h.deps.Archiver == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ARCHIVE_NOT_CONFIGURED", "run archive is not enabled", false, nil)
		return
	}

	day := h.now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD", false, map[string]any{"date": raw})
			return
		}
		day = parsed
	}

	summary, err := h.deps.Archiver.Summarize(r.Context(), day)
	if err != nil {
		writeDomainError(r.Context(), w, "SUMMARY_FAILED", "failed to summarize archived runs", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
