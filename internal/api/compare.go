package api

import (
	"net/http"
	"strings"

	"github.com/groundsql/groundsql/internal/compare"
	"github.com/groundsql/groundsql/internal/nl2sql"
)

type compareRequest struct {
	Question string `json:"question"`
}

func (h *handlers) handleCompare(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	if len(h.deps.Strategies) == 0 {
		writeError(r.Context(), w, http.StatusNotImplemented, "STRATEGIES_NOT_CONFIGURED", "no generation strategies are configured", false, nil)
		return
	}

	var req compareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	runner := &compare.Runner{
		Strategies: h.deps.Strategies,
		Store:      h.deps.Store,
		RowLimit:   h.cfg.Generation.ResultRowLimit,
		Logger:     h.deps.Logger,
	}
	report, err := runner.Run(r.Context(), req.Question)
	if err != nil {
		writeDomainError(r.Context(), w, "COMPARE_FAILED", "failed to compare strategies", err)
		return
	}

	results := make([]nl2sql.Result, 0, len(report.Outcomes))
	for _, outcome := range report.Outcomes {
		results = append(results, outcome.Result)
	}
	h.archiveRuns(r.Context(), req.Question, results...)
	writeJSON(w, http.StatusOK, report)
}
