package api

import (
	"net/http"
	"strings"

	"github.com/groundsql/groundsql/internal/compare"
)

type generateRequest struct {
	Question string `json:"question"`
	Strategy string `json:"strategy"`
	Execute  bool   `json:"execute"`
}

func (h *handlers) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}

	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	strategy, ok := h.strategy(req.Strategy)
	if !ok {
		writeError(r.Context(), w, http.StatusBadRequest, "UNKNOWN_STRATEGY", "unknown generation strategy", false, map[string]any{
			"strategy":  req.Strategy,
			"available": h.strategyNames(),
		})
		return
	}

	cat, ok := h.loadSchema(w, r)
	if !ok {
		return
	}

	result := strategy.Generate(r.Context(), req.Question, cat)
	outcome := compare.Outcome{Result: result}
	if req.Execute && result.Success {
		executed, err := compare.Execute(r.Context(), h.deps.Store, result, h.cfg.Generation.ResultRowLimit)
		if err != nil {
			executed.Result.Success = false
			executed.Result.ErrorMessage = err.Error()
			executed.Result.Err = err
		}
		outcome = executed
	}

	h.archiveRuns(r.Context(), req.Question, outcome.Result)
	writeJSON(w, http.StatusOK, outcome)
}
