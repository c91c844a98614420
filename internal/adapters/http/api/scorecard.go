package api

import (
	"errors"
	"net/http"
)

// ScorecardHandler handles batch scorecard reads.
type ScorecardHandler struct {
	deps Dependencies
}

// NewScorecardHandler creates a new scorecard handler.
func NewScorecardHandler(deps Dependencies) *ScorecardHandler {
	return &ScorecardHandler{deps: deps}
}

// HandleGet handles GET /scorecard?org_id=X requests. The whole peer
// population is scored in one batch so scaling denominators are consistent.
func (h *ScorecardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	orgID := r.URL.Query().Get("org_id")
	if orgID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing org_id query parameter"))
		return
	}
	scores, err := h.deps.Scorecard(r.Context(), orgID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
