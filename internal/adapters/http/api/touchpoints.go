package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/revshare/internal/domain/model"
)

// TouchpointsHandler handles touchpoint ingestion.
type TouchpointsHandler struct {
	deps Dependencies
}

// NewTouchpointsHandler creates a new touchpoints handler.
func NewTouchpointsHandler(deps Dependencies) *TouchpointsHandler {
	return &TouchpointsHandler{deps: deps}
}

// touchpointRequest mirrors the POST /touchpoints body.
type touchpointRequest struct {
	DealID    string  `json:"deal_id"`
	PartnerID string  `json:"partner_id"`
	Type      string  `json:"type"`
	Weight    float64 `json:"weight"`
	TS        string  `json:"ts"`
}

func (t touchpointRequest) validate() error {
	switch {
	case strings.TrimSpace(t.DealID) == "":
		return errors.New("missing deal_id")
	case strings.TrimSpace(t.PartnerID) == "":
		return errors.New("missing partner_id")
	case strings.TrimSpace(t.Type) == "":
		return errors.New("missing type")
	case t.Weight < 0:
		return errors.New("weight must not be negative")
	}
	if t.TS != "" {
		if _, err := time.Parse(time.RFC3339, t.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// HandleCreate handles POST /touchpoints requests.
func (h *TouchpointsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req touchpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	touch := model.Touchpoint{
		DealID:    req.DealID,
		PartnerID: req.PartnerID,
		Type:      model.TouchType(req.Type),
		Weight:    req.Weight,
	}
	if req.TS != "" {
		touch.CreatedAt, _ = time.Parse(time.RFC3339, req.TS)
	}
	created, err := h.deps.AddTouchpoint(r.Context(), touch)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
