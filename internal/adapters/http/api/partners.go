package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/revshare/internal/domain/model"
)

// PartnersHandler handles partner creation and per-partner score reads.
type PartnersHandler struct {
	deps Dependencies
}

// NewPartnersHandler creates a new partners handler.
func NewPartnersHandler(deps Dependencies) *PartnersHandler {
	return &PartnersHandler{deps: deps}
}

// partnerRequest mirrors the POST /partners body.
type partnerRequest struct {
	OrgID    string          `json:"org_id"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Tier     string          `json:"tier"`
	BaseRate decimal.Decimal `json:"base_rate"`
}

func (p partnerRequest) validate() error {
	switch {
	case strings.TrimSpace(p.OrgID) == "":
		return errors.New("missing org_id")
	case strings.TrimSpace(p.Name) == "":
		return errors.New("missing name")
	case p.BaseRate.Sign() < 0 || p.BaseRate.GreaterThan(decimal.NewFromInt(1)):
		return errors.New("base_rate must be within [0,1]")
	}
	return nil
}

// HandleCreate handles POST /partners requests.
func (h *PartnersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req partnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	created, err := h.deps.AddPartner(r.Context(), model.Partner{
		OrgID:    req.OrgID,
		Name:     req.Name,
		Type:     req.Type,
		Tier:     model.Tier(req.Tier),
		BaseRate: req.BaseRate,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleScore handles GET /partners/{id}/score requests.
func (h *PartnersHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/partners/")
	if len(segs) != 2 || segs[1] != "score" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	score, err := h.deps.PartnerScore(r.Context(), segs[0])
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}
