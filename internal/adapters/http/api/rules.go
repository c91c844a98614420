package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/revshare/internal/domain/model"
)

// RulesHandler handles commission rule ingestion.
type RulesHandler struct {
	deps Dependencies
}

// NewRulesHandler creates a new rules handler.
func NewRulesHandler(deps Dependencies) *RulesHandler {
	return &RulesHandler{deps: deps}
}

// ruleRequest mirrors the POST /rules body. Empty filters are wildcards.
type ruleRequest struct {
	OrgID       string          `json:"org_id"`
	Name        string          `json:"name"`
	PartnerType string          `json:"partner_type"`
	PartnerTier string          `json:"partner_tier"`
	ProductLine string          `json:"product_line"`
	MinDealSize decimal.Decimal `json:"min_deal_size"`
	Rate        decimal.Decimal `json:"rate"`
	Priority    int             `json:"priority"`
}

func (r ruleRequest) validate() error {
	switch {
	case strings.TrimSpace(r.OrgID) == "":
		return errors.New("missing org_id")
	case strings.TrimSpace(r.Name) == "":
		return errors.New("missing name")
	case r.Rate.Sign() < 0 || r.Rate.GreaterThan(decimal.NewFromInt(1)):
		return errors.New("rate must be within [0,1]")
	case r.MinDealSize.Sign() < 0:
		return errors.New("min_deal_size must not be negative")
	}
	return nil
}

// HandleCreate handles POST /rules requests.
func (h *RulesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	created, err := h.deps.AddRule(r.Context(), model.CommissionRule{
		OrgID:       req.OrgID,
		Name:        req.Name,
		PartnerType: req.PartnerType,
		PartnerTier: model.Tier(req.PartnerTier),
		ProductLine: req.ProductLine,
		MinDealSize: req.MinDealSize,
		Rate:        req.Rate,
		Priority:    req.Priority,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
