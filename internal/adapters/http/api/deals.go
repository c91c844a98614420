package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/revshare/internal/domain/model"
)

// DealsHandler handles deal creation, close, and per-deal reads.
type DealsHandler struct {
	deps Dependencies
}

// NewDealsHandler creates a new deals handler.
func NewDealsHandler(deps Dependencies) *DealsHandler {
	return &DealsHandler{deps: deps}
}

// dealRequest mirrors the POST /deals body.
type dealRequest struct {
	OrgID        string          `json:"org_id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	ProductLine  string          `json:"product_line"`
	RegisteredBy string          `json:"registered_by"`
	ExpectedAt   string          `json:"expected_at"`
}

func (d dealRequest) validate() error {
	switch {
	case strings.TrimSpace(d.OrgID) == "":
		return errors.New("missing org_id")
	case strings.TrimSpace(d.Name) == "":
		return errors.New("missing name")
	case d.Amount.Sign() <= 0:
		return errors.New("amount must be positive")
	}
	if d.ExpectedAt != "" {
		if _, err := time.Parse(time.RFC3339, d.ExpectedAt); err != nil {
			return errors.New("invalid expected_at; must be RFC3339")
		}
	}
	return nil
}

// HandleCreate handles POST /deals requests.
func (h *DealsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	deal := model.Deal{
		OrgID:        req.OrgID,
		Name:         req.Name,
		Amount:       req.Amount,
		ProductLine:  req.ProductLine,
		RegisteredBy: req.RegisteredBy,
	}
	if req.ExpectedAt != "" {
		deal.ExpectedAt, _ = time.Parse(time.RFC3339, req.ExpectedAt)
	}
	created, err := h.deps.CreateDeal(r.Context(), deal)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// closeRequest mirrors the POST /deals/{id}/close body.
type closeRequest struct {
	Won bool `json:"won"`
}

// HandleDealSubpath routes GET /deals/{id}, POST /deals/{id}/close,
// GET /deals/{id}/attributions and GET /deals/{id}/commissions.
func (h *DealsHandler) HandleDealSubpath(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/deals/")
	switch {
	case len(segs) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "close" && r.Method == http.MethodPost:
		h.handleClose(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "attributions" && r.Method == http.MethodGet:
		h.handleAttributions(w, r, segs[0])
	case len(segs) == 2 && segs[1] == "commissions" && r.Method == http.MethodGet:
		h.handleCommissions(w, r, segs[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *DealsHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	deal, err := h.deps.Deal(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (h *DealsHandler) handleClose(w http.ResponseWriter, r *http.Request, id string) {
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	deal, err := h.deps.CloseDeal(r.Context(), id, req.Won)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	// Recomputation of attribution models is asynchronous.
	writeJSON(w, http.StatusAccepted, deal)
}

// attributionRow mirrors one computed attribution share on the wire.
type attributionRow struct {
	PartnerID  string          `json:"partner_id"`
	Percentage float64         `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

func (h *DealsHandler) handleAttributions(w http.ResponseWriter, r *http.Request, id string) {
	modelName := r.URL.Query().Get("model")
	if modelName == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing model query parameter"))
		return
	}

	// source=stored returns the rows persisted by the recompute workers;
	// the default computes fresh rows from the current touchpoint log.
	if r.URL.Query().Get("source") == "stored" {
		rows, err := h.deps.StoredAttributions(r.Context(), id, modelName)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
		return
	}

	rows, err := h.deps.Attributions(r.Context(), id, modelName)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]attributionRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, attributionRow{
			PartnerID:  row.PartnerID,
			Percentage: row.Percentage,
			Amount:     row.Amount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// commissionRow mirrors one commission computation on the wire.
type commissionRow struct {
	PartnerID   string          `json:"partner_id"`
	Percentage  float64         `json:"percentage"`
	Attributed  decimal.Decimal `json:"attributed_amount"`
	Commission  decimal.Decimal `json:"commission_amount"`
	AppliedRule string          `json:"applied_rule"`
}

func (h *DealsHandler) handleCommissions(w http.ResponseWriter, r *http.Request, id string) {
	modelName := r.URL.Query().Get("model")
	if modelName == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing model query parameter"))
		return
	}
	rows, err := h.deps.Commissions(r.Context(), id, modelName)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]commissionRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, commissionRow{
			PartnerID:   row.PartnerID,
			Percentage:  row.Percentage,
			Attributed:  row.Attributed,
			Commission:  row.Commission,
			AppliedRule: row.AppliedRule,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
