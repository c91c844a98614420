// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/revshare/internal/adapters/repository"
	"github.com/okian/revshare/internal/domain/attribution"
	"github.com/okian/revshare/internal/domain/commission"
	"github.com/okian/revshare/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateDeal(ctx context.Context, d model.Deal) (model.Deal, error)
	Deal(ctx context.Context, id string) (model.Deal, error)
	CloseDeal(ctx context.Context, dealID string, won bool) (model.Deal, error)

	AddPartner(ctx context.Context, p model.Partner) (model.Partner, error)
	AddTouchpoint(ctx context.Context, t model.Touchpoint) (model.Touchpoint, error)
	AddRule(ctx context.Context, r model.CommissionRule) (model.CommissionRule, error)

	Attributions(ctx context.Context, dealID, modelName string) ([]attribution.Row, error)
	StoredAttributions(ctx context.Context, dealID, modelName string) ([]model.Attribution, error)
	Commissions(ctx context.Context, dealID, modelName string) ([]commission.Row, error)

	Scorecard(ctx context.Context, orgID string) ([]model.PartnerScore, error)
	PartnerScore(ctx context.Context, partnerID string) (model.PartnerScore, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dealsHandler     *DealsHandler
	partnersHandler  *PartnersHandler
	touchHandler     *TouchpointsHandler
	rulesHandler     *RulesHandler
	scorecardHandler *ScorecardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		dealsHandler:     NewDealsHandler(deps),
		partnersHandler:  NewPartnersHandler(deps),
		touchHandler:     NewTouchpointsHandler(deps),
		rulesHandler:     NewRulesHandler(deps),
		scorecardHandler: NewScorecardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/deals", MetricsMiddleware(s.dealsHandler.HandleCreate, "deals"))
	mux.HandleFunc("/deals/", MetricsMiddleware(s.dealsHandler.HandleDealSubpath, "deals"))
	mux.HandleFunc("/partners", MetricsMiddleware(s.partnersHandler.HandleCreate, "partners"))
	mux.HandleFunc("/partners/", MetricsMiddleware(s.partnersHandler.HandleScore, "partner_score"))
	mux.HandleFunc("/touchpoints", MetricsMiddleware(s.touchHandler.HandleCreate, "touchpoints"))
	mux.HandleFunc("/rules", MetricsMiddleware(s.rulesHandler.HandleCreate, "rules"))
	mux.HandleFunc("/scorecard", MetricsMiddleware(s.scorecardHandler.HandleGet, "scorecard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEngineError translates engine error kinds to HTTP responses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrDealNotFound),
		errors.Is(err, repository.ErrPartnerNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, attribution.ErrUnknownModel):
		writeError(w, http.StatusBadRequest, "unknown_model", err)
	case errors.Is(err, attribution.ErrInvalidDeal),
		errors.Is(err, commission.ErrInvalidDeal),
		errors.Is(err, repository.ErrDealImmutable),
		errors.Is(err, repository.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, commission.ErrPartnerNotFound):
		writeError(w, http.StatusUnprocessableEntity, "partner_not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// pathSegments splits the path below prefix into its non-empty segments.
func pathSegments(path, prefix string) []string {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
