// Package repository defines the record store interface and errors.
//
// The store is the engine's only stateful collaborator: get-by-id reads,
// org-scoped scans, and atomic single-document patches. Attribution rows
// for a (deal, model) pair are replaced wholesale behind a per-pair writer
// lock, which is what lets the calling layer treat recomputation of a pair
// as one logical unit of work.
package repository

import (
	"context"
	"time"

	"github.com/okian/revshare/internal/domain/model"
)

// Store provides read/write access to engine records.
type Store interface {
	// PutDeal inserts or replaces a deal. Lost deals are immutable.
	PutDeal(ctx context.Context, d model.Deal) (model.Deal, error)
	// Deal returns a deal by id, or ErrDealNotFound.
	Deal(ctx context.Context, id string) (model.Deal, error)
	// DealsByOrg returns all deals for an organization, ordered by creation.
	DealsByOrg(ctx context.Context, orgID string) ([]model.Deal, error)
	// PatchDealStatus atomically transitions a deal's status, stamping the
	// close time on won/lost. Lost deals reject further patches.
	PatchDealStatus(ctx context.Context, id string, status model.DealStatus, closedAt time.Time) (model.Deal, error)

	// PutPartner inserts or replaces a partner.
	PutPartner(ctx context.Context, p model.Partner) (model.Partner, error)
	// Partner returns a partner by id, or ErrPartnerNotFound.
	Partner(ctx context.Context, id string) (model.Partner, error)
	// PartnersByOrg returns all partners for an organization.
	PartnersByOrg(ctx context.Context, orgID string) ([]model.Partner, error)

	// AppendTouchpoint appends to a deal's interaction log, assigning the
	// insertion sequence and defaulting the timestamp.
	AppendTouchpoint(ctx context.Context, t model.Touchpoint) (model.Touchpoint, error)
	// TouchpointsByDeal returns a deal's log ordered by (timestamp, seq).
	TouchpointsByDeal(ctx context.Context, dealID string) ([]model.Touchpoint, error)
	// TouchpointsByOrg returns every touchpoint across an org's deals.
	TouchpointsByOrg(ctx context.Context, orgID string) ([]model.Touchpoint, error)

	// PutRule inserts a commission rule, assigning the insertion sequence
	// used as the stable tie-breaker between equal priorities.
	PutRule(ctx context.Context, r model.CommissionRule) (model.CommissionRule, error)
	// RulesByOrg returns an org's rules ordered by (priority, seq).
	RulesByOrg(ctx context.Context, orgID string) ([]model.CommissionRule, error)

	// ReplaceAttributions atomically swaps all rows for (dealID, model).
	// Concurrent replacements for the same pair are serialized.
	ReplaceAttributions(ctx context.Context, dealID, attributionModel string, rows []model.Attribution) error
	// AttributionsByDeal returns the stored rows for (dealID, model).
	AttributionsByDeal(ctx context.Context, dealID, attributionModel string) ([]model.Attribution, error)
	// AttributionsByOrg returns the stored rows for a model across an org.
	AttributionsByOrg(ctx context.Context, orgID, attributionModel string) ([]model.Attribution, error)

	// SaveScoreSnapshot stores the latest overall scores for an org,
	// stamped with the store clock, becoming the prior period for trend
	// computation until the caller decides it has aged out.
	SaveScoreSnapshot(ctx context.Context, orgID string, overall map[string]int) error
	// PriorScores returns the previously saved snapshot and the time it
	// was taken. A zero time means no snapshot exists yet.
	PriorScores(ctx context.Context, orgID string) (map[string]int, time.Time, error)

	// Counts returns record tallies for monitoring.
	Counts(ctx context.Context) map[string]int
}
