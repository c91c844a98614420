// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus enumerates the lifecycle states of a deal.
type DealStatus string

// Deal lifecycle states.
const (
	DealOpen DealStatus = "open"
	DealWon  DealStatus = "won"
	DealLost DealStatus = "lost"
)

// TouchType enumerates the recorded kinds of partner interaction.
type TouchType string

// Touchpoint interaction kinds.
const (
	TouchRegistration TouchType = "registration"
	TouchCoSell       TouchType = "co_sell"
	TouchIntro        TouchType = "intro"
	TouchContentShare TouchType = "content_share"
	TouchSupport      TouchType = "support"
)

// Tier is a partner's program level.
type Tier string

// Partner program tiers, lowest to highest.
const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// tierOrder maps tiers to a comparable rank for upgrade/downgrade decisions.
var tierOrder = map[Tier]int{
	TierBronze:   0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
}

// Compare returns -1, 0 or 1 as t sorts below, equal to or above other.
// Unknown tiers rank below bronze.
func (t Tier) Compare(other Tier) int {
	a, b := tierOrder[t], tierOrder[other]
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// TierChange classifies a recommended tier against the current one.
type TierChange string

// Tier change classifications.
const (
	TierUpgrade   TierChange = "upgrade"
	TierDowngrade TierChange = "downgrade"
	TierMaintain  TierChange = "maintain"
)

// Trend indicates score movement against the prior period.
type Trend string

// Score trends.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Deal is a revenue opportunity tracked against an organization.
// Amount and Status are the only fields the engine reads; the rest is
// carried for the surrounding dashboard.
type Deal struct {
	ID           string          `json:"id"`
	OrgID        string          `json:"org_id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Status       DealStatus      `json:"status"`
	ProductLine  string          `json:"product_line,omitempty"`
	RegisteredBy string          `json:"registered_by,omitempty"` // partner id, optional
	ExpectedAt   time.Time       `json:"expected_at,omitzero"`
	ClosedAt     time.Time       `json:"closed_at,omitzero"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Partner is a channel partner enrolled in the program.
type Partner struct {
	ID        string          `json:"id"`
	OrgID     string          `json:"org_id"`
	Name      string          `json:"name"`
	Type      string          `json:"type,omitempty"` // e.g. reseller, referral, integrator
	Tier      Tier            `json:"tier"`
	BaseRate  decimal.Decimal `json:"base_rate"` // fallback commission rate, 0-1
	CreatedAt time.Time       `json:"created_at"`
}

// Touchpoint is a single recorded partner interaction against a deal.
// Touchpoints are append-only; Seq is assigned by the store and makes
// insertion order an explicit, testable tie-breaker.
type Touchpoint struct {
	ID        string    `json:"id"`
	DealID    string    `json:"deal_id"`
	PartnerID string    `json:"partner_id"`
	Type      TouchType `json:"type"`
	Weight    float64   `json:"weight,omitempty"` // explicit override; 0 means unset
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// CommissionRule yields a commission rate for matching partner/deal pairs.
// Empty filter fields are wildcards. Rules are totally ordered by
// (Priority asc, Seq asc); Seq is the store-assigned insertion sequence.
type CommissionRule struct {
	ID          string          `json:"id"`
	OrgID       string          `json:"org_id"`
	Name        string          `json:"name"`
	PartnerType string          `json:"partner_type,omitempty"`
	PartnerTier Tier            `json:"partner_tier,omitempty"`
	ProductLine string          `json:"product_line,omitempty"`
	MinDealSize decimal.Decimal `json:"min_deal_size,omitempty"`
	Rate        decimal.Decimal `json:"rate"` // 0-1
	Priority    int             `json:"priority"`
	Seq         int64           `json:"seq"`
}

// Attribution is one derived credit row: a partner's share of a deal's
// value under a named model. Rows for a (deal, model) pair are replaced
// wholesale on recomputation, never edited.
type Attribution struct {
	ID         string          `json:"id"`
	DealID     string          `json:"deal_id"`
	PartnerID  string          `json:"partner_id"`
	Model      string          `json:"model"`
	Percentage float64         `json:"percentage"` // 0-100, two decimals
	Amount     decimal.Decimal `json:"amount"`
	Commission decimal.Decimal `json:"commission"`
	RuleName   string          `json:"rule_name,omitempty"`
	ComputedAt time.Time       `json:"computed_at"`
}

// DimensionScore is one axis of a partner scorecard.
type DimensionScore struct {
	Score  float64 `json:"score"`  // 0-100
	Weight float64 `json:"weight"` // normalized share of the overall score
	Detail string  `json:"detail"`
}

// PartnerScore is the composite scorecard for one partner, recomputed on
// read against the full peer population.
type PartnerScore struct {
	PartnerID       string         `json:"partner_id"`
	Revenue         DimensionScore `json:"revenue"`
	Pipeline        DimensionScore `json:"pipeline"`
	Engagement      DimensionScore `json:"engagement"`
	Velocity        DimensionScore `json:"velocity"`
	Overall         int            `json:"overall"` // 0-100
	CurrentTier     Tier           `json:"current_tier"`
	RecommendedTier Tier           `json:"recommended_tier"`
	TierChange      TierChange     `json:"tier_change"`
	Trend           Trend          `json:"trend"`
	Rank            int            `json:"rank"`
	Highlights      []string       `json:"highlights,omitempty"`
}
