// Package attribution splits a deal's revenue across the partners that
// touched it, under one of several competing credit models.
package attribution

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/pkg/money"
)

// Model names an attribution algorithm.
type Model string

// Supported attribution models.
const (
	EqualSplit Model = "equal_split"
	FirstTouch Model = "first_touch"
	LastTouch  Model = "last_touch"
	TimeDecay  Model = "time_decay"
	RoleBased  Model = "role_based"
)

// Models lists every supported model in a stable order.
func Models() []Model {
	return []Model{EqualSplit, FirstTouch, LastTouch, TimeDecay, RoleBased}
}

// ParseModel validates a model name supplied by a caller.
func ParseModel(s string) (Model, error) {
	m := Model(s)
	switch m {
	case EqualSplit, FirstTouch, LastTouch, TimeDecay, RoleBased:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
}

// Default calculator configuration.
const (
	defaultHalfLifeDays = 14.0
	hoursPerDay         = 24.0
)

// defaultRoleWeights are the canonical per-type weights for role_based
// credit. They are configuration defaults, not a fixed contract.
func defaultRoleWeights() map[model.TouchType]float64 {
	return map[model.TouchType]float64{
		model.TouchRegistration: 2.0,
		model.TouchCoSell:       1.0,
		model.TouchIntro:        0.75,
		model.TouchContentShare: 0.5,
		model.TouchSupport:      0.25,
	}
}

// Row is one partner's share of a deal under a model.
type Row struct {
	PartnerID  string
	Percentage float64 // 0-100, two decimals, largest-remainder corrected
	Amount     decimal.Decimal
}

// Calculator computes attribution rows. It is pure: every call with the
// same inputs yields the same output, and no state is mutated.
type Calculator struct {
	halfLifeDays float64
	roleWeights  map[model.TouchType]float64
	now          func() time.Time
}

// NewCalculator creates a calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		halfLifeDays: defaultHalfLifeDays,
		roleWeights:  defaultRoleWeights(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute attributes deal.Amount across the partners appearing in touches.
// An empty touchpoint list yields an empty result, not an error. The
// calculator is partner-agnostic: it credits whatever partner ids appear.
func (c *Calculator) Compute(deal model.Deal, touches []model.Touchpoint, m Model) ([]Row, error) {
	if _, err := ParseModel(string(m)); err != nil {
		return nil, err
	}
	if deal.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidDeal, deal.Amount)
	}
	if len(touches) == 0 {
		return nil, nil
	}

	ordered := sortTouches(touches)
	partners := distinctPartners(ordered)

	var weights map[string]float64
	switch m {
	case EqualSplit:
		weights = equalWeights(partners)
	case FirstTouch:
		weights = map[string]float64{ordered[0].PartnerID: 1}
	case LastTouch:
		weights = map[string]float64{ordered[len(ordered)-1].PartnerID: 1}
	case TimeDecay:
		weights = c.decayWeights(deal, ordered)
	case RoleBased:
		weights = c.roleWeightsFor(ordered)
	}

	// Degenerate weight sets (all zero) fall back to an equal split so the
	// normalization below never divides by zero.
	if total(weights) == 0 {
		weights = equalWeights(partners)
	}

	return emit(deal, partners, weights), nil
}

// sortTouches orders by timestamp, ties broken by store insertion sequence.
func sortTouches(touches []model.Touchpoint) []model.Touchpoint {
	ordered := make([]model.Touchpoint, len(touches))
	copy(ordered, touches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].Seq < ordered[j].Seq
	})
	return ordered
}

// distinctPartners returns partner ids in order of first appearance.
func distinctPartners(ordered []model.Touchpoint) []string {
	seen := make(map[string]struct{}, len(ordered))
	var ids []string
	for _, t := range ordered {
		if _, ok := seen[t.PartnerID]; ok {
			continue
		}
		seen[t.PartnerID] = struct{}{}
		ids = append(ids, t.PartnerID)
	}
	return ids
}

func equalWeights(partners []string) map[string]float64 {
	w := make(map[string]float64, len(partners))
	for _, id := range partners {
		w[id] = 1
	}
	return w
}

// decayWeights assigns each touchpoint 2^(-ageInDays/halfLife) relative to
// the deal close time (or now for still-open deals), summed per partner.
func (c *Calculator) decayWeights(deal model.Deal, ordered []model.Touchpoint) map[string]float64 {
	ref := deal.ClosedAt
	if ref.IsZero() {
		ref = c.now()
	}
	w := make(map[string]float64)
	for _, t := range ordered {
		ageDays := ref.Sub(t.CreatedAt).Hours() / hoursPerDay
		if ageDays < 0 {
			ageDays = 0
		}
		w[t.PartnerID] += math.Exp2(-ageDays / c.halfLifeDays)
	}
	return w
}

// roleWeightsFor sums canonical per-type weights per partner. An explicit
// touchpoint weight multiplies the canonical weight for that touchpoint.
func (c *Calculator) roleWeightsFor(ordered []model.Touchpoint) map[string]float64 {
	w := make(map[string]float64)
	for _, t := range ordered {
		raw := c.roleWeights[t.Type]
		if t.Weight > 0 {
			raw *= t.Weight
		}
		w[t.PartnerID] += raw
	}
	return w
}

func total(weights map[string]float64) float64 {
	var sum float64
	for _, v := range weights {
		sum += v
	}
	return sum
}

// emit normalizes raw weights to percentages, applies largest-remainder
// correction so they sum to exactly 100.00, and derives rounded amounts.
func emit(deal model.Deal, partners []string, weights map[string]float64) []Row {
	sum := total(weights)
	rows := make([]Row, 0, len(partners))
	for _, id := range partners {
		raw := weights[id]
		if raw == 0 {
			continue
		}
		rows = append(rows, Row{
			PartnerID:  id,
			Percentage: money.RoundPct(100 * raw / sum),
		})
	}

	// Largest-remainder correction: pin the residual on the largest share
	// so the emitted percentages total exactly 100.00.
	var totalPct float64
	largest := 0
	for i, r := range rows {
		totalPct += r.Percentage
		if r.Percentage > rows[largest].Percentage {
			largest = i
		}
	}
	if residual := money.RoundPct(100 - totalPct); residual != 0 {
		rows[largest].Percentage = money.RoundPct(rows[largest].Percentage + residual)
	}

	// The amounts need their own correction: each row rounds half-up
	// independently, so with three or more partners the rounded sum can
	// drift past a cent from the deal amount.
	totalAmt := decimal.Zero
	for i := range rows {
		rows[i].Amount = money.Share(deal.Amount, rows[i].Percentage)
		totalAmt = totalAmt.Add(rows[i].Amount)
	}
	if diff := deal.Amount.Sub(totalAmt); !diff.IsZero() {
		rows[largest].Amount = rows[largest].Amount.Add(diff)
	}
	return rows
}
