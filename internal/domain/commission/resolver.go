// Package commission resolves commission rates through a priority-ordered
// rule set and computes per-partner commission amounts for won deals.
package commission

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/okian/revshare/internal/domain/model"
)

// DefaultRuleName labels the synthetic rule applied when nothing matches.
const DefaultRuleName = "partner default"

// Resolved is the outcome of matching a partner/deal pair against a rule
// set: either a concrete rule or the partner's own base rate.
type Resolved struct {
	Rule     *model.CommissionRule // nil when the default applied
	Rate     decimal.Decimal
	RuleName string
	Default  bool
}

// ResolveRule walks rules in (priority asc, insertion sequence asc) order
// and returns the first rule whose specified filters all match; unspecified
// filters are wildcards. This is first-match, not best-match: authors order
// rules most-specific-first via lower priority numbers. When no rule
// matches, a synthetic default carrying the partner's base rate is returned.
//
// The resolution is a pure function of its inputs; re-running with the same
// rule set and inputs is idempotent.
func ResolveRule(partner model.Partner, dealAmount decimal.Decimal, productLine string, rules []model.CommissionRule) (Resolved, error) {
	if dealAmount.Sign() < 0 {
		return Resolved{}, fmt.Errorf("%w: negative amount %s", ErrInvalidDeal, dealAmount)
	}

	ordered := make([]model.CommissionRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	for i := range ordered {
		if matches(&ordered[i], partner, dealAmount, productLine) {
			return Resolved{
				Rule:     &ordered[i],
				Rate:     ordered[i].Rate,
				RuleName: ordered[i].Name,
			}, nil
		}
	}

	return Resolved{
		Rate:     partner.BaseRate,
		RuleName: DefaultRuleName,
		Default:  true,
	}, nil
}

func matches(r *model.CommissionRule, partner model.Partner, dealAmount decimal.Decimal, productLine string) bool {
	if r.PartnerType != "" && r.PartnerType != partner.Type {
		return false
	}
	if r.PartnerTier != "" && r.PartnerTier != partner.Tier {
		return false
	}
	if r.ProductLine != "" && r.ProductLine != productLine {
		return false
	}
	if r.MinDealSize.Sign() > 0 && dealAmount.LessThan(r.MinDealSize) {
		return false
	}
	return true
}
