package commission

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/okian/revshare/internal/domain/attribution"
	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/pkg/money"
)

// Row is one partner's payable share of a won deal: the attribution output
// joined with the resolved commission rate, rounded to currency precision.
type Row struct {
	PartnerID   string
	Percentage  float64
	Attributed  decimal.Decimal
	Commission  decimal.Decimal
	AppliedRule string
}

// Calculator composes the attribution calculator and the rule resolver.
type Calculator struct {
	attrib *attribution.Calculator
}

// NewCalculator creates a commission calculator over the given attribution
// calculator.
func NewCalculator(attrib *attribution.Calculator) *Calculator {
	return &Calculator{attrib: attrib}
}

// Compute produces commission rows for a won deal. Either a complete set
// of rows is returned or a typed error, never a partial result. Deals that are not won are rejected: commission exists
// only for closed-won revenue, and the status gate is asserted here even
// though callers are expected to uphold it.
func (c *Calculator) Compute(deal model.Deal, touches []model.Touchpoint, rules []model.CommissionRule, partners map[string]model.Partner, m attribution.Model) ([]Row, error) {
	if deal.Status != model.DealWon {
		return nil, fmt.Errorf("%w: deal %s is %s, not won", ErrInvalidDeal, deal.ID, deal.Status)
	}

	shares, err := c.attrib.Compute(deal, touches, m)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(shares))
	for _, share := range shares {
		partner, ok := partners[share.PartnerID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPartnerNotFound, share.PartnerID)
		}
		resolved, err := ResolveRule(partner, deal.Amount, deal.ProductLine, rules)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			PartnerID:   share.PartnerID,
			Percentage:  share.Percentage,
			Attributed:  share.Amount,
			Commission:  money.Round2(share.Amount.Mul(resolved.Rate)),
			AppliedRule: resolved.RuleName,
		})
	}
	return rows, nil
}
