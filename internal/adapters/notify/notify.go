// Package notify declares the payout announcement dispatcher consumed by
// the host after commission computation.
package notify

import (
	"context"

	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/pkg/logger"
)

// Notifier announces approved payouts once commissions are computed.
// Implementations must not block the caller; failures are the dispatcher's
// problem, not the engine's.
type Notifier interface {
	PayoutsComputed(ctx context.Context, deal model.Deal, rows []model.Attribution)
}

// LogNotifier is the default dispatcher: it records payout announcements in
// the service log. Real deployments swap in an email or webhook dispatcher.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.Get().Named("notify")}
}

// PayoutsComputed logs one line per payable partner.
func (n *LogNotifier) PayoutsComputed(ctx context.Context, deal model.Deal, rows []model.Attribution) {
	for _, r := range rows {
		n.log.Info(ctx, "payout candidate",
			logger.String("dealID", deal.ID),
			logger.String("partnerID", r.PartnerID),
			logger.String("model", r.Model),
			logger.String("commission", r.Commission.StringFixed(2)),
			logger.String("rule", r.RuleName),
		)
	}
}
