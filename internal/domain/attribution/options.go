package attribution

import (
	"time"

	"github.com/okian/revshare/internal/domain/model"
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithHalfLifeDays sets the time-decay half-life in days.
func WithHalfLifeDays(days float64) Option {
	return func(c *Calculator) {
		if days > 0 {
			c.halfLifeDays = days
		}
	}
}

// WithRoleWeights sets the canonical per-type weights for role_based
// attribution. Non-positive weights are dropped.
func WithRoleWeights(weights map[model.TouchType]float64) Option {
	return func(c *Calculator) {
		if len(weights) == 0 {
			return
		}
		c.roleWeights = make(map[model.TouchType]float64, len(weights))
		for k, v := range weights {
			if v > 0 {
				c.roleWeights[k] = v
			}
		}
	}
}

// WithClock overrides the time source for still-open deals in time_decay.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}
