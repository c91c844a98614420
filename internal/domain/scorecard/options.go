package scorecard

import "time"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the dimension weight vector. It is normalized again at
// scoring time, so any non-negative vector is acceptable.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithThresholds sets the tier recommendation cut-offs.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		if t.Platinum >= t.Gold && t.Gold >= t.Silver && t.Silver > 0 {
			e.thresholds = t
		}
	}
}

// WithHalfLifeDays sets the engagement recency half-life in days.
func WithHalfLifeDays(days float64) Option {
	return func(e *Engine) {
		if days > 0 {
			e.halfLifeDays = days
		}
	}
}

// WithStableBand sets how many points the overall score must move against
// the prior period before the trend leaves "stable".
func WithStableBand(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.stableBand = points
		}
	}
}

// WithClock overrides the time source used for engagement recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
