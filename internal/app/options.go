package app

import (
	"time"

	"github.com/okian/revshare/internal/adapters/notify"
	"github.com/okian/revshare/internal/domain/attribution"
	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/internal/domain/scorecard"
	"github.com/okian/revshare/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the recompute queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithModels sets the attribution models recomputed on deal close.
// Validation happens at Start.
func WithModels(names []string) Option {
	return func(s *Service) {
		if len(names) == 0 {
			return
		}
		s.models = make([]attribution.Model, 0, len(names))
		for _, n := range names {
			s.models = append(s.models, attribution.Model(n))
		}
	}
}

// WithPrimaryModel sets the model feeding the scorecard revenue dimension.
func WithPrimaryModel(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.primaryModel = attribution.Model(name)
		}
	}
}

// WithHalfLifeDays sets the shared time-decay half-life.
func WithHalfLifeDays(days float64) Option {
	return func(s *Service) {
		if days > 0 {
			s.halfLifeDays = days
		}
	}
}

// WithRoleWeights sets the canonical touchpoint-type weights, keyed by the
// type's wire name.
func WithRoleWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if len(weights) == 0 {
			return
		}
		s.roleWeights = make(map[model.TouchType]float64, len(weights))
		for k, v := range weights {
			s.roleWeights[model.TouchType(k)] = v
		}
	}
}

// WithDimensionWeights sets the scorecard weight vector from a config map
// keyed by dimension name. Unknown keys are ignored.
func WithDimensionWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if len(weights) == 0 {
			return
		}
		w := s.weights
		for k, v := range weights {
			switch k {
			case "revenue":
				w.Revenue = v
			case "pipeline":
				w.Pipeline = v
			case "engagement":
				w.Engagement = v
			case "velocity":
				w.Velocity = v
			}
		}
		s.weights = w
	}
}

// WithTierThresholds sets the tier recommendation cut-offs.
func WithTierThresholds(platinum, gold, silver int) Option {
	return func(s *Service) {
		s.thresholds = scorecard.Thresholds{Platinum: platinum, Gold: gold, Silver: silver}
	}
}

// WithSnapshotPeriod sets how long a score snapshot serves as the prior
// period for trend computation before a scorecard read replaces it.
func WithSnapshotPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.snapPeriod = d
		}
	}
}

// WithStableBand sets the trend stability band in points.
func WithStableBand(points int) Option {
	return func(s *Service) {
		if points > 0 {
			s.stableBand = points
		}
	}
}

// WithNotifier sets the payout announcement dispatcher.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}
