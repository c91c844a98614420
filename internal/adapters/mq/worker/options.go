package worker

import (
	"time"

	"github.com/okian/revshare/pkg/logger"
)

// Option applies a configuration option to the RecomputeWorker.
type Option func(*RecomputeWorker)

// WithName sets the worker name used for logging.
func WithName(name string) Option {
	return func(w *RecomputeWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *RecomputeWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithClock overrides the computed-at time source.
func WithClock(now func() time.Time) Option {
	return func(w *RecomputeWorker) {
		if now != nil {
			w.now = now
		}
	}
}
