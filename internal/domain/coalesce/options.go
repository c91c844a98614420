package coalesce

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithCapacityHint pre-sizes the in-flight set for an expected number of
// concurrent jobs.
func WithCapacityHint(n int) Option {
	return func(t *inMemoryTracker) {
		if n > 0 {
			t.inflight = make(map[string]struct{}, n)
		}
	}
}
