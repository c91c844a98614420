// Package coalesce tracks in-flight recomputation jobs so that concurrent
// requests for the same (deal, model) pair collapse into a single unit of
// work. Recomputation replaces all prior rows for the pair, so two
// interleaved runs would race; coalescing plus the store's per-pair writer
// lock keeps the pair a single logical unit of work.
package coalesce

import (
	"context"
	"sync"
	"sync/atomic"
)

// Key builds the canonical in-flight key for a (deal, model) pair.
func Key(dealID, model string) string {
	return dealID + "|" + model
}

// Tracker records in-flight job keys.
type Tracker interface {
	// Begin atomically checks whether key is already in flight and records
	// it if not. Returns false if the key was already in flight.
	Begin(ctx context.Context, key string) bool

	// Done removes key from the in-flight set. It must be called exactly
	// once for every successful Begin, whether or not the job succeeded.
	Done(ctx context.Context, key string)

	// Size returns the current number of in-flight keys.
	Size() int64
}

// inMemoryTracker implements Tracker with a mutex-guarded set.
type inMemoryTracker struct {
	mu       sync.Mutex
	inflight map[string]struct{}
	size     atomic.Int64
}

// NewInMemoryTracker creates a tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *inMemoryTracker) Begin(_ context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[key]; ok {
		return false
	}
	t.inflight[key] = struct{}{}
	t.size.Add(1)
	return true
}

func (t *inMemoryTracker) Done(_ context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[key]; ok {
		delete(t.inflight, key)
		t.size.Add(-1)
	}
}

func (t *inMemoryTracker) Size() int64 {
	return t.size.Load()
}
