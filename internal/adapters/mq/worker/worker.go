// Package worker defines worker contracts for asynchronous attribution
// recomputation and persistence.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/revshare/internal/adapters/mq/queue"
	"github.com/okian/revshare/internal/domain/attribution"
	"github.com/okian/revshare/internal/domain/coalesce"
	"github.com/okian/revshare/internal/domain/commission"
	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/pkg/logger"
	"github.com/okian/revshare/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Loader reads recompute inputs and writes results back to the store.
type Loader interface {
	Deal(ctx context.Context, id string) (model.Deal, error)
	TouchpointsByDeal(ctx context.Context, dealID string) ([]model.Touchpoint, error)
	RulesByOrg(ctx context.Context, orgID string) ([]model.CommissionRule, error)
	PartnersByOrg(ctx context.Context, orgID string) ([]model.Partner, error)
	ReplaceAttributions(ctx context.Context, dealID, attributionModel string, rows []model.Attribution) error
}

// Computer produces commission rows for a won deal under one model.
type Computer interface {
	Compute(deal model.Deal, touches []model.Touchpoint, rules []model.CommissionRule, partners map[string]model.Partner, m attribution.Model) ([]commission.Row, error)
}

// Notifier announces computed payouts. Fire-and-forget from the worker's
// perspective.
type Notifier interface {
	PayoutsComputed(ctx context.Context, deal model.Deal, rows []model.Attribution)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes recompute jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker, draining in-flight work.
	Shutdown(ctx context.Context) error
}

// RecomputeWorker implements Worker for attribution recompute jobs.
type RecomputeWorker struct {
	queue    Queue
	loader   Loader
	computer Computer
	notifier Notifier
	tracker  coalesce.Tracker
	name     string
	now      func() time.Time

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewRecomputeWorker creates a new worker with configuration options.
func NewRecomputeWorker(q Queue, loader Loader, computer Computer, notifier Notifier, tracker coalesce.Tracker, opts ...Option) *RecomputeWorker {
	w := &RecomputeWorker{
		queue:    q,
		loader:   loader,
		computer: computer,
		notifier: notifier,
		tracker:  tracker,
		name:     "worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *RecomputeWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing recompute job",
					logger.String("dealID", job.DealID),
					logger.String("model", job.Model),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *RecomputeWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob recomputes and persists one (deal, model) pair, then releases
// the in-flight marker so a later close can recompute the pair again.
func (w *RecomputeWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordRecomputeLatency(job.Model, float64(time.Since(start).Milliseconds()))
		w.tracker.Done(ctx, coalesce.Key(job.DealID, job.Model))
	}()

	deal, err := w.loader.Deal(ctx, job.DealID)
	if err != nil {
		metrics.RecordRecomputeError(job.Model)
		return fmt.Errorf("load deal: %w", err)
	}
	if deal.Status != model.DealWon {
		// The deal moved since the job was enqueued; nothing to pay out.
		w.logger.Warn(ctx, "skipping recompute for non-won deal",
			logger.String("dealID", deal.ID),
			logger.String("status", string(deal.Status)),
		)
		return nil
	}

	touches, err := w.loader.TouchpointsByDeal(ctx, deal.ID)
	if err != nil {
		metrics.RecordRecomputeError(job.Model)
		return fmt.Errorf("load touchpoints: %w", err)
	}
	rules, err := w.loader.RulesByOrg(ctx, deal.OrgID)
	if err != nil {
		metrics.RecordRecomputeError(job.Model)
		return fmt.Errorf("load rules: %w", err)
	}
	partners, err := w.loader.PartnersByOrg(ctx, deal.OrgID)
	if err != nil {
		metrics.RecordRecomputeError(job.Model)
		return fmt.Errorf("load partners: %w", err)
	}
	partnersByID := make(map[string]model.Partner, len(partners))
	for _, p := range partners {
		partnersByID[p.ID] = p
	}

	rows, err := w.computer.Compute(deal, touches, rules, partnersByID, attribution.Model(job.Model))
	if err != nil {
		metrics.RecordRecomputeError(job.Model)
		return fmt.Errorf("compute commissions: %w", err)
	}

	computedAt := w.now()
	records := make([]model.Attribution, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.Attribution{
			ID:         uuid.NewString(),
			DealID:     deal.ID,
			PartnerID:  r.PartnerID,
			Model:      job.Model,
			Percentage: r.Percentage,
			Amount:     r.Attributed,
			Commission: r.Commission,
			RuleName:   r.AppliedRule,
			ComputedAt: computedAt,
		})
	}

	if err := w.loader.ReplaceAttributions(ctx, deal.ID, job.Model, records); err != nil {
		metrics.RecordRecomputeError(job.Model)
		return fmt.Errorf("replace attributions: %w", err)
	}

	metrics.RecordRecompute(job.Model)
	if w.notifier != nil {
		w.notifier.PayoutsComputed(ctx, deal, records)
	}
	return nil
}

// Pool manages multiple workers draining one queue.
type Pool struct {
	workers []*RecomputeWorker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, loader Loader, computer Computer, notifier Notifier, tracker coalesce.Tracker) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*RecomputeWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewRecomputeWorker(
			q, loader, computer, notifier, tracker,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
