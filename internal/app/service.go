// Package app provides the core business service that implements the
// dependencies required by the HTTP API: ingestion, deal close with
// asynchronous recomputation, on-demand attribution and commission reads,
// and batch partner scoring.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/okian/revshare/internal/adapters/mq/queue"
	workerpool "github.com/okian/revshare/internal/adapters/mq/worker"
	"github.com/okian/revshare/internal/adapters/notify"
	"github.com/okian/revshare/internal/adapters/repository"
	"github.com/okian/revshare/internal/domain/attribution"
	"github.com/okian/revshare/internal/domain/coalesce"
	"github.com/okian/revshare/internal/domain/commission"
	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/internal/domain/scorecard"
	"github.com/okian/revshare/pkg/logger"
	"github.com/okian/revshare/pkg/metrics"
)

// Service wires the engine's pure calculators to the store, the recompute
// queue and the worker pool.
type Service struct {
	mu sync.RWMutex

	// Core components.
	store      repository.Store
	queue      jobqueue.Queue
	pool       *workerpool.Pool
	tracker    coalesce.Tracker
	attrib     *attribution.Calculator
	commission *commission.Calculator
	scores     *scorecard.Engine
	notifier   notify.Notifier

	// Configuration.
	workerCount  int
	queueSize    int
	models       []attribution.Model
	primaryModel attribution.Model
	halfLifeDays float64
	roleWeights  map[model.TouchType]float64
	weights      scorecard.Weights
	thresholds   scorecard.Thresholds
	stableBand   int
	snapPeriod   time.Duration

	// State.
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10_000,
		models:       attribution.Models(),
		primaryModel: attribution.RoleBased,
		halfLifeDays: 14,
		weights:      scorecard.DefaultWeights(),
		thresholds:   scorecard.DefaultThresholds(),
		stableBand:   3,
		snapPeriod:   24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if _, err := attribution.ParseModel(string(s.primaryModel)); err != nil {
		return err
	}
	for _, m := range s.models {
		if _, err := attribution.ParseModel(string(m)); err != nil {
			return err
		}
	}

	s.logger.Info(ctx, "starting attribution engine...")

	s.store = repository.NewMemStore(ctx)
	s.tracker = coalesce.NewInMemoryTracker()
	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)
	attribOpts := []attribution.Option{
		attribution.WithHalfLifeDays(s.halfLifeDays),
	}
	if len(s.roleWeights) > 0 {
		attribOpts = append(attribOpts, attribution.WithRoleWeights(s.roleWeights))
	}
	s.attrib = attribution.NewCalculator(attribOpts...)
	s.commission = commission.NewCalculator(s.attrib)
	s.scores = scorecard.NewEngine(
		scorecard.WithWeights(s.weights),
		scorecard.WithThresholds(s.thresholds),
		scorecard.WithHalfLifeDays(s.halfLifeDays),
		scorecard.WithStableBand(s.stableBand),
	)
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier()
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store, s.commission, s.notifier, s.tracker)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "attribution engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("models", len(s.models)),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping attribution engine...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}

	s.started = false
	s.logger.Info(ctx, "attribution engine stopped")
}

// CreateDeal validates and stores a new deal.
func (s *Service) CreateDeal(ctx context.Context, d model.Deal) (model.Deal, error) {
	if d.Amount.Sign() <= 0 {
		return model.Deal{}, fmt.Errorf("%w: amount must be positive", attribution.ErrInvalidDeal)
	}
	return s.store.PutDeal(ctx, d)
}

// Deal returns a deal by id.
func (s *Service) Deal(ctx context.Context, id string) (model.Deal, error) {
	return s.store.Deal(ctx, id)
}

// AddPartner stores a partner.
func (s *Service) AddPartner(ctx context.Context, p model.Partner) (model.Partner, error) {
	return s.store.PutPartner(ctx, p)
}

// AddTouchpoint appends a partner interaction to a deal's log.
func (s *Service) AddTouchpoint(ctx context.Context, t model.Touchpoint) (model.Touchpoint, error) {
	return s.store.AppendTouchpoint(ctx, t)
}

// AddRule stores a commission rule with a stable insertion sequence.
func (s *Service) AddRule(ctx context.Context, r model.CommissionRule) (model.CommissionRule, error) {
	return s.store.PutRule(ctx, r)
}

// CloseDeal transitions a deal to won or lost. Winning a deal schedules
// asynchronous recomputation of every enabled attribution model; requests
// for a pair already in flight are coalesced.
func (s *Service) CloseDeal(ctx context.Context, dealID string, won bool) (model.Deal, error) {
	status := model.DealLost
	if won {
		status = model.DealWon
	}
	d, err := s.store.PatchDealStatus(ctx, dealID, status, time.Time{})
	if err != nil {
		return model.Deal{}, err
	}
	if !won {
		return d, nil
	}

	for _, m := range s.models {
		key := coalesce.Key(d.ID, string(m))
		if !s.tracker.Begin(ctx, key) {
			metrics.RecordJobCoalesced()
			continue
		}
		ok := s.queue.Enqueue(ctx, jobqueue.Job{
			DealID: d.ID,
			OrgID:  d.OrgID,
			Model:  string(m),
		})
		if !ok {
			s.tracker.Done(ctx, key)
			s.logger.Warn(ctx, "recompute queue full, dropping job",
				logger.String("dealID", d.ID),
				logger.String("model", string(m)),
			)
		}
	}
	return d, nil
}

// Attributions computes attribution rows for a deal on demand. The result
// is not persisted; persisted rows are written by the recompute workers.
func (s *Service) Attributions(ctx context.Context, dealID, modelName string) ([]attribution.Row, error) {
	m, err := attribution.ParseModel(modelName)
	if err != nil {
		return nil, err
	}
	d, err := s.store.Deal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	touches, err := s.store.TouchpointsByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	rows, err := s.attrib.Compute(d, touches, m)
	if err != nil {
		return nil, err
	}
	metrics.RecordAttributionComputed(string(m))
	return rows, nil
}

// StoredAttributions returns the persisted rows for (deal, model).
func (s *Service) StoredAttributions(ctx context.Context, dealID, modelName string) ([]model.Attribution, error) {
	if _, err := attribution.ParseModel(modelName); err != nil {
		return nil, err
	}
	return s.store.AttributionsByDeal(ctx, dealID, modelName)
}

// Commissions computes per-partner commission rows for a won deal.
func (s *Service) Commissions(ctx context.Context, dealID, modelName string) ([]commission.Row, error) {
	m, err := attribution.ParseModel(modelName)
	if err != nil {
		return nil, err
	}
	d, err := s.store.Deal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	touches, err := s.store.TouchpointsByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	rules, err := s.store.RulesByOrg(ctx, d.OrgID)
	if err != nil {
		return nil, err
	}
	partners, err := s.store.PartnersByOrg(ctx, d.OrgID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Partner, len(partners))
	for _, p := range partners {
		byID[p.ID] = p
	}
	return s.commission.Compute(d, touches, rules, byID, m)
}

// Scorecard computes the ranked scorecard for an org's full partner
// population. Once the stored score snapshot is older than the snapshot
// period, the fresh overall scores replace it as the next prior period.
func (s *Service) Scorecard(ctx context.Context, orgID string) ([]model.PartnerScore, error) {
	start := time.Now()

	partners, err := s.store.PartnersByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	deals, err := s.store.DealsByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	touches, err := s.store.TouchpointsByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	attribs, err := s.store.AttributionsByOrg(ctx, orgID, string(s.primaryModel))
	if err != nil {
		return nil, err
	}
	prior, takenAt, err := s.store.PriorScores(ctx, orgID)
	if err != nil {
		return nil, err
	}

	results := s.scores.ScoreAll(partners, deals, touches, attribs, prior)

	// The snapshot rolls over only after the configured period, so the
	// trend indicator compares against an actual prior period rather than
	// whatever the previous request happened to see.
	if takenAt.IsZero() || time.Since(takenAt) >= s.snapPeriod {
		overall := make(map[string]int, len(results))
		for _, r := range results {
			overall[r.PartnerID] = r.Overall
		}
		if err := s.store.SaveScoreSnapshot(ctx, orgID, overall); err != nil {
			return nil, err
		}
	}

	metrics.RecordScorecardRun()
	metrics.RecordScorecardLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateScorecardPartners(len(results))
	return results, nil
}

// PartnerScore returns one partner's entry from the batch scorecard. The
// whole peer population is scored so scaling denominators stay consistent.
func (s *Service) PartnerScore(ctx context.Context, partnerID string) (model.PartnerScore, error) {
	p, err := s.store.Partner(ctx, partnerID)
	if err != nil {
		return model.PartnerScore{}, err
	}
	results, err := s.Scorecard(ctx, p.OrgID)
	if err != nil {
		return model.PartnerScore{}, err
	}
	for _, r := range results {
		if r.PartnerID == partnerID {
			return r, nil
		}
	}
	return model.PartnerScore{}, fmt.Errorf("%w: %s", repository.ErrPartnerNotFound, partnerID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"models":       len(s.models),
		"primaryModel": string(s.primaryModel),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["inflightJobs"] = s.tracker.Size()
		for kind, n := range s.store.Counts(ctx) {
			stats[kind] = n
		}
	}
	return stats
}
