package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/pkg/metrics"
)

var one = decimal.NewFromInt(1)

// MemStore implements Store with in-memory maps. A single RWMutex guards
// the record maps; a per-(deal, model) mutex serializes attribution
// replacement so a pair behaves like a single-writer document.
type MemStore struct {
	mu sync.RWMutex

	deals      map[string]model.Deal
	dealsByOrg map[string][]string

	partners      map[string]model.Partner
	partnersByOrg map[string][]string

	touchesByDeal map[string][]model.Touchpoint
	touchSeq      int64

	rulesByOrg map[string][]model.CommissionRule
	ruleSeq    int64

	attribs map[string][]model.Attribution // keyed by dealID|model

	snapshots map[string]scoreSnapshot

	pairMu sync.Mutex
	pairs  map[string]*sync.Mutex

	clock func() time.Time
}

// NewMemStore creates an empty in-memory store with configuration options.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		deals:         make(map[string]model.Deal),
		dealsByOrg:    make(map[string][]string),
		partners:      make(map[string]model.Partner),
		partnersByOrg: make(map[string][]string),
		touchesByDeal: make(map[string][]model.Touchpoint),
		rulesByOrg:    make(map[string][]model.CommissionRule),
		attribs:       make(map[string][]model.Attribution),
		snapshots:     make(map[string]scoreSnapshot),
		pairs:         make(map[string]*sync.Mutex),
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func attribKey(dealID, attributionModel string) string {
	return dealID + "|" + attributionModel
}

// PutDeal inserts or replaces a deal. Lost deals are immutable.
func (s *MemStore) PutDeal(_ context.Context, d model.Deal) (model.Deal, error) {
	if d.OrgID == "" {
		return model.Deal{}, fmt.Errorf("%w: deal org id is required", ErrInvalidRecord)
	}
	if d.Amount.Sign() <= 0 {
		return model.Deal{}, fmt.Errorf("%w: deal amount must be positive", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = model.DealOpen
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.clock()
	}
	if existing, ok := s.deals[d.ID]; ok {
		if existing.Status == model.DealLost {
			return model.Deal{}, fmt.Errorf("%w: %s", ErrDealImmutable, d.ID)
		}
	} else {
		s.dealsByOrg[d.OrgID] = append(s.dealsByOrg[d.OrgID], d.ID)
	}
	s.deals[d.ID] = d
	metrics.UpdateStoreRecords("deals", len(s.deals))
	return d, nil
}

// Deal returns a deal by id.
func (s *MemStore) Deal(_ context.Context, id string) (model.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deals[id]
	if !ok {
		return model.Deal{}, fmt.Errorf("%w: %s", ErrDealNotFound, id)
	}
	return d, nil
}

// DealsByOrg returns an org's deals in insertion order.
func (s *MemStore) DealsByOrg(_ context.Context, orgID string) ([]model.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.dealsByOrg[orgID]
	out := make([]model.Deal, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.deals[id])
	}
	return out, nil
}

// PatchDealStatus atomically transitions a deal's status.
func (s *MemStore) PatchDealStatus(_ context.Context, id string, status model.DealStatus, closedAt time.Time) (model.Deal, error) {
	switch status {
	case model.DealOpen, model.DealWon, model.DealLost:
	default:
		return model.Deal{}, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deals[id]
	if !ok {
		return model.Deal{}, fmt.Errorf("%w: %s", ErrDealNotFound, id)
	}
	if d.Status == model.DealLost {
		return model.Deal{}, fmt.Errorf("%w: %s", ErrDealImmutable, id)
	}
	d.Status = status
	if status == model.DealWon || status == model.DealLost {
		if closedAt.IsZero() {
			closedAt = s.clock()
		}
		d.ClosedAt = closedAt
	}
	s.deals[id] = d
	return d, nil
}

// PutPartner inserts or replaces a partner.
func (s *MemStore) PutPartner(_ context.Context, p model.Partner) (model.Partner, error) {
	if p.OrgID == "" {
		return model.Partner{}, fmt.Errorf("%w: partner org id is required", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Tier == "" {
		p.Tier = model.TierBronze
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock()
	}
	if _, ok := s.partners[p.ID]; !ok {
		s.partnersByOrg[p.OrgID] = append(s.partnersByOrg[p.OrgID], p.ID)
	}
	s.partners[p.ID] = p
	metrics.UpdateStoreRecords("partners", len(s.partners))
	return p, nil
}

// Partner returns a partner by id.
func (s *MemStore) Partner(_ context.Context, id string) (model.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partners[id]
	if !ok {
		return model.Partner{}, fmt.Errorf("%w: %s", ErrPartnerNotFound, id)
	}
	return p, nil
}

// PartnersByOrg returns an org's partners in insertion order.
func (s *MemStore) PartnersByOrg(_ context.Context, orgID string) ([]model.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.partnersByOrg[orgID]
	out := make([]model.Partner, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.partners[id])
	}
	return out, nil
}

// AppendTouchpoint appends to a deal's interaction log. The deal must
// already exist; the store assigns the insertion sequence.
func (s *MemStore) AppendTouchpoint(_ context.Context, t model.Touchpoint) (model.Touchpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deals[t.DealID]; !ok {
		return model.Touchpoint{}, fmt.Errorf("%w: %s", ErrDealNotFound, t.DealID)
	}
	if t.PartnerID == "" {
		return model.Touchpoint{}, fmt.Errorf("%w: touchpoint partner id is required", ErrInvalidRecord)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock()
	}
	s.touchSeq++
	t.Seq = s.touchSeq
	s.touchesByDeal[t.DealID] = append(s.touchesByDeal[t.DealID], t)
	return t, nil
}

// TouchpointsByDeal returns a deal's log ordered by (timestamp, seq).
func (s *MemStore) TouchpointsByDeal(_ context.Context, dealID string) ([]model.Touchpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedTouches(s.touchesByDeal[dealID]), nil
}

// TouchpointsByOrg returns every touchpoint across an org's deals.
func (s *MemStore) TouchpointsByOrg(_ context.Context, orgID string) ([]model.Touchpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Touchpoint
	for _, dealID := range s.dealsByOrg[orgID] {
		out = append(out, s.touchesByDeal[dealID]...)
	}
	return sortedTouches(out), nil
}

func sortedTouches(in []model.Touchpoint) []model.Touchpoint {
	out := make([]model.Touchpoint, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// PutRule inserts a commission rule with a store-assigned sequence.
func (s *MemStore) PutRule(_ context.Context, r model.CommissionRule) (model.CommissionRule, error) {
	if r.OrgID == "" {
		return model.CommissionRule{}, fmt.Errorf("%w: rule org id is required", ErrInvalidRecord)
	}
	if r.Rate.Sign() < 0 || r.Rate.GreaterThan(one) {
		return model.CommissionRule{}, fmt.Errorf("%w: rule rate must be within [0,1]", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.ruleSeq++
	r.Seq = s.ruleSeq
	s.rulesByOrg[r.OrgID] = append(s.rulesByOrg[r.OrgID], r)
	return r, nil
}

// RulesByOrg returns an org's rules ordered by (priority, seq).
func (s *MemStore) RulesByOrg(_ context.Context, orgID string) ([]model.CommissionRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.rulesByOrg[orgID]
	out := make([]model.CommissionRule, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

// pairLock returns the writer lock for one (deal, model) pair.
func (s *MemStore) pairLock(key string) *sync.Mutex {
	s.pairMu.Lock()
	defer s.pairMu.Unlock()
	m, ok := s.pairs[key]
	if !ok {
		m = &sync.Mutex{}
		s.pairs[key] = m
	}
	return m
}

// ReplaceAttributions atomically swaps all rows for (dealID, model).
func (s *MemStore) ReplaceAttributions(_ context.Context, dealID, attributionModel string, rows []model.Attribution) error {
	key := attribKey(dealID, attributionModel)
	lock := s.pairLock(key)
	lock.Lock()
	defer lock.Unlock()

	stored := make([]model.Attribution, len(rows))
	copy(stored, rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[dealID]; !ok {
		return fmt.Errorf("%w: %s", ErrDealNotFound, dealID)
	}
	if len(stored) == 0 {
		delete(s.attribs, key)
		return nil
	}
	s.attribs[key] = stored
	return nil
}

// AttributionsByDeal returns the stored rows for (dealID, model).
func (s *MemStore) AttributionsByDeal(_ context.Context, dealID, attributionModel string) ([]model.Attribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.attribs[attribKey(dealID, attributionModel)]
	out := make([]model.Attribution, len(in))
	copy(out, in)
	return out, nil
}

// AttributionsByOrg returns the stored rows for a model across an org.
func (s *MemStore) AttributionsByOrg(_ context.Context, orgID, attributionModel string) ([]model.Attribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Attribution
	for _, dealID := range s.dealsByOrg[orgID] {
		out = append(out, s.attribs[attribKey(dealID, attributionModel)]...)
	}
	return out, nil
}

// scoreSnapshot is an org's overall scores at a point in time.
type scoreSnapshot struct {
	scores  map[string]int
	takenAt time.Time
}

// SaveScoreSnapshot stores the latest overall scores for an org, stamped
// with the store clock.
func (s *MemStore) SaveScoreSnapshot(_ context.Context, orgID string, overall map[string]int) error {
	scores := make(map[string]int, len(overall))
	for k, v := range overall {
		scores[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[orgID] = scoreSnapshot{scores: scores, takenAt: s.clock()}
	return nil
}

// PriorScores returns the previously saved snapshot and when it was taken.
func (s *MemStore) PriorScores(_ context.Context, orgID string) (map[string]int, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snapshots[orgID]
	out := make(map[string]int, len(snap.scores))
	for k, v := range snap.scores {
		out[k] = v
	}
	return out, snap.takenAt, nil
}

// Counts returns record tallies for monitoring.
func (s *MemStore) Counts(_ context.Context) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	touches := 0
	for _, ts := range s.touchesByDeal {
		touches += len(ts)
	}
	rules := 0
	for _, rs := range s.rulesByOrg {
		rules += len(rs)
	}
	attribs := 0
	for _, rows := range s.attribs {
		attribs += len(rows)
	}
	return map[string]int{
		"deals":        len(s.deals),
		"partners":     len(s.partners),
		"touchpoints":  touches,
		"rules":        rules,
		"attributions": attribs,
	}
}
