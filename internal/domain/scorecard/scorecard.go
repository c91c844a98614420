// Package scorecard computes peer-normalized composite partner scores used
// by the tier-review workflow.
package scorecard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/revshare/internal/domain/model"
	"github.com/okian/revshare/pkg/money"
)

// Default engine configuration.
const (
	defaultHalfLifeDays = 14.0
	defaultStableBand   = 3
	hoursPerDay         = 24.0
	maxScore            = 100.0
)

// Weights is the per-dimension weight vector. Callers may supply any
// non-negative values; the engine re-normalizes them to sum to 1 before
// combining, so a wild input can never push the overall score out of range.
type Weights struct {
	Revenue    float64 `json:"revenue"`
	Pipeline   float64 `json:"pipeline"`
	Engagement float64 `json:"engagement"`
	Velocity   float64 `json:"velocity"`
}

// DefaultWeights returns the stock dimension weighting.
func DefaultWeights() Weights {
	return Weights{Revenue: 0.4, Pipeline: 0.2, Engagement: 0.2, Velocity: 0.2}
}

// Normalized returns a copy of w scaled to sum to 1. Negative entries are
// treated as zero; an all-zero vector falls back to equal weighting.
func (w Weights) Normalized() Weights {
	r := math.Max(w.Revenue, 0)
	p := math.Max(w.Pipeline, 0)
	e := math.Max(w.Engagement, 0)
	v := math.Max(w.Velocity, 0)
	sum := r + p + e + v
	if sum == 0 {
		return Weights{Revenue: 0.25, Pipeline: 0.25, Engagement: 0.25, Velocity: 0.25}
	}
	return Weights{Revenue: r / sum, Pipeline: p / sum, Engagement: e / sum, Velocity: v / sum}
}

// Thresholds holds the minimum overall score for each recommended tier;
// anything below Silver recommends bronze.
type Thresholds struct {
	Platinum int `json:"platinum"`
	Gold     int `json:"gold"`
	Silver   int `json:"silver"`
}

// DefaultThresholds returns the stock tier cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{Platinum: 85, Gold: 65, Silver: 40}
}

func (t Thresholds) tierFor(overall int) model.Tier {
	switch {
	case overall >= t.Platinum:
		return model.TierPlatinum
	case overall >= t.Gold:
		return model.TierGold
	case overall >= t.Silver:
		return model.TierSilver
	default:
		return model.TierBronze
	}
}

// Engine computes partner scorecards. Scoring is peer-relative, so the
// engine always works over the full peer population in one batch.
type Engine struct {
	weights      Weights
	thresholds   Thresholds
	halfLifeDays float64
	stableBand   int
	now          func() time.Time
}

// NewEngine creates a scorecard engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:      DefaultWeights(),
		thresholds:   DefaultThresholds(),
		halfLifeDays: defaultHalfLifeDays,
		stableBand:   defaultStableBand,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// aggregates holds the raw per-partner inputs before peer normalization.
type aggregates struct {
	revenue      float64 // attributed revenue from won deals
	pipeline     float64 // value of open deals the partner participates in
	engagement   float64 // recency-decayed touchpoint mass
	touchCount   int
	wonCount     int
	avgCloseDays float64
}

// ScoreAll computes the scorecard for every partner against the full peer
// population. Attributions are expected to come from a single model so the
// revenue dimension is consistent across peers. prior maps partner id to the
// previous period's overall score; missing entries yield a stable trend.
//
// A partner with no history receives all-zero dimensions and ranks last;
// a peer population of one scores 100 on every populated dimension.
func (e *Engine) ScoreAll(partners []model.Partner, deals []model.Deal, touches []model.Touchpoint, attribs []model.Attribution, prior map[string]int) []model.PartnerScore {
	if len(partners) == 0 {
		return nil
	}

	dealsByID := make(map[string]model.Deal, len(deals))
	for _, d := range deals {
		dealsByID[d.ID] = d
	}

	// Deal participation: a partner participates in a deal it registered or
	// touched at least once.
	participants := make(map[string]map[string]struct{}, len(deals))
	addParticipant := func(dealID, partnerID string) {
		if partnerID == "" {
			return
		}
		set, ok := participants[dealID]
		if !ok {
			set = make(map[string]struct{})
			participants[dealID] = set
		}
		set[partnerID] = struct{}{}
	}
	for _, d := range deals {
		addParticipant(d.ID, d.RegisteredBy)
	}
	for _, t := range touches {
		addParticipant(t.DealID, t.PartnerID)
	}

	now := e.now()
	aggs := make(map[string]*aggregates, len(partners))
	for _, p := range partners {
		aggs[p.ID] = &aggregates{}
	}

	for _, a := range attribs {
		agg, ok := aggs[a.PartnerID]
		if !ok {
			continue
		}
		if d, ok := dealsByID[a.DealID]; ok && d.Status == model.DealWon {
			amt, _ := a.Amount.Float64()
			agg.revenue += amt
		}
	}

	for _, t := range touches {
		agg, ok := aggs[t.PartnerID]
		if !ok {
			continue
		}
		agg.touchCount++
		ageDays := now.Sub(t.CreatedAt).Hours() / hoursPerDay
		if ageDays < 0 {
			ageDays = 0
		}
		agg.engagement += math.Exp2(-ageDays / e.halfLifeDays)
	}

	for _, d := range deals {
		set := participants[d.ID]
		if len(set) == 0 {
			continue
		}
		switch d.Status {
		case model.DealOpen:
			amt, _ := d.Amount.Float64()
			for id := range set {
				if agg, ok := aggs[id]; ok {
					agg.pipeline += amt
				}
			}
		case model.DealWon:
			if d.ClosedAt.IsZero() {
				continue
			}
			days := d.ClosedAt.Sub(d.CreatedAt).Hours() / hoursPerDay
			if days < 0 {
				days = 0
			}
			for id := range set {
				agg, ok := aggs[id]
				if !ok {
					continue
				}
				// Running mean of time-to-close across the partner's won deals.
				agg.wonCount++
				agg.avgCloseDays += (days - agg.avgCloseDays) / float64(agg.wonCount)
			}
		case model.DealLost:
			// Lost deals contribute to no dimension.
		}
	}

	peers := peerExtremes(aggs)
	weights := e.weights.Normalized()

	scores := make([]model.PartnerScore, 0, len(partners))
	for _, p := range partners {
		scores = append(scores, e.scoreOne(p, aggs[p.ID], peers, weights, prior))
	}
	rank(scores, aggs)
	return scores
}

// extremes captures the peer-population scaling denominators, computed once
// per batch so every partner is scaled consistently.
type extremes struct {
	maxRevenue    float64
	maxPipeline   float64
	maxEngagement float64
	fastestClose  float64
	slowestClose  float64
	anyWon        bool
}

func peerExtremes(aggs map[string]*aggregates) extremes {
	var x extremes
	for _, a := range aggs {
		x.maxRevenue = math.Max(x.maxRevenue, a.revenue)
		x.maxPipeline = math.Max(x.maxPipeline, a.pipeline)
		x.maxEngagement = math.Max(x.maxEngagement, a.engagement)
		if a.wonCount == 0 {
			continue
		}
		if !x.anyWon {
			x.fastestClose, x.slowestClose = a.avgCloseDays, a.avgCloseDays
			x.anyWon = true
			continue
		}
		x.fastestClose = math.Min(x.fastestClose, a.avgCloseDays)
		x.slowestClose = math.Max(x.slowestClose, a.avgCloseDays)
	}
	return x
}

func (e *Engine) scoreOne(p model.Partner, agg *aggregates, peers extremes, weights Weights, prior map[string]int) model.PartnerScore {
	revenue := scaleToPeerMax(agg.revenue, peers.maxRevenue)
	pipeline := scaleToPeerMax(agg.pipeline, peers.maxPipeline)
	engagement := scaleToPeerMax(agg.engagement, peers.maxEngagement)
	velocity := velocityScore(agg, peers)

	overall := int(math.Round(money.Clamp(
		revenue*weights.Revenue+
			pipeline*weights.Pipeline+
			engagement*weights.Engagement+
			velocity*weights.Velocity,
		0, maxScore)))

	recommended := e.thresholds.tierFor(overall)
	change := model.TierMaintain
	switch recommended.Compare(p.Tier) {
	case 1:
		change = model.TierUpgrade
	case -1:
		change = model.TierDowngrade
	}

	trend := model.TrendStable
	if prev, ok := prior[p.ID]; ok {
		switch {
		case overall-prev >= e.stableBand:
			trend = model.TrendUp
		case prev-overall >= e.stableBand:
			trend = model.TrendDown
		}
	}

	s := model.PartnerScore{
		PartnerID: p.ID,
		Revenue: model.DimensionScore{
			Score:  revenue,
			Weight: weights.Revenue,
			Detail: fmt.Sprintf("%.2f attributed revenue across %d won deals", agg.revenue, agg.wonCount),
		},
		Pipeline: model.DimensionScore{
			Score:  pipeline,
			Weight: weights.Pipeline,
			Detail: fmt.Sprintf("%.2f open pipeline value", agg.pipeline),
		},
		Engagement: model.DimensionScore{
			Score:  engagement,
			Weight: weights.Engagement,
			Detail: fmt.Sprintf("%d touchpoints, recency-weighted mass %.2f", agg.touchCount, agg.engagement),
		},
		Velocity: model.DimensionScore{
			Score:  velocity,
			Weight: weights.Velocity,
			Detail: velocityDetail(agg),
		},
		Overall:         overall,
		CurrentTier:     p.Tier,
		RecommendedTier: recommended,
		TierChange:      change,
		Trend:           trend,
	}
	s.Highlights = highlights(s, agg)
	return s
}

// scaleToPeerMax maps a raw value onto 0-100 against the peer maximum. A
// zero peer maximum means nobody has signal on this dimension, so it scores
// zero; a peer population of one therefore scores 100 on every populated
// dimension (its own value is the maximum).
func scaleToPeerMax(raw, peerMax float64) float64 {
	if peerMax <= 0 || raw <= 0 {
		return 0
	}
	return money.Clamp(maxScore*raw/peerMax, 0, maxScore)
}

// velocityScore is inversely related to average time-to-close: the peer
// population's fastest closer scores 100, the slowest 0. Partners with no
// won deals score 0; a degenerate range (everyone equally fast) scores 100.
func velocityScore(agg *aggregates, peers extremes) float64 {
	if agg.wonCount == 0 || !peers.anyWon {
		return 0
	}
	spread := peers.slowestClose - peers.fastestClose
	if spread <= 0 {
		return maxScore
	}
	return money.Clamp(maxScore*(peers.slowestClose-agg.avgCloseDays)/spread, 0, maxScore)
}

func velocityDetail(agg *aggregates) string {
	if agg.wonCount == 0 {
		return "no won deals yet"
	}
	return fmt.Sprintf("average %.1f days to close", agg.avgCloseDays)
}

const highlightThreshold = 90.0

func highlights(s model.PartnerScore, agg *aggregates) []string {
	var hl []string
	if s.Revenue.Score >= highlightThreshold {
		hl = append(hl, "leading attributed revenue among peers")
	}
	if s.Velocity.Score >= highlightThreshold && agg.wonCount > 0 {
		hl = append(hl, "closes deals faster than peers")
	}
	if s.Engagement.Score >= highlightThreshold && agg.touchCount > 0 {
		hl = append(hl, "highly engaged across active deals")
	}
	if s.TierChange == model.TierUpgrade {
		hl = append(hl, fmt.Sprintf("eligible for promotion to %s", s.RecommendedTier))
	}
	return hl
}

// rank orders partners by overall score desc, ties broken by attributed
// revenue desc, then partner id asc for determinism, and stamps Rank 1..n.
func rank(scores []model.PartnerScore, aggs map[string]*aggregates) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Overall != scores[j].Overall {
			return scores[i].Overall > scores[j].Overall
		}
		ri, rj := aggs[scores[i].PartnerID].revenue, aggs[scores[j].PartnerID].revenue
		if ri != rj {
			return ri > rj
		}
		return scores[i].PartnerID < scores[j].PartnerID
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
}
