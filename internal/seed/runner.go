package seed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/revshare/pkg/logger"
)

// createdResource is the slice of a create response we care about.
type createdResource struct {
	ID string `json:"id"`
}

// scorecardRow mirrors the scorecard entries returned by the engine.
type scorecardRow struct {
	PartnerID string `json:"partner_id"`
	Overall   int    `json:"overall"`
	Rank      int    `json:"rank"`
	Tier      string `json:"recommended_tier"`
}

// Run seeds the engine at cfg.BaseURL with a generated portfolio and then
// fetches the scorecard to verify the pipeline end to end.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get()
	start := time.Now()
	stats := &Stats{}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	partners := generatePartners(cfg)
	deals := generateDeals(cfg)
	rules := generateRules(cfg)

	log.Info(ctx, "seeding portfolio",
		logger.String("org", cfg.OrgID),
		logger.Int("partners", len(partners)),
		logger.Int("deals", len(deals)),
		logger.Int("rules", len(rules)))

	partnerIDs, err := createPartners(ctx, c, cfg, partners, stats)
	if err != nil {
		return err
	}
	if err := createRules(ctx, c, rules, stats); err != nil {
		return err
	}
	if err := createDeals(ctx, c, cfg, deals, partnerIDs, stats); err != nil {
		return err
	}

	// Give the recompute workers time to drain the queue before reading.
	if cfg.SettleFor > 0 {
		log.Info(ctx, "waiting for recompute queue to settle", logger.Any("settle", cfg.SettleFor))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.SettleFor):
		}
	}

	if err := printScorecard(ctx, c, cfg); err != nil {
		return err
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "seeding complete",
		logger.Int("partners_created", stats.PartnersCreated),
		logger.Int("rules_created", stats.RulesCreated),
		logger.Int("deals_created", stats.DealsCreated),
		logger.Int("touchpoints_created", stats.TouchpointsCreated),
		logger.Int("deals_closed", stats.DealsClosed),
		logger.Int("failed", stats.Failed),
		logger.Any("duration", stats.Duration))
	return nil
}

func createPartners(ctx context.Context, c *client, cfg *Config, partners []partnerSpec, stats *Stats) ([]string, error) {
	ids := make([]string, len(partners))
	for i, p := range partners {
		body := map[string]any{
			"org_id":    cfg.OrgID,
			"name":      p.Name,
			"type":      p.Type,
			"tier":      p.Tier,
			"base_rate": p.BaseRate,
		}
		var created createdResource
		if err := c.postJSON(ctx, "/partners", body, &created); err != nil {
			return nil, fmt.Errorf("create partner %s: %w", p.Name, err)
		}
		ids[i] = created.ID
		stats.PartnersCreated++
	}
	return ids, nil
}

func createRules(ctx context.Context, c *client, rules []map[string]any, stats *Stats) error {
	for _, rule := range rules {
		if err := c.postJSON(ctx, "/rules", rule, nil); err != nil {
			return fmt.Errorf("create rule %v: %w", rule["name"], err)
		}
		stats.RulesCreated++
	}
	return nil
}

// createDeals submits deals concurrently with a worker pool. Each worker
// creates the deal, appends its touchpoints in order, and closes the deal
// when the spec marks it won.
func createDeals(ctx context.Context, c *client, cfg *Config, deals []dealSpec, partnerIDs []string, stats *Stats) error {
	var (
		dealsCreated   int64
		touchesCreated int64
		dealsClosed    int64
		failed         int64
	)

	dealChan := make(chan dealSpec, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for spec := range dealChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if err := submitDeal(ctx, c, cfg, spec, partnerIDs, &touchesCreated, &dealsClosed); err != nil {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						logger.Get().Warn(ctx, "deal submission failed",
							logger.String("deal", spec.Name), logger.Error(err))
					}
					continue
				}
				atomic.AddInt64(&dealsCreated, 1)
			}
		}()
	}

	for _, spec := range deals {
		select {
		case <-ctx.Done():
			close(dealChan)
			wg.Wait()
			return ctx.Err()
		case dealChan <- spec:
		}
	}
	close(dealChan)
	wg.Wait()

	stats.DealsCreated = int(atomic.LoadInt64(&dealsCreated))
	stats.TouchpointsCreated = int(atomic.LoadInt64(&touchesCreated))
	stats.DealsClosed = int(atomic.LoadInt64(&dealsClosed))
	stats.Failed = int(atomic.LoadInt64(&failed))
	return nil
}

func submitDeal(ctx context.Context, c *client, cfg *Config, spec dealSpec, partnerIDs []string, touches, closed *int64) error {
	now := time.Now().UTC()
	body := map[string]any{
		"org_id":        cfg.OrgID,
		"name":          spec.Name,
		"amount":        spec.Amount,
		"product_line":  spec.ProductLine,
		"registered_by": partnerIDs[spec.RegisteredBy],
		"expected_at":   now.Add(30 * 24 * time.Hour).Format(time.RFC3339),
	}
	var created createdResource
	if err := c.postJSON(ctx, "/deals", body, &created); err != nil {
		return err
	}

	for _, t := range spec.Touches {
		touchBody := map[string]any{
			"deal_id":    created.ID,
			"partner_id": partnerIDs[t.Partner],
			"type":       t.Type,
			"ts":         now.Add(t.Offset).Format(time.RFC3339),
		}
		if err := c.postJSON(ctx, "/touchpoints", touchBody, nil); err != nil {
			return fmt.Errorf("touchpoint on %s: %w", spec.Name, err)
		}
		atomic.AddInt64(touches, 1)
	}

	if spec.Win {
		if err := c.postJSON(ctx, "/deals/"+created.ID+"/close", map[string]any{"won": true}, nil); err != nil {
			return fmt.Errorf("close %s: %w", spec.Name, err)
		}
		atomic.AddInt64(closed, 1)
	}
	return nil
}

// printScorecard fetches the org scorecard and logs the top entries.
func printScorecard(ctx context.Context, c *client, cfg *Config) error {
	var rows []scorecardRow
	if err := c.getJSON(ctx, "/scorecard?org_id="+cfg.OrgID, &rows); err != nil {
		return fmt.Errorf("fetch scorecard: %w", err)
	}

	log := logger.Get()
	log.Info(ctx, "scorecard fetched", logger.Int("partners", len(rows)))
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for _, row := range rows[:limit] {
		log.Info(ctx, "scorecard entry",
			logger.Int("rank", row.Rank),
			logger.String("partner", row.PartnerID),
			logger.Int("overall", row.Overall),
			logger.String("recommended_tier", row.Tier))
	}
	return nil
}
