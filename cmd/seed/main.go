package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/revshare/internal/seed"
	"github.com/okian/revshare/pkg/logger"
)

// Default seeding parameters.
const (
	defaultPartners  = 12
	defaultDeals     = 200
	defaultRules     = 6
	defaultWinRate   = 0.4
	defaultTimeout   = 30 * time.Second
	defaultSettle    = 2 * time.Second
	defaultRunLimit  = 10 * time.Minute
	workerMultiplier = 2
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the engine")
		orgID    = flag.String("org", "acme", "Organization id to seed")
		partners = flag.Int("partners", defaultPartners, "Number of partners to create")
		deals    = flag.Int("deals", defaultDeals, "Number of deals to create")
		rules    = flag.Int("rules", defaultRules, "Number of commission rules to create")
		winRate  = flag.Float64("win-rate", defaultWinRate, "Fraction of deals closed as won")
		workers  = flag.Int("workers", runtime.NumCPU()*workerMultiplier, "Concurrent submission workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle   = flag.Duration("settle", defaultSettle, "Wait after closing deals before reading the scorecard")
		verbose  = flag.Bool("verbose", false, "Log individual submission failures")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:   *baseURL,
		OrgID:     *orgID,
		Partners:  *partners,
		Deals:     *deals,
		Rules:     *rules,
		Workers:   *workers,
		WinRate:   *winRate,
		Timeout:   *timeout,
		SettleFor: *settle,
		Verbose:   *verbose,
	}

	if err := seed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seeding failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
