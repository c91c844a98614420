// Package seed generates a sample partner portfolio and loads it into a
// running engine over HTTP. It is a development tool: it creates partners,
// commission rules, deals and touchpoints, closes a share of the deals as
// won, and then fetches the scorecard to exercise the whole pipeline.
package seed

import "time"

// Config controls the shape of the generated portfolio.
type Config struct {
	BaseURL   string
	OrgID     string
	Partners  int
	Deals     int
	Rules     int
	Workers   int
	WinRate   float64
	Timeout   time.Duration
	Verbose   bool
	SettleFor time.Duration
}

// Stats accumulates the outcome of a seeding run.
type Stats struct {
	PartnersCreated    int
	RulesCreated       int
	DealsCreated       int
	TouchpointsCreated int
	DealsClosed        int
	Failed             int
	Duration           time.Duration
}
