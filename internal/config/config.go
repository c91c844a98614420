// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load(ctx) layers
//   file and environment overrides on top.
// - The engine constants here (half-life, role weights, tier thresholds)
//   are calibration defaults, not external contracts.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory recompute job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// Models lists the attribution models recomputed when a deal closes.
	Models []string `koanf:"models"`

	// PrimaryModel is the model whose stored rows feed the scorecard's
	// revenue dimension.
	PrimaryModel string `koanf:"primary_model"`

	// HalfLifeDays is the time-decay half-life shared by the time_decay
	// attribution model and the engagement score.
	HalfLifeDays float64 `koanf:"half_life_days"`

	// RoleWeights maps touchpoint types to their role_based credit weights.
	RoleWeights map[string]float64 `koanf:"role_weights"`

	// DimensionWeights maps scorecard dimensions (revenue, pipeline,
	// engagement, velocity) to their share of the overall score. The
	// engine re-normalizes, so the values need not sum to 1.
	DimensionWeights map[string]float64 `koanf:"dimension_weights"`

	// Tier recommendation cut-offs on the 0-100 overall score.
	PlatinumMin int `koanf:"platinum_min"`
	GoldMin     int `koanf:"gold_min"`
	SilverMin   int `koanf:"silver_min"`

	// StableBand is how many points the overall score must move before the
	// trend leaves "stable".
	StableBand int `koanf:"stable_band"`

	// SnapshotPeriod is how long a score snapshot serves as the prior
	// period for trend computation before a scorecard read replaces it.
	SnapshotPeriod time.Duration `koanf:"snapshot_period"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		QueueSize:    10_000,
		WorkerCount:  runtime.NumCPU() * 2,
		Models:       []string{"equal_split", "first_touch", "last_touch", "time_decay", "role_based"},
		PrimaryModel: "role_based",
		HalfLifeDays: 14,
		RoleWeights: map[string]float64{
			"registration":  2.0,
			"co_sell":       1.0,
			"intro":         0.75,
			"content_share": 0.5,
			"support":       0.25,
		},
		DimensionWeights: map[string]float64{
			"revenue":    0.4,
			"pipeline":   0.2,
			"engagement": 0.2,
			"velocity":   0.2,
		},
		PlatinumMin:    85,
		GoldMin:        65,
		SilverMin:      40,
		StableBand:     3,
		SnapshotPeriod: 24 * time.Hour,
	}
}
