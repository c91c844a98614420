package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if REVSHARE_CONFIG is set
//  3. env (prefix REVSHARE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("REVSHARE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: REVSHARE_ADDR, REVSHARE_QUEUE_SIZE, ...
	// Underscores are preserved so env keys line up with koanf tags.
	envProvider := env.Provider("REVSHARE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "revshare_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.HalfLifeDays <= 0:
		return fmt.Errorf("%w: half_life_days must be positive", ErrInvalidConfig)
	case len(c.Models) == 0:
		return fmt.Errorf("%w: at least one attribution model must be enabled", ErrInvalidConfig)
	case !(c.PlatinumMin >= c.GoldMin && c.GoldMin >= c.SilverMin && c.SilverMin > 0):
		return fmt.Errorf("%w: tier thresholds must descend platinum >= gold >= silver > 0", ErrInvalidConfig)
	case c.SnapshotPeriod <= 0:
		return fmt.Errorf("%w: snapshot_period must be positive", ErrInvalidConfig)
	}
	for name, w := range c.DimensionWeights {
		if w < 0 {
			return fmt.Errorf("%w: dimension weight %q is negative", ErrInvalidConfig, name)
		}
	}
	return nil
}
