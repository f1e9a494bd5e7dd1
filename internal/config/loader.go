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
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if RIVAL_CONFIG is set
//  3. env (prefix RIVAL_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RIVAL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RIVAL_NUM_BOOTSTRAP, RIVAL_RATING_SYSTEM, ...
	// Map env keys like RIVAL_NUM_BOOTSTRAP -> num_bootstrap (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RIVAL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "rival_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy of the defaults.
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
	switch c.RatingSystem {
	case RatingSystemBT, RatingSystemElo:
	default:
		return fmt.Errorf("%w: unknown rating_system %q", ErrInvalidConfig, c.RatingSystem)
	}
	if c.StyleControl && c.RatingSystem != RatingSystemBT {
		return fmt.Errorf("%w: style_control requires rating_system=bt", ErrInvalidConfig)
	}
	if c.NumBootstrap < 1 {
		return fmt.Errorf("%w: num_bootstrap must be positive", ErrInvalidConfig)
	}
	if c.Scale <= 0 || c.Base <= 1 {
		return fmt.Errorf("%w: scale must be positive and base greater than 1", ErrInvalidConfig)
	}
	if c.OutlierAlpha <= 0 || c.OutlierAlpha >= 1 {
		return fmt.Errorf("%w: outlier_alpha must be in (0, 1)", ErrInvalidConfig)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", ErrInvalidConfig)
	}
	return nil
}
