// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Keep defaults in New and layer file/env on top in Load.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Rating systems selectable via configuration.
const (
	RatingSystemBT  = "bt"
	RatingSystemElo = "elo"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr optionally exposes a Prometheus /metrics endpoint while a
	// report run is in flight, e.g. ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// RatingSystem selects the published rating: "bt" (Bradley-Terry
	// maximum likelihood, default) or "elo" (bootstrap median of the
	// online Elo).
	RatingSystem string `koanf:"rating_system"`

	// StyleControl enables the style-adjusted fit (only with "bt").
	StyleControl bool `koanf:"style_control"`

	// NumBootstrap sets the number of bootstrap resampling trials.
	NumBootstrap int `koanf:"num_bootstrap"`

	// BootstrapWorkers sizes the trial worker pool.
	BootstrapWorkers int `koanf:"bootstrap_workers"`

	// Seed feeds the pseudo-random generator used by resampling and the
	// randomized outlier test.
	Seed int64 `koanf:"seed"`

	// Rating scale parameters.
	Scale        float64 `koanf:"scale"`
	Base         float64 `koanf:"base"`
	InitRating   float64 `koanf:"init_rating"`
	KFactor      float64 `koanf:"k_factor"`
	AnchorModel  string  `koanf:"anchor_model"`
	AnchorRating float64 `koanf:"anchor_rating"`

	// Battle filtering.
	Languages         []string `koanf:"languages"`
	ExcludeUnknown    bool     `koanf:"exclude_unknown_lang"`
	ExcludeModels     []string `koanf:"exclude_models"`
	ExcludeTies       bool     `koanf:"exclude_ties"`
	DailyVotePerJudge int      `koanf:"daily_vote_per_judge"`

	// Outlier judge detection.
	RunOutlierDetect  bool    `koanf:"run_outlier_detect"`
	OutlierAlpha      float64 `koanf:"outlier_alpha"`
	OutlierMaxVotes   int     `koanf:"outlier_max_votes"`
	OutlierMinVotes   int     `koanf:"outlier_min_votes"`
	OutlierRandomized bool    `koanf:"outlier_randomized"`

	// Categories to report on, e.g. ["full", "english"].
	Categories []string `koanf:"categories"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		MetricsAddr:       "",
		RatingSystem:      RatingSystemBT,
		StyleControl:      false,
		NumBootstrap:      100,
		BootstrapWorkers:  runtime.NumCPU(),
		Seed:              42,
		Scale:             400,
		Base:              10,
		InitRating:        1000,
		KFactor:           4,
		AnchorModel:       "mixtral-8x7b-instruct-v0.1",
		AnchorRating:      1114,
		ExcludeUnknown:    false,
		ExcludeTies:       false,
		DailyVotePerJudge: 0,
		RunOutlierDetect:  false,
		OutlierAlpha:      0.05,
		OutlierMaxVotes:   100,
		OutlierMinVotes:   5,
		Categories:        []string{"full"},
	}
}
