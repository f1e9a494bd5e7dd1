// Package app sequences the full rating pipeline: battle filtering, outlier
// judge removal, the online Elo pass, the configured rating system with its
// bootstrap, and confidence-interval ranking. The output is a serializable
// Report per category.
package app

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/okian/rival/internal/config"
	"github.com/okian/rival/internal/domain/bootstrap"
	"github.com/okian/rival/internal/domain/encode"
	"github.com/okian/rival/internal/domain/model"
	"github.com/okian/rival/internal/domain/outlier"
	"github.com/okian/rival/internal/domain/rank"
	"github.com/okian/rival/internal/domain/rating"
	"github.com/okian/rival/internal/domain/style"
	"github.com/okian/rival/pkg/logger"
	"github.com/okian/rival/pkg/metrics"
)

// longConvTokenThreshold is the minimum assistant token total for a battle
// to qualify for the "long" category.
const longConvTokenThreshold = 768

// LeaderboardRow is one competitor's line in the published table.
type LeaderboardRow struct {
	Model        string  `json:"model"`
	Rating       float64 `json:"rating"`
	Variance     float64 `json:"variance"`
	Q975         float64 `json:"rating_q975"`
	Q025         float64 `json:"rating_q025"`
	NumBattles   int     `json:"num_battles"`
	FinalRanking int     `json:"final_ranking"`
}

// StyleCoefficients carries the style-control fit coefficients: the point
// fit and the per-trial bootstrap values, ordered as the configured style
// elements.
type StyleCoefficients struct {
	Final     []float64   `json:"final"`
	Bootstrap [][]float64 `json:"bootstrap"`
}

// Report is the full result of one category run. It is an opaque
// JSON-serializable payload; nothing in the engine reads it back.
type Report struct {
	Category      string              `json:"category"`
	RatingSystem  string              `json:"rating_system"`
	NumBattles    int                 `json:"num_battles"`
	OnlineRatings map[string]float64  `json:"elo_rating_online"`
	FinalRatings  map[string]float64  `json:"elo_rating_final"`
	Converged     bool                `json:"converged"`
	Summaries     []bootstrap.Summary `json:"bootstrap_summaries"`
	Leaderboard   []LeaderboardRow    `json:"leaderboard_table"`
	FlaggedJudges []outlier.Flagged   `json:"flagged_judges,omitempty"`
	StyleCoef     *StyleCoefficients  `json:"style_coefficients,omitempty"`
	LastUpdated   time.Time           `json:"last_updated_datetime"`
	LastTStamp    float64             `json:"last_updated_tstamp"`
}

// Service runs rating reports from a fixed configuration.
type Service struct {
	cfg config.Config
	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a report service for the given configuration.
func New(cfg config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("report")
	}
	return s
}

// Run produces one Report per configured category.
func (s *Service) Run(ctx context.Context, battles []model.Battle) (map[string]*Report, error) {
	reports := make(map[string]*Report, len(s.cfg.Categories))
	for _, cat := range s.cfg.Categories {
		report, err := s.RunCategory(ctx, battles, cat)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", cat, err)
		}
		reports[cat] = report
	}
	return reports, nil
}

// RunCategory runs the full pipeline for one category over the given
// battles and returns its Report.
func (s *Service) RunCategory(ctx context.Context, battles []model.Battle, category string) (*Report, error) {
	start := time.Now()
	defer func() { metrics.RecordReportDuration(time.Since(start).Seconds()) }()

	predicate, err := categoryPredicate(category)
	if err != nil {
		return nil, err
	}

	// Chronological order first: the daily vote cap keeps each judge's
	// earliest votes and the outlier test replays votes in time order.
	subset := s.filter(model.SortByTimestamp(battles), predicate)

	report := &Report{
		Category:     category,
		RatingSystem: s.cfg.RatingSystem,
	}

	if s.cfg.RunOutlierDetect {
		detector := s.detector()
		var flagged []outlier.Flagged
		subset, flagged = detector.Filter(subset)
		report.FlaggedJudges = flagged
		if len(flagged) > 0 {
			s.log.Warn(ctx, "removed anomalous judges", logger.Int("judges", len(flagged)))
		}
	}

	if len(subset) == 0 {
		return nil, fmt.Errorf("category %q: %w", category, ErrNoBattles)
	}

	report.NumBattles = len(subset)
	metrics.RecordBattlesProcessed(len(subset))
	metrics.RecordBattlesFiltered(len(battles) - len(subset))

	s.log.Info(ctx, "running rating report",
		logger.String("category", category),
		logger.String("ratingSystem", s.cfg.RatingSystem),
		logger.Int("battles", len(subset)),
	)

	elo := rating.NewElo(
		rating.WithKFactor(s.cfg.KFactor),
		rating.WithEloScale(s.cfg.Scale),
		rating.WithEloBase(s.cfg.Base),
		rating.WithEloInitRating(s.cfg.InitRating),
	)
	online, err := elo.Compute(subset)
	if err != nil {
		return nil, fmt.Errorf("online elo: %w", err)
	}
	report.OnlineRatings = online

	switch s.cfg.RatingSystem {
	case config.RatingSystemBT:
		if s.cfg.StyleControl {
			err = s.runStyle(ctx, subset, report)
		} else {
			err = s.runBT(ctx, subset, report)
		}
	case config.RatingSystemElo:
		err = s.runElo(ctx, subset, elo, report)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownRatingSystem, s.cfg.RatingSystem)
	}
	if err != nil {
		return nil, err
	}

	metrics.UpdateCompetitors(len(report.FinalRatings))
	report.Leaderboard = s.leaderboard(subset, report)

	report.LastTStamp = lastTimestamp(subset)
	report.LastUpdated = time.Unix(int64(report.LastTStamp), 0).UTC()

	return report, nil
}

// filter applies the category predicate and the configured record filters.
// Only anonymous battles ever enter the ratings.
func (s *Service) filter(battles []model.Battle, predicate func(model.Battle) bool) []model.Battle {
	kept := make([]model.Battle, 0, len(battles))
	for _, b := range battles {
		if predicate(b) {
			kept = append(kept, b)
		}
	}

	opts := []model.FilterOption{model.WithAnonymousOnly()}
	if len(s.cfg.Languages) > 0 {
		opts = append(opts, model.WithLanguages(s.cfg.Languages))
	}
	if s.cfg.ExcludeUnknown {
		opts = append(opts, model.WithExcludeUnknownLanguage())
	}
	if len(s.cfg.ExcludeModels) > 0 {
		opts = append(opts, model.WithExcludedModels(s.cfg.ExcludeModels))
	}
	if s.cfg.ExcludeTies {
		opts = append(opts, model.WithoutTies())
	}
	if s.cfg.DailyVotePerJudge > 0 {
		opts = append(opts, model.WithDailyVoteLimit(s.cfg.DailyVotePerJudge))
	}
	return model.Filter(kept, opts...)
}

func (s *Service) detector() *outlier.Detector {
	opts := []outlier.Option{
		outlier.WithAlpha(s.cfg.OutlierAlpha),
		outlier.WithMaxVotes(s.cfg.OutlierMaxVotes),
		outlier.WithMinVotes(s.cfg.OutlierMinVotes),
	}
	if s.cfg.OutlierRandomized {
		opts = append(opts, outlier.WithRandomized(rand.New(rand.NewSource(s.cfg.Seed))))
	}
	return outlier.NewDetector(opts...)
}

func (s *Service) scaler() rating.Scaler {
	return rating.NewScaler(
		rating.WithScale(s.cfg.Scale),
		rating.WithInitRating(s.cfg.InitRating),
		rating.WithAnchor(s.cfg.AnchorModel, s.cfg.AnchorRating),
	)
}

func (s *Service) resampler(opts ...bootstrap.Option) *bootstrap.Resampler {
	base := []bootstrap.Option{
		bootstrap.WithRounds(s.cfg.NumBootstrap),
		bootstrap.WithWorkers(s.cfg.BootstrapWorkers),
		bootstrap.WithSeed(s.cfg.Seed),
	}
	return bootstrap.NewResampler(append(base, opts...)...)
}

// runBT computes the Bradley-Terry point fit plus its plain bootstrap and
// fills the rating fields of the report.
func (s *Service) runBT(ctx context.Context, battles []model.Battle, report *Report) error {
	ds, err := encode.Battles(battles)
	if err != nil {
		return fmt.Errorf("encoding battles: %w", err)
	}

	fitter := rating.NewBTFitter(rating.WithBase(s.cfg.Base))
	res, err := fitter.Fit(ds)
	if err != nil {
		return fmt.Errorf("bradley-terry fit: %w", err)
	}
	report.Converged = res.Converged

	scaler := s.scaler()
	names := ds.Registry.Names()
	scaled := scaler.Apply(res.Ratings, names)
	report.FinalRatings = ratingMap(names, scaled)

	ensemble, err := s.resampler(bootstrap.WithBTFitter(fitter)).RunPlain(ctx, ds)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	ensemble.Trials = scaler.ApplyEnsemble(ensemble.Trials, ensemble.Models)
	report.Summaries = ensemble.Summarize()
	return nil
}

// runStyle computes the style-controlled fit and its paired-row bootstrap.
func (s *Service) runStyle(ctx context.Context, battles []model.Battle, report *Report) error {
	m, err := style.NewBuilder(style.WithStyleBase(s.cfg.Base)).Build(battles)
	if err != nil {
		return fmt.Errorf("style matrices: %w", err)
	}

	fitter := style.NewFitter()
	res, err := fitter.Fit(m)
	if err != nil {
		return fmt.Errorf("style fit: %w", err)
	}
	report.Converged = res.Converged

	scaler := s.scaler()
	names := m.Registry.Names()
	full := make([]float64, len(names))
	for j, mi := range res.ModelIdx {
		full[mi] = res.Strengths[j]
	}
	scaled := scaler.Apply(full, names)
	report.FinalRatings = ratingMap(names, scaled)

	ensemble, coefs, err := s.resampler(bootstrap.WithStyleFitter(fitter)).RunStyle(ctx, m)
	if err != nil {
		return fmt.Errorf("style bootstrap: %w", err)
	}
	ensemble.Trials = scaler.ApplyEnsemble(ensemble.Trials, ensemble.Models)
	report.Summaries = ensemble.Summarize()
	report.StyleCoef = &StyleCoefficients{Final: res.StyleCoef, Bootstrap: coefs}
	return nil
}

// runElo bootstraps the online updater over battle-order resamples; the
// published rating is the per-competitor ensemble median, rounded to the
// nearest whole point.
func (s *Service) runElo(ctx context.Context, battles []model.Battle, elo *rating.Elo, report *Report) error {
	ensemble, err := s.resampler().RunElo(ctx, battles, elo)
	if err != nil {
		return fmt.Errorf("elo bootstrap: %w", err)
	}
	report.Summaries = ensemble.Summarize()
	report.Converged = true

	final := make(map[string]float64, len(report.Summaries))
	for _, sum := range report.Summaries {
		final[sum.Model] = math.Floor(sum.Median + 0.5)
	}
	report.FinalRatings = final
	return nil
}

// leaderboard assembles the published table from the final ratings, the
// bootstrap summaries and the per-competitor battle counts, ordered by
// descending rating.
func (s *Service) leaderboard(battles []model.Battle, report *Report) []LeaderboardRow {
	counts := make(map[string]int)
	for _, b := range battles {
		counts[b.ModelA]++
		counts[b.ModelB]++
	}
	ranks := rank.FromSummaries(report.Summaries)

	bySummary := make(map[string]bootstrap.Summary, len(report.Summaries))
	for _, sum := range report.Summaries {
		bySummary[sum.Model] = sum
	}

	rows := make([]LeaderboardRow, 0, len(report.FinalRatings))
	for name, r := range report.FinalRatings {
		sum := bySummary[name]
		rows = append(rows, LeaderboardRow{
			Model:        name,
			Rating:       r,
			Variance:     sum.Variance,
			Q975:         sum.Q975,
			Q025:         sum.Q025,
			NumBattles:   counts[name],
			FinalRanking: ranks[name],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].Model < rows[j].Model
	})
	return rows
}

// categoryPredicate maps a category name to its battle predicate.
func categoryPredicate(category string) (func(model.Battle) bool, error) {
	switch category {
	case "full":
		return func(model.Battle) bool { return true }, nil
	case "english":
		return func(b model.Battle) bool { return b.Language == "English" }, nil
	case "chinese":
		return func(b model.Battle) bool { return b.Language == "Chinese" }, nil
	case "long":
		return isLongConversation, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}

// isLongConversation admits battles where either side's assistant output
// reaches the token threshold.
func isLongConversation(b model.Battle) bool {
	for _, key := range []string{"sum_assistant_a_tokens", "sum_assistant_b_tokens"} {
		if v, ok := b.Metadata[key]; ok && v.Scalar() >= longConvTokenThreshold {
			return true
		}
	}
	return false
}

func ratingMap(names []string, values []float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	for i, name := range names {
		out[name] = values[i]
	}
	return out
}

func lastTimestamp(battles []model.Battle) float64 {
	var last float64
	for _, b := range battles {
		if b.TStamp > last {
			last = b.TStamp
		}
	}
	return last
}
