// Package bootstrap quantifies sampling uncertainty of ratings by repeated
// resample-and-refit trials dispatched across a fixed-size worker pool.
// Trials are pure functions of (dataset view, per-trial seed): no trial
// reads or writes another trial's state, and results are collected by trial
// index into the ensemble.
package bootstrap

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/okian/rival/internal/domain/encode"
	"github.com/okian/rival/internal/domain/model"
	"github.com/okian/rival/internal/domain/rating"
	"github.com/okian/rival/internal/domain/style"
	"github.com/okian/rival/pkg/metrics"
)

// Default resampler configuration constants.
const (
	defaultRounds = 100
	defaultSeed   = 42
)

// Resampler runs bootstrap trials over a worker pool.
type Resampler struct {
	rounds      int
	workers     int
	seed        int64
	fitter      *rating.BTFitter
	styleFitter *style.Fitter
}

// Option applies a configuration option to the Resampler.
type Option func(*Resampler)

// WithRounds sets the number of bootstrap trials.
func WithRounds(n int) Option {
	return func(r *Resampler) {
		if n > 0 {
			r.rounds = n
		}
	}
}

// WithWorkers sizes the trial worker pool.
func WithWorkers(n int) Option {
	return func(r *Resampler) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithSeed seeds the parent pseudo-random generator from which every trial
// derives its own child generator. The same seed always reproduces the same
// ensemble regardless of worker scheduling.
func WithSeed(seed int64) Option {
	return func(r *Resampler) { r.seed = seed }
}

// WithBTFitter overrides the Bradley-Terry fitter used by plain trials.
func WithBTFitter(f *rating.BTFitter) Option {
	return func(r *Resampler) {
		if f != nil {
			r.fitter = f
		}
	}
}

// WithStyleFitter overrides the logistic fitter used by style trials.
func WithStyleFitter(f *style.Fitter) Option {
	return func(r *Resampler) {
		if f != nil {
			r.styleFitter = f
		}
	}
}

// NewResampler creates a Resampler with configuration options.
func NewResampler(opts ...Option) *Resampler {
	r := &Resampler{
		rounds:      defaultRounds,
		workers:     runtime.NumCPU(),
		seed:        defaultSeed,
		fitter:      rating.NewBTFitter(),
		styleFitter: style.NewFitter(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run dispatches trial indices to the pool and waits for completion. The
// per-trial child seeds are drawn from the parent generator up front so the
// ensemble is deterministic under any scheduling.
func (r *Resampler) run(ctx context.Context, trial func(i int, rng *rand.Rand) error) error {
	parent := rand.New(rand.NewSource(r.seed)) //nolint:gosec // reproducible resampling, not cryptography
	seeds := make([]int64, r.rounds)
	for i := range seeds {
		seeds[i] = parent.Int63()
	}

	workers := r.workers
	if workers > r.rounds {
		workers = r.rounds
	}
	metrics.UpdateBootstrapWorkers(workers)

	tasks := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				start := time.Now()
				rng := rand.New(rand.NewSource(seeds[i])) //nolint:gosec // derived trial seed
				if err := trial(i, rng); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("trial %d: %w", i, err)
					}
					mu.Unlock()
				}
				metrics.RecordBootstrapTrial(time.Since(start).Seconds())
			}
		}()
	}

feed:
	for i := 0; i < r.rounds; i++ {
		select {
		case tasks <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return firstErr
}

// RunPlain resamples the unique-weighted matchups via a multinomial draw
// proportional to their empirical weights (total draw count equal to the
// original battle count) and refits the Bradley-Terry model per trial.
func (r *Resampler) RunPlain(ctx context.Context, ds *encode.Dataset) (*Ensemble, error) {
	ensemble := newEnsemble(ds.Registry.Names(), r.rounds)

	total := ds.TotalWeight()
	if total == 0 {
		return nil, fmt.Errorf("cannot bootstrap an empty dataset")
	}
	cum := make([]float64, len(ds.Weights))
	var acc float64
	for i, w := range ds.Weights {
		acc += w
		cum[i] = acc
	}

	err := r.run(ctx, func(trial int, rng *rand.Rand) error {
		counts := make([]float64, len(ds.Weights))
		for n := 0; n < ds.NumBattles; n++ {
			u := rng.Float64() * total
			counts[sort.SearchFloat64s(cum, u)]++
		}
		// Only the weight distribution changes between trials; matchups
		// and outcomes are shared immutable views.
		for i := range counts {
			counts[i] /= float64(ds.NumBattles)
		}
		res, err := r.fitter.FitWeights(ds, counts)
		if err != nil {
			return err
		}
		copy(ensemble.Trials[trial], res.Ratings)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ensemble, nil
}

// RunStyle resamples indices into the original battle list with
// replacement. A resampled tie contributes both rows of its symmetric pair
// to preserve the tie-duplication invariant; a decisive battle contributes
// its forward row twice, matching the original duplication factor.
// Competitors absent from a resample are excluded from that trial's design
// and are NaN in its ensemble row.
func (r *Resampler) RunStyle(ctx context.Context, m *style.Matrices) (*Ensemble, [][]float64, error) {
	if m.NumBattles == 0 {
		return nil, nil, fmt.Errorf("cannot bootstrap an empty dataset")
	}
	ensemble := newEnsemble(m.Registry.Names(), r.rounds)
	coefs := make([][]float64, r.rounds)

	err := r.run(ctx, func(trial int, rng *rand.Rand) error {
		n := m.NumBattles
		rows := make([]int, 0, 2*n)
		for d := 0; d < n; d++ {
			idx := rng.Intn(n)
			if m.Tie[idx] {
				rows = append(rows, idx, n+idx)
			} else {
				rows = append(rows, idx, idx)
			}
		}
		res, err := r.styleFitter.FitRows(m, rows)
		if err != nil {
			return err
		}
		vec := ensemble.Trials[trial]
		for i := range vec {
			vec[i] = math.NaN()
		}
		for j, mi := range res.ModelIdx {
			vec[mi] = res.Strengths[j]
		}
		coefs[trial] = res.StyleCoef
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ensemble, coefs, nil
}

// RunElo resamples the battle list itself (in sampled order) and replays
// the online Elo update per trial, for the "elo" rating system where the
// published rating is the ensemble median.
func (r *Resampler) RunElo(ctx context.Context, battles []model.Battle, elo *rating.Elo) (*Ensemble, error) {
	if len(battles) == 0 {
		return nil, fmt.Errorf("cannot bootstrap an empty dataset")
	}
	reg := encode.NewRegistry(battles)
	ensemble := newEnsemble(reg.Names(), r.rounds)

	err := r.run(ctx, func(trial int, rng *rand.Rand) error {
		sample := make([]model.Battle, len(battles))
		for i := range sample {
			sample[i] = battles[rng.Intn(len(battles))]
		}
		ratings, err := elo.Compute(sample)
		if err != nil {
			return err
		}
		vec := ensemble.Trials[trial]
		for i := range vec {
			vec[i] = math.NaN()
		}
		for name, v := range ratings {
			if idx, ok := reg.Index(name); ok {
				vec[idx] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ensemble, nil
}
