// Package rating computes competitor strength ratings: a Bradley-Terry
// maximum-likelihood fit over encoded matchups, the classical sequential
// Elo update, and the affine transform onto the conventional display scale.
package rating

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/rival/internal/domain/encode"
	"github.com/okian/rival/pkg/metrics"
	"gonum.org/v1/gonum/optimize"
)

// Default fit parameters.
const (
	DefaultBase          = 10.0
	defaultMaxIterations = 100
	defaultGradTolerance = 1e-6
)

// FitResult carries the raw fitted strengths, index-aligned with the
// dataset registry. A fit that hits the iteration cap still returns its
// current estimate; Converged reports whether the gradient tolerance was
// actually reached.
type FitResult struct {
	Ratings   []float64
	Converged bool
}

// BTFitter finds the strength vector minimizing the weighted negative
// log-likelihood of the Bradley-Terry model with tie handling.
type BTFitter struct {
	alpha   float64
	maxIter int
	tol     float64
}

// BTOption applies a configuration option to the BTFitter.
type BTOption func(*BTFitter)

// WithBase sets the logistic base; the logit multiplier is ln(base).
func WithBase(base float64) BTOption {
	return func(f *BTFitter) {
		if base > 1 {
			f.alpha = math.Log(base)
		}
	}
}

// WithMaxIterations bounds the optimizer iteration count.
func WithMaxIterations(n int) BTOption {
	return func(f *BTFitter) {
		if n > 0 {
			f.maxIter = n
		}
	}
}

// WithGradTolerance sets the gradient-norm convergence tolerance.
func WithGradTolerance(tol float64) BTOption {
	return func(f *BTFitter) {
		if tol > 0 {
			f.tol = tol
		}
	}
}

// NewBTFitter creates a fitter with configuration options.
func NewBTFitter(opts ...BTOption) *BTFitter {
	f := &BTFitter{
		alpha:   math.Log(DefaultBase),
		maxIter: defaultMaxIterations,
		tol:     defaultGradTolerance,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit runs the optimization over the dataset's own weights.
func (f *BTFitter) Fit(ds *encode.Dataset) (FitResult, error) {
	return f.FitWeights(ds, ds.Weights)
}

// FitWeights runs the optimization with an alternative weight vector over
// the same matchups, as used by bootstrap resampling. A weight of zero
// drops that matchup from the objective.
func (f *BTFitter) FitWeights(ds *encode.Dataset, weights []float64) (FitResult, error) {
	if len(weights) != len(ds.MatchupA) {
		return FitResult{}, fmt.Errorf("weight vector length %d does not match %d matchups", len(weights), len(ds.MatchupA))
	}
	n := ds.Registry.Len()
	if n == 0 {
		return FitResult{Ratings: nil, Converged: true}, nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordFitDuration("bt", time.Since(start).Seconds())
	}()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return btLoss(x, ds, weights, f.alpha)
		},
		Grad: func(grad, x []float64) {
			btGrad(grad, x, ds, weights, f.alpha)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: f.tol,
		MajorIterations:   f.maxIter,
	}

	x0 := make([]float64, n)
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != n {
		return FitResult{}, fmt.Errorf("bradley-terry fit produced no estimate: %w", err)
	}

	// Hitting the iteration cap (or a line-search stall near the optimum)
	// is not an error: the best-so-far estimate is returned and the caller
	// can inspect Converged.
	converged := err == nil && result.Status == optimize.GradientThreshold
	if !converged {
		metrics.RecordFitNonConverged()
	}
	return FitResult{Ratings: result.X, Converged: converged}, nil
}

// btLoss is the weighted negative log-likelihood. A draw counts as half a
// win and half a loss through the fractional target.
func btLoss(ratings []float64, ds *encode.Dataset, weights []float64, alpha float64) float64 {
	var loss float64
	for i := range ds.MatchupA {
		w := weights[i]
		if w == 0 {
			continue
		}
		logit := alpha * (ratings[ds.MatchupA[i]] - ratings[ds.MatchupB[i]])
		y := ds.Outcomes[i]
		// -(y*log(p) + (1-y)*log(1-p)) in a numerically stable form.
		loss += w * (softplus(-logit) + (1-y)*logit)
	}
	return loss
}

// btGrad accumulates the closed-form gradient per competitor index.
func btGrad(grad, ratings []float64, ds *encode.Dataset, weights []float64, alpha float64) {
	for i := range grad {
		grad[i] = 0
	}
	for i := range ds.MatchupA {
		w := weights[i]
		if w == 0 {
			continue
		}
		logit := alpha * (ratings[ds.MatchupA[i]] - ratings[ds.MatchupB[i]])
		g := -alpha * (ds.Outcomes[i] - sigmoid(logit)) * w
		grad[ds.MatchupA[i]] += g
		grad[ds.MatchupB[i]] -= g
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softplus computes log(1+exp(x)) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
