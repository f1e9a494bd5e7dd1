package style

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/rival/pkg/metrics"
	"gonum.org/v1/gonum/optimize"
)

// Default logistic-fit parameters.
const (
	defaultC             = 1.0
	defaultMaxIterations = 100
	defaultGradTolerance = 1e-6
)

// Result is a fitted style-control model. Strengths holds the raw strength
// coefficient for each entry of ModelIdx (registry indices, ascending);
// StyleCoef holds the K style effect sizes, which are reported on the
// natural scale and never rescaled.
type Result struct {
	ModelIdx  []int
	Strengths []float64
	StyleCoef []float64
	Converged bool
}

// Fitter fits an L2-regularized logistic regression without intercept over
// style-control matrices.
type Fitter struct {
	c       float64
	maxIter int
	tol     float64
}

// FitterOption applies a configuration option to the Fitter.
type FitterOption func(*Fitter)

// WithC sets the inverse regularization strength.
func WithC(c float64) FitterOption {
	return func(f *Fitter) {
		if c > 0 {
			f.c = c
		}
	}
}

// WithFitMaxIterations bounds the optimizer iteration count.
func WithFitMaxIterations(n int) FitterOption {
	return func(f *Fitter) {
		if n > 0 {
			f.maxIter = n
		}
	}
}

// WithFitGradTolerance sets the gradient-norm tolerance.
func WithFitGradTolerance(tol float64) FitterOption {
	return func(f *Fitter) {
		if tol > 0 {
			f.tol = tol
		}
	}
}

// NewFitter creates a Fitter with configuration options.
func NewFitter(opts ...FitterOption) *Fitter {
	f := &Fitter{
		c:       defaultC,
		maxIter: defaultMaxIterations,
		tol:     defaultGradTolerance,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit runs the logistic regression over all rows.
func (f *Fitter) Fit(m *Matrices) (Result, error) {
	rows := make([]int, m.Rows)
	for i := range rows {
		rows[i] = i
	}
	return f.FitRows(m, rows)
}

// FitRows runs the logistic regression over the given row selection (row
// indices into m, with repetition allowed, as produced by resampling).
// Competitors whose strength column is zero across the selection are
// excluded from the design and from the result.
func (f *Fitter) FitRows(m *Matrices, rows []int) (Result, error) {
	if len(rows) == 0 {
		return Result{}, fmt.Errorf("style fit needs at least one design row")
	}

	start := time.Now()
	defer func() {
		metrics.RecordFitDuration("style", time.Since(start).Seconds())
	}()

	// Competitors present in this row selection.
	present := make([]bool, m.P)
	for _, r := range rows {
		row := m.Row(r)
		for j := 0; j < m.P; j++ {
			if row[j] != 0 {
				present[j] = true
			}
		}
	}
	modelIdx := make([]int, 0, m.P)
	for j := 0; j < m.P; j++ {
		if present[j] {
			modelIdx = append(modelIdx, j)
		}
	}

	// Compact column mapping: kept strength columns first, then all K
	// style columns.
	cols := make([]int, 0, len(modelIdx)+m.K)
	cols = append(cols, modelIdx...)
	for j := 0; j < m.K; j++ {
		cols = append(cols, m.P+j)
	}
	dim := len(cols)

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			return f.loss(m, rows, cols, w)
		},
		Grad: func(grad, w []float64) {
			f.grad(grad, m, rows, cols, w)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: f.tol,
		MajorIterations:   f.maxIter,
	}

	w0 := make([]float64, dim)
	result, err := optimize.Minimize(problem, w0, settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != dim {
		return Result{}, fmt.Errorf("style fit produced no estimate: %w", err)
	}
	converged := err == nil && result.Status == optimize.GradientThreshold
	if !converged {
		metrics.RecordFitNonConverged()
	}

	p := len(modelIdx)
	return Result{
		ModelIdx:  modelIdx,
		Strengths: result.X[:p],
		StyleCoef: result.X[p:],
		Converged: converged,
	}, nil
}

// loss is the binary cross-entropy over the selected rows plus the L2
// penalty 1/(2C)*||w||^2 (no intercept).
func (f *Fitter) loss(m *Matrices, rows, cols []int, w []float64) float64 {
	var loss float64
	for _, r := range rows {
		row := m.Row(r)
		var z float64
		for j, c := range cols {
			z += row[c] * w[j]
		}
		loss += softplus(-z) + (1-m.Y[r])*z
	}
	var penalty float64
	for _, wj := range w {
		penalty += wj * wj
	}
	return loss + penalty/(2*f.c)
}

func (f *Fitter) grad(grad []float64, m *Matrices, rows, cols []int, w []float64) {
	for j := range grad {
		grad[j] = w[j] / f.c
	}
	for _, r := range rows {
		row := m.Row(r)
		var z float64
		for j, c := range cols {
			z += row[c] * w[j]
		}
		residual := sigmoid(z) - m.Y[r]
		for j, c := range cols {
			grad[j] += residual * row[c]
		}
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
