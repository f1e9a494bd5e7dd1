package bootstrap

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Conventional confidence-interval quantiles.
const (
	QuantileLower  = 0.025
	QuantileMedian = 0.5
	QuantileUpper  = 0.975
)

// Ensemble is an ordered collection of rating vectors, one per bootstrap
// trial. It exists only to derive empirical quantiles and variances per
// competitor; no single trial is ever treated as "the" rating. A NaN entry
// means the competitor was absent from that trial's resample.
type Ensemble struct {
	Models []string
	Trials [][]float64
}

func newEnsemble(models []string, rounds int) *Ensemble {
	e := &Ensemble{
		Models: models,
		Trials: make([][]float64, rounds),
	}
	for i := range e.Trials {
		e.Trials[i] = make([]float64, len(models))
	}
	return e
}

// column gathers the non-NaN samples of one competitor, sorted ascending.
func (e *Ensemble) column(j int) []float64 {
	col := make([]float64, 0, len(e.Trials))
	for _, trial := range e.Trials {
		if v := trial[j]; !math.IsNaN(v) {
			col = append(col, v)
		}
	}
	sort.Float64s(col)
	return col
}

// Summary holds the reduction of one competitor's ensemble column.
type Summary struct {
	Model    string  `json:"model"`
	Median   float64 `json:"rating_median"`
	Q025     float64 `json:"rating_q025"`
	Q975     float64 `json:"rating_q975"`
	Variance float64 `json:"variance"`
}

// Summarize reduces the ensemble to per-competitor quantiles and sample
// variance, ordered by descending median rating.
func (e *Ensemble) Summarize() []Summary {
	out := make([]Summary, 0, len(e.Models))
	for j, name := range e.Models {
		col := e.column(j)
		if len(col) == 0 {
			out = append(out, Summary{
				Model:    name,
				Median:   math.NaN(),
				Q025:     math.NaN(),
				Q975:     math.NaN(),
				Variance: math.NaN(),
			})
			continue
		}
		out = append(out, Summary{
			Model:    name,
			Median:   stat.Quantile(QuantileMedian, stat.LinInterp, col, nil),
			Q025:     stat.Quantile(QuantileLower, stat.LinInterp, col, nil),
			Q975:     stat.Quantile(QuantileUpper, stat.LinInterp, col, nil),
			Variance: stat.Variance(col, nil),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Median, out[j].Median
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		if math.IsNaN(a) {
			return false
		}
		return a > b
	})
	return out
}
