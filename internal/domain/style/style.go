// Package style builds the extended design matrix that lets a logistic fit
// attribute part of a battle outcome to response style (length, formatting)
// rather than pure competitor strength, and fits that model.
package style

import (
	"fmt"
	"math"

	"github.com/okian/rival/internal/domain/encode"
	"github.com/okian/rival/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Element describes one style covariate measured on both sides of a battle.
type Element struct {
	// A and B are the style-metadata keys holding the raw counts for the
	// two sides.
	A string
	B string

	// Ratio normalizes the A-B difference by the sum of both sides
	// (with add-one smoothing), turning absolute counts into a share.
	Ratio bool
}

// DefaultElements returns the standard covariate set: answer token volume
// and markdown density (headers, lists, bold).
func DefaultElements() []Element {
	return []Element{
		{A: "sum_assistant_a_tokens", B: "sum_assistant_b_tokens", Ratio: true},
		{A: "header_count_a", B: "header_count_b", Ratio: true},
		{A: "list_count_a", B: "list_count_b", Ratio: true},
		{A: "bold_count_a", B: "bold_count_b", Ratio: true},
	}
}

// Matrices is the style-control design. Every battle contributes a
// symmetric pair of rows: the forward row and its duplicate. Both rows
// carry identical predictors (one-hot ±ln(base) strength columns followed
// by standardized style-difference columns); the pair differs only in the
// target, which splits a tie into one win row and one loss row instead of a
// fractional 0.5 label. Downstream resampling depends on this row-doubling
// layout: row i and row i+NumBattles always belong to the same battle.
type Matrices struct {
	Registry *encode.Registry

	// NumBattles is the pre-duplication battle count n; Rows is always 2n.
	NumBattles int
	Rows       int

	// P strength columns then K style columns, row-major.
	P int
	K int
	X []float64
	Y []float64

	// Tie[i] reports whether battle i (pre-duplication index) was a tie.
	Tie []bool
}

// Cols returns the total column count P+K.
func (m *Matrices) Cols() int { return m.P + m.K }

// Row returns a view of the i-th design row.
func (m *Matrices) Row(i int) []float64 {
	c := m.Cols()
	return m.X[i*c : (i+1)*c]
}

// Builder constructs style-control matrices from battles.
type Builder struct {
	base     float64
	addOne   bool
	elements []Element
}

// BuilderOption applies a configuration option to the Builder.
type BuilderOption func(*Builder)

// WithElements overrides the covariate set.
func WithElements(elements []Element) BuilderOption {
	return func(b *Builder) {
		if len(elements) > 0 {
			b.elements = elements
		}
	}
}

// WithStyleBase sets the logistic base used for the strength columns.
func WithStyleBase(base float64) BuilderOption {
	return func(b *Builder) {
		if base > 1 {
			b.base = base
		}
	}
}

// WithoutAddOne disables the add-one smoothing of the ratio denominator.
func WithoutAddOne() BuilderOption {
	return func(b *Builder) { b.addOne = false }
}

// NewBuilder creates a Builder with the default covariates.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		base:     10,
		addOne:   true,
		elements: DefaultElements(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build encodes the battles into the paired-row design. A covariate with
// zero variance across the dataset makes standardization undefined and is
// surfaced as ErrDegenerateCovariate rather than silently producing NaNs.
func (b *Builder) Build(battles []model.Battle) (*Matrices, error) {
	for _, bt := range battles {
		if !bt.Winner.Recognized() {
			return nil, fmt.Errorf("%w: %q", encode.ErrUnrecognizedOutcome, bt.Winner)
		}
	}

	reg := encode.NewRegistry(battles)
	n := len(battles)
	p := reg.Len()
	k := len(b.elements)
	cols := p + k

	m := &Matrices{
		Registry:   reg,
		NumBattles: n,
		Rows:       2 * n,
		P:          p,
		K:          k,
		X:          make([]float64, 2*n*cols),
		Y:          make([]float64, 2*n),
		Tie:        make([]bool, n),
	}

	// Standardized style differences, computed once per battle and shared
	// by both rows of the pair.
	diffs, err := b.styleDiffs(battles)
	if err != nil {
		return nil, err
	}

	logBase := math.Log(b.base)
	for i, bt := range battles {
		ai, _ := reg.Index(bt.ModelA)
		bi, _ := reg.Index(bt.ModelB)
		m.Tie[i] = bt.Winner.IsTie()

		forward, mirror := m.Row(i), m.Row(n+i)
		forward[ai], forward[bi] = logBase, -logBase
		mirror[ai], mirror[bi] = logBase, -logBase
		for j := 0; j < k; j++ {
			forward[p+j] = diffs[j][i]
			mirror[p+j] = diffs[j][i]
		}

		// A win labels both rows 1, a B win labels both 0, and a tie is
		// split across the pair: the forward row records a win, the
		// duplicate a loss.
		switch {
		case bt.Winner == model.OutcomeModelA:
			m.Y[i], m.Y[n+i] = 1, 1
		case bt.Winner.IsTie():
			m.Y[i], m.Y[n+i] = 1, 0
		}
	}
	return m, nil
}

// styleDiffs computes, per element, the (A-B) count difference for every
// battle, ratio-normalized where configured and standardized to zero mean
// and unit variance.
func (b *Builder) styleDiffs(battles []model.Battle) ([][]float64, error) {
	n := len(battles)
	diffs := make([][]float64, len(b.elements))
	for j, el := range b.elements {
		col := make([]float64, n)
		for i, bt := range battles {
			va := float64(bt.Metadata[el.A].Scalar())
			vb := float64(bt.Metadata[el.B].Scalar())
			d := va - vb
			if el.Ratio {
				sum := va + vb
				if b.addOne {
					sum++
				}
				d /= sum
			}
			col[i] = d
		}

		mean := stat.Mean(col, nil)
		std := stat.PopStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			return nil, fmt.Errorf("%w: %s", ErrDegenerateCovariate, el.A)
		}
		for i := range col {
			col[i] = (col[i] - mean) / std
		}
		diffs[j] = col
	}
	return diffs, nil
}
