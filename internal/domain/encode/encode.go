// Package encode maps symbolic competitor identifiers to dense indices and
// compresses a battle list into weighted unique matchup triples for fitting.
package encode

import (
	"fmt"
	"sort"

	"github.com/okian/rival/internal/domain/model"
)

// Registry is a bijection between competitor identifiers and dense integer
// indices, built fresh from the competitors appearing in one battle subset.
// Index assignment is stable only within a single encoding pass.
type Registry struct {
	names []string
	index map[string]int
}

// NewRegistry builds a registry from battles, assigning indices in order of
// first appearance (A side before B side within a battle).
func NewRegistry(battles []model.Battle) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, b := range battles {
		r.add(b.ModelA)
		r.add(b.ModelB)
	}
	return r
}

func (r *Registry) add(name string) {
	if _, ok := r.index[name]; !ok {
		r.index[name] = len(r.names)
		r.names = append(r.names, name)
	}
}

// Len returns the number of registered competitors.
func (r *Registry) Len() int { return len(r.names) }

// Name returns the competitor identifier for a dense index.
func (r *Registry) Name(i int) string { return r.names[i] }

// Names returns the identifiers in index order. The returned slice is a copy.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Index returns the dense index for an identifier.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Dataset holds the encoded (matchup, outcome, weight) arrays consumed by
// the Bradley-Terry fitter. Identical (A, B, outcome) triples are
// deduplicated with their occurrence count as weight; this is purely a
// performance optimization and does not change fitted results.
type Dataset struct {
	Registry *Registry

	// MatchupA[i] and MatchupB[i] are the competitor indices of the i-th
	// unique matchup; Outcomes[i] is its probability target (1 A win,
	// 0.5 tie, 0 B win); Weights[i] its occurrence count.
	MatchupA []int
	MatchupB []int
	Outcomes []float64
	Weights  []float64

	// NumBattles is the size of the originating battle subset. The sum of
	// Weights always equals it.
	NumBattles int
}

// outcomeCode mirrors the integer encoding used before deduplication:
// A win -> 2, tie -> 1, B win -> 0, so that code/2 is the fit target.
func outcomeCode(o model.Outcome) (int, error) {
	switch o {
	case model.OutcomeModelA:
		return 2, nil
	case model.OutcomeModelB:
		return 0, nil
	case model.OutcomeTie, model.OutcomeTieBothBad:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnrecognizedOutcome, o)
	}
}

type triple struct {
	a, b, code int
}

// Battles encodes a battle subset into a Dataset. Outcome encoding is
// order-sensitive: the target is relative to the (ModelA, ModelB) ordering
// of each record, not to any canonical ordering. Any unrecognized outcome
// aborts the whole encoding.
func Battles(battles []model.Battle) (*Dataset, error) {
	reg := NewRegistry(battles)

	counts := make(map[triple]float64)
	for _, b := range battles {
		code, err := outcomeCode(b.Winner)
		if err != nil {
			return nil, err
		}
		ai, _ := reg.Index(b.ModelA)
		bi, _ := reg.Index(b.ModelB)
		counts[triple{a: ai, b: bi, code: code}]++
	}

	keys := make([]triple, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		if keys[i].b != keys[j].b {
			return keys[i].b < keys[j].b
		}
		return keys[i].code < keys[j].code
	})

	ds := &Dataset{
		Registry:   reg,
		MatchupA:   make([]int, len(keys)),
		MatchupB:   make([]int, len(keys)),
		Outcomes:   make([]float64, len(keys)),
		Weights:    make([]float64, len(keys)),
		NumBattles: len(battles),
	}
	for i, k := range keys {
		ds.MatchupA[i] = k.a
		ds.MatchupB[i] = k.b
		ds.Outcomes[i] = float64(k.code) / 2
		ds.Weights[i] = counts[k]
	}
	return ds, nil
}

// TotalWeight returns the sum of matchup weights.
func (d *Dataset) TotalWeight() float64 {
	var sum float64
	for _, w := range d.Weights {
		sum += w
	}
	return sum
}
