package rating

import (
	"fmt"
	"math"

	"github.com/okian/rival/internal/domain/encode"
	"github.com/okian/rival/internal/domain/model"
)

// Default online Elo parameters.
const (
	DefaultKFactor = 4.0
)

// Elo produces a rating snapshot from a single chronological pass over the
// battles with the classical fixed-step logistic update. It is a
// sanity-check reference rating, not the primary published one.
type Elo struct {
	k          float64
	scale      float64
	base       float64
	initRating float64
}

// EloOption applies a configuration option to the Elo updater.
type EloOption func(*Elo)

// WithKFactor sets the update step size.
func WithKFactor(k float64) EloOption {
	return func(e *Elo) {
		if k > 0 {
			e.k = k
		}
	}
}

// WithEloScale sets the rating-difference scale.
func WithEloScale(scale float64) EloOption {
	return func(e *Elo) {
		if scale > 0 {
			e.scale = scale
		}
	}
}

// WithEloBase sets the logistic base.
func WithEloBase(base float64) EloOption {
	return func(e *Elo) {
		if base > 1 {
			e.base = base
		}
	}
}

// WithEloInitRating sets the rating every competitor starts from.
func WithEloInitRating(init float64) EloOption {
	return func(e *Elo) { e.initRating = init }
}

// NewElo creates an online Elo updater with configuration options.
func NewElo(opts ...EloOption) *Elo {
	e := &Elo{
		k:          DefaultKFactor,
		scale:      DefaultScale,
		base:       DefaultBase,
		initRating: DefaultInitRating,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute streams the battles once and returns the final rating table.
// Battles must already be in non-decreasing timestamp order; the result
// depends on it. An unrecognized outcome aborts the whole pass.
func (e *Elo) Compute(battles []model.Battle) (map[string]float64, error) {
	ratings := make(map[string]float64)
	get := func(name string) float64 {
		if r, ok := ratings[name]; ok {
			return r
		}
		return e.initRating
	}

	for _, b := range battles {
		if !b.Winner.Recognized() {
			return nil, fmt.Errorf("%w: %q", encode.ErrUnrecognizedOutcome, b.Winner)
		}
		ra := get(b.ModelA)
		rb := get(b.ModelB)
		ea := 1 / (1 + math.Pow(e.base, (rb-ra)/e.scale))
		eb := 1 / (1 + math.Pow(e.base, (ra-rb)/e.scale))
		sa := b.Winner.Score()
		ratings[b.ModelA] = ra + e.k*(sa-ea)
		ratings[b.ModelB] = rb + e.k*((1-sa)-eb)
	}
	return ratings, nil
}
