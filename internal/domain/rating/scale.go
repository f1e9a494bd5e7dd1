package rating

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Default display-scale parameters.
const (
	DefaultScale        = 400.0
	DefaultInitRating   = 1000.0
	DefaultAnchorModel  = "mixtral-8x7b-instruct-v0.1"
	DefaultAnchorRating = 1114.0
)

// Scaler converts raw fitted strengths to the conventional display scale:
// scaled = raw*scale + initRating, then a uniform shift pinning the anchor
// competitor to its target value. Ratings are interpretable only up to this
// affine transform.
type Scaler struct {
	scale        float64
	initRating   float64
	anchorModel  string
	anchorRating float64
}

// ScalerOption applies a configuration option to the Scaler.
type ScalerOption func(*Scaler)

// WithScale sets the affine scale factor.
func WithScale(scale float64) ScalerOption {
	return func(s *Scaler) {
		if scale > 0 {
			s.scale = scale
		}
	}
}

// WithInitRating sets the affine offset.
func WithInitRating(init float64) ScalerOption {
	return func(s *Scaler) { s.initRating = init }
}

// WithAnchor sets the anchor competitor and its pinned rating. An empty
// model disables the anchor shift.
func WithAnchor(model string, target float64) ScalerOption {
	return func(s *Scaler) {
		s.anchorModel = model
		s.anchorRating = target
	}
}

// NewScaler creates a Scaler with the conventional defaults.
func NewScaler(opts ...ScalerOption) Scaler {
	s := Scaler{
		scale:        DefaultScale,
		initRating:   DefaultInitRating,
		anchorModel:  DefaultAnchorModel,
		anchorRating: DefaultAnchorRating,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Apply rescales one rating vector. names must be index-aligned with raw.
// When the anchor competitor is absent the shift is simply skipped; that is
// not an error. Applying the transform to an already-anchored vector with
// scale 1 and offset 0 changes nothing.
func (s Scaler) Apply(raw []float64, names []string) []float64 {
	scaled := make([]float64, len(raw))
	floats.ScaleTo(scaled, s.scale, raw)
	floats.AddConst(s.initRating, scaled)
	s.shift(scaled, names)
	return scaled
}

// ApplyEnsemble rescales every trial vector of a bootstrap ensemble. The
// anchor shift is uniform within each vector, never per competitor.
func (s Scaler) ApplyEnsemble(ensemble [][]float64, names []string) [][]float64 {
	out := make([][]float64, len(ensemble))
	for i, raw := range ensemble {
		out[i] = s.Apply(raw, names)
	}
	return out
}

func (s Scaler) shift(scaled []float64, names []string) {
	if s.anchorModel == "" {
		return
	}
	for i, name := range names {
		if name == s.anchorModel {
			if math.IsNaN(scaled[i]) {
				// Anchor absent from this trial's resample.
				return
			}
			floats.AddConst(s.anchorRating-scaled[i], scaled)
			return
		}
	}
}
