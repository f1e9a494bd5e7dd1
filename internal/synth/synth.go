// Package synth generates synthetic battle records from known ground-truth
// strengths, for tests and for manual verification of the rating pipeline.
package synth

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rival/internal/domain/model"
)

// Default generation parameters.
const (
	defaultNumJudges = 50
	defaultTieProb   = 0.15
	defaultScale     = 400.0
	defaultBase      = 10.0
	tokenCountRange  = 900
	tokenCountMin    = 40
)

// Generator produces battles whose outcomes follow a Bradley-Terry model
// over fixed ground-truth strengths, so a fitted leaderboard can be checked
// against a known ordering.
type Generator struct {
	strengths map[string]float64
	models    []string
	judges    []string
	languages []string
	tieProb   float64
	scale     float64
	base      float64
	start     time.Time
	rng       *rand.Rand
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithStrengths sets the ground-truth display-scale strengths.
func WithStrengths(strengths map[string]float64) Option {
	return func(g *Generator) {
		if len(strengths) > 0 {
			g.strengths = strengths
		}
	}
}

// WithJudges sets the size of the judge pool.
func WithJudges(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.judges = make([]string, n)
			for i := range g.judges {
				g.judges[i] = uuid.New().String()
			}
		}
	}
}

// WithTieProbability sets the chance a battle ends tied.
func WithTieProbability(p float64) Option {
	return func(g *Generator) {
		if p >= 0 && p < 1 {
			g.tieProb = p
		}
	}
}

// WithLanguages sets the language pool sampled uniformly per battle.
func WithLanguages(langs []string) Option {
	return func(g *Generator) {
		if len(langs) > 0 {
			g.languages = langs
		}
	}
}

// WithStart sets the timestamp of the first battle; each subsequent battle
// is one minute later.
func WithStart(t time.Time) Option {
	return func(g *Generator) { g.start = t }
}

// WithRand sets the pseudo-random source. The generator never touches
// ambient global randomness.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		if rng != nil {
			g.rng = rng
		}
	}
}

// New constructs a Generator. Without options it produces battles among
// four competitors of well-separated strengths.
func New(opts ...Option) *Generator {
	g := &Generator{
		strengths: map[string]float64{
			"synth-strong": 1250,
			"synth-good":   1120,
			"synth-mid":    1000,
			"synth-weak":   880,
		},
		languages: []string{"English"},
		tieProb:   defaultTieProb,
		scale:     defaultScale,
		base:      defaultBase,
		start:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(1))
	}
	if g.judges == nil {
		g.judges = make([]string, defaultNumJudges)
		for i := range g.judges {
			g.judges[i] = uuid.New().String()
		}
	}
	g.models = make([]string, 0, len(g.strengths))
	for name := range g.strengths {
		g.models = append(g.models, name)
	}
	sort.Strings(g.models)
	return g
}

// Models returns the competitor names in deterministic order.
func (g *Generator) Models() []string {
	out := make([]string, len(g.models))
	copy(out, g.models)
	return out
}

// Generate produces n battles in ascending timestamp order.
func (g *Generator) Generate(n int) []model.Battle {
	battles := make([]model.Battle, n)
	for i := range battles {
		battles[i] = g.battle(i)
	}
	return battles
}

func (g *Generator) battle(i int) model.Battle {
	a := g.models[g.rng.Intn(len(g.models))]
	b := a
	for b == a {
		b = g.models[g.rng.Intn(len(g.models))]
	}

	winner := g.outcome(a, b)
	ts := g.start.Add(time.Duration(i) * time.Minute)

	return model.Battle{
		ModelA:   a,
		ModelB:   b,
		Winner:   winner,
		Judge:    g.judges[g.rng.Intn(len(g.judges))],
		TStamp:   float64(ts.Unix()),
		Language: g.languages[g.rng.Intn(len(g.languages))],
		Anony:    true,
		Metadata: g.metadata(),
	}
}

// outcome samples the winner from the Bradley-Terry win probability of the
// ground-truth strengths, with a flat tie probability on top.
func (g *Generator) outcome(a, b string) model.Outcome {
	if g.rng.Float64() < g.tieProb {
		if g.rng.Float64() < 0.5 {
			return model.OutcomeTie
		}
		return model.OutcomeTieBothBad
	}
	diff := (g.strengths[b] - g.strengths[a]) / g.scale
	pA := 1 / (1 + math.Pow(g.base, diff))
	if g.rng.Float64() < pA {
		return model.OutcomeModelA
	}
	return model.OutcomeModelB
}

// metadata fills the style counters the engine's style control reads.
func (g *Generator) metadata() map[string]model.StyleValue {
	tokens := func() model.StyleValue {
		return model.IntValue(tokenCountMin + g.rng.Intn(tokenCountRange))
	}
	counts := func() model.StyleValue {
		return model.CountsValue(map[string]int{
			"ordered":   g.rng.Intn(4),
			"unordered": g.rng.Intn(4),
		})
	}
	return map[string]model.StyleValue{
		"sum_assistant_a_tokens": tokens(),
		"sum_assistant_b_tokens": tokens(),
		"header_count_a":         model.IntValue(g.rng.Intn(5)),
		"header_count_b":         model.IntValue(g.rng.Intn(5)),
		"list_count_a":           counts(),
		"list_count_b":           counts(),
		"bold_count_a":           model.IntValue(g.rng.Intn(8)),
		"bold_count_b":           model.IntValue(g.rng.Intn(8)),
	}
}
