// Package outlier flags judges whose voting pattern is implausible under an
// honest, consistent-pairwise-preference null, using a sequential
// likelihood-ratio test over each judge's votes in original order.
package outlier

import (
	"math/rand"

	"github.com/okian/rival/internal/domain/model"
	"github.com/okian/rival/pkg/metrics"
)

// Default detector configuration constants.
const (
	defaultAlpha    = 0.05
	defaultMaxVotes = 100
	defaultMinVotes = 5
	noiseAmplitude  = 1e-5
)

// PairKey identifies an unordered competitor pair by canonical ordering:
// the lexicographically smaller identifier is the reference side.
type PairKey struct {
	Ref   string
	Other string
}

// Key builds the canonical PairKey for two competitors.
func Key(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{Ref: a, Other: b}
}

// PairStats counts outcomes for one pair from the reference side's
// perspective, accumulated over all battles of the current subset. Ties are
// counted but excluded from the null distribution.
type PairStats struct {
	Win  int
	Loss int
	Tie  int
}

// CollectPairStats recomputes the per-pair vote statistics for a battle
// subset. Unrecognized outcomes are counted as ties here; the encoder is
// responsible for rejecting them before ratings are computed.
func CollectPairStats(battles []model.Battle) map[PairKey]PairStats {
	stats := make(map[PairKey]PairStats)
	for _, b := range battles {
		key := Key(b.ModelA, b.ModelB)
		s := stats[key]
		switch {
		case b.Winner == model.OutcomeModelA && b.ModelA == key.Ref,
			b.Winner == model.OutcomeModelB && b.ModelB == key.Ref:
			s.Win++
		case b.Winner == model.OutcomeModelA || b.Winner == model.OutcomeModelB:
			s.Loss++
		default:
			s.Tie++
		}
		stats[key] = s
	}
	return stats
}

// Flagged reports one anomalous judge and how many votes the test needed.
type Flagged struct {
	Judge string `json:"judge"`
	Votes int    `json:"votes"`
}

// Detector runs the sequential test. Judges below the minimum vote count
// are exempt (insufficient power); the test inspects at most maxVotes votes
// per judge to bound cost and stops early on the first threshold crossing.
type Detector struct {
	alpha      float64
	maxVotes   int
	minVotes   int
	randomized bool
	rng        *rand.Rand
}

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithAlpha sets the significance level; the flagging threshold is 1/alpha.
func WithAlpha(alpha float64) Option {
	return func(d *Detector) {
		if alpha > 0 && alpha < 1 {
			d.alpha = alpha
		}
	}
}

// WithMaxVotes caps the number of votes inspected per judge.
func WithMaxVotes(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxVotes = n
		}
	}
}

// WithMinVotes sets the exemption threshold for low-volume judges.
func WithMinVotes(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.minVotes = n
		}
	}
}

// WithRandomized toggles uniform tie-breaking noise on votes and reference
// samples. The rng must be provided by the caller; ambient global state is
// never used.
func WithRandomized(rng *rand.Rand) Option {
	return func(d *Detector) {
		d.randomized = true
		d.rng = rng
	}
}

// NewDetector creates a Detector with configuration options.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		alpha:    defaultAlpha,
		maxVotes: defaultMaxVotes,
		minVotes: defaultMinVotes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect replays every judge's votes against the pair statistics and
// returns the flagged judges. Per-judge outcomes are independent: skipping
// one judge never aborts the run.
func (d *Detector) Detect(battles []model.Battle, stats map[PairKey]PairStats) []Flagged {
	votesByJudge := make(map[string][]model.Battle)
	order := make([]string, 0)
	for _, b := range battles {
		if _, seen := votesByJudge[b.Judge]; !seen {
			order = append(order, b.Judge)
		}
		votesByJudge[b.Judge] = append(votesByJudge[b.Judge], b)
	}

	var flagged []Flagged
	for _, judge := range order {
		votes := votesByJudge[judge]
		if len(votes) < d.minVotes {
			continue
		}
		metrics.RecordJudgeChecked()
		if n, bad := d.checkJudge(votes, stats); bad {
			flagged = append(flagged, Flagged{Judge: judge, Votes: n})
			metrics.RecordJudgeFlagged()
		}
	}
	return flagged
}

// checkJudge accumulates the likelihood-ratio martingales over one judge's
// votes and reports the first threshold crossing.
func (d *Detector) checkJudge(votes []model.Battle, stats map[PairKey]PairStats) (int, bool) {
	threshold := 1 / d.alpha
	mUpper, mLower := 1.0, 1.0
	inspected := 0

	for _, b := range votes {
		if inspected >= d.maxVotes {
			break
		}

		key := Key(b.ModelA, b.ModelB)
		s := stats[key]
		total := s.Win + s.Loss
		inspected++
		if total == 0 {
			// No win/loss reference data for this pair: the tail
			// probabilities are undefined and the running products cannot
			// cross the threshold from here on.
			return inspected, false
		}

		vote := voteValue(b, key)
		var pUpper, pLower float64
		if d.randomized {
			pUpper, pLower = d.noisyTails(vote, s)
		} else {
			pUpper, pLower = tails(vote, s)
		}

		mUpper *= 1 / (2 * pUpper)
		mLower *= 1 / (2 * pLower)
		if mUpper > threshold || mLower > threshold {
			return inspected, true
		}
	}
	return inspected, false
}

// voteValue maps a battle to the judge's vote from the reference side's
// perspective: 1 backs the reference, 0 backs the other side, 0.5 is a tie.
func voteValue(b model.Battle, key PairKey) float64 {
	switch {
	case b.Winner.IsTie() || !b.Winner.Recognized():
		return 0.5
	case b.Winner == model.OutcomeModelA && b.ModelA == key.Ref,
		b.Winner == model.OutcomeModelB && b.ModelB == key.Ref:
		return 1
	default:
		return 0
	}
}

// tails computes the one-sided tail probabilities of the vote against the
// pair's empirical win/loss distribution.
func tails(vote float64, s PairStats) (pUpper, pLower float64) {
	total := float64(s.Win + s.Loss)
	switch vote {
	case 1:
		return 1, float64(s.Win) / total
	case 0:
		return float64(s.Loss) / total, 1
	default: // tie
		return float64(s.Loss) / total, float64(s.Win) / total
	}
}

// noisyTails is the randomized variant: uniform tie-breaking noise is added
// to the vote and to every reference sample before counting.
func (d *Detector) noisyTails(vote float64, s PairStats) (pUpper, pLower float64) {
	total := s.Win + s.Loss
	v := vote + d.noise()
	le, ge := 0, 0
	for i := 0; i < s.Win; i++ {
		sample := 1 + d.noise()
		if sample <= v {
			le++
		}
		if sample >= v {
			ge++
		}
	}
	for i := 0; i < s.Loss; i++ {
		sample := d.noise()
		if sample <= v {
			le++
		}
		if sample >= v {
			ge++
		}
	}
	return float64(le) / float64(total), float64(ge) / float64(total)
}

func (d *Detector) noise() float64 {
	return (d.rng.Float64()*2 - 1) * noiseAmplitude
}

// Filter detects anomalous judges and returns the battles with every
// flagged judge's votes removed, along with the flags.
func (d *Detector) Filter(battles []model.Battle) ([]model.Battle, []Flagged) {
	stats := CollectPairStats(battles)
	flagged := d.Detect(battles, stats)
	if len(flagged) == 0 {
		return battles, nil
	}
	judges := make([]string, len(flagged))
	for i, f := range flagged {
		judges[i] = f.Judge
	}
	return model.RemoveJudges(battles, judges), flagged
}
