// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// Outcome is the recorded result of a battle, relative to the (ModelA,
// ModelB) ordering of the record.
type Outcome string

// Recognized outcome tags. Anything else is a corrupt record.
const (
	OutcomeModelA     Outcome = "model_a"
	OutcomeModelB     Outcome = "model_b"
	OutcomeTie        Outcome = "tie"
	OutcomeTieBothBad Outcome = "tie (bothbad)"
)

// Recognized reports whether o is one of the four valid outcome tags.
func (o Outcome) Recognized() bool {
	switch o {
	case OutcomeModelA, OutcomeModelB, OutcomeTie, OutcomeTieBothBad:
		return true
	default:
		return false
	}
}

// IsTie reports whether o is either tie variant.
func (o Outcome) IsTie() bool {
	return o == OutcomeTie || o == OutcomeTieBothBad
}

// Score returns the actual score for the A side: 1 for an A win, 0 for a
// B win, 0.5 for either tie. The caller must check Recognized first.
func (o Outcome) Score() float64 {
	switch o {
	case OutcomeModelA:
		return 1
	case OutcomeModelB:
		return 0
	default:
		return 0.5
	}
}

// Battle is one recorded pairwise comparison between two competitors by one
// judge. Battles are immutable once ingested; filtering produces new slices.
// Field names mirror the cleaned battle file schema.
type Battle struct {
	ModelA   string                `json:"model_a"`
	ModelB   string                `json:"model_b"`
	Winner   Outcome               `json:"winner"`
	Judge    string                `json:"judge"`
	TStamp   float64               `json:"tstamp"`
	Language string                `json:"language"`
	Anony    bool                  `json:"anony"`
	Metadata map[string]StyleValue `json:"conv_metadata,omitempty"`
}

// Day returns the UTC calendar day of the battle, used for per-judge daily
// vote limiting.
func (b Battle) Day() string {
	sec := int64(b.TStamp)
	return time.Unix(sec, 0).UTC().Format("2006-01-02")
}

// SortByTimestamp returns a copy of battles stably sorted by ascending
// timestamp. Records sharing a timestamp keep their original order.
func SortByTimestamp(battles []Battle) []Battle {
	out := make([]Battle, len(battles))
	copy(out, battles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TStamp < out[j].TStamp
	})
	return out
}
