package encode

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrUnrecognizedOutcome marks a battle whose outcome tag is outside
	// the four recognized values. It is fatal for the whole dataset: a
	// corrupt record must not yield a partially-wrong leaderboard.
	ErrUnrecognizedOutcome = errors.New("unrecognized outcome")
)
