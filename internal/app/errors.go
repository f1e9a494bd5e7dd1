package app

import "errors"

var (
	// ErrUnknownCategory indicates a category name with no predicate.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownRatingSystem indicates a rating system outside {bt, elo}.
	ErrUnknownRatingSystem = errors.New("unknown rating system")

	// ErrNoBattles indicates an empty battle subset after filtering.
	ErrNoBattles = errors.New("no battles after filtering")
)
