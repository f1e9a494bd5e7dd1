package style

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrDegenerateCovariate marks a style covariate with zero variance
	// across the dataset: standardization would divide by zero, so the
	// configuration is rejected instead of producing NaN ratings.
	ErrDegenerateCovariate = errors.New("degenerate style covariate")
)
