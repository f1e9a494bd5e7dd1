// Package rank assigns leaderboard ranks from bootstrap confidence
// intervals: a competitor is outranked only by competitors whose entire
// interval sits above its own.
package rank

import "github.com/okian/rival/internal/domain/bootstrap"

// FromSummaries computes the rank of each competitor as one plus the number
// of competitors whose lower interval bound exceeds its upper bound.
// Overlapping intervals therefore share a rank. NaN bounds never dominate
// anything, so competitors absent from every trial rank last among peers
// but are still reported.
func FromSummaries(summaries []bootstrap.Summary) map[string]int {
	ranks := make(map[string]int, len(summaries))
	for _, x := range summaries {
		rank := 1
		for _, y := range summaries {
			if y.Q025 > x.Q975 {
				rank++
			}
		}
		ranks[x.Model] = rank
	}
	return ranks
}
