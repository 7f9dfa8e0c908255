// Package derived holds the pure functions that compute values which must
// never drift from the records they summarize: a user's point total and a
// completion's aggregate rating. Both are total: they never fail.
package derived

import "math"

// PointsLookup resolves a challenge id to its point value. ok is false when
// the challenge does not exist.
type PointsLookup func(challengeID string) (points int, ok bool)

// ComputePoints sums the point values of the completed challenge ids.
// References that do not resolve contribute 0.
func ComputePoints(completed []string, lookup PointsLookup) int {
	total := 0
	for _, id := range completed {
		if lookup == nil {
			break
		}
		if p, ok := lookup(id); ok {
			total += p
		}
	}
	return total
}

// ComputeAverageRating returns the mean of the rating values rounded to one
// decimal place (half away from zero). An empty map averages to 0.
func ComputeAverageRating(ratings map[string]int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, v := range ratings {
		sum += v
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10
}
