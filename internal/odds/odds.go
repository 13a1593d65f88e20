// Package odds converts win probabilities to fair (no-vig) American
// moneylines. The transform adds no bookmaker margin: the two sides of a
// game are priced from p and 1-p and are consistent by construction.
package odds

import "math"

// ProbToAmerican maps a win probability to a fair American moneyline.
// Defined only for p strictly inside (0,1); anything else, including NaN,
// yields NaN so the caller can propagate a missing value instead of an
// infinite or clamped price.
func ProbToAmerican(p float64) float64 {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return math.NaN()
	}
	if p >= 0.5 {
		return -100.0 * p / (1.0 - p)
	}
	return 100.0 * (1.0 - p) / p
}

// FairLines prices both sides of a game from the home win probability.
// The away line applies the same transform to 1-p, so the pair is always on
// opposite sign conventions, or both NaN when p is out of range.
func FairLines(probHome float64) (home, away float64) {
	return ProbToAmerican(probHome), ProbToAmerican(1.0 - probHome)
}

// Round rounds a moneyline to the nearest integer for display. NaN input
// returns nil, the missing-value representation at the storage boundary.
func Round(line float64) *float64 {
	if math.IsNaN(line) || math.IsInf(line, 0) {
		return nil
	}
	r := math.Round(line)
	return &r
}
