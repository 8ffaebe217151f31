package game

import "math"

// Score computes the points awarded for an answer. Wrong answers score 0.
// Correct answers scale linearly from 1000 (instant) down to 0 (at or after
// the time limit). Negative elapsed values (clock skew) count as instant.
func Score(correct bool, elapsedSeconds, timeLimitSeconds float64) int {
	if !correct || timeLimitSeconds <= 0 {
		return 0
	}
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	ratio := 1 - elapsedSeconds/timeLimitSeconds
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return int(math.Round(1000 * ratio))
}
