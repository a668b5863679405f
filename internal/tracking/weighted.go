package tracking

import "math/rand/v2"

// PickWeighted returns the index chosen by a weighted draw over weights.
// A uniform number in [0, total) has each weight subtracted in order until it
// reaches zero or below. Non-positive weights never win a weighted draw; when
// the total is zero the choice is uniform. rnd may be nil to use the global source.
// weights must not be empty.
func PickWeighted(weights []int, rnd *rand.Rand) int {
	float64n, intn := rand.Float64, rand.IntN
	if rnd != nil {
		float64n, intn = rnd.Float64, rnd.IntN
	}

	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return intn(len(weights))
	}

	r := float64n() * float64(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		r -= float64(w)
		if r <= 0 {
			return i
		}
	}
	return len(weights) - 1
}
