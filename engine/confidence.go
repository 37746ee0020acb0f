package engine

import "github.com/dnldd/scout/shared"

// Confidence combines boolean agreement signals and sentiment polarity into a
// normalized score in [0, 1]. Each agreement signal contributes equally, and
// sentiment contributes one additional unit when its sign matches the
// candidate direction. The score is the simple agreement ratio, monotonic in
// the number of agreeing signals.
func Confidence(agreements []bool, sentiment float64, direction shared.Direction) float64 {
	total := len(agreements) + 1

	var count int
	for idx := range agreements {
		if agreements[idx] {
			count++
		}
	}

	switch direction {
	case shared.Long:
		if sentiment > 0 {
			count++
		}
	case shared.Short:
		if sentiment < 0 {
			count++
		}
	}

	return float64(count) / float64(total)
}
