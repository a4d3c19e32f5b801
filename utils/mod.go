// Package utils holds small generic slice helpers.
package utils

// FindIndex returns the index of the first occurrence of item, or -1.
func FindIndex[T comparable](slice []T, item T) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}

// ArgMax returns the index of the highest scoring element, the earliest on
// ties, or -1 for an empty slice.
func ArgMax[T any](slice []T, score func(T) float64) int {
	best, bestScore := -1, 0.0
	for i, v := range slice {
		if s := score(v); best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}
