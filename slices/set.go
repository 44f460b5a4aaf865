// Package slices holds small generic helpers for slices used as sets.
package slices

func Contains[L ~[]E, E comparable](l L, x E) bool {
	for _, y := range l {
		if x == y {
			return true
		}
	}

	return false
}
