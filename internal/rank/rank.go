// Package rank provides a ranked pick over repeated noisy observations.
// Both the ambiguity escalator and the multi-round stabilizer reduce to
// "run N times, rank, keep the best"; ties keep the earliest observation.
package rank

// Best returns the first item with the highest rank. The zero value is
// returned for an empty slice.
func Best[T any](items []T, rankFn func(T) float64) T {
	var best T
	if len(items) == 0 {
		return best
	}

	best = items[0]
	bestRank := rankFn(best)
	for _, item := range items[1:] {
		if r := rankFn(item); r > bestRank {
			best = item
			bestRank = r
		}
	}
	return best
}

// Filter returns the items for which keep is true.
func Filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
