// Package levenshtein provides edit-distance matching for domain typo
// suggestions.
package levenshtein

// Distance computes the Levenshtein edit distance between two strings
// using two rolling rows, O(min(m,n)) memory.
func Distance(s, t string) int {
	sr := []rune(s)
	tr := []rune(t)

	if len(sr) == 0 {
		return len(tr)
	}
	if len(tr) == 0 {
		return len(sr)
	}

	// shorter string is the column
	if len(sr) > len(tr) {
		sr, tr = tr, sr
	}

	prev := make([]int, len(sr)+1)
	curr := make([]int, len(sr)+1)
	for i := range prev {
		prev[i] = i
	}

	for j, tc := range tr {
		curr[0] = j + 1
		for i, sc := range sr {
			cost := 1
			if sc == tc {
				cost = 0
			}
			d := curr[i] + 1 // deletion
			if ins := prev[i+1] + 1; ins < d {
				d = ins
			}
			if sub := prev[i] + cost; sub < d {
				d = sub
			}
			curr[i+1] = d
		}
		prev, curr = curr, prev
	}

	return prev[len(sr)]
}

// Closest returns the candidate nearest to s within max edits.
// An exact match means no typo, so it returns "".
func Closest(s string, candidates []string, max int) string {
	best := ""
	bestDist := max + 1

	for _, c := range candidates {
		if s == c {
			return ""
		}
		if d := Distance(s, c); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
