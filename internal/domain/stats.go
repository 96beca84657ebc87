package domain

import "sort"

// Count is a label with its number of occurrences in a batch.
type Count struct {
	Label string `json:"label"`
	N     int    `json:"count"`
}

// TopCounts orders counts descending, ties alphabetically, and keeps at most limit entries.
// A non-positive limit keeps everything.
func TopCounts(counts map[string]int, limit int) []Count {
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
