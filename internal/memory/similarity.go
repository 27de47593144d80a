package memory

import "strings"

// SimilarFunc reports whether two memory contents describe the same fact.
// Injectable so an embedding-based comparator can replace the default
// without touching storage logic.
type SimilarFunc func(a, b string) bool

// duplicateThreshold is the word-overlap ratio above which two contents in
// the same category are considered duplicates.
const duplicateThreshold = 0.6

// WordOverlapSimilar is the default comparator: the intersection of the two
// lower-cased word sets divided by the smaller set's size, compared against
// the duplicate threshold. A coarse heuristic with no semantics, kept
// deliberately cheap.
func WordOverlapSimilar(a, b string) bool {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return false
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}

	overlap := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			overlap++
		}
	}

	return float64(overlap)/float64(smaller) > duplicateThreshold
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
