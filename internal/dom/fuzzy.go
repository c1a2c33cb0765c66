// internal/dom/fuzzy.go
package dom

import "strings"

// FuzzyEqual reports whether two fingerprints are similar enough to be
// considered the same state. The boundary is inclusive: a similarity exactly
// at the threshold counts as equal.
func FuzzyEqual(a, b Fingerprint, threshold float64) bool {
	return Similarity(a, b) >= threshold
}

// Similarity computes a ratio in [0, 1] between two fingerprints. It is the
// classic multiset measure 2*M/T where M is the number of matching tag
// tokens and T the total token count; identical inputs score 1, disjoint
// inputs 0. Token order is deliberately ignored: reordered siblings are not
// a state change.
func Similarity(a, b Fingerprint) float64 {
	if a == b {
		return 1.0
	}

	ta := tokenize(a)
	tb := tokenize(b)
	total := len(ta) + len(tb)
	if total == 0 {
		return 1.0
	}

	counts := make(map[string]int, len(ta))
	for _, tok := range ta {
		counts[tok]++
	}

	matches := 0
	for _, tok := range tb {
		if counts[tok] > 0 {
			counts[tok]--
			matches++
		}
	}

	return float64(2*matches) / float64(total)
}

// tokenize splits a fingerprint back into its tag tokens. Bones output is
// a sequence of "<...>" chunks, so splitting on '<' and trimming is enough.
func tokenize(fp Fingerprint) []string {
	parts := strings.Split(string(fp), "<")
	toks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, ">")
		if p != "" {
			toks = append(toks, p)
		}
	}
	return toks
}
