// internal/workers/matching/match-professor/similarity.go
package matchprofessor

import "strings"

// tokenRune keeps letters, digits and underscore; everything else becomes a
// token separator.
func tokenRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}

func tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if tokenRune(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// Similarity is a Dice-like token overlap score between two phrases.
// Every ordered token pair counts 1 on symmetric substring containment plus
// an extra 0.5 when the tokens are exactly equal, so the result has no upper
// clamp and can exceed 1 on inputs with many mutual containments. That range
// is relied on elsewhere and pinned by tests; do not clamp it.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	words1 := tokenize(a)
	words2 := tokenize(b)

	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	var matches float64
	for _, w1 := range words1 {
		for _, w2 := range words2 {
			if strings.Contains(w2, w1) || strings.Contains(w1, w2) {
				matches += 1
				if w1 == w2 {
					matches += 0.5
				}
			}
		}
	}

	return (2.0 * matches) / float64(len(words1)+len(words2))
}
