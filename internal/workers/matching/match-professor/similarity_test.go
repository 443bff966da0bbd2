// internal/workers/matching/match-professor/similarity_test.go
package matchprofessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_EmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"both empty", "", ""},
		{"left empty", "", "machine learning"},
		{"right empty", "machine learning", ""},
		{"punctuation only", "!!! ???", "machine learning"},
		{"whitespace only", "   \t  ", "machine learning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0.0, Similarity(tt.a, tt.b))
		})
	}
}

func TestSimilarity_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"machine learning", "deep learning"},
		{"Data Science", "data analysis"},
		{"AI research", "artificial intelligence"},
		{"robotics", "robot control systems"},
		{"", "anything"},
	}

	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]),
			"similarity must be symmetric for %q / %q", p[0], p[1])
	}
}

func TestSimilarity_CaseAndPunctuationInsensitive(t *testing.T) {
	// Identical normalized token sets score 1.5: each diagonal pair counts
	// the containment match plus the exact-equality bonus.
	score := Similarity("Data Science", "data   science!!")
	assert.Equal(t, 1.5, score)

	assert.Equal(t, Similarity("machine learning", "machine learning"), score)
}

func TestSimilarity_PartialContainment(t *testing.T) {
	// [machine, learning] vs [machine]: one containment+exact pair out of
	// three total tokens: 2*1.5/3 = 1.0.
	assert.Equal(t, 1.0, Similarity("machine learning", "machine"))

	// "learn" is a substring of "learning": containment without the exact
	// bonus: 2*1/3.
	assert.InDelta(t, 2.0/3.0, Similarity("machine learning", "learn"), 1e-9)
}

func TestSimilarity_NoOverlap(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("quantum computing", "art history"))
}

func TestSimilarity_SelfMatchDominates(t *testing.T) {
	self := Similarity("machine learning", "machine learning")
	other := Similarity("machine learning", "statistical learning")
	assert.GreaterOrEqual(t, self, other)
}

// Repeated mutually-containing tokens push the score past 1. The score is
// deliberately unclamped; this pins that behavior.
func TestSimilarity_UnclampedOnAdversarialInputs(t *testing.T) {
	// [aa, aa] x [aa, aa, aa]: 6 pairs, each 1.5 => matches=9, 2*9/5 = 3.6.
	score := Similarity("aa aa", "aa aa aa")
	assert.InDelta(t, 3.6, score, 1e-9)
	assert.Greater(t, score, 1.0)
}

func TestSimilarity_UnderscoreIsTokenCharacter(t *testing.T) {
	// Underscore survives normalization, so snake_case stays one token.
	assert.Equal(t, 1.5, Similarity("machine_learning", "Machine_Learning"))

	// The single snake_case token still contains both plain words:
	// 2 containment matches over 1+5 tokens.
	assert.InDelta(t, 4.0/6.0, Similarity("machine_learning", "machine learning x y z"), 1e-9)
}
