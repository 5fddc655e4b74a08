package textnorm

import (
	"github.com/agnivade/levenshtein"
)

// StringSimilarity scores how alike two strings are on a [0,1] scale using
// Levenshtein edit distance: 1 - distance/max(len). Two empty strings score
// 1.0; exactly one empty string scores 0.0. Symmetric by construction.
func StringSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	distance := levenshtein.ComputeDistance(a, b)

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}

	return 1.0 - float64(distance)/float64(longest)
}
