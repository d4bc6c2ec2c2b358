// Package token provides the lexical tokenization and Jaccard similarity
// used by the search paths.
package token

import (
	"strings"
	"unicode"
)

// Tokenize lowercases s, strips punctuation and splits on whitespace.
// "Hello, World!" becomes ["hello", "world"].
func Tokenize(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, s)
	return strings.Fields(cleaned)
}

// Set returns the unique tokens of s.
func Set(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// Similarity is the Jaccard index of the token sets of a and b: the size of
// the intersection over the size of the union. Texts with no tokens have
// similarity 0.
func Similarity(a, b string) float64 {
	sa, sb := Set(a), Set(b)
	inter := 0
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
