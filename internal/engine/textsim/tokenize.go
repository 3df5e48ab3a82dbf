// Package textsim provides tokenization and TF-IDF cosine similarity
// for comparing two documents.
package textsim

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// stopWords filters common English words that add noise to keyword matching.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "for": true, "with": true,
	"you": true, "are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true, "we": true,
	"about": true, "which": true, "what": true, "who": true, "how": true, "is": true,
	"can": true, "not": true, "but": true, "all": true, "also": true, "be": true,
	"more": true, "than": true, "into": true, "has": true, "its": true, "it": true,
	"was": true, "were": true, "been": true, "each": true, "of": true, "to": true,
	"in": true, "on": true, "at": true, "by": true, "or": true, "as": true,
	"us": true, "if": true, "so": true, "do": true, "my": true, "me": true,
	"etc": true, "per": true, "any": true, "other": true, "such": true, "able": true,
	"must": true, "should": true, "would": true, "could": true, "may": true,
	"his": true, "her": true, "she": true, "he": true, "them": true, "these": true,
	"those": true, "there": true, "where": true, "when": true, "while": true,
	"including": true, "within": true, "across": true, "over": true, "well": true,
	"i": true, "am": true, "had": true, "did": true, "does": true,
}

// Normalize applies NFKC normalization and Unicode case folding.
// A Caser is stateful, so each call gets its own.
func Normalize(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}

// Tokenize splits text into lowercase terms, skipping stop words, bare numbers
// and single-rune fragments. Preserves tech suffixes like "c++", "c#", "node.js"
// by treating + # . as word chars.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	var tokens []string
	var word strings.Builder
	flush := func() {
		w := word.String()
		word.Reset()
		w = strings.TrimRight(w, ".")
		w = strings.TrimLeft(w, ".")
		if keepToken(w) {
			tokens = append(tokens, w)
		}
	}
	for _, r := range Normalize(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func keepToken(w string) bool {
	if len([]rune(w)) < 2 || stopWords[w] {
		return false
	}
	for _, r := range w {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace-separated words, the unit density thresholds use.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Counts returns raw term counts for a token sequence.
func Counts(tokens []string) map[string]int {
	c := make(map[string]int, len(tokens))
	for _, t := range tokens {
		c[t]++
	}
	return c
}
