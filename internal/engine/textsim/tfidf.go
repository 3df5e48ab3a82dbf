package textsim

import (
	"math"
	"sort"
)

// Vector is a sparse term-weight vector.
type Vector map[string]float64

// TermFrequency returns count(t)/|doc| for every term in doc.
func TermFrequency(doc []string) Vector {
	tf := make(Vector, len(doc))
	if len(doc) == 0 {
		return tf
	}
	for t, c := range Counts(doc) {
		tf[t] = float64(c) / float64(len(doc))
	}
	return tf
}

// InverseDocumentFrequency computes smoothed IDF over docs:
//
//	idf(t) = ln((1+N)/(1+df(t))) + 1
//
// Terms present in every document weigh 1; terms unique to fewer documents
// weigh more. Terms absent from all documents are not in the result.
func InverseDocumentFrequency(docs ...[]string) Vector {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))
		for _, t := range doc {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	n := float64(len(docs))
	idf := make(Vector, len(df))
	for t, d := range df {
		idf[t] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return idf
}

// Weights multiplies a TF vector by IDF over the given vocabulary.
// Vocabulary terms missing from tf get weight 0.
func Weights(tf, idf Vector) Vector {
	w := make(Vector, len(idf))
	for t, v := range idf {
		w[t] = tf[t] * v
	}
	return w
}

// Vectors builds TF-IDF vectors for a and b over their union vocabulary,
// using the two documents as the corpus.
func Vectors(a, b []string) (Vector, Vector) {
	idf := InverseDocumentFrequency(a, b)
	return Weights(TermFrequency(a), idf), Weights(TermFrequency(b), idf)
}

// Cosine returns u·v / (|u||v|), or 0 if either vector is all zero.
// Iteration is over sorted keys so the result is bit-for-bit reproducible.
func Cosine(u, v Vector) float64 {
	var dot, nu, nv float64
	for _, t := range sortedKeys(u) {
		x := u[t]
		nu += x * x
		dot += x * v[t]
	}
	for _, t := range sortedKeys(v) {
		nv += v[t] * v[t]
	}
	if nu == 0 || nv == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(nu) * math.Sqrt(nv))
	switch {
	case math.IsNaN(sim) || sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}

// Similarity is the TF-IDF cosine similarity of two token sequences, in [0,1].
func Similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	va, vb := Vectors(a, b)
	return Cosine(va, vb)
}

// TextSimilarity tokenizes both texts and returns their Similarity.
func TextSimilarity(a, b string) float64 {
	return Similarity(Tokenize(a), Tokenize(b))
}

// Term is a weighted term.
type Term struct {
	Term   string
	Weight float64
}

// TopTerms returns the n highest-weighted terms, ties broken alphabetically.
// Zero-weight terms are skipped. n <= 0 returns all.
func TopTerms(w Vector, n int) []Term {
	terms := make([]Term, 0, len(w))
	for t, v := range w {
		if v > 0 {
			terms = append(terms, Term{Term: t, Weight: v})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Weight != terms[j].Weight {
			return terms[i].Weight > terms[j].Weight
		}
		return terms[i].Term < terms[j].Term
	})
	if n > 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

func sortedKeys(v Vector) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
