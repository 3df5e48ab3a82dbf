package ats

import (
	"sort"

	"github.com/anatolykoptev/go_ats/internal/engine/textsim"
)

const (
	jobKeywordLimit    = 25
	stuffingMinCount   = 5
	stuffingDensity    = 5.0 // occurrences per 100 resume words
	stuffingJobRatio   = 2.0 // resume density must also exceed this multiple of the job's
	stuffingPenaltyPer = 0.25
	maxStuffingPenalty = 0.6
)

// StuffedTerm is a job term repeated at an unnatural density in the resume.
type StuffedTerm struct {
	Term    string  `json:"term"`
	Count   int     `json:"count"`
	Density float64 `json:"density"` // occurrences per 100 words
}

// Stuffing reports keyword stuffing and the penalty it costs.
type Stuffing struct {
	IsStuffing bool          `json:"is_stuffing"`
	Terms      []StuffedTerm `json:"terms,omitempty"`
	Penalty    float64       `json:"penalty"`
}

// KeywordDetails explains the keyword match.
type KeywordDetails struct {
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Similarity      float64  `json:"similarity"`
	Coverage        float64  `json:"coverage"`
	Stuffing        Stuffing `json:"stuffing"`
}

// KeywordResult is the keyword matcher output. Score is in [0,1].
type KeywordResult struct {
	Score float64 `json:"score"`
	KeywordDetails
}

// MatchKeywords compares resume and job vocabulary.
//
// The base score averages TF-IDF cosine similarity and coverage of the top
// job keywords; stuffing then scales it down by up to maxStuffingPenalty.
func MatchKeywords(resumeText, jobText string) KeywordResult {
	res := KeywordResult{KeywordDetails: KeywordDetails{
		MatchedKeywords: []string{},
		MissingKeywords: []string{},
	}}

	resumeTokens := textsim.Tokenize(resumeText)
	jobTokens := textsim.Tokenize(jobText)
	if len(resumeTokens) == 0 || len(jobTokens) == 0 {
		return res
	}

	res.Similarity = textsim.Similarity(resumeTokens, jobTokens)

	resumeCounts := textsim.Counts(resumeTokens)
	keywords := JobKeywords(resumeTokens, jobTokens, jobKeywordLimit)
	for _, kw := range keywords {
		if resumeCounts[kw] > 0 {
			res.MatchedKeywords = append(res.MatchedKeywords, kw)
		} else {
			res.MissingKeywords = append(res.MissingKeywords, kw)
		}
	}
	if len(keywords) > 0 {
		res.Coverage = float64(len(res.MatchedKeywords)) / float64(len(keywords))
	}

	res.Stuffing = detectStuffing(textsim.WordCount(resumeText), resumeCounts, textsim.WordCount(jobText), textsim.Counts(jobTokens))

	base := 0.5*res.Similarity + 0.5*res.Coverage
	res.Score = clamp01(base * (1 - res.Stuffing.Penalty))
	return res
}

// JobKeywords returns the n job terms with the highest TF-IDF weight,
// using resume and job as the two-document corpus.
func JobKeywords(resumeTokens, jobTokens []string, n int) []string {
	idf := textsim.InverseDocumentFrequency(resumeTokens, jobTokens)
	top := textsim.TopTerms(textsim.Weights(textsim.TermFrequency(jobTokens), idf), n)
	out := make([]string, len(top))
	for i, t := range top {
		out[i] = t.Term
	}
	return out
}

// detectStuffing flags job terms the resume repeats at or above
// stuffingDensity per 100 words and at least stuffingJobRatio times as
// densely as the job itself. Mirroring the job's own wording is never
// stuffing.
func detectStuffing(words int, resumeCounts map[string]int, jobWords int, jobCounts map[string]int) Stuffing {
	var s Stuffing
	if words == 0 {
		return s
	}
	severity := 0.0
	for term := range jobCounts {
		c := resumeCounts[term]
		if c < stuffingMinCount {
			continue
		}
		density := float64(c) * 100 / float64(words)
		if density < stuffingDensity {
			continue
		}
		if jobWords > 0 && density < stuffingJobRatio*float64(jobCounts[term])*100/float64(jobWords) {
			continue
		}
		s.Terms = append(s.Terms, StuffedTerm{Term: term, Count: c, Density: round2(density)})
		severity += density / stuffingDensity
	}
	if len(s.Terms) == 0 {
		return s
	}
	sort.Slice(s.Terms, func(i, j int) bool {
		if s.Terms[i].Count != s.Terms[j].Count {
			return s.Terms[i].Count > s.Terms[j].Count
		}
		return s.Terms[i].Term < s.Terms[j].Term
	})
	s.IsStuffing = true
	s.Penalty = min(maxStuffingPenalty, stuffingPenaltyPer*severity)
	return s
}
