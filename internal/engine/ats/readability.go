package ats

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/textsim"
)

const (
	minReadableWords     = 50
	onePageWords         = 800
	twoPageReadableWords = 1600
	longAvgSentence      = 25.0
	veryLongAvgSentence  = 35.0
	longSentenceWords    = 40
	longSentencePenalty  = 5.0
	maxLongSentenceCost  = 20.0
)

var readabilitySplitRe = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)

// ReadabilityDetails carries the lexical statistics behind the score.
type ReadabilityDetails struct {
	WordCount         int      `json:"word_count"`
	SentenceCount     int      `json:"sentence_count"`
	AvgSentenceLength float64  `json:"avg_sentence_length"`
	LongSentences     int      `json:"long_sentences"`
	Issues            []string `json:"issues"`
}

// ReadabilityResult is the readability checker output. Score is in [0,100].
type ReadabilityResult struct {
	Score float64 `json:"score"`
	ReadabilityDetails
}

// CheckReadability scores document length and sentence complexity.
// Bullet lines count as sentences.
func CheckReadability(text string) ReadabilityResult {
	res := ReadabilityResult{ReadabilityDetails: ReadabilityDetails{Issues: []string{}}}
	plain := engine.PlainText(text)
	words := textsim.WordCount(plain)
	res.WordCount = words
	if words == 0 {
		res.Issues = append(res.Issues, "Document is empty.")
		return res
	}

	for _, s := range readabilitySplitRe.Split(plain, -1) {
		n := len(strings.Fields(s))
		if n == 0 {
			continue
		}
		res.SentenceCount++
		if n > longSentenceWords {
			res.LongSentences++
		}
	}
	if res.SentenceCount > 0 {
		res.AvgSentenceLength = round2(float64(words) / float64(res.SentenceCount))
	}

	score := 100.0
	switch {
	case words > twoPageReadableWords:
		score -= 25
		res.Issues = append(res.Issues, fmt.Sprintf("Document is very long (%d words). Aim for one to two pages.", words))
	case words > onePageWords:
		score -= 10
		res.Issues = append(res.Issues, fmt.Sprintf("Document runs past one page (%d words).", words))
	}
	switch {
	case res.AvgSentenceLength > veryLongAvgSentence:
		score -= 25
		res.Issues = append(res.Issues, fmt.Sprintf("Average sentence length is %.0f words. Break sentences up.", res.AvgSentenceLength))
	case res.AvgSentenceLength > longAvgSentence:
		score -= 15
		res.Issues = append(res.Issues, fmt.Sprintf("Average sentence length is %.0f words. Aim for under %.0f.", res.AvgSentenceLength, longAvgSentence))
	}
	if res.LongSentences > 0 {
		score -= min(maxLongSentenceCost, longSentencePenalty*float64(res.LongSentences))
		res.Issues = append(res.Issues, fmt.Sprintf("%d sentences exceed %d words.", res.LongSentences, longSentenceWords))
	}
	if words < minReadableWords {
		score *= float64(words) / minReadableWords
		res.Issues = append(res.Issues, fmt.Sprintf("Document is very short (%d words).", words))
	}

	res.Score = round2(clamp(score, 0, 100))
	return res
}
