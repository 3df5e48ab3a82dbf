package ats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckReadability(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		score     float64
		sentences int
	}{
		{"empty", "", 0, 0},
		{"very short", weakResume, 6, 1},
		{"one long sentence", strings.TrimSpace(strings.Repeat("word ", 60)) + ".", 70, 1},
		{"past one page", strings.Repeat("Built reliable services quickly. ", 250), 90, 250},
		{"past two pages", strings.Repeat("Built reliable services quickly. ", 450), 75, 450},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CheckReadability(tt.text)
			assert.InDelta(t, tt.score, r.Score, 1e-9)
			assert.Equal(t, tt.sentences, r.SentenceCount)
			assert.NotNil(t, r.Issues)
		})
	}
}

func TestCheckReadability_LongSentencesCapped(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 45)) + ". "
	r := CheckReadability(strings.Repeat(long, 6))
	assert.Equal(t, 6, r.LongSentences)
	// avg 45 (-25), long sentences capped (-20), 270 words
	assert.InDelta(t, 55, r.Score, 1e-9)
}

func TestCheckReadability_Bounded(t *testing.T) {
	r := CheckReadability(strings.Repeat(strings.Repeat("word ", 50)+". ", 40))
	assert.GreaterOrEqual(t, r.Score, 0.0)
	assert.LessOrEqual(t, r.Score, 100.0)
}
