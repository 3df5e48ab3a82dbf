package toolutil

import (
	"testing"
	"time"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/ats"
)

func TestValidateTexts(t *testing.T) {
	tests := []struct {
		name        string
		resume, job string
		wantErr     bool
	}{
		{"both present", "resume", "job", false},
		{"missing resume", "  ", "job", true},
		{"missing job", "resume", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateTexts(tt.resume, tt.job); (err != nil) != tt.wantErr {
				t.Errorf("ValidateTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildInput(t *testing.T) {
	plain := BuildInput(engine.ATSScoreInput{Resume: "r", JobDescription: "j"})
	if plain.Resume != nil {
		t.Error("expected no structured resume without metadata")
	}
	if plain.ResumeText != "r" || plain.JobText != "j" {
		t.Errorf("texts not carried: %+v", plain)
	}

	withMeta := BuildInput(engine.ATSScoreInput{Resume: "r", JobDescription: "j", Format: "docx", Columns: 2, Skills: []string{"Go"}})
	if withMeta.Resume == nil {
		t.Fatal("expected structured resume")
	}
	if withMeta.Resume.Metadata.Format != "docx" || withMeta.Resume.Metadata.Columns != 2 || len(withMeta.Resume.Skills) != 1 {
		t.Errorf("metadata not carried: %+v", withMeta.Resume)
	}
}

func TestFlattenScore(t *testing.T) {
	res := &ats.ATSResult{
		OverallScore: 72.456,
		DisplayScore: 72,
		Tier:         "good",
		Breakdown: ats.ScoreBreakdown{
			KeywordMatch: ats.SubScore{Score: 60, Weight: 35, WeightedScore: 21, Details: ats.KeywordDetails{
				MatchedKeywords: []string{"go"},
				MissingKeywords: []string{"kubernetes"},
			}},
			Readability: ats.SubScore{Weight: 10, Failed: true},
		},
	}
	out := FlattenScore("req-1", res, 1500*time.Millisecond)
	if out.RequestID != "req-1" || out.DurationMs != 1500 {
		t.Errorf("envelope fields wrong: %+v", out)
	}
	if out.OverallScore != 72.5 {
		t.Errorf("OverallScore = %v, want 72.5", out.OverallScore)
	}
	if len(out.Breakdown) != len(ats.Dimensions) {
		t.Fatalf("breakdown has %d rows, want %d", len(out.Breakdown), len(ats.Dimensions))
	}
	if out.Breakdown[0].Dimension != "keywordMatch" || len(out.Breakdown[0].Highlights) == 0 {
		t.Errorf("keyword row wrong: %+v", out.Breakdown[0])
	}
	if !out.Breakdown[4].Failed {
		t.Error("readability should be marked failed")
	}
	if len(out.MissingKeywords) != 1 || out.MissingKeywords[0] != "kubernetes" {
		t.Errorf("MissingKeywords = %v", out.MissingKeywords)
	}
}

func TestHighlightsCapped(t *testing.T) {
	var issues []ats.FormatIssue
	for range 8 {
		issues = append(issues, ats.FormatIssue{Severity: ats.SeverityWarning, Message: "x"})
	}
	if got := Highlights(ats.FormattingDetails{Issues: issues}); len(got) != maxHighlights {
		t.Errorf("got %d highlights, want %d", len(got), maxHighlights)
	}
	if got := Highlights(nil); got != nil {
		t.Errorf("nil details should give nil, got %v", got)
	}
}
