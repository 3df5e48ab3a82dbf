// Package toolutil provides shared helpers for the go_ats MCP tools:
// input validation, conversion to the engine contract, and flattening
// of results into tool output.
package toolutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/ats"
)

// maxHighlights bounds the findings listed per dimension.
const maxHighlights = 5

// ValidateTexts checks the two required tool inputs.
func ValidateTexts(resume, job string) error {
	if strings.TrimSpace(resume) == "" {
		return fmt.Errorf("resume is required")
	}
	if strings.TrimSpace(job) == "" {
		return fmt.Errorf("job_description is required")
	}
	return nil
}

// BuildInput converts tool input into the engine's input contract.
func BuildInput(in engine.ATSScoreInput) ats.Input {
	out := ats.Input{ResumeText: in.Resume, JobText: in.JobDescription}
	if in.Format != "" || len(in.Skills) > 0 || in.PageCount > 0 || in.Columns > 0 || in.HasTables || in.HasImages {
		out.Resume = &ats.Resume{
			RawText: in.Resume,
			Skills:  in.Skills,
			Metadata: ats.Metadata{
				Format:    in.Format,
				PageCount: in.PageCount,
				Columns:   in.Columns,
				HasTables: in.HasTables,
				HasImages: in.HasImages,
			},
		}
	}
	return out
}

// FlattenScore turns an ATSResult into the flat ats_score output.
func FlattenScore(requestID string, res *ats.ATSResult, elapsed time.Duration) engine.ATSScoreOutput {
	out := engine.ATSScoreOutput{
		RequestID:       requestID,
		OverallScore:    round1(res.OverallScore),
		DisplayScore:    res.DisplayScore,
		Tier:            res.Tier,
		Explanation:     res.Explanation,
		MatchedKeywords: []string{},
		MissingKeywords: []string{},
		Recommendations: res.Recommendations,
		Warnings:        res.Warnings,
		DurationMs:      elapsed.Milliseconds(),
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	for _, d := range ats.Dimensions {
		sub := res.Breakdown.Get(d)
		out.Breakdown = append(out.Breakdown, engine.DimensionScore{
			Dimension:     string(d),
			Score:         round1(sub.Score),
			Weight:        sub.Weight,
			WeightedScore: round1(sub.WeightedScore),
			Failed:        sub.Failed,
			Highlights:    Highlights(sub.Details),
		})
	}
	if kd, ok := res.Breakdown.KeywordMatch.Details.(ats.KeywordDetails); ok {
		out.MatchedKeywords = append(out.MatchedKeywords, kd.MatchedKeywords...)
		out.MissingKeywords = append(out.MissingKeywords, kd.MissingKeywords...)
	}
	return out
}

// Highlights summarizes a dimension's details as short lines.
func Highlights(details ats.Details) []string {
	var out []string
	switch d := details.(type) {
	case ats.KeywordDetails:
		out = append(out, fmt.Sprintf("similarity %.2f, coverage %.0f%%", d.Similarity, d.Coverage*100))
		for _, t := range d.Stuffing.Terms {
			out = append(out, fmt.Sprintf("stuffing: %q x%d (%.1f per 100 words)", t.Term, t.Count, t.Density))
		}
	case ats.SkillsDetails:
		out = append(out, fmt.Sprintf("%d of %d required skills matched", d.TotalMatched, d.TotalRequired))
		if len(d.HardSkills.Missing) > 0 {
			out = append(out, "missing hard skills: "+strings.Join(d.HardSkills.Missing, ", "))
		}
		if len(d.Tools.Missing) > 0 {
			out = append(out, "missing tools: "+strings.Join(d.Tools.Missing, ", "))
		}
	case ats.FormattingDetails:
		for _, is := range d.Issues {
			out = append(out, fmt.Sprintf("[%s] %s", is.Severity, is.Message))
		}
	case ats.ImpactDetails:
		out = append(out, fmt.Sprintf("%d metrics across %d types, %d achievement statements", d.MetricCount, len(d.UniqueTypes), d.StatementCount))
	case ats.ReadabilityDetails:
		out = append(out, fmt.Sprintf("%d words, %d sentences, avg %.1f words per sentence", d.WordCount, d.SentenceCount, d.AvgSentenceLength))
		out = append(out, d.Issues...)
	}
	if len(out) > maxHighlights {
		out = out[:maxHighlights]
	}
	return out
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
