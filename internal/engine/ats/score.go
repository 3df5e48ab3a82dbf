package ats

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"golang.org/x/sync/errgroup"
)

const (
	minJobChars          = 50
	recommendBelow       = 80.0
	maxRecommendations   = 4
	recommendKeywordList = 5
)

// Score tiers.
const (
	TierExcellent = "excellent"
	TierGood      = "good"
	TierFair      = "fair"
	TierNeedsWork = "needs_work"
)

// prepared is the normalized view of an Input shared by all detectors.
type prepared struct {
	raw    string // resume text as supplied, markup intact
	resume string // plain resume text
	job    string // plain job text
	doc    *Resume
}

func (p *prepared) resumeSkills() []string {
	if p.doc == nil {
		return nil
	}
	return p.doc.Skills
}

// detector computes one dimension. The score is on a 0–100 scale.
type detector struct {
	dim Dimension
	run func(p *prepared) (float64, Details)
}

var detectors = []detector{
	{DimKeywordMatch, func(p *prepared) (float64, Details) {
		r := MatchKeywords(p.resume, p.job)
		return r.Score * 100, r.KeywordDetails
	}},
	{DimSkillsAlignment, func(p *prepared) (float64, Details) {
		r := MatchSkills(p.resume, p.job, p.resumeSkills()...)
		return r.Score * 100, r.SkillsDetails
	}},
	{DimFormatting, func(p *prepared) (float64, Details) {
		r := CheckFormatting(p.raw, p.doc)
		return r.Score, r.FormattingDetails
	}},
	{DimImpactMetrics, func(p *prepared) (float64, Details) {
		r := DetectImpact(p.resume)
		return r.Score * 100, r.Details
	}},
	{DimReadability, func(p *prepared) (float64, Details) {
		r := CheckReadability(p.resume)
		return r.Score, r.ReadabilityDetails
	}},
}

// resolveResumeText prefers the explicit text and falls back to the parsed
// document's raw text.
func resolveResumeText(in Input) string {
	if strings.TrimSpace(in.ResumeText) != "" {
		return in.ResumeText
	}
	if in.Resume != nil {
		return in.Resume.RawText
	}
	return ""
}

func prepare(in Input) *prepared {
	raw := resolveResumeText(in)
	return &prepared{
		raw:    raw,
		resume: engine.PlainText(raw),
		job:    engine.PlainText(in.JobText),
		doc:    in.Resume,
	}
}

// CalculateATSScore runs the five detectors concurrently and combines them
// with fixed weights. A detector that panics is scored 0 and reported in
// Warnings. The only error is ctx cancellation.
func CalculateATSScore(ctx context.Context, in Input) (*ATSResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := emptyResult()
	p := prepare(in)

	if reason, ok := insufficientInput(p); !ok {
		res.Explanation = reason
		if strings.TrimSpace(p.resume) == "" {
			res.Recommendations = append(res.Recommendations, "Paste or upload your resume text to get a score.")
		} else {
			res.Recommendations = append(res.Recommendations, fmt.Sprintf("Provide the full job description (at least %d characters) to compare against.", minJobChars))
		}
		return res, nil
	}

	type outcome struct {
		score   float64
		details Details
		err     error
	}
	outcomes := make([]outcome, len(detectors))
	var g errgroup.Group
	for i, d := range detectors {
		g.Go(func() error {
			score, details, err := runDetector(d, p)
			outcomes[i] = outcome{score, details, err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, d := range detectors {
		sub := res.Breakdown.Get(d.dim)
		o := outcomes[i]
		if o.err != nil {
			engine.IncrDetectorFailures()
			slog.Warn("ats: detector failed", slog.String("dimension", string(d.dim)), slog.Any("error", o.err))
			sub.Failed = true
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s analysis failed and was scored as 0.", d.dim))
			continue
		}
		sub.Score = clamp(o.score, 0, 100)
		sub.WeightedScore = sub.Score * sub.Weight / 100
		if o.details != nil {
			sub.Details = o.details
		}
	}

	total := 0.0
	for _, d := range Dimensions {
		total += res.Breakdown.Get(d).WeightedScore
	}
	res.OverallScore = clamp(total, 0, 100)
	res.DisplayScore = int(math.Round(res.OverallScore))
	res.Tier = tierFor(res.OverallScore)
	res.Explanation = explain(res.Tier, res.DisplayScore)
	res.Recommendations = recommend(&res.Breakdown)
	return res, nil
}

// runDetector isolates a detector so a panic becomes an error.
func runDetector(d detector, p *prepared) (score float64, details Details, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s detector panic: %v", d.dim, r)
		}
	}()
	score, details = d.run(p)
	return finite(score), details, nil
}

func insufficientInput(p *prepared) (string, bool) {
	if strings.TrimSpace(p.resume) == "" {
		return "No resume text was provided, so nothing could be scored.", false
	}
	if n := len([]rune(strings.TrimSpace(p.job))); n < minJobChars {
		return fmt.Sprintf("The job description is too short to analyze (%d characters, need at least %d).", n, minJobChars), false
	}
	return "", true
}

// emptyResult is a well-formed all-zero result with every dimension present.
func emptyResult() *ATSResult {
	res := &ATSResult{
		Tier:            TierNeedsWork,
		Recommendations: []string{},
		Breakdown: ScoreBreakdown{
			KeywordMatch:    SubScore{Details: KeywordDetails{MatchedKeywords: []string{}, MissingKeywords: []string{}}},
			SkillsAlignment: SubScore{Details: SkillsDetails{}},
			Formatting:      SubScore{Details: FormattingDetails{Issues: []FormatIssue{}}},
			ImpactMetrics:   SubScore{Details: ImpactDetails{UniqueTypes: []MetricType{}}},
			Readability:     SubScore{Details: ReadabilityDetails{Issues: []string{}}},
		},
	}
	for _, d := range Dimensions {
		res.Breakdown.Get(d).Weight = Weights[d]
	}
	return res
}

func tierFor(score float64) string {
	switch {
	case score >= 80:
		return TierExcellent
	case score >= 60:
		return TierGood
	case score >= 40:
		return TierFair
	}
	return TierNeedsWork
}

func explain(tier string, score int) string {
	switch tier {
	case TierExcellent:
		return fmt.Sprintf("Excellent match (%d/100). Your resume is well aligned with this job and should parse cleanly in most ATS.", score)
	case TierGood:
		return fmt.Sprintf("Good match (%d/100). A few targeted changes would make your resume more competitive.", score)
	case TierFair:
		return fmt.Sprintf("Fair match (%d/100). Your resume covers part of what this job asks for; close the gaps below.", score)
	}
	return fmt.Sprintf("Needs work (%d/100). Your resume is missing much of what this job asks for.", score)
}

// recommend picks the weakest dimensions by potential gain,
// weight*(100-score), and templates one line each.
func recommend(b *ScoreBreakdown) []string {
	type gap struct {
		dim  Dimension
		gain float64
	}
	var gaps []gap
	for _, d := range Dimensions {
		sub := b.Get(d)
		if sub.Failed || sub.Score >= recommendBelow {
			continue
		}
		gaps = append(gaps, gap{d, sub.Weight * (100 - sub.Score)})
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].gain > gaps[j].gain })

	out := []string{}
	for _, g := range gaps {
		if len(out) == maxRecommendations {
			break
		}
		if r := recommendation(b.Get(g.dim).Details); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func recommendation(details Details) string {
	switch d := details.(type) {
	case KeywordDetails:
		if d.Stuffing.IsStuffing && len(d.Stuffing.Terms) > 0 {
			return fmt.Sprintf("Reduce repetition of %q; keyword stuffing lowers your score.", d.Stuffing.Terms[0].Term)
		}
		if len(d.MissingKeywords) > 0 {
			return "Work these job keywords into your resume where they are accurate: " + strings.Join(head(d.MissingKeywords, recommendKeywordList), ", ") + "."
		}
		return "Mirror the job description's wording more closely in your summary and experience."
	case SkillsDetails:
		missing := append(append([]string{}, d.HardSkills.Missing...), d.Tools.Missing...)
		if len(missing) > 0 {
			return "Add the required skills you have to your skills section: " + strings.Join(head(missing, recommendKeywordList), ", ") + "."
		}
		if len(d.SoftSkills.Missing) > 0 {
			return "Show soft skills the job mentions through concrete examples: " + strings.Join(head(d.SoftSkills.Missing, 3), ", ") + "."
		}
		return "List your technical skills explicitly so the ATS can match them."
	case FormattingDetails:
		if len(d.Issues) > 0 {
			issues := append([]FormatIssue(nil), d.Issues...)
			sort.SliceStable(issues, func(i, j int) bool { return issues[i].Severity.rank() < issues[j].Severity.rank() })
			return "Fix formatting: " + issues[0].Message
		}
		return "Use a simple single-column layout with standard section headings."
	case ImpactDetails:
		if d.MetricCount == 0 {
			return "Quantify your achievements with numbers: percentages, revenue, users, or team size."
		}
		return "Add more measurable results and vary them (time saved, cost reduced, scale reached)."
	case ReadabilityDetails:
		if len(d.Issues) > 0 {
			return "Improve readability: " + d.Issues[0]
		}
		return "Keep sentences short and bullets focused on one achievement each."
	}
	return ""
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
