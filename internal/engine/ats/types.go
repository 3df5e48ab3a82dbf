// Package ats scores a resume against a job description for applicant
// tracking system compatibility and turns the findings into feedback.
package ats

import (
	"encoding/json"
	"fmt"
)

// --- Inputs ---

// Resume is a normalized candidate document. RawText is canonical; the
// structured fields are best-effort and may be empty.
type Resume struct {
	RawText    string       `json:"raw_text"`
	Skills     []string     `json:"skills,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
	Contact    *Contact     `json:"contact,omitempty"`
	Metadata   Metadata     `json:"metadata"`
}

// Experience is one position parsed from the resume.
type Experience struct {
	Title       string   `json:"title"`
	Company     string   `json:"company,omitempty"`
	Bullets     []string `json:"bullets,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Contact holds contact fields the parser managed to extract.
type Contact struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Metadata describes the source file as seen by the ingestion layer.
type Metadata struct {
	Format          string `json:"format,omitempty"` // pdf, docx, txt
	PageCount       int    `json:"page_count,omitempty"`
	HasTables       bool   `json:"has_tables,omitempty"`
	HasImages       bool   `json:"has_images,omitempty"`
	HasHeaderFooter bool   `json:"has_header_footer,omitempty"`
	Columns         int    `json:"columns,omitempty"`
}

// Input is the core-facing request: two texts plus optional structure.
type Input struct {
	ResumeText string  `json:"resume_text"`
	JobText    string  `json:"job_text"`
	Resume     *Resume `json:"resume,omitempty"`
}

// --- Score breakdown ---

// Dimension names one scoring axis.
type Dimension string

const (
	DimKeywordMatch    Dimension = "keywordMatch"
	DimSkillsAlignment Dimension = "skillsAlignment"
	DimFormatting      Dimension = "formatting"
	DimImpactMetrics   Dimension = "impactMetrics"
	DimReadability     Dimension = "readability"
)

// Dimensions lists every dimension in breakdown order.
var Dimensions = []Dimension{DimKeywordMatch, DimSkillsAlignment, DimFormatting, DimImpactMetrics, DimReadability}

// Weights are fixed per dimension and total 100.
var Weights = map[Dimension]float64{
	DimKeywordMatch:    35,
	DimSkillsAlignment: 25,
	DimFormatting:      20,
	DimImpactMetrics:   10,
	DimReadability:     10,
}

// Details is the per-dimension payload of a SubScore. Exactly one concrete
// type exists per Dimension.
type Details interface {
	Dimension() Dimension
}

func (KeywordDetails) Dimension() Dimension     { return DimKeywordMatch }
func (SkillsDetails) Dimension() Dimension      { return DimSkillsAlignment }
func (FormattingDetails) Dimension() Dimension  { return DimFormatting }
func (ImpactDetails) Dimension() Dimension      { return DimImpactMetrics }
func (ReadabilityDetails) Dimension() Dimension { return DimReadability }

// SubScore is one dimension's contribution. Score is on a 0–100 scale and
// WeightedScore = Score * Weight / 100.
type SubScore struct {
	Score         float64 `json:"score"`
	Weight        float64 `json:"weight"`
	WeightedScore float64 `json:"weighted_score"`
	Failed        bool    `json:"failed,omitempty"`
	Details       Details `json:"details,omitempty"`
}

// ScoreBreakdown holds all five sub-scores.
type ScoreBreakdown struct {
	KeywordMatch    SubScore `json:"keywordMatch"`
	SkillsAlignment SubScore `json:"skillsAlignment"`
	Formatting      SubScore `json:"formatting"`
	ImpactMetrics   SubScore `json:"impactMetrics"`
	Readability     SubScore `json:"readability"`
}

// Get returns the SubScore for d.
func (b *ScoreBreakdown) Get(d Dimension) *SubScore {
	switch d {
	case DimKeywordMatch:
		return &b.KeywordMatch
	case DimSkillsAlignment:
		return &b.SkillsAlignment
	case DimFormatting:
		return &b.Formatting
	case DimImpactMetrics:
		return &b.ImpactMetrics
	case DimReadability:
		return &b.Readability
	}
	return nil
}

// subScoreWire is SubScore with its details left undecoded.
type subScoreWire struct {
	Score         float64         `json:"score"`
	Weight        float64         `json:"weight"`
	WeightedScore float64         `json:"weighted_score"`
	Failed        bool            `json:"failed,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// UnmarshalJSON decodes each sub-score's details into the concrete type
// its field name implies.
func (b *ScoreBreakdown) UnmarshalJSON(data []byte) error {
	var raw map[Dimension]subScoreWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, d := range Dimensions {
		w, ok := raw[d]
		if !ok {
			continue
		}
		sub := b.Get(d)
		sub.Score, sub.Weight, sub.WeightedScore, sub.Failed = w.Score, w.Weight, w.WeightedScore, w.Failed
		sub.Details = nil
		if len(w.Details) == 0 || string(w.Details) == "null" {
			continue
		}
		details, err := decodeDetails(d, w.Details)
		if err != nil {
			return fmt.Errorf("%s details: %w", d, err)
		}
		sub.Details = details
	}
	return nil
}

func decodeDetails(d Dimension, data []byte) (Details, error) {
	switch d {
	case DimKeywordMatch:
		var v KeywordDetails
		err := json.Unmarshal(data, &v)
		return v, err
	case DimSkillsAlignment:
		var v SkillsDetails
		err := json.Unmarshal(data, &v)
		return v, err
	case DimFormatting:
		var v FormattingDetails
		err := json.Unmarshal(data, &v)
		return v, err
	case DimImpactMetrics:
		var v ImpactDetails
		err := json.Unmarshal(data, &v)
		return v, err
	case DimReadability:
		var v ReadabilityDetails
		err := json.Unmarshal(data, &v)
		return v, err
	}
	return nil, fmt.Errorf("unknown dimension %q", d)
}

// ATSResult is the final score artifact. OverallScore is kept unrounded;
// DisplayScore is the rounded value for presentation.
type ATSResult struct {
	OverallScore    float64        `json:"overall_score"`
	DisplayScore    int            `json:"display_score"`
	Tier            string         `json:"tier"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	Explanation     string         `json:"explanation"`
	Recommendations []string       `json:"recommendations"`
	Warnings        []string       `json:"warnings,omitempty"`
}

// --- Feedback ---

// Severity ranks a feedback suggestion.
type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeverityWarning     Severity = "warning"
	SeverityImprovement Severity = "improvement"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	}
	return 2
}

// VerbOccurrence is a weak or medium action verb found in the resume.
type VerbOccurrence struct {
	Verb         string   `json:"verb"`
	Context      string   `json:"context"`
	Replacements []string `json:"replacements"`
}

// FeedbackSuggestion is one actionable item. Suggestion is always set.
type FeedbackSuggestion struct {
	Category   string           `json:"category"`
	Severity   Severity         `json:"severity"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Suggestion string           `json:"suggestion"`
	Keywords   []string         `json:"keywords,omitempty"`
	WeakVerbs  []VerbOccurrence `json:"weak_verbs,omitempty"`
	Examples   []string         `json:"examples,omitempty"`
}

// SeverityGroups partitions suggestions by severity.
type SeverityGroups struct {
	Critical    []FeedbackSuggestion `json:"critical"`
	Warning     []FeedbackSuggestion `json:"warning"`
	Improvement []FeedbackSuggestion `json:"improvement"`
}

// FeedbackStats counts suggestions and carries the headline figures.
type FeedbackStats struct {
	Total              int     `json:"total"`
	Critical           int     `json:"critical"`
	Warning            int     `json:"warning"`
	Improvement        int     `json:"improvement"`
	MissingKeywords    int     `json:"missing_keywords"`
	QuantificationRate float64 `json:"quantification_rate"`
}

// Feedback is the full feedback payload.
type Feedback struct {
	Suggestions []FeedbackSuggestion `json:"suggestions"`
	BySeverity  SeverityGroups       `json:"by_severity"`
	Statistics  FeedbackStats        `json:"statistics"`
	Summary     string               `json:"summary"`
}
