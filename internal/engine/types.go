package engine

// ATSScoreInput is the input for the ats_score tool.
type ATSScoreInput struct {
	Resume         string   `json:"resume" jsonschema:"Resume text (plain text or HTML)"`
	JobDescription string   `json:"job_description" jsonschema:"Full job description text to score the resume against"`
	Format         string   `json:"format,omitempty" jsonschema:"Source file format of the resume: pdf, docx, txt. Unsupported formats are flagged"`
	Skills         []string `json:"skills,omitempty" jsonschema:"Skills already extracted from the resume (optional)"`
	PageCount      int      `json:"page_count,omitempty" jsonschema:"Number of pages in the source file (optional)"`
	Columns        int      `json:"columns,omitempty" jsonschema:"Number of text columns in the source layout (optional)"`
	HasTables      bool     `json:"has_tables,omitempty" jsonschema:"Source file contains tables"`
	HasImages      bool     `json:"has_images,omitempty" jsonschema:"Source file contains images or graphics"`
}

// DimensionScore is one row of the flattened score breakdown.
type DimensionScore struct {
	Dimension     string   `json:"dimension"`
	Score         float64  `json:"score"` // 0–100
	Weight        float64  `json:"weight"`
	WeightedScore float64  `json:"weighted_score"`
	Failed        bool     `json:"failed,omitempty"`
	Highlights    []string `json:"highlights,omitempty"` // short human-readable findings
}

// ATSScoreOutput is the structured output for ats_score.
type ATSScoreOutput struct {
	RequestID       string           `json:"request_id"`
	OverallScore    float64          `json:"overall_score"`
	DisplayScore    int              `json:"display_score"`
	Tier            string           `json:"tier"`
	Explanation     string           `json:"explanation"`
	Breakdown       []DimensionScore `json:"breakdown"`
	MatchedKeywords []string         `json:"matched_keywords"`
	MissingKeywords []string         `json:"missing_keywords"`
	Recommendations []string         `json:"recommendations"`
	Warnings        []string         `json:"warnings,omitempty"`
	DurationMs      int64            `json:"duration_ms"`
}

// ATSMetricsInput is the (empty) input for ats_metrics.
type ATSMetricsInput struct{}

// ATSMetricsOutput is the counter snapshot returned by ats_metrics.
type ATSMetricsOutput struct {
	Counters map[string]int64 `json:"counters"`
}
