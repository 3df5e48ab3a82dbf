package ats

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_ats/internal/engine"
)

// MetricType classifies a quantified achievement.
type MetricType string

const (
	MetricPercentage MetricType = "percentage"
	MetricCurrency   MetricType = "currency"
	MetricScale      MetricType = "scale"
	MetricTime       MetricType = "time"
	MetricTeam       MetricType = "team"
	MetricMultiplier MetricType = "multiplier"
)

// Point budget. Each component saturates; the sum is out of 100.
const (
	metricPoints        = 5.0
	metricCap           = 50.0 // saturates at 10 metrics
	diversityPoints     = 5.0
	diversityCap        = 20.0
	statementPoints     = 4.0
	statementCap        = 20.0 // saturates at 5 statements
	highMagnitudePoints = 2.5
	qualityCap          = 10.0
)

type metricPattern struct {
	Type MetricType
	Re   *regexp.Regexp
}

const numRe = `\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`

var metricPatterns = []metricPattern{
	{MetricPercentage, regexp.MustCompile(`(?i)(` + numRe + `)\s?(?:%|percent\b|pct\b)`)},
	{MetricCurrency, regexp.MustCompile(`(?i)[$€£¥]\s?(` + numRe + `)\s?(k|m|mm|b|bn|million|billion|thousand)?\b`)},
	{MetricCurrency, regexp.MustCompile(`(?i)\b(` + numRe + `)\s?(k|m|million|billion|thousand)?\s(?:usd|eur|gbp|dollars|euros)\b`)},
	{MetricScale, regexp.MustCompile(`(?i)\b(` + numRe + `)\s?(k|m|million|thousand)?\+?\s(?:users|customers|clients|requests|transactions|downloads|visitors|members|subscribers|records|servers|applications|accounts|orders|events|queries|students|patients|leads|stores|sites|endpoints|services|pipelines)\b`)},
	{MetricTime, regexp.MustCompile(`(?i)\b(?:reduced|cut|decreased|shortened|saved|lowered|accelerated|sped up)\b[^.\n]{0,40}?\b(` + numRe + `)\s?(?:%|hours?|hrs?|days?|weeks?|months?|minutes?|mins?|seconds?|secs?|ms)\b`)},
	{MetricTime, regexp.MustCompile(`(?i)\b(` + numRe + `)\s?(?:hours?|days?|weeks?|minutes?)\s(?:faster|earlier|sooner|saved|ahead)\b`)},
	{MetricTeam, regexp.MustCompile(`(?i)\b(?:team|group|staff|department|squad)\sof\s(` + numRe + `)\b`)},
	{MetricTeam, regexp.MustCompile(`(?i)\b(?:led|managed|mentored|supervised|hired|coached|directed)\s(?:a\s)?(` + numRe + `)\+?\s(?:engineers|developers|people|members|reports|direct reports|analysts|designers|staff|employees|interns|contractors)\b`)},
	{MetricMultiplier, regexp.MustCompile(`(?i)\b(` + numRe + `)\s?x\b`)},
}

var (
	achievementRe  = regexp.MustCompile(`(?i)\b(?:achieved|resulted in|led to|delivered|increased|improved|reduced|generated|saved|boosted|grew|drove|exceeded|accelerated|launched|won|doubled|tripled|cut|streamlined|optimized|optimised|expanded|surpassed)\b`)
	sentenceSplitRe = regexp.MustCompile(`[.!?;]\s+|\n+`)
)

// Metric is one quantified achievement found in the text.
type Metric struct {
	Type          MetricType `json:"type"`
	Text          string     `json:"text"`
	Magnitude     float64    `json:"magnitude"`
	HighMagnitude bool       `json:"high_magnitude"`
}

// ImpactDetails breaks the impact score into its components.
type ImpactDetails struct {
	MetricCount        int          `json:"metric_count"`
	UniqueTypes        []MetricType `json:"unique_types"`
	StatementCount     int          `json:"statement_count"`
	HighMagnitudeCount int          `json:"high_magnitude_count"`
	MetricPoints       float64      `json:"metric_points"`
	DiversityPoints    float64      `json:"diversity_points"`
	StatementPoints    float64      `json:"statement_points"`
	QualityPoints      float64      `json:"quality_points"`
}

// ImpactResult is the impact detector output. Score is in [0,1].
type ImpactResult struct {
	Score            float64  `json:"score"`
	Metrics          []Metric `json:"metrics"`
	ImpactStatements []string `json:"impact_statements"`
	Details          ImpactDetails `json:"details"`
}

// DetectImpact finds quantified achievements and achievement statements.
// Scoring is additive and saturating, so repeating one kind of metric stops
// paying off quickly.
func DetectImpact(text string) ImpactResult {
	res := ImpactResult{Metrics: []Metric{}, ImpactStatements: []string{}}
	res.Details.UniqueTypes = []MetricType{}
	if strings.TrimSpace(text) == "" {
		return res
	}
	text = engine.PlainText(text)

	res.Metrics = findMetrics(text)
	res.ImpactStatements = findStatements(text)

	types := make(map[MetricType]bool)
	for _, m := range res.Metrics {
		types[m.Type] = true
		if m.HighMagnitude {
			res.Details.HighMagnitudeCount++
		}
	}
	for t := range types {
		res.Details.UniqueTypes = append(res.Details.UniqueTypes, t)
	}
	sort.Slice(res.Details.UniqueTypes, func(i, j int) bool { return res.Details.UniqueTypes[i] < res.Details.UniqueTypes[j] })

	d := &res.Details
	d.MetricCount = len(res.Metrics)
	d.StatementCount = len(res.ImpactStatements)
	d.MetricPoints = min(metricCap, metricPoints*float64(d.MetricCount))
	d.DiversityPoints = min(diversityCap, diversityPoints*float64(len(d.UniqueTypes)))
	d.StatementPoints = min(statementCap, statementPoints*float64(d.StatementCount))
	d.QualityPoints = min(qualityCap, highMagnitudePoints*float64(d.HighMagnitudeCount))

	res.Score = clamp01((d.MetricPoints + d.DiversityPoints + d.StatementPoints + d.QualityPoints) / 100)
	return res
}

// findMetrics runs every pattern and drops matches that overlap an earlier
// match of the same type.
func findMetrics(text string) []Metric {
	type span struct{ start, end int }
	taken := make(map[MetricType][]span)
	var metrics []Metric
	for _, p := range metricPatterns {
	matchLoop:
		for _, loc := range p.Re.FindAllStringSubmatchIndex(text, -1) {
			for _, s := range taken[p.Type] {
				if loc[0] < s.end && s.start < loc[1] {
					continue matchLoop
				}
			}
			taken[p.Type] = append(taken[p.Type], span{loc[0], loc[1]})

			var num, unit string
			if loc[2] >= 0 {
				num = text[loc[2]:loc[3]]
			}
			if len(loc) > 4 && loc[4] >= 0 {
				unit = text[loc[4]:loc[5]]
			}
			mag := magnitude(num, unit)
			metrics = append(metrics, Metric{
				Type:          p.Type,
				Text:          strings.TrimSpace(text[loc[0]:loc[1]]),
				Magnitude:     mag,
				HighMagnitude: isHighMagnitude(p.Type, mag),
			})
		}
	}
	return metrics
}

// magnitude parses "1,200" or "2.5" with an optional k/m/b suffix.
func magnitude(num, unit string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(unit) {
	case "k", "thousand":
		v *= 1e3
	case "m", "mm", "million":
		v *= 1e6
	case "b", "bn", "billion":
		v *= 1e9
	}
	return v
}

func isHighMagnitude(t MetricType, v float64) bool {
	switch t {
	case MetricPercentage:
		return v >= 20
	case MetricCurrency:
		return v >= 100_000
	case MetricScale:
		return v >= 10_000
	case MetricMultiplier:
		return v >= 2
	case MetricTeam:
		return v >= 10
	case MetricTime:
		return v >= 50
	}
	return false
}

// findStatements returns sentences or bullet lines driven by an
// achievement verb.
func findStatements(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "-*•▪◦·"))
		if len(strings.Fields(s)) < 3 {
			continue
		}
		if achievementRe.MatchString(s) {
			out = append(out, engine.TruncateRunes(s, 200, "..."))
		}
	}
	return out
}
