package ats

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/textsim"
)

const (
	criticalJobFrequency  = 3 // job occurrences that make a missing keyword critical
	secondaryKeywordLimit = 10
	minBulletWords        = 4
	quantificationTarget  = 0.6
	overuseMinCount       = 3
	snippetRunes          = 120
	maxExampleBullets     = 3
)

// Feedback categories.
const (
	CatContact        = "contact"
	CatKeywords       = "keywords"
	CatSkills         = "skills"
	CatActionVerbs    = "action_verbs"
	CatQuantification = "quantification"
	CatWordChoice     = "word_choice"
	CatFormatting     = "formatting"
	CatImpact         = "impact"
	CatContent        = "content"
)

type verbRule struct {
	verb         string
	replacements []string
	re           *regexp.Regexp
}

func verbRules(table []struct {
	verb         string
	replacements []string
}) []verbRule {
	out := make([]verbRule, 0, len(table))
	for _, v := range table {
		out = append(out, verbRule{
			verb:         v.verb,
			replacements: v.replacements,
			re:           regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(v.verb) + `\b`),
		})
	}
	return out
}

var weakVerbs = verbRules([]struct {
	verb         string
	replacements []string
}{
	{"responsible for", []string{"led", "owned", "directed"}},
	{"helped", []string{"enabled", "drove", "facilitated"}},
	{"assisted", []string{"supported", "partnered on", "contributed to"}},
	{"worked on", []string{"built", "delivered", "engineered"}},
	{"was involved in", []string{"contributed to", "drove", "executed"}},
	{"participated in", []string{"contributed to", "collaborated on", "co-led"}},
	{"handled", []string{"managed", "resolved", "administered"}},
	{"duties included", []string{"delivered", "owned", "executed"}},
	{"tried", []string{"piloted", "tested", "evaluated"}},
	{"did", []string{"completed", "executed", "performed"}},
})

var mediumVerbs = verbRules([]struct {
	verb         string
	replacements []string
}{
	{"managed", []string{"directed", "orchestrated", "spearheaded"}},
	{"developed", []string{"engineered", "architected", "pioneered"}},
	{"created", []string{"designed", "launched", "established"}},
	{"worked with", []string{"partnered with", "collaborated with"}},
	{"maintained", []string{"sustained", "safeguarded", "upheld"}},
	{"supported", []string{"enabled", "championed", "strengthened"}},
	{"used", []string{"leveraged", "applied", "deployed"}},
	{"utilized", []string{"leveraged", "applied", "deployed"}},
	{"coordinated", []string{"orchestrated", "synchronized", "aligned"}},
})

// overusedSynonyms covers words resumes tend to repeat.
var overusedSynonyms = map[string][]string{
	"managed":      {"directed", "oversaw", "supervised"},
	"developed":    {"built", "engineered", "designed"},
	"responsible":  {"accountable", "in charge", "owned"},
	"team":         {"group", "squad", "crew"},
	"worked":       {"operated", "served", "contributed"},
	"helped":       {"enabled", "supported", "facilitated"},
	"led":          {"headed", "directed", "guided"},
	"created":      {"produced", "launched", "established"},
	"improved":     {"enhanced", "elevated", "strengthened"},
	"utilized":     {"used", "applied", "employed"},
	"successfully": {"effectively", "consistently"},
	"various":      {"multiple", "diverse", "several"},
	"excellent":    {"exceptional", "outstanding", "strong"},
	"passionate":   {"dedicated", "driven", "committed"},
	"dynamic":      {"energetic", "adaptable", "versatile"},
}

var (
	bulletMarkerRe = regexp.MustCompile(`^\s*[-*•▪◦·●]\s*`)
	digitRe        = regexp.MustCompile(`\d`)
)

// GenerateFeedback re-runs the resume checks and turns every finding into a
// severity-ranked suggestion.
func GenerateFeedback(ctx context.Context, in Input) (*Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := prepare(in)
	var out []FeedbackSuggestion

	if strings.TrimSpace(p.resume) == "" {
		out = append(out, FeedbackSuggestion{
			Category:   CatContent,
			Severity:   SeverityCritical,
			Title:      "Resume is empty",
			Message:    "No resume text was provided.",
			Suggestion: "Paste or upload your resume to get feedback.",
		})
		return assemble(out, 0, 0, 0), nil
	}

	jobUsable := len([]rune(strings.TrimSpace(p.job))) >= minJobChars

	missingKeywords := 0
	if jobUsable {
		kw := MatchKeywords(p.resume, p.job)
		missingKeywords = len(kw.MissingKeywords)
		out = append(out, keywordFeedback(kw, textsim.Counts(textsim.Tokenize(p.job)))...)
		out = append(out, skillsFeedback(MatchSkills(p.resume, p.job, p.resumeSkills()...))...)
	}

	out = append(out, formattingFeedback(CheckFormatting(p.raw, p.doc))...)

	lines := resumeLines(p)
	out = append(out, verbFeedback(lines)...)

	q, u, unquantified := quantification(lines)
	rate := 0.0
	if q+u > 0 {
		rate = float64(q) / float64(q+u)
		if rate < quantificationTarget {
			out = append(out, FeedbackSuggestion{
				Category:   CatQuantification,
				Severity:   SeverityWarning,
				Title:      "Quantify your achievements",
				Message:    fmt.Sprintf("Only %d of %d achievement bullets include a number (%.0f%%).", q, q+u, rate*100),
				Suggestion: "Add numbers to these bullets: percentages, money, users, time saved, or team size.",
				Examples:   head(unquantified, maxExampleBullets),
			})
		}
	}

	out = append(out, overusedFeedback(p.resume)...)

	if impact := DetectImpact(p.resume); impact.Details.MetricCount == 0 {
		out = append(out, FeedbackSuggestion{
			Category:   CatImpact,
			Severity:   SeverityWarning,
			Title:      "No measurable impact",
			Message:    "Your resume does not state any measurable results.",
			Suggestion: "Describe outcomes with numbers, e.g. \"Reduced page load time by 40%\" or \"Grew revenue by $200K\".",
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return assemble(out, missingKeywords, rate, q+u), nil
}

func keywordFeedback(kw KeywordResult, jobCounts map[string]int) []FeedbackSuggestion {
	var out []FeedbackSuggestion
	var critical, secondary []string
	for _, k := range kw.MissingKeywords {
		if jobCounts[k] >= criticalJobFrequency {
			critical = append(critical, k)
		} else {
			secondary = append(secondary, k)
		}
	}
	if len(critical) > 0 {
		out = append(out, FeedbackSuggestion{
			Category:   CatKeywords,
			Severity:   SeverityCritical,
			Title:      "Critical keywords missing",
			Message:    fmt.Sprintf("The job description repeatedly mentions %d terms your resume never uses.", len(critical)),
			Suggestion: "Add these terms where they honestly describe your experience: " + strings.Join(critical, ", ") + ".",
			Keywords:   critical,
		})
	}
	if len(secondary) > 0 {
		secondary = head(secondary, secondaryKeywordLimit)
		out = append(out, FeedbackSuggestion{
			Category:   CatKeywords,
			Severity:   SeverityImprovement,
			Title:      "Additional keywords to consider",
			Message:    fmt.Sprintf("%d other job terms are missing from your resume.", len(secondary)),
			Suggestion: "Consider working in: " + strings.Join(secondary, ", ") + ".",
			Keywords:   secondary,
		})
	}
	if kw.Stuffing.IsStuffing {
		terms := make([]string, 0, len(kw.Stuffing.Terms))
		for _, t := range kw.Stuffing.Terms {
			terms = append(terms, t.Term)
		}
		out = append(out, FeedbackSuggestion{
			Category:   CatKeywords,
			Severity:   SeverityWarning,
			Title:      "Keyword stuffing detected",
			Message:    fmt.Sprintf("These terms repeat at an unnatural density: %s.", strings.Join(terms, ", ")),
			Suggestion: "Use each keyword a few times in context instead of repeating it. ATS and recruiters penalize stuffing.",
			Keywords:   terms,
		})
	}
	return out
}

func skillsFeedback(s SkillsResult) []FeedbackSuggestion {
	var out []FeedbackSuggestion
	required := append(append([]string{}, s.HardSkills.Missing...), s.Tools.Missing...)
	if len(required) > 0 {
		out = append(out, FeedbackSuggestion{
			Category:   CatSkills,
			Severity:   SeverityWarning,
			Title:      "Missing required skills",
			Message:    fmt.Sprintf("The job asks for %d skills or tools not found in your resume.", len(required)),
			Suggestion: "List the ones you have in your skills section and show them in your experience: " + strings.Join(required, ", ") + ".",
			Keywords:   required,
		})
	}
	if len(s.SoftSkills.Missing) > 0 {
		out = append(out, FeedbackSuggestion{
			Category:   CatSkills,
			Severity:   SeverityImprovement,
			Title:      "Show the soft skills the job mentions",
			Message:    "The job mentions " + strings.Join(s.SoftSkills.Missing, ", ") + ".",
			Suggestion: "Demonstrate these through concrete examples in your bullets rather than listing them.",
			Keywords:   s.SoftSkills.Missing,
		})
	}
	return out
}

func formattingFeedback(f FormattingResult) []FeedbackSuggestion {
	out := make([]FeedbackSuggestion, 0, len(f.Issues))
	for _, is := range f.Issues {
		s := FeedbackSuggestion{
			Category:   CatFormatting,
			Severity:   is.Severity,
			Title:      formatTitles[is.Rule],
			Message:    is.Message,
			Suggestion: formatFixes[is.Rule],
		}
		if is.Rule == RuleMissingEmail || is.Rule == RuleMissingPhone {
			s.Category = CatContact
		}
		if s.Title == "" {
			s.Title = "Formatting issue"
		}
		if s.Suggestion == "" {
			s.Suggestion = "Use a simple single-column layout with standard headings."
		}
		out = append(out, s)
	}
	return out
}

var formatTitles = map[string]string{
	RuleMissingEmail:      "Missing email address",
	RuleMissingPhone:      "Missing phone number",
	RuleTables:            "Tables detected",
	RuleHeaderFooter:      "Header or footer content",
	RuleImages:            "Images or graphics",
	RuleMultiColumn:       "Multi-column layout",
	RuleUnusualUnicode:    "Unusual characters",
	RuleSpecialChars:      "Too many special characters",
	RuleUnsupportedFormat: "Unsupported file format",
	RuleNoExperience:      "No experience section",
	RuleTooShort:          "Resume is too short",
	RuleLongLines:         "Long lines",
	RuleWhitespace:        "Inconsistent spacing",
	RuleNoEducation:       "No education section",
	RuleNoSkills:          "No skills section",
	RuleTooLong:           "Resume is too long",
}

var formatFixes = map[string]string{
	RuleMissingEmail:      "Add a professional email address at the top of your resume.",
	RuleMissingPhone:      "Add a phone number at the top of your resume.",
	RuleTables:            "Replace tables with plain text lines or bullets.",
	RuleHeaderFooter:      "Move contact details out of headers and footers into the main body.",
	RuleImages:            "Remove images and icons, or repeat their information as text.",
	RuleMultiColumn:       "Switch to a single-column layout.",
	RuleUnusualUnicode:    "Replace icons and emoji with plain words.",
	RuleSpecialChars:      "Use standard punctuation and plain bullets.",
	RuleUnsupportedFormat: "Export your resume as PDF or DOCX.",
	RuleNoExperience:      "Add a clearly labeled \"Experience\" section.",
	RuleTooShort:          "Expand your experience with concrete responsibilities and results.",
	RuleLongLines:         "Break long lines into shorter bullets.",
	RuleWhitespace:        "Use consistent spacing instead of tabs and runs of spaces.",
	RuleNoEducation:       "Add an \"Education\" section, even if brief.",
	RuleNoSkills:          "Add a \"Skills\" section listing your key tools and technologies.",
	RuleTooLong:           "Trim older or less relevant roles to keep it to two pages.",
}

// resumeLines returns non-empty lines of the resume plus any structured
// bullets the parser extracted.
func resumeLines(p *prepared) []string {
	var lines []string
	for _, l := range strings.Split(p.resume, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if p.doc != nil {
		seen := make(map[string]bool, len(lines))
		for _, l := range lines {
			seen[strings.TrimLeft(bulletMarkerRe.ReplaceAllString(l, ""), " ")] = true
		}
		for _, e := range p.doc.Experience {
			for _, b := range e.Bullets {
				b = strings.TrimSpace(b)
				if b != "" && !seen[b] {
					seen[b] = true
					lines = append(lines, b)
				}
			}
		}
	}
	return lines
}

// verbFeedback reports the first occurrence of each weak and medium verb.
func verbFeedback(lines []string) []FeedbackSuggestion {
	var out []FeedbackSuggestion
	if weak := findVerbs(lines, weakVerbs); len(weak) > 0 {
		out = append(out, FeedbackSuggestion{
			Category:   CatActionVerbs,
			Severity:   SeverityWarning,
			Title:      "Weak action verbs",
			Message:    fmt.Sprintf("%d weak or passive phrases undersell your work.", len(weak)),
			Suggestion: "Start bullets with strong verbs that show ownership and results.",
			WeakVerbs:  weak,
		})
	}
	if medium := findVerbs(lines, mediumVerbs); len(medium) > 0 {
		out = append(out, FeedbackSuggestion{
			Category:   CatActionVerbs,
			Severity:   SeverityImprovement,
			Title:      "Strengthen action verbs",
			Message:    fmt.Sprintf("%d common verbs could be more specific.", len(medium)),
			Suggestion: "Swap generic verbs for ones that describe exactly what you did.",
			WeakVerbs:  medium,
		})
	}
	return out
}

func findVerbs(lines []string, rules []verbRule) []VerbOccurrence {
	var out []VerbOccurrence
	for _, r := range rules {
		for _, l := range lines {
			if r.re.MatchString(l) {
				out = append(out, VerbOccurrence{
					Verb:         r.verb,
					Context:      engine.TruncateRunes(l, snippetRunes, "..."),
					Replacements: r.replacements,
				})
				break
			}
		}
	}
	return out
}

// quantification classifies achievement bullets: lines that start with a
// bullet marker or an action verb and have at least minBulletWords words.
func quantification(lines []string) (quantified, unquantified int, examples []string) {
	for _, l := range lines {
		if !isBullet(l) {
			continue
		}
		text := strings.TrimSpace(bulletMarkerRe.ReplaceAllString(l, ""))
		if len(strings.Fields(text)) < minBulletWords {
			continue
		}
		if digitRe.MatchString(text) {
			quantified++
			continue
		}
		unquantified++
		examples = append(examples, engine.TruncateRunes(text, snippetRunes, "..."))
	}
	return quantified, unquantified, examples
}

func isBullet(line string) bool {
	if bulletMarkerRe.MatchString(line) {
		return true
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(strings.Trim(fields[0], ",.;:"))
	return actionVerbs[first]
}

var actionVerbs = func() map[string]bool {
	m := map[string]bool{
		"led": true, "built": true, "designed": true, "launched": true, "implemented": true,
		"increased": true, "reduced": true, "improved": true, "delivered": true, "drove": true,
		"grew": true, "achieved": true, "architected": true, "engineered": true, "optimized": true,
		"automated": true, "migrated": true, "mentored": true, "owned": true, "established": true,
		"streamlined": true, "spearheaded": true, "generated": true, "negotiated": true, "shipped": true,
		"worked": true, "responsible": true,
	}
	for _, rules := range [][]verbRule{weakVerbs, mediumVerbs} {
		for _, r := range rules {
			if !strings.Contains(r.verb, " ") {
				m[r.verb] = true
			}
		}
	}
	return m
}()

func overusedFeedback(text string) []FeedbackSuggestion {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(textsim.Normalize(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if _, ok := overusedSynonyms[w]; ok {
			counts[w]++
		}
	}
	var words []string
	for w, c := range counts {
		if c >= overuseMinCount {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	examples := make([]string, 0, len(words))
	for _, w := range words {
		examples = append(examples, fmt.Sprintf("%s (%dx) → %s", w, counts[w], strings.Join(overusedSynonyms[w], ", ")))
	}
	return []FeedbackSuggestion{{
		Category:   CatWordChoice,
		Severity:   SeverityWarning,
		Title:      "Overused words",
		Message:    fmt.Sprintf("%d words are repeated %d or more times.", len(words), overuseMinCount),
		Suggestion: "Vary your wording with the alternatives listed.",
		Keywords:   words,
		Examples:   examples,
	}}
}

// assemble orders suggestions by severity, partitions them and builds the
// statistics and summary.
func assemble(suggestions []FeedbackSuggestion, missingKeywords int, rate float64, bullets int) *Feedback {
	if suggestions == nil {
		suggestions = []FeedbackSuggestion{}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Severity.rank() < suggestions[j].Severity.rank()
	})
	fb := &Feedback{
		Suggestions: suggestions,
		BySeverity: SeverityGroups{
			Critical:    []FeedbackSuggestion{},
			Warning:     []FeedbackSuggestion{},
			Improvement: []FeedbackSuggestion{},
		},
	}
	for _, s := range suggestions {
		switch s.Severity {
		case SeverityCritical:
			fb.BySeverity.Critical = append(fb.BySeverity.Critical, s)
		case SeverityWarning:
			fb.BySeverity.Warning = append(fb.BySeverity.Warning, s)
		default:
			fb.BySeverity.Improvement = append(fb.BySeverity.Improvement, s)
		}
	}
	fb.Statistics = FeedbackStats{
		Total:              len(suggestions),
		Critical:           len(fb.BySeverity.Critical),
		Warning:            len(fb.BySeverity.Warning),
		Improvement:        len(fb.BySeverity.Improvement),
		MissingKeywords:    missingKeywords,
		QuantificationRate: round2(rate),
	}
	fb.Summary = summarize(fb.Statistics, bullets)
	return fb
}

func summarize(st FeedbackStats, bullets int) string {
	if st.Total == 0 {
		return "Great work! No issues found. Your resume is well optimized for this job."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s: %d critical, %d %s, %d %s.",
		st.Total, plural(st.Total, "suggestion", "suggestions"),
		st.Critical,
		st.Warning, plural(st.Warning, "warning", "warnings"),
		st.Improvement, plural(st.Improvement, "improvement", "improvements"))
	if st.MissingKeywords > 0 {
		fmt.Fprintf(&b, " %d job %s missing from your resume.", st.MissingKeywords, plural(st.MissingKeywords, "keyword is", "keywords are"))
	}
	if bullets > 0 {
		fmt.Fprintf(&b, " %.0f%% of your achievement bullets include numbers.", st.QuantificationRate*100)
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
