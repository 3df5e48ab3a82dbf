package ats

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_ats/internal/engine"
	"github.com/anatolykoptev/go_ats/internal/engine/textsim"
)

// Point deductions per violation severity.
const (
	criticalDeduction    = 20
	warningDeduction     = 10
	improvementDeduction = 5
)

const (
	minResumeWords     = 150
	twoPageWords       = 1000
	maxLineLength      = 120
	longLineTolerance  = 3
	unusualRuneLimit   = 5
	specialCharRatio   = 0.05
	irregularSpaceRuns = 3
)

// Formatting rule identifiers.
const (
	RuleMissingEmail      = "missing_email"
	RuleMissingPhone      = "missing_phone"
	RuleTables            = "tables"
	RuleHeaderFooter      = "header_footer"
	RuleImages            = "images"
	RuleMultiColumn       = "multi_column"
	RuleUnusualUnicode    = "unusual_unicode"
	RuleSpecialChars      = "special_characters"
	RuleUnsupportedFormat = "unsupported_format"
	RuleNoExperience      = "missing_experience_section"
	RuleTooShort          = "too_short"
	RuleLongLines         = "long_lines"
	RuleWhitespace        = "inconsistent_whitespace"
	RuleNoEducation       = "missing_education_section"
	RuleNoSkills          = "missing_skills_section"
	RuleTooLong           = "too_long"
)

var (
	emailRe          = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Grouped numbers need separators or an area code in parentheses; a bare
	// digit run only counts in +E.164 form.
	phoneRe          = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)[\s.\-]?|\d{2,4}[\s.\-])\d{3,4}[\s.\-]\d{3,4}\b|\+\d{8,15}\b`)
	pipeRowRe        = regexp.MustCompile(`(?m)^.*\|.*\|.*$`)
	tabRowRe         = regexp.MustCompile(`(?m)^[^\t\n]+\t[^\t\n]+\t[^\t\n]+$`)
	experienceHeadRe = regexp.MustCompile(`(?im)^\s*(?:work\s+|professional\s+|relevant\s+)?(?:experience|employment(?:\s+history)?|work\s+history)\s*:?\s*$`)
	educationHeadRe  = regexp.MustCompile(`(?im)^\s*(?:education|academic\s+background|qualifications)\s*:?\s*$`)
	skillsHeadRe     = regexp.MustCompile(`(?im)^\s*(?:technical\s+|core\s+|key\s+)?(?:skills|competencies|technologies)(?:\s*&\s*\w+)?\s*:?\s*$`)
	spaceRunRe       = regexp.MustCompile(`[^\s] {3,}[^\s]`)
)

var supportedFormats = map[string]bool{"": true, "pdf": true, "docx": true, "doc": true, "txt": true, "text": true}

// FormatIssue is one formatting violation.
type FormatIssue struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// FormattingDetails carries the formatting findings.
type FormattingDetails struct {
	Issues   []FormatIssue `json:"issues"`
	Warnings []string      `json:"warnings,omitempty"`
	HasEmail bool          `json:"has_email"`
	HasPhone bool          `json:"has_phone"`
}

// FormattingResult is the formatting checker output. Score is in [0,100].
type FormattingResult struct {
	Score float64 `json:"score"`
	FormattingDetails
}

// CheckFormatting applies ATS-parseability rules to the resume text and,
// when present, the parser's structured metadata.
func CheckFormatting(text string, resume *Resume) FormattingResult {
	res := FormattingResult{FormattingDetails: FormattingDetails{Issues: []FormatIssue{}}}
	add := func(rule string, sev Severity, msg string) {
		res.Issues = append(res.Issues, FormatIssue{Rule: rule, Severity: sev, Message: msg})
	}

	markup := LooksLikeMarkup(text)
	plain := engine.PlainText(text)
	var meta Metadata
	if resume != nil {
		meta = resume.Metadata
	} else {
		res.Warnings = append(res.Warnings, "no structured resume metadata; layout checks use text heuristics only")
	}

	// Contact.
	res.HasEmail = emailRe.MatchString(plain) || (resume != nil && resume.Contact != nil && resume.Contact.Email != "")
	res.HasPhone = phoneRe.MatchString(plain) || (resume != nil && resume.Contact != nil && resume.Contact.Phone != "")
	if !res.HasEmail {
		add(RuleMissingEmail, SeverityCritical, "No email address found. Recruiters and ATS parsers need a contact email.")
	}
	if !res.HasPhone {
		add(RuleMissingPhone, SeverityCritical, "No phone number found.")
	}

	// ATS-hostile constructs.
	var htmlTables, htmlHeaderFooter, htmlImages bool
	if markup {
		htmlTables, htmlHeaderFooter, htmlImages = detectMarkupConstructs(text)
	}
	if meta.HasTables || htmlTables || pipeRowRe.MatchString(plain) || tabRowRe.MatchString(plain) {
		add(RuleTables, SeverityWarning, "Tables detected. Many ATS parsers read table cells out of order.")
	}
	if meta.HasHeaderFooter || htmlHeaderFooter {
		add(RuleHeaderFooter, SeverityWarning, "Header or footer content detected. ATS parsers often skip it.")
	}
	if meta.HasImages || htmlImages {
		add(RuleImages, SeverityWarning, "Images or graphics detected. ATS parsers cannot read text inside images.")
	}
	if meta.Columns > 1 {
		add(RuleMultiColumn, SeverityWarning, fmt.Sprintf("%d-column layout detected. Single-column layouts parse more reliably.", meta.Columns))
	}
	if n := countUnusualRunes(plain); n > unusualRuneLimit {
		add(RuleUnusualUnicode, SeverityWarning, fmt.Sprintf("%d unusual Unicode characters (icons, emoji, symbols) found.", n))
	}
	if ratio := specialCharShare(plain); ratio > specialCharRatio {
		add(RuleSpecialChars, SeverityWarning, fmt.Sprintf("%.0f%% of characters are special symbols.", ratio*100))
	}
	if f := strings.ToLower(strings.TrimPrefix(meta.Format, ".")); !supportedFormats[f] {
		add(RuleUnsupportedFormat, SeverityWarning, fmt.Sprintf("File format %q is not widely supported by ATS. Use PDF or DOCX.", meta.Format))
	}

	// Structure.
	words := textsim.WordCount(plain)
	if !experienceHeadRe.MatchString(plain) && (resume == nil || len(resume.Experience) == 0) {
		add(RuleNoExperience, SeverityWarning, "No clear \"Experience\" section heading found.")
	}
	if words < minResumeWords {
		add(RuleTooShort, SeverityWarning, fmt.Sprintf("Resume has only %d words.", words))
	}
	if n := countLongLines(plain); n > longLineTolerance {
		add(RuleLongLines, SeverityImprovement, fmt.Sprintf("%d lines exceed %d characters.", n, maxLineLength))
	}
	if irregularWhitespace(plain) {
		add(RuleWhitespace, SeverityImprovement, "Inconsistent spacing (tabs mixed with space runs) detected.")
	}
	if !educationHeadRe.MatchString(plain) {
		add(RuleNoEducation, SeverityImprovement, "No \"Education\" section heading found.")
	}
	if !skillsHeadRe.MatchString(plain) && (resume == nil || len(resume.Skills) == 0) {
		add(RuleNoSkills, SeverityImprovement, "No \"Skills\" section heading found.")
	}
	if words > twoPageWords || meta.PageCount > 2 {
		add(RuleTooLong, SeverityImprovement, "Resume runs longer than two pages.")
	}

	score := 100.0
	for _, is := range res.Issues {
		switch is.Severity {
		case SeverityCritical:
			score -= criticalDeduction
		case SeverityWarning:
			score -= warningDeduction
		default:
			score -= improvementDeduction
		}
	}
	res.Score = clamp(score, 0, 100)
	return res
}

// LooksLikeMarkup reports whether text carries HTML markup.
func LooksLikeMarkup(text string) bool {
	return engine.LooksLikeHTML(text)
}

// detectMarkupConstructs looks for ATS-hostile elements in HTML resumes.
func detectMarkupConstructs(text string) (tables, headerFooter, images bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		slog.Debug("formatting: markup parse failed", slog.Any("error", err))
		return false, false, false
	}
	tables = doc.Find("table").Length() > 0
	headerFooter = doc.Find("header, footer").Length() > 0
	images = doc.Find("img, svg").Length() > 0
	return tables, headerFooter, images
}

// countUnusualRunes counts symbols ATS parsers commonly mangle: private-use
// glyphs, emoji, dingbats and box drawing.
func countUnusualRunes(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r == '•' || r == '–' || r == '—' || r == '’' || r == '‘' || r == '“' || r == '”' || r == '…':
		case unicode.Is(unicode.Co, r):
			n++
		case r >= 0x2500 && r <= 0x27BF: // box drawing .. dingbats
			n++
		case r >= 0x1F000:
			n++
		}
	}
	return n
}

// specialCharShare is the fraction of non-space runes that are neither
// letters, digits nor common punctuation.
func specialCharShare(s string) float64 {
	total, special := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(".,;:'\"()-/&%$+#@!?•–—’‘“”", r) {
			continue
		}
		special++
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}

func countLongLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if len([]rune(line)) > maxLineLength {
			n++
		}
	}
	return n
}

func irregularWhitespace(s string) bool {
	runs := len(spaceRunRe.FindAllStringIndex(s, -1))
	return runs >= irregularSpaceRuns && strings.Contains(s, "\t")
}
