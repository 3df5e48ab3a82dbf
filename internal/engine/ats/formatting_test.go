package ats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rules(r FormattingResult) []string {
	out := make([]string, 0, len(r.Issues))
	for _, is := range r.Issues {
		out = append(out, is.Rule)
	}
	return out
}

func TestCheckFormatting_CleanResume(t *testing.T) {
	r := CheckFormatting(strongResume, &Resume{Metadata: Metadata{Format: "pdf", PageCount: 1}})
	assert.True(t, r.HasEmail)
	assert.True(t, r.HasPhone)
	got := rules(r)
	for _, rule := range []string{RuleMissingEmail, RuleMissingPhone, RuleTables, RuleNoExperience, RuleNoEducation, RuleNoSkills, RuleUnsupportedFormat} {
		assert.NotContains(t, got, rule)
	}
	for _, is := range r.Issues {
		assert.NotEqual(t, SeverityCritical, is.Severity)
	}
	assert.Empty(t, r.Warnings)
	assert.GreaterOrEqual(t, r.Score, 80.0)
}

func TestCheckFormatting_MissingContact(t *testing.T) {
	r := CheckFormatting("Experience\nBackend engineer at a bank.", nil)
	assert.False(t, r.HasEmail)
	assert.False(t, r.HasPhone)
	got := rules(r)
	assert.Contains(t, got, RuleMissingEmail)
	assert.Contains(t, got, RuleMissingPhone)
	assert.LessOrEqual(t, r.Score, 60.0)
	assert.NotEmpty(t, r.Warnings)
}

func TestCheckFormatting_StructuredContact(t *testing.T) {
	r := CheckFormatting("Experience\nBackend engineer.", &Resume{Contact: &Contact{Email: "a@b.co", Phone: "+1 555 000 1111"}})
	assert.True(t, r.HasEmail)
	assert.True(t, r.HasPhone)
	assert.NotContains(t, rules(r), RuleMissingEmail)
}

func TestPhonePattern(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"(555) 123-4567", true},
		{"555-123-4567", true},
		{"555.123.4567", true},
		{"+44 20 7946 0958", true},
		{"+15551234567", true},
		{"Employee ID 123456789012", false},
		{"Processed 45000000 records", false},
		{"2019-2021", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, phoneRe.MatchString(tt.text), tt.text)
	}

	r := CheckFormatting("jane@example.com\nBadge 20231234567\nExperience\nBackend engineer.", nil)
	assert.False(t, r.HasPhone)
	assert.Contains(t, rules(r), RuleMissingPhone)
}

func TestCheckFormatting_MarkupConstructs(t *testing.T) {
	html := `<html><body><header>Jane Doe</header><p>jane@example.com</p>` +
		`<table><tr><td>Go</td><td>5 years</td></tr></table><img src="me.png"></body></html>`
	got := rules(CheckFormatting(html, nil))
	assert.Contains(t, got, RuleTables)
	assert.Contains(t, got, RuleHeaderFooter)
	assert.Contains(t, got, RuleImages)
	assert.NotContains(t, got, RuleMissingEmail)
}

func TestCheckFormatting_PlainTextTable(t *testing.T) {
	text := "jane@example.com\nSkill | Years | Level\nGo | 5 | Expert\n"
	assert.Contains(t, rules(CheckFormatting(text, nil)), RuleTables)
}

func TestCheckFormatting_Metadata(t *testing.T) {
	r := CheckFormatting("x", &Resume{Metadata: Metadata{
		Format:          "pages",
		HasTables:       true,
		HasImages:       true,
		HasHeaderFooter: true,
		Columns:         2,
	}})
	got := rules(r)
	for _, rule := range []string{RuleTables, RuleImages, RuleHeaderFooter, RuleMultiColumn, RuleUnsupportedFormat} {
		assert.Contains(t, got, rule)
	}
	assert.Zero(t, r.Score, "score floors at 0")
}

func TestCountUnusualRunes(t *testing.T) {
	assert.Zero(t, countUnusualRunes("• Led the team – “quoted”"))
	assert.Equal(t, 3, countUnusualRunes("★ ✔ 🚀 plain"))
}
