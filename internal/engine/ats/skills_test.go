package ats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkill(t *testing.T) {
	tests := []struct {
		in       string
		name     string
		category SkillCategory
	}{
		{"js", "JavaScript", CategoryHard},
		{"JavaScript", "JavaScript", CategoryHard},
		{"golang", "Go", CategoryHard},
		{"k8s", "Kubernetes", CategoryTool},
		{" Postgres ", "PostgreSQL", CategoryTool},
		{"team player", "Teamwork", CategorySoft},
		{"Cobol", "Cobol", CategoryHard},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, cat := NormalizeSkill(tt.in)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.category, cat)
		})
	}
}

func TestExtractSkills_Boundaries(t *testing.T) {
	got := ExtractSkills("Senior JavaScript developer, Node.js and C++ background")
	assert.Contains(t, got[CategoryHard], "JavaScript")
	assert.Contains(t, got[CategoryHard], "Node.js")
	assert.Contains(t, got[CategoryHard], "C++")
	assert.NotContains(t, got[CategoryHard], "Java")
}

func TestExtractSkills_Empty(t *testing.T) {
	got := ExtractSkills("   ")
	assert.Len(t, got, 3)
	for _, c := range []SkillCategory{CategoryHard, CategorySoft, CategoryTool} {
		assert.Empty(t, got[c])
	}
}

func TestMatchSkills_FullAlignment(t *testing.T) {
	resume := "Skills: JavaScript, React, Node.js, AWS, Docker"
	job := "We need JavaScript, React, Node.js, AWS and Docker experience."
	r := MatchSkills(resume, job)
	assert.InDelta(t, 1.0, r.HardSkills.Score, 1e-9)
	assert.InDelta(t, 1.0, r.Tools.Score, 1e-9)
	assert.ElementsMatch(t, []string{"JavaScript", "Node.js", "React"}, r.HardSkills.Matched)
	assert.ElementsMatch(t, []string{"AWS", "Docker"}, r.Tools.Matched)
	assert.InDelta(t, 1.0, r.Score, 1e-9)
}

func TestMatchSkills_NoRequirementScoresOne(t *testing.T) {
	r := MatchSkills("I enjoy cooking.", "We need Python and Django developers.")
	assert.InDelta(t, 1.0, r.SoftSkills.Score, 1e-9)
	assert.InDelta(t, 1.0, r.Tools.Score, 1e-9)
	assert.Zero(t, r.HardSkills.Score)
	assert.ElementsMatch(t, []string{"Django", "Python"}, r.HardSkills.Missing)
	assert.InDelta(t, softSkillWeight+toolWeight, r.Score, 1e-9)
}

func TestMatchSkills_StructuredSkills(t *testing.T) {
	r := MatchSkills("", "Deploy with Docker and Kubernetes.", "docker", "k8s", "")
	assert.ElementsMatch(t, []string{"Docker", "Kubernetes"}, r.Tools.Matched)
	assert.Empty(t, r.Tools.Missing)
	assert.Equal(t, 2, r.TotalRequired)
	assert.Equal(t, 2, r.TotalMatched)
}

func TestMatchCategory(t *testing.T) {
	m := matchCategory([]string{"Go", "Python", "go"}, []string{"python"})
	assert.Equal(t, []string{"Go", "Python"}, m.Required)
	assert.Equal(t, []string{"Python"}, m.Matched)
	assert.Equal(t, []string{"Go"}, m.Missing)
	assert.InDelta(t, 0.5, m.Score, 1e-9)
}
