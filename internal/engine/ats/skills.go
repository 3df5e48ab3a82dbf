package ats

import (
	"regexp"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_ats/internal/engine/textsim"
)

// SkillCategory buckets extracted skills.
type SkillCategory string

const (
	CategoryHard SkillCategory = "hard_skill"
	CategorySoft SkillCategory = "soft_skill"
	CategoryTool SkillCategory = "tool"
)

// Category weights in the overall skills score.
const (
	hardSkillWeight = 0.60
	softSkillWeight = 0.25
	toolWeight      = 0.15
)

// skillEntry is one canonical skill and the spellings that collapse to it.
type skillEntry struct {
	Name     string
	Category SkillCategory
	Aliases  []string
}

var skillVocabulary = []skillEntry{
	// Languages, frameworks, platforms and practices.
	{"JavaScript", CategoryHard, []string{"javascript", "js", "ecmascript", "es6"}},
	{"TypeScript", CategoryHard, []string{"typescript", "ts"}},
	{"Python", CategoryHard, []string{"python", "python3"}},
	{"Java", CategoryHard, []string{"java"}},
	{"Go", CategoryHard, []string{"golang"}},
	{"C++", CategoryHard, []string{"c++", "cpp"}},
	{"C#", CategoryHard, []string{"c#", "csharp"}},
	{"Ruby", CategoryHard, []string{"ruby"}},
	{"PHP", CategoryHard, []string{"php"}},
	{"Rust", CategoryHard, []string{"rust"}},
	{"Kotlin", CategoryHard, []string{"kotlin"}},
	{"Swift", CategoryHard, []string{"swift"}},
	{"Scala", CategoryHard, []string{"scala"}},
	{"SQL", CategoryHard, []string{"sql"}},
	{"HTML", CategoryHard, []string{"html", "html5"}},
	{"CSS", CategoryHard, []string{"css", "css3", "sass", "scss"}},
	{"React", CategoryHard, []string{"react", "react.js", "reactjs"}},
	{"Angular", CategoryHard, []string{"angular", "angularjs"}},
	{"Vue", CategoryHard, []string{"vue", "vue.js", "vuejs"}},
	{"Node.js", CategoryHard, []string{"node.js", "nodejs", "node"}},
	{"Express", CategoryHard, []string{"express.js", "expressjs"}},
	{"Django", CategoryHard, []string{"django"}},
	{"Flask", CategoryHard, []string{"flask"}},
	{"Spring", CategoryHard, []string{"spring boot", "spring framework"}},
	{".NET", CategoryHard, []string{".net", "dotnet", "asp.net"}},
	{"GraphQL", CategoryHard, []string{"graphql"}},
	{"REST APIs", CategoryHard, []string{"restful", "rest api", "rest apis"}},
	{"Microservices", CategoryHard, []string{"microservices", "microservice"}},
	{"Machine Learning", CategoryHard, []string{"machine learning", "ml"}},
	{"Deep Learning", CategoryHard, []string{"deep learning"}},
	{"Data Analysis", CategoryHard, []string{"data analysis", "data analytics"}},
	{"Statistics", CategoryHard, []string{"statistics", "statistical"}},
	{"Distributed Systems", CategoryHard, []string{"distributed systems"}},
	{"System Design", CategoryHard, []string{"system design"}},
	{"CI/CD", CategoryHard, []string{"ci/cd", "continuous integration", "continuous delivery"}},
	{"DevOps", CategoryHard, []string{"devops"}},
	{"Agile", CategoryHard, []string{"agile", "scrum", "kanban"}},
	{"Unit Testing", CategoryHard, []string{"unit testing", "tdd", "test-driven"}},
	{"Security", CategoryHard, []string{"security", "cybersecurity"}},
	{"Project Management", CategoryHard, []string{"project management"}},
	{"SEO", CategoryHard, []string{"seo"}},
	{"Financial Modeling", CategoryHard, []string{"financial modeling", "financial modelling"}},

	// Soft skills.
	{"Leadership", CategorySoft, []string{"leadership", "led teams", "team lead"}},
	{"Communication", CategorySoft, []string{"communication", "communicator", "communicating"}},
	{"Teamwork", CategorySoft, []string{"teamwork", "team player", "collaboration", "collaborative", "collaborate"}},
	{"Problem Solving", CategorySoft, []string{"problem solving", "problem-solving", "problem solver"}},
	{"Critical Thinking", CategorySoft, []string{"critical thinking", "analytical thinking"}},
	{"Time Management", CategorySoft, []string{"time management", "prioritization"}},
	{"Adaptability", CategorySoft, []string{"adaptability", "adaptable", "flexibility"}},
	{"Mentoring", CategorySoft, []string{"mentoring", "mentored", "mentor", "coaching"}},
	{"Creativity", CategorySoft, []string{"creativity", "creative"}},
	{"Attention to Detail", CategorySoft, []string{"attention to detail", "detail-oriented", "detail oriented"}},
	{"Stakeholder Management", CategorySoft, []string{"stakeholder management", "stakeholders"}},
	{"Negotiation", CategorySoft, []string{"negotiation", "negotiating"}},
	{"Presentation", CategorySoft, []string{"presentation skills", "public speaking", "presenting"}},
	{"Ownership", CategorySoft, []string{"ownership", "self-starter", "self-motivated"}},

	// Tools, clouds and infrastructure.
	{"AWS", CategoryTool, []string{"aws", "amazon web services"}},
	{"GCP", CategoryTool, []string{"gcp", "google cloud"}},
	{"Azure", CategoryTool, []string{"azure"}},
	{"Docker", CategoryTool, []string{"docker", "dockerfile"}},
	{"Kubernetes", CategoryTool, []string{"kubernetes", "k8s"}},
	{"Terraform", CategoryTool, []string{"terraform"}},
	{"Ansible", CategoryTool, []string{"ansible"}},
	{"Git", CategoryTool, []string{"git", "github", "gitlab"}},
	{"Jenkins", CategoryTool, []string{"jenkins"}},
	{"Jira", CategoryTool, []string{"jira"}},
	{"PostgreSQL", CategoryTool, []string{"postgresql", "postgres"}},
	{"MySQL", CategoryTool, []string{"mysql"}},
	{"MongoDB", CategoryTool, []string{"mongodb", "mongo"}},
	{"Redis", CategoryTool, []string{"redis"}},
	{"Kafka", CategoryTool, []string{"kafka"}},
	{"Elasticsearch", CategoryTool, []string{"elasticsearch", "elastic search"}},
	{"Linux", CategoryTool, []string{"linux", "unix"}},
	{"Figma", CategoryTool, []string{"figma"}},
	{"Tableau", CategoryTool, []string{"tableau"}},
	{"Power BI", CategoryTool, []string{"power bi", "powerbi"}},
	{"Excel", CategoryTool, []string{"excel", "spreadsheets"}},
	{"Salesforce", CategoryTool, []string{"salesforce"}},
	{"Spark", CategoryTool, []string{"spark", "pyspark"}},
	{"Airflow", CategoryTool, []string{"airflow"}},
	{"TensorFlow", CategoryTool, []string{"tensorflow"}},
	{"PyTorch", CategoryTool, []string{"pytorch"}},
	{"Prometheus", CategoryTool, []string{"prometheus"}},
	{"Grafana", CategoryTool, []string{"grafana"}},
}

// compiledSkill pairs a canonical skill with a matcher over all its aliases.
type compiledSkill struct {
	skillEntry
	re *regexp.Regexp
}

var (
	compiledSkills []compiledSkill
	// canonicalByAlias maps any folded alias or canonical name to its entry.
	canonicalByAlias map[string]*skillEntry
)

func init() {
	canonicalByAlias = make(map[string]*skillEntry)
	for i := range skillVocabulary {
		e := &skillVocabulary[i]
		quoted := make([]string, 0, len(e.Aliases))
		for _, a := range e.Aliases {
			quoted = append(quoted, regexp.QuoteMeta(a))
			canonicalByAlias[a] = e
		}
		canonicalByAlias[strings.ToLower(e.Name)] = e
		// Boundaries exclude word chars and the tech-suffix chars + # on
		// both sides, and a leading dot, so "java" does not fire inside
		// "javascript" and "node" still fires on "node.js".
		re := regexp.MustCompile(`(?:^|[^\pL\pN+#.])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\pL\pN+#])`)
		compiledSkills = append(compiledSkills, compiledSkill{skillEntry: *e, re: re})
	}
}

// ExtractSkills scans text against the vocabulary and returns canonical
// skill names per category, sorted and deduplicated.
func ExtractSkills(text string) map[SkillCategory][]string {
	out := map[SkillCategory][]string{CategoryHard: {}, CategorySoft: {}, CategoryTool: {}}
	if strings.TrimSpace(text) == "" {
		return out
	}
	folded := textsim.Normalize(text)
	for _, s := range compiledSkills {
		if s.re.MatchString(folded) {
			out[s.Category] = append(out[s.Category], s.Name)
		}
	}
	for c := range out {
		sort.Strings(out[c])
	}
	return out
}

// NormalizeSkill maps a free-form skill name to its canonical entry.
// Unknown skills keep their trimmed spelling and land in the hard bucket.
func NormalizeSkill(name string) (string, SkillCategory) {
	key := strings.TrimSpace(textsim.Normalize(name))
	if e, ok := canonicalByAlias[key]; ok {
		return e.Name, e.Category
	}
	return strings.TrimSpace(name), CategoryHard
}

// CategoryMatch is the coverage of one category.
type CategoryMatch struct {
	Required []string `json:"required"`
	Present  []string `json:"present"`
	Matched  []string `json:"matched"`
	Missing  []string `json:"missing"`
	Score    float64  `json:"score"`
}

// SkillsDetails summarizes coverage across categories.
type SkillsDetails struct {
	HardSkills    CategoryMatch `json:"hard_skills"`
	SoftSkills    CategoryMatch `json:"soft_skills"`
	Tools         CategoryMatch `json:"tools"`
	TotalRequired int           `json:"total_required"`
	TotalMatched  int           `json:"total_matched"`
}

// SkillsResult is the skill matcher output. Score is in [0,1].
type SkillsResult struct {
	Score float64 `json:"score"`
	SkillsDetails
}

// MatchSkills measures how much of the job's required skills the resume
// covers, per category. extraResumeSkills are structured skills from the
// parser and count as present.
func MatchSkills(resumeText, jobText string, extraResumeSkills ...string) SkillsResult {
	resumeSkills := ExtractSkills(resumeText)
	for _, s := range extraResumeSkills {
		if strings.TrimSpace(s) == "" {
			continue
		}
		name, cat := NormalizeSkill(s)
		resumeSkills[cat] = append(resumeSkills[cat], name)
	}
	jobSkills := ExtractSkills(jobText)

	var d SkillsDetails
	d.HardSkills = matchCategory(jobSkills[CategoryHard], resumeSkills[CategoryHard])
	d.SoftSkills = matchCategory(jobSkills[CategorySoft], resumeSkills[CategorySoft])
	d.Tools = matchCategory(jobSkills[CategoryTool], resumeSkills[CategoryTool])
	for _, c := range []CategoryMatch{d.HardSkills, d.SoftSkills, d.Tools} {
		d.TotalRequired += len(c.Required)
		d.TotalMatched += len(c.Matched)
	}

	score := hardSkillWeight*d.HardSkills.Score + softSkillWeight*d.SoftSkills.Score + toolWeight*d.Tools.Score
	return SkillsResult{Score: clamp01(score), SkillsDetails: d}
}

// matchCategory computes coverage of required by present. Matching is
// case-insensitive and set-based.
func matchCategory(required, present []string) CategoryMatch {
	m := CategoryMatch{
		Required: dedupFold(required),
		Present:  dedupFold(present),
		Matched:  []string{},
		Missing:  []string{},
	}
	if len(m.Required) == 0 {
		m.Score = 1
		return m
	}
	have := make(map[string]bool, len(m.Present))
	for _, p := range m.Present {
		have[strings.ToLower(p)] = true
	}
	for _, r := range m.Required {
		if have[strings.ToLower(r)] {
			m.Matched = append(m.Matched, r)
		} else {
			m.Missing = append(m.Missing, r)
		}
	}
	m.Score = float64(len(m.Matched)) / float64(len(m.Required))
	return m
}

// dedupFold removes case-insensitive duplicates, keeping first spelling, sorted.
func dedupFold(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := strings.ToLower(s)
		if !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
