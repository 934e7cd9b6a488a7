// Package docselect picks the resume and cover letter to send with an
// application. It is an ordered decision table: the first rule whose terms
// appear in the listing wins, otherwise the configured default is used.
package docselect

import (
	"path/filepath"
	"strings"

	"jobapply-engine/internal/domain"
)

// Field is the part of a listing a rule looks at.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldCompany     Field = "company"
	FieldAny         Field = "any"
)

func (f Field) valid() bool {
	switch f {
	case FieldTitle, FieldDescription, FieldCompany, FieldAny:
		return true
	}
	return false
}

type Rule struct {
	Name string   `yaml:"name" json:"name"`
	Any  []string `yaml:"any" json:"any"`
	// In limits matching to these fields. Empty means title and description.
	In   []Field `yaml:"in,omitempty" json:"in,omitempty"`
	File string  `yaml:"file" json:"file"`
}

type Config struct {
	ResumesDir         string `yaml:"resumes_dir" json:"resumes_dir"`
	CoverLettersDir    string `yaml:"cover_letters_dir" json:"cover_letters_dir"`
	DefaultResume      string `yaml:"default_resume" json:"default_resume"`
	DefaultCoverLetter string `yaml:"default_cover_letter" json:"default_cover_letter"`
	ResumeRules        []Rule `yaml:"resume_rules" json:"resume_rules"`
	CoverLetterRules   []Rule `yaml:"cover_letter_rules" json:"cover_letter_rules"`
}

// DefaultConfig mirrors the document layout the tool ships with.
func DefaultConfig() Config {
	return Config{
		ResumesDir:         "./resumes",
		CoverLettersDir:    "./cover_letters",
		DefaultResume:      "resume_general.pdf",
		DefaultCoverLetter: "cover_letter_generic.pdf",
		ResumeRules: []Rule{
			{Name: "backend", Any: []string{"backend", "server", "api", "django", "flask", "fastapi"}, File: "resume_backend.pdf"},
			{Name: "frontend", Any: []string{"frontend", "react", "vue", "angular", "javascript", "typescript"}, File: "resume_frontend.pdf"},
			{Name: "fullstack", Any: []string{"fullstack", "full stack", "full-stack"}, File: "resume_fullstack.pdf"},
			{Name: "data_science", Any: []string{"data scientist", "machine learning", "data analysis"}, File: "resume_data_science.pdf"},
		},
		CoverLetterRules: []Rule{
			{Name: "startup", Any: []string{"startup", "early stage", "series a", "series b"}, In: []Field{FieldDescription}, File: "cover_letter_startup.pdf"},
			{Name: "enterprise", Any: []string{"enterprise", "fortune 500", "large company"}, In: []Field{FieldDescription}, File: "cover_letter_enterprise.pdf"},
		},
	}
}

// Documents is the outcome of a selection. Rule names are empty when the
// default was used.
type Documents struct {
	Resume          string `json:"resume"`
	ResumeRule      string `json:"resume_rule,omitempty"`
	CoverLetter     string `json:"cover_letter"`
	CoverLetterRule string `json:"cover_letter_rule,omitempty"`

	resumesDir      string
	coverLettersDir string
}

// Paths joins the selected file names with their configured directories.
// An empty file name stays empty.
func (d Documents) Paths() (resume, coverLetter string) {
	if d.Resume != "" {
		resume = filepath.Join(d.resumesDir, d.Resume)
	}
	if d.CoverLetter != "" {
		coverLetter = filepath.Join(d.coverLettersDir, d.CoverLetter)
	}
	return resume, coverLetter
}

type Selector struct {
	cfg Config
}

// New keeps the rules in the order given.
func New(cfg Config) *Selector {
	c := cfg
	c.ResumeRules = append([]Rule(nil), cfg.ResumeRules...)
	c.CoverLetterRules = append([]Rule(nil), cfg.CoverLetterRules...)
	return &Selector{cfg: c}
}

func (s *Selector) Config() Config { return s.cfg }

func (s *Selector) Resume(l domain.Listing) string {
	file, _ := firstMatch(s.cfg.ResumeRules, l, s.cfg.DefaultResume)
	return file
}

func (s *Selector) CoverLetter(l domain.Listing) string {
	file, _ := firstMatch(s.cfg.CoverLetterRules, l, s.cfg.DefaultCoverLetter)
	return file
}

func (s *Selector) Select(l domain.Listing) Documents {
	d := Documents{resumesDir: s.cfg.ResumesDir, coverLettersDir: s.cfg.CoverLettersDir}
	d.Resume, d.ResumeRule = firstMatch(s.cfg.ResumeRules, l, s.cfg.DefaultResume)
	d.CoverLetter, d.CoverLetterRule = firstMatch(s.cfg.CoverLetterRules, l, s.cfg.DefaultCoverLetter)
	return d
}

func firstMatch(rules []Rule, l domain.Listing, fallback string) (file, rule string) {
	for _, r := range rules {
		if r.matches(l) {
			return r.File, r.Name
		}
	}
	return fallback, ""
}

func (r Rule) matches(l domain.Listing) bool {
	text := r.text(l)
	for _, term := range r.Any {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func (r Rule) text(l domain.Listing) string {
	fields := r.In
	if len(fields) == 0 {
		fields = []Field{FieldTitle, FieldDescription}
	}
	var parts []string
	for _, f := range fields {
		switch f {
		case FieldTitle:
			parts = append(parts, l.Title)
		case FieldDescription:
			parts = append(parts, l.Description)
		case FieldCompany:
			parts = append(parts, l.Company)
		case FieldAny:
			parts = append(parts, l.Title, l.Description, l.Company)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
