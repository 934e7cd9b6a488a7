package docselect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CheckRules reports problems with the shape of the rule tables. It does
// not touch the filesystem.
func CheckRules(cfg Config) []string {
	var errs []string
	if strings.TrimSpace(cfg.DefaultResume) == "" {
		errs = append(errs, "documents.default_resume is required")
	}
	check := func(name string, rules []Rule) {
		seen := map[string]bool{}
		for i, r := range rules {
			if strings.TrimSpace(r.Name) == "" {
				errs = append(errs, fmt.Sprintf("%s[%d].name is required", name, i))
			} else if seen[strings.ToLower(r.Name)] {
				errs = append(errs, fmt.Sprintf("%s[%d].name %q is duplicated", name, i, r.Name))
			}
			seen[strings.ToLower(r.Name)] = true
			if strings.TrimSpace(r.File) == "" {
				errs = append(errs, fmt.Sprintf("%s[%d].file is required", name, i))
			}
			if len(r.Any) == 0 {
				errs = append(errs, fmt.Sprintf("%s[%d].any must have at least 1 term", name, i))
			}
			for j, term := range r.Any {
				if strings.TrimSpace(term) == "" {
					errs = append(errs, fmt.Sprintf("%s[%d].any[%d] cannot be empty", name, i, j))
				}
			}
			for _, f := range r.In {
				if !f.valid() {
					errs = append(errs, fmt.Sprintf("%s[%d].in has unknown field %q", name, i, f))
				}
			}
		}
	}
	check("documents.resume_rules", cfg.ResumeRules)
	check("documents.cover_letter_rules", cfg.CoverLetterRules)
	return errs
}

// Validate checks that the document directories and every referenced file
// exist on disk. Selection itself never looks at the filesystem.
func (s *Selector) Validate() []string {
	var problems []string
	c := s.cfg

	dirOK := func(label, dir string) bool {
		st, err := os.Stat(dir)
		if err != nil || !st.IsDir() {
			problems = append(problems, fmt.Sprintf("%s directory not found: %s", label, dir))
			return false
		}
		return true
	}
	fileOK := func(dir, name string) {
		if name == "" {
			return
		}
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			problems = append(problems, fmt.Sprintf("document not found: %s", p))
		}
	}

	if dirOK("resumes", c.ResumesDir) {
		fileOK(c.ResumesDir, c.DefaultResume)
		for _, r := range c.ResumeRules {
			fileOK(c.ResumesDir, r.File)
		}
	}
	if dirOK("cover letters", c.CoverLettersDir) {
		fileOK(c.CoverLettersDir, c.DefaultCoverLetter)
		for _, r := range c.CoverLetterRules {
			fileOK(c.CoverLettersDir, r.File)
		}
	}
	return problems
}
