package domain

import (
	"fmt"
	"strings"
)

type Seniority string

const (
	SeniorityUnknown Seniority = "unknown"
	SeniorityJunior  Seniority = "junior"
	SeniorityMid     Seniority = "mid"
	SenioritySenior  Seniority = "senior"
	SeniorityLead    Seniority = "lead"
)

// ladder is the ordered seniority sequence used for adjacency.
var ladder = []Seniority{SeniorityJunior, SeniorityMid, SenioritySenior, SeniorityLead}

// Rank returns the position of s on the junior..lead ladder, or -1 for
// unknown values.
func (s Seniority) Rank() int {
	for i, l := range ladder {
		if l == s {
			return i
		}
	}
	return -1
}

func (s Seniority) Known() bool { return s.Rank() >= 0 }

// ParseSeniority accepts the canonical names plus a few common spellings.
func ParseSeniority(raw string) (Seniority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "junior", "jr", "entry", "associate":
		return SeniorityJunior, nil
	case "mid", "intermediate", "mid-level":
		return SeniorityMid, nil
	case "senior", "sr":
		return SenioritySenior, nil
	case "lead", "principal", "staff":
		return SeniorityLead, nil
	case "", "unknown":
		return SeniorityUnknown, nil
	default:
		return SeniorityUnknown, fmt.Errorf("unknown seniority %q", raw)
	}
}

// seniorityHints maps title words to a level. Checked top-down, so "senior
// lead" resolves to lead.
var seniorityHints = []struct {
	level Seniority
	words []string
}{
	{SeniorityLead, []string{"lead", "principal", "staff", "head of"}},
	{SenioritySenior, []string{"senior", "sr.", "sr "}},
	{SeniorityJunior, []string{"junior", "jr.", "jr ", "entry", "associate", "graduate", "intern ", "internship"}},
	{SeniorityMid, []string{"mid-level", "mid level", "intermediate"}},
}

// InferSeniority guesses a level from a job title. Titles without any hint
// stay unknown; a bare "engineer" says nothing about level.
func InferSeniority(title string) Seniority {
	t := strings.ToLower(title) + " "
	for _, h := range seniorityHints {
		for _, w := range h.words {
			if strings.Contains(t, w) {
				return h.level
			}
		}
	}
	return SeniorityUnknown
}
