package rank

import (
	"strings"

	"jobapply-engine/internal/domain"
)

// Tags lists the preference terms a listing hit: matched skills, a "remote"
// marker and the listing's known seniority. Used for dashboard chips only;
// it has no effect on the score.
func Tags(l domain.Listing, p domain.Preferences) []string {
	text := listingText(l)

	var tags []string
	applyTerms := func(terms []string) {
		for _, t := range terms {
			n := strings.ToLower(strings.TrimSpace(t))
			if n != "" && strings.Contains(text, n) {
				tags = append(tags, strings.TrimSpace(t))
			}
		}
	}

	applyTerms(p.RequiredSkills)
	applyTerms(p.NiceToHaveSkills)

	if strings.Contains(strings.ToLower(l.Location), "remote") {
		tags = append(tags, "Remote")
	}
	if l.Seniority.Known() {
		tags = append(tags, string(l.Seniority))
	}
	return uniq(tags)
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		k := strings.ToLower(t)
		if !seen[k] {
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}
