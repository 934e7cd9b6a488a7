package rank

import (
	"strings"

	"jobapply-engine/internal/domain"
)

const (
	requiredShare = 0.8
	niceShare     = 0.2

	remoteFloor     = 0.5
	neutralRating   = 0.5
	maxRating       = 5.0
	laterPreference = 0.1
)

// locationSteps is the credit for a match at preference position 1, 2, 3.
// Anything further down gets laterPreference.
var locationSteps = []float64{1.0, 0.7, 0.4}

func listingText(l domain.Listing) string {
	parts := make([]string, 0, 2+len(l.Keywords))
	parts = append(parts, l.Title, l.Description)
	parts = append(parts, l.Keywords...)
	return strings.ToLower(strings.Join(parts, " "))
}

// matchFraction returns matched/total for the non-blank needles found in
// text, and ok=false when there are no needles to look for.
func matchFraction(needles []string, text string) (frac float64, ok bool) {
	total, matched := 0, 0
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		total++
		if strings.Contains(text, n) {
			matched++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(matched) / float64(total), true
}

// KeywordScore blends required and nice-to-have skill coverage. An empty
// skill list means no requirement and earns full credit for its share.
func KeywordScore(l domain.Listing, p domain.Preferences) float64 {
	text := listingText(l)

	req, ok := matchFraction(p.RequiredSkills, text)
	if !ok {
		req = 1.0
	}
	nice, ok := matchFraction(p.NiceToHaveSkills, text)
	if !ok {
		nice = 1.0
	}
	return clamp01(requiredShare*req + niceShare*nice)
}

// SalaryScore ramps linearly from min_salary (0) to target_salary (1).
// Unknown salary scores 0: salary is treated as a hard constraint.
func SalaryScore(l domain.Listing, p domain.Preferences) float64 {
	s, ok := l.Salary()
	if !ok {
		return 0
	}
	if s < 0 {
		s = 0
	}
	target := p.TargetSalary
	floor := p.MinSalary
	switch {
	case s >= target:
		return 1
	case s < floor:
		return 0
	default:
		return clamp01((s - floor) / (target - floor))
	}
}

// LocationScore decays with the position of the first preference that
// matches. Remote listings never drop below remoteFloor.
func LocationScore(l domain.Listing, p domain.Preferences) float64 {
	loc := strings.ToLower(strings.TrimSpace(l.Location))

	score := 0.0
	pos := 0
	havePrefs := false
	for _, pref := range p.PreferredLocations {
		pref = strings.ToLower(strings.TrimSpace(pref))
		if pref == "" {
			continue
		}
		havePrefs = true
		if loc != "" && (strings.Contains(loc, pref) || strings.Contains(pref, loc)) {
			score = laterPreference
			if pos < len(locationSteps) {
				score = locationSteps[pos]
			}
			break
		}
		pos++
	}
	if !havePrefs {
		return 1
	}
	if strings.Contains(loc, "remote") && score < remoteFloor {
		score = remoteFloor
	}
	return score
}

// RatingScore maps a 0–5 rating onto [0,1]. Missing ratings are neutral.
func RatingScore(l domain.Listing) float64 {
	if l.Rating == nil {
		return neutralRating
	}
	return clamp01(*l.Rating / maxRating)
}

// SeniorityScore gives full credit for an exact level, half for a
// neighbouring level and nothing otherwise.
func SeniorityScore(l domain.Listing, p domain.Preferences) float64 {
	a, b := l.Seniority.Rank(), p.ExperienceLevel.Rank()
	if a < 0 || b < 0 {
		return 0
	}
	switch d := a - b; {
	case d == 0:
		return 1
	case d == 1 || d == -1:
		return 0.5
	default:
		return 0
	}
}

// BenefitsScore is the share of desired benefits the listing offers.
func BenefitsScore(l domain.Listing, p domain.Preferences) float64 {
	offered := make([]string, 0, len(l.Benefits))
	for _, b := range l.Benefits {
		if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
			offered = append(offered, b)
		}
	}

	total, matched := 0, 0
	for _, want := range p.DesiredBenefits {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		total++
		for _, b := range offered {
			if strings.Contains(b, want) {
				matched++
				break
			}
		}
	}
	if total == 0 {
		return 1
	}
	return float64(matched) / float64(total)
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
