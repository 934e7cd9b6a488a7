package domain

import "time"

// Listing is a job posting as handed to the scorer. Treat it as immutable
// once built; normalization returns a new value.
type Listing struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Company     string     `json:"company" yaml:"company"`
	URL         string     `json:"url" yaml:"url"`
	Description string     `json:"description" yaml:"description"`
	Keywords    []string   `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	SalaryMin   *float64   `json:"salary_min,omitempty" yaml:"salary_min,omitempty"`
	SalaryMax   *float64   `json:"salary_max,omitempty" yaml:"salary_max,omitempty"`
	Location    string     `json:"location" yaml:"location"`
	Rating      *float64   `json:"company_rating,omitempty" yaml:"company_rating,omitempty"`
	Seniority   Seniority  `json:"seniority,omitempty" yaml:"seniority,omitempty"`
	Benefits    []string   `json:"benefits,omitempty" yaml:"benefits,omitempty"`
	Source      string     `json:"source,omitempty" yaml:"source,omitempty"` // file/feed/etc.
	PostedAt    *time.Time `json:"posted_at,omitempty" yaml:"posted_at,omitempty"`
}

// Salary returns the single comparable salary figure for the listing: the
// midpoint when both ends of the range are known, otherwise whichever end
// is present. ok is false when the listing carries no salary at all.
func (l Listing) Salary() (v float64, ok bool) {
	switch {
	case l.SalaryMin != nil && l.SalaryMax != nil:
		return (*l.SalaryMin + *l.SalaryMax) / 2, true
	case l.SalaryMin != nil:
		return *l.SalaryMin, true
	case l.SalaryMax != nil:
		return *l.SalaryMax, true
	default:
		return 0, false
	}
}

// Float is a small helper for building listings with optional numbers.
func Float(v float64) *float64 { return &v }
