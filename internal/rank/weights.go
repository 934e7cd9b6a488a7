package rank

import (
	"errors"
	"fmt"
	"math"
)

// Criterion names one of the six scoring dimensions. The string values
// double as breakdown keys and config keys.
type Criterion string

const (
	Keyword       Criterion = "keyword_match"
	Salary        Criterion = "salary_match"
	Location      Criterion = "location_preference"
	CompanyRating Criterion = "company_rating"
	Seniority     Criterion = "role_seniority"
	Benefits      Criterion = "benefits"
)

// Criteria lists every criterion in display order.
var Criteria = []Criterion{Keyword, Salary, Location, CompanyRating, Seniority, Benefits}

// WeightTolerance is how far the weight sum may drift from 1.0.
const WeightTolerance = 1e-6

var (
	ErrWeightsSum   = errors.New("scoring weights must sum to 1.0")
	ErrWeightsRange = errors.New("scoring weight out of range [0,1]")
)

type Weights struct {
	Keyword       float64 `yaml:"keyword_match" json:"keyword_match"`
	Salary        float64 `yaml:"salary_match" json:"salary_match"`
	Location      float64 `yaml:"location_preference" json:"location_preference"`
	CompanyRating float64 `yaml:"company_rating" json:"company_rating"`
	Seniority     float64 `yaml:"role_seniority" json:"role_seniority"`
	Benefits      float64 `yaml:"benefits" json:"benefits"`
}

// DefaultWeights are the weights shipped in the bootstrap config.
func DefaultWeights() Weights {
	return Weights{
		Keyword:       0.25,
		Salary:        0.20,
		Location:      0.15,
		CompanyRating: 0.15,
		Seniority:     0.15,
		Benefits:      0.10,
	}
}

func (w Weights) Of(c Criterion) float64 {
	switch c {
	case Keyword:
		return w.Keyword
	case Salary:
		return w.Salary
	case Location:
		return w.Location
	case CompanyRating:
		return w.CompanyRating
	case Seniority:
		return w.Seniority
	case Benefits:
		return w.Benefits
	}
	return 0
}

func (w Weights) Sum() float64 {
	s := 0.0
	for _, c := range Criteria {
		s += w.Of(c)
	}
	return s
}

// Validate checks every weight is a fraction and that together they sum to
// 1.0 within WeightTolerance. It runs once at config load; scoring assumes
// valid weights.
func (w Weights) Validate() error {
	for _, c := range Criteria {
		v := w.Of(c)
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v", ErrWeightsRange, c, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w, got %.6f", ErrWeightsSum, sum)
	}
	return nil
}
