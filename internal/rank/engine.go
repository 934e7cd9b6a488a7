// Package rank scores job listings against user preferences.
package rank

import (
	"fmt"
	"math"

	"jobapply-engine/internal/domain"
)

// DefaultThreshold is the auto-apply cut-off when none is configured.
const DefaultThreshold = 8.5

const maxScore = 10.0

// Engine binds preferences, validated weights and the auto-apply threshold.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	prefs     domain.Preferences
	weights   Weights
	threshold float64
}

// NewEngine validates weights once so that Score never needs an error path.
func NewEngine(prefs domain.Preferences, w Weights, threshold float64) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > maxScore {
		return nil, fmt.Errorf("score threshold must be within 0..10, got %v", threshold)
	}
	return &Engine{prefs: prefs, weights: w, threshold: threshold}, nil
}

func (e *Engine) Score(l domain.Listing) Result {
	return Score(l, e.prefs, e.weights, e.threshold)
}

func (e *Engine) Threshold() float64 { return e.threshold }

func (e *Engine) Preferences() domain.Preferences { return e.prefs }

// Score is the pure scoring function. Weights are assumed valid; callers
// outside this package should go through NewEngine.
func Score(l domain.Listing, p domain.Preferences, w Weights, threshold float64) Result {
	subs := map[Criterion]float64{
		Keyword:       KeywordScore(l, p),
		Salary:        SalaryScore(l, p),
		Location:      LocationScore(l, p),
		CompanyRating: RatingScore(l),
		Seniority:     SeniorityScore(l, p),
		Benefits:      BenefitsScore(l, p),
	}

	breakdown := make(map[Criterion]float64, len(subs))
	total := 0.0
	for _, c := range Criteria {
		contrib := subs[c] * w.Of(c) * maxScore
		breakdown[c] = contrib
		total += contrib
	}

	total = math.Max(0, math.Min(maxScore, total))
	total = math.Round(total*100) / 100

	return Result{
		Total:     total,
		Breakdown: breakdown,
		Passed:    total >= threshold,
		Tags:      Tags(l, p),
	}
}
