package rank

import "jobapply-engine/internal/domain"

// Scorer is satisfied by *Engine.
type Scorer interface {
	Score(l domain.Listing) Result
}

// Result is the outcome of scoring one listing. Breakdown values are the
// weighted contributions on the same 0–10 scale as Total.
type Result struct {
	Total     float64               `json:"total"`
	Breakdown map[Criterion]float64 `json:"breakdown"`
	Passed    bool                  `json:"pass_threshold"`
	Tags      []string              `json:"tags,omitempty"`
}
