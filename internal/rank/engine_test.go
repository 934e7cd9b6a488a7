package rank

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobapply-engine/internal/domain"
)

func examplePrefs() domain.Preferences {
	return domain.Preferences{
		RequiredSkills:     []string{"Go", "Kubernetes"},
		MinSalary:          100000,
		TargetSalary:       120000,
		PreferredLocations: []string{"Austin", "Remote"},
		ExperienceLevel:    domain.SenioritySenior,
		DesiredBenefits:    []string{"health", "dental", "401k"},
	}
}

func exampleListing() domain.Listing {
	return domain.Listing{
		ID:          "l-1",
		Title:       "Senior Go Engineer",
		Description: "Own our Kubernetes platform.",
		SalaryMin:   domain.Float(125000),
		Location:    "Austin, TX",
		Rating:      domain.Float(4.5),
		Seniority:   domain.SenioritySenior,
		Benefits:    []string{"Health Insurance", "Dental", "401k"},
	}
}

func TestScore_WorkedExample(t *testing.T) {
	e, err := NewEngine(examplePrefs(), DefaultWeights(), DefaultThreshold)
	require.NoError(t, err)

	res := e.Score(exampleListing())

	// Every criterion is at full credit except rating, 4.5/5 = 0.9.
	assert.InDelta(t, 9.85, res.Total, 1e-9)
	assert.True(t, res.Passed)
	assert.InDelta(t, 2.5, res.Breakdown[Keyword], 1e-9)
	assert.InDelta(t, 2.0, res.Breakdown[Salary], 1e-9)
	assert.InDelta(t, 1.35, res.Breakdown[CompanyRating], 1e-9)

	perfect := exampleListing()
	perfect.Rating = domain.Float(5)
	assert.InDelta(t, 10.0, e.Score(perfect).Total, 1e-9)
}

func TestScore_BreakdownSumsToTotal(t *testing.T) {
	res := Score(exampleListing(), examplePrefs(), DefaultWeights(), DefaultThreshold)
	sum := 0.0
	for _, c := range Criteria {
		sum += res.Breakdown[c]
	}
	assert.InDelta(t, res.Total, sum, 0.01)
	assert.Len(t, res.Breakdown, len(Criteria))
}

func TestScore_AbsentSalaryContributesNothing(t *testing.T) {
	l := exampleListing()
	l.SalaryMin, l.SalaryMax = nil, nil

	res := Score(l, examplePrefs(), DefaultWeights(), DefaultThreshold)
	assert.Equal(t, 0.0, res.Breakdown[Salary])
	assert.InDelta(t, 7.85, res.Total, 1e-9)
}

func TestScore_RatingMonotonic(t *testing.T) {
	hi := exampleListing()
	hi.Rating = domain.Float(5)
	lo := exampleListing()
	lo.Rating = domain.Float(0)

	w := DefaultWeights()
	require.Greater(t, w.CompanyRating, 0.0)
	assert.GreaterOrEqual(t,
		Score(hi, examplePrefs(), w, DefaultThreshold).Total,
		Score(lo, examplePrefs(), w, DefaultThreshold).Total)
}

func TestScore_ThresholdBoundary(t *testing.T) {
	res := Score(exampleListing(), examplePrefs(), DefaultWeights(), 9.85)
	assert.True(t, res.Passed, "total equal to threshold passes")

	res = Score(exampleListing(), examplePrefs(), DefaultWeights(), 9.86)
	assert.False(t, res.Passed)
}

func TestScore_TotalAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	levels := []domain.Seniority{
		domain.SeniorityUnknown, domain.SeniorityJunior, domain.SeniorityMid,
		domain.SenioritySenior, domain.SeniorityLead,
	}
	words := []string{"go", "rust", "remote", "austin", "kubernetes", "dental", ""}
	pick := func() string { return words[rng.Intn(len(words))] }

	for i := 0; i < 500; i++ {
		raw := make([]float64, len(Criteria))
		sum := 0.0
		for j := range raw {
			raw[j] = rng.Float64()
			sum += raw[j]
		}
		w := Weights{
			Keyword: raw[0] / sum, Salary: raw[1] / sum, Location: raw[2] / sum,
			CompanyRating: raw[3] / sum, Seniority: raw[4] / sum, Benefits: raw[5] / sum,
		}
		require.NoError(t, w.Validate())

		l := domain.Listing{
			Title:       pick(),
			Description: pick() + " " + pick(),
			Location:    pick(),
			Seniority:   levels[rng.Intn(len(levels))],
			Benefits:    []string{pick()},
		}
		if rng.Intn(2) == 0 {
			l.SalaryMin = domain.Float(rng.Float64()*400000 - 50000)
		}
		if rng.Intn(2) == 0 {
			l.Rating = domain.Float(rng.Float64()*10 - 2)
		}
		p := domain.Preferences{
			RequiredSkills:     []string{pick(), pick()},
			NiceToHaveSkills:   []string{pick()},
			MinSalary:          rng.Float64() * 100000,
			TargetSalary:       rng.Float64() * 200000,
			PreferredLocations: []string{pick(), pick()},
			ExperienceLevel:    levels[rng.Intn(len(levels))],
			DesiredBenefits:    []string{pick()},
		}

		res := Score(l, p, w, DefaultThreshold)
		assert.GreaterOrEqual(t, res.Total, 0.0)
		assert.LessOrEqual(t, res.Total, 10.0)
	}
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	w := DefaultWeights()
	w.Benefits = 0.09
	_, err := NewEngine(examplePrefs(), w, DefaultThreshold)
	assert.ErrorIs(t, err, ErrWeightsSum)

	_, err = NewEngine(examplePrefs(), DefaultWeights(), 11)
	assert.Error(t, err)
}

func TestTags(t *testing.T) {
	l := exampleListing()
	l.Location = "Remote (US)"
	p := examplePrefs()
	p.NiceToHaveSkills = []string{"go", "Terraform"}

	tags := Tags(l, p)
	assert.Equal(t, []string{"Go", "Kubernetes", "Remote", "senior"}, tags)
}
