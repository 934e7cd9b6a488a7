package apply

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobapply-engine/internal/rank"
)

func TestPredicates(t *testing.T) {
	assert.True(t, MeetsThreshold(8.5, 8.5))
	assert.False(t, MeetsThreshold(8.49, 8.5))
	assert.True(t, UnderDailyLimit(9, 10))
	assert.False(t, UnderDailyLimit(10, 10))
	assert.True(t, NotYetApplied(false))
	assert.False(t, NotYetApplied(true))
	assert.True(t, LiveMode(false))
	assert.False(t, LiveMode(true))
}

func TestGateDecide(t *testing.T) {
	g := Gate{Threshold: 8.5, MaxPerDay: 10}
	pass := rank.Result{Total: 9.2}

	cases := []struct {
		name    string
		in      GateInput
		apply   bool
		reasons []Reason
	}{
		{"all hold", GateInput{Result: pass, AppliedToday: 3}, true, nil},
		{"below threshold", GateInput{Result: rank.Result{Total: 7}}, false, []Reason{ReasonBelowThreshold}},
		{"limit reached", GateInput{Result: pass, AppliedToday: 10}, false, []Reason{ReasonDailyLimit}},
		{"already applied", GateInput{Result: pass, AlreadyApplied: true}, false, []Reason{ReasonAlreadyApplied}},
		{"dry run", GateInput{Result: pass, DryRun: true}, false, []Reason{ReasonDryRun}},
		{
			"everything fails",
			GateInput{Result: rank.Result{Total: 1}, AppliedToday: 12, AlreadyApplied: true, DryRun: true},
			false,
			[]Reason{ReasonBelowThreshold, ReasonDailyLimit, ReasonAlreadyApplied, ReasonDryRun},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := g.Decide(c.in)
			assert.Equal(t, c.apply, d.ShouldApply)
			assert.Equal(t, c.reasons, d.Reasons)
		})
	}
}

func TestDryRunForcesFalse(t *testing.T) {
	g := Gate{Threshold: 0, MaxPerDay: 1000}
	for _, total := range []float64{0, 5, 8.5, 10} {
		d := g.Decide(GateInput{Result: rank.Result{Total: total}, DryRun: true})
		assert.False(t, d.ShouldApply, "total %v", total)
		assert.True(t, d.OnlyDryRun())
	}
}

func TestZeroDailyLimitNeverApplies(t *testing.T) {
	d := Gate{Threshold: 0, MaxPerDay: 0}.Decide(GateInput{Result: rank.Result{Total: 10}})
	assert.False(t, d.ShouldApply)
	assert.True(t, d.Has(ReasonDailyLimit))
}
