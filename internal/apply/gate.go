// Package apply decides which scored listings to apply to and drives the
// submission collaborator for them.
package apply

import "jobapply-engine/internal/rank"

// Reason names a gate predicate that failed.
type Reason string

const (
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonDailyLimit     Reason = "daily_limit_reached"
	ReasonAlreadyApplied Reason = "already_applied"
	ReasonDryRun         Reason = "dry_run"
)

// Gate holds the configured thresholds. The per-listing facts arrive in
// GateInput.
type Gate struct {
	Threshold float64
	MaxPerDay int
}

type GateInput struct {
	Result         rank.Result
	AppliedToday   int
	AlreadyApplied bool
	DryRun         bool
}

type Decision struct {
	ShouldApply bool     `json:"should_apply"`
	Reasons     []Reason `json:"reasons,omitempty"`
}

func MeetsThreshold(total, threshold float64) bool { return total >= threshold }

func UnderDailyLimit(appliedToday, maxPerDay int) bool { return appliedToday < maxPerDay }

func NotYetApplied(alreadyApplied bool) bool { return !alreadyApplied }

func LiveMode(dryRun bool) bool { return !dryRun }

// Decide applies all four predicates. Every failing one is listed, in a
// fixed order, so callers can tell "would apply but dry run" apart from a
// real rejection.
func (g Gate) Decide(in GateInput) Decision {
	var reasons []Reason
	if !MeetsThreshold(in.Result.Total, g.Threshold) {
		reasons = append(reasons, ReasonBelowThreshold)
	}
	if !UnderDailyLimit(in.AppliedToday, g.MaxPerDay) {
		reasons = append(reasons, ReasonDailyLimit)
	}
	if !NotYetApplied(in.AlreadyApplied) {
		reasons = append(reasons, ReasonAlreadyApplied)
	}
	if !LiveMode(in.DryRun) {
		reasons = append(reasons, ReasonDryRun)
	}
	return Decision{ShouldApply: len(reasons) == 0, Reasons: reasons}
}

// OnlyDryRun is true when dry run is the sole thing blocking the listing.
func (d Decision) OnlyDryRun() bool {
	return len(d.Reasons) == 1 && d.Reasons[0] == ReasonDryRun
}

func (d Decision) Has(r Reason) bool {
	for _, x := range d.Reasons {
		if x == r {
			return true
		}
	}
	return false
}
