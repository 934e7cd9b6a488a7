package domain

import "time"

type ApplicationStatus string

const (
	StatusApplied ApplicationStatus = "applied"
	StatusDryRun  ApplicationStatus = "dry_run"
	StatusFailed  ApplicationStatus = "failed"
)

// Application is the record of one submission attempt for a listing.
type Application struct {
	ID          int64             `json:"id"`
	ListingID   string            `json:"listing_id"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Company     string            `json:"company"`
	Location    string            `json:"location"`
	Score       float64           `json:"score"`
	Resume      string            `json:"resume"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	Status      ApplicationStatus `json:"status"`
	Detail      string            `json:"detail,omitempty"`
	RunID       string            `json:"run_id,omitempty"`
	AppliedAt   time.Time         `json:"applied_at"`
}
