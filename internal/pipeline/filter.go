package pipeline

import (
	"strings"

	"jobapply-engine/internal/domain"
)

const (
	FilterRedFlag         = "red_flag"
	FilterBlockedLocation = "blocked_location"
)

// Filters drop listings before they are scored or stored.
type Filters struct {
	RedFlags       []string
	LocationsBlock []string
}

// Keep returns false and the filter name when a listing is dropped. Red
// flags match anywhere in title or description; blocked locations match
// the location and title only, since descriptions often name office cities
// that say nothing about the role.
func (f Filters) Keep(l domain.Listing) (keep bool, reason string) {
	title := strings.ToLower(l.Title)
	desc := strings.ToLower(l.Description)
	loc := strings.ToLower(l.Location)

	for _, flag := range f.RedFlags {
		flag = strings.ToLower(strings.TrimSpace(flag))
		if flag == "" {
			continue
		}
		if strings.Contains(title, flag) || strings.Contains(desc, flag) {
			return false, FilterRedFlag
		}
	}

	// blocklist wins over preferred locations
	for _, b := range f.LocationsBlock {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" {
			continue
		}
		if strings.Contains(loc, b) || strings.Contains(title, b) {
			return false, FilterBlockedLocation
		}
	}
	return true, ""
}
