// Package events carries engine notifications to SSE subscribers.
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeRunStarted     = "run_started"
	TypeRunFinished    = "run_finished"
	TypeListingAdded   = "listing_added"
	TypeApplication    = "application"
	TypeConfigReloaded = "config_reloaded"
)

// Version is bumped when an event payload changes shape.
const Version = 1

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent renders an event envelope. A payload that fails to marshal is
// dropped rather than failing the publish.
func MakeEvent(reqID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	e := Event{
		Type:      typ,
		Version:   Version,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
