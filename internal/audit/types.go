// Package audit implements the append-only action log of §4.8: every
// significant reconciliation, rollback, or settlement action is recorded
// as an Event, rotated to one file per calendar day, sealed with a
// timestamp suffix once a day's file exceeds its configured entry cap.
package audit

import (
	"time"

	"upi-recon-engine/pkg/logger"
)

// Event is one append-only audit record.
type Event struct {
	AuditID      string                 `json:"audit_id"`
	Action       string                 `json:"action"`
	RunID        string                 `json:"run_id"`
	UserID       string                 `json:"user_id"`
	Level        logger.Level           `json:"level"`
	Timestamp    time.Time              `json:"timestamp"`
	Details      map[string]interface{} `json:"details,omitempty"`
	SourceSystem string                 `json:"source_system"`
	Resolved     bool                   `json:"resolved"`
}

// dayLog is the persisted shape of one audit_trail_YYYYMMDD[_HHMMSS].json file.
type dayLog struct {
	Entries []*Event `json:"entries"`
}

// Filter scopes a Query call. Zero-value fields are unbounded.
type Filter struct {
	RunID  string
	UserID string
	Action string
	From   time.Time
	To     time.Time
}

func (f Filter) matches(e *Event) bool {
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}
