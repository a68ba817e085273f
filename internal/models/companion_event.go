package models

import "time"

// Companion journal event types.
const (
	EventTransition   = "TRANSITION"
	EventNarration    = "NARRATION"
	EventIntervention = "INTERVENTION"
	EventSessionSaved = "SESSION_SAVED"
	EventReset        = "RESET"
	EventError        = "ERROR"
)

// CompanionEvent is a single journal entry for one user's companion.
type CompanionEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // TRANSITION | NARRATION | INTERVENTION | SESSION_SAVED | RESET | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// IsCompanionEventType reports whether t is one of the journal event types.
func IsCompanionEventType(t string) bool {
	switch t {
	case EventTransition, EventNarration, EventIntervention, EventSessionSaved, EventReset, EventError:
		return true
	}
	return false
}
