package events

import (
	"time"

	"amd-webhook/internal/webhook"
)

// Event is an append-only record of one provider callback.
//
// Invariants:
// - Events are never updated or deleted.
// - Type and Endpoint are required.
// - Journaling is best-effort; a failed append never changes the TwiML response.
type Event struct {
	ID string `json:"id" db:"id"`

	// CallSID is empty for callbacks that carry no CallSid.
	CallSID string `json:"call_sid,omitempty" db:"call_sid"`

	Type     webhook.Type `json:"type" db:"type"`
	Endpoint string       `json:"endpoint" db:"endpoint"`
	Method   string       `json:"method" db:"method"`

	AnsweredBy string `json:"answered_by,omitempty" db:"answered_by"`
	CallStatus string `json:"call_status,omitempty" db:"call_status"`

	// DetectionMS is the raw MachineDetectionDuration, kept apart from Fields
	// because its label depends on the profile.
	DetectionMS string `json:"detection_ms,omitempty" db:"detection_ms"`

	// Fields is the normalized record (display label -> decoded value).
	Fields map[string]string `json:"fields" db:"fields"`

	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}

// Filter narrows List results. Zero Limit means DefaultListLimit.
// From is inclusive, To exclusive; zero values leave that side open.
type Filter struct {
	CallSID string
	From    time.Time
	To      time.Time
	Limit   int
}

func (f Filter) matches(e Event) bool {
	if f.CallSID != "" && e.CallSID != f.CallSID {
		return false
	}
	if !f.From.IsZero() && e.ReceivedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.ReceivedAt.Before(f.To) {
		return false
	}
	return true
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)
