package calls

import (
	"context"
	"errors"
	"time"

	"amd-webhook/internal/webhook"
)

// State is the latest known view of one call, folded from its callbacks.
//
// NOTE: Twilio does not guarantee callback ordering. Merge keeps the newest
// non-empty value for each field, so a late status callback never blanks an AMD
// result that arrived earlier.
type State struct {
	CallSID    string `json:"call_sid"`
	CallStatus string `json:"call_status,omitempty"`
	AnsweredBy string `json:"answered_by,omitempty"`

	// AMDDurationMS is the raw MachineDetectionDuration value.
	AMDDurationMS string `json:"amd_duration_ms,omitempty"`

	RecordingURL string       `json:"recording_url,omitempty"`
	LastType     webhook.Type `json:"last_type"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// StateFromParams builds a partial state from one callback. ok is false when
// the callback carries no CallSid.
func StateFromParams(p webhook.Params, typ webhook.Type, at time.Time) (State, bool) {
	sid := webhook.Decode(p.Get(webhook.FieldCallSid))
	if sid == "" {
		return State{}, false
	}
	s := State{
		CallSID:       sid,
		CallStatus:    webhook.Decode(p.Get(webhook.FieldCallStatus)),
		AMDDurationMS: webhook.Decode(p.Get(webhook.FieldMachineDetectionDuration)),
		RecordingURL:  webhook.Decode(p.Get(webhook.FieldRecordingURL)),
		LastType:      typ,
		UpdatedAt:     at.UTC(),
	}
	if p.Has(webhook.FieldAnsweredBy) || p.Has(webhook.FieldAnsweringMachineDetection) {
		s.AnsweredBy = webhook.Decode(p.AnsweredBy())
	}
	return s, true
}

// Merge overlays the non-empty fields of next onto s.
func (s State) Merge(next State) State {
	out := s
	if out.CallSID == "" {
		out.CallSID = next.CallSID
	}
	if next.CallStatus != "" {
		out.CallStatus = next.CallStatus
	}
	if next.AnsweredBy != "" {
		out.AnsweredBy = next.AnsweredBy
	}
	if next.AMDDurationMS != "" {
		out.AMDDurationMS = next.AMDDurationMS
	}
	if next.RecordingURL != "" {
		out.RecordingURL = next.RecordingURL
	}
	if next.LastType != "" {
		out.LastType = next.LastType
	}
	if next.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = next.UpdatedAt
	}
	return out
}

// Store persists call state. Put merges into any existing state.
type Store interface {
	Put(ctx context.Context, s State) error
	Get(ctx context.Context, callSID string) (State, error)
}

var ErrNotFound = errors.New("calls: call not found")
