package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AMDSummaryRequest requests AMD outcome metrics over journaled webhooks.
type AMDSummaryRequest struct {
	Range TimeRange `json:"range"`
}

// AMDSummary aggregates detection outcomes per call.
//
// Each call counts once, with its most recent AMD outcome. Rates are over
// calls that reported an outcome.
type AMDSummary struct {
	Range TimeRange `json:"range"`

	Events int `json:"events"`
	Calls  int `json:"calls"`

	// Outcomes is keyed by human, machine, fax, unknown, unrecognized.
	Outcomes    map[string]int `json:"outcomes"`
	HumanRate   float64        `json:"human_rate"`
	MachineRate float64        `json:"machine_rate"`

	// Detection timing in milliseconds, over calls with a numeric duration.
	TimedCalls         int     `json:"timed_calls"`
	AverageDetectionMS float64 `json:"average_detection_ms"`
	MinDetectionMS     float64 `json:"min_detection_ms"`
	MaxDetectionMS     float64 `json:"max_detection_ms"`

	// FinalStatuses counts each call's most recent CallStatus.
	FinalStatuses map[string]int `json:"final_statuses"`

	// Truncated is set when the journal returned its page limit, so older
	// events in the range were not considered.
	Truncated bool `json:"truncated"`
}
