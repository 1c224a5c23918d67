// Package profile describes the two server variants: the demo server that
// speaks to whoever answers, and the silent caller used for AMD testing.
package profile

import (
	"fmt"
	"strings"
)

type Name string

const (
	Demo   Name = "demo"
	Silent Name = "silent"
)

// Endpoint paths.
const (
	EndpointWebhook   = "/webhook"
	EndpointHandleAMD = "/handle_amd"
	EndpointSilent    = "/silent"
	EndpointStatus    = "/status"
)

// TestSetup explains the call topology in the silent profile.
type TestSetup struct {
	Caller     string `json:"caller"`
	Callee     string `json:"callee"`
	AMDPurpose string `json:"amd_purpose"`
}

// ReportStyle controls the console report layout.
type ReportStyle struct {
	Title         string
	Width         int
	RuleWidth     int
	DetailHeading string
	AMDBucket     string

	// Context lines are printed after the detailed data, when present.
	Context []string
}

type Profile struct {
	Name        Name
	ServerLabel string
	Purpose     string

	// UnitLabels selects "AMD Duration (ms)" style labels.
	UnitLabels bool

	Endpoints []string
	TestSetup *TestSetup
	Report    ReportStyle
}

var silentSetup = TestSetup{
	Caller:     "Twilio number with AMD enabled (stays silent)",
	Callee:     "Twilio number with Studio flow (simulates scenarios)",
	AMDPurpose: "Detect if Studio flow simulates human or machine",
}

var profiles = map[Name]Profile{
	Demo: {
		Name:        Demo,
		ServerLabel: "Twilio AMD Demo Server",
		Endpoints:   []string{EndpointWebhook, EndpointHandleAMD, EndpointStatus},
		Report: ReportStyle{
			Title:         "WEBHOOK RECEIVED",
			Width:         60,
			RuleWidth:     40,
			DetailHeading: "PARSED WEBHOOK DATA:",
			AMDBucket:     "AMD Information",
		},
	},
	Silent: {
		Name:        Silent,
		ServerLabel: "Twilio AMD Testing Server",
		Purpose:     "AMD testing with caller staying silent",
		UnitLabels:  true,
		Endpoints:   []string{EndpointWebhook, EndpointSilent, EndpointStatus},
		TestSetup:   &silentSetup,
		Report: ReportStyle{
			Title:         "AMD WEBHOOK RECEIVED",
			Width:         70,
			RuleWidth:     50,
			DetailHeading: "DETAILED WEBHOOK DATA:",
			AMDBucket:     "AMD Results",
			Context: []string{
				"Caller: " + silentSetup.Caller,
				"Callee: " + silentSetup.Callee,
				"AMD Purpose: " + silentSetup.AMDPurpose,
				"No Messages: Caller doesn't play messages - Studio handles everything",
			},
		},
	},
}

// Lookup resolves a profile by name (case-insensitive).
func Lookup(name string) (Profile, error) {
	p, ok := profiles[Name(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown profile %q (want demo or silent)", name)
	}
	return p, nil
}

// Serves reports whether the profile exposes endpoint.
func (p Profile) Serves(endpoint string) bool {
	for _, e := range p.Endpoints {
		if e == endpoint {
			return true
		}
	}
	return false
}
