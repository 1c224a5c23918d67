package main

import (
	"fmt"
	"io"
	"strings"

	"amd-webhook/internal/profile"
)

var endpointSummaries = map[string]string{
	profile.EndpointWebhook:   "AMD and status callbacks, GET/POST",
	profile.EndpointHandleAMD: "TwiML for the detected answerer, GET/POST",
	profile.EndpointSilent:    "keeps the caller silent, GET/POST",
	profile.EndpointStatus:    "server info, GET",
}

// printBanner writes the startup summary for operators watching the console.
func printBanner(w io.Writer, p profile.Profile, addr, publicBaseURL string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Starting %s...\n", p.ServerLabel)
	fmt.Fprintf(&b, "Listening on %s\n", addr)
	if p.Purpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", p.Purpose)
	}
	if p.TestSetup != nil {
		b.WriteString("\nTest Setup:\n")
		fmt.Fprintf(&b, "   Caller: %s\n", p.TestSetup.Caller)
		fmt.Fprintf(&b, "   Callee: %s\n", p.TestSetup.Callee)
		fmt.Fprintf(&b, "   AMD Purpose: %s\n", p.TestSetup.AMDPurpose)
	}
	if publicBaseURL != "" {
		fmt.Fprintf(&b, "Public URL: %s\n", publicBaseURL)
	}
	b.WriteString("\nEndpoints:\n")
	for _, ep := range p.Endpoints {
		fmt.Fprintf(&b, "   - %s%s (%s)\n", publicBaseURL, ep, endpointSummaries[ep])
	}
	b.WriteString(strings.Repeat("=", 60) + "\n")
	_, _ = io.WriteString(w, b.String())
}
