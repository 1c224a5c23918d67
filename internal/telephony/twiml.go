package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"

	"amd-webhook/internal/dispatch"
)

// TwiML is a minimal Twilio Markup Language response builder.
// Only the verbs the AMD handlers emit are modeled: Say, Pause and Hangup.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// RenderTwiML maps a dispatch.Action to a TwiML document.
func RenderTwiML(a dispatch.Action) (string, error) {
	var r twimlResponse

	switch a.Kind {
	case dispatch.ActionNone:
	case dispatch.ActionPause:
		if a.PauseSeconds <= 0 {
			return "", errors.New("telephony: pause length must be > 0")
		}
		r.Verbs = append(r.Verbs, twimlPause{Length: a.PauseSeconds})
	case dispatch.ActionSay:
		if strings.TrimSpace(a.Text) == "" {
			return "", errors.New("telephony: say text required")
		}
		r.Verbs = append(r.Verbs, twimlSay{Voice: a.Voice, Text: a.Text})
		if a.Hangup {
			r.Verbs = append(r.Verbs, twimlHangup{})
		}
	default:
		return "", errors.New("telephony: unknown action")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
