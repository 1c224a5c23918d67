package dispatch

import (
	"fmt"
	"strings"
)

// Answer is the interpreted AMD outcome.
type Answer int

const (
	AnswerUnrecognized Answer = iota
	AnswerHuman
	AnswerMachine
	AnswerFax
	AnswerUnknown
)

var machineOutcomes = map[string]struct{}{
	"machine_start":       {},
	"machine_end_beep":    {},
	"machine_end_silence": {},
	"machine_end_other":   {},
	"machine":             {},
}

// Interpret maps a raw AnsweredBy value to an Answer, ignoring case.
func Interpret(raw string) Answer {
	v := strings.ToLower(raw)
	if _, ok := machineOutcomes[v]; ok {
		return AnswerMachine
	}
	switch v {
	case "human":
		return AnswerHuman
	case "fax":
		return AnswerFax
	case "unknown":
		return AnswerUnknown
	default:
		return AnswerUnrecognized
	}
}

func (a Answer) String() string {
	switch a {
	case AnswerHuman:
		return "human"
	case AnswerMachine:
		return "machine"
	case AnswerFax:
		return "fax"
	case AnswerUnknown:
		return "unknown"
	default:
		return "unrecognized"
	}
}

// Describe returns the console interpretation line. raw is echoed for unrecognized values.
func (a Answer) Describe(raw string) string {
	switch a {
	case AnswerHuman:
		return "Human detected - real person answered"
	case AnswerMachine:
		return "Machine detected - answering machine/voicemail"
	case AnswerFax:
		return "Fax machine detected"
	case AnswerUnknown:
		return "Unknown - could not determine human vs machine"
	default:
		return fmt.Sprintf("Unrecognized AMD result: %s", strings.ToLower(raw))
	}
}
