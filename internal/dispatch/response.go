package dispatch

// ActionKind is the single directive family a voice response carries.
type ActionKind string

const (
	ActionNone  ActionKind = "none"
	ActionPause ActionKind = "pause"
	ActionSay   ActionKind = "say"
)

// SilentPauseSeconds keeps the caller quiet long enough for AMD to analyze the callee.
const SilentPauseSeconds = 60

// Action is the provider-agnostic next step for a call.
// The telephony adapter renders it as TwiML.
type Action struct {
	Kind ActionKind `json:"kind"`

	// Say
	Text   string `json:"text,omitempty"`
	Voice  string `json:"voice,omitempty"`
	Hangup bool   `json:"hangup,omitempty"`

	// Pause
	PauseSeconds int `json:"pause_seconds,omitempty"`

	// Reason describes the choice for console output.
	Reason string `json:"reason,omitempty"`
}

// Empty returns an action with no directives.
func Empty() Action { return Action{Kind: ActionNone} }

// SilentPause pauses for SilentPauseSeconds without speaking.
func SilentPause() Action {
	return Action{Kind: ActionPause, PauseSeconds: SilentPauseSeconds, Reason: "Keeping caller silent for AMD detection"}
}

// Responder selects the spoken response for an AMD outcome.
type Responder struct {
	prompts Prompts
}

func NewResponder(p Prompts) *Responder {
	return &Responder{prompts: p.withDefaults()}
}

// Select picks one of four mutually exclusive actions. Matching ignores case;
// an empty outcome is treated as "unknown".
func (r *Responder) Select(answeredBy string) Action {
	if answeredBy == "" {
		answeredBy = "unknown"
	}
	a := Action{Kind: ActionSay, Voice: r.prompts.Voice}
	switch Interpret(answeredBy) {
	case AnswerMachine:
		a.Text = r.prompts.Machine
		a.Hangup = true
		a.Reason = "Playing message for answering machine"
	case AnswerHuman:
		a.Text = r.prompts.Human
		a.Reason = "Speaking to human"
	case AnswerFax:
		a.Text = r.prompts.Fax
		a.Hangup = true
		a.Reason = "Fax detected - hanging up"
	default:
		a.Text = r.prompts.Fallback
		a.Reason = "Unknown AMD result - playing generic message"
	}
	return a
}
