package dispatch

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompts holds the scripted messages spoken on /handle_amd.
type Prompts struct {
	Voice    string `yaml:"voice"`
	Machine  string `yaml:"machine"`
	Human    string `yaml:"human"`
	Fax      string `yaml:"fax"`
	Fallback string `yaml:"fallback"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		Voice:    "alice",
		Machine:  "This is a message for your answering machine. Have a great day!",
		Human:    "Hello! A human answered. This is a test call from Twilio's AMD demo.",
		Fax:      "Fax machine detected. Hanging up.",
		Fallback: "Could not determine if human or machine answered. This is a test call.",
	}
}

// LoadPrompts reads YAML overrides from path. Keys left out keep their defaults.
// An empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPrompts(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, fmt.Errorf("dispatch: read prompts: %w", err)
	}
	return ParsePrompts(b)
}

// ParsePrompts decodes YAML overrides on top of DefaultPrompts.
func ParsePrompts(b []byte) (Prompts, error) {
	p := DefaultPrompts()
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Prompts{}, fmt.Errorf("dispatch: parse prompts: %w", err)
	}
	return p.withDefaults(), nil
}

func (p Prompts) withDefaults() Prompts {
	d := DefaultPrompts()
	if strings.TrimSpace(p.Voice) == "" {
		p.Voice = d.Voice
	}
	if strings.TrimSpace(p.Machine) == "" {
		p.Machine = d.Machine
	}
	if strings.TrimSpace(p.Human) == "" {
		p.Human = d.Human
	}
	if strings.TrimSpace(p.Fax) == "" {
		p.Fax = d.Fax
	}
	if strings.TrimSpace(p.Fallback) == "" {
		p.Fallback = d.Fallback
	}
	return p
}
