// Package clinagen provides the core types shared across the synthetic
// dialogue generator: chat messages, vignette seeds, and the growing
// doctor-patient conversation.
package clinagen

import "strings"

// Message is a single chat message sent to or received from the backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles accepted by the backend adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// NewMessage creates a message with the given role and content.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerDoctor  Speaker = "DOCTOR"
	SpeakerPatient Speaker = "PATIENT"
)

// Turn is one utterance in a doctor-patient conversation. Turns are
// append-only; Index increases by two per doctor+patient cycle.
type Turn struct {
	Speaker   Speaker `json:"speaker"`
	Utterance string  `json:"utterance"`
	Index     int     `json:"turn_index"`
}

// VignetteSeed is one immutable dialogue seed: a disease label plus the
// roleplay script a simulated patient acts from.
type VignetteSeed struct {
	Disease       string `json:"disease"`
	Script        string `json:"roleplay_script"`
	VariationType string `json:"variation_type"`
}

// Conversation is the ordered transcript of a single vignette run.
type Conversation struct {
	turns []Turn
}

// Append adds an utterance for the given speaker at the given turn index.
func (c *Conversation) Append(speaker Speaker, utterance string, index int) {
	c.turns = append(c.turns, Turn{Speaker: speaker, Utterance: utterance, Index: index})
}

// Turns returns a copy of the transcript so far.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of utterances recorded.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Transcript renders the conversation as "SPEAKER: utterance" lines, the
// form the agent prompts consume.
func (c *Conversation) Transcript() string {
	lines := make([]string, 0, len(c.turns))
	for _, t := range c.turns {
		lines = append(lines, string(t.Speaker)+": "+t.Utterance)
	}
	return strings.Join(lines, "\n")
}

// Tail renders the last n utterances in transcript form. The agent prompts
// that analyze recent behavior only look at a short window.
func (c *Conversation) Tail(n int) string {
	start := len(c.turns) - n
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, n)
	for _, t := range c.turns[start:] {
		lines = append(lines, string(t.Speaker)+": "+t.Utterance)
	}
	return strings.Join(lines, "\n")
}

// DoctorQuestions returns up to the last n doctor utterances, oldest first.
func (c *Conversation) DoctorQuestions(n int) []string {
	var all []string
	for _, t := range c.turns {
		if t.Speaker == SpeakerDoctor {
			all = append(all, t.Utterance)
		}
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// PatientUtterances returns up to the last n patient utterances, oldest
// first.
func (c *Conversation) PatientUtterances(n int) []string {
	var all []string
	for _, t := range c.turns {
		if t.Speaker == SpeakerPatient {
			all = append(all, t.Utterance)
		}
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}
