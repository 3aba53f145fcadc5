// Package responder enforces the THINKING/ANSWER output contract over a
// stochastic backend.
//
// Every agent call in the generator goes through a Responder: the role
// instruction is extended with a non-negotiable format directive, the
// completion is normalized into exactly one THINKING section followed by
// exactly one ANSWER section, and malformed completions are retried a
// bounded number of times. When retries are exhausted the Responder
// returns a documented sentinel record instead of an error, so a single
// misbehaving completion never aborts a vignette.
package responder

import (
	"context"
	"strings"

	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/llm"
)

// formatDirective is appended to every role instruction.
const formatDirective = `

CRITICAL FORMAT REQUIREMENT: You MUST always respond in this format:

THINKING: [your reasoning]
ANSWER: [your actual response]

Start every response with "THINKING:" - this is non-negotiable.`

// Placeholders used when a marker is present but its section is empty.
const (
	MissingThinking = "Unable to extract thinking content properly"
	MissingAnswer   = "Unable to extract answer content properly"
)

// Sentinel pieces returned after retry exhaustion. Callers detect the
// sentinel via Result.Sentinel and substitute deterministic placeholders
// where the turn must continue.
const (
	SentinelThinking = "Format enforcement failed after 3 attempts"
	SentinelAnswer   = "Unable to get properly formatted response."
	SentinelRaw      = "THINKING: " + SentinelThinking + "\nANSWER: " + SentinelAnswer
)

// maxAttempts bounds format-level retries, including the first attempt.
const maxAttempts = 3

// Result is the outcome of one role invocation.
type Result struct {
	// Raw is the full annotated text: "THINKING: <t>\nANSWER: <a>".
	Raw string

	// Clean is the answer-only text.
	Clean string

	// Sentinel is true when format enforcement failed on every attempt
	// and Raw/Clean hold the documented fallback record.
	Sentinel bool
}

// Responder wraps a backend client with a fixed role instruction and the
// format contract.
type Responder struct {
	client      llm.Client
	instruction string
	opts        []llm.CallOption
}

// New creates a Responder for the given role instruction. Call options
// are forwarded to every backend call.
func New(client llm.Client, roleInstruction string, opts ...llm.CallOption) *Responder {
	return &Responder{
		client:      client,
		instruction: roleInstruction + formatDirective,
		opts:        opts,
	}
}

// Ask sends the user payload under the role instruction and returns a
// contract-conforming result. Backend errors propagate; format violations
// are retried and finally collapsed into the sentinel record.
func (r *Responder) Ask(ctx context.Context, userInput string) (Result, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		messages := []clinagen.Message{
			clinagen.NewMessage(clinagen.RoleSystem, r.instruction),
			clinagen.NewMessage(clinagen.RoleUser, userInput),
		}

		response, err := r.client.Complete(ctx, messages, r.opts...)
		if err != nil {
			return Result{}, err
		}

		cleaned, ok := Normalize(response)
		if ok && Validate(cleaned) {
			return Result{Raw: cleaned, Clean: Answer(cleaned)}, nil
		}
	}

	return Result{Raw: SentinelRaw, Clean: SentinelAnswer, Sentinel: true}, nil
}

// Normalize rewrites text into exactly one THINKING section followed by
// exactly one ANSWER section. The first THINKING marker opens the
// thinking section; the first ANSWER marker strictly after it opens the
// answer, which ends at any subsequent marker. ok is false when either
// marker is absent, which retries the call. A marker that is present with
// empty content is recoverable and yields the documented placeholder.
func Normalize(text string) (cleaned string, ok bool) {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	var thinking, answer []string
	thinkingSeen := false
	answerSeen := false

collect:
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(stripped, "THINKING:"):
			if !thinkingSeen {
				thinkingSeen = true
				thinking = append(thinking, strings.TrimSpace(strings.TrimPrefix(stripped, "THINKING:")))
			} else if answerSeen {
				break collect
			}
			// A repeated THINKING before the answer is dropped.
		case strings.HasPrefix(stripped, "ANSWER:"):
			if !thinkingSeen {
				// ANSWER before any THINKING cannot anchor the contract.
				continue
			}
			if answerSeen {
				break collect
			}
			answerSeen = true
			answer = append(answer, strings.TrimSpace(strings.TrimPrefix(stripped, "ANSWER:")))
		case answerSeen:
			answer = append(answer, stripped)
		case thinkingSeen:
			thinking = append(thinking, stripped)
		}
	}

	if !thinkingSeen || !answerSeen {
		return "", false
	}

	t := strings.TrimSpace(strings.Join(thinking, "\n"))
	a := strings.TrimSpace(strings.Join(answer, "\n"))
	if t == "" {
		t = MissingThinking
	}
	if a == "" {
		a = MissingAnswer
	}
	return "THINKING: " + t + "\nANSWER: " + a, true
}

// Validate reports whether text contains exactly one THINKING marker and
// exactly one ANSWER marker, with THINKING first. Both the normalized
// records and the documented sentinel satisfy it.
func Validate(text string) bool {
	thinkingCount := 0
	answerCount := 0
	thinkingFirst := false

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "THINKING:") {
			thinkingCount++
			if answerCount == 0 {
				thinkingFirst = true
			}
		} else if strings.HasPrefix(stripped, "ANSWER:") {
			answerCount++
		}
	}

	return thinkingCount == 1 && answerCount == 1 && thinkingFirst
}

// Answer extracts the answer-only text from a normalized record.
func Answer(raw string) string {
	if i := strings.Index(raw, "ANSWER:"); i >= 0 {
		return strings.TrimSpace(raw[i+len("ANSWER:"):])
	}
	return strings.TrimSpace(raw)
}
