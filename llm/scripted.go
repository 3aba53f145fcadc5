package llm

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/clinagen/clinagen/clinagen"
)

// ErrScriptExhausted is returned when a ScriptedClient runs out of
// recorded completions.
var ErrScriptExhausted = errors.New("scripted client: no completion recorded for call")

// ScriptRule routes a completion request to a canned response when Match
// appears in any message of the request. Rules take precedence over the
// ordered response queue.
type ScriptRule struct {
	// Match is a substring looked for across all message contents.
	Match string

	// Respond produces the completion for a matched request.
	Respond func(messages []clinagen.Message) string
}

// ScriptedClient replays recorded completions. It backs the test fixtures
// and makes selector output reproducible against a frozen set of backend
// responses.
//
// Resolution order per call: queued errors, then the first matching rule,
// then the ordered response queue.
type ScriptedClient struct {
	model string

	mu        sync.Mutex
	rules     []ScriptRule
	responses []string
	errs      []error
	calls     [][]clinagen.Message
}

// NewScriptedClient creates a scripted client for the given model label.
func NewScriptedClient(model string) *ScriptedClient {
	if model == "" {
		model = "scripted"
	}
	return &ScriptedClient{model: model}
}

// Model returns the model label.
func (s *ScriptedClient) Model() string {
	return s.model
}

// Push appends responses to the ordered queue.
func (s *ScriptedClient) Push(responses ...string) *ScriptedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, responses...)
	return s
}

// PushError makes the next call fail with err before any rule or queued
// response is consulted.
func (s *ScriptedClient) PushError(err error) *ScriptedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
	return s
}

// Rule registers a routing rule.
func (s *ScriptedClient) Rule(match string, respond func(messages []clinagen.Message) string) *ScriptedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, ScriptRule{Match: match, Respond: respond})
	return s
}

// RuleText registers a routing rule with a fixed response.
func (s *ScriptedClient) RuleText(match, response string) *ScriptedClient {
	return s.Rule(match, func([]clinagen.Message) string { return response })
}

// Calls returns every request seen so far.
func (s *ScriptedClient) Calls() [][]clinagen.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]clinagen.Message, len(s.calls))
	copy(out, s.calls)
	return out
}

// Complete replays the scripted response for this call.
func (s *ScriptedClient) Complete(ctx context.Context, messages []clinagen.Message, opts ...CallOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := make([]clinagen.Message, len(messages))
	copy(recorded, messages)
	s.calls = append(s.calls, recorded)

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}

	for _, rule := range s.rules {
		for _, msg := range messages {
			if strings.Contains(msg.Content, rule.Match) {
				return rule.Respond(messages), nil
			}
		}
	}

	if len(s.responses) > 0 {
		resp := s.responses[0]
		s.responses = s.responses[1:]
		return resp, nil
	}

	return "", ErrScriptExhausted
}
