package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clinagen/clinagen/llm"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOK    bool
		wantClean string
	}{
		{
			name:      "well formed",
			input:     "THINKING: the patient is vague\nANSWER: I have a headache.",
			wantOK:    true,
			wantClean: "I have a headache.",
		},
		{
			name:      "preamble before markers is dropped",
			input:     "Sure, here you go:\nTHINKING: reasoning\nANSWER: reply",
			wantOK:    true,
			wantClean: "reply",
		},
		{
			name:      "multi line answer keeps line structure",
			input:     "THINKING: ranked\nANSWER:\n1. Diagnosis: Flu\nJustification: fever\n2. Diagnosis: Cold\nJustification: congestion",
			wantOK:    true,
			wantClean: "1. Diagnosis: Flu\nJustification: fever\n2. Diagnosis: Cold\nJustification: congestion",
		},
		{
			name:   "missing thinking",
			input:  "ANSWER: reply without reasoning",
			wantOK: false,
		},
		{
			name:   "missing answer",
			input:  "THINKING: reasoning that never concludes",
			wantOK: false,
		},
		{
			name:   "answer before thinking",
			input:  "ANSWER: premature\nTHINKING: late reasoning",
			wantOK: false,
		},
		{
			name:      "trailing second answer is cut",
			input:     "THINKING: reasoning\nANSWER: the reply\nANSWER: duplicate",
			wantOK:    true,
			wantClean: "the reply",
		},
		{
			name:      "empty answer gets placeholder",
			input:     "THINKING: reasoning\nANSWER:",
			wantOK:    true,
			wantClean: MissingAnswer,
		},
		{
			name:      "empty thinking gets placeholder",
			input:     "THINKING:\nANSWER: reply",
			wantOK:    true,
			wantClean: "reply",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, ok := Normalize(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !Validate(cleaned) {
				t.Errorf("normalized output failed validation: %q", cleaned)
			}
			if got := Answer(cleaned); got != tt.wantClean {
				t.Errorf("Answer() = %q, want %q", got, tt.wantClean)
			}
		})
	}
}

func TestNormalizeEmptyThinkingPlaceholder(t *testing.T) {
	cleaned, ok := Normalize("THINKING:\nANSWER: fine")
	if !ok {
		t.Fatal("expected ok")
	}
	if !strings.Contains(cleaned, MissingThinking) {
		t.Errorf("expected thinking placeholder in %q", cleaned)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"THINKING: a\nANSWER: b", true},
		{SentinelRaw, true},
		{"THINKING: a", false},
		{"ANSWER: b", false},
		{"THINKING: a\nANSWER: b\nANSWER: c", false},
		{"ANSWER: b\nTHINKING: a", false},
	}
	for _, tt := range tests {
		if got := Validate(tt.text); got != tt.want {
			t.Errorf("Validate(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestAskReturnsConformingResult(t *testing.T) {
	client := llm.NewScriptedClient("").Push("THINKING: sore throat reasoning\nANSWER: My throat hurts.")
	r := New(client, "You roleplay a patient.")

	res, err := r.Ask(context.Background(), "Doctor asks: what brings you in?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Sentinel {
		t.Fatal("unexpected sentinel")
	}
	if res.Clean != "My throat hurts." {
		t.Errorf("Clean = %q", res.Clean)
	}
	if !Validate(res.Raw) {
		t.Errorf("raw output failed validation: %q", res.Raw)
	}
}

func TestAskRetriesFormatViolations(t *testing.T) {
	client := llm.NewScriptedClient("").Push(
		"no markers at all",
		"still not conforming",
		"THINKING: third time\nANSWER: recovered",
	)
	r := New(client, "role")

	res, err := r.Ask(context.Background(), "payload")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Clean != "recovered" {
		t.Errorf("Clean = %q, want %q", res.Clean, "recovered")
	}
	if got := len(client.Calls()); got != 3 {
		t.Errorf("backend calls = %d, want 3", got)
	}
}

func TestAskSentinelAfterExhaustion(t *testing.T) {
	client := llm.NewScriptedClient("").Push("bad", "bad", "bad")
	r := New(client, "role")

	res, err := r.Ask(context.Background(), "payload")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !res.Sentinel {
		t.Fatal("expected sentinel result")
	}
	if res.Raw != SentinelRaw || res.Clean != SentinelAnswer {
		t.Errorf("sentinel record mismatch: raw=%q clean=%q", res.Raw, res.Clean)
	}
	if got := len(client.Calls()); got != 3 {
		t.Errorf("backend calls = %d, want 3", got)
	}
}

func TestAskPropagatesBackendErrors(t *testing.T) {
	boom := errors.New("backend down")
	client := llm.NewScriptedClient("").PushError(boom)
	r := New(client, "role")

	_, err := r.Ask(context.Background(), "payload")
	if !errors.Is(err, boom) {
		t.Fatalf("Ask() error = %v, want %v", err, boom)
	}
	if got := len(client.Calls()); got != 1 {
		t.Errorf("backend calls = %d, want 1 (no format retry on backend error)", got)
	}
}

func TestAskSendsFormatDirective(t *testing.T) {
	client := llm.NewScriptedClient("").Push("THINKING: t\nANSWER: a")
	r := New(client, "You are a diagnostician.")

	if _, err := r.Ask(context.Background(), "payload"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	calls := client.Calls()
	if len(calls) != 1 || len(calls[0]) != 2 {
		t.Fatalf("unexpected call shape: %v", calls)
	}
	system := calls[0][0].Content
	if !strings.Contains(system, "You are a diagnostician.") || !strings.Contains(system, "THINKING:") {
		t.Errorf("system message missing role or directive: %q", system)
	}
}
