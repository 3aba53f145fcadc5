package dialogue

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/clinagen/clinagen/behavior"
	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/llm"
	"github.com/clinagen/clinagen/responder"
)

var coldSeed = clinagen.VignetteSeed{
	Disease:       "Common cold",
	Script:        "I am 25, biological male, with a runny nose for three days.",
	VariationType: "typical",
}

// fixture wires scripted responses for every agent. Rules key off
// phrases unique to each agent payload. Diagnoser and summarizer
// responses are overridable per test.
type fixture struct {
	client *llm.ScriptedClient
}

func newFixture() *fixture {
	f := &fixture{client: llm.NewScriptedClient("fixture")}
	f.client.RuleText("Patient background:",
		"THINKING: opening reply\nANSWER: I am 25, a biological male, and I've had a runny nose for three days.")
	f.client.RuleText("CONTEXT FOR YOUR RESPONSE:",
		"THINKING: follow-up reply\nANSWER: It's about the same, honestly.")
	f.client.RuleText("RECENT PATIENT RESPONSES:",
		"THINKING: cue analysis\nANSWER: EMPATHY_NEEDS: gentle probing")
	f.client.RuleText("DETECTED PATIENT BEHAVIOR:",
		"THINKING: interpretation\nANSWER: Patient likely downplays symptom severity.")
	f.client.RuleText("CURRENT CLINICAL PICTURE:",
		"THINKING: question planning\nANSWER: How long have the symptoms been going on?")
	f.client.RuleText("comprehensive treatment plan",
		"THINKING: plan reasoning\nANSWER: Rest, fluids, and follow up in one week.")
	return f
}

func (f *fixture) withSummaries() *fixture {
	f.client.RuleText("unbiased clinical vignette",
		"THINKING: summary reasoning\nANSWER: 25-year-old male with three days of rhinorrhea.")
	return f
}

func (f *fixture) withDiagnosis(answer string) *fixture {
	f.client.Rule("Previously asked questions:", func(msgs []clinagen.Message) string {
		return "THINKING: differential reasoning\nANSWER: " + answer
	})
	return f
}

func pinned(t behavior.Type) *behavior.Profile {
	profile, ok := behavior.Lookup(t)
	if !ok {
		panic("unknown behavior type " + string(t))
	}
	return &profile
}

func newOrchestrator(t *testing.T, client llm.Client, cfg Config) *Orchestrator {
	t.Helper()
	if cfg.Behavior == nil {
		cfg.Behavior = pinned(behavior.StoicMinimizer)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(1))
	}
	o, err := New(client, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestLetterFor(t *testing.T) {
	tests := []struct {
		turn int
		want string
	}{
		{0, "E"}, {2, "E"}, {3, "E"},
		{4, "M"}, {6, "M"}, {7, "M"},
		{8, "L"}, {10, "L"}, {20, "L"},
	}
	for _, tt := range tests {
		if got := LetterFor(tt.turn); got != tt.want {
			t.Errorf("LetterFor(%d) = %q, want %q", tt.turn, got, tt.want)
		}
	}
}

func TestMinimalHappyPath(t *testing.T) {
	f := newFixture().withSummaries().withDiagnosis("1. Diagnosis: Common cold\nJustification: classic rhinorrhea")
	o := newOrchestrator(t, f.client, Config{MaxTurns: 8})

	a, err := o.Run(context.Background(), 0, coldSeed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := len(a.Diagnoses); got != 4 {
		t.Fatalf("diagnosis records = %d, want 4", got)
	}
	wantLetters := []string{"E", "E", "M", "M"}
	wantTurns := []int{0, 2, 4, 6}
	for i, d := range a.Diagnoses {
		if d.Letter != wantLetters[i] {
			t.Errorf("diagnosis %d letter = %q, want %q", i, d.Letter, wantLetters[i])
		}
		if d.TurnCount != wantTurns[i] {
			t.Errorf("diagnosis %d turn = %d, want %d", i, d.TurnCount, wantTurns[i])
		}
		if !d.Accuracy.GoldDiagnosisFound || d.Accuracy.AccuracyScore != 1.0 {
			t.Errorf("diagnosis %d accuracy = %+v, want top-ranked hit", i, d.Accuracy)
		}
	}

	if got := len(a.Questions); got != 3 {
		t.Errorf("questioning records = %d, want 3", got)
	}
	if got := len(a.Treatments); got != 1 {
		t.Errorf("treatment records = %d, want exactly 1", got)
	}
	if got := len(a.Patient); got != 4 {
		t.Errorf("patient records = %d, want 4", got)
	}
	if a.Behavior.BehaviorType != "stoic_minimizer" {
		t.Errorf("behavior metadata = %q", a.Behavior.BehaviorType)
	}
}

func TestEarlyEndSuppressed(t *testing.T) {
	f := newFixture().withSummaries().withDiagnosis("Common cold\nEND")
	o := newOrchestrator(t, f.client, Config{MaxTurns: 12})

	a, err := o.Run(context.Background(), 0, coldSeed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// END at turns 0..6 is ignored; the END at turn 8 terminates.
	if got := len(a.Diagnoses); got != 5 {
		t.Fatalf("diagnosis records = %d, want 5", got)
	}
	last := a.Diagnoses[len(a.Diagnoses)-1]
	if last.TurnCount != 8 || last.Letter != "L" {
		t.Errorf("final diagnosis at turn %d letter %q, want 8/L", last.TurnCount, last.Letter)
	}
	if got := len(a.Treatments); got != 1 {
		t.Errorf("treatment records = %d, want 1", got)
	}
	if a.Treatments[0].TurnCount != 8 {
		t.Errorf("treatment at turn %d, want 8", a.Treatments[0].TurnCount)
	}
}

func TestEndTokenNeedsWordBoundary(t *testing.T) {
	f := newFixture().withSummaries().withDiagnosis("ENDOCARDITIS")
	o := newOrchestrator(t, f.client, Config{MaxTurns: 12})

	a, err := o.Run(context.Background(), 0, coldSeed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// ENDOCARDITIS must not read as a closure signal: the loop runs to
	// the cap at turn 10 instead of stopping at turn 8.
	if got := len(a.Diagnoses); got != 6 {
		t.Errorf("diagnosis records = %d, want 6 (cap at turn 10)", got)
	}
	if got := len(a.Treatments); got != 1 {
		t.Errorf("treatment records = %d, want 1", got)
	}
}

func TestCorruptedSummaryRecovery(t *testing.T) {
	f := newFixture().withDiagnosis("1. Diagnosis: Common cold\nJustification: likely")

	summarizerCalls := 0
	f.client.Rule("unbiased clinical vignette", func(msgs []clinagen.Message) string {
		summarizerCalls++
		// Turn 4 is the third summarizer turn: calls 3, 4, 5 cover its
		// three format attempts and all come back malformed.
		if summarizerCalls >= 3 && summarizerCalls <= 5 {
			return "malformed output without any markers"
		}
		return "THINKING: summary reasoning\nANSWER: 25-year-old male with rhinorrhea."
	})

	o := newOrchestrator(t, f.client, Config{MaxTurns: 8})
	a, err := o.Run(context.Background(), 0, coldSeed)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := len(a.Summaries); got != 4 {
		t.Fatalf("summary records = %d, want 4", got)
	}
	if want := "Patient presents with symptoms. Turn count: 4"; a.Summaries[2].Output != want {
		t.Errorf("turn 4 summary = %q, want placeholder %q", a.Summaries[2].Output, want)
	}

	// Turn 6 consumes the placeholder as its prior summary and proceeds.
	if !strings.Contains(a.Summaries[3].Input, "Patient presents with symptoms. Turn count: 4") {
		t.Error("turn 6 summarizer input missing the substituted prior summary")
	}
	for i, s := range a.Summaries {
		if strings.Contains(s.Output, responder.MissingAnswer) || strings.Contains(s.Output, responder.SentinelAnswer) {
			t.Errorf("summary %d leaked the corruption marker: %q", i, s.Output)
		}
	}
	for _, d := range a.Diagnoses {
		if strings.Contains(d.Input, responder.SentinelAnswer) {
			t.Error("diagnoser consumed a corrupted summary")
		}
	}
}

func TestSinkFlushedEachTurn(t *testing.T) {
	f := newFixture().withSummaries().withDiagnosis("1. Diagnosis: Common cold\nJustification: likely")

	sink := &countingSink{}
	cfg := Config{MaxTurns: 8, Sink: sink}
	o := newOrchestrator(t, f.client, cfg)

	if _, err := o.Run(context.Background(), 0, coldSeed); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// Three completed question/reply cycles plus the final flush.
	if sink.flushes != 4 {
		t.Errorf("sink flushes = %d, want 4", sink.flushes)
	}
}

type countingSink struct {
	flushes int
}

func (s *countingSink) Flush(context.Context, *Artifacts) error {
	s.flushes++
	return nil
}

func TestGoldDiagnosisNeverInPrompts(t *testing.T) {
	seed := clinagen.VignetteSeed{
		Disease:       "Zollinger-Ellison syndrome",
		Script:        "I am 40, biological female, with stomach pain.",
		VariationType: "typical",
	}
	f := newFixture().withSummaries().withDiagnosis("1. Diagnosis: Gastritis\nJustification: plausible")
	o := newOrchestrator(t, f.client, Config{MaxTurns: 8})

	if _, err := o.Run(context.Background(), 0, seed); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, call := range f.client.Calls() {
		for _, msg := range call {
			if strings.Contains(msg.Content, "Zollinger-Ellison") {
				t.Fatalf("call %d leaked the gold diagnosis into a prompt", i)
			}
		}
	}
}

func TestConfigValidation(t *testing.T) {
	client := llm.NewScriptedClient("")
	if _, err := New(nil, nil, Config{MaxTurns: 8, Behavior: pinned(behavior.StoicMinimizer)}); err == nil {
		t.Error("nil client accepted")
	}
	if _, err := New(client, nil, Config{MaxTurns: 4, Behavior: pinned(behavior.StoicMinimizer)}); err == nil {
		t.Error("max turns below 8 accepted")
	}
	if _, err := New(client, nil, Config{MaxTurns: 8, UseInfoGain: true, Behavior: pinned(behavior.StoicMinimizer)}); err == nil {
		t.Error("info gain without selector accepted")
	}
	if _, err := New(client, nil, Config{MaxTurns: 8}); err == nil {
		t.Error("missing rand without pinned behavior accepted")
	}
}
