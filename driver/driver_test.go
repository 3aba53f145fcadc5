package driver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/dialogue"
	"github.com/clinagen/clinagen/llm"
)

func testSeeds() []clinagen.VignetteSeed {
	return []clinagen.VignetteSeed{
		{Disease: "Common cold", Script: "I am 25, biological male, runny nose.", VariationType: "typical"},
		{Disease: "Influenza", Script: "I am 40, biological female, fever and aches.", VariationType: "typical"},
		{Disease: "Strep throat", Script: "I am 19, biological male, sore throat.", VariationType: "severe"},
	}
}

// scriptedFactory returns a fresh fully-scripted client per vignette.
func scriptedFactory() (llm.Client, error) {
	client := llm.NewScriptedClient("fixture")
	client.RuleText("Patient background:",
		"THINKING: opening\nANSWER: I am 25, a biological male, and I feel unwell.")
	client.RuleText("CONTEXT FOR YOUR RESPONSE:",
		"THINKING: follow-up\nANSWER: About the same as before.")
	client.RuleText("RECENT PATIENT RESPONSES:",
		"THINKING: cues\nANSWER: EMPATHY_NEEDS: reassurance")
	client.RuleText("DETECTED PATIENT BEHAVIOR:",
		"THINKING: interpretation\nANSWER: Mild minimization suspected.")
	client.RuleText("unbiased clinical vignette",
		"THINKING: summary\nANSWER: Adult patient with an acute viral syndrome.")
	client.RuleText("CURRENT CLINICAL PICTURE:",
		"THINKING: planning\nANSWER: When did the symptoms start?")
	client.RuleText("comprehensive treatment plan",
		"THINKING: plan\nANSWER: Supportive care and follow-up.")
	client.RuleText("Previously asked questions:",
		"THINKING: differential\nANSWER: 1. Diagnosis: Viral infection\nJustification: common")
	return client, nil
}

func newTestDriver(t *testing.T, factory ClientFactory, cfg Config) *Driver {
	t.Helper()
	if cfg.OutDir == "" {
		cfg.OutDir = t.TempDir()
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 8
	}
	d, err := New(factory, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestParallelAggregation(t *testing.T) {
	outDir := t.TempDir()
	d := newTestDriver(t, scriptedFactory, Config{Workers: 3, OutDir: outDir, Seed: 11})

	results, summary, err := d.Run(context.Background(), testSeeds())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 3 || summary.Completed != 3 || summary.Failed != 0 {
		t.Fatalf("completed %d results, summary %+v", len(results), summary)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "diagnosing_doctor_outputs.json"))
	if err != nil {
		t.Fatalf("reading aggregate: %v", err)
	}
	var records []dialogue.DiagnosisRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("decoding aggregate: %v", err)
	}

	indexes := make(map[int]bool)
	lastTurn := make(map[int]int)
	for _, r := range records {
		indexes[r.VignetteIndex] = true
		if prev, seen := lastTurn[r.VignetteIndex]; seen && r.TurnCount < prev {
			t.Errorf("vignette %d turn order regressed: %d after %d", r.VignetteIndex, r.TurnCount, prev)
		}
		lastTurn[r.VignetteIndex] = r.TurnCount
	}
	if len(indexes) != 3 {
		t.Errorf("aggregate covers %d vignette indexes, want 3", len(indexes))
	}

	for _, name := range []string{
		"summarizer_outputs.json",
		"patient_followups.json",
		"questioning_doctor_outputs.json",
		"treatment_plans.json",
		"behavior_metadata.json",
		"behavioral_analyses.json",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing aggregate file %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "summarizer_outputs", "summarizer_0.json")); err != nil {
		t.Errorf("missing per-vignette file: %v", err)
	}
}

func TestFailedWorkerFiltered(t *testing.T) {
	calls := 0
	factory := func() (llm.Client, error) {
		calls++
		if calls == 1 {
			// A client with nothing scripted fails its first completion.
			return llm.NewScriptedClient("broken"), nil
		}
		return scriptedFactory()
	}

	outDir := t.TempDir()
	d := newTestDriver(t, factory, Config{Workers: 1, OutDir: outDir, Seed: 5})

	results, summary, err := d.Run(context.Background(), testSeeds())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 survivors", len(results))
	}
	if summary.Completed != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 2 completed 1 failed", summary)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "behavior_metadata.json"))
	if err != nil {
		t.Fatal(err)
	}
	var metadata []dialogue.BehaviorMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		t.Fatal(err)
	}
	for _, m := range metadata {
		if m.VignetteIndex == 0 {
			t.Error("failed vignette leaked into the aggregate")
		}
	}
}

func TestBehaviorSelectionReproducible(t *testing.T) {
	var runs [][]string
	for i := 0; i < 2; i++ {
		d := newTestDriver(t, scriptedFactory, Config{Workers: 2, Seed: 99})
		results, _, err := d.Run(context.Background(), testSeeds())
		if err != nil {
			t.Fatal(err)
		}
		types := make([]string, len(results))
		for j, a := range results {
			types[j] = a.Behavior.BehaviorType
		}
		runs = append(runs, types)
	}
	for i := range runs[0] {
		if runs[0][i] != runs[1][i] {
			t.Errorf("vignette %d behavior differs across identical seeds: %q vs %q", i, runs[0][i], runs[1][i])
		}
	}
}

func TestSummarize(t *testing.T) {
	a := &dialogue.Artifacts{
		VignetteIndex: 0,
		Diagnoses: []dialogue.DiagnosisRecord{
			{Letter: "E", Accuracy: dialogue.AccuracyEvaluation{GoldDiagnosisFound: true}},
			{Letter: "E", Accuracy: dialogue.AccuracyEvaluation{}},
			{Letter: "M", Accuracy: dialogue.AccuracyEvaluation{GoldDiagnosisFound: true}},
		},
		Treatments: []dialogue.TreatmentRecord{{}},
		Behavior:   dialogue.BehaviorMetadata{BehaviorType: "stoic_minimizer", EmpathyCues: []string{"downplaying"}},
	}

	s := Summarize("run-1", 2, []*dialogue.Artifacts{a})
	if s.Completed != 1 || s.Failed != 1 {
		t.Errorf("completed/failed = %d/%d", s.Completed, s.Failed)
	}
	if s.RoleCounts["diagnoser"] != 3 || s.RoleCounts["treatment"] != 1 {
		t.Errorf("role counts = %v", s.RoleCounts)
	}
	if s.BehaviorCounts["stoic_minimizer"] != 1 {
		t.Errorf("behavior counts = %v", s.BehaviorCounts)
	}
	for _, sa := range s.StageAccuracy {
		switch sa.Letter {
		case "E":
			if sa.Cases != 2 || sa.Accurate != 1 || sa.Rate != 0.5 {
				t.Errorf("E stage = %+v", sa)
			}
		case "M":
			if sa.Cases != 1 || sa.Accurate != 1 || sa.Rate != 1.0 {
				t.Errorf("M stage = %+v", sa)
			}
		case "L":
			if sa.Cases != 0 || sa.Rate != 0 {
				t.Errorf("L stage = %+v", sa)
			}
		}
	}
	if s.Render() == "" {
		t.Error("Render() empty")
	}
}
