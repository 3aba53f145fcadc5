package prompts

import (
	"strings"
	"testing"
)

func TestStagePhase(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageEarly, "EARLY EXPLORATION"},
		{StageMiddle, "FOCUSED CLARIFICATION"},
		{StageLate, "DIAGNOSTIC CONFIRMATION"},
	}
	for _, tt := range tests {
		if got := tt.stage.Phase(); got != tt.want {
			t.Errorf("Phase(%q) = %q, want %q", tt.stage, got, tt.want)
		}
	}
}

func TestDiagnosisPayloadByStage(t *testing.T) {
	questions := []string{"When did it start?"}

	early := DiagnosisPayload(StageEarly, questions, "vignette text", 2)
	if !strings.Contains(early, "10 plausible diagnoses") || !strings.Contains(early, "Turn count: 2") {
		t.Error("early payload missing differential size or turn count")
	}

	middle := DiagnosisPayload(StageMiddle, questions, "vignette text", 6)
	if !strings.Contains(middle, "5 most probable") {
		t.Error("middle payload missing refined differential size")
	}

	late := DiagnosisPayload(StageLate, questions, "vignette text", 10)
	if !strings.Contains(late, "END") || !strings.Contains(late, "diagnostic closure") {
		t.Error("late payload missing closure contract")
	}
	for _, payload := range []string{early, middle, late} {
		if !strings.Contains(payload, "When did it start?") || !strings.Contains(payload, "vignette text") {
			t.Error("payload missing previous questions or vignette")
		}
	}
}

func TestQuestionerRolesDiffer(t *testing.T) {
	early := QuestionerRole(StageEarly)
	middle := QuestionerRole(StageMiddle)
	late := QuestionerRole(StageLate)
	if early == middle || middle == late || early == late {
		t.Error("stage questioner roles should differ")
	}
	if !strings.Contains(early, "open-ended") {
		t.Error("early role missing exploration strategy")
	}
	if !strings.Contains(late, "remaining diagnostic uncertainty") {
		t.Error("late role missing confirmation strategy")
	}
}

func TestQuestionPayloadIncludesContext(t *testing.T) {
	got := QuestionPayload(StageMiddle, []string{"Any fever?"}, "the vignette", "the differential", "the cues", 4)
	for _, want := range []string{"Any fever?", "FOCUSED CLARIFICATION", "the vignette", "the differential", "the cues", "Turn Count: 4"} {
		if !strings.Contains(got, want) {
			t.Errorf("payload missing %q", want)
		}
	}
}

func TestPatientPayloadsCarryFormatContract(t *testing.T) {
	initial := PatientInitial("instruction", "in two to three sentences", "mention your age", "the script", "What brings you in today?")
	followup := PatientFollowup("instruction", "stoic_minimizer", "downplays symptoms", "the script", "Any fever?", "in one or two sentences")
	for _, payload := range []string{initial, followup} {
		if !strings.Contains(payload, "THINKING:") || !strings.Contains(payload, "ANSWER:") {
			t.Error("patient payload missing format contract")
		}
		if !strings.Contains(payload, "the script") {
			t.Error("patient payload missing background script")
		}
	}
	if !strings.Contains(followup, "stoic_minimizer") {
		t.Error("follow-up payload missing behavior type")
	}
}

func TestCleanQuestion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"DOCTOR: How long has this lasted?", "How long has this lasted?"},
		{"  How long has this lasted?  ", "How long has this lasted?"},
		{"How long?", "How long?"},
	}
	for _, tt := range tests {
		if got := CleanQuestion(tt.in); got != tt.want {
			t.Errorf("CleanQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
