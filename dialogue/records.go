package dialogue

import "context"

// AccuracyEvaluation scores a ranked differential against the gold
// diagnosis attached to the seed. The gold label is evaluation metadata
// only and never reaches a prompt.
type AccuracyEvaluation struct {
	GoldDiagnosisFound bool     `json:"gold_diagnosis_found"`
	PositionInList     int      `json:"position_in_list"`
	PredictedDiagnoses []string `json:"predicted_diagnoses"`
	AccuracyScore      float64  `json:"accuracy_score"`
}

// PatientRecord is one patient utterance artifact, including the full
// annotated role output.
type PatientRecord struct {
	VignetteIndex int    `json:"vignette_index"`
	Input         string `json:"input"`
	Output        string `json:"output"`
	BehaviorType  string `json:"behavior_type"`
	TurnCount     int    `json:"turn_count"`
	GoldDiagnosis string `json:"gold_diagnosis"`
}

// AnalysisRecord is one behavior-analyzer artifact.
type AnalysisRecord struct {
	VignetteIndex int    `json:"vignette_index"`
	Input         string `json:"input"`
	Output        string `json:"output"`
	TurnCount     int    `json:"turn_count"`
	GoldDiagnosis string `json:"gold_diagnosis"`
}

// InterpretationRecord is one patient-interpreter artifact.
type InterpretationRecord struct {
	VignetteIndex int    `json:"vignette_index"`
	Input         string `json:"input"`
	Output        string `json:"output"`
	TurnCount     int    `json:"turn_count"`
	GoldDiagnosis string `json:"gold_diagnosis"`
}

// SummaryRecord is one clinical-summarizer artifact. When the summary
// was corrupted, Output holds the deterministic placeholder rather than
// the corrupted text.
type SummaryRecord struct {
	VignetteIndex int    `json:"vignette_index"`
	Input         string `json:"input"`
	Output        string `json:"output"`
	TurnCount     int    `json:"turn_count"`
	GoldDiagnosis string `json:"gold_diagnosis"`
}

// DiagnosisRecord is one diagnostic-reasoner artifact with its stage
// letter and accuracy evaluation.
type DiagnosisRecord struct {
	VignetteIndex int                `json:"vignette_index"`
	Input         string             `json:"input"`
	Output        string             `json:"output"`
	TurnCount     int                `json:"turn_count"`
	Letter        string             `json:"letter"`
	GoldDiagnosis string             `json:"gold_diagnosis"`
	Accuracy      AccuracyEvaluation `json:"accuracy_evaluation"`
}

// QuestionRecord is one questioning-clinician artifact.
type QuestionRecord struct {
	VignetteIndex  int    `json:"vignette_index"`
	Input          string `json:"input"`
	Output         string `json:"output"`
	TurnCount      int    `json:"turn_count"`
	Letter         string `json:"letter"`
	BehavioralCues string `json:"behavioral_cues"`
	GoldDiagnosis  string `json:"gold_diagnosis"`
}

// TreatmentRecord is the single end-of-dialogue treatment plan.
type TreatmentRecord struct {
	VignetteIndex int    `json:"vignette_index"`
	Input         string `json:"input"`
	Output        string `json:"output"`
	TurnCount     int    `json:"turn_count"`
	GoldDiagnosis string `json:"gold_diagnosis"`
}

// BehaviorMetadata records the archetype selected for the vignette.
type BehaviorMetadata struct {
	VignetteIndex       int      `json:"vignette_index"`
	BehaviorType        string   `json:"behavior_type"`
	BehaviorDescription string   `json:"behavior_description"`
	Modifiers           []string `json:"modifiers"`
	EmpathyCues         []string `json:"empathy_cues"`
	GoldDiagnosis       string   `json:"gold_diagnosis"`
}

// Artifacts collects every record a single vignette run produces.
// Slices are append-only and ordered by turn.
type Artifacts struct {
	VignetteIndex   int
	Patient         []PatientRecord
	Analyses        []AnalysisRecord
	Interpretations []InterpretationRecord
	Summaries       []SummaryRecord
	Diagnoses       []DiagnosisRecord
	Questions       []QuestionRecord
	Treatments      []TreatmentRecord
	Behavior        BehaviorMetadata
}

// Sink receives the artifact set after every completed turn so partial
// progress survives a mid-vignette failure. Implementations must
// tolerate repeated flushes of a growing set.
type Sink interface {
	Flush(ctx context.Context, a *Artifacts) error
}
