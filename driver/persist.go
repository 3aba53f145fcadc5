package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clinagen/clinagen/dialogue"
)

// Per-role output directories under the run's output root.
var roleDirs = []string{
	"summarizer_outputs",
	"patient_followups",
	"diagnosing_doctor_outputs",
	"questioning_doctor_outputs",
	"treatment_plans",
	"behavior_metadata",
	"behavioral_analyses",
	"patient_interpretations",
}

func prepareDirs(root string) error {
	for _, dir := range roleDirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", dir, err)
		}
	}
	return nil
}

// atomicWriteJSON persists v as indented JSON via a temp file and
// rename, so concurrent readers never observe a partial write.
func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

// fileSink flushes a vignette's artifacts to its per-role files after
// every turn. Paths embed the vignette index, so writers never collide.
type fileSink struct {
	dir string
}

var _ dialogue.Sink = (*fileSink)(nil)

func (s *fileSink) Flush(_ context.Context, a *dialogue.Artifacts) error {
	idx := a.VignetteIndex
	writes := []struct {
		dir  string
		name string
		v    any
	}{
		{"summarizer_outputs", fmt.Sprintf("summarizer_%d.json", idx), a.Summaries},
		{"patient_followups", fmt.Sprintf("patient_%d.json", idx), a.Patient},
		{"diagnosing_doctor_outputs", fmt.Sprintf("diagnoser_%d.json", idx), a.Diagnoses},
		{"questioning_doctor_outputs", fmt.Sprintf("questioner_%d.json", idx), a.Questions},
		{"treatment_plans", fmt.Sprintf("treatment_%d.json", idx), a.Treatments},
		{"behavior_metadata", fmt.Sprintf("behavior_%d.json", idx), a.Behavior},
		{"behavioral_analyses", fmt.Sprintf("behavioral_analysis_%d.json", idx), a.Analyses},
		{"patient_interpretations", fmt.Sprintf("interpretation_%d.json", idx), a.Interpretations},
	}
	for _, w := range writes {
		if err := atomicWriteJSON(filepath.Join(s.dir, w.dir, w.name), w.v); err != nil {
			return err
		}
	}
	return nil
}

// aggregate concatenates per-role artifacts across vignettes into the
// combined output files. Results arrive in vignette-index order and each
// vignette's records are already turn-ordered, so the aggregates are
// ordered by vignette index, then turn count.
func aggregate(root string, results []*dialogue.Artifacts) error {
	summaries := []dialogue.SummaryRecord{}
	patients := []dialogue.PatientRecord{}
	diagnoses := []dialogue.DiagnosisRecord{}
	questions := []dialogue.QuestionRecord{}
	treatments := []dialogue.TreatmentRecord{}
	behaviors := []dialogue.BehaviorMetadata{}
	analyses := []dialogue.AnalysisRecord{}

	for _, a := range results {
		summaries = append(summaries, a.Summaries...)
		patients = append(patients, a.Patient...)
		diagnoses = append(diagnoses, a.Diagnoses...)
		questions = append(questions, a.Questions...)
		treatments = append(treatments, a.Treatments...)
		behaviors = append(behaviors, a.Behavior)
		analyses = append(analyses, a.Analyses...)
	}

	writes := []struct {
		name string
		v    any
	}{
		{"summarizer_outputs.json", summaries},
		{"patient_followups.json", patients},
		{"diagnosing_doctor_outputs.json", diagnoses},
		{"questioning_doctor_outputs.json", questions},
		{"treatment_plans.json", treatments},
		{"behavior_metadata.json", behaviors},
		{"behavioral_analyses.json", analyses},
	}
	for _, w := range writes {
		if err := atomicWriteJSON(filepath.Join(root, w.name), w.v); err != nil {
			return err
		}
	}
	return nil
}
