package dialogue

import (
	"regexp"
	"strings"
)

var diagnosisLine = regexp.MustCompile(`(?im)^\s*\d+\.\s*(?:Diagnosis:)?\s*(.+?)(?:\s*Justification.*)?$`)

// ExtractDiagnosisNames pulls ranked diagnosis names out of a numbered
// differential list.
func ExtractDiagnosisNames(text string) []string {
	var names []string
	for _, m := range diagnosisLine.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		name = strings.TrimPrefix(name, "Diagnosis:")
		name = strings.TrimPrefix(name, "Condition:")
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// diagnosisMatch fuzzily compares a predicted diagnosis to the gold
// label: exact match, or most of the gold label's words appearing in the
// prediction.
func diagnosisMatch(predicted, gold string) bool {
	pred := strings.ToLower(predicted)
	g := strings.ToLower(gold)
	if pred == g {
		return true
	}

	predWords := make(map[string]bool)
	for _, w := range strings.Fields(pred) {
		predWords[w] = true
	}
	goldWords := strings.Fields(g)
	shared := 0
	for _, w := range goldWords {
		if predWords[w] {
			shared++
		}
	}

	need := int(float64(len(goldWords)) * 0.7)
	if need > 2 {
		need = 2
	}
	if need < 1 {
		need = 1
	}
	return shared >= need
}

// accuracyScore weights a hit by its rank in the differential.
func accuracyScore(found bool, position int) float64 {
	switch {
	case !found:
		return 0.0
	case position == 1:
		return 1.0
	case position <= 3:
		return 0.8
	case position <= 5:
		return 0.6
	default:
		return 0.4
	}
}

// EvaluateAccuracy scores a diagnostic answer against the gold label.
func EvaluateAccuracy(diagnosisText, gold string) AccuracyEvaluation {
	predicted := ExtractDiagnosisNames(diagnosisText)

	found := false
	position := -1
	for i, pred := range predicted {
		if diagnosisMatch(pred, gold) {
			found = true
			position = i + 1
			break
		}
	}

	return AccuracyEvaluation{
		GoldDiagnosisFound: found,
		PositionInList:     position,
		PredictedDiagnoses: predicted,
		AccuracyScore:      accuracyScore(found, position),
	}
}
