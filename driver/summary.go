package driver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clinagen/clinagen/dialogue"
)

// StageAccuracy aggregates diagnostic accuracy for one stage letter.
type StageAccuracy struct {
	Letter   string  `json:"letter"`
	Cases    int     `json:"cases"`
	Accurate int     `json:"accurate"`
	Rate     float64 `json:"rate"`
}

// Summary is the end-of-run report: counts per role, per behavior
// archetype, and diagnostic accuracy per stage.
type Summary struct {
	RunID          string          `json:"run_id"`
	Vignettes      int             `json:"vignettes"`
	Completed      int             `json:"completed"`
	Failed         int             `json:"failed"`
	RoleCounts     map[string]int  `json:"role_counts"`
	BehaviorCounts map[string]int  `json:"behavior_counts"`
	StageAccuracy  []StageAccuracy `json:"stage_accuracy"`
	TopEmpathyCues []string        `json:"top_empathy_cues"`
}

// Summarize builds the run report from the surviving artifact sets.
func Summarize(runID string, total int, results []*dialogue.Artifacts) *Summary {
	s := &Summary{
		RunID:          runID,
		Vignettes:      total,
		Completed:      len(results),
		Failed:         total - len(results),
		RoleCounts:     make(map[string]int),
		BehaviorCounts: make(map[string]int),
	}

	stageCases := map[string]int{"E": 0, "M": 0, "L": 0}
	stageHits := map[string]int{"E": 0, "M": 0, "L": 0}
	cueCounts := make(map[string]int)

	for _, a := range results {
		s.RoleCounts["patient"] += len(a.Patient)
		s.RoleCounts["summarizer"] += len(a.Summaries)
		s.RoleCounts["diagnoser"] += len(a.Diagnoses)
		s.RoleCounts["questioner"] += len(a.Questions)
		s.RoleCounts["treatment"] += len(a.Treatments)
		s.RoleCounts["behavioral_analysis"] += len(a.Analyses)
		s.RoleCounts["interpretation"] += len(a.Interpretations)
		s.BehaviorCounts[a.Behavior.BehaviorType]++

		for _, cue := range a.Behavior.EmpathyCues {
			cueCounts[cue]++
		}
		for _, d := range a.Diagnoses {
			stageCases[d.Letter]++
			if d.Accuracy.GoldDiagnosisFound {
				stageHits[d.Letter]++
			}
		}
	}

	for _, letter := range []string{"E", "M", "L"} {
		sa := StageAccuracy{Letter: letter, Cases: stageCases[letter], Accurate: stageHits[letter]}
		if sa.Cases > 0 {
			sa.Rate = float64(sa.Accurate) / float64(sa.Cases)
		}
		s.StageAccuracy = append(s.StageAccuracy, sa)
	}

	cues := make([]string, 0, len(cueCounts))
	for cue := range cueCounts {
		cues = append(cues, cue)
	}
	sort.Slice(cues, func(i, j int) bool {
		if cueCounts[cues[i]] != cueCounts[cues[j]] {
			return cueCounts[cues[i]] > cueCounts[cues[j]]
		}
		return cues[i] < cues[j]
	})
	if len(cues) > 5 {
		cues = cues[:5]
	}
	s.TopEmpathyCues = cues

	return s
}

// Render formats the summary for terminal output.
func (s *Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d/%d vignettes completed (%d failed)\n", s.RunID, s.Completed, s.Vignettes, s.Failed)

	b.WriteString("Records per role:\n")
	roles := make([]string, 0, len(s.RoleCounts))
	for role := range s.RoleCounts {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Fprintf(&b, "  %-20s %d\n", role, s.RoleCounts[role])
	}

	b.WriteString("Behavior archetypes:\n")
	types := make([]string, 0, len(s.BehaviorCounts))
	for t := range s.BehaviorCounts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(&b, "  %-28s %d\n", t, s.BehaviorCounts[t])
	}

	b.WriteString("Diagnostic accuracy by stage:\n")
	for _, sa := range s.StageAccuracy {
		fmt.Fprintf(&b, "  %s: %.1f%% (%d/%d)\n", sa.Letter, sa.Rate*100, sa.Accurate, sa.Cases)
	}

	if len(s.TopEmpathyCues) > 0 {
		fmt.Fprintf(&b, "Most common empathy cues: %s\n", strings.Join(s.TopEmpathyCues, ", "))
	}
	return b.String()
}
