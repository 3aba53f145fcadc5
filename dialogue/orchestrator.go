// Package dialogue drives the per-vignette conversation state machine.
//
// One Orchestrator instance owns all state for one vignette: the
// conversation log, the rolling summary, and every artifact record. The
// turn loop is strictly sequential; parallelism lives a level up in the
// driver.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinagen/clinagen/behavior"
	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/infogain"
	"github.com/clinagen/clinagen/llm"
	"github.com/clinagen/clinagen/prompts"
	"github.com/clinagen/clinagen/responder"
)

// DefaultMaxTurns bounds the turn loop when the diagnoser never signals
// END.
const DefaultMaxTurns = 20

// MinTurnsForEnd is the earliest turn index at which an END signal is
// acted on. Earlier ENDs are logged and ignored.
const MinTurnsForEnd = 8

var tracer = otel.Tracer("github.com/clinagen/clinagen/dialogue")

// endToken matches the literal END token on a word boundary so disease
// names containing the letters do not terminate the dialogue.
var endToken = regexp.MustCompile(`\bEND\b`)

// LetterFor maps a turn index to its stage letter.
func LetterFor(turnIndex int) string {
	switch {
	case turnIndex < 4:
		return "E"
	case turnIndex < 8:
		return "M"
	default:
		return "L"
	}
}

// StageFor maps a turn index to the prompt stage.
func StageFor(turnIndex int) prompts.Stage {
	switch {
	case turnIndex < 4:
		return prompts.StageEarly
	case turnIndex < 8:
		return prompts.StageMiddle
	default:
		return prompts.StageLate
	}
}

// CorruptionPlaceholder returns the deterministic summary substituted
// when the summarizer output is corrupted, so corruption never
// propagates into later turns.
func CorruptionPlaceholder(turnIndex int) string {
	return fmt.Sprintf("Patient presents with symptoms. Turn count: %d", turnIndex)
}

// Config holds per-orchestrator tunables.
type Config struct {
	// MaxTurns caps the turn index. When a cycle would reach it without
	// an END at turn 8 or later, the loop forces the treatment phase.
	// Minimum 8, default 20.
	MaxTurns int

	// UseInfoGain routes follow-up question selection through the
	// information-gain selector instead of the staged questioner agent.
	UseInfoGain bool

	// Behavior pins the patient archetype. When nil one is drawn from
	// Rand.
	Behavior *behavior.Profile

	// Rand is the per-worker RNG. All orchestrator nondeterminism flows
	// through it.
	Rand *rand.Rand

	// Sink, when set, receives the artifact set after every turn.
	Sink Sink

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Validate checks config bounds.
func (c Config) Validate() error {
	if c.MaxTurns < MinTurnsForEnd {
		return fmt.Errorf("max turns must be at least %d, got %d", MinTurnsForEnd, c.MaxTurns)
	}
	if c.Rand == nil && c.Behavior == nil {
		return fmt.Errorf("rand source required when behavior is not pinned")
	}
	return nil
}

// Orchestrator runs the dialogue loop for single vignettes.
type Orchestrator struct {
	client   llm.Client
	selector *infogain.Selector
	cfg      Config
	log      *slog.Logger
}

// New builds an Orchestrator over the given backend client. selector may
// be nil when Config.UseInfoGain is false.
func New(client llm.Client, selector *infogain.Selector, cfg Config) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid orchestrator config: %w", err)
	}
	if cfg.UseInfoGain && selector == nil {
		return nil, fmt.Errorf("info gain enabled but selector is nil")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{client: client, selector: selector, cfg: cfg, log: log}, nil
}

// Run executes the full dialogue for one vignette seed and returns its
// artifacts. Backend errors abort the run; artifacts flushed for earlier
// turns remain with the sink.
func (o *Orchestrator) Run(ctx context.Context, idx int, seed clinagen.VignetteSeed) (*Artifacts, error) {
	ctx, span := tracer.Start(ctx, "dialogue.Run",
		trace.WithAttributes(
			attribute.Int("vignette.index", idx),
			attribute.String("vignette.variation", seed.VariationType),
		),
	)
	defer span.End()

	a, err := o.run(ctx, idx, seed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return a, err
}

func (o *Orchestrator) run(ctx context.Context, idx int, seed clinagen.VignetteSeed) (*Artifacts, error) {
	profile := o.selectBehavior()
	log := o.log.With("vignette", idx, "behavior", string(profile.Type))
	log.Info("starting vignette", "disease", seed.Disease, "variation", seed.VariationType)

	a := &Artifacts{
		VignetteIndex: idx,
		Behavior: BehaviorMetadata{
			VignetteIndex:       idx,
			BehaviorType:        string(profile.Type),
			BehaviorDescription: profile.Description,
			Modifiers:           modifierStrings(profile.Modifiers),
			EmpathyCues:         append([]string(nil), profile.EmpathyCues...),
			GoldDiagnosis:       seed.Disease,
		},
	}

	conv := &clinagen.Conversation{}
	conv.Append(clinagen.SpeakerDoctor, prompts.InitialDoctorPrompt, 0)

	if err := o.patientOpening(ctx, a, conv, seed, profile); err != nil {
		return a, err
	}

	analyzer := responder.New(o.client, prompts.AnalyzerRole)
	interpreter := responder.New(o.client, prompts.InterpreterRole)
	summarizer := responder.New(o.client, prompts.SummarizerRole)
	diagnoser := responder.New(o.client, prompts.DiagnoserRole)

	turn := 0
	prevSummary := ""

	for {
		// Analyze.
		analysisPayload := prompts.AnalysisPayload(conv.PatientUtterances(3), conv.Tail(6))
		analysisRes, err := analyzer.Ask(ctx, analysisPayload)
		if err != nil {
			return a, fmt.Errorf("behavior analysis at turn %d: %w", turn, err)
		}
		a.Analyses = append(a.Analyses, AnalysisRecord{
			VignetteIndex: idx,
			Input:         analysisPayload,
			Output:        analysisRes.Raw,
			TurnCount:     turn,
			GoldDiagnosis: seed.Disease,
		})

		// Interpret.
		interpPayload := prompts.InterpretationPayload(analysisRes.Clean, conv.Tail(8), prevSummary)
		interpRes, err := interpreter.Ask(ctx, interpPayload)
		if err != nil {
			return a, fmt.Errorf("patient interpretation at turn %d: %w", turn, err)
		}
		a.Interpretations = append(a.Interpretations, InterpretationRecord{
			VignetteIndex: idx,
			Input:         interpPayload,
			Output:        interpRes.Raw,
			TurnCount:     turn,
			GoldDiagnosis: seed.Disease,
		})

		// Summarize, with the corruption guard.
		summaryPayload := prompts.SummaryPayload(conv.Transcript(), prevSummary, interpRes.Clean)
		summaryRes, err := summarizer.Ask(ctx, summaryPayload)
		if err != nil {
			return a, fmt.Errorf("summary at turn %d: %w", turn, err)
		}
		summary := summaryRes.Clean
		summaryOut := summaryRes.Raw
		if summaryRes.Sentinel || strings.Contains(summary, responder.MissingAnswer) {
			summary = CorruptionPlaceholder(turn)
			summaryOut = summary
			log.Warn("corrupted summary replaced", "turn", turn)
		}
		a.Summaries = append(a.Summaries, SummaryRecord{
			VignetteIndex: idx,
			Input:         summaryPayload,
			Output:        summaryOut,
			TurnCount:     turn,
			GoldDiagnosis: seed.Disease,
		})
		prevSummary = summary

		// Diagnose.
		stage := StageFor(turn)
		letter := LetterFor(turn)
		prevQuestions := conv.DoctorQuestions(5)
		diagPayload := prompts.DiagnosisPayload(stage, prevQuestions, summary, turn)
		diagRes, err := diagnoser.Ask(ctx, diagPayload)
		if err != nil {
			return a, fmt.Errorf("diagnosis at turn %d: %w", turn, err)
		}
		accuracy := EvaluateAccuracy(diagRes.Clean, seed.Disease)
		a.Diagnoses = append(a.Diagnoses, DiagnosisRecord{
			VignetteIndex: idx,
			Input:         summary,
			Output:        diagRes.Raw,
			TurnCount:     turn,
			Letter:        letter,
			GoldDiagnosis: seed.Disease,
			Accuracy:      accuracy,
		})

		// Check the END condition, then the hard cap.
		if endToken.MatchString(diagRes.Clean) {
			if turn >= MinTurnsForEnd {
				log.Info("diagnostic closure", "turn", turn)
				if err := o.treatment(ctx, a, diagnoser, seed, diagRes.Clean, summary, profile, turn); err != nil {
					return a, err
				}
				break
			}
			log.Info("END before minimum turns, ignoring", "turn", turn)
		}
		if turn+2 >= o.cfg.MaxTurns {
			log.Info("turn cap reached, forcing treatment", "turn", turn)
			if err := o.treatment(ctx, a, diagnoser, seed, diagRes.Clean, summary, profile, turn); err != nil {
				return a, err
			}
			break
		}

		// Question.
		question, questionOut, err := o.nextQuestion(ctx, stage, prevQuestions, summary, diagRes.Clean, analysisRes.Clean, turn)
		if err != nil {
			return a, fmt.Errorf("question at turn %d: %w", turn, err)
		}
		a.Questions = append(a.Questions, QuestionRecord{
			VignetteIndex:  idx,
			Input:          fmt.Sprintf("Vignette:\n%s\nCurrent Estimated Diagnosis: %s\n", summary, diagRes.Clean),
			Output:         questionOut,
			TurnCount:      turn,
			Letter:         letter,
			BehavioralCues: analysisRes.Clean,
			GoldDiagnosis:  seed.Disease,
		})
		conv.Append(clinagen.SpeakerDoctor, question, conv.Len())

		// Patient reply.
		if err := o.patientFollowup(ctx, a, conv, seed, profile, question, turn); err != nil {
			return a, err
		}

		turn += 2
		if o.cfg.Sink != nil {
			if err := o.cfg.Sink.Flush(ctx, a); err != nil {
				return a, fmt.Errorf("flushing artifacts at turn %d: %w", turn, err)
			}
		}
	}

	if o.cfg.Sink != nil {
		if err := o.cfg.Sink.Flush(ctx, a); err != nil {
			return a, fmt.Errorf("flushing final artifacts: %w", err)
		}
	}
	log.Info("vignette complete", "turns", len(a.Diagnoses), "treatments", len(a.Treatments))
	return a, nil
}

func (o *Orchestrator) selectBehavior() behavior.Profile {
	if o.cfg.Behavior != nil {
		return *o.cfg.Behavior
	}
	return behavior.Select(o.cfg.Rand)
}

func (o *Orchestrator) patientOpening(ctx context.Context, a *Artifacts, conv *clinagen.Conversation, seed clinagen.VignetteSeed, profile behavior.Profile) error {
	instruction := behavior.Compose(profile, true)
	patient := responder.New(o.client, instruction)
	payload := prompts.PatientInitial(instruction, behavior.InitialLength(profile), behavior.AgeGenderInstruction, seed.Script, prompts.InitialDoctorPrompt)

	res, err := patient.Ask(ctx, payload)
	if err != nil {
		return fmt.Errorf("patient opening: %w", err)
	}
	conv.Append(clinagen.SpeakerPatient, res.Clean, conv.Len())
	a.Patient = append(a.Patient, PatientRecord{
		VignetteIndex: a.VignetteIndex,
		Input:         seed.Script + "\n" + prompts.InitialDoctorPrompt,
		Output:        res.Raw,
		BehaviorType:  string(profile.Type),
		TurnCount:     0,
		GoldDiagnosis: seed.Disease,
	})
	return nil
}

func (o *Orchestrator) patientFollowup(ctx context.Context, a *Artifacts, conv *clinagen.Conversation, seed clinagen.VignetteSeed, profile behavior.Profile, question string, turn int) error {
	instruction := behavior.Compose(profile, false)
	patient := responder.New(o.client, instruction)
	payload := prompts.PatientFollowup(instruction, string(profile.Type), profile.Description, seed.Script, question, behavior.FollowupLength(profile, turn))

	res, err := patient.Ask(ctx, payload)
	if err != nil {
		return fmt.Errorf("patient follow-up at turn %d: %w", turn, err)
	}
	conv.Append(clinagen.SpeakerPatient, res.Clean, conv.Len())
	a.Patient = append(a.Patient, PatientRecord{
		VignetteIndex: a.VignetteIndex,
		Input:         seed.Script + question,
		Output:        res.Raw,
		BehaviorType:  string(profile.Type),
		TurnCount:     turn,
		GoldDiagnosis: seed.Disease,
	})
	return nil
}

// nextQuestion produces the doctor's follow-up, either from the staged
// questioner agent or the information-gain selector. It returns the
// utterance for the conversation log and the artifact output text.
func (o *Orchestrator) nextQuestion(ctx context.Context, stage prompts.Stage, prevQuestions []string, summary, diagnosis, analysis string, turn int) (string, string, error) {
	if o.cfg.UseInfoGain {
		diseases := ExtractDiagnosisNames(diagnosis)
		if len(diseases) == 0 {
			return infogain.FallbackQuestion, infogain.FallbackQuestion, nil
		}
		question, _, err := o.selector.Select(ctx, summary, infogain.Uniform(diseases))
		if err != nil {
			return "", "", err
		}
		return question, question, nil
	}

	questioner := responder.New(o.client, prompts.QuestionerRole(stage))
	res, err := questioner.Ask(ctx, prompts.QuestionPayload(stage, prevQuestions, summary, diagnosis, analysis, turn))
	if err != nil {
		return "", "", err
	}
	return prompts.CleanQuestion(res.Clean), res.Raw, nil
}

func (o *Orchestrator) treatment(ctx context.Context, a *Artifacts, diagnoser *responder.Responder, seed clinagen.VignetteSeed, diagnosis, summary string, profile behavior.Profile, turn int) error {
	res, err := diagnoser.Ask(ctx, prompts.TreatmentPayload(diagnosis, summary, string(profile.Type)))
	if err != nil {
		return fmt.Errorf("treatment plan: %w", err)
	}
	a.Treatments = append(a.Treatments, TreatmentRecord{
		VignetteIndex: a.VignetteIndex,
		Input:         diagnosis,
		Output:        res.Raw,
		TurnCount:     turn,
		GoldDiagnosis: seed.Disease,
	})
	return nil
}

func modifierStrings(mods []behavior.Modifier) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = string(m)
	}
	return out
}
