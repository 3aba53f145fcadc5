// Package infogain selects the diagnostic question with the highest
// expected entropy reduction over a disease differential.
//
// The selector generates a candidate question set from the patient
// vignette, simulates an answer distribution for each candidate, asks
// the backend for the posterior differential under each simulated
// answer, and returns the candidate maximizing prior entropy minus
// expected posterior entropy. All probability math is double precision
// with entropy in base 2.
package infogain

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/llm"
)

// Epsilon is the tolerance for sum-to-one checks on any parsed
// distribution.
const Epsilon = 0.01

// FallbackQuestion is returned when no candidate can be generated or
// every evaluation failed.
const FallbackQuestion = "Do you have any other symptoms you haven't mentioned?"

// Distribution is an ordered differential over candidate diseases.
// Order is meaningful and preserved across rebuilds. Distributions are
// rebuilt, never mutated in place.
type Distribution struct {
	Diseases []string
	Probs    []float64
}

// Uniform builds a distribution assigning equal probability to each
// disease.
func Uniform(diseases []string) Distribution {
	probs := make([]float64, len(diseases))
	if len(diseases) > 0 {
		p := 1.0 / float64(len(diseases))
		for i := range probs {
			probs[i] = p
		}
	}
	return Distribution{Diseases: append([]string(nil), diseases...), Probs: probs}
}

// Entropy returns the Shannon entropy of the distribution in bits.
// Zero-probability entries contribute nothing.
func (d Distribution) Entropy() float64 {
	return stat.Entropy(d.Probs) / math.Ln2
}

// Sum returns the probability mass of the distribution.
func (d Distribution) Sum() float64 {
	return floats.Sum(d.Probs)
}

// Valid reports whether the mass is within Epsilon of one and every
// probability lies in [0, 1].
func (d Distribution) Valid() bool {
	if len(d.Probs) == 0 {
		return false
	}
	for _, p := range d.Probs {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return false
		}
	}
	return math.Abs(d.Sum()-1) <= Epsilon
}

// Normalize returns a copy rescaled to unit mass. A zero-mass
// distribution is returned unchanged.
func (d Distribution) Normalize() Distribution {
	sum := d.Sum()
	out := Distribution{
		Diseases: append([]string(nil), d.Diseases...),
		Probs:    append([]float64(nil), d.Probs...),
	}
	if sum > 0 {
		floats.Scale(1/sum, out.Probs)
	}
	return out
}

// ParseDistribution reads "Disease name|0.XXX" lines restricted to the
// allowed disease set, in the allowed order. It returns ok=false when no
// allowed disease parses or the mass deviates from one beyond Epsilon.
func ParseDistribution(text string, allowed []string) (Distribution, bool) {
	parsed := make(map[string]float64)
	for _, line := range strings.Split(text, "\n") {
		name, probStr, found := strings.Cut(line, "|")
		if !found {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(probStr), 64)
		if err != nil {
			continue
		}
		parsed[strings.TrimSpace(name)] = p
	}

	out := Distribution{Diseases: append([]string(nil), allowed...), Probs: make([]float64, len(allowed))}
	matched := 0
	for i, name := range allowed {
		if p, ok := parsed[name]; ok {
			out.Probs[i] = p
			matched++
		}
	}
	if matched == 0 || !out.Valid() {
		return Distribution{}, false
	}
	return out, true
}

// Scenario is one simulated patient answer with its likelihood.
type Scenario struct {
	Answer      string
	Probability float64
}

// Evaluation records the outcome for a single candidate question.
// Failed evaluations carry a zero gain and a non-nil Err.
type Evaluation struct {
	Question string
	Gain     float64
	Err      error
}

// Config holds selector tunables.
type Config struct {
	// NumQuestions is the candidate set size.
	NumQuestions int
	// NumScenarios is the number of simulated answers per question.
	NumScenarios int
	// Logger receives per-question progress. Defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns the standard selector configuration.
func DefaultConfig() Config {
	return Config{NumQuestions: 20, NumScenarios: 3}
}

// Validate checks config bounds.
func (c Config) Validate() error {
	if c.NumQuestions < 1 {
		return fmt.Errorf("num questions must be at least 1, got %d", c.NumQuestions)
	}
	if c.NumScenarios < 1 {
		return fmt.Errorf("num scenarios must be at least 1, got %d", c.NumScenarios)
	}
	return nil
}

// Selector chooses the next diagnostic question by expected information
// gain.
type Selector struct {
	client llm.Client
	cfg    Config
	log    *slog.Logger
}

// NewSelector builds a Selector over the given backend client.
func NewSelector(client llm.Client, cfg Config) (*Selector, error) {
	if client == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Selector{client: client, cfg: cfg, log: log}, nil
}

// GenerateQuestions asks the backend for the candidate question set.
// Each line of the completion becomes one candidate, capped at the
// configured size.
func (s *Selector) GenerateQuestions(ctx context.Context, patientInfo string) ([]string, error) {
	prompt := fmt.Sprintf(`You are an expert medical diagnostician. Based on the patient information provided, generate %d highly specific diagnostic questions that would help narrow down the diagnosis.

Patient Information: %s

Instructions:
1. Generate EXACTLY %d specific questions a doctor would ask this patient
2. Questions should be phrased to be answerable with Yes, No, or Not Sure
3. Focus on symptoms, risk factors, and relevant medical history
4. Make questions specific and directly relevant to likely diagnoses
5. Vary the questions to cover different body systems and potential diagnoses
6. Each question should be on its own line with no numbering or additional text
7. Questions should help differentiate between the most likely diagnoses
8. Do not include any explanations or additional text`, s.cfg.NumQuestions, patientInfo, s.cfg.NumQuestions)

	text, err := s.client.Complete(ctx, []clinagen.Message{{Role: clinagen.RoleSystem, Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("generating candidate questions: %w", err)
	}

	var questions []string
	for _, line := range strings.Split(text, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) > s.cfg.NumQuestions {
		questions = questions[:s.cfg.NumQuestions]
	}
	return questions, nil
}

// ScenarioProbabilities simulates the answer distribution for a
// question. An unparseable or off-mass completion falls back to a
// uniform distribution over synthetic answers.
func (s *Selector) ScenarioProbabilities(ctx context.Context, patientInfo, question string) ([]Scenario, error) {
	prompt := fmt.Sprintf(`You are an expert in medical probability estimation. Given the patient information and a diagnostic question, generate %d possible responses and their probabilities.

Patient Information: %s

Question: %s

Instructions:
1. Generate EXACTLY %d possible responses to this question
2. Each response should be a natural, patient-like answer
3. Assign a probability to each response
4. Probabilities must sum to exactly 1.0
5. Express each probability as a decimal between 0 and 1
6. Consider the patient's demographics, symptoms, and history
7. Base your estimates on medical knowledge and typical disease presentations
8. Return ONLY the responses and probabilities in this exact format:
Response 1|0.XX
Response 2|0.XX
Response 3|0.XX`, s.cfg.NumScenarios, patientInfo, question, s.cfg.NumScenarios)

	text, err := s.client.Complete(ctx, []clinagen.Message{{Role: clinagen.RoleSystem, Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("simulating answers for %q: %w", question, err)
	}

	var scenarios []Scenario
	mass := 0.0
	for _, line := range strings.Split(text, "\n") {
		answer, probStr, found := strings.Cut(line, "|")
		if !found {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(probStr), 64)
		if err != nil {
			continue
		}
		scenarios = append(scenarios, Scenario{Answer: strings.TrimSpace(answer), Probability: p})
		mass += p
	}

	if len(scenarios) == 0 || math.Abs(mass-1) > Epsilon {
		scenarios = make([]Scenario, s.cfg.NumScenarios)
		p := 1.0 / float64(s.cfg.NumScenarios)
		for i := range scenarios {
			scenarios[i] = Scenario{Answer: fmt.Sprintf("Response %d", i+1), Probability: p}
		}
	}
	return scenarios, nil
}

// UpdateDistribution asks the backend for the posterior differential
// given a question and a simulated answer. Invalid posteriors retain the
// prior unchanged.
func (s *Selector) UpdateDistribution(ctx context.Context, patientInfo string, prior Distribution, question, answer string) (Distribution, error) {
	var current strings.Builder
	for i, name := range prior.Diseases {
		fmt.Fprintf(&current, "%s|%g\n", name, prior.Probs[i])
	}

	prompt := fmt.Sprintf(`You are an expert medical diagnosis assistant. Given the patient information, current disease probabilities, and a new question with its answer, update the disease probabilities.

Patient Information: %s

Base Diseases (these are the only possible diagnoses):
%s

Current disease probabilities:
%s
New Information:
Question: %s
Answer: %s

Instructions:
1. Consider how the new information impacts each disease probability
2. Update each probability based on medical knowledge
3. The probabilities must sum to exactly 1.0
4. Return only the updated probabilities in this exact format:
Disease name 1|0.XXX
Disease name 2|0.XXX
etc.
5. Only include diseases from the base diseases list
6. Do not include any explanations or additional text`,
		patientInfo, strings.Join(prior.Diseases, ", "), current.String(), question, answer)

	text, err := s.client.Complete(ctx, []clinagen.Message{{Role: clinagen.RoleSystem, Content: prompt}})
	if err != nil {
		return Distribution{}, fmt.Errorf("updating differential for answer %q: %w", answer, err)
	}

	posterior, ok := ParseDistribution(text, prior.Diseases)
	if !ok {
		return prior, nil
	}
	return posterior, nil
}

// QuestionGain computes the expected information gain of one candidate
// question against the prior differential.
func (s *Selector) QuestionGain(ctx context.Context, patientInfo, question string, prior Distribution) (float64, error) {
	currentEntropy := prior.Entropy()

	scenarios, err := s.ScenarioProbabilities(ctx, patientInfo, question)
	if err != nil {
		return 0, err
	}

	expected := 0.0
	for _, sc := range scenarios {
		posterior, err := s.UpdateDistribution(ctx, patientInfo, prior, question, sc.Answer)
		if err != nil {
			return 0, err
		}
		expected += sc.Probability * posterior.Entropy()
	}
	return currentEntropy - expected, nil
}

// Select returns the candidate question with the highest information
// gain. Ties keep the first-generated candidate. When candidate
// generation fails, returns no candidates, or every evaluation errors,
// the deterministic fallback question is returned. Per-question
// evaluation errors are recorded with zero gain and do not abort the
// sweep.
func (s *Selector) Select(ctx context.Context, patientInfo string, prior Distribution) (string, []Evaluation, error) {
	questions, err := s.GenerateQuestions(ctx, patientInfo)
	if err != nil {
		s.log.Warn("candidate generation failed", "error", err)
		return FallbackQuestion, nil, nil
	}
	if len(questions) == 0 {
		return FallbackQuestion, nil, nil
	}

	evals := make([]Evaluation, 0, len(questions))
	best := -1
	bestGain := math.Inf(-1)
	failures := 0
	for i, q := range questions {
		gain, err := s.QuestionGain(ctx, patientInfo, q, prior)
		if err != nil {
			if ctx.Err() != nil {
				return "", evals, ctx.Err()
			}
			s.log.Warn("question evaluation failed", "question", q, "error", err)
			evals = append(evals, Evaluation{Question: q, Err: err})
			failures++
			continue
		}
		evals = append(evals, Evaluation{Question: q, Gain: gain})
		if gain > bestGain {
			bestGain = gain
			best = i
		}
		s.log.Debug("evaluated candidate", "question", q, "gain", gain)
	}

	if best < 0 || failures == len(questions) {
		return FallbackQuestion, evals, nil
	}
	return questions[best], evals, nil
}
