// Package behavior defines the closed set of patient behavior archetypes
// and composes them into prompt instructions for the patient agent.
//
// An archetype is chosen once per vignette from a seeded RNG and stays
// fixed for the run. Downstream prompt assembly consumes the archetype
// tags verbatim, so the enumeration must not be renamed.
package behavior

import (
	"math/rand"
	"sort"
)

// Type names a patient behavior archetype. The set is closed; extensions
// may add types but must not rename existing ones.
type Type string

const (
	AnxiousAmplifier         Type = "anxious_amplifier"
	StoicMinimizer           Type = "stoic_minimizer"
	EmbarrassedHesitant      Type = "embarrassed_hesitant"
	ConfusedUncertain        Type = "confused_uncertain"
	DetailStoryteller        Type = "detail_storyteller"
	FamilyPressuredCaregiver Type = "family_pressured_caregiver"
	GradualRevealer          Type = "gradual_revealer"
	SymptomMinimizer         Type = "symptom_minimizer"
	ExcessiveDetailer        Type = "excessive_detailer"
	AgeInappropriate         Type = "age_inappropriate"
	DemographicMismatch      Type = "demographic_mismatch"
)

// Modifier tags how an archetype bends the patient's reporting. The
// composer keys its behavioral additions and length rules off these tags.
type Modifier string

const (
	EmbarrassedSymptoms  Modifier = "embarrassed_symptoms"
	GradualRevelation    Modifier = "gradual_revelation"
	CatastrophicThinking Modifier = "catastrophic_thinking"
	SymptomAmplification Modifier = "symptom_amplification"
	MultipleConcerns     Modifier = "multiple_concerns"
	SymptomMinimization  Modifier = "symptom_minimization"
	DelayedCareSeeking   Modifier = "delayed_care_seeking"
	ToughAttitude        Modifier = "tough_attitude"
	TimelineConfusion    Modifier = "timeline_confusion"
	SequenceUncertainty  Modifier = "sequence_uncertainty"
	ExcessiveDetails     Modifier = "excessive_details"
	FamilyStories        Modifier = "family_stories"
	TangentialInfo       Modifier = "tangential_information"
	FamilyInfluence      Modifier = "family_influence"
	SecondaryConcerns    Modifier = "secondary_concerns"
	AgeMismatchLanguage  Modifier = "age_mismatch_language"
	IdentityVagueness    Modifier = "identity_vagueness"
)

// Profile describes one archetype: how the patient communicates and which
// empathy cues the behavior analyzer should watch for.
type Profile struct {
	Type        Type
	Description string
	Modifiers   []Modifier
	EmpathyCues []string
}

// Has reports whether the profile carries the given modifier.
func (p Profile) Has(m Modifier) bool {
	for _, mod := range p.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

var registry = map[Type]Profile{
	AnxiousAmplifier: {
		Type:        AnxiousAmplifier,
		Description: "Patient with health anxiety who amplifies symptoms",
		Modifiers:   []Modifier{CatastrophicThinking, SymptomAmplification, MultipleConcerns},
		EmpathyCues: []string{"high_anxiety", "catastrophic_language", "reassurance_seeking", "fear_expression"},
	},
	StoicMinimizer: {
		Type:        StoicMinimizer,
		Description: "Patient who downplays symptoms and delays care",
		Modifiers:   []Modifier{SymptomMinimization, DelayedCareSeeking, ToughAttitude},
		EmpathyCues: []string{"downplaying", "reluctance", "pride_in_toughness", "external_pressure"},
	},
	EmbarrassedHesitant: {
		Type:        EmbarrassedHesitant,
		Description: "Patient who initially omits embarrassing or stigmatized symptoms",
		Modifiers:   []Modifier{EmbarrassedSymptoms, GradualRevelation},
		EmpathyCues: []string{"hesitation", "vague_responses", "embarrassment", "trust_building_needed"},
	},
	ConfusedUncertain: {
		Type:        ConfusedUncertain,
		Description: "Patient confused about symptom timing and progression",
		Modifiers:   []Modifier{TimelineConfusion, SequenceUncertainty},
		EmpathyCues: []string{"confusion", "uncertainty", "memory_issues", "needs_patience"},
	},
	DetailStoryteller: {
		Type:        DetailStoryteller,
		Description: "Patient who wraps symptoms in stories and tangential detail",
		Modifiers:   []Modifier{ExcessiveDetails, FamilyStories, TangentialInfo},
		EmpathyCues: []string{"storytelling", "context_sharing", "social_needs", "relationship_focus"},
	},
	FamilyPressuredCaregiver: {
		Type:        FamilyPressuredCaregiver,
		Description: "Caregiver whose family's worries shape what gets reported",
		Modifiers:   []Modifier{FamilyInfluence, SecondaryConcerns},
		EmpathyCues: []string{"family_pressure", "caregiver_stress", "divided_attention", "responsibility_burden"},
	},
	GradualRevealer: {
		Type:        GradualRevealer,
		Description: "Patient who opens up slowly as trust builds across turns",
		Modifiers:   []Modifier{GradualRevelation},
		EmpathyCues: []string{"hesitation", "incremental_disclosure", "trust_building_needed"},
	},
	SymptomMinimizer: {
		Type:        SymptomMinimizer,
		Description: "Patient who keeps answers short and insists it is probably nothing",
		Modifiers:   []Modifier{SymptomMinimization},
		EmpathyCues: []string{"downplaying", "reluctance"},
	},
	ExcessiveDetailer: {
		Type:        ExcessiveDetailer,
		Description: "Patient who volunteers long, granular accounts of every symptom",
		Modifiers:   []Modifier{ExcessiveDetails},
		EmpathyCues: []string{"storytelling", "context_sharing"},
	},
	AgeInappropriate: {
		Type:        AgeInappropriate,
		Description: "Patient whose vocabulary and concerns do not match their stated age",
		Modifiers:   []Modifier{AgeMismatchLanguage},
		EmpathyCues: []string{"needs_clarification", "identity_probing"},
	},
	DemographicMismatch: {
		Type:        DemographicMismatch,
		Description: "Patient whose self-description conflicts with the expected demographics",
		Modifiers:   []Modifier{IdentityVagueness},
		EmpathyCues: []string{"needs_clarification", "identity_probing"},
	},
}

// Types returns all archetype names in stable sorted order.
func Types() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup returns the profile for a type.
func Lookup(t Type) (Profile, bool) {
	p, ok := registry[t]
	return p, ok
}

// Select picks one archetype uniformly at random. Selection is the only
// randomness in a vignette, so a fixed rng seed reproduces the run.
func Select(rng *rand.Rand) Profile {
	types := Types()
	return registry[types[rng.Intn(len(types))]]
}
