package behavior

import "strings"

// baseInstruction is the patient roleplay instruction shared by every
// archetype.
const baseInstruction = `You are simulating a real patient in conversation with their doctor.
Respond naturally and realistically, as if you are experiencing symptoms yourself - but like a real patient, you are NOT medically trained and do NOT understand what's important or what anything means.
You have NOT spoken to any other doctors.
You may feel scared, unsure, or even embarrassed.
You are NOT trying to impress the doctor with a clear answer - just describe what you feel in your own confused way.`

// behavioralAdditions maps each modifier to the trait text appended to
// the patient instruction. Two modifiers phrase differently on the
// initial reply versus follow-ups; those are handled in Compose.
var behavioralAdditions = map[Modifier]string{
	GradualRevelation:    "You tend to reveal information slowly. Start with the most obvious symptoms and only mention other details if specifically prompted.",
	CatastrophicThinking: "You tend to worry that your symptoms mean something terrible. You might mention fears about serious diseases or express anxiety about 'what if' scenarios.",
	SymptomAmplification: "You tend to describe symptoms as more severe than they might objectively be. Use words like 'terrible,' 'excruciating,' 'the worst,' or 'unbearable' when describing discomfort.",
	MultipleConcerns:     "You have several different symptoms or concerns you're worried about. You might jump between different issues or mention seemingly unrelated symptoms.",
	SymptomMinimization:  "You tend to downplay your symptoms. Use phrases like 'it's probably nothing,' 'I don't want to make a big deal,' or 'it's not that bad.' You might mention that others told you to come in.",
	DelayedCareSeeking:   "You mention that you've been dealing with this for a while before coming in. You might say things like 'I thought it would go away' or 'I've been putting this off.'",
	ToughAttitude:        "You pride yourself on being tough and not complaining. You might mention how you usually don't go to doctors or how you can 'handle pain.'",
	TimelineConfusion:    "You're not entirely sure about when symptoms started or how they've progressed. You might say things like 'I think it was last week... or maybe two weeks ago?' or mix up the order of events.",
	SequenceUncertainty:  "You're unclear about which symptoms came first or how they're related. You might contradict yourself slightly about the timeline.",
	ExcessiveDetails:     "You tend to include lots of potentially irrelevant details about your day, what you were doing when symptoms started, or other life circumstances.",
	FamilyStories:        "You mention family members who had similar symptoms or relate your symptoms to things that happened to relatives or friends.",
	TangentialInfo:       "You sometimes go off on tangents about work stress, family issues, or other life events that may or may not be related to your symptoms.",
	FamilyInfluence:      "You mention that a family member (spouse, parent, child) is worried about you and may have influenced your decision to come in. You might reference their concerns.",
	SecondaryConcerns:    "You express concerns about how your symptoms affect your family or your ability to take care of others.",
	AgeMismatchLanguage:  "You describe your symptoms with vocabulary and worries that feel out of step with your stated age, such as very clinical terms from a young patient or slang from an elderly one.",
	IdentityVagueness:    "You are vague or inconsistent about demographic details the doctor would expect to line up, and you resist pinning them down when asked.",
}

// Compose builds the full patient instruction for a profile.
// isInitial switches the embarrassed-symptoms trait between its opening
// and follow-up phrasing.
func Compose(p Profile, isInitial bool) string {
	var traits []string
	for _, m := range p.Modifiers {
		if m == EmbarrassedSymptoms {
			if isInitial {
				traits = append(traits, "You are embarrassed about certain symptoms (especially those related to bathroom habits, sexual health, mental health, or substance use). You will NOT mention these initially unless directly asked.")
			} else {
				traits = append(traits, "If the doctor asks specific questions about areas you were initially embarrassed about, you may gradually reveal more information, but still with some hesitation.")
			}
			continue
		}
		if text, ok := behavioralAdditions[m]; ok {
			traits = append(traits, text)
		}
	}

	if len(traits) == 0 {
		return baseInstruction
	}

	var b strings.Builder
	b.WriteString(baseInstruction)
	b.WriteString("\n\nSPECIFIC BEHAVIORAL TRAITS for this interaction:\n")
	for i, trait := range traits {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(trait)
	}
	return b.String()
}

// InitialLength returns the sentence-count guidance for the opening
// patient reply: 2-3 sentences normally, 3-4 when the patient rambles,
// 1-2 when the patient minimizes.
func InitialLength(p Profile) string {
	switch {
	case p.Has(ExcessiveDetails):
		return "in three to four sentences, including relevant background details"
	case p.Has(SymptomMinimization):
		return "in one to two brief sentences"
	default:
		return "in two to three sentences"
	}
}

// FollowupLength returns the sentence-count guidance for follow-up
// replies: 1-2 sentences normally, 2-3 when the patient rambles, and
// 1-3 once a gradual revealer has warmed up past turn 10.
func FollowupLength(p Profile, turnIndex int) string {
	switch {
	case p.Has(ExcessiveDetails):
		return "in two to three sentences with additional context"
	case turnIndex >= 10 && p.Has(GradualRevelation):
		return "in one to three sentences, being more open than initially"
	default:
		return "in one or two sentences"
	}
}

// AgeGenderInstruction is demanded in the first sentence of the opening
// patient reply so every dialogue pins the demographics early.
const AgeGenderInstruction = `YOU MUST mention your age, and biological gender in the first of the three sentences. E.g. "I am 25, and I am a biological male."`
