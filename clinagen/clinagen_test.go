package clinagen

import (
	"reflect"
	"testing"
)

func sampleConversation() *Conversation {
	c := &Conversation{}
	c.Append(SpeakerDoctor, "What brings you in today?", 0)
	c.Append(SpeakerPatient, "A cough that will not quit.", 0)
	c.Append(SpeakerDoctor, "How long has it lasted?", 2)
	c.Append(SpeakerPatient, "About two weeks now.", 2)
	c.Append(SpeakerDoctor, "Any fever with it?", 4)
	c.Append(SpeakerPatient, "A low one at night.", 4)
	return c
}

func TestTranscript(t *testing.T) {
	c := sampleConversation()
	want := "DOCTOR: What brings you in today?\n" +
		"PATIENT: A cough that will not quit.\n" +
		"DOCTOR: How long has it lasted?\n" +
		"PATIENT: About two weeks now.\n" +
		"DOCTOR: Any fever with it?\n" +
		"PATIENT: A low one at night."
	if got := c.Transcript(); got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestTailWindow(t *testing.T) {
	c := sampleConversation()

	want := "DOCTOR: Any fever with it?\nPATIENT: A low one at night."
	if got := c.Tail(2); got != want {
		t.Errorf("Tail(2) = %q, want %q", got, want)
	}

	// A window larger than the transcript returns the whole thing.
	if got := c.Tail(50); got != c.Transcript() {
		t.Errorf("Tail(50) = %q, want full transcript", got)
	}

	if got := (&Conversation{}).Tail(3); got != "" {
		t.Errorf("empty Tail = %q, want empty", got)
	}
}

func TestSpeakerFilters(t *testing.T) {
	c := sampleConversation()

	wantDoctor := []string{"How long has it lasted?", "Any fever with it?"}
	if got := c.DoctorQuestions(2); !reflect.DeepEqual(got, wantDoctor) {
		t.Errorf("DoctorQuestions(2) = %v, want %v", got, wantDoctor)
	}
	if got := c.DoctorQuestions(10); len(got) != 3 {
		t.Errorf("DoctorQuestions(10) len = %d, want 3", len(got))
	}

	wantPatient := []string{
		"A cough that will not quit.",
		"About two weeks now.",
		"A low one at night.",
	}
	if got := c.PatientUtterances(5); !reflect.DeepEqual(got, wantPatient) {
		t.Errorf("PatientUtterances(5) = %v, want %v", got, wantPatient)
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	c := sampleConversation()
	turns := c.Turns()
	turns[0].Utterance = "mutated"

	if c.Turns()[0].Utterance != "What brings you in today?" {
		t.Error("Turns() must not expose the internal slice")
	}
	if c.Len() != 6 {
		t.Errorf("Len() = %d, want 6", c.Len())
	}
}
