package intake

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dentalstack/intake-platform/internal/assist"
)

func TestProcessPatientMessageAppendsTurnsAndSymptoms(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")

	env.classifier.resp = &assist.ConversationResponse{
		Message:  "I'm sorry to hear that. How long has it hurt?",
		NextStep: string(StatusCollectingSymptoms),
		Symptoms: []assist.ExtractedSymptom{{Text: "aching tooth", Category: "pain"}},
	}

	result, err := env.service.ProcessPatientMessage(context.Background(), session.SessionID, "my tooth aches")
	if err != nil {
		t.Fatalf("ProcessPatientMessage: %v", err)
	}

	if result.Reply != env.classifier.resp.Message {
		t.Errorf("reply = %q, want %q", result.Reply, env.classifier.resp.Message)
	}
	if got := result.Session.Status; got != StatusCollectingSymptoms {
		t.Errorf("status = %s, want %s", got, StatusCollectingSymptoms)
	}
	if len(result.Session.ConversationHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(result.Session.ConversationHistory))
	}
	if result.Session.ConversationHistory[0].Role != TurnRolePatient {
		t.Errorf("first turn role = %s, want patient", result.Session.ConversationHistory[0].Role)
	}
	if result.Session.ConversationHistory[1].Role != TurnRoleAssistant {
		t.Errorf("second turn role = %s, want assistant", result.Session.ConversationHistory[1].Role)
	}
	if result.Session.TotalMessages != 2 || result.Session.PatientResponseCount != 1 {
		t.Errorf("counters = (%d, %d), want (2, 1)",
			result.Session.TotalMessages, result.Session.PatientResponseCount)
	}
	if len(result.Session.SymptomsCollected) != 1 {
		t.Errorf("symptoms = %d, want 1", len(result.Session.SymptomsCollected))
	}

	// The persisted record matches what the caller saw.
	stored, err := env.store.Get(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.TotalMessages != 2 || len(stored.ConversationHistory) != 2 {
		t.Errorf("stored counters = (%d, %d turns), want (2, 2)",
			stored.TotalMessages, len(stored.ConversationHistory))
	}
}

func TestProcessPatientMessageHistoryIsAppendOnly(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")

	env.classifier.resp = &assist.ConversationResponse{
		Message:  "noted",
		NextStep: string(StatusCollectingSymptoms),
		Symptoms: []assist.ExtractedSymptom{{Text: "sore gums", Category: "discomfort"}},
	}

	const turns = 4
	prevHistory := []ChatTurn{}
	var prevSymptoms int
	for i := 0; i < turns; i++ {
		result, err := env.service.ProcessPatientMessage(context.Background(), session.SessionID, "still hurts")
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}

		history := result.Session.ConversationHistory
		if len(history) != 2*(i+1) {
			t.Fatalf("turn %d: history length = %d, want %d", i, len(history), 2*(i+1))
		}
		if !reflect.DeepEqual(history[:len(prevHistory)], prevHistory) {
			t.Fatalf("turn %d: earlier history entries mutated", i)
		}
		if len(result.Session.SymptomsCollected) < prevSymptoms {
			t.Fatalf("turn %d: symptoms shrank from %d to %d",
				i, prevSymptoms, len(result.Session.SymptomsCollected))
		}
		prevHistory = history
		prevSymptoms = len(result.Session.SymptomsCollected)
	}
}

func TestProcessPatientMessageBackendFailureLeavesSessionUntouched(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")
	env.classifier.err = errors.New("model timeout")

	before, _ := env.store.Get(context.Background(), session.SessionID)

	_, err := env.service.ProcessPatientMessage(context.Background(), session.SessionID, "hello")
	if err == nil {
		t.Fatal("expected error when backend fails")
	}

	after, _ := env.store.Get(context.Background(), session.SessionID)
	if !reflect.DeepEqual(before, after) {
		t.Error("session changed despite failed turn")
	}
}

func TestProcessPatientMessageUrgencyIsReplaced(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")

	env.classifier.resp = &assist.ConversationResponse{
		Message:  "that sounds urgent",
		NextStep: string(StatusAssessingUrgency),
		Urgency:  &assist.UrgencyAssessment{Score: 4, Reasoning: "moderate"},
	}
	if _, err := env.service.ProcessPatientMessage(context.Background(), session.SessionID, "it throbs"); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	env.classifier.resp.Urgency = &assist.UrgencyAssessment{Score: 8, Reasoning: "severe swelling"}
	result, err := env.service.ProcessPatientMessage(context.Background(), session.SessionID, "my face is swelling")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if result.Session.UrgencyScore == nil || *result.Session.UrgencyScore != 8 {
		t.Errorf("urgency score = %v, want 8", result.Session.UrgencyScore)
	}
	if result.Session.UrgencyReasoning != "severe swelling" {
		t.Errorf("urgency reasoning = %q, want replacement", result.Session.UrgencyReasoning)
	}
}

func TestProcessPatientMessageUnknownNextStepKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")

	env.classifier.resp = &assist.ConversationResponse{
		Message:  "hmm",
		NextStep: "teleportation",
	}
	result, err := env.service.ProcessPatientMessage(context.Background(), session.SessionID, "hi")
	if err != nil {
		t.Fatalf("ProcessPatientMessage: %v", err)
	}
	if result.Session.Status != StatusStarted {
		t.Errorf("status = %s, want unchanged %s", result.Session.Status, StatusStarted)
	}
}

func TestProcessPatientMessageRejectsTerminalSession(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")

	if _, err := env.service.AbandonIntake(context.Background(), session.SessionID, StatusStarted); err != nil {
		t.Fatalf("AbandonIntake: %v", err)
	}

	_, err := env.service.ProcessPatientMessage(context.Background(), session.SessionID, "hello?")
	if !errors.Is(err, ErrSessionTerminal) {
		t.Errorf("err = %v, want ErrSessionTerminal", err)
	}
	if env.classifier.calls != 0 {
		t.Errorf("classifier called %d times on a terminal session", env.classifier.calls)
	}
}

func TestProcessPatientMessageUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.ProcessPatientMessage(context.Background(), "intake_missing", "hi")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRecordMedicalHistory(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")

	updated, err := env.service.RecordMedicalHistory(context.Background(), session.SessionID,
		[]string{"diabetic"}, []string{"penicillin"}, nil)
	if err != nil {
		t.Fatalf("RecordMedicalHistory: %v", err)
	}
	if !reflect.DeepEqual(updated.MedicalHistoryNotes, []string{"diabetic"}) {
		t.Errorf("history notes = %v", updated.MedicalHistoryNotes)
	}
	if !reflect.DeepEqual(updated.Allergies, []string{"penicillin"}) {
		t.Errorf("allergies = %v", updated.Allergies)
	}
	if len(updated.CurrentMedications) != 0 {
		t.Errorf("medications = %v, want untouched", updated.CurrentMedications)
	}

	// A later submission replaces only what it carries.
	updated, err = env.service.RecordMedicalHistory(context.Background(), session.SessionID,
		nil, nil, []string{"ibuprofen"})
	if err != nil {
		t.Fatalf("RecordMedicalHistory: %v", err)
	}
	if !reflect.DeepEqual(updated.Allergies, []string{"penicillin"}) {
		t.Errorf("allergies after second submit = %v, want preserved", updated.Allergies)
	}
	if !reflect.DeepEqual(updated.CurrentMedications, []string{"ibuprofen"}) {
		t.Errorf("medications = %v", updated.CurrentMedications)
	}
}

func TestRecordPainLevelClamps(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustCreateSession(t, "biz-1")

	updated, err := env.service.RecordPainLevel(context.Background(), session.SessionID, 14)
	if err != nil {
		t.Fatalf("RecordPainLevel: %v", err)
	}
	if updated.PainLevel == nil || *updated.PainLevel != 10 {
		t.Errorf("pain level = %v, want 10", updated.PainLevel)
	}
}
