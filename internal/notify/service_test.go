package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dentalstack/intake-platform/internal/dentists"
	"github.com/dentalstack/intake-platform/internal/intake"
)

type capturingSender struct {
	sent []EmailMessage
	err  error
}

func (c *capturingSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func intPtr(v int) *int { return &v }

func sampleSession() *intake.IntakeSession {
	return &intake.IntakeSession{
		SessionID:     "intake_1700000000_abcd1234",
		BusinessID:    "biz-1",
		AppointmentID: "appt-42",
		SymptomsCollected: []intake.Symptom{
			{Text: "aching tooth", Category: "pain"},
			{Text: "swollen gums", Category: "swelling"},
		},
		PainLevel:          intPtr(7),
		UrgencyScore:       intPtr(8),
		UrgencyReasoning:   "visible swelling",
		Allergies:          []string{"penicillin"},
		CurrentMedications: []string{"ibuprofen"},
	}
}

func TestIntakeCompletedSendsDigest(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, nil)

	dentist := &dentists.Dentist{ID: "dent-a", Name: "Dr. Alvarez", Email: "alvarez@example.com"}
	if err := svc.IntakeCompleted(context.Background(), sampleSession(), dentist); err != nil {
		t.Fatalf("IntakeCompleted: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "alvarez@example.com" || msg.ToName != "Dr. Alvarez" {
		t.Errorf("recipient = %q/%q", msg.To, msg.ToName)
	}
	if !strings.Contains(msg.Subject, "intake_1700000000_abcd1234") {
		t.Errorf("subject = %q, want session id", msg.Subject)
	}
	for _, want := range []string{"aching tooth", "Pain level: 7/10", "Urgency: 8/10", "penicillin", "appt-42"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestIntakeCompletedSkipsWithoutEmail(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, nil)

	dentist := &dentists.Dentist{ID: "dent-a", Name: "Dr. Alvarez"}
	if err := svc.IntakeCompleted(context.Background(), sampleSession(), dentist); err != nil {
		t.Fatalf("IntakeCompleted: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d emails, want 0 when dentist has no address", len(sender.sent))
	}
}

func TestIntakeCompletedNilSenderIsNoop(t *testing.T) {
	svc := NewService(nil, nil)
	dentist := &dentists.Dentist{ID: "dent-a", Email: "a@example.com"}
	if err := svc.IntakeCompleted(context.Background(), sampleSession(), dentist); err != nil {
		t.Errorf("IntakeCompleted with nil sender: %v", err)
	}
}

func TestIntakeCompletedPropagatesSendFailure(t *testing.T) {
	sender := &capturingSender{err: errors.New("smtp down")}
	svc := NewService(sender, nil)

	dentist := &dentists.Dentist{ID: "dent-a", Email: "a@example.com"}
	if err := svc.IntakeCompleted(context.Background(), sampleSession(), dentist); err == nil {
		t.Error("expected error when the sender fails")
	}
}
