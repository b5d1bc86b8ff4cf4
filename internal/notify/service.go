package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/dentalstack/intake-platform/internal/dentists"
	"github.com/dentalstack/intake-platform/internal/intake"
	"github.com/dentalstack/intake-platform/pkg/logging"
)

// Service emails the matched dentist when a patient finishes an intake
// conversation. It implements the intake flow's CompletionNotifier; callers
// treat failures as non-fatal.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// IntakeCompleted emails the dentist a short digest of the finished intake.
func (s *Service) IntakeCompleted(ctx context.Context, session *intake.IntakeSession, dentist *dentists.Dentist) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping notification")
		return nil
	}
	if dentist.Email == "" {
		s.logger.Warn("notify: dentist has no email address", "dentist_id", dentist.ID)
		return nil
	}

	msg := EmailMessage{
		To:      dentist.Email,
		ToName:  dentist.Name,
		Subject: fmt.Sprintf("New patient intake completed (%s)", session.SessionID),
		Body:    buildIntakeDigest(session),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send intake notification: %w", err)
	}

	s.logger.Info("intake completion notification sent",
		"session_id", session.SessionID,
		"dentist_id", dentist.ID,
	)
	return nil
}

// buildIntakeDigest renders the plain-text email body. The full clinical
// summary lives on the appointment record; this is just the headline view.
func buildIntakeDigest(session *intake.IntakeSession) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A patient has completed their intake conversation.\n\n")
	fmt.Fprintf(&b, "Session: %s\n", session.SessionID)
	if session.AppointmentID != "" {
		fmt.Fprintf(&b, "Appointment: %s\n", session.AppointmentID)
	}

	if len(session.SymptomsCollected) > 0 {
		b.WriteString("\nReported symptoms:\n")
		for _, symptom := range session.SymptomsCollected {
			fmt.Fprintf(&b, "  - %s (%s)\n", symptom.Text, symptom.Category)
		}
	}
	if session.PainLevel != nil {
		fmt.Fprintf(&b, "\nPain level: %d/10\n", *session.PainLevel)
	}
	if session.UrgencyScore != nil {
		fmt.Fprintf(&b, "Urgency: %d/10", *session.UrgencyScore)
		if session.UrgencyReasoning != "" {
			fmt.Fprintf(&b, " (%s)", session.UrgencyReasoning)
		}
		b.WriteString("\n")
	}
	if len(session.Allergies) > 0 {
		fmt.Fprintf(&b, "Allergies: %s\n", strings.Join(session.Allergies, ", "))
	}
	if len(session.CurrentMedications) > 0 {
		fmt.Fprintf(&b, "Medications: %s\n", strings.Join(session.CurrentMedications, ", "))
	}

	b.WriteString("\nThe full clinical summary is attached to the appointment record.\n")
	return b.String()
}
