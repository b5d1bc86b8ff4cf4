package intake

import (
	"context"
	"fmt"

	"github.com/dentalstack/intake-platform/internal/assist"
)

// CompletionResult reports a finished intake. SummaryAttached and
// NotifierRan are false when the corresponding best-effort step failed;
// the completion itself already committed either way.
type CompletionResult struct {
	SessionID       string `json:"session_id"`
	AppointmentID   string `json:"appointment_id"`
	ConversionScore int    `json:"conversion_score"`
	DurationSeconds int64  `json:"duration_seconds"`
	SummaryAttached bool   `json:"summary_attached"`
	NotifierRan     bool   `json:"notifier_ran"`
}

// SelectDentist records the patient's choice and moves the session to
// appointment selection. The was-selected marker on the persisted match
// record is updated best-effort; its failure does not undo the selection.
func (s *Service) SelectDentist(ctx context.Context, sessionID, dentistID string) (bool, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.select_dentist")
	defer span.End()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	status := StatusSelectingAppointment
	patch := SessionPatch{
		Status:            &status,
		SelectedDentistID: &dentistID,
	}
	if err := s.store.Update(ctx, sessionID, patch); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("intake: persist dentist selection for %s: %w", sessionID, err)
	}

	if err := s.store.MarkMatchSelected(ctx, sessionID, dentistID); err != nil {
		s.logger.Warn("failed to mark match record as selected",
			"session_id", sessionID,
			"dentist_id", dentistID,
			"error", err,
		)
	}

	s.events.DentistSelected(ctx, sessionID, session.BusinessID, dentistID)
	return true, nil
}

// AbandonIntake terminates the session and records where in the flow the
// patient dropped off. currentStatus is the caller's view at the moment of
// abandonment; it is recorded as supplied, with no reconciliation against
// whatever is persisted.
func (s *Service) AbandonIntake(ctx context.Context, sessionID string, currentStatus Status) (bool, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.abandon")
	defer span.End()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	status := StatusAbandoned
	patch := SessionPatch{
		Status:          &status,
		AbandonedAtStep: &currentStatus,
	}
	if err := s.store.Update(ctx, sessionID, patch); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("intake: persist abandonment for %s: %w", sessionID, err)
	}

	s.metrics.ObserveSession("abandoned")
	s.events.SessionAbandoned(ctx, sessionID, session.BusinessID, currentStatus)
	return true, nil
}

// CompleteIntake closes out a session against a booked appointment. The
// primary update (status, appointment link, timestamps, score) commits as
// one write; the clinical summary and the dentist notification are
// secondary writes that may fail without affecting completion.
func (s *Service) CompleteIntake(ctx context.Context, sessionID, appointmentID string) (*CompletionResult, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.complete")
	defer span.End()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now()
	duration := int64(now.Sub(session.StartedAt).Seconds())
	score := ConversionScore(session)

	status := StatusCompleted
	patch := SessionPatch{
		Status:                &status,
		AppointmentID:         &appointmentID,
		CompletedAt:           &now,
		IntakeDurationSeconds: &duration,
		ConversionScore:       &score,
	}
	if err := s.store.Update(ctx, sessionID, patch); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("intake: persist completion for %s: %w", sessionID, err)
	}

	s.metrics.ObserveSession("completed")
	s.events.SessionCompleted(ctx, sessionID, session.BusinessID, appointmentID, score)

	result := &CompletionResult{
		SessionID:       sessionID,
		AppointmentID:   appointmentID,
		ConversionScore: score,
		DurationSeconds: duration,
	}
	result.SummaryAttached = s.attachSummary(ctx, session, appointmentID)
	result.NotifierRan = s.notifyDentist(ctx, session)
	return result, nil
}

// attachSummary generates the dentist-facing clinical summary and writes it
// onto the appointment. Failures are logged and swallowed.
func (s *Service) attachSummary(ctx context.Context, session *IntakeSession, appointmentID string) bool {
	if s.summarizer == nil || s.appointments == nil {
		return false
	}

	start := s.now()
	summary, err := s.summarizer.SummarizeForDentist(ctx, assist.SummaryRequest{
		SessionID:    session.SessionID,
		BusinessID:   session.BusinessID,
		History:      historyToChat(session.ConversationHistory),
		Symptoms:     symptomsToAssist(session.SymptomsCollected),
		UrgencyScore: session.UrgencyScore,
	})
	s.observeAI("summary", err, start)
	if err != nil {
		s.logger.Warn("clinical summary generation failed",
			"session_id", session.SessionID,
			"appointment_id", appointmentID,
			"error", err,
		)
		return false
	}

	if err := s.appointments.AttachIntakeSummary(ctx, appointmentID, summary); err != nil {
		s.logger.Warn("failed to attach clinical summary to appointment",
			"session_id", session.SessionID,
			"appointment_id", appointmentID,
			"error", err,
		)
		return false
	}
	return true
}

// notifyDentist emails the selected dentist about the finished intake.
// Failures are logged and swallowed.
func (s *Service) notifyDentist(ctx context.Context, session *IntakeSession) bool {
	if s.notifier == nil || session.SelectedDentistID == "" {
		return false
	}

	dentist, err := s.roster.GetByID(ctx, session.SelectedDentistID)
	if err != nil {
		s.logger.Warn("failed to load selected dentist for notification",
			"session_id", session.SessionID,
			"dentist_id", session.SelectedDentistID,
			"error", err,
		)
		return false
	}
	if err := s.notifier.IntakeCompleted(ctx, session, dentist); err != nil {
		s.logger.Warn("completion notification failed",
			"session_id", session.SessionID,
			"dentist_id", dentist.ID,
			"error", err,
		)
		return false
	}
	return true
}

// ConversionScore grades how complete an intake was. It is a pure function
// of the session's collected data: base 50, plus 5 per symptom capped at
// 20, plus 10 each for a recorded pain level, a recorded urgency score,
// any history/allergy/medication data, five or more patient responses, and
// a selected dentist. Clamped to 100.
func ConversionScore(session *IntakeSession) int {
	score := 50

	symptomPoints := len(session.SymptomsCollected) * 5
	if symptomPoints > 20 {
		symptomPoints = 20
	}
	score += symptomPoints

	if session.PainLevel != nil {
		score += 10
	}
	if session.UrgencyScore != nil {
		score += 10
	}
	if len(session.MedicalHistoryNotes) > 0 || len(session.Allergies) > 0 || len(session.CurrentMedications) > 0 {
		score += 10
	}
	if session.PatientResponseCount >= 5 {
		score += 10
	}
	if session.SelectedDentistID != "" {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}
