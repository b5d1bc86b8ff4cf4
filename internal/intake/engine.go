package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/dentalstack/intake-platform/internal/assist"
)

// TurnResult is what one successful conversation turn returns to the caller.
type TurnResult struct {
	Reply   string         `json:"reply"`
	Widget  *Widget        `json:"widget,omitempty"`
	Session *IntakeSession `json:"session"`
}

// ProcessPatientMessage advances one conversational turn: it appends the
// patient message to a working copy of the transcript, asks the
// conversation backend for a structured reply, merges extracted symptoms
// and urgency, and persists everything as one logical update. If the
// backend call fails, nothing is written and resubmitting the same message
// is safe.
//
// The next status comes from the backend's declared next step; the engine
// only does bookkeeping and persistence.
func (s *Service) ProcessPatientMessage(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.process_message")
	defer span.End()
	start := s.now()

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		s.observeTurn("not_found", start)
		return nil, err
	}
	if session.Status.Terminal() {
		s.observeTurn("terminal", start)
		return nil, fmt.Errorf("%w: status %s", ErrSessionTerminal, session.Status)
	}

	now := s.now()
	working := session.Clone()
	working.ConversationHistory = append(working.ConversationHistory, ChatTurn{
		Role:      TurnRolePatient,
		Content:   text,
		Timestamp: now,
	})

	resp, err := s.classifier.ProcessTurn(ctx, assist.ConversationRequest{
		SessionID:      session.SessionID,
		BusinessID:     session.BusinessID,
		PatientMessage: text,
		History:        historyToChat(session.ConversationHistory),
		CurrentStep:    string(session.Status),
		Symptoms:       symptomsToAssist(session.SymptomsCollected),
	})
	s.observeAI("conversation", err, now)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("conversation backend failed",
			"session_id", sessionID,
			"business_id", session.BusinessID,
			"error", err,
		)
		s.observeTurn("upstream_error", start)
		return nil, fmt.Errorf("intake: process turn for %s: %w", sessionID, err)
	}

	working.ConversationHistory = append(working.ConversationHistory, ChatTurn{
		Role:      TurnRoleAssistant,
		Content:   resp.Message,
		Timestamp: s.now(),
	})

	// Symptoms merge by concatenation; duplicates are allowed.
	for _, sym := range resp.Symptoms {
		working.SymptomsCollected = append(working.SymptomsCollected, Symptom{
			Text:     sym.Text,
			Category: sym.Category,
		})
	}

	nextStatus := session.Status
	if declared := Status(resp.NextStep); declared.Valid() {
		nextStatus = declared
	} else if resp.NextStep != "" {
		s.logger.Warn("backend declared unknown next step, keeping current status",
			"session_id", sessionID,
			"next_step", resp.NextStep,
		)
	}
	working.Status = nextStatus

	totalMessages := session.TotalMessages + 2
	patientResponses := session.PatientResponseCount + 1
	working.TotalMessages = totalMessages
	working.PatientResponseCount = patientResponses

	patch := SessionPatch{
		Status:               &nextStatus,
		ConversationHistory:  working.ConversationHistory,
		SymptomsCollected:    working.SymptomsCollected,
		TotalMessages:        &totalMessages,
		PatientResponseCount: &patientResponses,
	}
	if resp.Urgency != nil {
		// Urgency is replacement, not merge.
		score := resp.Urgency.Score
		reasoning := resp.Urgency.Reasoning
		patch.UrgencyScore = &score
		patch.UrgencyReasoning = &reasoning
		working.UrgencyScore = &score
		working.UrgencyReasoning = reasoning
		s.events.UrgencyUpdated(ctx, sessionID, session.BusinessID, score, reasoning)
	}

	if err := s.store.Update(ctx, sessionID, patch); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to persist turn",
			"session_id", sessionID,
			"business_id", session.BusinessID,
			"error", err,
		)
		s.observeTurn("store_error", start)
		return nil, fmt.Errorf("intake: persist turn for %s: %w", sessionID, err)
	}

	s.events.TurnProcessed(ctx, sessionID, session.BusinessID, nextStatus, len(resp.Symptoms))
	s.observeTurn("ok", start)

	return &TurnResult{
		Reply:   resp.Message,
		Widget:  SelectWidget(resp, working),
		Session: working,
	}, nil
}

// RecordPainLevel stores the patient's answer to the pain-scale prompt and
// returns the updated session. Levels clamp to the 0-10 scale.
func (s *Service) RecordPainLevel(ctx context.Context, sessionID string, level int) (*IntakeSession, error) {
	if level < 0 {
		level = 0
	}
	if level > 10 {
		level = 10
	}
	if err := s.store.Update(ctx, sessionID, SessionPatch{PainLevel: &level}); err != nil {
		return nil, fmt.Errorf("intake: record pain level for %s: %w", sessionID, err)
	}
	return s.store.Get(ctx, sessionID)
}

// RecordMedicalHistory stores the answers from the medical-history form.
// Each submitted list replaces the previously stored value wholesale; a nil
// list leaves the stored value untouched.
func (s *Service) RecordMedicalHistory(ctx context.Context, sessionID string, notes, allergies, medications []string) (*IntakeSession, error) {
	patch := SessionPatch{
		MedicalHistoryNotes: notes,
		Allergies:           allergies,
		CurrentMedications:  medications,
	}
	if err := s.store.Update(ctx, sessionID, patch); err != nil {
		return nil, fmt.Errorf("intake: record medical history for %s: %w", sessionID, err)
	}
	return s.store.Get(ctx, sessionID)
}

func (s *Service) observeTurn(status string, start time.Time) {
	s.metrics.ObserveTurn(status, s.now().Sub(start).Seconds())
}

func (s *Service) observeAI(backend string, err error, start time.Time) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.ObserveAICall(backend, status, s.now().Sub(start).Seconds())
}

func historyToChat(history []ChatTurn) []assist.ChatMessage {
	out := make([]assist.ChatMessage, 0, len(history))
	for _, turn := range history {
		role := assist.ChatRoleUser
		if turn.Role == TurnRoleAssistant {
			role = assist.ChatRoleAssistant
		}
		out = append(out, assist.ChatMessage{Role: role, Content: turn.Content})
	}
	return out
}

func symptomsToAssist(symptoms []Symptom) []assist.ExtractedSymptom {
	out := make([]assist.ExtractedSymptom, 0, len(symptoms))
	for _, s := range symptoms {
		out = append(out, assist.ExtractedSymptom{Text: s.Text, Category: s.Category})
	}
	return out
}
