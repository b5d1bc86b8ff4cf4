package intake

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dentalstack/intake-platform/pkg/logging"
)

// IntakeEvent is a structured event at a decision point in the intake flow.
// All events share the same base fields for easy filtering/grep.
type IntakeEvent struct {
	Time       string         `json:"time"`
	Event      string         `json:"event"`
	SessionID  string         `json:"session_id"`
	BusinessID string         `json:"business_id"`
	Data       map[string]any `json:"data,omitempty"`
}

// EventLogger emits structured JSON events across the session lifecycle.
// Designed for fast grep/filter debugging:
//
//	grep '"event":"urgency_updated"' /var/log/app.log
//	grep '"session_id":"intake_abc"' /var/log/app.log
type EventLogger struct {
	logger *logging.Logger
}

// NewEventLogger creates a new intake event logger.
func NewEventLogger(logger *logging.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Log emits a structured intake event.
func (e *EventLogger) Log(_ context.Context, event, sessionID, businessID string, data map[string]any) {
	if e == nil || e.logger == nil {
		return
	}
	evt := IntakeEvent{
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Event:      event,
		SessionID:  sessionID,
		BusinessID: businessID,
		Data:       data,
	}
	b, _ := json.Marshal(evt)
	e.logger.Info(string(b))
}

// Convenience methods for common events:

func (e *EventLogger) SessionStarted(ctx context.Context, sessionID, businessID, patientID string) {
	e.Log(ctx, "session_started", sessionID, businessID, map[string]any{
		"patient_id": patientID,
	})
}

func (e *EventLogger) TurnProcessed(ctx context.Context, sessionID, businessID string, status Status, newSymptoms int) {
	e.Log(ctx, "turn_processed", sessionID, businessID, map[string]any{
		"status":       string(status),
		"new_symptoms": newSymptoms,
	})
}

// UrgencyUpdated keeps an auditable trace of urgency changes even though the
// session record itself is last-write-wins.
func (e *EventLogger) UrgencyUpdated(ctx context.Context, sessionID, businessID string, score int, reasoning string) {
	e.Log(ctx, "urgency_updated", sessionID, businessID, map[string]any{
		"score":     score,
		"reasoning": reasoning,
	})
}

func (e *EventLogger) MatchingCompleted(ctx context.Context, sessionID, businessID string, rosterSize, matched int) {
	e.Log(ctx, "matching_completed", sessionID, businessID, map[string]any{
		"roster_size": rosterSize,
		"matched":     matched,
	})
}

func (e *EventLogger) DentistSelected(ctx context.Context, sessionID, businessID, dentistID string) {
	e.Log(ctx, "dentist_selected", sessionID, businessID, map[string]any{
		"dentist_id": dentistID,
	})
}

func (e *EventLogger) SessionCompleted(ctx context.Context, sessionID, businessID, appointmentID string, score int) {
	e.Log(ctx, "session_completed", sessionID, businessID, map[string]any{
		"appointment_id":   appointmentID,
		"conversion_score": score,
	})
}

func (e *EventLogger) SessionAbandoned(ctx context.Context, sessionID, businessID string, atStep Status) {
	e.Log(ctx, "session_abandoned", sessionID, businessID, map[string]any{
		"abandoned_at_step": string(atStep),
	})
}
