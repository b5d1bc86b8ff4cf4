package intake

import (
	"context"
	"time"
)

// SessionPatch is a typed partial update against a session record. Only
// non-nil fields are written; slice fields replace the stored value
// wholesale when non-nil. Every update refreshes updated_at.
type SessionPatch struct {
	Status    *Status
	PatientID *string

	ConversationHistory  []ChatTurn
	TotalMessages        *int
	PatientResponseCount *int

	SymptomsCollected   []Symptom
	PainLevel           *int
	UrgencyScore        *int
	UrgencyReasoning    *string
	MedicalHistoryNotes []string
	Allergies           []string
	CurrentMedications  []string

	MatchedDentistIDs        []string
	MatchingReasoning        []MatchReasoning
	SelectedDentistID        *string
	AlternativeDentistsShown *bool

	AppointmentID *string

	CompletedAt           *time.Time
	AbandonedAtStep       *Status
	IntakeDurationSeconds *int64
	ConversionScore       *int
}

// SessionStore persists intake sessions. Updates are last-write-wins per
// field; there is no optimistic-concurrency contract.
type SessionStore interface {
	// Create inserts a new session in the started state. patientID may be
	// empty for anonymous sessions.
	Create(ctx context.Context, businessID, patientID string) (*IntakeSession, error)

	// Get loads a session or returns ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*IntakeSession, error)

	// Update applies a patch as one logical write.
	Update(ctx context.Context, sessionID string, patch SessionPatch) error

	// ListByBusiness returns all sessions for a practice, optionally
	// filtered on started_at.
	ListByBusiness(ctx context.Context, businessID string, start, end *time.Time) ([]IntakeSession, error)

	// MarkMatchSelected flips the was-selected flag on the persisted
	// per-dentist match record. Best-effort from the caller's perspective.
	MarkMatchSelected(ctx context.Context, sessionID, dentistID string) error
}
