package intake

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the position of a session in the intake flow. Transitions are
// dictated by the conversation AI backend; completed and abandoned are
// terminal.
type Status string

const (
	StatusStarted              Status = "started"
	StatusCollectingSymptoms   Status = "collecting_symptoms"
	StatusAssessingUrgency     Status = "assessing_urgency"
	StatusCollectingHistory    Status = "collecting_history"
	StatusMatchingDentist      Status = "matching_dentist"
	StatusSelectingAppointment Status = "selecting_appointment"
	StatusCompleted            Status = "completed"
	StatusAbandoned            Status = "abandoned"
)

// Valid reports whether s is a known flow status.
func (s Status) Valid() bool {
	switch s {
	case StatusStarted, StatusCollectingSymptoms, StatusAssessingUrgency,
		StatusCollectingHistory, StatusMatchingDentist, StatusSelectingAppointment,
		StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// Terminal reports whether no further conversation turns are meaningful.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

const (
	TurnRolePatient   = "patient"
	TurnRoleAssistant = "assistant"
)

// ChatTurn is one entry of the append-only conversation transcript.
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Symptom is an immutable value collected during the conversation.
// Duplicates are allowed; the list is append-only within a session.
type Symptom struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// SymptomCategoryPain is the category that triggers the pain-scale prompt.
const SymptomCategoryPain = "pain"

// SpecializationMatch is the locally synthesized specialization overlap
// attached to each ranked dentist.
type SpecializationMatch struct {
	Score           float64  `json:"score"`
	Specializations []string `json:"specializations"`
}

// AvailabilitySummary captures what was known about a dentist's calendar at
// matching time. TotalSlots stays zero when slot counting is not computed
// during matching.
type AvailabilitySummary struct {
	EarliestSlot *time.Time `json:"earliest_slot,omitempty"`
	TotalSlots   int        `json:"total_slots"`
}

// MatchReasoning is the structured rationale for one ranked dentist.
type MatchReasoning struct {
	DentistID      string              `json:"dentist_id"`
	Score          float64             `json:"score"`
	Reasoning      string              `json:"reasoning"`
	Highlights     []string            `json:"highlights"`
	Specialization SpecializationMatch `json:"specialization"`
	Availability   AvailabilitySummary `json:"availability"`
	WasSelected    bool                `json:"was_selected"`
}

// IntakeSession is the central entity: one conversational encounter from
// first patient message to booking or abandonment.
type IntakeSession struct {
	SessionID  string `json:"session_id"`
	BusinessID string `json:"business_id"`
	PatientID  string `json:"patient_id,omitempty"`

	Status               Status     `json:"status"`
	ConversationHistory  []ChatTurn `json:"conversation_history"`
	TotalMessages        int        `json:"total_messages"`
	PatientResponseCount int        `json:"patient_response_count"`

	SymptomsCollected   []Symptom `json:"symptoms_collected"`
	PainLevel           *int      `json:"pain_level,omitempty"`
	UrgencyScore        *int      `json:"urgency_score,omitempty"`
	UrgencyReasoning    string    `json:"urgency_reasoning,omitempty"`
	MedicalHistoryNotes []string  `json:"medical_history_notes,omitempty"`
	Allergies           []string  `json:"allergies,omitempty"`
	CurrentMedications  []string  `json:"current_medications,omitempty"`

	MatchedDentistIDs        []string         `json:"matched_dentist_ids,omitempty"`
	MatchingReasoning        []MatchReasoning `json:"matching_reasoning,omitempty"`
	SelectedDentistID        string           `json:"selected_dentist_id,omitempty"`
	AlternativeDentistsShown bool             `json:"alternative_dentists_shown"`

	AppointmentID string `json:"appointment_id,omitempty"`

	StartedAt             time.Time  `json:"started_at"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	AbandonedAtStep       Status     `json:"abandoned_at_step,omitempty"`
	IntakeDurationSeconds *int64     `json:"intake_duration_seconds,omitempty"`
	ConversionScore       *int       `json:"conversion_score,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate working state without
// touching the stored record.
func (s *IntakeSession) Clone() *IntakeSession {
	if s == nil {
		return nil
	}
	out := *s
	out.ConversationHistory = append([]ChatTurn(nil), s.ConversationHistory...)
	out.SymptomsCollected = append([]Symptom(nil), s.SymptomsCollected...)
	out.MedicalHistoryNotes = append([]string(nil), s.MedicalHistoryNotes...)
	out.Allergies = append([]string(nil), s.Allergies...)
	out.CurrentMedications = append([]string(nil), s.CurrentMedications...)
	out.MatchedDentistIDs = append([]string(nil), s.MatchedDentistIDs...)
	out.MatchingReasoning = append([]MatchReasoning(nil), s.MatchingReasoning...)
	for i := range out.MatchingReasoning {
		r := &out.MatchingReasoning[i]
		r.Highlights = append([]string(nil), r.Highlights...)
		r.Specialization.Specializations = append([]string(nil), r.Specialization.Specializations...)
		if r.Availability.EarliestSlot != nil {
			t := *r.Availability.EarliestSlot
			r.Availability.EarliestSlot = &t
		}
	}
	if s.PainLevel != nil {
		v := *s.PainLevel
		out.PainLevel = &v
	}
	if s.UrgencyScore != nil {
		v := *s.UrgencyScore
		out.UrgencyScore = &v
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	if s.IntakeDurationSeconds != nil {
		v := *s.IntakeDurationSeconds
		out.IntakeDurationSeconds = &v
	}
	if s.ConversionScore != nil {
		v := *s.ConversionScore
		out.ConversionScore = &v
	}
	return &out
}

// NewSessionID generates the caller-visible correlation key: a time-based
// prefix plus a random suffix.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("intake_%d_%s", now.Unix(), uuid.NewString()[:8])
}
