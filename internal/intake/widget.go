package intake

import "github.com/dentalstack/intake-platform/internal/assist"

// WidgetKind identifies which interactive component the UI should render
// after a turn. A widget is a tagged payload, not a UI implementation.
type WidgetKind string

const (
	WidgetSymptomSelector     WidgetKind = "symptom_selector"
	WidgetPainScale           WidgetKind = "pain_scale"
	WidgetUrgencySummary      WidgetKind = "urgency_summary"
	WidgetMedicalHistoryForm  WidgetKind = "medical_history_form"
	WidgetAppointmentCalendar WidgetKind = "appointment_calendar"
)

// Widget is the next UI prompt descriptor.
type Widget struct {
	Kind      WidgetKind                `json:"kind"`
	DentistID string                    `json:"dentist_id,omitempty"`
	Urgency   *assist.UrgencyAssessment `json:"urgency,omitempty"`
}

// SelectWidget maps an AI turn response plus the session state onto the next
// UI prompt. Pure: no I/O, no side effects, fully derivable from its inputs.
// The session passed in reflects the state after the turn was applied.
func SelectWidget(resp *assist.ConversationResponse, session *IntakeSession) *Widget {
	if resp == nil || session == nil {
		return nil
	}

	switch Status(resp.NextStep) {
	case StatusCollectingSymptoms:
		if len(session.SymptomsCollected) == 0 {
			return &Widget{Kind: WidgetSymptomSelector}
		}
		if session.PainLevel == nil && hasPainSymptom(session.SymptomsCollected) {
			return &Widget{Kind: WidgetPainScale}
		}
		return nil
	case StatusAssessingUrgency:
		if resp.Urgency != nil {
			return &Widget{Kind: WidgetUrgencySummary, Urgency: resp.Urgency}
		}
		return nil
	case StatusCollectingHistory:
		return &Widget{Kind: WidgetMedicalHistoryForm}
	case StatusSelectingAppointment:
		return &Widget{Kind: WidgetAppointmentCalendar, DentistID: session.SelectedDentistID}
	default:
		// matching_dentist runs as a separate explicit operation; terminal
		// and unknown states render nothing.
		return nil
	}
}

func hasPainSymptom(symptoms []Symptom) bool {
	for _, s := range symptoms {
		if s.Category == SymptomCategoryPain {
			return true
		}
	}
	return false
}
