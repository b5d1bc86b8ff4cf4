package assist

import (
	"context"

	"github.com/dentalstack/intake-platform/internal/dentists"
)

// ExtractedSymptom is a symptom the classifier pulled out of a patient turn.
type ExtractedSymptom struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// UrgencyAssessment is the classifier's view of how urgent the case is.
type UrgencyAssessment struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// ConversationRequest carries one patient turn plus the session context the
// model needs to decide what to say and where the flow goes next.
type ConversationRequest struct {
	SessionID      string
	BusinessID     string
	PatientMessage string
	History        []ChatMessage
	CurrentStep    string
	Symptoms       []ExtractedSymptom
}

// ConversationResponse is the structured reply for one turn. NextStep is
// authoritative: the engine persists it as the session status.
type ConversationResponse struct {
	Message  string
	NextStep string
	Symptoms []ExtractedSymptom
	Urgency  *UrgencyAssessment
}

// ConversationClassifier advances one conversational turn. The intake
// engine delegates all state-transition decisions to this backend.
type ConversationClassifier interface {
	ProcessTurn(ctx context.Context, req ConversationRequest) (*ConversationResponse, error)
}

// MatchCandidate pairs a dentist profile with their declared specializations.
type MatchCandidate struct {
	Dentist         dentists.Dentist
	Specializations []string
}

// MatchRequest asks the model to rank candidates against the collected
// clinical picture.
type MatchRequest struct {
	SessionID    string
	BusinessID   string
	Symptoms     []ExtractedSymptom
	UrgencyScore int
	Candidates   []MatchCandidate
}

// MatchedDentist is one ranked entry of the matcher's response.
type MatchedDentist struct {
	DentistID           string   `json:"dentist_id"`
	Score               float64  `json:"overall_match_score"`
	Reasoning           string   `json:"match_reasoning"`
	Highlights          []string `json:"match_highlights"`
	SpecializationScore float64  `json:"specialization_match_score"`
}

// MatchResponse preserves the model's ranking order: best match first.
type MatchResponse struct {
	Matches []MatchedDentist
}

// DentistMatcher ranks candidate dentists for a session. The returned order
// is authoritative and must be preserved by callers.
type DentistMatcher interface {
	MatchDentists(ctx context.Context, req MatchRequest) (*MatchResponse, error)
}

// SummaryRequest asks for a clinical hand-off summary of a finished intake.
type SummaryRequest struct {
	SessionID    string
	BusinessID   string
	History      []ChatMessage
	Symptoms     []ExtractedSymptom
	UrgencyScore *int
}

// Summarizer produces the dentist-facing summary written onto the booked
// appointment after completion.
type Summarizer interface {
	SummarizeForDentist(ctx context.Context, req SummaryRequest) (string, error)
}
