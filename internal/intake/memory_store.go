package intake

import (
	"context"
	"sync"
	"time"
)

// InMemorySessionStore is a SessionStore backed by an in-process map, used
// in tests and local development.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*IntakeSession
	now      func() time.Time
}

// NewInMemorySessionStore creates an empty in-memory store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]*IntakeSession),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the store's clock, for tests that assert on
// timestamps and durations.
func (s *InMemorySessionStore) WithClock(now func() time.Time) *InMemorySessionStore {
	s.now = now
	return s
}

// Create inserts a new session in the started state.
func (s *InMemorySessionStore) Create(ctx context.Context, businessID, patientID string) (*IntakeSession, error) {
	now := s.now()
	session := &IntakeSession{
		SessionID:           NewSessionID(now),
		BusinessID:          businessID,
		PatientID:           patientID,
		Status:              StatusStarted,
		ConversationHistory: []ChatTurn{},
		SymptomsCollected:   []Symptom{},
		StartedAt:           now,
		UpdatedAt:           now,
	}

	s.mu.Lock()
	s.sessions[session.SessionID] = session
	s.mu.Unlock()

	return session.Clone(), nil
}

// Get loads a session or returns ErrSessionNotFound.
func (s *InMemorySessionStore) Get(ctx context.Context, sessionID string) (*IntakeSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Update applies a patch as one logical write.
func (s *InMemorySessionStore) Update(ctx context.Context, sessionID string, patch SessionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	applyPatch(session, patch)
	session.UpdatedAt = s.now()
	return nil
}

// ListByBusiness returns sessions for a practice filtered on started_at.
func (s *InMemorySessionStore) ListByBusiness(ctx context.Context, businessID string, start, end *time.Time) ([]IntakeSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []IntakeSession
	for _, session := range s.sessions {
		if session.BusinessID != businessID {
			continue
		}
		if start != nil && session.StartedAt.Before(*start) {
			continue
		}
		if end != nil && session.StartedAt.After(*end) {
			continue
		}
		out = append(out, *session.Clone())
	}
	return out, nil
}

// MarkMatchSelected flips the was-selected flag on one match record.
func (s *InMemorySessionStore) MarkMatchSelected(ctx context.Context, sessionID, dentistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	for i := range session.MatchingReasoning {
		if session.MatchingReasoning[i].DentistID == dentistID {
			session.MatchingReasoning[i].WasSelected = true
			session.UpdatedAt = s.now()
			return nil
		}
	}
	return ErrSessionNotFound
}

// applyPatch mutates session in place with the patch's non-nil fields.
func applyPatch(session *IntakeSession, patch SessionPatch) {
	if patch.Status != nil {
		session.Status = *patch.Status
	}
	if patch.PatientID != nil {
		session.PatientID = *patch.PatientID
	}
	if patch.ConversationHistory != nil {
		session.ConversationHistory = append([]ChatTurn(nil), patch.ConversationHistory...)
	}
	if patch.TotalMessages != nil {
		session.TotalMessages = *patch.TotalMessages
	}
	if patch.PatientResponseCount != nil {
		session.PatientResponseCount = *patch.PatientResponseCount
	}
	if patch.SymptomsCollected != nil {
		session.SymptomsCollected = append([]Symptom(nil), patch.SymptomsCollected...)
	}
	if patch.PainLevel != nil {
		v := *patch.PainLevel
		session.PainLevel = &v
	}
	if patch.UrgencyScore != nil {
		v := *patch.UrgencyScore
		session.UrgencyScore = &v
	}
	if patch.UrgencyReasoning != nil {
		session.UrgencyReasoning = *patch.UrgencyReasoning
	}
	if patch.MedicalHistoryNotes != nil {
		session.MedicalHistoryNotes = append([]string(nil), patch.MedicalHistoryNotes...)
	}
	if patch.Allergies != nil {
		session.Allergies = append([]string(nil), patch.Allergies...)
	}
	if patch.CurrentMedications != nil {
		session.CurrentMedications = append([]string(nil), patch.CurrentMedications...)
	}
	if patch.MatchedDentistIDs != nil {
		session.MatchedDentistIDs = append([]string(nil), patch.MatchedDentistIDs...)
	}
	if patch.MatchingReasoning != nil {
		session.MatchingReasoning = append([]MatchReasoning(nil), patch.MatchingReasoning...)
	}
	if patch.SelectedDentistID != nil {
		session.SelectedDentistID = *patch.SelectedDentistID
	}
	if patch.AlternativeDentistsShown != nil {
		session.AlternativeDentistsShown = *patch.AlternativeDentistsShown
	}
	if patch.AppointmentID != nil {
		session.AppointmentID = *patch.AppointmentID
	}
	if patch.CompletedAt != nil {
		t := *patch.CompletedAt
		session.CompletedAt = &t
	}
	if patch.AbandonedAtStep != nil {
		session.AbandonedAtStep = *patch.AbandonedAtStep
	}
	if patch.IntakeDurationSeconds != nil {
		v := *patch.IntakeDurationSeconds
		session.IntakeDurationSeconds = &v
	}
	if patch.ConversionScore != nil {
		v := *patch.ConversionScore
		session.ConversionScore = &v
	}
}
