package intake

import (
	"context"
	"testing"
	"time"

	"github.com/dentalstack/intake-platform/internal/assist"
	"github.com/dentalstack/intake-platform/internal/dentists"
)

// stubClassifier returns a canned conversation response, or err if set.
type stubClassifier struct {
	resp  *assist.ConversationResponse
	err   error
	calls int
	last  assist.ConversationRequest
}

func (s *stubClassifier) ProcessTurn(_ context.Context, req assist.ConversationRequest) (*assist.ConversationResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

// stubMatcher returns a canned ranking, or err if set.
type stubMatcher struct {
	resp  *assist.MatchResponse
	err   error
	calls int
	last  assist.MatchRequest
}

func (s *stubMatcher) MatchDentists(_ context.Context, req assist.MatchRequest) (*assist.MatchResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type stubSummarizer struct {
	text  string
	err   error
	calls int
}

func (s *stubSummarizer) SummarizeForDentist(context.Context, assist.SummaryRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubAppointments struct {
	err           error
	appointmentID string
	summary       string
}

func (s *stubAppointments) AttachIntakeSummary(_ context.Context, appointmentID, summary string) error {
	if s.err != nil {
		return s.err
	}
	s.appointmentID = appointmentID
	s.summary = summary
	return nil
}

type stubNotifier struct {
	err     error
	calls   int
	dentist string
}

func (s *stubNotifier) IntakeCompleted(_ context.Context, _ *IntakeSession, dentist *dentists.Dentist) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.dentist = dentist.ID
	return nil
}

// testEnv bundles a service with its collaborators for assertions.
type testEnv struct {
	service      *Service
	store        *InMemorySessionStore
	roster       *dentists.InMemoryRepository
	classifier   *stubClassifier
	matcher      *stubMatcher
	summarizer   *stubSummarizer
	appointments *stubAppointments
	notifier     *stubNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:        NewInMemorySessionStore(),
		roster:       dentists.NewInMemoryRepository(),
		classifier:   &stubClassifier{},
		matcher:      &stubMatcher{},
		summarizer:   &stubSummarizer{text: "clinical summary"},
		appointments: &stubAppointments{},
		notifier:     &stubNotifier{},
	}
	env.service = NewService(Config{
		Store:        env.store,
		Roster:       env.roster,
		Classifier:   env.classifier,
		Matcher:      env.matcher,
		Summarizer:   env.summarizer,
		Appointments: env.appointments,
		Notifier:     env.notifier,
	})
	return env
}

func (e *testEnv) mustCreateSession(t *testing.T, businessID string) *IntakeSession {
	t.Helper()
	session, err := e.service.CreateSession(context.Background(), businessID, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return session
}

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(v int) *int              { return &v }
