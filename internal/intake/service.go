package intake

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/dentalstack/intake-platform/internal/assist"
	"github.com/dentalstack/intake-platform/internal/dentists"
	"github.com/dentalstack/intake-platform/internal/observability/metrics"
	"github.com/dentalstack/intake-platform/pkg/logging"
)

var intakeTracer = otel.Tracer("dental.internal.intake")

// AppointmentSummaryWriter appends the AI-generated clinical summary onto a
// booked appointment record. The write is best-effort after completion.
type AppointmentSummaryWriter interface {
	AttachIntakeSummary(ctx context.Context, appointmentID, summary string) error
}

// CompletionNotifier tells the matched dentist an intake finished.
// Best-effort: a notification failure never affects completion.
type CompletionNotifier interface {
	IntakeCompleted(ctx context.Context, session *IntakeSession, dentist *dentists.Dentist) error
}

// Service is the intake flow's operation surface, consumed by the booking
// UI and orchestration. Each public operation is a single logical request
// that runs to completion; callers serialize turns per session.
type Service struct {
	store      SessionStore
	roster     dentists.Repository
	classifier assist.ConversationClassifier
	matcher    assist.DentistMatcher
	summarizer assist.Summarizer

	appointments AppointmentSummaryWriter
	notifier     CompletionNotifier

	metrics *metrics.IntakeMetrics
	events  *EventLogger
	logger  *logging.Logger
	now     func() time.Time
}

// Config carries the service's collaborators. Store, Roster, Classifier and
// Matcher are required; the rest degrade gracefully when nil.
type Config struct {
	Store      SessionStore
	Roster     dentists.Repository
	Classifier assist.ConversationClassifier
	Matcher    assist.DentistMatcher
	Summarizer assist.Summarizer

	Appointments AppointmentSummaryWriter
	Notifier     CompletionNotifier

	Metrics *metrics.IntakeMetrics
	Logger  *logging.Logger
}

// NewService wires the intake flow service.
func NewService(cfg Config) *Service {
	if cfg.Store == nil {
		panic("intake: session store required")
	}
	if cfg.Roster == nil {
		panic("intake: dentist repository required")
	}
	if cfg.Classifier == nil {
		panic("intake: conversation classifier required")
	}
	if cfg.Matcher == nil {
		panic("intake: dentist matcher required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		store:        cfg.Store,
		roster:       cfg.Roster,
		classifier:   cfg.Classifier,
		matcher:      cfg.Matcher,
		summarizer:   cfg.Summarizer,
		appointments: cfg.Appointments,
		notifier:     cfg.Notifier,
		metrics:      cfg.Metrics,
		events:       NewEventLogger(cfg.Logger),
		logger:       cfg.Logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateSession opens a new intake session for a practice. patientID may be
// empty; anonymous sessions bind a patient later. A nil session with an
// error means no session is available and the caller must not proceed to
// conversation processing.
func (s *Service) CreateSession(ctx context.Context, businessID, patientID string) (*IntakeSession, error) {
	ctx, span := intakeTracer.Start(ctx, "intake.create_session")
	defer span.End()

	session, err := s.store.Create(ctx, businessID, patientID)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to create intake session", "business_id", businessID, "error", err)
		return nil, err
	}

	s.metrics.ObserveSession("started")
	s.events.SessionStarted(ctx, session.SessionID, businessID, patientID)
	return session, nil
}

// GetSession loads a session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*IntakeSession, error) {
	return s.store.Get(ctx, sessionID)
}
