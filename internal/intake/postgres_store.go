package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sessionDB is the slice of pgx used by the store, kept narrow so tests can
// inject pgxmock.
type sessionDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSessionStore persists intake sessions in Postgres. Transcript,
// symptoms and matching rationale live in JSONB columns; the per-dentist
// match results are additionally flattened into intake_match_results so the
// was-selected marker has its own row.
type PostgresSessionStore struct {
	db  sessionDB
	now func() time.Time
}

// NewPostgresSessionStore creates a store backed by a pgx pool.
func NewPostgresSessionStore(pool *pgxpool.Pool) *PostgresSessionStore {
	if pool == nil {
		panic("intake: pgx pool required")
	}
	return &PostgresSessionStore{db: pool, now: func() time.Time { return time.Now().UTC() }}
}

// NewPostgresSessionStoreWithDB allows injecting a mock database for testing.
func NewPostgresSessionStoreWithDB(db sessionDB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the store clock, for tests.
func (s *PostgresSessionStore) WithClock(now func() time.Time) *PostgresSessionStore {
	s.now = now
	return s
}

const sessionColumns = `session_id, business_id, patient_id, status,
	conversation_history, total_messages, patient_response_count,
	symptoms_collected, pain_level, urgency_score, urgency_reasoning,
	medical_history_notes, allergies, current_medications,
	matched_dentist_ids, matching_reasoning, selected_dentist_id,
	alternative_dentists_shown, appointment_id, started_at, completed_at,
	abandoned_at_step, intake_duration_seconds, conversion_score, updated_at`

// Create inserts a fresh session in the started state.
func (s *PostgresSessionStore) Create(ctx context.Context, businessID, patientID string) (*IntakeSession, error) {
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

	history, _ := json.Marshal(session.ConversationHistory)
	symptoms, _ := json.Marshal(session.SymptomsCollected)
	_, err := s.db.Exec(ctx, `
		INSERT INTO intake_sessions (
			session_id, business_id, patient_id, status,
			conversation_history, symptoms_collected, started_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.SessionID, businessID, patientID, string(session.Status),
		history, symptoms, now, now)
	if err != nil {
		return nil, fmt.Errorf("intake: insert session: %w", err)
	}
	return session, nil
}

// Get loads a session by id.
func (s *PostgresSessionStore) Get(ctx context.Context, sessionID string) (*IntakeSession, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM intake_sessions
		WHERE session_id = $1
	`, sessionID)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("intake: get session: %w", err)
	}
	return session, nil
}

// Update applies a patch as one UPDATE statement. When the patch carries
// matching rationale the flattened match-result rows are rebuilt as well.
func (s *PostgresSessionStore) Update(ctx context.Context, sessionID string, patch SessionPatch) error {
	set := []string{"updated_at = $1"}
	args := []any{s.now()}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addJSON := func(column string, value any) error {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("intake: marshal %s: %w", column, err)
		}
		add(column, b)
		return nil
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.PatientID != nil {
		add("patient_id", *patch.PatientID)
	}
	if patch.ConversationHistory != nil {
		if err := addJSON("conversation_history", patch.ConversationHistory); err != nil {
			return err
		}
	}
	if patch.TotalMessages != nil {
		add("total_messages", *patch.TotalMessages)
	}
	if patch.PatientResponseCount != nil {
		add("patient_response_count", *patch.PatientResponseCount)
	}
	if patch.SymptomsCollected != nil {
		if err := addJSON("symptoms_collected", patch.SymptomsCollected); err != nil {
			return err
		}
	}
	if patch.PainLevel != nil {
		add("pain_level", *patch.PainLevel)
	}
	if patch.UrgencyScore != nil {
		add("urgency_score", *patch.UrgencyScore)
	}
	if patch.UrgencyReasoning != nil {
		add("urgency_reasoning", *patch.UrgencyReasoning)
	}
	if patch.MedicalHistoryNotes != nil {
		add("medical_history_notes", patch.MedicalHistoryNotes)
	}
	if patch.Allergies != nil {
		add("allergies", patch.Allergies)
	}
	if patch.CurrentMedications != nil {
		add("current_medications", patch.CurrentMedications)
	}
	if patch.MatchedDentistIDs != nil {
		add("matched_dentist_ids", patch.MatchedDentistIDs)
	}
	if patch.MatchingReasoning != nil {
		if err := addJSON("matching_reasoning", patch.MatchingReasoning); err != nil {
			return err
		}
	}
	if patch.SelectedDentistID != nil {
		add("selected_dentist_id", *patch.SelectedDentistID)
	}
	if patch.AlternativeDentistsShown != nil {
		add("alternative_dentists_shown", *patch.AlternativeDentistsShown)
	}
	if patch.AppointmentID != nil {
		add("appointment_id", *patch.AppointmentID)
	}
	if patch.CompletedAt != nil {
		add("completed_at", *patch.CompletedAt)
	}
	if patch.AbandonedAtStep != nil {
		add("abandoned_at_step", string(*patch.AbandonedAtStep))
	}
	if patch.IntakeDurationSeconds != nil {
		add("intake_duration_seconds", *patch.IntakeDurationSeconds)
	}
	if patch.ConversionScore != nil {
		add("conversion_score", *patch.ConversionScore)
	}

	args = append(args, sessionID)
	query := fmt.Sprintf(
		"UPDATE intake_sessions SET %s WHERE session_id = $%d",
		strings.Join(set, ", "), len(args),
	)
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("intake: update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	if patch.MatchingReasoning != nil {
		if err := s.replaceMatchResults(ctx, sessionID, patch.MatchingReasoning); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresSessionStore) replaceMatchResults(ctx context.Context, sessionID string, reasoning []MatchReasoning) error {
	if _, err := s.db.Exec(ctx, `
		DELETE FROM intake_match_results WHERE session_id = $1
	`, sessionID); err != nil {
		return fmt.Errorf("intake: clear match results: %w", err)
	}
	for rank, entry := range reasoning {
		detail, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("intake: marshal match result: %w", err)
		}
		if _, err := s.db.Exec(ctx, `
			INSERT INTO intake_match_results (
				session_id, dentist_id, rank, score, detail, was_selected
			) VALUES ($1, $2, $3, $4, $5, $6)
		`, sessionID, entry.DentistID, rank+1, entry.Score, detail, entry.WasSelected); err != nil {
			return fmt.Errorf("intake: insert match result: %w", err)
		}
	}
	return nil
}

// ListByBusiness returns all sessions for a practice, optionally windowed
// on started_at.
func (s *PostgresSessionStore) ListByBusiness(ctx context.Context, businessID string, start, end *time.Time) ([]IntakeSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM intake_sessions WHERE business_id = $1`
	args := []any{businessID}
	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND started_at >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND started_at <= $%d", len(args))
	}
	query += " ORDER BY started_at ASC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("intake: list sessions: %w", err)
	}
	defer rows.Close()

	var out []IntakeSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("intake: scan session: %w", err)
		}
		out = append(out, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("intake: iterate sessions: %w", err)
	}
	return out, nil
}

// MarkMatchSelected flips the was-selected flag on both the flattened match
// row and the session's matching rationale.
func (s *PostgresSessionStore) MarkMatchSelected(ctx context.Context, sessionID, dentistID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE intake_match_results
		SET was_selected = TRUE
		WHERE session_id = $1 AND dentist_id = $2
	`, sessionID, dentistID)
	if err != nil {
		return fmt.Errorf("intake: mark match selected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("intake: no match record for session %s dentist %s", sessionID, dentistID)
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE intake_sessions
		SET matching_reasoning = (
			SELECT jsonb_agg(
				CASE WHEN elem->>'dentist_id' = $2
					THEN jsonb_set(elem, '{was_selected}', 'true')
					ELSE elem
				END
			)
			FROM jsonb_array_elements(matching_reasoning) AS elem
		)
		WHERE session_id = $1
	`, sessionID, dentistID); err != nil {
		return fmt.Errorf("intake: sync selected marker: %w", err)
	}
	return nil
}

func scanSession(row pgx.Row) (*IntakeSession, error) {
	var (
		session           IntakeSession
		status            string
		history, symptoms []byte
		reasoning         []byte
		abandonedAtStep   *string
	)
	err := row.Scan(
		&session.SessionID, &session.BusinessID, &session.PatientID, &status,
		&history, &session.TotalMessages, &session.PatientResponseCount,
		&symptoms, &session.PainLevel, &session.UrgencyScore, &session.UrgencyReasoning,
		&session.MedicalHistoryNotes, &session.Allergies, &session.CurrentMedications,
		&session.MatchedDentistIDs, &reasoning, &session.SelectedDentistID,
		&session.AlternativeDentistsShown, &session.AppointmentID,
		&session.StartedAt, &session.CompletedAt,
		&abandonedAtStep, &session.IntakeDurationSeconds, &session.ConversionScore,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Status = Status(status)
	if abandonedAtStep != nil {
		session.AbandonedAtStep = Status(*abandonedAtStep)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &session.ConversationHistory); err != nil {
			return nil, fmt.Errorf("decode conversation history: %w", err)
		}
	}
	if len(symptoms) > 0 {
		if err := json.Unmarshal(symptoms, &session.SymptomsCollected); err != nil {
			return nil, fmt.Errorf("decode symptoms: %w", err)
		}
	}
	if len(reasoning) > 0 {
		if err := json.Unmarshal(reasoning, &session.MatchingReasoning); err != nil {
			return nil, fmt.Errorf("decode matching reasoning: %w", err)
		}
	}
	return &session, nil
}
