package intake

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresSessionStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	store := NewPostgresSessionStoreWithDB(mock)
	return mock, store
}

func TestPostgresStoreCreate(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	mock.ExpectExec("INSERT INTO intake_sessions").
		WithArgs(pgxmock.AnyArg(), "biz-1", "pat-1", "started",
			pgxmock.AnyArg(), pgxmock.AnyArg(), now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	session, err := store.Create(context.Background(), "biz-1", "pat-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if session.Status != StatusStarted || session.BusinessID != "biz-1" {
		t.Errorf("unexpected session: %+v", session)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func sessionRow(sessionID string, started time.Time) *pgxmock.Rows {
	history, _ := json.Marshal([]ChatTurn{{Role: TurnRolePatient, Content: "hi", Timestamp: started}})
	symptoms, _ := json.Marshal([]Symptom{{Text: "toothache", Category: "pain"}})
	reasoning, _ := json.Marshal([]MatchReasoning{{DentistID: "dent-a", Score: 0.8}})
	return pgxmock.NewRows([]string{
		"session_id", "business_id", "patient_id", "status",
		"conversation_history", "total_messages", "patient_response_count",
		"symptoms_collected", "pain_level", "urgency_score", "urgency_reasoning",
		"medical_history_notes", "allergies", "current_medications",
		"matched_dentist_ids", "matching_reasoning", "selected_dentist_id",
		"alternative_dentists_shown", "appointment_id", "started_at", "completed_at",
		"abandoned_at_step", "intake_duration_seconds", "conversion_score", "updated_at",
	}).AddRow(
		sessionID, "biz-1", "pat-1", "collecting_symptoms",
		history, 2, 1,
		symptoms, nil, nil, "",
		[]string(nil), []string(nil), []string(nil),
		[]string{"dent-a"}, reasoning, "",
		false, "", started, nil,
		nil, nil, nil, started,
	)
}

func TestPostgresStoreGet(t *testing.T) {
	mock, store := newMockStore(t)
	started := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT session_id").
		WithArgs("intake_1").
		WillReturnRows(sessionRow("intake_1", started))

	session, err := store.Get(context.Background(), "intake_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if session.Status != StatusCollectingSymptoms {
		t.Errorf("status = %s, want collecting_symptoms", session.Status)
	}
	if len(session.ConversationHistory) != 1 || session.ConversationHistory[0].Content != "hi" {
		t.Errorf("history = %+v, want decoded transcript", session.ConversationHistory)
	}
	if len(session.SymptomsCollected) != 1 || session.SymptomsCollected[0].Text != "toothache" {
		t.Errorf("symptoms = %+v, want decoded symptoms", session.SymptomsCollected)
	}
	if len(session.MatchingReasoning) != 1 || session.MatchingReasoning[0].DentistID != "dent-a" {
		t.Errorf("reasoning = %+v, want decoded reasoning", session.MatchingReasoning)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT session_id").
		WithArgs("intake_missing").
		WillReturnRows(pgxmock.NewRows([]string{"session_id"}))

	_, err := store.Get(context.Background(), "intake_missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestPostgresStoreUpdatePatchesOnlyGivenFields(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return now })

	status := StatusAssessingUrgency
	urgency := 7

	mock.ExpectExec("UPDATE intake_sessions").
		WithArgs(now, "assessing_urgency", 7, "intake_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.Update(context.Background(), "intake_1", SessionPatch{
		Status:       &status,
		UrgencyScore: &urgency,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreUpdateNotFound(t *testing.T) {
	mock, store := newMockStore(t)

	status := StatusCompleted
	mock.ExpectExec("UPDATE intake_sessions").
		WithArgs(pgxmock.AnyArg(), "completed", "intake_missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Update(context.Background(), "intake_missing", SessionPatch{Status: &status})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestPostgresStoreUpdateRebuildsMatchResults(t *testing.T) {
	mock, store := newMockStore(t)

	reasoning := []MatchReasoning{
		{DentistID: "dent-b", Score: 0.9},
		{DentistID: "dent-a", Score: 0.6},
	}

	mock.ExpectExec("UPDATE intake_sessions").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "intake_1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM intake_match_results").
		WithArgs("intake_1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO intake_match_results").
		WithArgs("intake_1", "dent-b", 1, 0.9, pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO intake_match_results").
		WithArgs("intake_1", "dent-a", 2, 0.6, pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.Update(context.Background(), "intake_1", SessionPatch{MatchingReasoning: reasoning})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreMarkMatchSelected(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec("UPDATE intake_match_results").
		WithArgs("intake_1", "dent-a").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE intake_sessions").
		WithArgs("intake_1", "dent-a").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.MarkMatchSelected(context.Background(), "intake_1", "dent-a"); err != nil {
		t.Fatalf("MarkMatchSelected: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreMarkMatchSelectedMissingRecord(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec("UPDATE intake_match_results").
		WithArgs("intake_1", "dent-z").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := store.MarkMatchSelected(context.Background(), "intake_1", "dent-z"); err == nil {
		t.Error("expected error for missing match record")
	}
}

func TestPostgresStoreListByBusinessWindow(t *testing.T) {
	mock, store := newMockStore(t)
	started := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	start := started.AddDate(0, 0, -1)
	end := started.AddDate(0, 0, 1)

	mock.ExpectQuery("SELECT session_id").
		WithArgs("biz-1", start, end).
		WillReturnRows(sessionRow("intake_1", started))

	sessions, err := store.ListByBusiness(context.Background(), "biz-1", &start, &end)
	if err != nil {
		t.Fatalf("ListByBusiness: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != "intake_1" {
		t.Errorf("sessions = %+v, want one row", sessions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
