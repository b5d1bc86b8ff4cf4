package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (sqlmock.Sqlmock, *Repository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return mock, NewRepository(db)
}

func TestGetByID(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "business_id", "dentist_id", "patient_id", "scheduled_at",
		"intake_summary", "created_at", "updated_at",
	}).AddRow("appt-1", "biz-1", "dent-a", "pat-1", now, "", now, now)
	mock.ExpectQuery("SELECT id, business_id").WithArgs("appt-1").WillReturnRows(rows)

	appt, err := repo.GetByID(context.Background(), "appt-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if appt.DentistID != "dent-a" || appt.BusinessID != "biz-1" {
		t.Errorf("appointment = %+v", appt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, business_id").
		WithArgs("appt-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "appt-missing")
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestAttachIntakeSummary(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("UPDATE appointments").
		WithArgs("appt-1", "patient reports a three day toothache").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AttachIntakeSummary(context.Background(), "appt-1", "patient reports a three day toothache")
	if err != nil {
		t.Fatalf("AttachIntakeSummary: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAttachIntakeSummaryMissingAppointment(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("UPDATE appointments").
		WithArgs("appt-missing", "summary").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AttachIntakeSummary(context.Background(), "appt-missing", "summary")
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("err = %v, want ErrAppointmentNotFound", err)
	}
}
