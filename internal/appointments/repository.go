// Package appointments owns the booking records that completed intakes
// link to. Booking itself happens outside the intake flow; this repository
// only reads linkage data and attaches the clinical hand-off summary.
package appointments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrAppointmentNotFound is returned when an appointment id does not resolve.
var ErrAppointmentNotFound = errors.New("appointments: appointment not found")

// Appointment is one booked slot, owned by the scheduling side of the
// platform.
type Appointment struct {
	ID            string
	BusinessID    string
	DentistID     string
	PatientID     string
	ScheduledAt   time.Time
	IntakeSummary string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository reads and annotates appointment records in PostgreSQL.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an appointment repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// GetByID loads one appointment.
func (r *Repository) GetByID(ctx context.Context, appointmentID string) (*Appointment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, business_id, dentist_id, patient_id, scheduled_at,
			COALESCE(intake_summary, ''), created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, appointmentID)

	var a Appointment
	err := row.Scan(&a.ID, &a.BusinessID, &a.DentistID, &a.PatientID,
		&a.ScheduledAt, &a.IntakeSummary, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: get by id: %w", err)
	}
	return &a, nil
}

// AttachIntakeSummary writes the AI-generated clinical summary onto a
// booked appointment. Called after intake completion; the caller treats a
// failure here as non-fatal.
func (r *Repository) AttachIntakeSummary(ctx context.Context, appointmentID, summary string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET intake_summary = $2, updated_at = NOW()
		WHERE id = $1
	`, appointmentID, summary)
	if err != nil {
		return fmt.Errorf("appointments: attach intake summary: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("appointments: attach intake summary: %w", err)
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
