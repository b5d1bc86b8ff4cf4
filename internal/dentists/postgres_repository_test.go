package dentists

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepositoryWithDB(mock)
}

func dentistRows(ids ...string) *pgxmock.Rows {
	next := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "business_id", "name", "email", "phone", "bio",
		"years_experience", "languages", "clinic_address", "next_available", "active",
	})
	for _, id := range ids {
		rows.AddRow(
			id, "biz-1", "Dr "+id, id+"@clinic.test", "555-0100", "bio",
			12, []string{"en"}, "1 Main St", &next, true,
		)
	}
	return rows
}

func TestPostgresRepositoryListActive(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, business_id").
		WithArgs("biz-1").
		WillReturnRows(dentistRows("dent-a", "dent-b"))

	roster, err := repo.ListActive(context.Background(), "biz-1")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected 2 dentists, got %d", len(roster))
	}
	if roster[0].ID != "dent-a" || roster[1].ID != "dent-b" {
		t.Errorf("unexpected roster order: %+v", roster)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositorySpecializations(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT specialization").
		WithArgs("dent-a").
		WillReturnRows(pgxmock.NewRows([]string{"specialization"}).
			AddRow("endodontics").
			AddRow("general"))

	specs, err := repo.Specializations(context.Background(), "dent-a")
	if err != nil {
		t.Fatalf("Specializations: %v", err)
	}
	if len(specs) != 2 || specs[0] != "endodontics" {
		t.Errorf("unexpected specializations: %v", specs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryGetByID(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, business_id").
		WithArgs("dent-a").
		WillReturnRows(dentistRows("dent-a"))

	d, err := repo.GetByID(context.Background(), "dent-a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if d.Name != "Dr dent-a" || !d.Active {
		t.Errorf("unexpected dentist: %+v", d)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryGetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, business_id").
		WithArgs("dent-missing").
		WillReturnRows(dentistRows())

	_, err := repo.GetByID(context.Background(), "dent-missing")
	if !errors.Is(err, ErrDentistNotFound) {
		t.Fatalf("expected ErrDentistNotFound, got %v", err)
	}
}
