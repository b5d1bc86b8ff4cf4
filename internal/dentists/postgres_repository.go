package dentists

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rosterDB is the slice of pgx used by the repository, kept narrow so tests
// can inject pgxmock.
type rosterDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads the dentist roster from Postgres.
type PostgresRepository struct {
	db rosterDB
}

// NewPostgresRepository creates a repository backed by a pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("dentists: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db rosterDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const dentistColumns = `id, business_id, name, email, phone, bio,
	years_experience, languages, clinic_address, next_available, active`

// ListActive returns the active roster for a practice.
func (r *PostgresRepository) ListActive(ctx context.Context, businessID string) ([]Dentist, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+dentistColumns+`
		FROM dentists
		WHERE business_id = $1 AND active
		ORDER BY name ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("dentists: list active: %w", err)
	}
	defer rows.Close()

	var out []Dentist
	for rows.Next() {
		d, err := scanDentist(rows)
		if err != nil {
			return nil, fmt.Errorf("dentists: scan row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dentists: iterate roster: %w", err)
	}
	return out, nil
}

// Specializations returns the declared specializations for one dentist.
func (r *PostgresRepository) Specializations(ctx context.Context, dentistID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT specialization
		FROM dentist_specializations
		WHERE dentist_id = $1
		ORDER BY specialization ASC
	`, dentistID)
	if err != nil {
		return nil, fmt.Errorf("dentists: load specializations: %w", err)
	}
	defer rows.Close()

	var specs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("dentists: scan specialization: %w", err)
		}
		specs = append(specs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dentists: iterate specializations: %w", err)
	}
	return specs, nil
}

// GetByID returns a single dentist profile.
func (r *PostgresRepository) GetByID(ctx context.Context, dentistID string) (*Dentist, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+dentistColumns+`
		FROM dentists
		WHERE id = $1
	`, dentistID)

	d, err := scanDentist(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDentistNotFound
		}
		return nil, fmt.Errorf("dentists: get by id: %w", err)
	}
	return &d, nil
}

func scanDentist(row pgx.Row) (Dentist, error) {
	var d Dentist
	err := row.Scan(
		&d.ID, &d.BusinessID, &d.Name, &d.Email, &d.Phone, &d.Bio,
		&d.YearsExperience, &d.Languages, &d.ClinicAddress, &d.NextAvailable, &d.Active,
	)
	return d, err
}
