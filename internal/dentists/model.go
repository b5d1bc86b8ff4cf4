package dentists

import "time"

// Dentist is the read-only profile used as matching input. This service
// never mutates dentist records; they are owned by the practice-management
// side of the platform.
type Dentist struct {
	ID              string     `json:"id"`
	BusinessID      string     `json:"business_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Bio             string     `json:"bio"`
	YearsExperience int        `json:"years_experience"`
	Languages       []string   `json:"languages"`
	ClinicAddress   string     `json:"clinic_address"`
	NextAvailable   *time.Time `json:"next_available,omitempty"`
	Active          bool       `json:"active"`
}
