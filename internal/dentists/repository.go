package dentists

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrDentistNotFound is returned when a dentist id does not resolve.
var ErrDentistNotFound = errors.New("dentists: dentist not found")

// Repository provides read access to the active-dentist roster for a tenant.
type Repository interface {
	// ListActive returns the active roster for a practice.
	ListActive(ctx context.Context, businessID string) ([]Dentist, error)
	// Specializations returns the declared specializations for one dentist.
	Specializations(ctx context.Context, dentistID string) ([]string, error)
	// GetByID returns a single dentist profile.
	GetByID(ctx context.Context, dentistID string) (*Dentist, error)
}

// InMemoryRepository is a Repository backed by an in-process map, used in
// tests and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	dentists map[string]*Dentist
	specs    map[string][]string
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		dentists: make(map[string]*Dentist),
		specs:    make(map[string][]string),
	}
}

// Put adds or replaces a dentist and their specializations.
func (r *InMemoryRepository) Put(d Dentist, specializations []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := d
	r.dentists[d.ID] = &copied
	r.specs[d.ID] = append([]string(nil), specializations...)
}

// ListActive returns active dentists for the given practice.
func (r *InMemoryRepository) ListActive(ctx context.Context, businessID string) ([]Dentist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Dentist
	for _, d := range r.dentists {
		if d.Active && d.BusinessID == businessID {
			out = append(out, *d)
		}
	}
	// Same ordering as the SQL repository.
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Specializations returns the declared specializations for a dentist.
func (r *InMemoryRepository) Specializations(ctx context.Context, dentistID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.dentists[dentistID]; !ok {
		return nil, ErrDentistNotFound
	}
	return append([]string(nil), r.specs[dentistID]...), nil
}

// GetByID returns a dentist profile by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, dentistID string) (*Dentist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dentists[dentistID]
	if !ok {
		return nil, ErrDentistNotFound
	}
	copied := *d
	return &copied, nil
}
