package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mtorrado/campusguard/internal/domain"
)

type incidentRepository struct {
	incidents  map[string]*domain.Incident
	order      []string // insertion order, oldest first
	capacity   uint
	idleExpiry time.Duration
	mu         sync.RWMutex
}

func NewIncidentRepository(capacity uint, idleExpiry time.Duration) domain.IncidentRepository {
	if capacity == 0 {
		capacity = 1000
	}
	if idleExpiry == 0 {
		idleExpiry = 24 * time.Hour
	}

	return &incidentRepository{
		incidents:  make(map[string]*domain.Incident),
		capacity:   capacity,
		idleExpiry: idleExpiry,
	}
}

func (r *incidentRepository) evictIdle() {
	cutoff := time.Now().Add(-r.idleExpiry)
	kept := r.order[:0]
	for _, id := range r.order {
		inc, exists := r.incidents[id]
		if !exists {
			continue
		}
		if inc.UpdatedAt.Before(cutoff) {
			delete(r.incidents, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

func (r *incidentRepository) enforceCapacity() {
	for uint(len(r.order)) > r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.incidents, oldest)
	}
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	if incident == nil || incident.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictIdle()

	if _, exists := r.incidents[incident.ID]; exists {
		return domain.ErrInvalidInput
	}

	r.incidents[incident.ID] = incident
	r.order = append(r.order, incident.ID)
	r.enforceCapacity()

	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	incident, exists := r.incidents[id]
	if !exists {
		return nil, domain.ErrIncidentNotFound
	}

	return incident, nil
}

// List returns incidents newest first, the order the dashboard renders them.
func (r *incidentRepository) List(ctx context.Context) ([]domain.Incident, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Incident, 0, len(r.incidents))
	for _, inc := range r.incidents {
		out = append(out, *inc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

func (r *incidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	if incident == nil || incident.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.incidents[incident.ID]; !exists {
		return domain.ErrIncidentNotFound
	}

	r.incidents[incident.ID] = incident

	return nil
}
