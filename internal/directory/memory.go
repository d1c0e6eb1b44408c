// Package directory provides the in-memory activity store.
package directory

import (
	"context"
	"sync"

	"example.com/mergington/internal/domain"
	"example.com/mergington/internal/observability"
)

// InMemoryRepository keeps the activity roster for the lifetime of the process.
type InMemoryRepository struct {
	mu         sync.RWMutex
	activities map[string]*domain.Activity
}

// NewInMemoryRepository constructs a repository populated with seed.
func NewInMemoryRepository(seed []domain.Activity) *InMemoryRepository {
	repo := &InMemoryRepository{
		activities: make(map[string]*domain.Activity, len(seed)),
	}
	for _, activity := range seed {
		a := activity.Clone()
		repo.activities[a.Name] = &a
		observability.SetParticipants(a.Name, len(a.Participants))
	}
	return repo
}

// List implements domain.Repository.
func (r *InMemoryRepository) List(ctx context.Context) (map[string]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.Activity, len(r.activities))
	for name, activity := range r.activities {
		out[name] = activity.Clone()
	}
	return out, nil
}

// Get returns the activity by name, or nil when absent.
func (r *InMemoryRepository) Get(ctx context.Context, name string) (*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	activity, ok := r.activities[name]
	if !ok {
		return nil, nil
	}
	out := activity.Clone()
	return &out, nil
}

// AddParticipant implements domain.Repository.
func (r *InMemoryRepository) AddParticipant(ctx context.Context, name, email string, enforceCapacity bool) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	if err := activity.AddParticipant(email, enforceCapacity); err != nil {
		return nil, err
	}
	observability.SetParticipants(activity.Name, len(activity.Participants))
	out := activity.Clone()
	return &out, nil
}

// RemoveParticipant implements domain.Repository.
func (r *InMemoryRepository) RemoveParticipant(ctx context.Context, name, email string) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity, ok := r.activities[name]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	if err := activity.RemoveParticipant(email); err != nil {
		return nil, err
	}
	observability.SetParticipants(activity.Name, len(activity.Participants))
	out := activity.Clone()
	return &out, nil
}
