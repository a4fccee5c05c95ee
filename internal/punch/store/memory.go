// Package store persists punch records and group geofences.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
)

// InMemoryPunchStore keeps records per worker. Returned records are copies;
// callers cannot mutate stored state.
type InMemoryPunchStore struct {
	mu       sync.RWMutex
	byWorker map[id.UserID][]*models.PunchRecord
	byID     map[id.PunchID]*models.PunchRecord
}

func NewInMemoryPunchStore() *InMemoryPunchStore {
	return &InMemoryPunchStore{
		byWorker: make(map[id.UserID][]*models.PunchRecord),
		byID:     make(map[id.PunchID]*models.PunchRecord),
	}
}

func (s *InMemoryPunchStore) Save(_ context.Context, record *models.PunchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, r := range s.byWorker[record.WorkerID] {
		if r.WorkDay.Equal(record.WorkDay) && r.Type == record.Type {
			return sentinel.ErrConflict
		}
	}

	stored := clone(record)
	records := append(s.byWorker[record.WorkerID], stored)
	sort.SliceStable(records, func(i, j int) bool { return records[i].PunchedAt.Before(records[j].PunchedAt) })
	s.byWorker[record.WorkerID] = records
	s.byID[record.ID] = stored
	return nil
}

func (s *InMemoryPunchStore) ListForDay(_ context.Context, workerID id.UserID, day time.Time) ([]*models.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PunchRecord
	for _, r := range s.byWorker[workerID] {
		if r.WorkDay.Equal(day) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (s *InMemoryPunchStore) History(_ context.Context, workerID id.UserID, limit int) ([]*models.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.byWorker[workerID]
	out := make([]*models.PunchRecord, 0, min(len(records), max(limit, 0)))
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, clone(records[i]))
	}
	return out, nil
}

func (s *InMemoryPunchStore) ListRange(_ context.Context, workerID id.UserID, from, to time.Time) ([]*models.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PunchRecord
	for _, r := range s.byWorker[workerID] {
		if !r.WorkDay.Before(from) && r.WorkDay.Before(to) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (s *InMemoryPunchStore) UpdateState(_ context.Context, punchID id.PunchID, from, to models.ApprovalState, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[punchID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.State != from {
		return sentinel.ErrInvalidState
	}
	r.State = to
	r.UpdatedAt = at
	return nil
}

// FindByID returns one record.
func (s *InMemoryPunchStore) FindByID(_ context.Context, punchID id.PunchID) (*models.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[punchID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func clone(r *models.PunchRecord) *models.PunchRecord {
	c := *r
	if r.Location != nil {
		loc := *r.Location
		c.Location = &loc
	}
	c.Risk.Tags = append([]models.AnomalyTag(nil), r.Risk.Tags...)
	c.Signals.Degraded = append([]string(nil), r.Signals.Degraded...)
	return &c
}

// InMemoryGeofenceStore holds geofences per group.
type InMemoryGeofenceStore struct {
	mu      sync.RWMutex
	byGroup map[id.GroupID][]models.Geofence
}

func NewInMemoryGeofenceStore() *InMemoryGeofenceStore {
	return &InMemoryGeofenceStore{byGroup: make(map[id.GroupID][]models.Geofence)}
}

// Set replaces the group's geofences.
func (s *InMemoryGeofenceStore) Set(_ context.Context, groupID id.GroupID, geofences []models.Geofence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byGroup[groupID] = append([]models.Geofence(nil), geofences...)
	return nil
}

func (s *InMemoryGeofenceStore) ForGroup(_ context.Context, groupID id.GroupID) ([]models.Geofence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Geofence(nil), s.byGroup[groupID]...), nil
}
