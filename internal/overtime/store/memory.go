// Package store persists overtime requests.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"punchclock/internal/overtime/models"
	"punchclock/internal/overtime/ports"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
)

// InMemoryStore keeps requests by id. Returned requests are copies.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.OvertimeID]*models.OvertimeRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.OvertimeID]*models.OvertimeRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, req *models.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = clone(req)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.OvertimeID) (*models.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemoryStore) List(_ context.Context, filter ports.Filter) ([]*models.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.OvertimeRequest
	for _, r := range s.requests {
		if r.GroupID != filter.GroupID {
			continue
		}
		if !filter.WorkerID.IsNil() && r.WorkerID != filter.WorkerID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Review(_ context.Context, req *models.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.requests[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !stored.IsPending() {
		return sentinel.ErrInvalidState
	}
	s.requests[req.ID] = clone(req)
	return nil
}

func (s *InMemoryStore) HasApproved(_ context.Context, workerID id.UserID, day time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.requests {
		if r.WorkerID == workerID && r.Status == models.StatusApproved && r.Date.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func clone(r *models.OvertimeRequest) *models.OvertimeRequest {
	c := *r
	if r.ReviewerID != nil {
		reviewer := *r.ReviewerID
		c.ReviewerID = &reviewer
	}
	if r.ReviewedAt != nil {
		at := *r.ReviewedAt
		c.ReviewedAt = &at
	}
	return &c
}
