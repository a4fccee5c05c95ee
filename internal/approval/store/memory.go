// Package store persists pending-approval entries.
package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"punchclock/internal/approval/ports"
	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
)

// InMemoryStore keeps entries in insertion order. Returned entries are copies.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.ApprovalID]*models.PendingApprovalEntry
	byPunch map[id.PunchID]id.ApprovalID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[id.ApprovalID]*models.PendingApprovalEntry),
		byPunch: make(map[id.PunchID]id.ApprovalID),
	}
}

func (s *InMemoryStore) Enqueue(_ context.Context, entry *models.PendingApprovalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.ID]; exists {
		return sentinel.ErrConflict
	}
	if entry.Record != nil {
		if _, exists := s.byPunch[entry.Record.ID]; exists {
			return sentinel.ErrConflict
		}
		s.byPunch[entry.Record.ID] = entry.ID
	}
	s.entries[entry.ID] = clone(entry)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, entryID id.ApprovalID) (*models.PendingApprovalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(e), nil
}

func (s *InMemoryStore) List(_ context.Context, filter ports.Filter) ([]*models.PendingApprovalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PendingApprovalEntry
	for _, e := range s.entries {
		if matches(e, filter) {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Decide(_ context.Context, entry *models.PendingApprovalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[entry.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !stored.IsPending() {
		return sentinel.ErrInvalidState
	}
	s.entries[entry.ID] = clone(entry)
	return nil
}

func (s *InMemoryStore) CountPending(_ context.Context, groupID id.GroupID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.IsPending() && groupOf(e) == groupID {
			n++
		}
	}
	return n, nil
}

func matches(e *models.PendingApprovalEntry, f ports.Filter) bool {
	if groupOf(e) != f.GroupID {
		return false
	}
	if !f.WorkerID.IsNil() && (e.Record == nil || e.Record.WorkerID != f.WorkerID) {
		return false
	}
	return len(f.States) == 0 || slices.Contains(f.States, e.State)
}

func groupOf(e *models.PendingApprovalEntry) id.GroupID {
	if e.Record == nil {
		return id.GroupID{}
	}
	return e.Record.GroupID
}

func clone(e *models.PendingApprovalEntry) *models.PendingApprovalEntry {
	c := *e
	if e.Record != nil {
		r := *e.Record
		if e.Record.Location != nil {
			loc := *e.Record.Location
			r.Location = &loc
		}
		r.Risk.Tags = append([]models.AnomalyTag(nil), e.Record.Risk.Tags...)
		c.Record = &r
	}
	if e.ReviewerID != nil {
		reviewer := *e.ReviewerID
		c.ReviewerID = &reviewer
	}
	if e.ReviewedAt != nil {
		at := *e.ReviewedAt
		c.ReviewedAt = &at
	}
	return &c
}
