package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"punchclock/internal/overtime/models"
	"punchclock/internal/overtime/ports"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
)

type OvertimeStoreSuite struct {
	suite.Suite
	store  *InMemoryStore
	ctx    context.Context
	group  id.GroupID
	worker id.UserID
	day    time.Time
}

func (s *OvertimeStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.group = id.GroupID(uuid.New())
	s.worker = id.UserID(uuid.New())
	s.day = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
}

func TestOvertimeStoreSuite(t *testing.T) {
	suite.Run(t, new(OvertimeStoreSuite))
}

func (s *OvertimeStoreSuite) newRequest(worker id.UserID, date time.Time) *models.OvertimeRequest {
	return &models.OvertimeRequest{
		ID:            id.OvertimeID(uuid.New()),
		WorkerID:      worker,
		GroupID:       s.group,
		Date:          date,
		Start:         18 * 60,
		End:           20 * 60,
		Justification: "dinner party",
		Status:        models.StatusPending,
		RequestedAt:   date.Add(-time.Hour),
	}
}

func (s *OvertimeStoreSuite) reviewed(r *models.OvertimeRequest, approve bool) *models.OvertimeRequest {
	c := *r
	s.Require().NoError(c.ApplyReview(id.UserID(uuid.New()), approve, "", s.day))
	return &c
}

// =============================================================================
// Create and Review
// =============================================================================

func (s *OvertimeStoreSuite) TestCreateAndReview() {
	r := s.newRequest(s.worker, s.day)
	s.Require().NoError(s.store.Create(s.ctx, r))
	s.ErrorIs(s.store.Create(s.ctx, r), sentinel.ErrConflict)

	s.Require().NoError(s.store.Review(s.ctx, s.reviewed(r, true)))
	s.ErrorIs(s.store.Review(s.ctx, s.reviewed(r, false)), sentinel.ErrInvalidState)

	got, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
	s.NotNil(got.ReviewerID)

	s.Run("unknown request", func() {
		_, err := s.store.FindByID(s.ctx, id.OvertimeID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.ErrorIs(s.store.Review(s.ctx, s.reviewed(s.newRequest(s.worker, s.day), true)), sentinel.ErrNotFound)
	})
}

func (s *OvertimeStoreSuite) TestHasApproved() {
	pending := s.newRequest(s.worker, s.day)
	rejected := s.newRequest(s.worker, s.day)
	s.Require().NoError(s.store.Create(s.ctx, pending))
	s.Require().NoError(s.store.Create(s.ctx, rejected))
	s.Require().NoError(s.store.Review(s.ctx, s.reviewed(rejected, false)))

	ok, err := s.store.HasApproved(s.ctx, s.worker, s.day)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Review(s.ctx, s.reviewed(pending, true)))
	ok, err = s.store.HasApproved(s.ctx, s.worker, s.day)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.HasApproved(s.ctx, s.worker, s.day.AddDate(0, 0, 1))
	s.Require().NoError(err)
	s.False(ok)
}

// =============================================================================
// List
// =============================================================================

func (s *OvertimeStoreSuite) TestList() {
	other := id.UserID(uuid.New())
	older := s.newRequest(s.worker, s.day)
	newer := s.newRequest(s.worker, s.day.AddDate(0, 0, 2))
	theirs := s.newRequest(other, s.day.AddDate(0, 0, 1))
	for _, r := range []*models.OvertimeRequest{older, newer, theirs} {
		s.Require().NoError(s.store.Create(s.ctx, r))
	}
	s.Require().NoError(s.store.Review(s.ctx, s.reviewed(theirs, true)))

	all, err := s.store.List(s.ctx, ports.Filter{GroupID: s.group})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(newer.ID, all[0].ID)
	s.Equal(theirs.ID, all[1].ID)
	s.Equal(older.ID, all[2].ID)

	mine, err := s.store.List(s.ctx, ports.Filter{GroupID: s.group, WorkerID: s.worker})
	s.Require().NoError(err)
	s.Len(mine, 2)

	approved, err := s.store.List(s.ctx, ports.Filter{GroupID: s.group, Status: models.StatusApproved})
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal(theirs.ID, approved[0].ID)

	none, err := s.store.List(s.ctx, ports.Filter{GroupID: id.GroupID(uuid.New())})
	s.Require().NoError(err)
	s.Empty(none)
}
