//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"punchclock/internal/overtime/models"
	"punchclock/internal/overtime/ports"
	"punchclock/internal/overtime/store"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
	"punchclock/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	group    id.GroupID
	worker   id.UserID
	day      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "overtime_requests"))
	s.group = id.GroupID(uuid.New())
	s.worker = id.UserID(uuid.New())
	s.day = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) create(worker id.UserID, date time.Time) *models.OvertimeRequest {
	r := &models.OvertimeRequest{
		ID:            id.OvertimeID(uuid.New()),
		WorkerID:      worker,
		GroupID:       s.group,
		Date:          date,
		Start:         18 * 60,
		End:           19*60 + 30,
		Justification: "guests staying late",
		Status:        models.StatusPending,
		RequestedAt:   date.Add(-2 * time.Hour).UTC(),
	}
	s.Require().NoError(s.store.Create(context.Background(), r))
	return r
}

func reviewed(r *models.OvertimeRequest, approve bool, at time.Time) *models.OvertimeRequest {
	c := *r
	_ = c.ApplyReview(id.UserID(uuid.New()), approve, "fine", at)
	return &c
}

// =============================================================================
// Round trip
// =============================================================================

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	r := s.create(s.worker, s.day)

	got, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.WorkerID, got.WorkerID)
	s.Equal(s.day, got.Date)
	s.Equal(models.ClockTime(18*60), got.Start)
	s.Equal("19:30", got.End.String())
	s.Equal(models.StatusPending, got.Status)
	s.Nil(got.ReviewerID)
	s.Nil(got.ReviewedAt)

	s.ErrorIs(s.store.Create(ctx, r), sentinel.ErrConflict)

	_, err = s.store.FindByID(ctx, id.OvertimeID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestEndBeforeStartViolatesConstraint() {
	r := &models.OvertimeRequest{
		ID: id.OvertimeID(uuid.New()), WorkerID: s.worker, GroupID: s.group, Date: s.day,
		Start: 20 * 60, End: 18 * 60, Status: models.StatusPending, RequestedAt: s.day,
	}
	s.Error(s.store.Create(context.Background(), r))
}

func (s *PostgresStoreSuite) TestListAndHasApproved() {
	ctx := context.Background()
	other := id.UserID(uuid.New())
	older := s.create(s.worker, s.day)
	newer := s.create(other, s.day.AddDate(0, 0, 1))
	s.Require().NoError(s.store.Review(ctx, reviewed(older, true, s.day.Add(9*time.Hour))))

	all, err := s.store.List(ctx, ports.Filter{GroupID: s.group})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)

	approved, err := s.store.List(ctx, ports.Filter{GroupID: s.group, WorkerID: s.worker, Status: models.StatusApproved})
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal("fine", approved[0].Comment)

	ok, err := s.store.HasApproved(ctx, s.worker, s.day)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.HasApproved(ctx, other, s.day.AddDate(0, 0, 1))
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresStoreSuite) TestConcurrentReviewIsExclusive() {
	ctx := context.Background()
	r := s.create(s.worker, s.day)

	const n = 12
	var (
		wg      sync.WaitGroup
		ok      atomic.Int32
		invalid atomic.Int32
	)
	for i := range n {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			err := s.store.Review(ctx, reviewed(r, approve, s.day))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				invalid.Add(1)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	s.Equal(int32(1), ok.Load())
	s.Equal(int32(n-1), invalid.Load())
}
