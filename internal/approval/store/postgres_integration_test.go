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

	"punchclock/internal/approval/ports"
	"punchclock/internal/approval/store"
	"punchclock/internal/punch/models"
	punchstore "punchclock/internal/punch/store"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
	"punchclock/pkg/platform/tx"
	"punchclock/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	punches  *punchstore.PostgresPunchStore
	group    id.GroupID
	now      time.Time
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
	s.punches = punchstore.NewPostgresPunchStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "pending_approvals", "punch_records")
	s.Require().NoError(err)
	s.group = id.GroupID(uuid.New())
	s.now = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
}

// escalate saves a pending punch for worker and enqueues its entry.
func (s *PostgresStoreSuite) escalate(worker id.UserID, created time.Time) *models.PendingApprovalEntry {
	ctx := context.Background()
	record := &models.PunchRecord{
		ID:                    id.PunchID(uuid.New()),
		WorkerID:              worker,
		GroupID:               s.group,
		Type:                  models.PunchLunchOut,
		WorkDay:               models.DayOf(created, time.UTC),
		PunchedAt:             created,
		Location:              &models.LocationSample{Latitude: -23.55, Longitude: -46.63, AccuracyMeters: 500, AgeSeconds: 2},
		Address:               "Av. Paulista",
		Risk:                  models.RiskAssessment{Score: 20, Confidence: 0.7, Tags: []models.AnomalyTag{models.TagNewIP}},
		State:                 models.StatePendingApproval,
		OverrideJustification: "indoor, weak GPS",
		CreatedAt:             created,
		UpdatedAt:             created,
	}
	s.Require().NoError(s.punches.Save(ctx, record))

	entry := &models.PendingApprovalEntry{
		ID:        id.ApprovalID(uuid.New()),
		Record:    record,
		Reason:    models.EscalationLowAccuracy,
		State:     models.StatePendingApproval,
		CreatedAt: created,
	}
	s.Require().NoError(s.store.Enqueue(ctx, entry))
	return entry
}

// decision returns a decided copy of entry, leaving entry untouched.
func decision(entry *models.PendingApprovalEntry, approve bool, at time.Time) *models.PendingApprovalEntry {
	c := *entry
	record := *entry.Record
	c.Record = &record
	c.ApplyDecision(id.UserID(uuid.New()), approve, "", at)
	return &c
}

// =============================================================================
// Round trip
// =============================================================================

func (s *PostgresStoreSuite) TestEnqueueAndFind() {
	ctx := context.Background()
	worker := id.UserID(uuid.New())
	entry := s.escalate(worker, s.now)

	got, err := s.store.FindByID(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(entry.ID, got.ID)
	s.Equal(models.EscalationLowAccuracy, got.Reason)
	s.True(got.IsPending())
	s.Nil(got.ReviewerID)
	s.Require().NotNil(got.Record)
	s.Equal(entry.Record.ID, got.Record.ID)
	s.Equal(worker, got.Record.WorkerID)
	s.Equal(models.PunchLunchOut, got.Record.Type)
	s.Equal("indoor, weak GPS", got.Record.OverrideJustification)
	s.Require().NotNil(got.Record.Location)
	s.InDelta(500, got.Record.Location.AccuracyMeters, 1e-9)
	s.Equal([]models.AnomalyTag{models.TagNewIP}, got.Record.Risk.Tags)

	s.Run("second entry for the same punch conflicts", func() {
		dup := *entry
		dup.ID = id.ApprovalID(uuid.New())
		s.ErrorIs(s.store.Enqueue(ctx, &dup), sentinel.ErrConflict)
	})

	s.Run("unknown entry", func() {
		_, err := s.store.FindByID(ctx, id.ApprovalID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()
	alice, bob := id.UserID(uuid.New()), id.UserID(uuid.New())
	late := s.escalate(alice, s.now.Add(time.Hour))
	early := s.escalate(bob, s.now)

	all, err := s.store.List(ctx, ports.Filter{GroupID: s.group})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(early.ID, all[0].ID)
	s.Equal(late.ID, all[1].ID)

	mine, err := s.store.List(ctx, ports.Filter{GroupID: s.group, WorkerID: alice})
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(late.ID, mine[0].ID)

	early.ApplyDecision(id.UserID(uuid.New()), false, "no", s.now.Add(2*time.Hour))
	s.Require().NoError(s.store.Decide(ctx, early))

	decided, err := s.store.List(ctx, ports.Filter{GroupID: s.group, States: []models.ApprovalState{models.StateCommitted, models.StateRejected}})
	s.Require().NoError(err)
	s.Require().Len(decided, 1)
	s.Equal(models.DecisionRejected, decided[0].Decision)
	s.Equal("no", decided[0].Comment)
	s.Require().NotNil(decided[0].ReviewedAt)

	other, err := s.store.List(ctx, ports.Filter{GroupID: id.GroupID(uuid.New())})
	s.Require().NoError(err)
	s.Empty(other)
}

// =============================================================================
// Decide
// =============================================================================

func (s *PostgresStoreSuite) TestConcurrentDecideIsExclusive() {
	ctx := context.Background()
	entry := s.escalate(id.UserID(uuid.New()), s.now)

	const n = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		invalid   atomic.Int32
	)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempt := decision(entry, i%2 == 0, s.now)
			err := s.store.Decide(ctx, attempt)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				invalid.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(n-1), invalid.Load())

	count, err := s.store.CountPending(ctx, s.group)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *PostgresStoreSuite) TestDecideInTransactionRollsBack() {
	ctx := context.Background()
	entry := s.escalate(id.UserID(uuid.New()), s.now)
	runner := tx.NewPostgres(s.postgres.DB, 5*time.Second)
	boom := errors.New("boom")

	err := runner.RunInTx(ctx, "punch:"+entry.Record.WorkerID.String(), func(ctx context.Context) error {
		if err := s.store.Decide(ctx, decision(entry, true, s.now)); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.FindByID(ctx, entry.ID)
	s.Require().NoError(err)
	s.True(got.IsPending())

	count, err := s.store.CountPending(ctx, s.group)
	s.Require().NoError(err)
	s.Equal(1, count)
}
