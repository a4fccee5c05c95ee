package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/sentinel"
)

type PunchStoreSuite struct {
	suite.Suite
	store  *InMemoryPunchStore
	ctx    context.Context
	worker id.UserID
	day    time.Time
}

func (s *PunchStoreSuite) SetupTest() {
	s.store = NewInMemoryPunchStore()
	s.ctx = context.Background()
	s.worker = id.UserID(uuid.New())
	s.day = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
}

func TestPunchStoreSuite(t *testing.T) {
	suite.Run(t, new(PunchStoreSuite))
}

func (s *PunchStoreSuite) newRecord(t models.PunchType, at time.Time) *models.PunchRecord {
	return &models.PunchRecord{
		ID:        id.PunchID(uuid.New()),
		WorkerID:  s.worker,
		GroupID:   id.GroupID(uuid.New()),
		Type:      t,
		WorkDay:   models.DayOf(at, time.UTC),
		PunchedAt: at,
		Location:  &models.LocationSample{Latitude: -23.55, Longitude: -46.63, AccuracyMeters: 12},
		State:     models.StateCommitted,
		Risk:      models.RiskAssessment{Score: 10, Tags: []models.AnomalyTag{models.TagNewIP}},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// =============================================================================
// Save
// =============================================================================

func (s *PunchStoreSuite) TestSave() {
	s.Run("stores and lists records of the day in punch order", func() {
		exit := s.newRecord(models.PunchLunchOut, s.day.Add(12*time.Hour))
		entrance := s.newRecord(models.PunchEntrance, s.day.Add(8*time.Hour))
		s.Require().NoError(s.store.Save(s.ctx, exit))
		s.Require().NoError(s.store.Save(s.ctx, entrance))

		records, err := s.store.ListForDay(s.ctx, s.worker, s.day)
		s.Require().NoError(err)
		s.Require().Len(records, 2)
		s.Equal(models.PunchEntrance, records[0].Type)
		s.Equal(models.PunchLunchOut, records[1].Type)
	})

	s.Run("rejects a second record of the same type on the same day", func() {
		s.SetupTest()
		s.Require().NoError(s.store.Save(s.ctx, s.newRecord(models.PunchEntrance, s.day.Add(8*time.Hour))))

		err := s.store.Save(s.ctx, s.newRecord(models.PunchEntrance, s.day.Add(9*time.Hour)))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows the same type on another day", func() {
		s.SetupTest()
		s.Require().NoError(s.store.Save(s.ctx, s.newRecord(models.PunchEntrance, s.day.Add(8*time.Hour))))
		s.NoError(s.store.Save(s.ctx, s.newRecord(models.PunchEntrance, s.day.Add(32*time.Hour))))
	})

	s.Run("rejects a reused id", func() {
		s.SetupTest()
		r := s.newRecord(models.PunchEntrance, s.day.Add(8*time.Hour))
		s.Require().NoError(s.store.Save(s.ctx, r))
		again := s.newRecord(models.PunchLunchOut, s.day.Add(12*time.Hour))
		again.ID = r.ID
		s.ErrorIs(s.store.Save(s.ctx, again), sentinel.ErrConflict)
	})
}

// =============================================================================
// Reads
// =============================================================================

func (s *PunchStoreSuite) TestHistoryNewestFirst() {
	for i, t := range []models.PunchType{models.PunchEntrance, models.PunchLunchOut, models.PunchLunchIn} {
		s.Require().NoError(s.store.Save(s.ctx, s.newRecord(t, s.day.Add(time.Duration(8+i)*time.Hour))))
	}

	records, err := s.store.History(s.ctx, s.worker, 2)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(models.PunchLunchIn, records[0].Type)
	s.Equal(models.PunchLunchOut, records[1].Type)

	none, err := s.store.History(s.ctx, id.UserID(uuid.New()), 10)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PunchStoreSuite) TestListRangeIsHalfOpen() {
	s.Require().NoError(s.store.Save(s.ctx, s.newRecord(models.PunchEntrance, s.day.Add(8*time.Hour))))
	s.Require().NoError(s.store.Save(s.ctx, s.newRecord(models.PunchEntrance, s.day.Add(24*time.Hour+8*time.Hour))))
	s.Require().NoError(s.store.Save(s.ctx, s.newRecord(models.PunchEntrance, s.day.Add(48*time.Hour+8*time.Hour))))

	records, err := s.store.ListRange(s.ctx, s.worker, s.day, s.day.AddDate(0, 0, 2))
	s.Require().NoError(err)
	s.Len(records, 2)
}

func (s *PunchStoreSuite) TestReturnedRecordsAreCopies() {
	r := s.newRecord(models.PunchEntrance, s.day.Add(8*time.Hour))
	s.Require().NoError(s.store.Save(s.ctx, r))
	r.Location.Latitude = 0
	r.Risk.Tags[0] = models.TagTor

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	found.State = models.StateRejected

	again, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(-23.55, again.Location.Latitude)
	s.Equal([]models.AnomalyTag{models.TagNewIP}, again.Risk.Tags)
	s.Equal(models.StateCommitted, again.State)
}

// =============================================================================
// UpdateState
// =============================================================================

func (s *PunchStoreSuite) TestUpdateState() {
	r := s.newRecord(models.PunchEntrance, s.day.Add(8*time.Hour))
	r.State = models.StatePendingApproval
	s.Require().NoError(s.store.Save(s.ctx, r))
	at := s.day.Add(10 * time.Hour)

	s.Run("moves a pending record", func() {
		s.Require().NoError(s.store.UpdateState(s.ctx, r.ID, models.StatePendingApproval, models.StateCommitted, at))
		found, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.StateCommitted, found.State)
		s.Equal(at, found.UpdatedAt)
	})

	s.Run("refuses when the record left the expected state", func() {
		err := s.store.UpdateState(s.ctx, r.ID, models.StatePendingApproval, models.StateRejected, at)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown record", func() {
		err := s.store.UpdateState(s.ctx, id.PunchID(uuid.New()), models.StatePendingApproval, models.StateRejected, at)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func TestGeofenceStore(t *testing.T) {
	ctx := context.Background()
	st := NewInMemoryGeofenceStore()
	group := id.GroupID(uuid.New())
	fences := []models.Geofence{{Name: "hq", Latitude: 1, Longitude: 2, RadiusMeters: 100}}

	if err := st.Set(ctx, group, fences); err != nil {
		t.Fatal(err)
	}
	fences[0].Name = "mutated"

	got, err := st.ForGroup(ctx, group)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "hq" {
		t.Fatalf("unexpected geofences: %+v", got)
	}
	other, _ := st.ForGroup(ctx, id.GroupID(uuid.New()))
	if len(other) != 0 {
		t.Fatalf("expected no geofences for unknown group, got %d", len(other))
	}
}
