package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"punchclock/internal/overtime/handler/mocks"
	"punchclock/internal/overtime/models"
	"punchclock/internal/overtime/service"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	user    id.UserID
	group   id.GroupID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, nil).Register(s.router)
	s.user = id.UserID(uuid.New())
	s.group = id.GroupID(uuid.New())
}

func (s *HandlerSuite) as(req *http.Request, role id.Role) *http.Request {
	return testutil.WithIdentity(req, s.user, s.group, role)
}

func (s *HandlerSuite) overtime(status models.Status) *models.OvertimeRequest {
	return &models.OvertimeRequest{
		ID:            id.OvertimeID(uuid.New()),
		WorkerID:      s.user,
		GroupID:       s.group,
		Date:          time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Start:         18 * 60,
		End:           20 * 60,
		Justification: "dinner",
		Status:        status,
		RequestedAt:   time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// POST /overtime
// =============================================================================

func (s *HandlerSuite) TestCreate() {
	s.Run("creates a pending request", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req service.CreateRequest) (*models.OvertimeRequest, error) {
				s.Equal(s.user, req.WorkerID)
				s.Equal(s.group, req.GroupID)
				s.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), req.Date)
				s.Equal(models.ClockTime(18*60), req.Start)
				s.Equal(models.ClockTime(20*60), req.End)
				return s.overtime(models.StatusPending), nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/overtime", map[string]any{
			"date": "2026-03-09", "start": "18:00", "end": "20:00", "justification": "dinner",
		})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleWorker))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[OvertimeResponse](s.T(), rr)
		s.Equal("PENDING", resp.Status)
		s.Equal("18:00", resp.Start)
		s.Equal("20:00", resp.End)
		s.Equal(120, resp.Minutes)
		s.Equal("2026-03-09", resp.Date)
	})

	s.Run("end before start is rejected before the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/overtime", map[string]any{
			"date": "2026-03-09", "start": "20:00", "end": "18:00", "justification": "dinner",
		})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleWorker))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("past date from the service", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "overtime can only be requested for today or a later date"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/overtime", map[string]any{
			"date": "2020-01-01", "start": "18:00", "end": "19:00", "justification": "late",
		})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleWorker))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("unauthenticated", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/overtime", map[string]any{})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

// =============================================================================
// GET /overtime
// =============================================================================

func (s *HandlerSuite) TestList() {
	s.Run("status filter", func() {
		s.service.EXPECT().List(gomock.Any(), s.group, models.StatusApproved).
			Return([]*models.OvertimeRequest{s.overtime(models.StatusApproved)}, nil)

		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/overtime?status=approved"), id.RoleReviewer))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
		s.Equal(1, resp.Total)
		s.Equal("APPROVED", resp.Requests[0].Status)
	})

	s.Run("no filter", func() {
		s.service.EXPECT().List(gomock.Any(), s.group, models.Status("")).Return(nil, nil)
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/overtime"), id.RoleWorker))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("bad status", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/overtime?status=maybe"), id.RoleWorker))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

// =============================================================================
// POST /overtime/{id}/review
// =============================================================================

func (s *HandlerSuite) TestReview() {
	s.Run("approve", func() {
		reviewed := s.overtime(models.StatusPending)
		s.Require().NoError(reviewed.ApplyReview(s.user, true, "ok", time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC)))
		s.service.EXPECT().Review(gomock.Any(), reviewed.ID, s.user, true, "ok").Return(reviewed, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/overtime/"+reviewed.ID.String()+"/review",
			map[string]any{"decision": "approve", "comment": "ok"})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleReviewer))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[OvertimeResponse](s.T(), rr)
		s.Equal("APPROVED", resp.Status)
		s.Equal(s.user.String(), resp.ReviewerID)
	})

	s.Run("second review conflicts", func() {
		overtimeID := id.OvertimeID(uuid.New())
		s.service.EXPECT().Review(gomock.Any(), overtimeID, s.user, false, "").
			Return(nil, dErrors.New(dErrors.CodeAlreadyReviewed, "overtime request was already reviewed"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/overtime/"+overtimeID.String()+"/review",
			map[string]any{"decision": "reject"})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleReviewer))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeAlreadyReviewed))
	})

	s.Run("worker is forbidden", func() {
		overtimeID := id.OvertimeID(uuid.New())
		s.service.EXPECT().Review(gomock.Any(), overtimeID, s.user, true, "").
			Return(nil, dErrors.New(dErrors.CodeForbidden, "only reviewers may review overtime requests"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/overtime/"+overtimeID.String()+"/review",
			map[string]any{"decision": "approve"})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleWorker))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})

	s.Run("malformed id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/overtime/xyz/review", map[string]any{"decision": "approve"})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleReviewer))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func TestCreateOvertimeRequest_Validate(t *testing.T) {
	base := func() CreateOvertimeRequest {
		return CreateOvertimeRequest{Date: "2026-03-09", Start: "18:00", End: "19:30", Justification: " party "}
	}

	req := base()
	assert.NoError(t, req.Validate())
	assert.Equal(t, "party", req.Justification)
	assert.Equal(t, 90, int(req.end-req.start))

	for name, mutate := range map[string]func(*CreateOvertimeRequest){
		"bad date":       func(r *CreateOvertimeRequest) { r.Date = "09/03/2026" },
		"bad start":      func(r *CreateOvertimeRequest) { r.Start = "6pm" },
		"end equals":     func(r *CreateOvertimeRequest) { r.End = r.Start },
		"no explanation": func(r *CreateOvertimeRequest) { r.Justification = "" },
	} {
		r := base()
		mutate(&r)
		assert.True(t, dErrors.HasCode(r.Validate(), dErrors.CodeValidation), name)
	}
}
