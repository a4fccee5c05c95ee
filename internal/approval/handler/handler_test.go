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

	"punchclock/internal/approval/handler/mocks"
	"punchclock/internal/approval/service"
	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	service  *mocks.MockService
	router   chi.Router
	reviewer id.UserID
	group    id.GroupID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, nil).Register(s.router)
	s.reviewer = id.UserID(uuid.New())
	s.group = id.GroupID(uuid.New())
}

func (s *HandlerSuite) as(req *http.Request, role id.Role) *http.Request {
	return testutil.WithIdentity(req, s.reviewer, s.group, role)
}

func (s *HandlerSuite) entry(state models.ApprovalState) *models.PendingApprovalEntry {
	at := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	return &models.PendingApprovalEntry{
		ID: id.ApprovalID(uuid.New()),
		Record: &models.PunchRecord{
			ID:                    id.PunchID(uuid.New()),
			WorkerID:              id.UserID(uuid.New()),
			GroupID:               s.group,
			Type:                  models.PunchLunchOut,
			WorkDay:               time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			PunchedAt:             at,
			Location:              &models.LocationSample{AccuracyMeters: 500},
			OverrideJustification: "indoor, weak GPS",
			State:                 state,
		},
		Reason:    models.EscalationLowAccuracy,
		State:     state,
		CreatedAt: at,
	}
}

// =============================================================================
// GET /approvals
// =============================================================================

func (s *HandlerSuite) TestList() {
	s.Run("defaults to pending", func() {
		e := s.entry(models.StatePendingApproval)
		s.service.EXPECT().List(gomock.Any(), s.group, service.FilterPending).Return([]*models.PendingApprovalEntry{e}, nil)

		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/approvals"), id.RoleReviewer))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
		s.Equal(1, resp.Total)
		s.Require().Len(resp.Entries, 1)
		s.Equal(e.ID.String(), resp.Entries[0].ID)
		s.Equal("low_accuracy", resp.Entries[0].Reason)
		s.Require().NotNil(resp.Entries[0].Punch)
		s.Equal("lunch_out", resp.Entries[0].Punch.Type)
		s.Equal("indoor, weak GPS", resp.Entries[0].Punch.OverrideJustification)
		s.Require().NotNil(resp.Entries[0].Punch.AccuracyMeters)
		s.Equal(500.0, *resp.Entries[0].Punch.AccuracyMeters)
	})

	s.Run("state filter", func() {
		s.service.EXPECT().List(gomock.Any(), s.group, service.FilterDecided).Return(nil, nil)

		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/approvals?state=decided"), id.RoleReviewer))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
		s.Empty(resp.Entries)
	})

	s.Run("bad state filter", func() {
		rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/approvals?state=maybe"), id.RoleReviewer))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("unauthenticated", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/approvals"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})
}

func (s *HandlerSuite) TestCount() {
	s.service.EXPECT().PendingCount(gomock.Any(), s.group).Return(3, nil)

	rr := testutil.DoRequest(s.router, s.as(testutil.NewRequest(s.T(), http.MethodGet, "/approvals/count"), id.RoleWorker))

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "pending_count", float64(3))
}

// =============================================================================
// POST /approvals/{id}/decision
// =============================================================================

func (s *HandlerSuite) TestDecide() {
	s.Run("approve", func() {
		e := s.entry(models.StatePendingApproval)
		e.ApplyDecision(s.reviewer, true, "ok", time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC))
		s.service.EXPECT().Decide(gomock.Any(), e.ID, s.reviewer, true, "ok").Return(e, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/approvals/"+e.ID.String()+"/decision",
			map[string]any{"decision": "approve", "comment": " ok "})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleReviewer))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[EntryResponse](s.T(), rr)
		s.Equal("committed", resp.State)
		s.Equal("approved", resp.Decision)
		s.Equal(s.reviewer.String(), resp.ReviewerID)
		s.NotNil(resp.ReviewedAt)
	})

	s.Run("service errors map to status", func() {
		cases := []struct {
			code   dErrors.Code
			status int
		}{
			{dErrors.CodeAlreadyReviewed, http.StatusConflict},
			{dErrors.CodeForbidden, http.StatusForbidden},
			{dErrors.CodeNotFound, http.StatusNotFound},
		}
		for _, tc := range cases {
			entryID := id.ApprovalID(uuid.New())
			s.service.EXPECT().Decide(gomock.Any(), entryID, s.reviewer, false, "").Return(nil, dErrors.New(tc.code, "nope"))

			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/approvals/"+entryID.String()+"/decision",
				map[string]any{"decision": "reject"})
			rr := testutil.DoRequest(s.router, s.as(req, id.RoleReviewer))
			testutil.AssertStatusAndError(s.T(), rr, tc.status, string(tc.code))
		}
	})

	s.Run("malformed id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/approvals/nope/decision", map[string]any{"decision": "approve"})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleReviewer))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("missing decision", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/approvals/"+uuid.NewString()+"/decision", map[string]any{"comment": "x"})
		rr := testutil.DoRequest(s.router, s.as(req, id.RoleReviewer))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("unauthenticated", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/approvals/"+uuid.NewString()+"/decision", map[string]any{"decision": "approve"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

func TestDecisionRequest_Validate(t *testing.T) {
	for _, tc := range []struct {
		decision string
		approve  bool
		ok       bool
	}{
		{"approve", true, true},
		{"APPROVED", true, true},
		{"reject", false, true},
		{"rejected", false, true},
		{"", false, false},
		{"maybe", false, false},
	} {
		req := DecisionRequest{Decision: tc.decision}
		err := req.Validate()
		if !tc.ok {
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), tc.decision)
			continue
		}
		assert.NoError(t, err, tc.decision)
		assert.Equal(t, tc.approve, req.Approve(), tc.decision)
	}
}
