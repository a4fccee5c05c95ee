// Package service implements the overtime request workflow. An approved
// request only authorizes overtime punches; it never creates them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"punchclock/internal/notification"
	"punchclock/internal/overtime/metrics"
	"punchclock/internal/overtime/models"
	"punchclock/internal/overtime/ports"
	punchmodels "punchclock/internal/punch/models"
	punchports "punchclock/internal/punch/ports"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/platform/sentinel"
	"punchclock/pkg/requestcontext"
)

const (
	MaxJustificationLength = 500
	MaxCommentLength       = 500
)

// CreateRequest is a worker's overtime request. Date is a calendar date
// encoded as UTC midnight.
type CreateRequest struct {
	WorkerID      id.UserID
	GroupID       id.GroupID
	Date          time.Time
	Start         models.ClockTime
	End           models.ClockTime
	Justification string
}

// Service is the overtime request workflow.
type Service struct {
	store    ports.Store
	pending  ports.PendingCounter
	notifier ports.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	loc      *time.Location
}

type Option func(*Service)

func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithPendingCounter supplies the badge value carried by notifications.
func WithPendingCounter(c ports.PendingCounter) Option {
	return func(s *Service) {
		s.pending = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWorkdayLocation sets the timezone that decides what "today" is.
func WithWorkdayLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(store ports.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("overtime store is required")
	}
	s := &Service{
		store:  store,
		logger: slog.Default(),
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create files a PENDING request. The window must end after it starts and
// the date must be today or later.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.OvertimeRequest, error) {
	if req.WorkerID.IsNil() || req.GroupID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "worker identity required")
	}
	if !req.Start.Valid() || !req.End.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "start and end must be times of day")
	}
	if req.End <= req.Start {
		return nil, dErrors.New(dErrors.CodeValidation, "end time must be after start time")
	}
	justification := strings.TrimSpace(req.Justification)
	switch {
	case justification == "":
		return nil, dErrors.New(dErrors.CodeValidation, "justification is required")
	case len(justification) > MaxJustificationLength:
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("justification must be at most %d characters", MaxJustificationLength))
	}

	now := requestcontext.Now(ctx)
	today := punchmodels.DayOf(now, s.loc)
	date := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return nil, dErrors.New(dErrors.CodeValidation, "overtime can only be requested for today or a later date")
	}

	request := &models.OvertimeRequest{
		ID:            id.OvertimeID(uuid.New()),
		WorkerID:      req.WorkerID,
		GroupID:       req.GroupID,
		Date:          date,
		Start:         req.Start,
		End:           req.End,
		Justification: justification,
		Status:        models.StatusPending,
		RequestedAt:   now,
	}
	if err := s.store.Create(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create overtime request")
	}

	s.metrics.ObserveRequest(request.Minutes())
	s.logger.InfoContext(ctx, "overtime requested",
		"request_id", requestcontext.RequestID(ctx),
		"overtime_id", request.ID,
		"worker_id", request.WorkerID,
		"date", date.Format(time.DateOnly),
		"minutes", request.Minutes(),
	)
	s.notify(ctx, notification.KindOvertimeRequested, request, "")
	return request, nil
}

// Review approves or rejects a PENDING request. Only reviewers of the
// request's group may review; a second review fails with already_reviewed.
func (s *Service) Review(ctx context.Context, requestID id.OvertimeID, reviewerID id.UserID, approve bool, comment string) (*models.OvertimeRequest, error) {
	caller := requestcontext.UserID(ctx)
	if reviewerID.IsNil() || (!caller.IsNil() && caller != reviewerID) || !requestcontext.Role(ctx).CanReview() {
		punchports.LogAudit(ctx, s.logger, "overtime_review_denied",
			"overtime_id", requestID,
			"caller_id", caller,
			"reviewer_id", reviewerID,
			"reason", "not_reviewer",
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "only reviewers may review overtime requests")
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > MaxCommentLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}

	request, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := request.ApplyReview(reviewerID, approve, comment, requestcontext.Now(ctx)); err != nil {
		s.auditAlreadyReviewed(ctx, request, reviewerID)
		return nil, err
	}
	if err := s.store.Review(ctx, request); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			s.auditAlreadyReviewed(ctx, request, reviewerID)
			return nil, dErrors.New(dErrors.CodeAlreadyReviewed, "overtime request was already reviewed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store overtime review")
	}

	s.metrics.IncrementReview(string(request.Status))
	punchports.LogAudit(ctx, s.logger, "overtime_reviewed",
		"overtime_id", request.ID,
		"worker_id", request.WorkerID,
		"reviewer_id", reviewerID,
		"status", request.Status,
	)
	s.notify(ctx, notification.KindOvertimeReviewed, request, string(request.Status))
	return request, nil
}

// List returns the group's requests, most recent date first. Workers see
// only their own; reviewers see the whole group. An empty status matches all.
func (s *Service) List(ctx context.Context, groupID id.GroupID, status models.Status) ([]*models.OvertimeRequest, error) {
	filter := ports.Filter{GroupID: groupID, Status: status}
	if caller := requestcontext.UserID(ctx); !caller.IsNil() {
		if requestcontext.GroupID(ctx) != groupID {
			return nil, dErrors.New(dErrors.CodeForbidden, "overtime requests belong to another group")
		}
		if !requestcontext.Role(ctx).CanReview() {
			filter.WorkerID = caller
		}
	}
	requests, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list overtime requests")
	}
	return requests, nil
}

// HasApproved reports whether the worker may register overtime punches on
// day. It backs the punch state machine's overtime window.
func (s *Service) HasApproved(ctx context.Context, workerID id.UserID, day time.Time) (bool, error) {
	ok, err := s.store.HasApproved(ctx, workerID, day)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check overtime approval")
	}
	return ok, nil
}

func (s *Service) find(ctx context.Context, requestID id.OvertimeID) (*models.OvertimeRequest, error) {
	request, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "overtime request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load overtime request")
	}
	if group := requestcontext.GroupID(ctx); !group.IsNil() && group != request.GroupID {
		return nil, dErrors.New(dErrors.CodeNotFound, "overtime request not found")
	}
	return request, nil
}

func (s *Service) auditAlreadyReviewed(ctx context.Context, request *models.OvertimeRequest, reviewerID id.UserID) {
	punchports.LogAudit(ctx, s.logger, "overtime_review_denied",
		"overtime_id", request.ID,
		"reviewer_id", reviewerID,
		"status", request.Status,
		"reason", "already_reviewed",
	)
}

func (s *Service) notify(ctx context.Context, kind notification.Kind, request *models.OvertimeRequest, reason string) {
	pending := 0
	if s.pending != nil {
		n, err := s.pending.PendingCount(ctx, request.GroupID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to count pending approvals",
				"group_id", request.GroupID,
				"error", err,
			)
		}
		pending = n
	}
	notification.Notify(ctx, s.logger, s.notifier, notification.Event{
		Kind:         kind,
		GroupID:      request.GroupID,
		WorkerID:     request.WorkerID,
		EntityID:     request.ID.String(),
		Reason:       reason,
		PendingCount: pending,
		OccurredAt:   requestcontext.Now(ctx),
		RequestID:    requestcontext.RequestID(ctx),
	})
}
