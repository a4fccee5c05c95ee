// Package service implements the approval queue: the only component that
// moves an escalated punch out of pending_approval.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"punchclock/internal/approval/metrics"
	"punchclock/internal/approval/ports"
	"punchclock/internal/notification"
	"punchclock/internal/punch/models"
	punchports "punchclock/internal/punch/ports"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/platform/sentinel"
	"punchclock/pkg/platform/tx"
	"punchclock/pkg/requestcontext"
)

// MaxCommentLength bounds a reviewer comment.
const MaxCommentLength = 500

// StateFilter selects entries by review state.
type StateFilter string

const (
	FilterPending StateFilter = "pending"
	FilterDecided StateFilter = "decided"
	FilterAll     StateFilter = "all"
)

// ParseStateFilter defaults to pending.
func ParseStateFilter(s string) (StateFilter, error) {
	switch StateFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterPending:
		return FilterPending, nil
	case FilterDecided:
		return FilterDecided, nil
	case FilterAll:
		return FilterAll, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "state must be pending, decided or all")
	}
}

func (f StateFilter) states() []models.ApprovalState {
	switch f {
	case FilterDecided:
		return []models.ApprovalState{models.StateCommitted, models.StateRejected}
	case FilterAll:
		return nil
	default:
		return []models.ApprovalState{models.StatePendingApproval}
	}
}

// Service is the approval queue.
type Service struct {
	store    ports.Store
	punches  ports.PunchStore
	tx       tx.Runner
	notifier ports.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
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

func New(store ports.Store, punches ports.PunchStore, runner tx.Runner, opts ...Option) (*Service, error) {
	switch {
	case store == nil:
		return nil, fmt.Errorf("approval store is required")
	case punches == nil:
		return nil, fmt.Errorf("punch store is required")
	case runner == nil:
		return nil, fmt.Errorf("transaction runner is required")
	}
	s := &Service{
		store:   store,
		punches: punches,
		tx:      runner,
		logger:  slog.Default(),
		tracer:  otel.Tracer("punchclock/approval"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enqueue adds an escalated punch to the queue. It runs inside the caller's
// registration transaction.
func (s *Service) Enqueue(ctx context.Context, entry *models.PendingApprovalEntry) error {
	if entry == nil || entry.Record == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "approval entry needs its punch record")
	}
	if !entry.IsPending() || entry.Record.State != models.StatePendingApproval {
		return dErrors.New(dErrors.CodeInvariantViolation, "only pending punches can be enqueued")
	}
	if err := s.store.Enqueue(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "punch is already queued for approval")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to enqueue approval entry")
	}
	s.metrics.IncrementEnqueued()
	return nil
}

// PendingCount is the number of entries of the group still awaiting a
// decision. It is computed from the entries on every call.
func (s *Service) PendingCount(ctx context.Context, groupID id.GroupID) (int, error) {
	n, err := s.store.CountPending(ctx, groupID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count pending approvals")
	}
	return n, nil
}

// List returns the group's entries, oldest first. Reviewers see the whole
// group; workers see only their own entries.
func (s *Service) List(ctx context.Context, groupID id.GroupID, filter StateFilter) ([]*models.PendingApprovalEntry, error) {
	f := ports.Filter{GroupID: groupID, States: filter.states()}
	if caller := requestcontext.UserID(ctx); !caller.IsNil() {
		if requestcontext.GroupID(ctx) != groupID {
			return nil, dErrors.New(dErrors.CodeForbidden, "approval queue belongs to another group")
		}
		if !requestcontext.Role(ctx).CanReview() {
			f.WorkerID = caller
		}
	}

	entries, err := s.store.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approval entries")
	}
	return entries, nil
}

// Decide records a reviewer verdict. Approval commits the punch, rejection
// marks it rejected; either way the day's slot for that punch type stays
// taken. Deciding an entry twice fails with already_reviewed.
func (s *Service) Decide(ctx context.Context, entryID id.ApprovalID, reviewerID id.UserID, approve bool, comment string) (*models.PendingApprovalEntry, error) {
	ctx, span := s.tracer.Start(ctx, "approval.Decide",
		trace.WithAttributes(
			attribute.String("approval.id", entryID.String()),
			attribute.Bool("approval.approve", approve),
		),
	)
	defer span.End()

	if err := s.authorize(ctx, entryID, reviewerID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > MaxCommentLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}

	current, err := s.find(ctx, entryID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var decided *models.PendingApprovalEntry
	// Shares the registration key so a decision never interleaves with a
	// registration of the same worker.
	err = s.tx.RunInTx(ctx, "punch:"+current.Record.WorkerID.String(), func(ctx context.Context) error {
		entry, err := s.find(ctx, entryID)
		if err != nil {
			return err
		}
		if !entry.IsPending() {
			return s.alreadyReviewed(ctx, entry, reviewerID)
		}

		entry.ApplyDecision(reviewerID, approve, comment, now)
		if err := s.store.Decide(ctx, entry); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return s.alreadyReviewed(ctx, entry, reviewerID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store decision")
		}
		err = s.punches.UpdateState(ctx, entry.Record.ID, models.StatePendingApproval, entry.State, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "punch is no longer pending approval")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update punch state")
		}
		decided = entry
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if _, ok := dErrors.As(err); !ok {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to decide approval entry")
		}
		return nil, err
	}

	s.metrics.ObserveDecision(string(decided.Decision), decided.CreatedAt, now)
	span.SetAttributes(attribute.String("approval.decision", string(decided.Decision)))
	punchports.LogAudit(ctx, s.logger, "approval_decided",
		"approval_id", decided.ID,
		"punch_id", decided.Record.ID,
		"worker_id", decided.Record.WorkerID,
		"reviewer_id", reviewerID,
		"decision", decided.Decision,
	)

	pending, err := s.PendingCount(ctx, decided.Record.GroupID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to count pending approvals",
			"group_id", decided.Record.GroupID,
			"error", err,
		)
	}
	notification.Notify(ctx, s.logger, s.notifier, notification.Event{
		Kind:         notification.KindApprovalDecided,
		GroupID:      decided.Record.GroupID,
		WorkerID:     decided.Record.WorkerID,
		EntityID:     decided.ID.String(),
		Reason:       string(decided.Decision),
		PendingCount: pending,
		OccurredAt:   now,
		RequestID:    requestcontext.RequestID(ctx),
	})
	return decided, nil
}

// authorize requires the caller to be the reviewer named in the call and to
// hold the reviewer role.
func (s *Service) authorize(ctx context.Context, entryID id.ApprovalID, reviewerID id.UserID) error {
	caller := requestcontext.UserID(ctx)
	if reviewerID.IsNil() || (!caller.IsNil() && caller != reviewerID) || !requestcontext.Role(ctx).CanReview() {
		s.metrics.IncrementDenied("not_reviewer")
		punchports.LogAudit(ctx, s.logger, "approval_decision_denied",
			"approval_id", entryID,
			"caller_id", caller,
			"reviewer_id", reviewerID,
			"role", requestcontext.Role(ctx),
			"reason", "not_reviewer",
		)
		return dErrors.New(dErrors.CodeForbidden, "only reviewers may decide approvals")
	}
	return nil
}

// find loads an entry visible to the caller. Entries of other groups are
// reported as missing.
func (s *Service) find(ctx context.Context, entryID id.ApprovalID) (*models.PendingApprovalEntry, error) {
	entry, err := s.store.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "approval entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approval entry")
	}
	if entry.Record == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "approval entry has no punch record")
	}
	if group := requestcontext.GroupID(ctx); !group.IsNil() && group != entry.Record.GroupID {
		return nil, dErrors.New(dErrors.CodeNotFound, "approval entry not found")
	}
	return entry, nil
}

func (s *Service) alreadyReviewed(ctx context.Context, entry *models.PendingApprovalEntry, reviewerID id.UserID) error {
	s.metrics.IncrementDenied("already_reviewed")
	punchports.LogAudit(ctx, s.logger, "approval_decision_denied",
		"approval_id", entry.ID,
		"reviewer_id", reviewerID,
		"state", entry.State,
		"reason", "already_reviewed",
	)
	return dErrors.New(dErrors.CodeAlreadyReviewed, "approval entry was already reviewed")
}

