package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"punchclock/internal/approval/service"
	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/platform/httputil"
	"punchclock/pkg/requestcontext"
)

// Service defines the interface for approval queue operations.
type Service interface {
	List(ctx context.Context, groupID id.GroupID, filter service.StateFilter) ([]*models.PendingApprovalEntry, error)
	PendingCount(ctx context.Context, groupID id.GroupID) (int, error)
	Decide(ctx context.Context, entryID id.ApprovalID, reviewerID id.UserID, approve bool, comment string) (*models.PendingApprovalEntry, error)
}

// Handler wires approval endpoints to the approval queue.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an approval handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts approval endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/approvals", h.HandleList)
	r.Get("/approvals/count", h.HandleCount)
	r.Post("/approvals/{id}/decision", h.HandleDecide)
}

// HandleList handles GET /approvals?state=pending|decided|all for the caller's group.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.group(w, r)
	if !ok {
		return
	}
	filter, err := service.ParseStateFilter(r.URL.Query().Get("state"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.List(ctx, groupID, filter)
	if err != nil {
		h.logError(ctx, "failed to list approvals", err,
			"request_id", requestcontext.RequestID(ctx),
			"group_id", groupID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEntries(entries))
}

// HandleCount handles GET /approvals/count, the badge value.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.group(w, r)
	if !ok {
		return
	}

	n, err := h.service.PendingCount(ctx, groupID)
	if err != nil {
		h.logError(ctx, "failed to count pending approvals", err,
			"request_id", requestcontext.RequestID(ctx),
			"group_id", groupID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CountResponse{PendingCount: n})
}

// HandleDecide handles POST /approvals/{id}/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reviewerID := requestcontext.UserID(ctx)
	if reviewerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	entryID, err := id.ParseApprovalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.Decide(ctx, entryID, reviewerID, req.Approve(), req.Comment)
	if err != nil {
		h.logError(ctx, "approval decision failed", err,
			"request_id", requestID,
			"approval_id", entryID,
			"reviewer_id", reviewerID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "approval decided",
		"request_id", requestID,
		"approval_id", entryID,
		"reviewer_id", reviewerID,
		"decision", entry.Decision,
	)
	httputil.WriteJSON(w, http.StatusOK, FromEntry(entry))
}

func (h *Handler) group(w http.ResponseWriter, r *http.Request) (id.GroupID, bool) {
	groupID := requestcontext.GroupID(r.Context())
	if requestcontext.UserID(r.Context()).IsNil() || groupID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.GroupID{}, false
	}
	return groupID, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
