package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"punchclock/internal/overtime/models"
	"punchclock/internal/overtime/service"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/platform/httputil"
	"punchclock/pkg/requestcontext"
)

// Service defines the interface for overtime workflow operations.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.OvertimeRequest, error)
	Review(ctx context.Context, requestID id.OvertimeID, reviewerID id.UserID, approve bool, comment string) (*models.OvertimeRequest, error)
	List(ctx context.Context, groupID id.GroupID, status models.Status) ([]*models.OvertimeRequest, error)
}

// Handler wires overtime endpoints to the overtime workflow.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an overtime handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts overtime endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/overtime", h.HandleCreate)
	r.Get("/overtime", h.HandleList)
	r.Post("/overtime/{id}/review", h.HandleReview)
}

// HandleCreate handles POST /overtime.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	workerID := requestcontext.UserID(ctx)
	if workerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateOvertimeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, service.CreateRequest{
		WorkerID:      workerID,
		GroupID:       requestcontext.GroupID(ctx),
		Date:          req.date,
		Start:         req.start,
		End:           req.end,
		Justification: req.Justification,
	})
	if err != nil {
		h.logError(ctx, "overtime request failed", err,
			"request_id", requestID,
			"worker_id", workerID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRequest(created))
}

// HandleList handles GET /overtime?status=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID := requestcontext.GroupID(ctx)
	if requestcontext.UserID(ctx).IsNil() || groupID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var status models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = parsed
	}

	requests, err := h.service.List(ctx, groupID, status)
	if err != nil {
		h.logError(ctx, "failed to list overtime requests", err,
			"request_id", requestcontext.RequestID(ctx),
			"group_id", groupID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequests(requests))
}

// HandleReview handles POST /overtime/{id}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewerID := requestcontext.UserID(ctx)
	if reviewerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	overtimeID, err := id.ParseOvertimeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reviewed, err := h.service.Review(ctx, overtimeID, reviewerID, req.approve, req.Comment)
	if err != nil {
		h.logError(ctx, "overtime review failed", err,
			"request_id", requestID,
			"overtime_id", overtimeID,
			"reviewer_id", reviewerID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "overtime reviewed",
		"request_id", requestID,
		"overtime_id", overtimeID,
		"status", reviewed.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromRequest(reviewed))
}

func (h *Handler) logError(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
