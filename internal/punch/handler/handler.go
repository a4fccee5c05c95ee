package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"punchclock/internal/punch/models"
	"punchclock/internal/punch/service"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/platform/httputil"
	"punchclock/pkg/requestcontext"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service defines the interface for punch operations.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResult, error)
	Today(ctx context.Context, workerID id.UserID) (*service.TodayView, error)
	Summary(ctx context.Context, workerID id.UserID, period models.Period, day time.Time) (*models.Summary, error)
	Timesheet(ctx context.Context, workerID id.UserID, month time.Time) ([]byte, error)
}

// Handler wires punch endpoints to the punch service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a punch handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts punch endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/punches", h.HandleRegister)
	r.Get("/punches/today", h.HandleToday)
	r.Get("/punches/summary", h.HandleSummary)
	r.Get("/punches/timesheet", h.HandleTimesheet)
}

// HandleRegister handles POST /punches. Committed punches answer 201,
// escalated ones 202 and rejections 422 with the failing reasons.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	workerID := requestcontext.UserID(ctx)
	if workerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterPunchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Register(ctx, models.RegisterRequest{
		WorkerID:              workerID,
		GroupID:               requestcontext.GroupID(ctx),
		Type:                  req.ParsedType(),
		Sample:                req.Sample(),
		SessionID:             requestcontext.SessionID(ctx),
		IPAddress:             requestcontext.ClientIP(ctx),
		UserAgent:             requestcontext.UserAgent(ctx),
		Hints:                 req.Hints(),
		Justification:         req.Justification,
		OverrideJustification: req.OverrideJustification,
	})
	if err != nil {
		h.logError(ctx, "punch registration failed", err,
			"request_id", requestID,
			"worker_id", workerID,
			"punch_type", req.Type,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "punch registered",
		"request_id", requestID,
		"worker_id", workerID,
		"punch_type", req.Type,
		"outcome", result.Outcome,
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	status := http.StatusCreated
	switch result.Outcome {
	case models.OutcomePendingApproval:
		status = http.StatusAccepted
	case models.OutcomeRejected:
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, FromResult(result))
}

// HandleToday handles GET /punches/today.
func (h *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, err := targetWorker(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.Today(ctx, workerID)
	if err != nil {
		h.logError(ctx, "failed to load today's punches", err,
			"request_id", requestcontext.RequestID(ctx),
			"worker_id", workerID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromToday(view))
}

// HandleSummary handles GET /punches/summary?period=&date=.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, err := targetWorker(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	period, err := models.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.Summary(ctx, workerID, period, day)
	if err != nil {
		h.logError(ctx, "failed to summarize punches", err,
			"request_id", requestcontext.RequestID(ctx),
			"worker_id", workerID,
			"period", period,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(summary))
}

// HandleTimesheet handles GET /punches/timesheet?month=YYYY-MM and returns an XLSX workbook.
func (h *Handler) HandleTimesheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, err := targetWorker(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	monthParam := r.URL.Query().Get("month")
	month, err := parseMonth(monthParam)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	workbook, err := h.service.Timesheet(ctx, workerID, month)
	if err != nil {
		h.logError(ctx, "failed to export timesheet", err,
			"request_id", requestcontext.RequestID(ctx),
			"worker_id", workerID,
			"month", monthParam,
		)
		httputil.WriteError(w, err)
		return
	}

	filename := "timesheet.xlsx"
	if !month.IsZero() {
		filename = fmt.Sprintf("timesheet-%s.xlsx", month.Format("2006-01"))
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

// targetWorker returns the worker a read request is about: the caller, or
// the worker_id query parameter when the caller is a reviewer.
func targetWorker(r *http.Request) (id.UserID, error) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		return id.UserID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	raw := r.URL.Query().Get("worker_id")
	if raw == "" {
		return caller, nil
	}
	workerID, err := id.ParseUserID(raw)
	if err != nil {
		return id.UserID{}, err
	}
	if workerID != caller && !requestcontext.Role(ctx).CanReview() {
		return id.UserID{}, dErrors.New(dErrors.CodeForbidden, "only reviewers may view other workers")
	}
	return workerID, nil
}

// logError logs client errors at warn and everything else at error.
func (h *Handler) logError(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
