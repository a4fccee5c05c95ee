package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"punchclock/internal/notification"
	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/platform/httputil"
	"punchclock/pkg/requestcontext"
)

const writeTimeout = 5 * time.Second

// PendingCounter reports the group's pending-approval count for the ready frame.
type PendingCounter interface {
	PendingCount(ctx context.Context, groupID id.GroupID) (int, error)
}

// Handler streams notification events to live clients over WebSocket.
type Handler struct {
	hub            *notification.Hub
	pending        PendingCounter
	logger         *slog.Logger
	originPatterns []string
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithOriginPatterns allows cross-origin upgrades from the given host patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(h *Handler) {
		h.originPatterns = patterns
	}
}

func New(hub *notification.Hub, pending PendingCounter, opts ...Option) *Handler {
	h := &Handler{hub: hub, pending: pending, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications/stream", h.HandleStream)
}

// readyFrame opens every stream.
type readyFrame struct {
	Kind         string `json:"kind"`
	PendingCount int    `json:"pending_count"`
}

// HandleStream upgrades to a WebSocket. Reviewers receive every event of their
// group; workers receive only events about themselves.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	groupID := requestcontext.GroupID(ctx)
	role := requestcontext.Role(ctx)
	requestID := requestcontext.RequestID(ctx)
	if userID.IsNil() || groupID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if h.hub == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "stream unavailable"))
		return
	}

	count := 0
	if h.pending != nil {
		n, err := h.pending.PendingCount(ctx, groupID)
		if err != nil {
			h.logger.WarnContext(ctx, "failed to load pending count for stream",
				"error", err,
				"group_id", groupID,
				"request_id", requestID,
			)
		}
		count = n
	}

	// The server's write timeout would otherwise cut long-lived streams.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			"error", err,
			"request_id", requestID,
		)
		return
	}
	// Clients never send; CloseRead cancels ctx when the peer goes away.
	ctx = conn.CloseRead(ctx)

	sub := h.hub.Subscribe(filterFor(userID, groupID, role))
	defer sub.Close()

	if err := write(ctx, conn, readyFrame{Kind: "ready", PendingCount: count}); err != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case event, ok := <-sub.C:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
				return
			}
			if err := write(ctx, conn, event.Payload()); err != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, v any) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, v)
}

func filterFor(userID id.UserID, groupID id.GroupID, role id.Role) func(notification.Event) bool {
	if role.CanReview() {
		return func(e notification.Event) bool { return e.GroupID == groupID }
	}
	return func(e notification.Event) bool { return e.GroupID == groupID && e.WorkerID == userID }
}
