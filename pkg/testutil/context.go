package testutil

import (
	"context"
	"net/http"
	"time"

	id "punchclock/pkg/domain"
	"punchclock/pkg/requestcontext"
)

// WithIdentity adds an authenticated identity to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithIdentity(req *http.Request, userID id.UserID, groupID id.GroupID, role id.Role) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), userID, groupID, role))
}

// WithSessionID adds a session ID to the request context.
// If the sessionID is not a valid UUID, it will not be added to the context.
func WithSessionID(req *http.Request, sessionID string) *http.Request {
	if parsed, err := id.ParseSessionID(sessionID); err == nil {
		return req.WithContext(requestcontext.WithSessionID(req.Context(), parsed))
	}
	return req
}

// WithClientMetadata adds the client IP and User-Agent the metadata middleware would set.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}

// WithTime pins the request clock.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
