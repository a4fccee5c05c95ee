package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "punchclock/pkg/domain"
	dErrors "punchclock/pkg/domain-errors"
	"punchclock/pkg/platform/httputil"
	"punchclock/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID    string
	GroupID   string
	Role      string
	SessionID string
}

// RequireAuth validates the bearer token and injects the caller's identity
// into the request context. Malformed identity claims are treated the same
// as an invalid token.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			userID, groupID, role, err := parseIdentity(claims)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed identity claims",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx = requestcontext.WithIdentity(ctx, userID, groupID, role)
			if sessionID, err := id.ParseSessionID(claims.SessionID); err == nil {
				ctx = requestcontext.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireReviewer rejects callers whose role cannot review. It must run after RequireAuth.
func RequireReviewer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !requestcontext.Role(ctx).CanReview() {
				logger.WarnContext(ctx, "policy violation - reviewer role required",
					"user_id", requestcontext.UserID(ctx),
					"role", requestcontext.Role(ctx),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "reviewer role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseIdentity(claims *JWTClaims) (id.UserID, id.GroupID, id.Role, error) {
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return id.UserID{}, id.GroupID{}, "", err
	}
	groupID, err := id.ParseGroupID(claims.GroupID)
	if err != nil {
		return id.UserID{}, id.GroupID{}, "", err
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return id.UserID{}, id.GroupID{}, "", err
	}
	return userID, groupID, role, nil
}
