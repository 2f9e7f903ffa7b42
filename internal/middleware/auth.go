package middleware

import (
	"context"
	"net/http"
	"strings"

	"gnosislens-api/internal/model"
	"gnosislens-api/internal/service"
	"gnosislens-api/pkg/apierror"
	"gnosislens-api/pkg/response"
)

// SessionKey is the key for storing session data in request context.
const SessionKey contextKey = "session"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Tokens *service.TokenService
	// AllowAnonymous lets requests without a token through as the
	// anonymous user. A token that is present but invalid is still rejected.
	AllowAnonymous bool
}

// NewAuthMiddleware requires a session token in X-Token or
// Authorization: Bearer and stores the session in the request context.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)

			if token == "" {
				if !cfg.AllowAnonymous {
					response.Error(w, apierror.Unauthorized("Authentication required. Use X-Token or Authorization: Bearer."))
					return
				}
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), AnonymousSession())))
				return
			}

			if cfg.Tokens == nil {
				response.Error(w, apierror.Unauthorized("Sessions are not enabled"))
				return
			}

			session, err := cfg.Tokens.ValidateToken(r.Context(), token)
			if err != nil {
				response.Error(w, apierror.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// TokenFromRequest returns the session token from X-Token or a Bearer
// Authorization header.
func TokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get("X-Token")); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// AnonymousSession is the session attached to unauthenticated requests in
// anonymous mode.
func AnonymousSession() *model.SessionData {
	return &model.SessionData{
		UserID:      model.AnonymousUserID,
		Username:    model.AnonymousUserID,
		DisplayName: "traveler",
	}
}

// WithSession stores session in ctx.
func WithSession(ctx context.Context, session *model.SessionData) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// SessionFromContext retrieves session data from request context.
func SessionFromContext(ctx context.Context) *model.SessionData {
	if data, ok := ctx.Value(SessionKey).(*model.SessionData); ok {
		return data
	}
	return nil
}
