package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/common/models"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// SessionKey is the context key for the authenticated session
	SessionKey ContextKey = "session"
)

// SessionResolver looks up the live session behind a token
type SessionResolver interface {
	Session(ctx context.Context, token string) (*models.Session, error)
}

// Token returns the bearer token of the request. WebSocket clients cannot
// set headers, so ?token= is accepted as well.
func Token(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.QueryParam("token")
}

// ExtractSession resolves the bearer token and stores the session in the
// context. Requests without a valid session continue unauthenticated; the
// service layer rejects them where a session is needed.
//
// Usage:
//
//	api.Use(middleware.ExtractSession(authService))
//	sess := middleware.GetSession(c)
func ExtractSession(auth SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := Token(c); token != "" {
				if sess, err := auth.Session(c.Request().Context(), token); err == nil {
					c.Set(string(SessionKey), sess)
				}
			}
			return next(c)
		}
	}
}

// ExtractSessionStrict is the stricter version: a missing or invalid
// session is rendered by onError and next is never called
func ExtractSessionStrict(auth SessionResolver, onError func(echo.Context, error) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := auth.Session(c.Request().Context(), Token(c))
			if err != nil {
				return onError(c, err)
			}
			c.Set(string(SessionKey), sess)
			return next(c)
		}
	}
}

// GetSession retrieves the session from the request context.
// Returns nil if not set.
func GetSession(c echo.Context) *models.Session {
	sess, _ := c.Get(string(SessionKey)).(*models.Session)
	return sess
}
