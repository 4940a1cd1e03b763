package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/cmd/familytree/middleware"
	"github.com/vanshavali/familytree/cmd/familytree/service"
)

// AuthHandler handles sign-up, sign-in and sign-out
type AuthHandler struct {
	auth    *service.AuthService
	respond *Responder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, respond *Responder) *AuthHandler {
	return &AuthHandler{auth: auth, respond: respond}
}

// SignUp creates an account and returns its first session
// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c echo.Context) error {
	var creds service.Credentials
	if err := c.Bind(&creds); err != nil {
		return h.respond.BadRequest(c, err)
	}

	sess, err := h.auth.SignUp(c.Request().Context(), creds)
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// SignIn exchanges credentials for a session
// POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(c echo.Context) error {
	var creds service.Credentials
	if err := c.Bind(&creds); err != nil {
		return h.respond.BadRequest(c, err)
	}

	sess, err := h.auth.SignIn(c.Request().Context(), creds)
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// SignOut revokes the caller's session
// POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.auth.SignOut(c.Request().Context(), middleware.Token(c)); err != nil {
		return h.respond.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the caller's session
// GET /api/v1/auth/session
func (h *AuthHandler) Session(c echo.Context) error {
	sess, err := h.auth.Session(c.Request().Context(), middleware.Token(c))
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}
