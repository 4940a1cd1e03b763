package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/cmd/familytree/service"
	"github.com/vanshavali/familytree/common/locale"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/tree"
)

// Responder renders service errors as JSON in the caller's language
type Responder struct {
	tr  *locale.Translator
	log *logger.Logger
}

// NewResponder creates a responder
func NewResponder(tr *locale.Translator, log *logger.Logger) *Responder {
	return &Responder{tr: tr, log: log}
}

// Message returns the localized message id for the request
func (r *Responder) Message(c echo.Context, id string) string {
	return r.tr.Message(c.Request().Header.Get(locale.HeaderAcceptLanguage), id)
}

// Error writes err with the status and message its category maps to:
//
//	{"error": "save_failure", "message": "...", "detail": "...", "fields": {...}}
func (r *Responder) Error(c echo.Context, err error) error {
	category := service.CategoryOf(err)
	status, msgID := classify(category, err)

	if status >= http.StatusInternalServerError {
		r.log.Error("request failed", "path", c.Path(), "category", category, "error", err)
	}

	body := map[string]interface{}{
		"error":   category,
		"message": r.Message(c, msgID),
		"detail":  err.Error(),
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}

	return c.JSON(status, body)
}

// BadRequest reports an undecodable request body
func (r *Responder) BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error":   "invalid_request",
		"message": r.Message(c, locale.MsgInvalidInput),
		"detail":  err.Error(),
	})
}

func classify(category models.ErrorCategory, err error) (int, string) {
	invalid := errors.Is(err, service.ErrInvalidInput)
	notFound := errors.Is(err, models.ErrNotFound) || errors.Is(err, service.ErrParentNotFound)

	switch category {
	case models.CategoryUnauthenticated:
		return http.StatusUnauthorized, locale.MsgUnauthenticated

	case models.CategoryAuthFailure:
		var se *service.Error
		signOut := errors.As(err, &se) && se.Op == "signout"
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			return http.StatusConflict, locale.MsgAuthDuplicateEmail
		case invalid:
			return http.StatusBadRequest, locale.MsgInvalidInput
		case errors.Is(err, service.ErrInvalidCredentials):
			return http.StatusUnauthorized, locale.MsgAuthFailure
		case signOut:
			return http.StatusInternalServerError, locale.MsgSignOutFailure
		}
		return http.StatusInternalServerError, locale.MsgAuthFailure

	case models.CategoryFetchFailure:
		switch {
		case invalid:
			return http.StatusBadRequest, locale.MsgInvalidInput
		case notFound:
			return http.StatusNotFound, locale.MsgNotFound
		}
		return http.StatusServiceUnavailable, locale.MsgFetchFailure

	case models.CategoryDeleteFailure:
		switch {
		case notFound:
			return http.StatusNotFound, locale.MsgNotFound
		case errors.Is(err, service.ErrHasDescendants):
			return http.StatusConflict, locale.MsgHasDescendants
		}
		return http.StatusInternalServerError, locale.MsgDeleteFailure

	default:
		switch {
		case invalid:
			return http.StatusBadRequest, locale.MsgInvalidInput
		case notFound:
			return http.StatusNotFound, locale.MsgNotFound
		case errors.Is(err, service.ErrRootExists):
			return http.StatusConflict, locale.MsgRootExists
		case errors.Is(err, tree.ErrCycle), errors.Is(err, service.ErrRootMove):
			return http.StatusUnprocessableEntity, locale.MsgCycle
		}
		return http.StatusInternalServerError, locale.MsgSaveFailure
	}
}
