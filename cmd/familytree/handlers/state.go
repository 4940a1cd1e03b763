package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/cmd/familytree/middleware"
	"github.com/vanshavali/familytree/cmd/familytree/service"
	"github.com/vanshavali/familytree/common/appstate"
	"github.com/vanshavali/familytree/common/locale"
	"github.com/vanshavali/familytree/common/models"
)

// StateHandler exposes the per-user view state: phase, tree, form and error
type StateHandler struct {
	ctrl    *service.TreeController
	respond *Responder
}

// NewStateHandler creates a new state handler
func NewStateHandler(ctrl *service.TreeController, respond *Responder) *StateHandler {
	return &StateHandler{ctrl: ctrl, respond: respond}
}

// stateBody adds the localized banner for the current error
func (h *StateHandler) stateBody(c echo.Context, st appstate.State) map[string]interface{} {
	body := map[string]interface{}{"state": st}
	if st.Error != nil {
		id := string(st.Error.Category)
		if st.Error.Category == models.CategoryFetchFailure && st.Loaded() {
			id = locale.MsgRefreshFailure
		}
		body["message"] = h.respond.Message(c, id)
	}
	return body
}

func (h *StateHandler) dispatch(c echo.Context, action appstate.Action) error {
	st, err := h.ctrl.Dispatch(c.Request().Context(), middleware.GetSession(c), action)
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, h.stateBody(c, st))
}

// GetState returns the caller's view state
// GET /api/v1/state
func (h *StateHandler) GetState(c echo.Context) error {
	st, err := h.ctrl.State(c.Request().Context(), middleware.GetSession(c))
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, h.stateBody(c, st))
}

type openCreateRequest struct {
	AttachTo *uuid.UUID      `json:"attach_to"`
	Relation models.Relation `json:"relation"`
}

// OpenCreateForm opens an empty member form
// POST /api/v1/state/form/create
func (h *StateHandler) OpenCreateForm(c echo.Context) error {
	var req openCreateRequest
	if err := c.Bind(&req); err != nil {
		return h.respond.BadRequest(c, err)
	}
	return h.dispatch(c, appstate.OpenCreateForm{AttachTo: req.AttachTo, Relation: req.Relation})
}

type openEditRequest struct {
	MemberID uuid.UUID `json:"member_id"`
}

// OpenEditForm opens the form filled with a member's values
// POST /api/v1/state/form/edit
func (h *StateHandler) OpenEditForm(c echo.Context) error {
	var req openEditRequest
	if err := c.Bind(&req); err != nil {
		return h.respond.BadRequest(c, err)
	}
	return h.dispatch(c, appstate.OpenEditForm{MemberID: req.MemberID})
}

// CloseForm closes the member form
// DELETE /api/v1/state/form
func (h *StateHandler) CloseForm(c echo.Context) error {
	return h.dispatch(c, appstate.CloseForm{})
}

// DismissError clears the current error banner
// DELETE /api/v1/state/error
func (h *StateHandler) DismissError(c echo.Context) error {
	return h.dispatch(c, appstate.DismissError{})
}
