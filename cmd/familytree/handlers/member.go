package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/cmd/familytree/middleware"
	"github.com/vanshavali/familytree/cmd/familytree/service"
	"github.com/vanshavali/familytree/common/models"
)

const maxPatchBytes = 64 << 10

// MemberHandler handles member CRUD
type MemberHandler struct {
	ctrl    *service.TreeController
	respond *Responder
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(ctrl *service.TreeController, respond *Responder) *MemberHandler {
	return &MemberHandler{ctrl: ctrl, respond: respond}
}

func memberID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid member id %q", c.Param("id"))
	}
	return id, nil
}

// ListMembers lists the caller's members in fetch order
// GET /api/v1/members?filter=is_alive
func (h *MemberHandler) ListMembers(c echo.Context) error {
	members, err := h.ctrl.List(c.Request().Context(), middleware.GetSession(c), c.QueryParam("filter"))
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// GetMember returns one member
// GET /api/v1/members/:id
func (h *MemberHandler) GetMember(c echo.Context) error {
	id, err := memberID(c)
	if err != nil {
		return h.respond.BadRequest(c, err)
	}

	m, err := h.ctrl.Detail(c.Request().Context(), middleware.GetSession(c), id)
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// CreateMember adds a member under attach_to, or the root when attach_to is omitted
// POST /api/v1/members
func (h *MemberHandler) CreateMember(c echo.Context) error {
	in := service.CreateInput{MemberFields: models.DefaultMemberFields()}
	if err := c.Bind(&in); err != nil {
		return h.respond.BadRequest(c, err)
	}

	m, err := h.ctrl.Create(c.Request().Context(), middleware.GetSession(c), in)
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// UpdateMember replaces a member's fields
// PUT /api/v1/members/:id
func (h *MemberHandler) UpdateMember(c echo.Context) error {
	id, err := memberID(c)
	if err != nil {
		return h.respond.BadRequest(c, err)
	}

	var in service.UpdateInput
	if err := c.Bind(&in); err != nil {
		return h.respond.BadRequest(c, err)
	}

	m, err := h.ctrl.Update(c.Request().Context(), middleware.GetSession(c), id, in)
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// PatchMember applies a JSON merge patch
// PATCH /api/v1/members/:id
func (h *MemberHandler) PatchMember(c echo.Context) error {
	id, err := memberID(c)
	if err != nil {
		return h.respond.BadRequest(c, err)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPatchBytes))
	if err != nil {
		return h.respond.BadRequest(c, err)
	}

	m, err := h.ctrl.Patch(c.Request().Context(), middleware.GetSession(c), id, body)
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// DeleteMember removes a member according to the delete policy
// DELETE /api/v1/members/:id
func (h *MemberHandler) DeleteMember(c echo.Context) error {
	id, err := memberID(c)
	if err != nil {
		return h.respond.BadRequest(c, err)
	}

	if err := h.ctrl.Delete(c.Request().Context(), middleware.GetSession(c), id); err != nil {
		return h.respond.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
