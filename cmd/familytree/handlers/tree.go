package handlers

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/cmd/familytree/middleware"
	"github.com/vanshavali/familytree/cmd/familytree/service"
	"github.com/vanshavali/familytree/common/appstate"
	"github.com/vanshavali/familytree/common/locale"
	"github.com/vanshavali/familytree/common/tree"
)

// TreeHandler serves the built tree and its renderings
type TreeHandler struct {
	ctrl    *service.TreeController
	respond *Responder
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(ctrl *service.TreeController, respond *Responder) *TreeHandler {
	return &TreeHandler{ctrl: ctrl, respond: respond}
}

func (h *TreeHandler) treeBody(c echo.Context, st appstate.State) map[string]interface{} {
	body := map[string]interface{}{
		"tree":      st.Tree,
		"detached":  st.Detached,
		"version":   st.Version,
		"loaded_at": st.LoadedAt,
	}
	if st.Tree == nil {
		body["message"] = h.respond.Message(c, locale.MsgEmptyTree)
	}
	if st.Error != nil {
		body["error"] = st.Error
	}
	return body
}

// GetTree returns the nested tree plus members unreachable from the root
// GET /api/v1/tree
func (h *TreeHandler) GetTree(c echo.Context) error {
	st, err := h.ctrl.State(c.Request().Context(), middleware.GetSession(c))
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, h.treeBody(c, st))
}

// RefreshTree re-fetches and rebuilds the tree
// POST /api/v1/tree/refresh
func (h *TreeHandler) RefreshTree(c echo.Context) error {
	st, err := h.ctrl.Reload(c.Request().Context(), middleware.GetSession(c))
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, h.treeBody(c, st))
}

// GetLayout returns card positions and connectors for drawing the tree
// GET /api/v1/tree/layout
func (h *TreeHandler) GetLayout(c echo.Context) error {
	st, err := h.ctrl.State(c.Request().Context(), middleware.GetSession(c))
	if err != nil {
		return h.respond.Error(c, err)
	}
	return c.JSON(http.StatusOK, tree.ComputeLayout(st.Tree))
}

// GetText returns the tree as indented plain text
// GET /api/v1/tree/text
func (h *TreeHandler) GetText(c echo.Context) error {
	st, err := h.ctrl.State(c.Request().Context(), middleware.GetSession(c))
	if err != nil {
		return h.respond.Error(c, err)
	}

	var buf bytes.Buffer
	if err := tree.RenderText(&buf, st.Tree); err != nil {
		return h.respond.Error(c, err)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
}
