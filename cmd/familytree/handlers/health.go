package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/common/bootstrap"
)

// HealthHandler reports component health
type HealthHandler struct {
	components *bootstrap.Components
	service    string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(components *bootstrap.Components, service string) *HealthHandler {
	return &HealthHandler{components: components, service: service}
}

// Health returns 200 when every component is up, 503 otherwise
// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	checks := h.components.Health(c.Request().Context())

	status, code := "ok", http.StatusOK
	if !bootstrap.Healthy(checks) {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]interface{}{
		"status":     status,
		"service":    h.service,
		"components": checks,
	})
}
