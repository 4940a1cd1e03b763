package handlers

import (
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/cmd/familytree/events"
	"github.com/vanshavali/familytree/cmd/familytree/middleware"
)

// EventsHandler upgrades to a WebSocket that streams tree.changed and session events
type EventsHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub, origins []string) *EventsHandler {
	return &EventsHandler{hub: hub, upgrader: events.Upgrader(origins)}
}

// Stream serves the WebSocket; the session comes from ExtractSessionStrict
// GET /api/v1/events?token=...
func (h *EventsHandler) Stream(c echo.Context) error {
	sess := middleware.GetSession(c)
	// Upgrade writes its own error response
	_ = h.hub.Serve(&h.upgrader, c.Response(), c.Request(), sess.UserID)
	return nil
}
