package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/queue"
	"github.com/vanshavali/familytree/common/telemetry"
)

// Hub maintains active WebSocket connections and pushes each user's
// tree and session events to every connection that user has open
type Hub struct {
	// Map: user id → clients
	connections map[uuid.UUID][]*Client
	mutex       sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}

	metrics *telemetry.Metrics
	log     *logger.Logger
}

// Message is one payload for one user
type Message struct {
	UserID uuid.UUID
	Data   []byte
}

// NewHub creates a new Hub instance
func NewHub(metrics *telemetry.Metrics, log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		done:        make(chan struct{}),
		metrics:     metrics,
		log:         log,
	}
}

// Run starts the hub's main loop. Every connection is closed when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.log.Info("event hub started")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.Info("event hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToUser(message)
		}
	}
}

// Start subscribes the hub to tree and session events
func (h *Hub) Start(ctx context.Context, q queue.Queue) error {
	if err := q.Subscribe(ctx, models.TopicMembers, h.HandleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", models.TopicMembers, err)
	}
	if err := q.Subscribe(ctx, models.TopicSession, h.HandleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", models.TopicSession, err)
	}
	return nil
}

// HandleEvent is the queue handler: the event is forwarded verbatim to its user
func (h *Hub) HandleEvent(ctx context.Context, key string, value []byte) error {
	var evt models.Event
	if err := json.Unmarshal(value, &evt); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	h.Publish(evt.UserID, value)
	return nil
}

// Publish queues data for userID's connections; dropped once the hub stopped
func (h *Hub) Publish(userID uuid.UUID, data []byte) {
	select {
	case h.broadcast <- &Message{UserID: userID, Data: data}:
	case <-h.done:
	}
}

// Register adds a client; false once the hub stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.connections[client.userID] = append(h.connections[client.userID], client)
	h.metrics.ClientConnected(1)
	h.log.Debug("client registered", "user_id", client.userID, "total_for_user", len(h.connections[client.userID]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.removeLocked(client)
}

// removeLocked drops client and closes its send channel once
func (h *Hub) removeLocked(client *Client) {
	clients := h.connections[client.userID]
	for i, c := range clients {
		if c != client {
			continue
		}
		h.connections[client.userID] = append(clients[:i:i], clients[i+1:]...)
		if len(h.connections[client.userID]) == 0 {
			delete(h.connections, client.userID)
		}
		close(client.send)
		h.metrics.ClientConnected(-1)
		h.log.Debug("client unregistered", "user_id", client.userID, "remaining_for_user", len(h.connections[client.userID]))
		return
	}
}

func (h *Hub) broadcastToUser(message *Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients := h.connections[message.UserID]
	if len(clients) == 0 {
		return
	}

	// copy: removeLocked edits the slice
	for _, client := range append([]*Client(nil), clients...) {
		select {
		case client.send <- message.Data:
		default:
			h.log.Warn("client send buffer full, closing connection", "user_id", client.userID)
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, clients := range h.connections {
		for _, client := range append([]*Client(nil), clients...) {
			h.removeLocked(client)
		}
	}
}

// ConnectionCount returns the total number of active connections
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, clients := range h.connections {
		count += len(clients)
	}
	return count
}

// UserCount returns the number of unique users connected
func (h *Hub) UserCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}
