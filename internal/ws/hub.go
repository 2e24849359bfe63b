package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/agroflow/agroflow-backend/internal/logger"
)

// NotificationSaver persists pushed events so offline users still see them.
type NotificationSaver interface {
	CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

// Hub tracks every connected WebSocket client and routes events to the
// right user. Farmers receive request_status events here the moment an
// administrator decides a level.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	saver      NotificationSaver
	ctx        context.Context
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

// NewHub creates the hub.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
		ctx:        ctx,
	}
}

// SetNotificationSaver wires the persistence side of pushed events.
func (h *Hub) SetNotificationSaver(saver NotificationSaver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saver = saver
}

// Run drives the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToUser sends an event to one user's connections and persists it
// as a notification. The wire contract: "type" names the event, "data"
// carries the payload.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: cannot marshal message: %w", err)
	}

	h.mu.RLock()
	saver := h.saver
	ctx := h.ctx
	h.mu.RUnlock()

	if saver != nil {
		// Persist asynchronously so a slow insert never delays the push.
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logPanic("notification save", r)
				}
			}()
			if err := saver.CreateNotificationForWS(ctx, userID, event, data); err != nil {
				if logger.Log != nil {
					logger.Log.WithField("user_id", userID).Errorf("ws: cannot save notification: %v", err)
				}
			}
		}()
	}

	h.broadcast <- message{userID: userID, payload: raw}
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: close asynchronously rather than block the hub.
			go func(c *Client) {
				defer func() {
					if r := recover(); r != nil {
						logPanic("client close", r)
					}
				}()
				c.Close()
			}(client)
		}
	}
}

func logPanic(where string, r any) {
	if logger.Log != nil {
		logger.Log.Errorf("ws: %s panic recovered: %v\n%s", where, r, debug.Stack())
	}
}
