package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// Message is the envelope for every frame exchanged over the socket, in
// either direction: outbound pushes (delivery_status_change,
// track_delivery_location, notification, ...) and inbound client requests
// (subscribe, unsubscribe, typing_indicator).
type Message struct {
	Type       string                 `json:"type"`
	DeliveryID string                 `json:"delivery_id,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Client is one authenticated WebSocket connection. A connection
// authenticates at connect time either as a bearer-verified user (sender,
// courier, or admin) or as a TrackingToken holder bound to exactly one
// delivery (§4.4); Hub.Subscribe re-checks admission against whichever
// identity the client holds.
type Client struct {
	ID uuid.UUID // connection-scoped identifier, not the user ID

	UserID *uuid.UUID // set when authenticated by bearer token
	Role   string     // "sender", "courier", "admin"; empty for token-only clients

	TrackingDeliveryID *uuid.UUID // set when authenticated by TrackingToken
	IsRecipientToken   bool

	Conn *websocket.Conn
	Send chan *Message
	Hub  *Hub

	mu            sync.RWMutex
	subscriptions map[uuid.UUID]bool // delivery rooms this client has joined
}

// NewClient creates a new WebSocket client bound to hub.
func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:            uuid.New(),
		Conn:          conn,
		Send:          make(chan *Message, 256),
		Hub:           hub,
		subscriptions: make(map[uuid.UUID]bool),
	}
}

func (c *Client) addSubscription(deliveryID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[deliveryID] = true
}

func (c *Client) removeSubscription(deliveryID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, deliveryID)
}

func (c *Client) subscribedTo() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		ids = append(ids, id)
	}
	return ids
}

// ReadPump pumps inbound frames from the connection to the hub. It owns
// the connection's lifetime on the read side: it unregisters the client
// from every room on exit.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.Conn.ReadJSON(&msg); err != nil {
			break
		}
		msg.Timestamp = time.Now()
		c.Hub.handleInbound(c, &msg)
	}
}

// WritePump pumps outbound frames from Send to the connection and keeps
// the connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// deliver enqueues msg on the client's send channel, dropping the
// connection if the buffer is full rather than blocking the publisher —
// EventBus fan-out is at-most-once and must never let one slow client
// stall delivery to the rest (§4.4, §5).
func (c *Client) deliver(msg *Message) {
	select {
	case c.Send <- msg:
	default:
		close(c.Send)
		c.Hub.unregister <- c
	}
}

// MarshalJSON renders Timestamp as RFC3339 for wire compatibility.
func (m *Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal(&struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{
		Timestamp: m.Timestamp.Format(time.RFC3339),
		alias:     (*alias)(m),
	})
}
