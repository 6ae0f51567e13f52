package websocket

import (
	"context"
	"sync"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"github.com/google/uuid"
)

// DeliveryLookup is the narrow slice of Store access subscription
// admission needs: sender_id and courier_id for a delivery:{id} topic
// check (§4.4). Satisfied directly by delivery.RepositoryInterface.
type DeliveryLookup interface {
	GetDeliveryByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error)
}

// Hub is C6 EventBus: an authenticated, in-process topic broker admitting
// subscriptions to user:{id} and delivery:{id} and fanning out published
// events to whichever connections currently hold them. It does not queue —
// a disconnected subscriber misses events published while it was away and
// recovers by re-reading Store on reconnect (§4.4, §5).
type Hub struct {
	deliveries DeliveryLookup
	tokens     delivery.TrackingLinks

	mu          sync.RWMutex
	clients     map[uuid.UUID]*Client            // by connection ID
	byUser      map[uuid.UUID]map[uuid.UUID]bool // userID -> set of connection IDs
	deliveryTop map[uuid.UUID]map[uuid.UUID]bool // deliveryID -> set of connection IDs

	register   chan *Client
	unregister chan *Client
}

var _ delivery.EventPublisher = (*Hub)(nil)

// NewHub creates a Hub. tokens may be nil until TrackingLinks is wired in
// main.go's construction order. Subscribe does not consult it: tracking
// tokens are resolved at connect time by HandleConnect, which refuses them
// when its own TrackingLinks argument is nil.
func NewHub(deliveries DeliveryLookup, tokens delivery.TrackingLinks) *Hub {
	return &Hub{
		deliveries:  deliveries,
		tokens:      tokens,
		clients:     make(map[uuid.UUID]*Client),
		byUser:      make(map[uuid.UUID]map[uuid.UUID]bool),
		deliveryTop: make(map[uuid.UUID]map[uuid.UUID]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
	}
}

// SetTrackingLinks completes the Hub/TrackingLinks wiring cycle, mirroring
// matching.Service.SetProximityTransitioner's deferred-wiring pattern.
func (h *Hub) SetTrackingLinks(t delivery.TrackingLinks) {
	h.tokens = t
}

// Run processes register/unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	logger.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	if c.UserID != nil {
		if h.byUser[*c.UserID] == nil {
			h.byUser[*c.UserID] = make(map[uuid.UUID]bool)
		}
		h.byUser[*c.UserID][c.ID] = true
	}
	if c.TrackingDeliveryID != nil {
		deliveryID := *c.TrackingDeliveryID
		if h.deliveryTop[deliveryID] == nil {
			h.deliveryTop[deliveryID] = make(map[uuid.UUID]bool)
		}
		h.deliveryTop[deliveryID][c.ID] = true
		c.addSubscription(deliveryID)
	}
	h.mu.Unlock()
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)

	if c.UserID != nil {
		if set, ok := h.byUser[*c.UserID]; ok {
			delete(set, c.ID)
			if len(set) == 0 {
				delete(h.byUser, *c.UserID)
			}
		}
	}

	for _, deliveryID := range c.subscribedTo() {
		if room, ok := h.deliveryTop[deliveryID]; ok {
			delete(room, c.ID)
			if len(room) == 0 {
				delete(h.deliveryTop, deliveryID)
			}
		}
	}
}

// Register hands a freshly-authenticated client to the hub. Bearer clients
// are implicitly subscribed to their own user:{id} topic; TrackingToken
// clients are implicitly subscribed to their bound delivery:{id} topic.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client and every room membership it held.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// handleInbound routes a client-originated frame: "subscribe" and
// "unsubscribe" manage delivery:{id} room membership (re-checked against
// the admission rule on every subscribe, §4.4); "typing_indicator" is
// relayed to the delivery room as-is.
func (h *Hub) handleInbound(c *Client, msg *Message) {
	switch msg.Type {
	case "subscribe":
		deliveryID, err := uuid.Parse(msg.DeliveryID)
		if err != nil {
			return
		}
		if err := h.Subscribe(c, deliveryID); err != nil {
			c.deliver(&Message{Type: "error", Data: map[string]interface{}{"message": err.Error()}})
		}
	case "unsubscribe":
		deliveryID, err := uuid.Parse(msg.DeliveryID)
		if err != nil {
			return
		}
		h.unsubscribe(c, deliveryID)
	case "typing_indicator":
		deliveryID, err := uuid.Parse(msg.DeliveryID)
		if err != nil {
			return
		}
		if c.UserID == nil {
			return
		}
		h.PublishToDelivery(deliveryID, "typing_indicator", map[string]interface{}{
			"delivery_id": deliveryID,
			"user_id":     *c.UserID,
		})
	}
}

// Subscribe admits c to topic delivery:{deliveryID} if it is the sender,
// the assigned courier, or the holder of a valid TrackingToken bound to
// that delivery (§4.4). Admission is checked once, here, not per message.
func (h *Hub) Subscribe(c *Client, deliveryID uuid.UUID) error {
	if c.TrackingDeliveryID != nil && *c.TrackingDeliveryID == deliveryID {
		h.joinDeliveryRoom(c, deliveryID)
		return nil
	}

	if c.UserID == nil {
		return errForbidden
	}

	if h.deliveries == nil {
		return errForbidden
	}
	d, err := h.deliveries.GetDeliveryByID(context.Background(), deliveryID)
	if err != nil {
		return errForbidden
	}
	if d.SenderID == *c.UserID || (d.CourierID != nil && *d.CourierID == *c.UserID) {
		h.joinDeliveryRoom(c, deliveryID)
		return nil
	}
	return errForbidden
}

func (h *Hub) unsubscribe(c *Client, deliveryID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.deliveryTop[deliveryID]; ok {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.deliveryTop, deliveryID)
		}
	}
	c.removeSubscription(deliveryID)
}

func (h *Hub) joinDeliveryRoom(c *Client, deliveryID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.deliveryTop[deliveryID] == nil {
		h.deliveryTop[deliveryID] = make(map[uuid.UUID]bool)
	}
	h.deliveryTop[deliveryID][c.ID] = true
	c.addSubscription(deliveryID)
}

// PublishToUser fans eventType/data out to every connection currently
// authenticated as userID. Satisfies delivery.EventPublisher.
func (h *Hub) PublishToUser(userID uuid.UUID, eventType string, data interface{}) {
	msg := toMessage(eventType, data)

	h.mu.RLock()
	ids := make([]uuid.UUID, 0, len(h.byUser[userID]))
	for id := range h.byUser[userID] {
		ids = append(ids, id)
	}
	clients := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := h.clients[id]; ok {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.deliver(msg)
	}
}

// PublishToDelivery fans eventType/data out to every connection currently
// subscribed to delivery:{deliveryID}. Satisfies delivery.EventPublisher.
func (h *Hub) PublishToDelivery(deliveryID uuid.UUID, eventType string, data interface{}) {
	msg := toMessage(eventType, data)
	msg.DeliveryID = deliveryID.String()

	h.mu.RLock()
	ids := make([]uuid.UUID, 0, len(h.deliveryTop[deliveryID]))
	for id := range h.deliveryTop[deliveryID] {
		ids = append(ids, id)
	}
	clients := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if c, ok := h.clients[id]; ok {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.deliver(msg)
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func toMessage(eventType string, data interface{}) *Message {
	fields, ok := data.(map[string]interface{})
	if !ok {
		fields = map[string]interface{}{"payload": data}
	}
	return &Message{Type: eventType, Data: fields}
}

var errForbidden = forbiddenError{}

type forbiddenError struct{}

func (forbiddenError) Error() string { return "not authorized for this delivery" }
