package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeliveryLookup struct {
	deliveries map[uuid.UUID]*delivery.Delivery
}

func (f *fakeDeliveryLookup) GetDeliveryByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error) {
	d, ok := f.deliveries[id]
	if !ok {
		return nil, context.Canceled
	}
	return d, nil
}

func newTestHub(t *testing.T, lookup DeliveryLookup) *Hub {
	t.Helper()
	hub := NewHub(lookup, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func bearerClient(hub *Hub, userID uuid.UUID, role string) *Client {
	c := NewClient(nil, hub)
	c.UserID = &userID
	c.Role = role
	return c
}

func trackingClient(hub *Hub, deliveryID uuid.UUID) *Client {
	c := NewClient(nil, hub)
	c.TrackingDeliveryID = &deliveryID
	return c
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d clients (have %d)", want, hub.ClientCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewClient(t *testing.T) {
	hub := NewHub(nil, nil)
	c := NewClient(nil, hub)

	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.NotNil(t, c.Send)
	assert.Empty(t, c.subscribedTo())
}

func TestPublishToUser_ReachesOnlyThatUser(t *testing.T) {
	hub := newTestHub(t, nil)
	alice, bob := uuid.New(), uuid.New()

	aliceClient := bearerClient(hub, alice, "sender")
	bobClient := bearerClient(hub, bob, "courier")
	hub.Register(aliceClient)
	hub.Register(bobClient)
	waitForClients(t, hub, 2)

	hub.PublishToUser(alice, "notification", map[string]interface{}{"title": "hi"})

	select {
	case msg := <-aliceClient.Send:
		assert.Equal(t, "notification", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("alice never received the publish")
	}

	select {
	case msg := <-bobClient.Send:
		t.Fatalf("bob should not have received %q", msg.Type)
	default:
	}
}

func TestTrackingClient_AutoJoinsItsDeliveryRoom(t *testing.T) {
	hub := newTestHub(t, nil)
	deliveryID := uuid.New()

	c := trackingClient(hub, deliveryID)
	hub.Register(c)
	waitForClients(t, hub, 1)

	hub.PublishToDelivery(deliveryID, "track_delivery_location", map[string]interface{}{
		"latitude": 37.77, "longitude": -122.41,
	})

	select {
	case msg := <-c.Send:
		assert.Equal(t, "track_delivery_location", msg.Type)
		assert.Equal(t, deliveryID.String(), msg.DeliveryID)
	case <-time.After(time.Second):
		t.Fatal("tracking client never received the room publish")
	}
}

func TestSubscribe_AdmitsSenderAndCourierOnly(t *testing.T) {
	deliveryID := uuid.New()
	senderID, courierID, strangerID := uuid.New(), uuid.New(), uuid.New()
	lookup := &fakeDeliveryLookup{deliveries: map[uuid.UUID]*delivery.Delivery{
		deliveryID: {ID: deliveryID, SenderID: senderID, CourierID: &courierID},
	}}
	hub := newTestHub(t, lookup)

	sender := bearerClient(hub, senderID, "sender")
	courier := bearerClient(hub, courierID, "courier")
	stranger := bearerClient(hub, strangerID, "sender")
	hub.Register(sender)
	hub.Register(courier)
	hub.Register(stranger)
	waitForClients(t, hub, 3)

	require.NoError(t, hub.Subscribe(sender, deliveryID))
	require.NoError(t, hub.Subscribe(courier, deliveryID))
	assert.Error(t, hub.Subscribe(stranger, deliveryID))

	hub.PublishToDelivery(deliveryID, "delivery_status_change", map[string]interface{}{"status": "picked_up"})

	for _, c := range []*Client{sender, courier} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "delivery_status_change", msg.Type)
		case <-time.After(time.Second):
			t.Fatal("admitted subscriber never received the publish")
		}
	}

	select {
	case msg := <-stranger.Send:
		t.Fatalf("stranger should not have received %q", msg.Type)
	default:
	}
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	deliveryID := uuid.New()
	senderID := uuid.New()
	lookup := &fakeDeliveryLookup{deliveries: map[uuid.UUID]*delivery.Delivery{
		deliveryID: {ID: deliveryID, SenderID: senderID},
	}}
	hub := newTestHub(t, lookup)

	c := bearerClient(hub, senderID, "sender")
	hub.Register(c)
	waitForClients(t, hub, 1)

	require.NoError(t, hub.Subscribe(c, deliveryID))
	hub.unsubscribe(c, deliveryID)

	hub.PublishToDelivery(deliveryID, "delivery_status_change", map[string]interface{}{"status": "in_transit"})

	select {
	case msg := <-c.Send:
		t.Fatalf("unsubscribed client should not have received %q", msg.Type)
	default:
	}
}

func TestRemoveClient_CleansUpRooms(t *testing.T) {
	hub := newTestHub(t, nil)
	deliveryID := uuid.New()

	c := trackingClient(hub, deliveryID)
	hub.Register(c)
	waitForClients(t, hub, 1)

	hub.Unregister(c)
	waitForClients(t, hub, 0)

	hub.mu.RLock()
	_, roomExists := hub.deliveryTop[deliveryID]
	hub.mu.RUnlock()
	assert.False(t, roomExists)
}

func TestMessage_MarshalJSON_RFC3339Timestamp(t *testing.T) {
	msg := &Message{
		Type:      "delivery_status_change",
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Data:      map[string]interface{}{"status": "delivered"},
	}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "2024-06-01T12:00:00Z", decoded["timestamp"])
	assert.Equal(t, "delivery_status_change", decoded["type"])
}

func TestToMessage_WrapsNonMapPayload(t *testing.T) {
	msg := toMessage("notification", "plain string")
	assert.Equal(t, "plain string", msg.Data["payload"])
}
