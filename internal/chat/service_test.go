package chat

import (
	"context"
	"testing"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	messages map[uuid.UUID]*Message
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{messages: make(map[uuid.UUID]*Message)}
}

func (f *fakeRepo) CreateMessage(ctx context.Context, m *Message) error {
	f.messages[m.ID] = m
	return nil
}

func (f *fakeRepo) GetMessageByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, assert.AnError
	}
	return m, nil
}

func (f *fakeRepo) ListByDelivery(ctx context.Context, deliveryID uuid.UUID, limit, offset int) ([]*Message, error) {
	var out []*Message
	for _, m := range f.messages {
		if m.DeliveryID == deliveryID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	f.messages[id].IsRead = true
	return nil
}

func (f *fakeRepo) CountUnread(ctx context.Context, deliveryID, recipientID uuid.UUID) (int, error) {
	count := 0
	for _, m := range f.messages {
		if m.DeliveryID == deliveryID && m.RecipientID == recipientID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

type fakeDeliveryAccess struct {
	deliveries map[uuid.UUID]*delivery.Delivery
}

func (f *fakeDeliveryAccess) GetDeliveryByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error) {
	d, ok := f.deliveries[id]
	if !ok {
		return nil, assert.AnError
	}
	return d, nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishToUser(userID uuid.UUID, event string, payload interface{}) {
	f.events = append(f.events, event)
}

func (f *fakePublisher) PublishToDelivery(deliveryID uuid.UUID, event string, payload interface{}) {
	f.events = append(f.events, event)
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func setup() (*Service, *fakeRepo, *fakeDeliveryAccess, *fakePublisher, *delivery.Delivery) {
	senderID := uuid.New()
	courierID := uuid.New()
	deliveryID := uuid.New()
	d := &delivery.Delivery{
		ID:        deliveryID,
		SenderID:  senderID,
		CourierID: ptr(courierID),
	}
	repo := newFakeRepo()
	da := &fakeDeliveryAccess{deliveries: map[uuid.UUID]*delivery.Delivery{deliveryID: d}}
	pub := &fakePublisher{}
	svc := NewService(repo, da, pub)
	return svc, repo, da, pub, d
}

func TestSendAsUser_SenderToCourier(t *testing.T) {
	svc, _, _, pub, d := setup()
	msg, err := svc.SendAsUser(context.Background(), d.ID, d.SenderID, SendMessageRequest{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, SenderTypeSender, msg.SenderType)
	assert.Equal(t, *d.CourierID, msg.RecipientID)
	assert.Contains(t, pub.events, "new_message")
}

func TestSendAsUser_CourierToSender(t *testing.T) {
	svc, _, _, _, d := setup()
	msg, err := svc.SendAsUser(context.Background(), d.ID, *d.CourierID, SendMessageRequest{Content: "on my way"})
	require.NoError(t, err)
	assert.Equal(t, SenderTypeCourier, msg.SenderType)
	assert.Equal(t, d.SenderID, msg.RecipientID)
}

func TestSendAsUser_NotAParty(t *testing.T) {
	svc, _, _, _, d := setup()
	_, err := svc.SendAsUser(context.Background(), d.ID, uuid.New(), SendMessageRequest{Content: "hi"})
	require.Error(t, err)
}

func TestSendAsUser_SenderWithoutCourierAssigned(t *testing.T) {
	svc, _, da, _, d := setup()
	d2 := *d
	d2.CourierID = nil
	da.deliveries[d.ID] = &d2
	_, err := svc.SendAsUser(context.Background(), d.ID, d.SenderID, SendMessageRequest{Content: "hi"})
	require.Error(t, err)
}

func TestSendAsTrackingTokenHolder_RoutesToCourierWhenAssigned(t *testing.T) {
	svc, _, _, _, d := setup()
	msg, err := svc.SendAsTrackingTokenHolder(context.Background(), d.ID, SendMessageRequest{Content: "where are you"})
	require.NoError(t, err)
	assert.Nil(t, msg.SenderID)
	assert.Equal(t, SenderTypeRecipient, msg.SenderType)
	assert.Equal(t, *d.CourierID, msg.RecipientID)
}

func TestSendAsTrackingTokenHolder_RoutesToSenderWhenNoCourier(t *testing.T) {
	svc, _, da, _, d := setup()
	d2 := *d
	d2.CourierID = nil
	da.deliveries[d.ID] = &d2

	msg, err := svc.SendAsTrackingTokenHolder(context.Background(), d.ID, SendMessageRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, d.SenderID, msg.RecipientID)
}

func TestGetMessages_RequiresParty(t *testing.T) {
	svc, _, _, _, d := setup()
	_, err := svc.SendAsUser(context.Background(), d.ID, d.SenderID, SendMessageRequest{Content: "hi"})
	require.NoError(t, err)

	_, err = svc.GetMessages(context.Background(), d.ID, uuid.New(), true, 50, 0)
	require.Error(t, err)

	msgs, err := svc.GetMessages(context.Background(), d.ID, d.SenderID, true, 50, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMarkRead_OnlyRecipient(t *testing.T) {
	svc, _, _, pub, d := setup()
	msg, err := svc.SendAsUser(context.Background(), d.ID, d.SenderID, SendMessageRequest{Content: "hi"})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), msg.ID, d.SenderID)
	require.Error(t, err)

	err = svc.MarkRead(context.Background(), msg.ID, *d.CourierID)
	require.NoError(t, err)
	assert.Contains(t, pub.events, "message_read")

	err = svc.MarkRead(context.Background(), msg.ID, *d.CourierID)
	require.NoError(t, err)
}
