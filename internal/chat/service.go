package chat

import (
	"context"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/google/uuid"
)

// Service is C11 MessageRelay: it persists delivery-chat messages, fans
// them out via EventBus, and enforces write/read access (§4.5).
type Service struct {
	repo       Repository
	deliveries DeliveryAccess
	publisher  delivery.EventPublisher
	tracking   TrackingResolver
}

// NewService wires a Service to its collaborators.
func NewService(repo Repository, deliveries DeliveryAccess, publisher delivery.EventPublisher) *Service {
	return &Service{repo: repo, deliveries: deliveries, publisher: publisher}
}

// SetTrackingResolver wires the tracking-token resolver used by the
// unauthenticated read/write path. Optional; nil disables that path.
func (s *Service) SetTrackingResolver(t TrackingResolver) {
	s.tracking = t
}

// ResolveTrackingToken validates that token authorizes access to
// deliveryID, returning a ForbiddenError otherwise.
func (s *Service) ResolveTrackingToken(ctx context.Context, deliveryID uuid.UUID, token string) error {
	if s.tracking == nil {
		return common.NewServiceUnavailableError("tracking unavailable")
	}
	resolvedID, err := s.tracking.ResolveToken(ctx, token)
	if err != nil {
		return err
	}
	if resolvedID != deliveryID {
		return common.NewForbiddenError("tracking token does not grant access to this delivery")
	}
	return nil
}

// SendAsUser sends a message on behalf of an authenticated sender or
// courier. The caller must be one of the two parties bound to the delivery.
func (s *Service) SendAsUser(ctx context.Context, deliveryID, authorID uuid.UUID, req SendMessageRequest) (*Message, error) {
	d, err := s.deliveries.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("delivery not found", err)
	}

	var senderType SenderType
	var recipientID uuid.UUID
	switch {
	case d.SenderID == authorID:
		senderType = SenderTypeSender
		if d.CourierID == nil {
			return nil, common.NewBadRequestError("delivery has no assigned courier yet", nil)
		}
		recipientID = *d.CourierID
	case d.CourierID != nil && *d.CourierID == authorID:
		senderType = SenderTypeCourier
		recipientID = d.SenderID
	default:
		return nil, common.NewForbiddenError("not part of this delivery")
	}

	return s.create(ctx, deliveryID, &authorID, senderType, recipientID, req)
}

// SendAsTrackingTokenHolder sends a message on behalf of an unauthenticated
// recipient token holder. The recipient field routes to whichever of
// {courier, sender} is currently bound, courier preferred.
func (s *Service) SendAsTrackingTokenHolder(ctx context.Context, deliveryID uuid.UUID, req SendMessageRequest) (*Message, error) {
	d, err := s.deliveries.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("delivery not found", err)
	}

	recipientID := d.SenderID
	if d.CourierID != nil {
		recipientID = *d.CourierID
	}

	return s.create(ctx, deliveryID, nil, SenderTypeRecipient, recipientID, req)
}

func (s *Service) create(ctx context.Context, deliveryID uuid.UUID, senderID *uuid.UUID, senderType SenderType, recipientID uuid.UUID, req SendMessageRequest) (*Message, error) {
	m := &Message{
		ID:            uuid.New(),
		DeliveryID:    deliveryID,
		SenderID:      senderID,
		SenderType:    senderType,
		RecipientID:   recipientID,
		Content:       req.Content,
		AttachmentURL: req.AttachmentURL,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishToDelivery(deliveryID, "new_message", m)
	}

	return m, nil
}

// GetMessages returns a delivery's message history for a participant —
// either the sender, the assigned courier, or (when requireParty is false)
// a tracking-token holder with read-only access.
func (s *Service) GetMessages(ctx context.Context, deliveryID, requesterID uuid.UUID, requireParty bool, limit, offset int) ([]*Message, error) {
	if requireParty {
		d, err := s.deliveries.GetDeliveryByID(ctx, deliveryID)
		if err != nil {
			return nil, common.NewNotFoundError("delivery not found", err)
		}
		isParty := d.SenderID == requesterID || (d.CourierID != nil && *d.CourierID == requesterID)
		if !isParty {
			return nil, common.NewForbiddenError("not part of this delivery")
		}
	}
	return s.repo.ListByDelivery(ctx, deliveryID, limit, offset)
}

// MarkRead marks a single message read; only its recipient may do so (§4.5).
func (s *Service) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	m, err := s.repo.GetMessageByID(ctx, messageID)
	if err != nil {
		return common.NewNotFoundError("message not found", err)
	}
	if m.RecipientID != userID {
		return common.NewForbiddenError("not the recipient of this message")
	}
	if m.IsRead {
		return nil
	}
	if err := s.repo.MarkRead(ctx, messageID); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishToDelivery(m.DeliveryID, "message_read", map[string]interface{}{
			"message_id": messageID, "delivery_id": m.DeliveryID,
		})
	}
	return nil
}
