package chat

import (
	"context"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/google/uuid"
)

// DeliveryAccess is the narrow slice of Store access MessageRelay needs to
// resolve a delivery's sender/courier and authorize writers.
type DeliveryAccess interface {
	GetDeliveryByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error)
}

// TrackingResolver resolves a tracking_token query parameter to the
// delivery it authorizes, for the unauthenticated read/write path (§6).
type TrackingResolver interface {
	ResolveToken(ctx context.Context, token string) (deliveryID uuid.UUID, err error)
}

// Repository is the Store contract for chat messages.
type Repository interface {
	CreateMessage(ctx context.Context, m *Message) error
	GetMessageByID(ctx context.Context, id uuid.UUID) (*Message, error)
	ListByDelivery(ctx context.Context, deliveryID uuid.UUID, limit, offset int) ([]*Message, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, deliveryID uuid.UUID, recipientID uuid.UUID) (int, error)
}
