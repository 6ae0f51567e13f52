package notifications

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the Store contract for notifications.
type Repository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetUserNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error)
	MarkNotificationAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}
