package notifications

import (
	"context"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is C7 NotificationSink: it persists a Notification row and fans
// it out over EventBus. It does not talk to any external carrier — push,
// SMS, and email delivery are out of scope (§1 non-goals).
type Service struct {
	repo      Repository
	publisher delivery.EventPublisher
}

var _ delivery.NotificationSink = (*Service)(nil)

// NewService wires a Service to its collaborators.
func NewService(repo Repository, publisher delivery.EventPublisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Notify persists the notification and publishes it on the user's topic.
// It never returns an error to the caller: a failed notification must not
// fail the lifecycle transition that triggered it, so failures are logged
// and swallowed.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, title, content string, deliveryID *uuid.UUID) {
	n := &Notification{
		ID:         uuid.New(),
		UserID:     userID,
		Kind:       kind,
		Title:      title,
		Content:    content,
		DeliveryID: deliveryID,
	}

	if err := s.repo.CreateNotification(ctx, n); err != nil {
		logger.Get().Error("failed to persist notification",
			zap.String("user_id", userID.String()), zap.String("kind", kind), zap.Error(err))
		return
	}

	if s.publisher != nil {
		s.publisher.PublishToUser(userID, "notification", n)
	}
}

// GetUserNotifications returns a user's notifications, newest first.
func (s *Service) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return s.repo.GetUserNotifications(ctx, userID, limit, offset)
}

// MarkAsRead marks a single notification read.
func (s *Service) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkNotificationAsRead(ctx, id)
}

// MarkAllAsRead marks every one of a user's notifications read.
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns a user's unread notification count.
func (s *Service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}
