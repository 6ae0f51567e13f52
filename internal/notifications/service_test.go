package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byUser map[uuid.UUID][]*Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byUser: make(map[uuid.UUID][]*Notification)}
}

func (f *fakeRepo) CreateNotification(ctx context.Context, n *Notification) error {
	f.byUser[n.UserID] = append(f.byUser[n.UserID], n)
	return nil
}

func (f *fakeRepo) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return f.byUser[userID], nil
}

func (f *fakeRepo) MarkNotificationAsRead(ctx context.Context, id uuid.UUID) error {
	for _, list := range f.byUser {
		for _, n := range list {
			if n.ID == id {
				now := n.CreatedAt
				n.ReadAt = &now
			}
		}
	}
	return nil
}

func (f *fakeRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	for _, n := range f.byUser[userID] {
		if n.ReadAt == nil {
			now := n.CreatedAt
			n.ReadAt = &now
		}
	}
	return nil
}

func (f *fakeRepo) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range f.byUser[userID] {
		if n.ReadAt == nil {
			count++
		}
	}
	return count, nil
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

func TestNotify_PersistsAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub)

	userID := uuid.New()
	deliveryID := uuid.New()
	svc.Notify(context.Background(), userID, "delivery_claimed", "Courier found", "Your package is on its way", &deliveryID)

	notifications, err := svc.GetUserNotifications(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "delivery_claimed", notifications[0].Kind)
	assert.Contains(t, pub.events, "notification")
}

func TestMarkAsRead_ReducesUnreadCount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakePublisher{})

	userID := uuid.New()
	svc.Notify(context.Background(), userID, "message_received", "New message", "", nil)
	svc.Notify(context.Background(), userID, "message_received", "New message", "", nil)

	count, err := svc.GetUnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	notifications, _ := svc.GetUserNotifications(context.Background(), userID, 10, 0)
	require.NoError(t, svc.MarkAsRead(context.Background(), notifications[0].ID))

	count, err = svc.GetUnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotify_RepoFailureDoesNotPanic(t *testing.T) {
	svc := NewService(&failingRepo{}, &fakePublisher{})
	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), uuid.New(), "delivery_claimed", "t", "c", nil)
	})
}

type failingRepo struct{}

func (f *failingRepo) CreateNotification(ctx context.Context, n *Notification) error {
	return assert.AnError
}
func (f *failingRepo) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return nil, nil
}
func (f *failingRepo) MarkNotificationAsRead(ctx context.Context, id uuid.UUID) error { return nil }
func (f *failingRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error      { return nil }
func (f *failingRepo) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, nil
}
