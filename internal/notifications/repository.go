package notifications

import (
	"context"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the Store-backed Repository implementation.
type PostgresRepository struct {
	db *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewRepository wires a PostgresRepository to a pgx connection pool.
func NewRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const notificationColumns = `
	id, user_id, kind, title, content, delivery_id, read_at, created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	n := &Notification{}
	err := row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Content, &n.DeliveryID, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// CreateNotification inserts a new notification row.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *Notification) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, content, delivery_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at`,
		n.ID, n.UserID, n.Kind, n.Title, n.Content, n.DeliveryID,
	).Scan(&n.CreatedAt)
	if err != nil {
		return common.NewInternalError("failed to create notification", err)
	}
	return nil
}

// GetUserNotifications returns a user's notifications, newest first.
func (r *PostgresRepository) GetUserNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, offset,
	)
	if err != nil {
		return nil, common.NewInternalError("failed to get notifications", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, common.NewInternalError("failed to scan notification", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// MarkNotificationAsRead marks a single notification read, idempotently.
func (r *PostgresRepository) MarkNotificationAsRead(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET read_at = now() WHERE id = $1 AND read_at IS NULL`, id)
	if err != nil {
		return common.NewInternalError("failed to mark notification read", err)
	}
	return nil
}

// MarkAllAsRead marks every one of a user's unread notifications read.
func (r *PostgresRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET read_at = now() WHERE user_id = $1 AND read_at IS NULL`, userID)
	if err != nil {
		return common.NewInternalError("failed to mark all notifications read", err)
	}
	return nil
}

// GetUnreadCount returns a user's unread notification count.
func (r *PostgresRepository) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID,
	).Scan(&count)
	if err != nil {
		return 0, common.NewInternalError("failed to get unread count", err)
	}
	return count, nil
}
