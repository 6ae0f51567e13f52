package chat

import (
	"context"
	"fmt"

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

const messageColumns = `
	id, delivery_id, sender_id, sender_type, recipient_id,
	content, attachment_url, is_read, read_at, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	m := &Message{}
	err := row.Scan(
		&m.ID, &m.DeliveryID, &m.SenderID, &m.SenderType, &m.RecipientID,
		&m.Content, &m.AttachmentURL, &m.IsRead, &m.ReadAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMessage inserts a new chat message.
func (r *PostgresRepository) CreateMessage(ctx context.Context, m *Message) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (id, delivery_id, sender_id, sender_type, recipient_id, content, attachment_url, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)`,
		m.ID, m.DeliveryID, m.SenderID, m.SenderType, m.RecipientID, m.Content, m.AttachmentURL, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessageByID loads a single message for the mark-read access check.
func (r *PostgresRepository) GetMessageByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	row := r.db.QueryRow(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = $1", id)
	m, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// ListByDelivery returns a delivery's chat history, oldest first.
func (r *PostgresRepository) ListByDelivery(ctx context.Context, deliveryID uuid.UUID, limit, offset int) ([]*Message, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE delivery_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3",
		deliveryID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// MarkRead flips a message's is_read/read_at.
func (r *PostgresRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE messages SET is_read = true, read_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

// CountUnread counts a recipient's unread messages on a delivery, used by
// the conversation summary view.
func (r *PostgresRepository) CountUnread(ctx context.Context, deliveryID, recipientID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE delivery_id = $1 AND recipient_id = $2 AND is_read = false`,
		deliveryID, recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
