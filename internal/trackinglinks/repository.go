package trackinglinks

import (
	"context"
	"errors"
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

// Create persists a newly issued token row.
func (r *PostgresRepository) Create(ctx context.Context, t *TrackingToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tracking_links (id, delivery_id, token, is_recipient, expires_at, access_count, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, now())`,
		t.ID, t.DeliveryID, t.Token, t.IsRecipient, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert tracking token: %w", err)
	}
	return nil
}

// GetByToken looks up a token row by its opaque string.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*TrackingToken, error) {
	t := &TrackingToken{}
	err := r.db.QueryRow(ctx, `
		SELECT id, delivery_id, token, is_recipient, expires_at, access_count, last_accessed_at, created_at
		FROM tracking_links WHERE token = $1`, token,
	).Scan(&t.ID, &t.DeliveryID, &t.Token, &t.IsRecipient, &t.ExpiresAt, &t.AccessCount, &t.LastAccessedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tracking token not found: %w", err)
		}
		return nil, fmt.Errorf("get tracking token: %w", err)
	}
	return t, nil
}

// RecordAccess bumps the access counter and last-accessed timestamp.
func (r *PostgresRepository) RecordAccess(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tracking_links SET access_count = access_count + 1, last_accessed_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("record tracking token access: %w", err)
	}
	return nil
}
