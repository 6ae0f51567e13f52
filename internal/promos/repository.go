package promos

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

func (r *PostgresRepository) GetPromoCodeByCode(ctx context.Context, code string) (*PromoCode, error) {
	p := &PromoCode{}
	err := r.db.QueryRow(ctx, `
		SELECT id, code, discount_type, discount_value, minimum_order_amount,
			maximum_discount, valid_from, valid_until, is_one_time_per_user,
			is_first_time_user_only, usage_limit, current_usage, is_active,
			created_at, updated_at
		FROM promo_codes WHERE code = $1`, code,
	).Scan(
		&p.ID, &p.Code, &p.DiscountType, &p.DiscountValue, &p.MinimumOrderAmount,
		&p.MaximumDiscount, &p.ValidFrom, &p.ValidUntil, &p.IsOneTimePerUser,
		&p.IsFirstTimeUserOnly, &p.UsageLimit, &p.CurrentUsage, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) HasPriorUsage(ctx context.Context, promoID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM promo_usages WHERE promo_code_id = $1 AND user_id = $2)`,
		promoID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check prior promo usage: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) HasPriorDeliveredDelivery(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM deliveries WHERE sender_id = $1 AND status = 'delivered')`,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check prior delivered delivery: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ApplyInTx(ctx context.Context, tx pgx.Tx, promoID, userID, deliveryID uuid.UUID, discountAmount float64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE promo_codes
		SET current_usage = current_usage + 1, updated_at = now()
		WHERE id = $1 AND (usage_limit IS NULL OR current_usage < usage_limit)`,
		promoID,
	)
	if err != nil {
		return fmt.Errorf("increment promo usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("promo code %s has reached its usage limit", promoID)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO promo_usages (id, promo_code_id, user_id, delivery_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		uuid.New(), promoID, userID, deliveryID, discountAmount,
	); err != nil {
		return fmt.Errorf("insert promo usage: %w", err)
	}
	return nil
}
