package payments

import (
	"context"
	"fmt"

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

const paymentColumns = `
	id, delivery_id, status, base_fee, distance_fee, weight_fee, priority_fee,
	tax, discount, tip, payment_method, promo_code,
	stripe_payment_intent_id, stripe_charge_id, refund_amount, refund_reason,
	created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	p := &Payment{}
	err := row.Scan(
		&p.ID, &p.DeliveryID, &p.Status, &p.BaseFee, &p.DistanceFee, &p.WeightFee, &p.PriorityFee,
		&p.Tax, &p.Discount, &p.Tip, &p.PaymentMethod, &p.PromoCode,
		&p.StripePaymentIntentID, &p.StripeChargeID, &p.RefundAmount, &p.RefundReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RunInTx runs fn inside a single Postgres transaction, committing on a
// nil return and rolling back otherwise.
func (r *PostgresRepository) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreatePaymentInTx inserts the one-per-delivery Payment row.
func (r *PostgresRepository) CreatePaymentInTx(ctx context.Context, tx pgx.Tx, p *Payment) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (id, delivery_id, status, base_fee, distance_fee, weight_fee,
			priority_fee, tax, discount, tip, payment_method, promo_code,
			stripe_payment_intent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $12, now(), now())
		RETURNING created_at, updated_at`,
		p.ID, p.DeliveryID, p.Status, p.BaseFee, p.DistanceFee, p.WeightFee,
		p.PriorityFee, p.Tax, p.Discount, p.PaymentMethod, p.PromoCode,
		p.StripePaymentIntentID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetPaymentByDeliveryID loads the single Payment row bound to a delivery.
func (r *PostgresRepository) GetPaymentByDeliveryID(ctx context.Context, deliveryID uuid.UUID) (*Payment, error) {
	row := r.db.QueryRow(ctx, "SELECT "+paymentColumns+" FROM payments WHERE delivery_id = $1", deliveryID)
	p, err := scanPayment(row)
	if err != nil {
		return nil, common.NewNotFoundError("payment not found", err)
	}
	return p, nil
}

// SetStripeIdentifiers updates the Stripe payment intent reference and
// status. Service does not call it: AuthorizeDelivery returns an existing
// Payment row as-is instead of re-authorizing.
func (r *PostgresRepository) SetStripeIdentifiers(ctx context.Context, id uuid.UUID, paymentIntentID *string, status PaymentStatus) error {
	_, err := r.db.Exec(ctx,
		`UPDATE payments SET stripe_payment_intent_id = $1, status = $2, updated_at = now() WHERE id = $3`,
		paymentIntentID, status, id,
	)
	if err != nil {
		return fmt.Errorf("update stripe identifiers: %w", err)
	}
	return nil
}

// SetCaptured marks a payment captured and records the settled charge id.
func (r *PostgresRepository) SetCaptured(ctx context.Context, id uuid.UUID, chargeID *string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE payments SET status = $1, stripe_charge_id = $2, updated_at = now() WHERE id = $3`,
		PaymentStatusCaptured, chargeID, id,
	)
	if err != nil {
		return fmt.Errorf("set captured: %w", err)
	}
	return nil
}

// SetRefunded marks a payment refunded with the settled amount and reason.
func (r *PostgresRepository) SetRefunded(ctx context.Context, id uuid.UUID, refundAmount float64, reason string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE payments SET status = $1, refund_amount = $2, refund_reason = $3, updated_at = now() WHERE id = $4`,
		PaymentStatusRefunded, refundAmount, reason, id,
	)
	if err != nil {
		return fmt.Errorf("set refunded: %w", err)
	}
	return nil
}

// SetFailed marks a payment failed, e.g. when the gateway declines
// authorization outright.
func (r *PostgresRepository) SetFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET status = $1, updated_at = now() WHERE id = $2`, PaymentStatusFailed, id)
	if err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// AddTip increments a payment's tip amount.
func (r *PostgresRepository) AddTip(ctx context.Context, id uuid.UUID, tipAmount float64) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET tip = tip + $1, updated_at = now() WHERE id = $2`, tipAmount, id)
	if err != nil {
		return fmt.Errorf("add tip: %w", err)
	}
	return nil
}
