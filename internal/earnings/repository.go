package earnings

import (
	"context"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the Store-backed Repository implementation. It
// reads directly from the deliveries and payments tables, the same way
// internal/promos reads deliveries for its first-order check.
type PostgresRepository struct {
	db *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewRepository wires a PostgresRepository to a pgx connection pool.
func NewRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetDeliveryEarnings joins delivered deliveries to their captured payment
// within the window and applies commissionRate to each one's net share.
func (r *PostgresRepository) GetDeliveryEarnings(ctx context.Context, courierID uuid.UUID, start, end time.Time, commissionRate float64) ([]DeliveryEarning, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.actual_delivery_at,
			p.base_fee + p.distance_fee + p.weight_fee + p.priority_fee + p.tax - p.discount AS gross,
			p.tip
		FROM deliveries d
		JOIN payments p ON p.delivery_id = d.id
		WHERE d.courier_id = $1
			AND d.status = 'delivered'
			AND d.actual_delivery_at >= $2
			AND d.actual_delivery_at < $3
		ORDER BY d.actual_delivery_at DESC`,
		courierID, start, end,
	)
	if err != nil {
		return nil, common.NewInternalError("failed to load delivery earnings", err)
	}
	defer rows.Close()

	var out []DeliveryEarning
	for rows.Next() {
		var e DeliveryEarning
		var deliveredAt *time.Time
		if err := rows.Scan(&e.DeliveryID, &deliveredAt, &e.GrossAmount, &e.Tip); err != nil {
			return nil, common.NewInternalError("failed to scan delivery earning", err)
		}
		if deliveredAt != nil {
			e.DeliveredAt = *deliveredAt
		}
		e.CommissionPct = commissionRate
		e.NetAmount = e.GrossAmount*commissionRate + e.Tip
		out = append(out, e)
	}
	return out, nil
}

// CreatePayout inserts a payout row.
func (r *PostgresRepository) CreatePayout(ctx context.Context, p *CourierPayout) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO courier_payouts (id, courier_id, amount, status, reference, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at`,
		p.ID, p.CourierID, p.Amount, p.Status, p.Reference, p.FailureReason,
	).Scan(&p.CreatedAt)
	if err != nil {
		return common.NewInternalError("failed to create payout", err)
	}
	return nil
}

// GetRecentPayouts returns a courier's most recent payouts, newest first.
func (r *PostgresRepository) GetRecentPayouts(ctx context.Context, courierID uuid.UUID, limit int) ([]CourierPayout, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, courier_id, amount, status, reference, failure_reason, created_at
		FROM courier_payouts
		WHERE courier_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		courierID, limit,
	)
	if err != nil {
		return nil, common.NewInternalError("failed to load payouts", err)
	}
	defer rows.Close()

	var out []CourierPayout
	for rows.Next() {
		var p CourierPayout
		if err := rows.Scan(&p.ID, &p.CourierID, &p.Amount, &p.Status, &p.Reference, &p.FailureReason, &p.CreatedAt); err != nil {
			return nil, common.NewInternalError("failed to scan payout", err)
		}
		out = append(out, p)
	}
	return out, nil
}
