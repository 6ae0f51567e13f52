package promos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository is the Store contract the Validator depends on for read-only
// eligibility checks (§4.7 rules 1-5).
type Repository interface {
	GetPromoCodeByCode(ctx context.Context, code string) (*PromoCode, error)
	HasPriorUsage(ctx context.Context, promoID, userID uuid.UUID) (bool, error)
	HasPriorDeliveredDelivery(ctx context.Context, userID uuid.UUID) (bool, error)

	// ApplyInTx commits a PromoUsage row and increments current_usage inside
	// a caller-supplied transaction, so it lands atomically with whatever
	// wrote the Payment authorization (invariant 5).
	ApplyInTx(ctx context.Context, tx pgx.Tx, promoID, userID, deliveryID uuid.UUID, discountAmount float64) error
}
