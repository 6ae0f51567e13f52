package promos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Validator is C3 PromoValidator: given (code, user, order_amount) it
// returns either invalid(reason) or valid(promo, discount). All five rules
// in §4.7 must hold for a code to validate.
type Validator struct {
	repo Repository
}

// NewValidator wires the Validator to its Store dependency.
func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo}
}

// Validate runs the §4.7 rule set. It performs no writes.
func (v *Validator) Validate(ctx context.Context, code string, userID uuid.UUID, orderAmount float64) (*ValidationResult, error) {
	promo, err := v.repo.GetPromoCodeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &ValidationResult{Valid: false, RejectionReason: "promo code does not exist"}, nil
		}
		return nil, err
	}

	now := time.Now()
	if !promo.IsActive || now.Before(promo.ValidFrom) || now.After(promo.ValidUntil) {
		return &ValidationResult{Valid: false, RejectionReason: "promo code is not currently valid"}, nil
	}

	if promo.UsageLimit != nil && promo.CurrentUsage >= *promo.UsageLimit {
		return &ValidationResult{Valid: false, RejectionReason: "promo code has reached its usage limit"}, nil
	}

	if orderAmount < promo.MinimumOrderAmount {
		return &ValidationResult{Valid: false, RejectionReason: "order amount below promo code minimum"}, nil
	}

	if promo.IsOneTimePerUser {
		used, err := v.repo.HasPriorUsage(ctx, promo.ID, userID)
		if err != nil {
			return nil, err
		}
		if used {
			return &ValidationResult{Valid: false, RejectionReason: "already used"}, nil
		}
	}

	if promo.IsFirstTimeUserOnly {
		hasDelivered, err := v.repo.HasPriorDeliveredDelivery(ctx, userID)
		if err != nil {
			return nil, err
		}
		if hasDelivered {
			return &ValidationResult{Valid: false, RejectionReason: "promo code is for first-time users only"}, nil
		}
	}

	discount := computeDiscount(promo, orderAmount)
	return &ValidationResult{
		Valid:          true,
		Promo:          promo,
		DiscountAmount: discount,
		FinalAmount:    orderAmount - discount,
	}, nil
}

// Apply commits the PromoUsage row and current_usage increment inside the
// caller's transaction (invariant 5). Callers validate first; Apply trusts
// the result it's given.
func (v *Validator) Apply(ctx context.Context, tx pgx.Tx, result *ValidationResult, userID, deliveryID uuid.UUID) error {
	if result == nil || !result.Valid || result.Promo == nil {
		return nil
	}
	return v.repo.ApplyInTx(ctx, tx, result.Promo.ID, userID, deliveryID, result.DiscountAmount)
}

func computeDiscount(promo *PromoCode, orderAmount float64) float64 {
	var discount float64
	switch promo.DiscountType {
	case DiscountPercentage:
		discount = orderAmount * promo.DiscountValue / 100.0
		if promo.MaximumDiscount != nil && discount > *promo.MaximumDiscount {
			discount = *promo.MaximumDiscount
		}
	default: // DiscountFixedAmount
		discount = promo.DiscountValue
	}
	if discount > orderAmount {
		discount = orderAmount
	}
	return discount
}
