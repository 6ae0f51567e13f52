package promos

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType is the closed set a PromoCode's discount value is interpreted
// against (§4.7).
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// PromoCode is a promotional discount code validated against an order
// context by the Validator.
type PromoCode struct {
	ID                  uuid.UUID    `json:"id" db:"id"`
	Code                string       `json:"code" db:"code"`
	DiscountType        DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue       float64      `json:"discount_value" db:"discount_value"`
	MinimumOrderAmount  float64      `json:"minimum_order_amount" db:"minimum_order_amount"`
	MaximumDiscount     *float64     `json:"maximum_discount,omitempty" db:"maximum_discount"`
	ValidFrom           time.Time    `json:"valid_from" db:"valid_from"`
	ValidUntil          time.Time    `json:"valid_until" db:"valid_until"`
	IsOneTimePerUser    bool         `json:"is_one_time_per_user" db:"is_one_time_per_user"`
	IsFirstTimeUserOnly bool         `json:"is_first_time_user_only" db:"is_first_time_user_only"`
	UsageLimit          *int         `json:"usage_limit,omitempty" db:"usage_limit"`
	CurrentUsage        int          `json:"current_usage" db:"current_usage"`
	IsActive            bool         `json:"is_active" db:"is_active"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}

// PromoUsage is one row per (user, code, delivery) triple; its existence
// blocks reuse of a one-time code (invariant 5).
type PromoUsage struct {
	ID             uuid.UUID `json:"id" db:"id"`
	PromoCodeID    uuid.UUID `json:"promo_code_id" db:"promo_code_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	DeliveryID     uuid.UUID `json:"delivery_id" db:"delivery_id"`
	DiscountAmount float64   `json:"discount_amount" db:"discount_amount"`
	UsedAt         time.Time `json:"used_at" db:"used_at"`
}

// ValidationResult is the Validator's pure output: either Valid with a
// computed discount, or invalid with a human-readable reason.
type ValidationResult struct {
	Valid           bool       `json:"valid"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Promo           *PromoCode `json:"-"`
	DiscountAmount  float64    `json:"discount_amount"`
	FinalAmount     float64    `json:"final_amount"`
}

// ValidateRequest is the body of POST /promo-codes/validate.
type ValidateRequest struct {
	Code        string  `json:"code" binding:"required"`
	OrderAmount float64 `json:"order_amount" binding:"required"`
}
