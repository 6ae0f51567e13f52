package payments

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks the monotonic advance pending -> authorized ->
// captured, or pending -> failed, or authorized -> refunded (invariant 4).
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Payment is the one-per-delivery money record (§3 invariant 4).
type Payment struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	DeliveryID uuid.UUID     `json:"delivery_id" db:"delivery_id"`
	Status     PaymentStatus `json:"status" db:"status"`

	BaseFee     float64 `json:"base_fee" db:"base_fee"`
	DistanceFee float64 `json:"distance_fee" db:"distance_fee"`
	WeightFee   float64 `json:"weight_fee" db:"weight_fee"`
	PriorityFee float64 `json:"priority_fee" db:"priority_fee"`
	Tax         float64 `json:"tax" db:"tax"`
	Discount    float64 `json:"discount" db:"discount"`
	Tip         float64 `json:"tip" db:"tip"`
	Amount      float64 `json:"amount" db:"amount"`

	PaymentMethod string  `json:"payment_method" db:"payment_method"`
	PromoCode     *string `json:"promo_code,omitempty" db:"promo_code"`

	StripePaymentIntentID *string `json:"-" db:"stripe_payment_intent_id"`
	StripeChargeID         *string `json:"-" db:"stripe_charge_id"`

	RefundAmount *float64 `json:"refund_amount,omitempty" db:"refund_amount"`
	RefundReason *string  `json:"refund_reason,omitempty" db:"refund_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Total is the captured/capturable amount: breakdown minus discount, plus
// any tip added after capture.
func (p *Payment) Total() float64 {
	return p.BaseFee + p.DistanceFee + p.WeightFee + p.PriorityFee + p.Tax - p.Discount + p.Tip
}
