package earnings

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus tracks a payout's lifecycle. Payouts in this system settle
// immediately against the courier's account_balance; there is no pending
// bank-transfer rail modeled (see DESIGN.md).
type PayoutStatus string

const (
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusFailed    PayoutStatus = "failed"
)

// DeliveryEarning is one delivered delivery's contribution to a courier's
// balance: captured_amount * commission_rate + tip (§6 invariant 5).
type DeliveryEarning struct {
	DeliveryID    uuid.UUID `json:"delivery_id"`
	DeliveredAt   time.Time `json:"delivered_at"`
	GrossAmount   float64   `json:"gross_amount"`
	CommissionPct float64   `json:"commission_rate"`
	Tip           float64   `json:"tip"`
	NetAmount     float64   `json:"net_amount"`
}

// CourierPayout is a single payout event against a courier's balance.
type CourierPayout struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	CourierID     uuid.UUID    `json:"courier_id" db:"courier_id"`
	Amount        float64      `json:"amount" db:"amount"`
	Status        PayoutStatus `json:"status" db:"status"`
	Reference     string       `json:"reference" db:"reference"`
	FailureReason *string      `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// DailyEarning aggregates DeliveryEarning rows by calendar day for the
// dashboard breakdown.
type DailyEarning struct {
	Date          string  `json:"date"`
	GrossAmount   float64 `json:"gross_amount"`
	NetAmount     float64 `json:"net_amount"`
	Tips          float64 `json:"tips"`
	DeliveryCount int     `json:"delivery_count"`
}

// EarningsSummary is the full payload for GET /courier/earnings.
type EarningsSummary struct {
	CourierID      uuid.UUID        `json:"courier_id"`
	Period         string           `json:"period"`
	PeriodStart    time.Time        `json:"period_start"`
	PeriodEnd      time.Time        `json:"period_end"`
	Balance        float64          `json:"balance"`
	GrossEarnings  float64          `json:"gross_earnings"`
	NetEarnings    float64          `json:"net_earnings"`
	TipEarnings    float64          `json:"tip_earnings"`
	DeliveryCount  int              `json:"delivery_count"`
	DailyBreakdown []DailyEarning   `json:"daily_breakdown"`
	RecentPayouts  []CourierPayout  `json:"recent_payouts"`
	Currency       string           `json:"currency"`
}

// RequestPayoutRequest requests a payout of amount against the courier's
// current balance.
type RequestPayoutRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}
