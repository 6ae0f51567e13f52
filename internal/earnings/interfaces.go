package earnings

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BalanceProvider is the slice of matching.Service's courier ledger this
// package reads and debits against — GetBalance/DebitBalance already
// satisfy this shape (see internal/matching/service.go).
type BalanceProvider interface {
	GetBalance(ctx context.Context, courierID uuid.UUID) (float64, error)
	DebitBalance(ctx context.Context, courierID uuid.UUID, amount float64) error
}

// Repository is the Store contract for the earnings dashboard and payouts.
type Repository interface {
	// GetDeliveryEarnings returns every delivered delivery's earning
	// contribution for a courier within [start, end), applying
	// commissionRate to the captured amount.
	GetDeliveryEarnings(ctx context.Context, courierID uuid.UUID, start, end time.Time, commissionRate float64) ([]DeliveryEarning, error)
	CreatePayout(ctx context.Context, p *CourierPayout) error
	GetRecentPayouts(ctx context.Context, courierID uuid.UUID, limit int) ([]CourierPayout, error)
}

// SettingsProvider resolves the commission-rate setting the earnings
// summary applies, mirroring the collaborator in internal/payments.
type SettingsProvider interface {
	GetFloat(ctx context.Context, key string, fallback float64) float64
}
