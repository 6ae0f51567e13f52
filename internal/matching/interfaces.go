package matching

import (
	"context"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/google/uuid"
)

// DeliveryLookup is the narrow slice of Store access Dispatch needs to
// build offers: pickup point, weight, priority, scheduled pickup time.
// Satisfied directly by delivery.RepositoryInterface.
type DeliveryLookup interface {
	GetDeliveryByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error)

	// ListSearchingCourier backs GET /courier/delivery-requests' pull view:
	// every delivery currently awaiting a claim, re-filtered per-courier by
	// GetEligibleOffers.
	ListSearchingCourier(ctx context.Context) ([]*delivery.Delivery, error)
}

// ProximityTransitioner is delivery.Service.TryProximityTransition,
// narrowed for LocationIngest's active-delivery proximity check.
type ProximityTransitioner interface {
	TryProximityTransition(ctx context.Context, deliveryID uuid.UUID, courierLat, courierLng, speedMps float64) error
}

// SettingsProvider resolves the SystemSetting keys the eligibility
// predicate and search timeout need.
type SettingsProvider interface {
	GetFloat(ctx context.Context, key string, fallback float64) float64
}

// Repository is the Store contract for courier state.
type Repository interface {
	GetCourierProfile(ctx context.Context, courierID uuid.UUID) (*CourierProfile, error)

	// FindEligibleCandidates applies §4.2 rules 1, 2, 4, 5 in SQL; rule 3
	// (service-area radius, which varies per courier) is applied by the
	// caller against the returned rows.
	FindEligibleCandidates(ctx context.Context, pickupLat, pickupLng, weightKg, minRating float64) ([]*CourierProfile, error)

	SetAvailability(ctx context.Context, courierID uuid.UUID, available bool, lat, lng *float64) error
	UpdateLocation(ctx context.Context, courierID uuid.UUID, lat, lng float64) error
	CreateLocationSample(ctx context.Context, courierID uuid.UUID, lat, lng float64) error

	ReleaseActiveDelivery(ctx context.Context, courierID uuid.UUID, completed, cancelled bool) error
	CreditBalance(ctx context.Context, courierID uuid.UUID, amount float64) error
	DebitBalance(ctx context.Context, courierID uuid.UUID, amount float64) error
}
