package matching

import (
	"time"

	"github.com/google/uuid"
)

// CourierProfile is the matching-owned slice of courier state: the Store
// row LifecycleEngine mutates through CourierLedger and the FindEligible
// query filters on (§4.2).
type CourierProfile struct {
	UserID                 uuid.UUID  `json:"user_id" db:"user_id"`
	IsAvailable            bool       `json:"is_available" db:"is_available"`
	CurrentLatitude        *float64   `json:"current_latitude" db:"current_latitude"`
	CurrentLongitude       *float64   `json:"current_longitude" db:"current_longitude"`
	LocationUpdatedAt      *time.Time `json:"location_updated_at" db:"location_updated_at"`
	MaxWeightCapacityKg    float64    `json:"max_weight_capacity_kg" db:"max_weight_capacity_kg"`
	ServiceAreaRadiusMiles float64    `json:"service_area_radius_miles" db:"service_area_radius_miles"`
	BackgroundCheckStatus  string     `json:"background_check_status" db:"background_check_status"`
	IDVerificationStatus   string     `json:"id_verification_status" db:"id_verification_status"`
	ActiveDeliveryID       *uuid.UUID `json:"active_delivery_id" db:"active_delivery_id"`
	Rating                 float64    `json:"rating" db:"rating"`
	RatingCount            int        `json:"rating_count" db:"rating_count"`
	AccountBalance         float64    `json:"account_balance" db:"account_balance"`
	TotalDeliveries        int        `json:"total_deliveries" db:"total_deliveries"`
	CompletedDeliveries    int        `json:"completed_deliveries" db:"completed_deliveries"`
	CancelledDeliveries    int        `json:"cancelled_deliveries" db:"cancelled_deliveries"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// eligibility status constants, checked against CourierProfile's verification
// columns (§4.2 rule 4).
const (
	BackgroundCheckApproved = "approved"
	IDVerificationVerified  = "verified"
)

// Offer is the payload pushed to an eligible courier when a delivery enters
// searching_courier. It carries enough of the delivery for the courier app
// to decide without an extra round trip.
type Offer struct {
	DeliveryID            uuid.UUID `json:"delivery_id"`
	PickupAddress         string    `json:"pickup_address"`
	PickupLatitude        float64   `json:"pickup_latitude"`
	PickupLongitude       float64   `json:"pickup_longitude"`
	DropoffAddress        string    `json:"dropoff_address"`
	PackageDescription    string    `json:"package_description"`
	WeightKg              float64   `json:"weight_kg"`
	Priority              string    `json:"priority"`
	DistanceToPickupMiles float64   `json:"distance_to_pickup_miles"`
	EstimatedEarnings     float64   `json:"estimated_earnings"`
	ExpiresAt             time.Time `json:"expires_at"`
}

// SearchConfig holds the tunables for the eligibility search and offer
// fan-out, sourced from SystemSetting with these as fallback defaults.
type SearchConfig struct {
	// OfferWindowMinutes bounds how long an individual offer stays valid,
	// capped further by the delivery's scheduled pickup time if sooner.
	OfferWindowMinutes float64
	// MaxSearchMinutes is how long the Dispatcher waits for a claim before
	// it publishes a search_expired event; the delivery stays in
	// searching_courier.
	MaxSearchMinutes float64
	// MinCourierRating is the eligibility floor (§4.2 rule 5).
	MinCourierRating float64
}

// DefaultSearchConfig mirrors the fallback values SettingsProvider returns
// when a SystemSetting row is absent.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		OfferWindowMinutes: 15,
		MaxSearchMinutes:   15,
		MinCourierRating:   4.0,
	}
}
