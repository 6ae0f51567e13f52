package delivery

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is one of the fourteen lifecycle states LifecycleEngine
// owns exclusively.
type DeliveryStatus string

const (
	StatusPending             DeliveryStatus = "pending"
	StatusSearchingCourier    DeliveryStatus = "searching_courier"
	StatusCourierAssigned     DeliveryStatus = "courier_assigned"
	StatusEnRouteToPickup     DeliveryStatus = "en_route_to_pickup"
	StatusApproachingPickup   DeliveryStatus = "approaching_pickup"
	StatusAtPickup            DeliveryStatus = "at_pickup"
	StatusPickedUp            DeliveryStatus = "picked_up"
	StatusInTransit           DeliveryStatus = "in_transit"
	StatusApproachingDropoff  DeliveryStatus = "approaching_dropoff"
	StatusAtDropoff           DeliveryStatus = "at_dropoff"
	StatusDelivered           DeliveryStatus = "delivered"
	StatusCancelled           DeliveryStatus = "cancelled"
	StatusFailed              DeliveryStatus = "failed"
	StatusReturned            DeliveryStatus = "returned"
)

// IsTerminal reports whether no further transition is legal from this status.
func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusFailed, StatusReturned:
		return true
	}
	return false
}

// DeliveryPriority is the closed {standard, express, urgent} set.
type DeliveryPriority string

const (
	PriorityStandard DeliveryPriority = "standard"
	PriorityExpress  DeliveryPriority = "express"
	PriorityUrgent   DeliveryPriority = "urgent"
)

// Actor identifies who is allowed to request a given transition.
type Actor string

const (
	ActorSender  Actor = "sender"
	ActorCourier Actor = "courier"
	ActorSystem  Actor = "system"
)

// PackageType is the external reference used by PricingEngine; base_price
// and max_weight feed directly into the §4.6 formula.
type PackageType struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	BasePrice   float64   `json:"base_price" db:"base_price"`
	MaxWeightKg float64   `json:"max_weight_kg" db:"max_weight_kg"`
}

// Delivery is the aggregate root of the lifecycle.
type Delivery struct {
	ID       uuid.UUID  `json:"id" db:"id"`
	SenderID uuid.UUID  `json:"sender_id" db:"sender_id"`
	CourierID *uuid.UUID `json:"courier_id,omitempty" db:"courier_id"`

	PackageTypeID uuid.UUID `json:"package_type_id" db:"package_type_id"`

	PickupAddress   string  `json:"pickup_address" db:"pickup_address"`
	PickupLatitude  float64 `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude float64 `json:"pickup_longitude" db:"pickup_longitude"`
	PickupContact   *string `json:"pickup_contact,omitempty" db:"pickup_contact"`
	PickupPhone     *string `json:"pickup_phone,omitempty" db:"pickup_phone"`

	DropoffAddress   string `json:"dropoff_address" db:"dropoff_address"`
	DropoffLatitude  float64 `json:"dropoff_latitude" db:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude" db:"dropoff_longitude"`
	RecipientName    string `json:"recipient_name" db:"recipient_name"`
	RecipientPhone   string `json:"recipient_phone" db:"recipient_phone"`

	Status            DeliveryStatus `json:"status" db:"status"`
	CurrentStatusSince time.Time     `json:"current_status_since" db:"current_status_since"`

	ScheduledPickupAt *time.Time `json:"scheduled_pickup_at,omitempty" db:"scheduled_pickup_at"`
	ActualPickupAt    *time.Time `json:"actual_pickup_at,omitempty" db:"actual_pickup_at"`
	ActualDeliveryAt  *time.Time `json:"actual_delivery_at,omitempty" db:"actual_delivery_at"`
	EstimatedDeliveryAt *time.Time `json:"estimated_delivery_at,omitempty" db:"estimated_delivery_at"`

	PackageDescription string  `json:"package_description" db:"package_description"`
	WeightKg           float64 `json:"weight_kg" db:"weight_kg"`
	IsFragile          bool    `json:"is_fragile" db:"is_fragile"`

	RequiresPhotoProof     bool `json:"requires_photo_proof" db:"requires_photo_proof"`
	RequiresSignature      bool `json:"requires_signature" db:"requires_signature"`
	RequiresIDVerification bool `json:"requires_id_verification" db:"requires_id_verification"`

	// VerificationCode is immutable once set at creation time.
	VerificationCode string  `json:"-" db:"verification_code"`
	SpecialInstructions *string `json:"special_instructions,omitempty" db:"special_instructions"`

	Priority DeliveryPriority `json:"priority" db:"priority"`

	DistanceMiles            float64 `json:"distance_miles" db:"distance_miles"`
	EstimatedDurationMinutes int     `json:"estimated_duration_minutes" db:"estimated_duration_minutes"`

	// EstimatedTotal is the pre-discount PricingEngine total at creation
	// time, stored for the Dispatcher's offer earnings estimate. The
	// authoritative billed amount lives on the Payment row.
	EstimatedTotal float64 `json:"estimated_total" db:"estimated_total"`

	CancellationReason *string `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	FailureReason      *string `json:"failure_reason,omitempty" db:"failure_reason"`

	PackagePhotoURL  *string `json:"package_photo_url,omitempty" db:"package_photo_url"`
	DeliveryProofURL *string `json:"delivery_proof_url,omitempty" db:"delivery_proof_url"`
	SignatureURL     *string `json:"signature_url,omitempty" db:"signature_url"`
	IDVerified       bool    `json:"id_verified" db:"id_verified"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DeliveryStatusEvent is the append-only per-delivery audit log; its last
// row's Status always equals the owning Delivery's current Status
// (invariant 3).
type DeliveryStatusEvent struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	DeliveryID uuid.UUID      `json:"delivery_id" db:"delivery_id"`
	Status     DeliveryStatus `json:"status" db:"status"`
	OccurredAt time.Time      `json:"occurred_at" db:"occurred_at"`
	Latitude   *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude  *float64       `json:"longitude,omitempty" db:"longitude"`
	Notes      *string        `json:"notes,omitempty" db:"notes"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty" db:"actor_id"`
	System     bool           `json:"system" db:"system"`
}

// PricingBreakdown is PricingEngine's pure output (§4.6).
type PricingBreakdown struct {
	BaseFee                  float64 `json:"base_fee"`
	DistanceFee              float64 `json:"distance_fee"`
	WeightFee                float64 `json:"weight_fee"`
	PriorityFee              float64 `json:"priority_fee"`
	Tax                      float64 `json:"tax"`
	DistanceMiles            float64 `json:"distance_miles"`
	EstimatedDurationMinutes int     `json:"estimated_duration_minutes"`
}

// Total sums the breakdown components, before any promo discount.
func (p PricingBreakdown) Total() float64 {
	return p.BaseFee + p.DistanceFee + p.WeightFee + p.PriorityFee + p.Tax
}

// EstimateRequest is the input to both /deliveries/estimate and CreateDelivery.
type EstimateRequest struct {
	PickupLatitude   float64          `json:"pickup_latitude" binding:"required"`
	PickupLongitude  float64          `json:"pickup_longitude" binding:"required"`
	DropoffLatitude  float64          `json:"dropoff_latitude" binding:"required"`
	DropoffLongitude float64          `json:"dropoff_longitude" binding:"required"`
	PackageTypeID    uuid.UUID        `json:"package_type_id" binding:"required"`
	WeightKg         float64          `json:"weight_kg"`
	Priority         DeliveryPriority `json:"priority" binding:"required,oneof=standard express urgent"`
	PromoCode        *string          `json:"promo_code,omitempty"`
}

// EstimateResponse carries the breakdown plus whatever promo outcome applied.
type EstimateResponse struct {
	Breakdown    PricingBreakdown `json:"breakdown"`
	Discount     float64          `json:"discount"`
	Total        float64          `json:"total"`
	PromoApplied bool             `json:"promo_applied"`
	PromoReason  *string          `json:"promo_rejection_reason,omitempty"`
}

// CreateDeliveryRequest is the body of POST /deliveries.
type CreateDeliveryRequest struct {
	PickupAddress   string  `json:"pickup_address" binding:"required"`
	PickupLatitude  float64 `json:"pickup_latitude" binding:"required"`
	PickupLongitude float64 `json:"pickup_longitude" binding:"required"`
	PickupContact   *string `json:"pickup_contact,omitempty"`
	PickupPhone     *string `json:"pickup_phone,omitempty"`

	DropoffAddress   string `json:"dropoff_address" binding:"required"`
	DropoffLatitude  float64 `json:"dropoff_latitude" binding:"required"`
	DropoffLongitude float64 `json:"dropoff_longitude" binding:"required"`
	RecipientName    string `json:"recipient_name" binding:"required"`
	RecipientPhone   string `json:"recipient_phone" binding:"required"`

	PackageTypeID      uuid.UUID `json:"package_type_id" binding:"required"`
	PackageDescription string    `json:"package_description"`
	WeightKg           float64   `json:"weight_kg"`
	IsFragile          bool      `json:"is_fragile"`

	RequiresPhotoProof     bool `json:"requires_photo_proof"`
	RequiresSignature      bool `json:"requires_signature"`
	RequiresIDVerification bool `json:"requires_id_verification"`

	SpecialInstructions *string          `json:"special_instructions,omitempty"`
	Priority            DeliveryPriority `json:"priority" binding:"required,oneof=standard express urgent"`
	ScheduledPickupAt   *time.Time       `json:"scheduled_pickup_at,omitempty"`

	PromoCode     *string `json:"promo_code,omitempty"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
}

// DeliveryResponse wraps a Delivery with its event history for the API
// surface; VerificationCode and pickup access codes are attached for the
// winning courier's expanded view, and VerificationCode also to the
// sender's CreateDelivery response.
// The tracking URLs are populated only by CreateDelivery's response, the
// one moment the plaintext tokens are ever available (§4.9: tokens are
// never reissued, so this is a sender's only chance to see them).
type DeliveryResponse struct {
	*Delivery
	Events               []DeliveryStatusEvent `json:"events,omitempty"`
	PickupAccessCode     string                `json:"pickup_access_code,omitempty"`
	VerificationCode     string                `json:"verification_code,omitempty"`
	TrackingURLSender    string                `json:"tracking_url_sender,omitempty"`
	TrackingURLRecipient string                `json:"tracking_url_recipient,omitempty"`
}

// IssueCategory is the closed set of reasons a delivery issue can be filed
// under.
type IssueCategory string

const (
	IssueCategoryDamaged    IssueCategory = "damaged_package"
	IssueCategoryLate       IssueCategory = "late_delivery"
	IssueCategoryWrongItem  IssueCategory = "wrong_item"
	IssueCategoryCourier    IssueCategory = "courier_behavior"
	IssueCategoryOther      IssueCategory = "other"
)

// DeliveryIssue is a sender- or courier-filed report against a delivery
// (POST /deliveries/{id}/report-issue, §6); it does not itself change the
// delivery's lifecycle status.
type DeliveryIssue struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	DeliveryID  uuid.UUID     `json:"delivery_id" db:"delivery_id"`
	ReportedBy  uuid.UUID     `json:"reported_by" db:"reported_by"`
	Category    IssueCategory `json:"category" db:"category"`
	Description string        `json:"description" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// ReportIssueRequest is the body of POST /deliveries/{id}/report-issue.
type ReportIssueRequest struct {
	Category    IssueCategory `json:"category" binding:"required,oneof=damaged_package late_delivery wrong_item courier_behavior other"`
	Description string        `json:"description" binding:"required"`
}

// DeliveryListFilters narrows GET /deliveries.
type DeliveryListFilters struct {
	Status    *DeliveryStatus
	FromDate  *time.Time
	ToDate    *time.Time
}

// DeliveryStats summarizes a sender's or courier's delivery history.
type DeliveryStats struct {
	TotalDeliveries     int     `json:"total_deliveries"`
	CompletedDeliveries int     `json:"completed_deliveries"`
	CancelledDeliveries int     `json:"cancelled_deliveries"`
	TotalSpent          float64 `json:"total_spent,omitempty"`
}

// AdvanceRequest is the body of POST /api/v1/courier/deliveries/:id/status.
type AdvanceRequest struct {
	Status       DeliveryStatus `json:"status" binding:"required"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
	Notes        *string        `json:"notes,omitempty"`
	Reason       *string        `json:"reason,omitempty"`
	PhotoURL     *string        `json:"delivery_proof_photo_url,omitempty"`
	SignatureURL *string        `json:"signature_url,omitempty"`
	IDVerified   bool           `json:"id_verified,omitempty"`
}

// RateDeliveryRequest is the body of POST /deliveries/{id}/rate.
type RateDeliveryRequest struct {
	Overall      int     `json:"overall" binding:"required,min=1,max=5"`
	Timeliness   *int    `json:"timeliness,omitempty" binding:"omitempty,min=1,max=5"`
	Communication *int   `json:"communication,omitempty" binding:"omitempty,min=1,max=5"`
	Handling     *int    `json:"handling,omitempty" binding:"omitempty,min=1,max=5"`
	Feedback     *string `json:"feedback,omitempty"`
}
