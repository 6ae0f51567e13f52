package delivery

import (
	"context"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/promos"
	"github.com/google/uuid"
)

// StatusPatch carries every field a transition may set alongside the new
// status; Store applies it and the matching DeliveryStatusEvent in one
// transaction.
type StatusPatch struct {
	Latitude  *float64
	Longitude *float64
	Notes     *string
	ActorID   *uuid.UUID
	System    bool

	ActualPickupAt      *time.Time
	ActualDeliveryAt    *time.Time
	EstimatedDeliveryAt *time.Time

	CancellationReason *string
	FailureReason      *string

	DeliveryProofURL *string
	SignatureURL     *string
	IDVerified       *bool

	ClearCourier bool
}

// RepositoryInterface is the Store contract LifecycleEngine depends on.
type RepositoryInterface interface {
	CreateDelivery(ctx context.Context, d *Delivery) error
	GetDeliveryByID(ctx context.Context, id uuid.UUID) (*Delivery, error)
	GetPackageType(ctx context.Context, id uuid.UUID) (*PackageType, error)

	// ClaimDelivery performs the §4.2 conditional update: binds courier_id
	// and flips status to courier_assigned only if the delivery is still
	// unclaimed and the claimant has no active delivery; both mutations
	// commit in the same transaction.
	ClaimDelivery(ctx context.Context, deliveryID, courierID uuid.UUID) (bool, error)

	// AdvanceStatus writes the new Delivery row fields and a matching
	// DeliveryStatusEvent atomically. It does not validate legality; the
	// caller (Service) has already checked the transition table.
	AdvanceStatus(ctx context.Context, deliveryID uuid.UUID, newStatus DeliveryStatus, patch StatusPatch) error

	GetEventsByDeliveryID(ctx context.Context, deliveryID uuid.UUID) ([]DeliveryStatusEvent, error)

	GetDeliveriesBySender(ctx context.Context, senderID uuid.UUID, filters *DeliveryListFilters, limit, offset int) ([]*Delivery, int64, error)
	GetDeliveriesByCourier(ctx context.Context, courierID uuid.UUID, filters *DeliveryListFilters, limit, offset int) ([]*Delivery, int64, error)
	GetActiveDeliveryForCourier(ctx context.Context, courierID uuid.UUID) (*Delivery, error)

	// ListSearchingCourier returns every delivery currently awaiting a
	// claim, for Dispatcher's GET /courier/delivery-requests pull view.
	ListSearchingCourier(ctx context.Context) ([]*Delivery, error)

	GetSenderStats(ctx context.Context, senderID uuid.UUID) (*DeliveryStats, error)
	GetCourierStats(ctx context.Context, courierID uuid.UUID) (*DeliveryStats, error)

	HasPriorDeliveredDelivery(ctx context.Context, senderID uuid.UUID) (bool, error)

	// CreateIssue persists a sender- or courier-filed DeliveryIssue row.
	CreateIssue(ctx context.Context, issue *DeliveryIssue) error
}

// PaymentAdapter is C4, narrowed to what LifecycleEngine calls directly.
type PaymentAdapter interface {
	AuthorizeDelivery(ctx context.Context, deliveryID, senderID uuid.UUID, breakdown PricingBreakdown, promoCode *string, paymentMethod string) (txnID string, discount float64, err error)
	CaptureDelivery(ctx context.Context, deliveryID uuid.UUID) (capturedAmount, commissionRate float64, err error)
	RefundDelivery(ctx context.Context, deliveryID uuid.UUID, amount float64, reason string) error
	AddTip(ctx context.Context, deliveryID uuid.UUID, tipAmount float64) (commissionRate float64, err error)

	// AuthorizedAmount resolves the Payment's authorized total (breakdown
	// minus discount, plus tip) so the cancellation refund tiers can be
	// computed against it.
	AuthorizedAmount(ctx context.Context, deliveryID uuid.UUID) (float64, error)
}

// CourierLedger is the slice of CourierProfile mutations LifecycleEngine
// triggers — owned by the matching package, which is the system of record
// for courier availability and balance. The bind side of
// active_delivery_id has no method here: it commits inside the claim
// transaction itself (RepositoryInterface.ClaimDelivery), where the
// one-active-delivery invariant is actually decided.
type CourierLedger interface {
	ReleaseActiveDelivery(ctx context.Context, courierID uuid.UUID, completed, cancelled bool) error
	CreditBalance(ctx context.Context, courierID uuid.UUID, amount float64) error
}

// PromoValidator is C3, narrowed to the read-only dry run Estimate needs;
// real applications (PromoUsage insert + usage increment) run inside
// PaymentAdapter's authorization transaction.
type PromoValidator interface {
	Validate(ctx context.Context, code string, userID uuid.UUID, orderAmount float64) (*promos.ValidationResult, error)
}

// NotificationSink is C7, narrowed to the persist+publish contract.
type NotificationSink interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, content string, deliveryID *uuid.UUID)
}

// Rater persists a post-delivery rating once RateDelivery's access check
// passes; it owns the "at most one rating per rater per delivery" rule.
type Rater interface {
	SubmitRating(ctx context.Context, deliveryID, raterID, rateeID uuid.UUID, raterIsSender bool, req RateDeliveryRequest) error
}

// Dispatcher is C9, narrowed to the handoff LifecycleEngine makes once a
// delivery enters searching_courier. Dispatch runs the eligibility search
// and offer fan-out; it does not block the caller on a claim.
type Dispatcher interface {
	Dispatch(ctx context.Context, deliveryID uuid.UUID)
}

// EventPublisher is C6, narrowed to the two publish shapes LifecycleEngine
// and LocationIngest need.
type EventPublisher interface {
	PublishToUser(userID uuid.UUID, eventType string, data interface{})
	PublishToDelivery(deliveryID uuid.UUID, eventType string, data interface{})
}

// TrackingLinks is C12, narrowed to what LifecycleEngine needs: issuing the
// pair of tokens a new delivery gets, and resolving a token string back to
// the delivery it authorizes (§4.9).
type TrackingLinks interface {
	IssueTokens(ctx context.Context, deliveryID uuid.UUID) (senderToken, recipientToken string, err error)
	ResolveToken(ctx context.Context, token string) (deliveryID uuid.UUID, err error)
}

