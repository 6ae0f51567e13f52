package delivery

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/geo"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// pickupProximityMeters triggers the en_route_to_pickup -> approaching_pickup
	// auto-transition (§4.1, §4.3).
	pickupProximityMeters = 200.0
	// dropoffProximityMeters triggers in_transit -> approaching_dropoff.
	dropoffProximityMeters = 500.0
	// speedFloorMps is v_floor in the ETA maintenance formula (§4.1).
	speedFloorMps = 8.0
)

// SettingsProvider resolves the SystemSetting keys PricingEngine and the
// Dispatcher eligibility predicate need, with a caller-supplied fallback.
type SettingsProvider interface {
	GetFloat(ctx context.Context, key string, fallback float64) float64
}

// Service is C8 LifecycleEngine: it alone mutates Delivery.status, courier
// assignment, and actual-time stamps, and alone writes DeliveryStatusEvent
// rows.
type Service struct {
	repo       RepositoryInterface
	payments   PaymentAdapter
	ledger     CourierLedger
	notifier   NotificationSink
	publisher  EventPublisher
	settings   SettingsProvider
	dispatcher Dispatcher
	rater      Rater
	tracking   TrackingLinks
	promos     PromoValidator
}

// SetPromoValidator wires C3 for the estimate dry run; real applications
// run inside PaymentAdapter's authorization transaction.
func (s *Service) SetPromoValidator(p PromoValidator) {
	s.promos = p
}

// SetRater wires C_ratings after construction, same optional-collaborator
// idiom as SetDispatcher.
func (s *Service) SetRater(r Rater) {
	s.rater = r
}

// SetTrackingLinks wires C12 after construction, same optional-collaborator
// idiom as SetDispatcher/SetRater.
func (s *Service) SetTrackingLinks(t TrackingLinks) {
	s.tracking = t
}

// NewService wires LifecycleEngine to its collaborators. Any of payments,
// ledger, notifier, publisher, settings, dispatcher may be nil in tests
// that only exercise the pure transition/pricing logic.
func NewService(repo RepositoryInterface, payments PaymentAdapter, ledger CourierLedger, notifier NotificationSink, publisher EventPublisher, settings SettingsProvider) *Service {
	return &Service{
		repo:      repo,
		payments:  payments,
		ledger:    ledger,
		notifier:  notifier,
		publisher: publisher,
		settings:  settings,
	}
}

// SetDispatcher wires C9 after construction, mirroring the teacher's
// optional-collaborator setter idiom (e.g. Service.EnableMLPredictions)
// rather than widening the constructor for a dependency most unit tests
// don't need.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

func (s *Service) pricingSettings(ctx context.Context) Settings {
	if s.settings == nil {
		return Settings{BasePriceMultiplier: 1.0, UrgentPriceMultiplier: 1.5, ExpressPriceMultiplier: 1.2, TaxRate: 0.0875}
	}
	return Settings{
		BasePriceMultiplier:    s.settings.GetFloat(ctx, "base_price_multiplier", 1.0),
		UrgentPriceMultiplier:  s.settings.GetFloat(ctx, "urgent_price_multiplier", 1.5),
		ExpressPriceMultiplier: s.settings.GetFloat(ctx, "express_price_multiplier", 1.2),
		TaxRate:                s.settings.GetFloat(ctx, "tax_rate", 0.0875),
	}
}

// ========================================
// ESTIMATION (C2 PricingEngine + C3 PromoValidator, read-only)
// ========================================

// Estimate computes the pricing breakdown for a prospective delivery,
// including the promo dry run. It is pure with respect to Store — no row
// is written, and the same CalculatePricing call backs CreateDelivery, so
// identical inputs price identically on both endpoints.
func (s *Service) Estimate(ctx context.Context, userID uuid.UUID, req *EstimateRequest) (*EstimateResponse, error) {
	pkg, err := s.repo.GetPackageType(ctx, req.PackageTypeID)
	if err != nil {
		return nil, common.NewNotFoundError("package type not found", err)
	}

	distanceMiles := geo.HaversineMiles(req.PickupLatitude, req.PickupLongitude, req.DropoffLatitude, req.DropoffLongitude)
	breakdown := CalculatePricing(distanceMiles, pkg, req.WeightKg, req.Priority, s.pricingSettings(ctx))

	resp := &EstimateResponse{Breakdown: breakdown, Total: breakdown.Total()}

	if req.PromoCode != nil && s.promos != nil {
		result, err := s.promos.Validate(ctx, *req.PromoCode, userID, breakdown.Total())
		if err != nil {
			return nil, err
		}
		if result.Valid {
			resp.PromoApplied = true
			resp.Discount = roundMoney(result.DiscountAmount)
			resp.Total = roundMoney(breakdown.Total() - resp.Discount)
		} else {
			reason := result.RejectionReason
			resp.PromoReason = &reason
		}
	}

	return resp, nil
}

// ========================================
// CREATION (pending -> searching_courier)
// ========================================

// CreateDelivery creates a Delivery in `pending`, authorizes payment, and
// — on success — transitions it to `searching_courier` so the Dispatcher
// can begin matching. The row is written before authorization; if
// authorization fails (or no payment adapter is set) it stays in `pending`
// and is not removed.
func (s *Service) CreateDelivery(ctx context.Context, senderID uuid.UUID, req *CreateDeliveryRequest) (*DeliveryResponse, error) {
	pkg, err := s.repo.GetPackageType(ctx, req.PackageTypeID)
	if err != nil {
		return nil, common.NewNotFoundError("package type not found", err)
	}

	distanceMiles := geo.HaversineMiles(req.PickupLatitude, req.PickupLongitude, req.DropoffLatitude, req.DropoffLongitude)
	breakdown := CalculatePricing(distanceMiles, pkg, req.WeightKg, req.Priority, s.pricingSettings(ctx))

	now := time.Now()
	deliveryID := uuid.New()

	d := &Delivery{
		ID:                     deliveryID,
		SenderID:               senderID,
		PackageTypeID:          req.PackageTypeID,
		PickupAddress:          req.PickupAddress,
		PickupLatitude:         req.PickupLatitude,
		PickupLongitude:        req.PickupLongitude,
		PickupContact:          req.PickupContact,
		PickupPhone:            req.PickupPhone,
		DropoffAddress:         req.DropoffAddress,
		DropoffLatitude:        req.DropoffLatitude,
		DropoffLongitude:       req.DropoffLongitude,
		RecipientName:          req.RecipientName,
		RecipientPhone:         req.RecipientPhone,
		Status:                 StatusPending,
		CurrentStatusSince:     now,
		ScheduledPickupAt:      req.ScheduledPickupAt,
		PackageDescription:     req.PackageDescription,
		WeightKg:               req.WeightKg,
		IsFragile:              req.IsFragile,
		RequiresPhotoProof:     req.RequiresPhotoProof,
		RequiresSignature:      req.RequiresSignature,
		RequiresIDVerification: req.RequiresIDVerification,
		VerificationCode:       generateVerificationCode(),
		SpecialInstructions:    req.SpecialInstructions,
		Priority:               req.Priority,
		DistanceMiles:          breakdown.DistanceMiles,
		EstimatedDurationMinutes: breakdown.EstimatedDurationMinutes,
		EstimatedTotal:         breakdown.Total(),
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.repo.CreateDelivery(ctx, d); err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	if s.payments == nil {
		return nil, common.NewServiceUnavailableError("payment adapter unavailable")
	}

	_, _, err = s.payments.AuthorizeDelivery(ctx, deliveryID, senderID, breakdown, req.PromoCode, req.PaymentMethod)
	if err != nil {
		return &DeliveryResponse{Delivery: d}, common.NewErrorWithCode(402, "PAYMENT_PENDING", "payment authorization failed", err)
	}

	estimatedDelivery := now.Add(time.Duration(breakdown.EstimatedDurationMinutes+15) * time.Minute)
	if err := s.repo.AdvanceStatus(ctx, deliveryID, StatusSearchingCourier, StatusPatch{
		System:              true,
		EstimatedDeliveryAt: &estimatedDelivery,
	}); err != nil {
		return nil, err
	}
	d.Status = StatusSearchingCourier
	d.EstimatedDeliveryAt = &estimatedDelivery

	if s.publisher != nil {
		s.publisher.PublishToDelivery(deliveryID, "delivery_status_change", map[string]interface{}{
			"delivery_id": deliveryID,
			"status":      string(StatusSearchingCourier),
		})
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, deliveryID)
	}

	resp := &DeliveryResponse{Delivery: d, VerificationCode: d.VerificationCode}
	if s.tracking != nil {
		senderToken, recipientToken, err := s.tracking.IssueTokens(ctx, deliveryID)
		if err != nil {
			logger.Warn("issue tracking tokens failed", zap.Error(err))
		} else {
			resp.TrackingURLSender = trackingURL(deliveryID, senderToken)
			resp.TrackingURLRecipient = trackingURL(deliveryID, recipientToken)
		}
	}

	return resp, nil
}

// trackingURL formats the public, token-gated tracking link for a delivery.
func trackingURL(deliveryID uuid.UUID, token string) string {
	return fmt.Sprintf("/api/v1/deliveries/%s?tracking_token=%s", deliveryID, token)
}

// ========================================
// DISPATCH CLAIM (searching_courier -> courier_assigned)
// ========================================

// Claim is the only entry point for a courier's acceptance (§4.2). Exactly
// one concurrent claim for a delivery succeeds; the rest observe
// AlreadyAssigned. ClaimDelivery commits the status flip, the
// active_delivery_id bind, and the courier_assigned event in one
// transaction — nothing else is written here.
func (s *Service) Claim(ctx context.Context, deliveryID, courierID uuid.UUID) (*DeliveryResponse, error) {
	won, err := s.repo.ClaimDelivery(ctx, deliveryID, courierID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, common.NewConflictError("delivery already assigned to another courier")
	}

	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, d.SenderID, "status_update", "Courier assigned", "A courier has accepted your delivery.", &deliveryID)
	}
	if s.publisher != nil {
		s.publisher.PublishToUser(d.SenderID, "delivery_request_accepted", map[string]interface{}{"delivery_id": deliveryID, "courier_id": courierID})
		s.publisher.PublishToDelivery(deliveryID, "delivery_status_change", map[string]interface{}{"delivery_id": deliveryID, "status": string(StatusCourierAssigned)})
	}

	return &DeliveryResponse{Delivery: d, PickupAccessCode: d.VerificationCode, VerificationCode: d.VerificationCode}, nil
}

// ========================================
// COURIER-DRIVEN TRANSITIONS
// ========================================

// Advance applies a courier-initiated transition (en_route_to_pickup,
// at_pickup, picked_up, in_transit, at_dropoff, delivered, failed,
// returned), enforcing the §4.1 guard for each.
func (s *Service) Advance(ctx context.Context, deliveryID, courierID uuid.UUID, req *AdvanceRequest) (*DeliveryResponse, error) {
	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("delivery not found", err)
	}
	if d.CourierID == nil || *d.CourierID != courierID {
		return nil, common.NewForbiddenError("not your delivery")
	}

	if d.Status == req.Status {
		// Idempotent: already in the target status (§4.1 failure semantics).
		return &DeliveryResponse{Delivery: d}, nil
	}

	if !isValidTransition(d.Status, req.Status, ActorCourier) {
		return nil, common.NewErrorWithCode(400, "INVALID_TRANSITION", fmt.Sprintf("cannot transition from %s to %s", d.Status, req.Status), nil)
	}

	if requiresReason(req.Status) && (req.Reason == nil || *req.Reason == "") {
		return nil, common.NewBadRequestError("a reason is required for this transition", nil)
	}

	if req.Status == StatusDelivered {
		if err := s.checkProofGating(d, req); err != nil {
			return nil, err
		}
	}

	patch := StatusPatch{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Notes:     req.Notes,
		ActorID:   &courierID,
	}

	now := time.Now()
	switch req.Status {
	case StatusPickedUp:
		patch.ActualPickupAt = &now
	case StatusDelivered:
		patch.ActualDeliveryAt = &now
		patch.DeliveryProofURL = req.PhotoURL
		patch.SignatureURL = req.SignatureURL
		idVerified := req.IDVerified
		patch.IDVerified = &idVerified
	case StatusFailed, StatusReturned:
		patch.FailureReason = req.Reason
		patch.ClearCourier = true
	}

	if err := s.repo.AdvanceStatus(ctx, deliveryID, req.Status, patch); err != nil {
		return nil, err
	}
	d.Status = req.Status

	if req.Status.IsTerminal() && s.ledger != nil {
		if err := s.ledger.ReleaseActiveDelivery(ctx, courierID, req.Status == StatusDelivered, false); err != nil {
			logger.Warn("release active delivery failed", zap.Error(err))
		}
	}

	if req.Status == StatusDelivered {
		if err := s.onDelivered(ctx, d, courierID); err != nil {
			return nil, err
		}
	}

	if (req.Status == StatusFailed || req.Status == StatusReturned) && s.payments != nil {
		// The authorization is voided on failed/returned, accounted as a
		// full refund (§4.1).
		reason := ""
		if req.Reason != nil {
			reason = *req.Reason
		}
		authorized, err := s.payments.AuthorizedAmount(ctx, deliveryID)
		if err != nil {
			logger.Warn("resolve authorized amount failed", zap.Error(err))
		} else if err := s.payments.RefundDelivery(ctx, deliveryID, authorized, reason); err != nil {
			logger.Warn("void authorization failed", zap.Error(err))
		}
	}

	if s.publisher != nil {
		s.publisher.PublishToDelivery(deliveryID, "delivery_status_change", map[string]interface{}{"delivery_id": deliveryID, "status": string(req.Status)})
	}

	return &DeliveryResponse{Delivery: d}, nil
}

func (s *Service) checkProofGating(d *Delivery, req *AdvanceRequest) error {
	if d.RequiresPhotoProof && (req.PhotoURL == nil || *req.PhotoURL == "") {
		return common.NewErrorWithCode(400, "PROOF_REQUIRED", "delivery photo proof is required", nil)
	}
	if d.RequiresSignature && (req.SignatureURL == nil || *req.SignatureURL == "") {
		return common.NewErrorWithCode(400, "PROOF_REQUIRED", "signature is required", nil)
	}
	if d.RequiresIDVerification && !req.IDVerified {
		return common.NewErrorWithCode(400, "PROOF_REQUIRED", "recipient ID verification is required", nil)
	}
	return nil
}

// onDelivered captures payment and credits the courier ledger in response
// to the `delivered` transition (§4.1 invariant 8, "exactly once").
func (s *Service) onDelivered(ctx context.Context, d *Delivery, courierID uuid.UUID) error {
	if s.payments == nil {
		return nil
	}
	captured, commissionRate, err := s.payments.CaptureDelivery(ctx, d.ID)
	if err != nil {
		return common.NewErrorWithCode(402, "PAYMENT_PENDING", "payment capture failed", err)
	}
	earning := roundMoney(captured * commissionRate)
	if s.ledger != nil {
		if err := s.ledger.CreditBalance(ctx, courierID, earning); err != nil {
			logger.Warn("credit courier balance failed", zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, d.SenderID, "status_update", "Delivered", "Your package has been delivered.", &d.ID)
	}
	return nil
}

// ========================================
// PROXIMITY AUTO-TRANSITIONS (system actor, called by LocationIngest)
// ========================================

// TryProximityTransition is called by C10 LocationIngest after persisting a
// LocationSample tied to an active delivery. It auto-advances
// en_route_to_pickup -> approaching_pickup and in_transit ->
// approaching_dropoff per §4.1/§4.3, and refreshes estimated_delivery_at.
func (s *Service) TryProximityTransition(ctx context.Context, deliveryID uuid.UUID, courierLat, courierLng float64, speedMps float64) error {
	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return err
	}

	var newStatus DeliveryStatus
	var remainingMeters float64
	switch d.Status {
	case StatusEnRouteToPickup:
		remainingMeters = geo.HaversineMeters(courierLat, courierLng, d.PickupLatitude, d.PickupLongitude)
		if remainingMeters < pickupProximityMeters {
			newStatus = StatusApproachingPickup
		}
	case StatusInTransit:
		remainingMeters = geo.HaversineMeters(courierLat, courierLng, d.DropoffLatitude, d.DropoffLongitude)
		if remainingMeters < dropoffProximityMeters {
			newStatus = StatusApproachingDropoff
		}
	default:
		return nil
	}

	patch := StatusPatch{System: true}
	eta := s.computeETA(remainingMeters, speedMps)
	patch.EstimatedDeliveryAt = eta

	if newStatus == "" {
		// No status change, but the ETA may still have moved — persist it
		// via a no-op-status AdvanceStatus call into the current status.
		if eta != nil {
			return s.repo.AdvanceStatus(ctx, deliveryID, d.Status, StatusPatch{System: true, EstimatedDeliveryAt: eta})
		}
		return nil
	}

	if err := s.repo.AdvanceStatus(ctx, deliveryID, newStatus, patch); err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.PublishToDelivery(deliveryID, "delivery_status_change", map[string]interface{}{"delivery_id": deliveryID, "status": string(newStatus)})
	}
	return nil
}

func (s *Service) computeETA(remainingMeters, speedMps float64) *time.Time {
	if remainingMeters <= 0 {
		return nil
	}
	v := math.Max(speedMps, speedFloorMps)
	eta := time.Now().Add(time.Duration(remainingMeters/v) * time.Second)
	return &eta
}

// ========================================
// CANCELLATION
// ========================================

// Cancel is sender-initiated only (§4.1). The refund tier is computed from
// the status at the moment of cancellation.
func (s *Service) Cancel(ctx context.Context, deliveryID, senderID uuid.UUID, reason string) (*DeliveryResponse, error) {
	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("delivery not found", err)
	}
	if d.SenderID != senderID {
		return nil, common.NewForbiddenError("not your delivery")
	}
	if !isValidTransition(d.Status, StatusCancelled, ActorSender) {
		return nil, common.NewErrorWithCode(400, "INVALID_TRANSITION", fmt.Sprintf("cannot cancel a delivery in status %s", d.Status), nil)
	}

	var authorized float64
	if s.payments != nil {
		authorized, err = s.payments.AuthorizedAmount(ctx, deliveryID)
		if err != nil {
			logger.Warn("resolve authorized amount failed", zap.Error(err))
			authorized = 0
		}
	}
	refundAmount, _ := refundForStatus(d.Status, authorized)

	if err := s.repo.AdvanceStatus(ctx, deliveryID, StatusCancelled, StatusPatch{
		ActorID:            &senderID,
		Notes:              &reason,
		CancellationReason: &reason,
		ClearCourier:        true,
	}); err != nil {
		return nil, err
	}
	d.Status = StatusCancelled
	d.CancellationReason = &reason

	if s.payments != nil {
		if err := s.payments.RefundDelivery(ctx, deliveryID, refundAmount, reason); err != nil {
			logger.Warn("refund failed", zap.Error(err))
		}
	}

	if d.CourierID != nil && s.ledger != nil {
		if err := s.ledger.ReleaseActiveDelivery(ctx, *d.CourierID, false, true); err != nil {
			logger.Warn("release active delivery on cancel failed", zap.Error(err))
		}
	}

	if s.publisher != nil {
		s.publisher.PublishToDelivery(deliveryID, "delivery_status_change", map[string]interface{}{"delivery_id": deliveryID, "status": string(StatusCancelled)})
	}

	return &DeliveryResponse{Delivery: d}, nil
}

// refundForStatus computes the §4.1 cancellation refund tier. authorized is
// the Payment's authorized amount; the caller resolves it via PaymentAdapter
// before calling (kept as a pure helper for testability).
func refundForStatus(status DeliveryStatus, authorized float64) (refund float64, authorizedOut float64) {
	switch status {
	case StatusPending, StatusSearchingCourier:
		return roundMoney(authorized), authorized
	case StatusCourierAssigned, StatusEnRouteToPickup:
		fee := math.Min(5.0, 0.15*authorized)
		return roundMoney(authorized - fee), authorized
	default:
		return 0, authorized
	}
}

// ========================================
// TIP (credited to courier balance immediately, per §9's resolved
// open question)
// ========================================

func (s *Service) Tip(ctx context.Context, deliveryID, senderID uuid.UUID, amount float64) error {
	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return common.NewNotFoundError("delivery not found", err)
	}
	if d.SenderID != senderID {
		return common.NewForbiddenError("not your delivery")
	}
	if d.Status != StatusDelivered {
		return common.NewBadRequestError("can only tip a delivered delivery", nil)
	}
	if d.CourierID == nil {
		return common.NewBadRequestError("delivery has no assigned courier", nil)
	}
	if s.payments == nil {
		return common.NewServiceUnavailableError("payment adapter unavailable")
	}

	commissionRate, err := s.payments.AddTip(ctx, deliveryID, amount)
	if err != nil {
		return err
	}
	if s.ledger != nil {
		// The full tip, not the commission-adjusted share, credits the
		// courier (§4.1: earning = captured_amount × commission_rate + tip).
		_ = commissionRate
		if err := s.ledger.CreditBalance(ctx, *d.CourierID, roundMoney(amount)); err != nil {
			return err
		}
	}
	return nil
}

// ========================================
// RATING
// ========================================

func (s *Service) RateDelivery(ctx context.Context, deliveryID, raterID uuid.UUID, req *RateDeliveryRequest) error {
	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return common.NewNotFoundError("delivery not found", err)
	}
	if d.Status != StatusDelivered {
		return common.NewBadRequestError("can only rate a delivered delivery", nil)
	}
	raterIsSender := d.SenderID == raterID
	raterIsCourier := d.CourierID != nil && *d.CourierID == raterID
	if !raterIsSender && !raterIsCourier {
		return common.NewForbiddenError("not part of this delivery")
	}
	if raterIsCourier && (req.Timeliness != nil || req.Communication != nil || req.Handling != nil) {
		return common.NewBadRequestError("courier may only submit an overall rating", nil)
	}

	var rateeID uuid.UUID
	if raterIsSender {
		if d.CourierID == nil {
			return common.NewBadRequestError("delivery has no assigned courier to rate", nil)
		}
		rateeID = *d.CourierID
	} else {
		rateeID = d.SenderID
	}

	if s.rater == nil {
		return common.NewServiceUnavailableError("rating store unavailable")
	}
	return s.rater.SubmitRating(ctx, deliveryID, raterID, rateeID, raterIsSender, *req)
}

// ========================================
// ISSUE REPORTING
// ========================================

// ReportIssue opens a DeliveryIssue against a delivery. Either party may
// file one; it does not itself change the delivery's lifecycle status.
func (s *Service) ReportIssue(ctx context.Context, deliveryID, reporterID uuid.UUID, req *ReportIssueRequest) (*DeliveryIssue, error) {
	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("delivery not found", err)
	}
	isParty := d.SenderID == reporterID || (d.CourierID != nil && *d.CourierID == reporterID)
	if !isParty {
		return nil, common.NewForbiddenError("not part of this delivery")
	}

	issue := &DeliveryIssue{
		ID:          uuid.New(),
		DeliveryID:  deliveryID,
		ReportedBy:  reporterID,
		Category:    req.Category,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return nil, common.NewInternalError("failed to record delivery issue", err)
	}
	return issue, nil
}

// ========================================
// LISTING / READ
// ========================================

func (s *Service) GetDelivery(ctx context.Context, callerID, deliveryID uuid.UUID) (*DeliveryResponse, error) {
	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("delivery not found", err)
	}
	if d.SenderID != callerID && (d.CourierID == nil || *d.CourierID != callerID) {
		return nil, common.NewForbiddenError("not authorized to view this delivery")
	}
	events, _ := s.repo.GetEventsByDeliveryID(ctx, deliveryID)
	return &DeliveryResponse{Delivery: d, Events: events}, nil
}

// GetByTrackingToken validates token against the requested deliveryID and
// returns a read-only view for the TrackingToken holder — access codes
// and the verification code are always stripped (§6, §4.9).
func (s *Service) GetByTrackingToken(ctx context.Context, deliveryID uuid.UUID, token string) (*DeliveryResponse, error) {
	if s.tracking == nil {
		return nil, common.NewServiceUnavailableError("tracking unavailable")
	}
	resolvedID, err := s.tracking.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if resolvedID != deliveryID {
		return nil, common.NewForbiddenError("tracking token does not grant access to this delivery")
	}

	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("delivery not found", err)
	}
	events, _ := s.repo.GetEventsByDeliveryID(ctx, deliveryID)
	return &DeliveryResponse{Delivery: d, Events: events}, nil
}

func (s *Service) GetMyDeliveries(ctx context.Context, senderID uuid.UUID, filters *DeliveryListFilters, limit, offset int) ([]*Delivery, int64, error) {
	return s.repo.GetDeliveriesBySender(ctx, senderID, filters, limit, offset)
}

func (s *Service) GetCourierDeliveries(ctx context.Context, courierID uuid.UUID, filters *DeliveryListFilters, limit, offset int) ([]*Delivery, int64, error) {
	return s.repo.GetDeliveriesByCourier(ctx, courierID, filters, limit, offset)
}

func (s *Service) GetActiveDelivery(ctx context.Context, courierID uuid.UUID) (*DeliveryResponse, error) {
	d, err := s.repo.GetActiveDeliveryForCourier(ctx, courierID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, common.NewNotFoundError("no active delivery", nil)
	}
	events, _ := s.repo.GetEventsByDeliveryID(ctx, d.ID)
	return &DeliveryResponse{Delivery: d, Events: events, PickupAccessCode: d.VerificationCode, VerificationCode: d.VerificationCode}, nil
}

func (s *Service) GetStats(ctx context.Context, senderID uuid.UUID) (*DeliveryStats, error) {
	return s.repo.GetSenderStats(ctx, senderID)
}

func (s *Service) GetCourierStats(ctx context.Context, courierID uuid.UUID) (*DeliveryStats, error) {
	return s.repo.GetCourierStats(ctx, courierID)
}

// ========================================
// HELPERS
// ========================================

// generateVerificationCode produces the immutable 4-digit code proof-of
// delivery PIN flows compare against.
func generateVerificationCode() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("%04d", n.Int64())
}
