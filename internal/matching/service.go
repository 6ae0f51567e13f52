package matching

import (
	"context"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/async"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/geo"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// locationStaleAfter bounds how old a courier's last location fix may be
// before IngestLocation refuses to derive a speed from it.
const locationStaleAfter = 5 * time.Minute

// Service is C9 Dispatcher and the system of record for CourierProfile
// availability, position, and balance (CourierLedger).
type Service struct {
	repo       Repository
	deliveries DeliveryLookup
	proximity  ProximityTransitioner
	publisher  delivery.EventPublisher
	settings   SettingsProvider
}

var (
	_ delivery.Dispatcher    = (*Service)(nil)
	_ delivery.CourierLedger = (*Service)(nil)
)

// NewService wires Service to its collaborators. proximity is nil until
// SetProximityTransitioner runs, since LifecycleEngine and Dispatcher are
// constructed as a cycle in main.go.
func NewService(repo Repository, deliveries DeliveryLookup, publisher delivery.EventPublisher, settings SettingsProvider) *Service {
	return &Service{repo: repo, deliveries: deliveries, publisher: publisher, settings: settings}
}

// SetProximityTransitioner completes the Dispatcher/LifecycleEngine wiring
// cycle after both sides exist.
func (s *Service) SetProximityTransitioner(pt ProximityTransitioner) {
	s.proximity = pt
}

func (s *Service) searchConfig(ctx context.Context) SearchConfig {
	cfg := DefaultSearchConfig()
	if s.settings == nil {
		return cfg
	}
	cfg.MinCourierRating = s.settings.GetFloat(ctx, "min_courier_rating", cfg.MinCourierRating)
	cfg.MaxSearchMinutes = s.settings.GetFloat(ctx, "max_search_time", cfg.MaxSearchMinutes)
	return cfg
}

func (s *Service) commissionRate(ctx context.Context) float64 {
	if s.settings == nil {
		return 0.8
	}
	return s.settings.GetFloat(ctx, "courier_commission_rate", 0.8)
}

// ========================================
// C9 DISPATCHER
// ========================================

// Dispatch implements delivery.Dispatcher. It runs the §4.2 eligibility
// search and fans an Offer out to every eligible courier simultaneously,
// then arms the max_search_time timeout that pushes search_expired.
func (s *Service) Dispatch(ctx context.Context, deliveryID uuid.UUID) {
	d, err := s.deliveries.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		logger.Error("dispatch: load delivery failed", zap.Error(err))
		return
	}
	if d.Status != delivery.StatusSearchingCourier {
		return
	}

	cfg := s.searchConfig(ctx)
	candidates, err := s.repo.FindEligibleCandidates(ctx, d.PickupLatitude, d.PickupLongitude, d.WeightKg, cfg.MinCourierRating)
	if err != nil {
		logger.Error("dispatch: find candidates failed", zap.Error(err))
		return
	}
	if len(candidates) == 0 {
		logger.Warn("dispatch: no eligible couriers", zap.String("delivery_id", deliveryID.String()))
	}

	offerExpiresAt := time.Now().Add(time.Duration(cfg.OfferWindowMinutes) * time.Minute)
	if d.ScheduledPickupAt != nil && d.ScheduledPickupAt.Before(offerExpiresAt) {
		offerExpiresAt = *d.ScheduledPickupAt
	}
	commission := s.commissionRate(ctx)

	for _, c := range candidates {
		if c.CurrentLatitude == nil || c.CurrentLongitude == nil {
			continue
		}
		distanceMiles := geo.HaversineMiles(*c.CurrentLatitude, *c.CurrentLongitude, d.PickupLatitude, d.PickupLongitude)
		if distanceMiles > c.ServiceAreaRadiusMiles {
			continue
		}

		offer := Offer{
			DeliveryID:            deliveryID,
			PickupAddress:         d.PickupAddress,
			PickupLatitude:        d.PickupLatitude,
			PickupLongitude:       d.PickupLongitude,
			DropoffAddress:        d.DropoffAddress,
			PackageDescription:    d.PackageDescription,
			WeightKg:              d.WeightKg,
			Priority:              string(d.Priority),
			DistanceToPickupMiles: distanceMiles,
			EstimatedEarnings:     d.EstimatedTotal * commission,
			ExpiresAt:             offerExpiresAt,
		}
		if s.publisher != nil {
			s.publisher.PublishToUser(c.UserID, "delivery_request", offer)
		}
	}

	async.Go(ctx, "dispatch-search-timeout", func(taskCtx context.Context) {
		s.watchSearchTimeout(taskCtx, deliveryID, time.Duration(cfg.MaxSearchMinutes)*time.Minute)
	})
}

// watchSearchTimeout runs on its own task per dispatch; if the
// delivery is still searching_courier once max_search_time elapses, it
// publishes search_expired so the sender can be notified. LifecycleEngine
// itself doesn't transition the delivery out of searching_courier here —
// a later claim still succeeds if one arrives after the notice.
func (s *Service) watchSearchTimeout(ctx context.Context, deliveryID uuid.UUID, wait time.Duration) {
	time.Sleep(wait)
	d, err := s.deliveries.GetDeliveryByID(ctx, deliveryID)
	if err != nil || d.Status != delivery.StatusSearchingCourier {
		return
	}
	if s.publisher != nil {
		s.publisher.PublishToDelivery(deliveryID, "search_expired", map[string]interface{}{"delivery_id": deliveryID})
	}
}

// ========================================
// COURIER LEDGER
// ========================================

// ReleaseActiveDelivery implements delivery.CourierLedger. The bind side
// has no counterpart here: LifecycleEngine's claim transaction writes
// active_delivery_id itself so the one-active-delivery check and the bind
// commit atomically.
func (s *Service) ReleaseActiveDelivery(ctx context.Context, courierID uuid.UUID, completedOK, cancelled bool) error {
	return s.repo.ReleaseActiveDelivery(ctx, courierID, completedOK, cancelled)
}

// CreditBalance implements delivery.CourierLedger. Invariant 8 (exactly
// once per delivered delivery) is the caller's responsibility: LifecycleEngine
// only calls this from the delivered transition's onDelivered step.
func (s *Service) CreditBalance(ctx context.Context, courierID uuid.UUID, amount float64) error {
	return s.repo.CreditBalance(ctx, courierID, amount)
}

// GetBalance implements earnings.BalanceProvider: the current
// account_balance a courier's earnings summary and payout requests read
// against (§6 invariant 5).
func (s *Service) GetBalance(ctx context.Context, courierID uuid.UUID) (float64, error) {
	profile, err := s.repo.GetCourierProfile(ctx, courierID)
	if err != nil {
		return 0, err
	}
	return profile.AccountBalance, nil
}

// DebitBalance implements earnings.BalanceProvider: reduces the courier's
// balance by a completed payout amount.
func (s *Service) DebitBalance(ctx context.Context, courierID uuid.UUID, amount float64) error {
	return s.repo.DebitBalance(ctx, courierID, amount)
}

// GetEligibleOffers implements GET /courier/delivery-requests: the pull
// view of every currently-searching delivery this courier could claim,
// mirroring Dispatch's own eligibility check from the courier's side.
func (s *Service) GetEligibleOffers(ctx context.Context, courierID uuid.UUID) ([]Offer, error) {
	profile, err := s.repo.GetCourierProfile(ctx, courierID)
	if err != nil {
		return nil, err
	}
	if !profile.IsAvailable || profile.ActiveDeliveryID != nil ||
		profile.BackgroundCheckStatus != BackgroundCheckApproved ||
		profile.IDVerificationStatus != IDVerificationVerified ||
		profile.CurrentLatitude == nil || profile.CurrentLongitude == nil {
		return nil, nil
	}

	cfg := s.searchConfig(ctx)
	if profile.Rating < cfg.MinCourierRating {
		return nil, nil
	}

	deliveries, err := s.deliveries.ListSearchingCourier(ctx)
	if err != nil {
		return nil, err
	}
	commission := s.commissionRate(ctx)

	offers := make([]Offer, 0, len(deliveries))
	for _, d := range deliveries {
		if d.WeightKg > profile.MaxWeightCapacityKg {
			continue
		}
		distanceMiles := geo.HaversineMiles(*profile.CurrentLatitude, *profile.CurrentLongitude, d.PickupLatitude, d.PickupLongitude)
		if distanceMiles > profile.ServiceAreaRadiusMiles {
			continue
		}
		expiresAt := d.CreatedAt.Add(time.Duration(cfg.OfferWindowMinutes) * time.Minute)
		if d.ScheduledPickupAt != nil && d.ScheduledPickupAt.Before(expiresAt) {
			expiresAt = *d.ScheduledPickupAt
		}
		offers = append(offers, Offer{
			DeliveryID:            d.ID,
			PickupAddress:         d.PickupAddress,
			PickupLatitude:        d.PickupLatitude,
			PickupLongitude:       d.PickupLongitude,
			DropoffAddress:        d.DropoffAddress,
			PackageDescription:    d.PackageDescription,
			WeightKg:              d.WeightKg,
			Priority:              string(d.Priority),
			DistanceToPickupMiles: distanceMiles,
			EstimatedEarnings:     d.EstimatedTotal * commission,
			ExpiresAt:             expiresAt,
		})
	}
	return offers, nil
}

// ========================================
// COURIER-FACING OPERATIONS
// ========================================

// SetAvailability toggles a courier's availability for PUT
// /courier/availability, recording their position when going online.
func (s *Service) SetAvailability(ctx context.Context, courierID uuid.UUID, available bool, lat, lng *float64) error {
	return s.repo.SetAvailability(ctx, courierID, available, lat, lng)
}

// GetProfile returns a courier's matching-owned profile fields.
func (s *Service) GetProfile(ctx context.Context, courierID uuid.UUID) (*CourierProfile, error) {
	return s.repo.GetCourierProfile(ctx, courierID)
}

// ========================================
// C10 LOCATION INGEST
// ========================================

// IngestLocation implements C10 LocationIngest for a location sample from a
// courier: it persists the sample, updates CourierProfile position, and —
// if the courier has an active delivery — asks LifecycleEngine to attempt
// the §4.1/§4.3 proximity auto-transitions and publishes the live update.
// Samples carrying a recorded_at older than the courier's last persisted
// fix are discarded (late or reordered client batches).
func (s *Service) IngestLocation(ctx context.Context, courierID uuid.UUID, lat, lng float64, recordedAt *time.Time) error {
	profile, err := s.repo.GetCourierProfile(ctx, courierID)
	if err != nil {
		return err
	}

	if recordedAt != nil && profile.LocationUpdatedAt != nil && recordedAt.Before(*profile.LocationUpdatedAt) {
		return nil
	}

	speedMps := estimateSpeedMps(profile, lat, lng)

	if err := s.repo.CreateLocationSample(ctx, courierID, lat, lng); err != nil {
		return err
	}
	if err := s.repo.UpdateLocation(ctx, courierID, lat, lng); err != nil {
		return err
	}

	if profile.ActiveDeliveryID != nil && s.proximity != nil {
		if err := s.proximity.TryProximityTransition(ctx, *profile.ActiveDeliveryID, lat, lng, speedMps); err != nil {
			logger.Warn("proximity transition failed", zap.Error(err))
		}
		if s.publisher != nil {
			s.publisher.PublishToDelivery(*profile.ActiveDeliveryID, "track_delivery_location", map[string]interface{}{
				"delivery_id": *profile.ActiveDeliveryID,
				"latitude":    lat,
				"longitude":   lng,
			})
		}
	}

	return nil
}

// estimateSpeedMps derives a rough ground speed from the courier's last
// known fix, falling back to the §4.1 speed floor when the prior fix is
// missing or too stale to trust.
func estimateSpeedMps(profile *CourierProfile, lat, lng float64) float64 {
	const speedFloorMps = 8.0
	if profile.CurrentLatitude == nil || profile.CurrentLongitude == nil || profile.LocationUpdatedAt == nil {
		return speedFloorMps
	}
	elapsed := time.Since(*profile.LocationUpdatedAt)
	if elapsed <= 0 || elapsed > locationStaleAfter {
		return speedFloorMps
	}
	distanceMeters := geo.HaversineMeters(*profile.CurrentLatitude, *profile.CurrentLongitude, lat, lng)
	speed := distanceMeters / elapsed.Seconds()
	if speed < speedFloorMps {
		return speedFloorMps
	}
	return speed
}
