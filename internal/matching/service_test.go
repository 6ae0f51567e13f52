package matching

import (
	"context"
	"testing"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	profiles map[uuid.UUID]*CourierProfile
	released map[uuid.UUID]bool
	credited map[uuid.UUID]float64
	eligible []*CourierProfile
	samples  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: map[uuid.UUID]*CourierProfile{},
		released: map[uuid.UUID]bool{},
		credited: map[uuid.UUID]float64{},
	}
}

func (f *fakeRepo) GetCourierProfile(ctx context.Context, courierID uuid.UUID) (*CourierProfile, error) {
	return f.profiles[courierID], nil
}

func (f *fakeRepo) FindEligibleCandidates(ctx context.Context, pickupLat, pickupLng, weightKg, minRating float64) ([]*CourierProfile, error) {
	return f.eligible, nil
}

func (f *fakeRepo) SetAvailability(ctx context.Context, courierID uuid.UUID, available bool, lat, lng *float64) error {
	return nil
}

func (f *fakeRepo) UpdateLocation(ctx context.Context, courierID uuid.UUID, lat, lng float64) error {
	return nil
}

func (f *fakeRepo) CreateLocationSample(ctx context.Context, courierID uuid.UUID, lat, lng float64) error {
	f.samples++
	return nil
}

func (f *fakeRepo) ReleaseActiveDelivery(ctx context.Context, courierID uuid.UUID, completed, cancelled bool) error {
	f.released[courierID] = true
	return nil
}

func (f *fakeRepo) CreditBalance(ctx context.Context, courierID uuid.UUID, amount float64) error {
	f.credited[courierID] += amount
	return nil
}

func (f *fakeRepo) DebitBalance(ctx context.Context, courierID uuid.UUID, amount float64) error {
	f.credited[courierID] -= amount
	return nil
}

type fakeLookup struct {
	deliveries map[uuid.UUID]*delivery.Delivery
}

func (f *fakeLookup) GetDeliveryByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error) {
	return f.deliveries[id], nil
}

func (f *fakeLookup) ListSearchingCourier(ctx context.Context) ([]*delivery.Delivery, error) {
	var out []*delivery.Delivery
	for _, d := range f.deliveries {
		if d.Status == delivery.StatusSearchingCourier {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakePublisher struct {
	userEvents []string
}

func (f *fakePublisher) PublishToUser(userID uuid.UUID, eventType string, data interface{}) {
	f.userEvents = append(f.userEvents, eventType)
}

func (f *fakePublisher) PublishToDelivery(deliveryID uuid.UUID, eventType string, data interface{}) {}

func TestDispatch_SkipsNonSearchingDelivery(t *testing.T) {
	deliveryID := uuid.New()
	lookup := &fakeLookup{deliveries: map[uuid.UUID]*delivery.Delivery{
		deliveryID: {ID: deliveryID, Status: delivery.StatusCourierAssigned},
	}}
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, lookup, pub, nil)

	svc.Dispatch(context.Background(), deliveryID)
	assert.Empty(t, pub.userEvents)
}

func TestDispatch_FiltersByServiceAreaRadius(t *testing.T) {
	deliveryID := uuid.New()
	lookup := &fakeLookup{deliveries: map[uuid.UUID]*delivery.Delivery{
		deliveryID: {
			ID: deliveryID, Status: delivery.StatusSearchingCourier,
			PickupLatitude: 37.7749, PickupLongitude: -122.4194,
			WeightKg: 2, EstimatedTotal: 20,
		},
	}}
	near := 37.7750
	far := 40.0
	repo := newFakeRepo()
	repo.eligible = []*CourierProfile{
		{UserID: uuid.New(), CurrentLatitude: &near, CurrentLongitude: ptr(-122.4194), ServiceAreaRadiusMiles: 10},
		{UserID: uuid.New(), CurrentLatitude: &far, CurrentLongitude: ptr(-122.4194), ServiceAreaRadiusMiles: 10},
	}
	pub := &fakePublisher{}
	svc := NewService(repo, lookup, pub, nil)

	svc.Dispatch(context.Background(), deliveryID)
	assert.Len(t, pub.userEvents, 1)
	assert.Equal(t, "delivery_request", pub.userEvents[0])
}

func ptr(f float64) *float64 { return &f }

func TestCourierLedger_ReleaseAndCredit(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeLookup{deliveries: map[uuid.UUID]*delivery.Delivery{}}, nil, nil)
	courierID := uuid.New()

	require.NoError(t, svc.CreditBalance(context.Background(), courierID, 10.26))
	assert.Equal(t, 10.26, repo.credited[courierID])

	require.NoError(t, svc.ReleaseActiveDelivery(context.Background(), courierID, true, false))
	assert.True(t, repo.released[courierID])
}

func TestGetEligibleOffers_UnavailableCourierSeesNothing(t *testing.T) {
	courierID := uuid.New()
	repo := newFakeRepo()
	repo.profiles[courierID] = &CourierProfile{UserID: courierID, IsAvailable: false}
	svc := NewService(repo, &fakeLookup{deliveries: map[uuid.UUID]*delivery.Delivery{}}, nil, nil)

	offers, err := svc.GetEligibleOffers(context.Background(), courierID)
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestGetEligibleOffers_MatchesByWeightAndRadius(t *testing.T) {
	courierID := uuid.New()
	lat, lng := 37.7749, -122.4194
	repo := newFakeRepo()
	repo.profiles[courierID] = &CourierProfile{
		UserID: courierID, IsAvailable: true,
		BackgroundCheckStatus: BackgroundCheckApproved, IDVerificationStatus: IDVerificationVerified,
		CurrentLatitude: &lat, CurrentLongitude: &lng,
		MaxWeightCapacityKg: 10, ServiceAreaRadiusMiles: 5, Rating: 5,
	}
	deliveryID := uuid.New()
	lookup := &fakeLookup{deliveries: map[uuid.UUID]*delivery.Delivery{
		deliveryID: {
			ID: deliveryID, Status: delivery.StatusSearchingCourier,
			PickupLatitude: lat, PickupLongitude: lng, WeightKg: 3,
			EstimatedTotal: 12, CreatedAt: time.Now(),
		},
	}}
	svc := NewService(repo, lookup, nil, nil)

	offers, err := svc.GetEligibleOffers(context.Background(), courierID)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, deliveryID, offers[0].DeliveryID)
}

func TestIngestLocation_DiscardsStaleSample(t *testing.T) {
	courierID := uuid.New()
	lat, lng := 37.7749, -122.4194
	lastFix := time.Now().Add(-time.Minute)
	repo := newFakeRepo()
	repo.profiles[courierID] = &CourierProfile{
		UserID: courierID, CurrentLatitude: &lat, CurrentLongitude: &lng,
		LocationUpdatedAt: &lastFix,
	}
	svc := NewService(repo, &fakeLookup{deliveries: map[uuid.UUID]*delivery.Delivery{}}, nil, nil)

	stale := lastFix.Add(-time.Minute)
	require.NoError(t, svc.IngestLocation(context.Background(), courierID, lat, lng, &stale))
	assert.Zero(t, repo.samples)

	fresh := time.Now()
	require.NoError(t, svc.IngestLocation(context.Background(), courierID, lat, lng, &fresh))
	assert.Equal(t, 1, repo.samples)
}
