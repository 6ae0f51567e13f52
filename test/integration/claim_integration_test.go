//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/test/helpers"
)

func seedUser(t *testing.T, pool *pgxpool.Pool, role string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, role) VALUES ($1, $2, $3)`,
		id, fmt.Sprintf("%s-%s@example.com", role, id.String()[:8]), role,
	)
	require.NoError(t, err)
	return id
}

func seedCourier(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := seedUser(t, pool, "courier")
	_, err := pool.Exec(context.Background(), `
		INSERT INTO courier_profiles (user_id, is_available, background_check_status, id_verification_status)
		VALUES ($1, true, 'approved', 'verified')`, id,
	)
	require.NoError(t, err)
	return id
}

func seedPackageType(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO package_types (id, name, base_price, max_weight_kg)
		VALUES ($1, 'small box', 9.99, 10)`, id,
	)
	require.NoError(t, err)
	return id
}

func seedSearchingDelivery(t *testing.T, pool *pgxpool.Pool, repo *delivery.Repository, senderID, pkgID uuid.UUID) uuid.UUID {
	t.Helper()
	d := &delivery.Delivery{
		ID:                 uuid.New(),
		SenderID:           senderID,
		PackageTypeID:      pkgID,
		PickupAddress:      "100 Market St",
		PickupLatitude:     37.7897,
		PickupLongitude:    -122.3972,
		DropoffAddress:     "500 Brannan St",
		DropoffLatitude:    37.7663,
		DropoffLongitude:   -122.4005,
		RecipientName:      "Pat",
		RecipientPhone:     "+14155550100",
		Status:             delivery.StatusSearchingCourier,
		CurrentStatusSince: time.Now(),
		VerificationCode:   "1234",
		Priority:           delivery.PriorityStandard,
		PackageDescription: "documents",
		WeightKg:           3.5,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	require.NoError(t, repo.CreateDelivery(context.Background(), d))
	return d.ID
}

func activeDeliveryOf(t *testing.T, pool *pgxpool.Pool, courierID uuid.UUID) *uuid.UUID {
	t.Helper()
	var active *uuid.UUID
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT active_delivery_id FROM courier_profiles WHERE user_id = $1`, courierID,
	).Scan(&active))
	return active
}

// TestClaim_ConcurrentClaimsExactlyOneWins drives Service.Claim end to end
// against a real database: of N concurrent couriers, exactly one binds the
// delivery, the rest observe a conflict, and exactly one courier_assigned
// event is written.
func TestClaim_ConcurrentClaimsExactlyOneWins(t *testing.T) {
	pool := helpers.SetupTestDatabase(t)
	repo := delivery.NewRepository(pool)
	svc := delivery.NewService(repo, nil, nil, nil, nil, nil)

	senderID := seedUser(t, pool, "sender")
	pkgID := seedPackageType(t, pool)
	deliveryID := seedSearchingDelivery(t, pool, repo, senderID, pkgID)

	const couriers = 8
	courierIDs := make([]uuid.UUID, couriers)
	for i := range courierIDs {
		courierIDs[i] = seedCourier(t, pool)
	}

	var wg sync.WaitGroup
	errs := make([]error, couriers)
	for i, courierID := range courierIDs {
		wg.Add(1)
		go func(i int, courierID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.Claim(context.Background(), deliveryID, courierID)
		}(i, courierID)
	}
	wg.Wait()

	winners := 0
	var winner uuid.UUID
	for i, err := range errs {
		if err == nil {
			winners++
			winner = courierIDs[i]
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent claim must win")

	d, err := repo.GetDeliveryByID(context.Background(), deliveryID)
	require.NoError(t, err)
	require.Equal(t, delivery.StatusCourierAssigned, d.Status)
	require.NotNil(t, d.CourierID)
	require.Equal(t, winner, *d.CourierID)

	// Invariant: the winner's active_delivery_id is bound, every loser's
	// stays null.
	for _, courierID := range courierIDs {
		active := activeDeliveryOf(t, pool, courierID)
		if courierID == winner {
			require.NotNil(t, active)
			require.Equal(t, deliveryID, *active)
		} else {
			require.Nil(t, active)
		}
	}

	// Exactly one courier_assigned event, on top of the creation event.
	events, err := repo.GetEventsByDeliveryID(context.Background(), deliveryID)
	require.NoError(t, err)
	assigned := 0
	for _, e := range events {
		if e.Status == delivery.StatusCourierAssigned {
			assigned++
		}
	}
	require.Equal(t, 1, assigned, "a claim must write exactly one courier_assigned event")
	require.Equal(t, delivery.StatusCourierAssigned, events[len(events)-1].Status)
}

// TestClaim_BusyCourierIsRefused verifies invariant 1: a courier already
// bound to a non-terminal delivery cannot claim a second one, even across
// two different deliveries.
func TestClaim_BusyCourierIsRefused(t *testing.T) {
	pool := helpers.SetupTestDatabase(t)
	repo := delivery.NewRepository(pool)
	svc := delivery.NewService(repo, nil, nil, nil, nil, nil)

	senderID := seedUser(t, pool, "sender")
	pkgID := seedPackageType(t, pool)
	courierID := seedCourier(t, pool)

	first := seedSearchingDelivery(t, pool, repo, senderID, pkgID)
	second := seedSearchingDelivery(t, pool, repo, senderID, pkgID)

	_, err := svc.Claim(context.Background(), first, courierID)
	require.NoError(t, err)

	_, err = svc.Claim(context.Background(), second, courierID)
	require.Error(t, err, "a courier with an active delivery must not win a second claim")

	require.Nil(t, func() *uuid.UUID {
		d, err := repo.GetDeliveryByID(context.Background(), second)
		require.NoError(t, err)
		return d.CourierID
	}())
}

// TestCreateDelivery_WritesInitialPendingEvent verifies the event log
// starts at the delivery's very first status.
func TestCreateDelivery_WritesInitialPendingEvent(t *testing.T) {
	pool := helpers.SetupTestDatabase(t)
	repo := delivery.NewRepository(pool)

	senderID := seedUser(t, pool, "sender")
	pkgID := seedPackageType(t, pool)

	d := &delivery.Delivery{
		ID:                 uuid.New(),
		SenderID:           senderID,
		PackageTypeID:      pkgID,
		PickupAddress:      "100 Market St",
		PickupLatitude:     37.7897,
		PickupLongitude:    -122.3972,
		DropoffAddress:     "500 Brannan St",
		DropoffLatitude:    37.7663,
		DropoffLongitude:   -122.4005,
		RecipientName:      "Pat",
		RecipientPhone:     "+14155550100",
		Status:             delivery.StatusPending,
		CurrentStatusSince: time.Now(),
		VerificationCode:   "1234",
		Priority:           delivery.PriorityStandard,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	require.NoError(t, repo.CreateDelivery(context.Background(), d))

	events, err := repo.GetEventsByDeliveryID(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, delivery.StatusPending, events[0].Status)
	require.NotNil(t, events[0].ActorID)
	require.Equal(t, senderID, *events[0].ActorID)
}
