package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/geo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the Store-backed Repository implementation.
type PostgresRepository struct {
	db *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewRepository wires a PostgresRepository to a pgx connection pool.
func NewRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const courierProfileColumns = `
	user_id, is_available, current_latitude, current_longitude, location_updated_at,
	max_weight_capacity_kg, service_area_radius_miles,
	background_check_status, id_verification_status, active_delivery_id,
	rating, rating_count, account_balance,
	total_deliveries, completed_deliveries, cancelled_deliveries,
	created_at, updated_at`

func scanCourierProfile(row pgx.Row) (*CourierProfile, error) {
	c := &CourierProfile{}
	err := row.Scan(
		&c.UserID, &c.IsAvailable, &c.CurrentLatitude, &c.CurrentLongitude, &c.LocationUpdatedAt,
		&c.MaxWeightCapacityKg, &c.ServiceAreaRadiusMiles,
		&c.BackgroundCheckStatus, &c.IDVerificationStatus, &c.ActiveDeliveryID,
		&c.Rating, &c.RatingCount, &c.AccountBalance,
		&c.TotalDeliveries, &c.CompletedDeliveries, &c.CancelledDeliveries,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCourierProfile loads a single courier's matching-owned state.
func (r *PostgresRepository) GetCourierProfile(ctx context.Context, courierID uuid.UUID) (*CourierProfile, error) {
	row := r.db.QueryRow(ctx, "SELECT "+courierProfileColumns+" FROM courier_profiles WHERE user_id = $1", courierID)
	c, err := scanCourierProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("courier profile %s not found: %w", courierID, err)
		}
		return nil, fmt.Errorf("get courier profile: %w", err)
	}
	return c, nil
}

// FindEligibleCandidates applies §4.2 rules 1 (available, no active
// delivery), 2 (weight capacity), 4 (background/ID verification), and 5
// (min rating, computed live from the ratings table) in SQL, with an
// H3 k-ring prefilter around the pickup so the scan never touches couriers
// whole regions away. Rule 3 (per-courier service-area radius) is applied
// by the caller since it varies per row.
func (r *PostgresRepository) FindEligibleCandidates(ctx context.Context, pickupLat, pickupLng, weightKg, minRating float64) ([]*CourierProfile, error) {
	searchCells := geo.SearchKRing(pickupLat, pickupLng)
	rows, err := r.db.Query(ctx, `
		SELECT cp.user_id, cp.is_available, cp.current_latitude, cp.current_longitude, cp.location_updated_at,
			cp.max_weight_capacity_kg, cp.service_area_radius_miles,
			cp.background_check_status, cp.id_verification_status, cp.active_delivery_id,
			COALESCE(AVG(r.overall), 5.0) AS rating,
			COUNT(r.id) AS rating_count,
			cp.account_balance, cp.total_deliveries, cp.completed_deliveries, cp.cancelled_deliveries,
			cp.created_at, cp.updated_at
		FROM courier_profiles cp
		LEFT JOIN ratings r ON r.ratee_id = cp.user_id
		WHERE cp.is_available = true
			AND cp.active_delivery_id IS NULL
			AND cp.max_weight_capacity_kg >= $1
			AND cp.background_check_status = $2
			AND cp.id_verification_status = $3
			AND cp.current_latitude IS NOT NULL
			AND cp.current_longitude IS NOT NULL
			AND cp.location_h3_cell = ANY($5)
		GROUP BY cp.user_id
		HAVING COALESCE(AVG(r.overall), 5.0) >= $4`,
		weightKg, BackgroundCheckApproved, IDVerificationVerified, minRating, searchCells,
	)
	if err != nil {
		return nil, fmt.Errorf("find eligible candidates: %w", err)
	}
	defer rows.Close()

	var out []*CourierProfile
	for rows.Next() {
		c, err := scanCourierProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// SetAvailability toggles a courier's availability, recording position
// when one is supplied; without one the stored position is kept.
func (r *PostgresRepository) SetAvailability(ctx context.Context, courierID uuid.UUID, available bool, lat, lng *float64) error {
	var cell *string
	if lat != nil && lng != nil {
		c := geo.SearchCell(*lat, *lng)
		cell = &c
	}
	_, err := r.db.Exec(ctx, `
		UPDATE courier_profiles
		SET is_available = $2, current_latitude = COALESCE($3, current_latitude),
			current_longitude = COALESCE($4, current_longitude),
			location_h3_cell = COALESCE($5, location_h3_cell),
			location_updated_at = CASE WHEN $3 IS NOT NULL THEN now() ELSE location_updated_at END,
			updated_at = now()
		WHERE user_id = $1`,
		courierID, available, lat, lng, cell,
	)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	return nil
}

// UpdateLocation persists a courier's current position.
func (r *PostgresRepository) UpdateLocation(ctx context.Context, courierID uuid.UUID, lat, lng float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE courier_profiles
		SET current_latitude = $2, current_longitude = $3, location_h3_cell = $4,
			location_updated_at = now(), updated_at = now()
		WHERE user_id = $1`,
		courierID, lat, lng, geo.SearchCell(lat, lng),
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// CreateLocationSample appends an immutable LocationSample row, the raw
// feed LocationIngest persists before deriving anything from it.
func (r *PostgresRepository) CreateLocationSample(ctx context.Context, courierID uuid.UUID, lat, lng float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO location_samples (id, courier_id, latitude, longitude, recorded_at)
		VALUES ($1, $2, $3, $4, now())`,
		uuid.New(), courierID, lat, lng,
	)
	if err != nil {
		return fmt.Errorf("insert location sample: %w", err)
	}
	return nil
}

// ReleaseActiveDelivery clears a courier's active delivery and bumps their
// delivery counters once it reaches a terminal status.
func (r *PostgresRepository) ReleaseActiveDelivery(ctx context.Context, courierID uuid.UUID, completed, cancelled bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE courier_profiles
		SET active_delivery_id = NULL,
			total_deliveries = total_deliveries + 1,
			completed_deliveries = completed_deliveries + CASE WHEN $2 THEN 1 ELSE 0 END,
			cancelled_deliveries = cancelled_deliveries + CASE WHEN $3 THEN 1 ELSE 0 END,
			updated_at = now()
		WHERE user_id = $1`,
		courierID, completed, cancelled,
	)
	if err != nil {
		return fmt.Errorf("release active delivery: %w", err)
	}
	return nil
}

// CreditBalance adds earning to a courier's account balance. It does not
// itself enforce the "exactly once" invariant — the caller only reaches
// this from the delivered transition.
func (r *PostgresRepository) CreditBalance(ctx context.Context, courierID uuid.UUID, amount float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE courier_profiles SET account_balance = account_balance + $2, updated_at = now() WHERE user_id = $1`,
		courierID, amount,
	)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

// DebitBalance reduces a courier's account balance by amount, used when a
// payout is issued against it (§6 invariant 5).
func (r *PostgresRepository) DebitBalance(ctx context.Context, courierID uuid.UUID, amount float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE courier_profiles SET account_balance = account_balance - $2, updated_at = now() WHERE user_id = $1`,
		courierID, amount,
	)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	return nil
}
