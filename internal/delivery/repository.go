package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres-backed RepositoryInterface implementation.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository wires a Repository to a pgx connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const deliveryColumns = `
	id, sender_id, courier_id, package_type_id,
	pickup_address, pickup_latitude, pickup_longitude, pickup_contact, pickup_phone,
	dropoff_address, dropoff_latitude, dropoff_longitude, recipient_name, recipient_phone,
	status, current_status_since,
	scheduled_pickup_at, actual_pickup_at, actual_delivery_at, estimated_delivery_at,
	package_description, weight_kg, is_fragile,
	requires_photo_proof, requires_signature, requires_id_verification,
	verification_code, special_instructions, priority,
	distance_miles, estimated_duration_minutes, estimated_total,
	cancellation_reason, failure_reason,
	package_photo_url, delivery_proof_url, signature_url, id_verified,
	created_at, updated_at`

func scanDelivery(row pgx.Row) (*Delivery, error) {
	d := &Delivery{}
	err := row.Scan(
		&d.ID, &d.SenderID, &d.CourierID, &d.PackageTypeID,
		&d.PickupAddress, &d.PickupLatitude, &d.PickupLongitude, &d.PickupContact, &d.PickupPhone,
		&d.DropoffAddress, &d.DropoffLatitude, &d.DropoffLongitude, &d.RecipientName, &d.RecipientPhone,
		&d.Status, &d.CurrentStatusSince,
		&d.ScheduledPickupAt, &d.ActualPickupAt, &d.ActualDeliveryAt, &d.EstimatedDeliveryAt,
		&d.PackageDescription, &d.WeightKg, &d.IsFragile,
		&d.RequiresPhotoProof, &d.RequiresSignature, &d.RequiresIDVerification,
		&d.VerificationCode, &d.SpecialInstructions, &d.Priority,
		&d.DistanceMiles, &d.EstimatedDurationMinutes, &d.EstimatedTotal,
		&d.CancellationReason, &d.FailureReason,
		&d.PackagePhotoURL, &d.DeliveryProofURL, &d.SignatureURL, &d.IDVerified,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// CreateDelivery inserts the pending Delivery row created by Service,
// together with its initial `pending` DeliveryStatusEvent — the event log
// records every status the delivery has ever held, the first included
// (invariant 3).
func (r *Repository) CreateDelivery(ctx context.Context, d *Delivery) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO deliveries (
			id, sender_id, package_type_id,
			pickup_address, pickup_latitude, pickup_longitude, pickup_contact, pickup_phone,
			dropoff_address, dropoff_latitude, dropoff_longitude, recipient_name, recipient_phone,
			status, current_status_since,
			scheduled_pickup_at,
			package_description, weight_kg, is_fragile,
			requires_photo_proof, requires_signature, requires_id_verification,
			verification_code, special_instructions, priority,
			distance_miles, estimated_duration_minutes, estimated_total,
			created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15,
			$16,
			$17, $18, $19,
			$20, $21, $22,
			$23, $24, $25,
			$26, $27, $28,
			$29, $30
		)`,
		d.ID, d.SenderID, d.PackageTypeID,
		d.PickupAddress, d.PickupLatitude, d.PickupLongitude, d.PickupContact, d.PickupPhone,
		d.DropoffAddress, d.DropoffLatitude, d.DropoffLongitude, d.RecipientName, d.RecipientPhone,
		d.Status, d.CurrentStatusSince,
		d.ScheduledPickupAt,
		d.PackageDescription, d.WeightKg, d.IsFragile,
		d.RequiresPhotoProof, d.RequiresSignature, d.RequiresIDVerification,
		d.VerificationCode, d.SpecialInstructions, d.Priority,
		d.DistanceMiles, d.EstimatedDurationMinutes, d.EstimatedTotal,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO delivery_status_events (id, delivery_id, status, occurred_at, system, actor_id)
		VALUES ($1, $2, $3, now(), false, $4)`,
		uuid.New(), d.ID, d.Status, d.SenderID,
	); err != nil {
		return fmt.Errorf("insert creation event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create delivery: %w", err)
	}
	return nil
}

// GetDeliveryByID retrieves a single delivery row.
func (r *Repository) GetDeliveryByID(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	row := r.db.QueryRow(ctx, "SELECT "+deliveryColumns+" FROM deliveries WHERE id = $1", id)
	d, err := scanDelivery(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("delivery %s not found: %w", id, err)
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return d, nil
}

// GetPackageType loads the pricing reference row PricingEngine needs.
func (r *Repository) GetPackageType(ctx context.Context, id uuid.UUID) (*PackageType, error) {
	pkg := &PackageType{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, base_price, max_weight_kg FROM package_types WHERE id = $1`, id,
	).Scan(&pkg.ID, &pkg.Name, &pkg.BasePrice, &pkg.MaxWeightKg)
	if err != nil {
		return nil, fmt.Errorf("get package type: %w", err)
	}
	return pkg, nil
}

// ClaimDelivery is the §4.2 conditional update: it only succeeds if the
// delivery is still searching_courier with no courier bound AND the
// claimant's active_delivery_id is still null. Both conditional writes and
// the courier_assigned event commit in one transaction, so exactly one
// concurrent claim wins — including two claims by the same courier for
// different deliveries, which race on the active_delivery_id bind.
func (r *Repository) ClaimDelivery(ctx context.Context, deliveryID, courierID uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	bind, err := tx.Exec(ctx, `
		UPDATE courier_profiles
		SET active_delivery_id = $2, updated_at = now()
		WHERE user_id = $1 AND active_delivery_id IS NULL`,
		courierID, deliveryID,
	)
	if err != nil {
		return false, fmt.Errorf("bind active delivery: %w", err)
	}
	if bind.RowsAffected() == 0 {
		return false, nil
	}

	tag, err := tx.Exec(ctx, `
		UPDATE deliveries
		SET courier_id = $1, status = $2, current_status_since = now(), updated_at = now()
		WHERE id = $3 AND status = $4 AND courier_id IS NULL`,
		courierID, StatusCourierAssigned, deliveryID, StatusSearchingCourier,
	)
	if err != nil {
		return false, fmt.Errorf("claim delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO delivery_status_events (id, delivery_id, status, occurred_at, system, actor_id)
		VALUES ($1, $2, $3, now(), false, $4)`,
		uuid.New(), deliveryID, StatusCourierAssigned, courierID,
	); err != nil {
		return false, fmt.Errorf("insert claim event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit claim: %w", err)
	}
	return true, nil
}

// AdvanceStatus writes the new Delivery fields and its DeliveryStatusEvent
// row in a single transaction (invariant 3: the event log and the current
// row never diverge).
func (r *Repository) AdvanceStatus(ctx context.Context, deliveryID uuid.UUID, newStatus DeliveryStatus, patch StatusPatch) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	setClauses := []string{"status = $1", "current_status_since = now()", "updated_at = now()"}
	args := []interface{}{newStatus}
	n := 2

	add := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}

	if patch.ActualPickupAt != nil {
		add("actual_pickup_at", *patch.ActualPickupAt)
	}
	if patch.ActualDeliveryAt != nil {
		add("actual_delivery_at", *patch.ActualDeliveryAt)
	}
	if patch.EstimatedDeliveryAt != nil {
		add("estimated_delivery_at", *patch.EstimatedDeliveryAt)
	}
	if patch.CancellationReason != nil {
		add("cancellation_reason", *patch.CancellationReason)
	}
	if patch.FailureReason != nil {
		add("failure_reason", *patch.FailureReason)
	}
	if patch.DeliveryProofURL != nil {
		add("delivery_proof_url", *patch.DeliveryProofURL)
	}
	if patch.SignatureURL != nil {
		add("signature_url", *patch.SignatureURL)
	}
	if patch.IDVerified != nil {
		add("id_verified", *patch.IDVerified)
	}
	if patch.ClearCourier {
		setClauses = append(setClauses, "courier_id = NULL")
	}

	args = append(args, deliveryID)
	query := fmt.Sprintf("UPDATE deliveries SET %s WHERE id = $%d", strings.Join(setClauses, ", "), n)
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO delivery_status_events (
			id, delivery_id, status, occurred_at, latitude, longitude, notes, actor_id, system
		) VALUES ($1, $2, $3, now(), $4, $5, $6, $7, $8)`,
		uuid.New(), deliveryID, newStatus, patch.Latitude, patch.Longitude, patch.Notes, patch.ActorID, patch.System,
	); err != nil {
		return fmt.Errorf("insert status event: %w", err)
	}

	return tx.Commit(ctx)
}

// GetEventsByDeliveryID returns the append-only audit trail, oldest first.
func (r *Repository) GetEventsByDeliveryID(ctx context.Context, deliveryID uuid.UUID) ([]DeliveryStatusEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, delivery_id, status, occurred_at, latitude, longitude, notes, actor_id, system
		FROM delivery_status_events WHERE delivery_id = $1 ORDER BY occurred_at ASC`, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []DeliveryStatusEvent
	for rows.Next() {
		var e DeliveryStatusEvent
		if err := rows.Scan(&e.ID, &e.DeliveryID, &e.Status, &e.OccurredAt, &e.Latitude, &e.Longitude, &e.Notes, &e.ActorID, &e.System); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func buildListFilter(filters *DeliveryListFilters, startArg int) (string, []interface{}, int) {
	var clauses []string
	var args []interface{}
	n := startArg

	if filters != nil {
		if filters.Status != nil {
			clauses = append(clauses, fmt.Sprintf("status = $%d", n))
			args = append(args, *filters.Status)
			n++
		}
		if filters.FromDate != nil {
			clauses = append(clauses, fmt.Sprintf("created_at >= $%d", n))
			args = append(args, *filters.FromDate)
			n++
		}
		if filters.ToDate != nil {
			clauses = append(clauses, fmt.Sprintf("created_at <= $%d", n))
			args = append(args, *filters.ToDate)
			n++
		}
	}
	if len(clauses) == 0 {
		return "", args, n
	}
	return " AND " + strings.Join(clauses, " AND "), args, n
}

// GetDeliveriesBySender powers GET /deliveries for a sender.
func (r *Repository) GetDeliveriesBySender(ctx context.Context, senderID uuid.UUID, filters *DeliveryListFilters, limit, offset int) ([]*Delivery, int64, error) {
	return r.listByOwner(ctx, "sender_id", senderID, filters, limit, offset)
}

// GetDeliveriesByCourier powers GET /courier/deliveries.
func (r *Repository) GetDeliveriesByCourier(ctx context.Context, courierID uuid.UUID, filters *DeliveryListFilters, limit, offset int) ([]*Delivery, int64, error) {
	return r.listByOwner(ctx, "courier_id", courierID, filters, limit, offset)
}

func (r *Repository) listByOwner(ctx context.Context, ownerCol string, ownerID uuid.UUID, filters *DeliveryListFilters, limit, offset int) ([]*Delivery, int64, error) {
	filterSQL, filterArgs, n := buildListFilter(filters, 2)
	args := append([]interface{}{ownerID}, filterArgs...)

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM deliveries WHERE %s = $1%s", ownerCol, filterSQL)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deliveries: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT "+deliveryColumns+" FROM deliveries WHERE %s = $1%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		ownerCol, filterSQL, n, n+1,
	)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// GetActiveDeliveryForCourier returns the single non-terminal delivery bound
// to a courier, or nil if none (invariant: a courier has at most one).
func (r *Repository) GetActiveDeliveryForCourier(ctx context.Context, courierID uuid.UUID) (*Delivery, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+deliveryColumns+` FROM deliveries
		WHERE courier_id = $1 AND status NOT IN ($2, $3, $4, $5)
		LIMIT 1`,
		courierID, StatusDelivered, StatusCancelled, StatusFailed, StatusReturned,
	)
	d, err := scanDelivery(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active delivery: %w", err)
	}
	return d, nil
}

// ListSearchingCourier returns every delivery still awaiting a claim.
func (r *Repository) ListSearchingCourier(ctx context.Context) ([]*Delivery, error) {
	rows, err := r.db.Query(ctx, "SELECT "+deliveryColumns+" FROM deliveries WHERE status = $1 ORDER BY created_at", StatusSearchingCourier)
	if err != nil {
		return nil, fmt.Errorf("list searching deliveries: %w", err)
	}
	defer rows.Close()

	var out []*Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// GetSenderStats aggregates a sender's delivery history for the dashboard.
func (r *Repository) GetSenderStats(ctx context.Context, senderID uuid.UUID) (*DeliveryStats, error) {
	stats := &DeliveryStats{}
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3)
		FROM deliveries WHERE sender_id = $1`,
		senderID, StatusDelivered, StatusCancelled,
	).Scan(&stats.TotalDeliveries, &stats.CompletedDeliveries, &stats.CancelledDeliveries)
	if err != nil {
		return nil, fmt.Errorf("sender stats: %w", err)
	}
	return stats, nil
}

// GetCourierStats aggregates a courier's completed-delivery history.
func (r *Repository) GetCourierStats(ctx context.Context, courierID uuid.UUID) (*DeliveryStats, error) {
	stats := &DeliveryStats{}
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3)
		FROM deliveries WHERE courier_id = $1`,
		courierID, StatusDelivered, StatusCancelled,
	).Scan(&stats.TotalDeliveries, &stats.CompletedDeliveries, &stats.CancelledDeliveries)
	if err != nil {
		return nil, fmt.Errorf("courier stats: %w", err)
	}
	return stats, nil
}

// CreateIssue persists a sender- or courier-filed DeliveryIssue row.
func (r *Repository) CreateIssue(ctx context.Context, issue *DeliveryIssue) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO delivery_issues (id, delivery_id, reported_by, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		issue.ID, issue.DeliveryID, issue.ReportedBy, issue.Category, issue.Description,
	)
	if err != nil {
		return fmt.Errorf("insert delivery issue: %w", err)
	}
	return nil
}

// HasPriorDeliveredDelivery backs the PromoValidator "first order" rule.
func (r *Repository) HasPriorDeliveredDelivery(ctx context.Context, senderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM deliveries WHERE sender_id = $1 AND status = $2)`,
		senderID, StatusDelivered,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check prior delivery: %w", err)
	}
	return exists, nil
}
