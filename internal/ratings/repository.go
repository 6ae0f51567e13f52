package ratings

import (
	"context"
	"fmt"

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

func (r *PostgresRepository) HasRated(ctx context.Context, deliveryID, raterID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM ratings WHERE delivery_id = $1 AND rater_id = $2)`,
		deliveryID, raterID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check prior rating: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) CreateRating(ctx context.Context, rating *Rating) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ratings (id, delivery_id, rater_id, ratee_id, rater_is_sender,
			overall, timeliness, communication, handling, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rating.ID, rating.DeliveryID, rating.RaterID, rating.RateeID, rating.RaterIsSender,
		rating.Overall, rating.Timeliness, rating.Communication, rating.Handling,
		rating.Feedback, rating.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetRatingsForUser(ctx context.Context, rateeID uuid.UUID, limit, offset int) ([]*Rating, int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, delivery_id, rater_id, ratee_id, rater_is_sender,
			overall, timeliness, communication, handling, feedback, created_at
		FROM ratings WHERE ratee_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		rateeID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*Rating
	for rows.Next() {
		rt := &Rating{}
		if err := rows.Scan(&rt.ID, &rt.DeliveryID, &rt.RaterID, &rt.RateeID, &rt.RaterIsSender,
			&rt.Overall, &rt.Timeliness, &rt.Communication, &rt.Handling, &rt.Feedback, &rt.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ratings WHERE ratee_id = $1`, rateeID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ratings: %w", err)
	}
	return ratings, total, nil
}

func (r *PostgresRepository) GetAverageForUser(ctx context.Context, rateeID uuid.UUID) (float64, int, error) {
	var avg *float64
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT AVG(overall)::float8, COUNT(*) FROM ratings WHERE ratee_id = $1`,
		rateeID,
	).Scan(&avg, &count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("average rating: %w", err)
	}
	if avg == nil {
		return 0, 0, nil
	}
	return *avg, count, nil
}
