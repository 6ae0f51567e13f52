package ratings

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the Store contract for ratings.
type Repository interface {
	HasRated(ctx context.Context, deliveryID, raterID uuid.UUID) (bool, error)
	CreateRating(ctx context.Context, r *Rating) error
	GetRatingsForUser(ctx context.Context, rateeID uuid.UUID, limit, offset int) ([]*Rating, int64, error)
	GetAverageForUser(ctx context.Context, rateeID uuid.UUID) (float64, int, error)
}
