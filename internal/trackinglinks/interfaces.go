package trackinglinks

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the Store contract for tracking tokens.
type Repository interface {
	Create(ctx context.Context, t *TrackingToken) error
	GetByToken(ctx context.Context, token string) (*TrackingToken, error)
	RecordAccess(ctx context.Context, id uuid.UUID) error
}
