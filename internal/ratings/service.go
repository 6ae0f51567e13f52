package ratings

import (
	"context"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/google/uuid"
)

// Service persists the single rating a rater may submit per delivery,
// enforced ahead of insert by HasRated since the unique-per-rater
// constraint isn't visible to a plain INSERT's caller.
type Service struct {
	repo Repository
}

// Ensure Service satisfies delivery.Rater.
var _ delivery.Rater = (*Service)(nil)

// NewService wires a Service to its Store dependency.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SubmitRating implements delivery.Rater. The caller (LifecycleEngine) has
// already checked the rater is part of the delivery and is in the
// delivered state.
func (s *Service) SubmitRating(ctx context.Context, deliveryID, raterID, rateeID uuid.UUID, raterIsSender bool, req delivery.RateDeliveryRequest) error {
	already, err := s.repo.HasRated(ctx, deliveryID, raterID)
	if err != nil {
		return err
	}
	if already {
		return common.NewConflictError("you have already rated this delivery")
	}

	r := &Rating{
		ID:            uuid.New(),
		DeliveryID:    deliveryID,
		RaterID:       raterID,
		RateeID:       rateeID,
		RaterIsSender: raterIsSender,
		Overall:       req.Overall,
		Timeliness:    req.Timeliness,
		Communication: req.Communication,
		Handling:      req.Handling,
		Feedback:      req.Feedback,
		CreatedAt:     time.Now(),
	}
	return s.repo.CreateRating(ctx, r)
}

// GetForUser returns a user's received ratings, newest first.
func (s *Service) GetForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Rating, int64, error) {
	return s.repo.GetRatingsForUser(ctx, userID, limit, offset)
}

// GetAverage returns a user's average overall score and rating count.
func (s *Service) GetAverage(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	return s.repo.GetAverageForUser(ctx, userID)
}
