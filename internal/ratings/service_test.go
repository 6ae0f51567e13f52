package ratings

import (
	"context"
	"testing"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	ratings []*Rating
}

func (f *fakeRepo) HasRated(ctx context.Context, deliveryID, raterID uuid.UUID) (bool, error) {
	for _, r := range f.ratings {
		if r.DeliveryID == deliveryID && r.RaterID == raterID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateRating(ctx context.Context, r *Rating) error {
	f.ratings = append(f.ratings, r)
	return nil
}

func (f *fakeRepo) GetRatingsForUser(ctx context.Context, rateeID uuid.UUID, limit, offset int) ([]*Rating, int64, error) {
	var out []*Rating
	for _, r := range f.ratings {
		if r.RateeID == rateeID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) GetAverageForUser(ctx context.Context, rateeID uuid.UUID) (float64, int, error) {
	var sum float64
	var count int
	for _, r := range f.ratings {
		if r.RateeID == rateeID {
			sum += float64(r.Overall)
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

func TestSubmitRating_SenderRatesCourierFully(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	deliveryID, sender, courier := uuid.New(), uuid.New(), uuid.New()
	tl := 4

	err := svc.SubmitRating(context.Background(), deliveryID, sender, courier, true, delivery.RateDeliveryRequest{
		Overall: 5, Timeliness: &tl,
	})
	require.NoError(t, err)
	require.Len(t, repo.ratings, 1)
	assert.Equal(t, 5, repo.ratings[0].Overall)
	assert.Equal(t, courier, repo.ratings[0].RateeID)
}

func TestSubmitRating_DuplicateRejected(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	deliveryID, sender, courier := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, svc.SubmitRating(context.Background(), deliveryID, sender, courier, true, delivery.RateDeliveryRequest{Overall: 5}))
	err := svc.SubmitRating(context.Background(), deliveryID, sender, courier, true, delivery.RateDeliveryRequest{Overall: 3})
	assert.Error(t, err)
}

func TestGetAverage(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	courier := uuid.New()
	require.NoError(t, svc.SubmitRating(context.Background(), uuid.New(), uuid.New(), courier, true, delivery.RateDeliveryRequest{Overall: 4}))
	require.NoError(t, svc.SubmitRating(context.Background(), uuid.New(), uuid.New(), courier, true, delivery.RateDeliveryRequest{Overall: 2}))

	avg, count, err := svc.GetAverage(context.Background(), courier)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 3.0, avg)
}
