package promos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	promo        *PromoCode
	priorUsage   bool
	priorDeliver bool
	applied      bool
}

func (f *fakeRepo) GetPromoCodeByCode(ctx context.Context, code string) (*PromoCode, error) {
	if f.promo == nil || f.promo.Code != code {
		return nil, pgx.ErrNoRows
	}
	return f.promo, nil
}

func (f *fakeRepo) HasPriorUsage(ctx context.Context, promoID, userID uuid.UUID) (bool, error) {
	return f.priorUsage, nil
}

func (f *fakeRepo) HasPriorDeliveredDelivery(ctx context.Context, userID uuid.UUID) (bool, error) {
	return f.priorDeliver, nil
}

func (f *fakeRepo) ApplyInTx(ctx context.Context, tx pgx.Tx, promoID, userID, deliveryID uuid.UUID, discountAmount float64) error {
	f.applied = true
	return nil
}

func basePromo() *PromoCode {
	return &PromoCode{
		ID:                 uuid.New(),
		Code:               "SAVE10",
		DiscountType:       DiscountPercentage,
		DiscountValue:      10,
		MinimumOrderAmount: 5,
		ValidFrom:          time.Now().Add(-time.Hour),
		ValidUntil:         time.Now().Add(time.Hour),
		IsActive:           true,
	}
}

func TestValidate_Unknown(t *testing.T) {
	v := NewValidator(&fakeRepo{})
	res, err := v.Validate(context.Background(), "NOPE", uuid.New(), 20)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidate_Success(t *testing.T) {
	repo := &fakeRepo{promo: basePromo()}
	v := NewValidator(repo)
	res, err := v.Validate(context.Background(), "SAVE10", uuid.New(), 50)
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, 5.0, res.DiscountAmount)
	assert.Equal(t, 45.0, res.FinalAmount)
}

func TestValidate_BelowMinimumOrder(t *testing.T) {
	repo := &fakeRepo{promo: basePromo()}
	v := NewValidator(repo)
	res, err := v.Validate(context.Background(), "SAVE10", uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidate_OneTimePerUserAlreadyUsed(t *testing.T) {
	promo := basePromo()
	promo.IsOneTimePerUser = true
	repo := &fakeRepo{promo: promo, priorUsage: true}
	v := NewValidator(repo)
	res, err := v.Validate(context.Background(), "SAVE10", uuid.New(), 50)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidate_FirstTimeUserOnlyButHasDelivered(t *testing.T) {
	promo := basePromo()
	promo.IsFirstTimeUserOnly = true
	repo := &fakeRepo{promo: promo, priorDeliver: true}
	v := NewValidator(repo)
	res, err := v.Validate(context.Background(), "SAVE10", uuid.New(), 50)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidate_UsageLimitReached(t *testing.T) {
	promo := basePromo()
	limit := 1
	promo.UsageLimit = &limit
	promo.CurrentUsage = 1
	repo := &fakeRepo{promo: promo}
	v := NewValidator(repo)
	res, err := v.Validate(context.Background(), "SAVE10", uuid.New(), 50)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestComputeDiscount_FixedCappedAtOrderAmount(t *testing.T) {
	promo := basePromo()
	promo.DiscountType = DiscountFixedAmount
	promo.DiscountValue = 100
	discount := computeDiscount(promo, 20)
	assert.Equal(t, 20.0, discount)
}

func TestComputeDiscount_PercentageCappedAtMaximum(t *testing.T) {
	promo := basePromo()
	max := 3.0
	promo.MaximumDiscount = &max
	discount := computeDiscount(promo, 100)
	assert.Equal(t, 3.0, discount)
}

func TestApply_NoopWhenInvalid(t *testing.T) {
	repo := &fakeRepo{}
	v := NewValidator(repo)
	err := v.Apply(context.Background(), nil, &ValidationResult{Valid: false}, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, repo.applied)
}
