package earnings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	earnings []DeliveryEarning
	payouts  []CourierPayout
	created  []*CourierPayout
}

func (f *fakeRepo) GetDeliveryEarnings(ctx context.Context, courierID uuid.UUID, start, end time.Time, commissionRate float64) ([]DeliveryEarning, error) {
	return f.earnings, nil
}

func (f *fakeRepo) CreatePayout(ctx context.Context, p *CourierPayout) error {
	f.created = append(f.created, p)
	return nil
}

func (f *fakeRepo) GetRecentPayouts(ctx context.Context, courierID uuid.UUID, limit int) ([]CourierPayout, error) {
	return f.payouts, nil
}

type fakeBalances struct {
	balance float64
	debited float64
}

func (f *fakeBalances) GetBalance(ctx context.Context, courierID uuid.UUID) (float64, error) {
	return f.balance, nil
}

func (f *fakeBalances) DebitBalance(ctx context.Context, courierID uuid.UUID, amount float64) error {
	f.debited += amount
	f.balance -= amount
	return nil
}

type fakeSettings struct{}

func (fakeSettings) GetFloat(ctx context.Context, key string, fallback float64) float64 {
	return fallback
}

func TestGetSummary_AggregatesByDay(t *testing.T) {
	day1 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{earnings: []DeliveryEarning{
		{DeliveryID: uuid.New(), DeliveredAt: day1, GrossAmount: 12.82, NetAmount: 10.26, Tip: 0},
		{DeliveryID: uuid.New(), DeliveredAt: day1.Add(2 * time.Hour), GrossAmount: 20, NetAmount: 16, Tip: 3},
		{DeliveryID: uuid.New(), DeliveredAt: day2, GrossAmount: 10, NetAmount: 8, Tip: 1},
	}}
	svc := NewService(repo, &fakeBalances{balance: 35.26}, fakeSettings{})

	summary, err := svc.GetSummary(context.Background(), uuid.New(), "week")
	require.NoError(t, err)

	assert.Equal(t, "week", summary.Period)
	assert.Equal(t, 3, summary.DeliveryCount)
	assert.InDelta(t, 42.82, summary.GrossEarnings, 0.001)
	assert.InDelta(t, 34.26, summary.NetEarnings, 0.001)
	assert.InDelta(t, 4.0, summary.TipEarnings, 0.001)
	assert.InDelta(t, 35.26, summary.Balance, 0.001)

	require.Len(t, summary.DailyBreakdown, 2)
	assert.Equal(t, "2024-06-01", summary.DailyBreakdown[0].Date)
	assert.Equal(t, 2, summary.DailyBreakdown[0].DeliveryCount)
	assert.InDelta(t, 26.26, summary.DailyBreakdown[0].NetAmount, 0.001)
	assert.Equal(t, "2024-06-02", summary.DailyBreakdown[1].Date)
}

func TestGetSummary_InvalidPeriod(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeBalances{}, fakeSettings{})
	_, err := svc.GetSummary(context.Background(), uuid.New(), "fortnight")
	assert.Error(t, err)
}

func TestRequestPayout_DebitsBalance(t *testing.T) {
	repo := &fakeRepo{}
	balances := &fakeBalances{balance: 50}
	svc := NewService(repo, balances, fakeSettings{})

	payout, err := svc.RequestPayout(context.Background(), uuid.New(), &RequestPayoutRequest{Amount: 30})
	require.NoError(t, err)

	assert.Equal(t, PayoutStatusCompleted, payout.Status)
	assert.InDelta(t, 30.0, balances.debited, 0.001)
	require.Len(t, repo.created, 1)
	assert.InDelta(t, 30.0, repo.created[0].Amount, 0.001)
}

func TestRequestPayout_RejectsOverdraw(t *testing.T) {
	balances := &fakeBalances{balance: 10}
	svc := NewService(&fakeRepo{}, balances, fakeSettings{})

	_, err := svc.RequestPayout(context.Background(), uuid.New(), &RequestPayoutRequest{Amount: 30})
	assert.Error(t, err)
	assert.Zero(t, balances.debited)
}

func TestRequestPayout_RejectsNonPositive(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeBalances{balance: 10}, fakeSettings{})
	_, err := svc.RequestPayout(context.Background(), uuid.New(), &RequestPayoutRequest{Amount: 0})
	assert.Error(t, err)
}
