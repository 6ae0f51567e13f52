package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/google/uuid"
)

// Service is the courier earnings dashboard and payout flow: it aggregates
// DeliveryEarning rows over a period and lets a courier cash out against
// the balance matching.Service maintains (§6 invariant 5).
type Service struct {
	repo     Repository
	balances BalanceProvider
	settings SettingsProvider
}

// NewService wires a Service to its collaborators.
func NewService(repo Repository, balances BalanceProvider, settings SettingsProvider) *Service {
	return &Service{repo: repo, balances: balances, settings: settings}
}

func (s *Service) commissionRate(ctx context.Context) float64 {
	return s.settings.GetFloat(ctx, "courier_commission_rate", 0.80)
}

// periodRange resolves a period keyword to a [start, end) window ending now.
func periodRange(period string) (time.Time, time.Time, error) {
	now := time.Now()
	end := now
	switch period {
	case "day":
		return now.Truncate(24 * time.Hour), end, nil
	case "week":
		return now.AddDate(0, 0, -7), end, nil
	case "month":
		return now.AddDate(0, -1, 0), end, nil
	case "all", "":
		return time.Unix(0, 0), end, nil
	default:
		return time.Time{}, time.Time{}, common.NewBadRequestError("invalid period", nil)
	}
}

// GetSummary returns the courier's earnings dashboard for GET
// /courier/earnings?period=day|week|month|all.
func (s *Service) GetSummary(ctx context.Context, courierID uuid.UUID, period string) (*EarningsSummary, error) {
	start, end, err := periodRange(period)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "all"
	}

	rate := s.commissionRate(ctx)
	earnings, err := s.repo.GetDeliveryEarnings(ctx, courierID, start, end, rate)
	if err != nil {
		return nil, err
	}

	balance, err := s.balances.GetBalance(ctx, courierID)
	if err != nil {
		return nil, common.NewInternalError("failed to load courier balance", err)
	}

	payouts, err := s.repo.GetRecentPayouts(ctx, courierID, 20)
	if err != nil {
		return nil, err
	}

	summary := &EarningsSummary{
		CourierID:     courierID,
		Period:        period,
		PeriodStart:   start,
		PeriodEnd:     end,
		Balance:       balance,
		RecentPayouts: payouts,
		Currency:      "usd",
	}

	byDay := make(map[string]*DailyEarning)
	var dayOrder []string
	for _, e := range earnings {
		summary.GrossEarnings += e.GrossAmount
		summary.NetEarnings += e.NetAmount
		summary.TipEarnings += e.Tip
		summary.DeliveryCount++

		day := e.DeliveredAt.Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &DailyEarning{Date: day}
			byDay[day] = d
			dayOrder = append(dayOrder, day)
		}
		d.GrossAmount += e.GrossAmount
		d.NetAmount += e.NetAmount
		d.Tips += e.Tip
		d.DeliveryCount++
	}
	for _, day := range dayOrder {
		summary.DailyBreakdown = append(summary.DailyBreakdown, *byDay[day])
	}

	return summary, nil
}

// RequestPayout debits the courier's balance and records a completed
// payout. There is no pending bank-transfer rail modeled (see DESIGN.md);
// the payout settles against account_balance immediately.
func (s *Service) RequestPayout(ctx context.Context, courierID uuid.UUID, req *RequestPayoutRequest) (*CourierPayout, error) {
	if req.Amount <= 0 {
		return nil, common.NewBadRequestError("payout amount must be positive", nil)
	}

	balance, err := s.balances.GetBalance(ctx, courierID)
	if err != nil {
		return nil, common.NewInternalError("failed to load courier balance", err)
	}
	if req.Amount > balance {
		return nil, common.NewBadRequestError("payout amount exceeds available balance", nil)
	}

	payout := &CourierPayout{
		ID:        uuid.New(),
		CourierID: courierID,
		Amount:    req.Amount,
		Status:    PayoutStatusCompleted,
		Reference: fmt.Sprintf("payout_%s", uuid.New().String()[:8]),
	}

	if err := s.balances.DebitBalance(ctx, courierID, req.Amount); err != nil {
		return nil, common.NewInternalError("failed to debit courier balance", err)
	}

	if err := s.repo.CreatePayout(ctx, payout); err != nil {
		return nil, err
	}

	return payout, nil
}
