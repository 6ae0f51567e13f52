package payments

import (
	"context"
	"fmt"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/promos"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Service is C4 PaymentAdapter: it wraps the Stripe gateway behind
// authorize/capture/refund/tip, persists exactly one Payment row per
// delivery, and commits the promo application in the same transaction as
// authorization (invariant 5).
type Service struct {
	repo       Repository
	stripe     StripeClientInterface
	promos     PromoApplier
	settings   SettingsProvider
	deliveries DeliveryLookup
}

var _ delivery.PaymentAdapter = (*Service)(nil)

// NewService wires a Service to its collaborators.
func NewService(repo Repository, stripe StripeClientInterface, promoApplier PromoApplier, settings SettingsProvider) *Service {
	return &Service{repo: repo, stripe: stripe, promos: promoApplier, settings: settings}
}

// SetDeliveryLookup wires the collaborator GetReceipt uses to authorize the
// caller. Optional; a Service with no DeliveryLookup rejects all receipts.
func (s *Service) SetDeliveryLookup(d DeliveryLookup) {
	s.deliveries = d
}

// GetReceipt returns the itemized payment breakdown for a delivery, to the
// sender or assigned courier only.
func (s *Service) GetReceipt(ctx context.Context, deliveryID, callerID uuid.UUID) (*Payment, error) {
	if s.deliveries == nil {
		return nil, common.NewServiceUnavailableError("receipts unavailable")
	}
	d, err := s.deliveries.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("delivery not found", err)
	}
	isParty := d.SenderID == callerID || (d.CourierID != nil && *d.CourierID == callerID)
	if !isParty {
		return nil, common.NewForbiddenError("not part of this delivery")
	}

	payment, err := s.repo.GetPaymentByDeliveryID(ctx, deliveryID)
	if err != nil {
		return nil, common.NewNotFoundError("payment not found for delivery", err)
	}
	return payment, nil
}

func (s *Service) commissionRate(ctx context.Context) float64 {
	return s.settings.GetFloat(ctx, "courier_commission_rate", 0.80)
}

// AuthorizeDelivery validates the promo code (if any), authorizes the
// discounted total with Stripe, and persists the Payment + promo usage
// atomically (invariant 5). It is idempotent per delivery: a pre-existing
// Payment row is returned as-is rather than re-authorized.
func (s *Service) AuthorizeDelivery(ctx context.Context, deliveryID, senderID uuid.UUID, breakdown delivery.PricingBreakdown, promoCode *string, paymentMethod string) (string, float64, error) {
	if existing, err := s.repo.GetPaymentByDeliveryID(ctx, deliveryID); err == nil && existing != nil {
		return stringOrEmpty(existing.StripePaymentIntentID), existing.Discount, nil
	}

	orderAmount := breakdown.Total()

	var discount float64
	var validation *promos.ValidationResult
	if promoCode != nil && *promoCode != "" {
		v, err := s.promos.Validate(ctx, *promoCode, senderID, orderAmount)
		if err != nil {
			return "", 0, common.NewInternalError("failed to validate promo code", err)
		}
		if v.Valid {
			discount = v.DiscountAmount
			validation = v
		}
	}

	finalAmount := orderAmount - discount
	amountCents := int64(finalAmount * 100)

	pi, err := s.stripe.CreatePaymentIntent(amountCents, "usd", "", fmt.Sprintf("Delivery %s", deliveryID), map[string]string{
		"delivery_id": deliveryID.String(),
		"sender_id":   senderID.String(),
	})
	if err != nil {
		logger.Get().Error("failed to authorize delivery payment", zap.String("delivery_id", deliveryID.String()), zap.Error(err))
		return "", 0, wrapStripeError(err, "payment authorization failed")
	}

	payment := &Payment{
		ID:                    uuid.New(),
		DeliveryID:            deliveryID,
		Status:                PaymentStatusAuthorized,
		BaseFee:               breakdown.BaseFee,
		DistanceFee:           breakdown.DistanceFee,
		WeightFee:             breakdown.WeightFee,
		PriorityFee:           breakdown.PriorityFee,
		Tax:                   breakdown.Tax,
		Discount:              discount,
		PaymentMethod:         paymentMethod,
		PromoCode:             promoCode,
		StripePaymentIntentID: &pi.ID,
	}

	err = s.repo.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.CreatePaymentInTx(ctx, tx, payment); err != nil {
			return err
		}
		if validation != nil {
			return s.promos.Apply(ctx, tx, validation, senderID, deliveryID)
		}
		return nil
	})
	if err != nil {
		return "", 0, common.NewInternalError("failed to persist payment authorization", err)
	}

	return pi.ID, discount, nil
}

// CaptureDelivery captures the authorized payment intent on delivery
// completion and returns the captured amount plus the courier's
// commission share, so LifecycleEngine can credit the ledger
// (earning = captured_amount * commission_rate, §4.1).
func (s *Service) CaptureDelivery(ctx context.Context, deliveryID uuid.UUID) (float64, float64, error) {
	payment, err := s.repo.GetPaymentByDeliveryID(ctx, deliveryID)
	if err != nil {
		return 0, 0, common.NewNotFoundError("payment not found for delivery", err)
	}
	if payment.Status == PaymentStatusCaptured {
		return payment.Total(), s.commissionRate(ctx), nil
	}
	if payment.StripePaymentIntentID == nil {
		return 0, 0, common.NewInternalError("payment has no authorized intent", nil)
	}

	pi, err := s.stripe.CapturePaymentIntent(*payment.StripePaymentIntentID)
	if err != nil {
		logger.Get().Error("failed to capture delivery payment", zap.String("delivery_id", deliveryID.String()), zap.Error(err))
		return 0, 0, wrapStripeError(err, "payment capture failed")
	}

	var chargeID *string
	if pi.LatestCharge != nil {
		chargeID = &pi.LatestCharge.ID
	}
	if err := s.repo.SetCaptured(ctx, payment.ID, chargeID); err != nil {
		return 0, 0, common.NewInternalError("failed to record capture", err)
	}

	return payment.Total(), s.commissionRate(ctx), nil
}

// AuthorizedAmount returns the Payment's authorized total for the delivery,
// the base the §4.1 cancellation refund tiers are computed against.
func (s *Service) AuthorizedAmount(ctx context.Context, deliveryID uuid.UUID) (float64, error) {
	payment, err := s.repo.GetPaymentByDeliveryID(ctx, deliveryID)
	if err != nil {
		return 0, common.NewNotFoundError("payment not found for delivery", err)
	}
	return payment.Total(), nil
}

// RefundDelivery issues a Stripe refund for the given amount against the
// delivery's authorized/captured charge and marks the Payment refunded.
func (s *Service) RefundDelivery(ctx context.Context, deliveryID uuid.UUID, amount float64, reason string) error {
	payment, err := s.repo.GetPaymentByDeliveryID(ctx, deliveryID)
	if err != nil {
		return common.NewNotFoundError("payment not found for delivery", err)
	}
	if payment.Status == PaymentStatusRefunded {
		return nil
	}

	if payment.StripeChargeID != nil {
		amountCents := int64(amount * 100)
		if _, err := s.stripe.CreateRefund(*payment.StripeChargeID, &amountCents, reason); err != nil {
			logger.Get().Error("failed to refund delivery payment", zap.String("delivery_id", deliveryID.String()), zap.Error(err))
			return wrapStripeError(err, "refund failed")
		}
	} else if payment.StripePaymentIntentID != nil {
		if _, err := s.stripe.CancelPaymentIntent(*payment.StripePaymentIntentID); err != nil {
			logger.Get().Error("failed to void delivery authorization", zap.String("delivery_id", deliveryID.String()), zap.Error(err))
			return wrapStripeError(err, "authorization void failed")
		}
	}

	if err := s.repo.SetRefunded(ctx, payment.ID, amount, reason); err != nil {
		return common.NewInternalError("failed to record refund", err)
	}
	return nil
}

// AddTip adjusts the Payment's tip amount after delivery and returns the
// commission rate, so the caller can credit the full tip to the courier's
// balance (§6, the "credit the delta immediately" Open Question decision).
func (s *Service) AddTip(ctx context.Context, deliveryID uuid.UUID, tipAmount float64) (float64, error) {
	payment, err := s.repo.GetPaymentByDeliveryID(ctx, deliveryID)
	if err != nil {
		return 0, common.NewNotFoundError("payment not found for delivery", err)
	}
	if err := s.repo.AddTip(ctx, payment.ID, tipAmount); err != nil {
		return 0, common.NewInternalError("failed to record tip", err)
	}
	return s.commissionRate(ctx), nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func wrapStripeError(err error, fallbackMessage string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*common.AppError); ok {
		return appErr
	}
	return common.NewInternalError(fallbackMessage, err)
}
