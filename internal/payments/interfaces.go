package payments

import (
	"context"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/promos"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v83"
)

// Repository is the Store contract for payments. CreatePaymentInTx runs
// inside the same transaction as the promo application, per invariant 5.
type Repository interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	CreatePaymentInTx(ctx context.Context, tx pgx.Tx, p *Payment) error
	GetPaymentByDeliveryID(ctx context.Context, deliveryID uuid.UUID) (*Payment, error)
	SetStripeIdentifiers(ctx context.Context, id uuid.UUID, paymentIntentID *string, status PaymentStatus) error
	SetCaptured(ctx context.Context, id uuid.UUID, chargeID *string) error
	SetRefunded(ctx context.Context, id uuid.UUID, refundAmount float64, reason string) error
	SetFailed(ctx context.Context, id uuid.UUID) error
	AddTip(ctx context.Context, id uuid.UUID, tipAmount float64) error
}

// StripeClientInterface wraps the gateway behind a narrow interface so the
// service and its tests never depend on the Stripe SDK directly.
type StripeClientInterface interface {
	CreateCustomer(email, name string, metadata map[string]string) (*stripe.Customer, error)
	CreatePaymentIntent(amount int64, currency, customerID, description string, metadata map[string]string) (*stripe.PaymentIntent, error)
	ConfirmPaymentIntent(paymentIntentID string) (*stripe.PaymentIntent, error)
	CapturePaymentIntent(paymentIntentID string) (*stripe.PaymentIntent, error)
	CreateRefund(chargeID string, amount *int64, reason string) (*stripe.Refund, error)
	CreateTransfer(amount int64, currency, destination, description string, metadata map[string]string) (*stripe.Transfer, error)
	GetPaymentIntent(paymentIntentID string) (*stripe.PaymentIntent, error)
	CancelPaymentIntent(paymentIntentID string) (*stripe.PaymentIntent, error)
}

// SettingsProvider resolves the SystemSetting keys the commission
// calculation needs, mirroring the PricingEngine's collaborator in
// internal/delivery.
type SettingsProvider interface {
	GetFloat(ctx context.Context, key string, fallback float64) float64
}

// DeliveryLookup is the narrow slice of Store access GetReceipt needs to
// authorize the caller against the delivery's sender/courier.
type DeliveryLookup interface {
	GetDeliveryByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error)
}

// PromoApplier is the narrow slice of C3 PromoValidator the payment
// authorization flow needs: validate outside the transaction, apply
// (PromoUsage insert + current_usage increment) inside it.
type PromoApplier interface {
	Validate(ctx context.Context, code string, userID uuid.UUID, orderAmount float64) (*promos.ValidationResult, error)
	Apply(ctx context.Context, tx pgx.Tx, result *promos.ValidationResult, userID, deliveryID uuid.UUID) error
}
