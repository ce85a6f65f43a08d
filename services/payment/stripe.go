package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"bookwell/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// MetadataBookingID is the PaymentIntent metadata key carrying the booking id.
const MetadataBookingID = "booking_id"

var ErrNoPaymentRef = errors.New("refund requested without a payment reference")

// Gateway is the payment collaborator as seen by the outbox worker.
type Gateway interface {
	// Attach opens a charge for the booking and returns its reference. An
	// empty reference means nothing needed charging.
	Attach(ctx context.Context, req models.PaymentRequest) (string, error)
	// Refund returns true once the refund has settled.
	Refund(ctx context.Context, req models.PaymentRequest) (bool, error)
}

// StripeGateway backs Gateway with Stripe PaymentIntents and Refunds.
// stripe.Key must be set before use.
type StripeGateway struct {
	DefaultCurrency string
	Logger          *zap.Logger

	newIntent func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	newRefund func(*stripe.RefundParams) (*stripe.Refund, error)
}

// NewStripeGateway returns a gateway calling the Stripe API.
func NewStripeGateway(currency string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		DefaultCurrency: currency,
		Logger:          logger,
		newIntent:       paymentintent.New,
		newRefund:       refund.New,
	}
}

// minorUnits converts a decimal amount to the integer amount Stripe expects.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *StripeGateway) Attach(ctx context.Context, req models.PaymentRequest) (string, error) {
	if req.Amount <= 0 {
		g.Logger.Debug("nothing to charge", zap.String("bookingID", req.BookingID))
		return "", nil
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = g.DefaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(minorUnits(req.Amount)),
		Currency:    stripe.String(currency),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata(MetadataBookingID, req.BookingID)
	if req.CustomerID != "" {
		params.AddMetadata("customer_id", req.CustomerID)
	}
	params.SetIdempotencyKey("attach:" + req.BookingID)

	pi, err := g.newIntent(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent for %s: %w", req.BookingID, err)
	}
	g.Logger.Info("payment intent created",
		zap.String("bookingID", req.BookingID),
		zap.String("paymentRef", pi.ID),
		zap.String("status", string(pi.Status)))
	return pi.ID, nil
}

func (g *StripeGateway) Refund(ctx context.Context, req models.PaymentRequest) (bool, error) {
	if req.PaymentRef == "" {
		return false, ErrNoPaymentRef
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentRef),
	}
	params.Context = ctx
	params.AddMetadata(MetadataBookingID, req.BookingID)
	params.SetIdempotencyKey("refund:" + req.BookingID)

	r, err := g.newRefund(params)
	if err != nil {
		return false, fmt.Errorf("refund %s: %w", req.BookingID, err)
	}
	g.Logger.Info("refund requested",
		zap.String("bookingID", req.BookingID),
		zap.String("refundID", r.ID),
		zap.String("status", string(r.Status)))
	return r.Status == stripe.RefundStatusSucceeded, nil
}
