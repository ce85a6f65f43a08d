package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"bookwell/models"
	"bookwell/services/booking"
	"bookwell/services/payment"
	"bookwell/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// maxWebhookBody caps the payload read from Stripe.
const maxWebhookBody = 65536

// PaymentSignals is the part of the booking engine fed by payment events.
type PaymentSignals interface {
	RecordPayment(ctx context.Context, publicID string, status models.PaymentStatus, paymentRef string) (*models.Booking, error)
	RecordRefund(ctx context.Context, publicID string) (*models.Booking, error)
}

// PaymentWebhookHandler turns Stripe events into booking payment signals.
type PaymentWebhookHandler struct {
	Bookings PaymentSignals
	Secret   string
}

// HandleStripeEvent handles POST /api/payments/webhook.
func (h *PaymentWebhookHandler) HandleStripeEvent(c *gin.Context) {
	logger := getLogger(c)
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.Error("Error reading webhook body", zap.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}
	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.Secret)
	if err != nil {
		logger.Warn("Error verifying webhook signature", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "InvalidSignature", "Webhook signature verification failed")
		return
	}
	logger = logger.With(zap.String("eventID", event.ID), zap.String("eventType", string(event.Type)))

	var signalErr error
	switch string(event.Type) {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			logger.Error("Error parsing PaymentIntent", zap.Error(err))
			c.Status(http.StatusBadRequest)
			return
		}
		bookingID := pi.Metadata[payment.MetadataBookingID]
		if bookingID == "" {
			logger.Info("PaymentIntent without booking, ignoring", zap.String("paymentRef", pi.ID))
			break
		}
		status := models.PaymentPaid
		if event.Type == "payment_intent.payment_failed" {
			status = models.PaymentFailed
		}
		_, signalErr = h.Bookings.RecordPayment(c.Request.Context(), bookingID, status, pi.ID)
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			logger.Error("Error parsing Charge", zap.Error(err))
			c.Status(http.StatusBadRequest)
			return
		}
		bookingID := ch.Metadata[payment.MetadataBookingID]
		if bookingID == "" || !ch.Refunded {
			logger.Info("Partial or unrelated refund, ignoring", zap.String("chargeID", ch.ID))
			break
		}
		_, signalErr = h.Bookings.RecordRefund(c.Request.Context(), bookingID)
	default:
		logger.Debug("Unhandled Stripe event")
	}

	if signalErr != nil {
		// Only dependency failures are worth a redelivery from Stripe.
		if be, ok := booking.AsError(signalErr); !ok || be.Kind == booking.KindDependency {
			logger.Error("Failed to record payment signal", zap.Error(signalErr))
			c.Status(http.StatusInternalServerError)
			return
		}
		logger.Warn("Payment signal rejected", zap.Error(signalErr))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
