package booking

import (
	"context"
	"fmt"

	"bookwell/models"

	"go.uber.org/zap"
)

// RecordPayment applies a payment collaborator signal. A successful payment
// confirms a booking that is still pending.
func (s *DefaultBookingService) RecordPayment(ctx context.Context, publicID string, status models.PaymentStatus, paymentRef string) (*models.Booking, error) {
	switch status {
	case models.PaymentPaid, models.PaymentFailed, models.PaymentPending:
	default:
		return nil, invalid("unsupported payment status %q", status)
	}

	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		if b.PaymentStatus == status && (paymentRef == "" || paymentRef == b.PaymentRef) {
			return errUnchanged
		}
		if b.PaymentStatus == models.PaymentRefunded {
			return conflict(CodeInvalidTransition, "booking %s has already been refunded", b.PublicID)
		}
		if status == models.PaymentPending && b.PaymentStatus != models.PaymentPending {
			// A late attach acknowledgement never downgrades a settled payment.
			if b.PaymentRef != "" || paymentRef == "" {
				return errUnchanged
			}
			b.PaymentRef = paymentRef
			return nil
		}
		b.PaymentStatus = status
		if paymentRef != "" {
			b.PaymentRef = paymentRef
		}

		switch status {
		case models.PaymentPaid:
			if b.Status == models.StatusCancelled {
				// Charge settled after the customer withdrew.
				out.RequestPayment(models.PaymentRequest{
					Kind:       models.PaymentRefund,
					BookingID:  b.PublicID,
					CustomerID: b.CustomerID,
					Amount:     b.Price,
					Currency:   b.Currency,
					PaymentRef: b.PaymentRef,
				})
			}
			if b.Status == models.StatusPending {
				if err := Transition(b, ActionConfirmPayment, RoleSystem, models.StatusConfirmed); err != nil {
					return err
				}
				out.Notify(b.CustomerID, models.RecipientCustomer, NoticePaymentConfirmed,
					"Payment received",
					fmt.Sprintf("Your payment went through and your %s on %s is confirmed.", b.ServiceName, when(b)), b)
				out.Notify(b.ProviderID, providerRole(b.ProviderKind), NoticeConfirmed,
					"Booking confirmed",
					fmt.Sprintf("%s paid for %s on %s.", b.CustomerName, b.ServiceName, when(b)), b)
				s.remindCustomer(out, b)
				out.Record(b, s.now())
			}
		case models.PaymentFailed:
			out.Notify(b.CustomerID, models.RecipientCustomer, NoticePaymentFailed,
				"Payment failed",
				fmt.Sprintf("We could not charge you for %s on %s.", b.ServiceName, when(b)), b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger().Info("payment recorded",
		zap.String("bookingID", publicID),
		zap.String("paymentStatus", string(status)),
		zap.String("status", string(b.Status)))
	return b, nil
}

// RecordRefund marks a cancelled booking's payment as refunded.
func (s *DefaultBookingService) RecordRefund(ctx context.Context, publicID string) (*models.Booking, error) {
	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		if b.PaymentStatus == models.PaymentRefunded {
			return errUnchanged
		}
		if b.Status != models.StatusCancelled {
			return conflict(CodeInvalidTransition, "only cancelled bookings can be refunded, booking is %s", b.Status)
		}
		b.PaymentStatus = models.PaymentRefunded
		out.Notify(b.CustomerID, models.RecipientCustomer, NoticePaymentRefunded,
			"Refund issued",
			fmt.Sprintf("Your payment for %s on %s has been refunded.", b.ServiceName, when(b)), b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger().Info("refund recorded", zap.String("bookingID", publicID))
	return b, nil
}
