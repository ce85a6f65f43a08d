package booking

import (
	"context"
	"errors"
	"fmt"

	providerRepo "bookwell/database/repository/provider"
	"bookwell/models"

	"go.uber.org/zap"
)

// Notification types.
const (
	NoticeCreated          = "booking_created"
	NoticeActionRequired   = "booking_action_required"
	NoticeConfirmed        = "booking_confirmed"
	NoticeApproved         = "booking_approved"
	NoticeRejected         = "booking_rejected"
	NoticeReassignment     = "booking_needs_reassignment"
	NoticeReassigned       = "booking_reassigned"
	NoticeUnassigned       = "booking_unassigned"
	NoticeAssigned         = "booking_assigned"
	NoticeRescheduled      = "booking_rescheduled"
	NoticeCancelled        = "booking_cancelled"
	NoticeCompleted        = "booking_completed"
	NoticeNoShow           = "booking_no_show"
	NoticePaymentFailed    = "payment_failed"
	NoticePaymentRefunded  = "payment_refunded"
	NoticePaymentConfirmed = "payment_confirmed"
	NoticeReminder         = "booking_reminder"
)

func providerRole(k models.ProviderKind) models.RecipientRole {
	if k == models.KindShopOwner {
		return models.RecipientShopOwner
	}
	return models.RecipientProvider
}

func when(b *models.Booking) string {
	return fmt.Sprintf("%s at %s", b.Date, FormatClock(b.Start()))
}

// bookingShopID is the shop whose owner supervises b.
func bookingShopID(b *models.Booking) string {
	if b.ShopID != "" {
		return b.ShopID
	}
	return b.ProviderShopID
}

// shopOwnerOf returns the owner of shopID, or "" when it cannot be found.
func (s *DefaultBookingService) shopOwnerOf(ctx context.Context, shopID string) string {
	if shopID == "" {
		return ""
	}
	shop, err := s.Providers.GetShop(ctx, shopID)
	if err != nil {
		s.logger().Warn("shop owner lookup failed", zap.String("shopID", shopID), zap.Error(err))
		return ""
	}
	return shop.OwnerID
}

// ownsShop reports whether actorID owns shopID.
func (s *DefaultBookingService) ownsShop(ctx context.Context, actorID, shopID string) (bool, error) {
	if shopID == "" || actorID == "" {
		return false, nil
	}
	shop, err := s.Providers.GetShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return false, nil
		}
		return false, dependency(err, "failed to load shop %s", shopID)
	}
	return shop.OwnerID == actorID, nil
}

// notifySupervisor tells the owner of the provider's shop about b, unless
// the owner is the provider.
func (s *DefaultBookingService) notifySupervisor(ctx context.Context, out *models.Outbox, b *models.Booking, kind, title, body string) {
	if b.ProviderKind == models.KindShopOwner {
		return
	}
	owner := s.shopOwnerOf(ctx, bookingShopID(b))
	if owner == "" || owner == b.ProviderID {
		return
	}
	out.Notify(owner, models.RecipientShopOwner, kind, title, body, b)
}

func (s *DefaultBookingService) notifyCreated(ctx context.Context, out *models.Outbox, b *models.Booking) {
	out.Notify(b.CustomerID, models.RecipientCustomer, NoticeCreated,
		"Booking received",
		fmt.Sprintf("Your %s booking on %s is awaiting confirmation.", b.ServiceName, when(b)), b)

	out.Notify(b.ProviderID, providerRole(b.ProviderKind), NoticeActionRequired,
		"New booking request",
		fmt.Sprintf("%s requested %s on %s.", b.CustomerName, b.ServiceName, when(b)), b)

	s.notifySupervisor(ctx, out, b, NoticeActionRequired,
		"New booking for your shop",
		fmt.Sprintf("%s requested %s with %s on %s.", b.CustomerName, b.ServiceName, b.ProviderName, when(b)))
}

// remindCustomer schedules the pre-appointment reminder of a confirmed
// booking. Bookings starting too soon get none.
func (s *DefaultBookingService) remindCustomer(out *models.Outbox, b *models.Booking) {
	if s.Policy.ReminderBefore <= 0 {
		return
	}
	day, err := s.parseDate(b.Date)
	if err != nil {
		return
	}
	fireAt := s.at(day, b.Hour, b.Minute).Add(-s.Policy.ReminderBefore)
	if !fireAt.After(s.now()) {
		return
	}
	out.Remind(b.CustomerID, models.RecipientCustomer, NoticeReminder,
		"Upcoming booking",
		fmt.Sprintf("Your %s with %s starts at %s.", b.ServiceName, b.ProviderName, FormatClock(b.Start())), b, fireAt)
}
