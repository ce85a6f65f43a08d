package booking

import (
	"context"
	"fmt"
	"strings"

	"bookwell/models"

	"go.uber.org/zap"
)

// ReassignRequest moves a booking to another provider of the same shop,
// optionally at a new time.
type ReassignRequest struct {
	ProviderID string
	Date       *string
	Hour       *int
	Minute     *int
	Duration   *int
}

// responderRole decides in which capacity actor answers for b: as its
// provider, or as the owner of the shop the provider is bound to.
func (s *DefaultBookingService) responderRole(ctx context.Context, actor Actor, b *models.Booking) (Role, error) {
	if actor.ID != "" && actor.ID == b.ProviderID {
		return RoleProvider, nil
	}
	owns, err := s.ownsShop(ctx, actor.ID, bookingShopID(b))
	if err != nil {
		return "", err
	}
	if owns {
		return RoleShopOwner, nil
	}
	return "", forbidden("only the booked provider or their shop owner may act on booking %s", b.PublicID)
}

func (s *DefaultBookingService) requireOwner(ctx context.Context, actor Actor, b *models.Booking) error {
	shopID := bookingShopID(b)
	if shopID == "" {
		return forbidden("booking %s is not attached to a shop", b.PublicID)
	}
	owns, err := s.ownsShop(ctx, actor.ID, shopID)
	if err != nil {
		return err
	}
	if !owns {
		return forbidden("only the owner of shop %s may do this", shopID)
	}
	return nil
}

// Accept confirms a booking on behalf of its provider.
func (s *DefaultBookingService) Accept(ctx context.Context, actor Actor, publicID string) (*models.Booking, error) {
	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		role, err := s.responderRole(ctx, actor, b)
		if err != nil {
			return err
		}
		if err := Transition(b, ActionAccept, role, models.StatusConfirmed); err != nil {
			return err
		}
		out.Notify(b.CustomerID, models.RecipientCustomer, NoticeConfirmed,
			"Booking confirmed",
			fmt.Sprintf("%s confirmed your %s on %s.", b.ProviderName, b.ServiceName, when(b)), b)
		s.remindCustomer(out, b)
		if role == RoleProvider {
			s.notifySupervisor(ctx, out, b, NoticeConfirmed, "Booking accepted",
				fmt.Sprintf("%s accepted %s's booking on %s.", b.ProviderName, b.CustomerName, when(b)))
		}
		out.Record(b, s.now())
		return nil
	})
	s.logTransition("accept", publicID, b, err)
	return b, err
}

// Reject declines a booking; the resulting status depends on the provider kind.
func (s *DefaultBookingService) Reject(ctx context.Context, actor Actor, publicID, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("a rejection reason is required")
	}
	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		role, err := s.responderRole(ctx, actor, b)
		if err != nil {
			return err
		}
		if err := Transition(b, ActionReject, role, RejectionStatus(b.ProviderKind)); err != nil {
			return err
		}
		b.RejectionReason = reason

		out.Notify(b.CustomerID, models.RecipientCustomer, NoticeRejected,
			"Booking declined",
			fmt.Sprintf("Your %s on %s was declined: %s", b.ServiceName, when(b), reason), b)
		if b.Status == models.StatusRejectedBarber {
			s.notifySupervisor(ctx, out, b, NoticeReassignment, "Booking needs a new provider",
				fmt.Sprintf("%s declined %s's booking on %s. Please reassign it.", b.ProviderName, b.CustomerName, when(b)))
		}
		out.Record(b, s.now())
		return nil
	})
	s.logTransition("reject", publicID, b, err)
	return b, err
}

// approvalTarget is the status a shop owner's approval leads to.
func approvalTarget(b *models.Booking) models.BookingStatus {
	if b.IsShopBased() {
		return models.StatusConfirmed
	}
	switch b.ProviderKind {
	case models.KindFreelancer:
		return models.StatusAssigned
	case models.KindShopOwner:
		return models.StatusConfirmed
	default:
		return models.StatusPending
	}
}

// Approve records the shop owner's approval. Approving a confirmed booking
// is a no-op.
func (s *DefaultBookingService) Approve(ctx context.Context, actor Actor, publicID string) (*models.Booking, error) {
	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		if err := s.requireOwner(ctx, actor, b); err != nil {
			return err
		}
		if b.Status == models.StatusConfirmed {
			return errUnchanged
		}
		if err := Transition(b, ActionApprove, RoleShopOwner, approvalTarget(b)); err != nil {
			return err
		}

		if b.Status == models.StatusConfirmed {
			out.Notify(b.CustomerID, models.RecipientCustomer, NoticeConfirmed,
				"Booking confirmed",
				fmt.Sprintf("Your %s on %s is confirmed.", b.ServiceName, when(b)), b)
			s.remindCustomer(out, b)
			if b.ProviderID != actor.ID {
				out.Notify(b.ProviderID, providerRole(b.ProviderKind), NoticeConfirmed,
					"Booking confirmed by the shop",
					fmt.Sprintf("%s's %s on %s is confirmed.", b.CustomerName, b.ServiceName, when(b)), b)
			}
		} else {
			out.Notify(b.CustomerID, models.RecipientCustomer, NoticeApproved,
				"Booking approved",
				fmt.Sprintf("The shop approved your %s on %s. Waiting for %s.", b.ServiceName, when(b), b.ProviderName), b)
			out.Notify(b.ProviderID, providerRole(b.ProviderKind), NoticeActionRequired,
				"Please respond to a booking",
				fmt.Sprintf("The shop approved %s's %s on %s. Accept or decline it.", b.CustomerName, b.ServiceName, when(b)), b)
		}
		out.Record(b, s.now())
		return nil
	})
	s.logTransition("approve", publicID, b, err)
	return b, err
}

func (r ReassignRequest) validate() error {
	if strings.TrimSpace(r.ProviderID) == "" {
		return invalid("providerId is required")
	}
	if r.Hour != nil || r.Minute != nil {
		h, m := 0, 0
		if r.Hour != nil {
			h = *r.Hour
		}
		if r.Minute != nil {
			m = *r.Minute
		}
		if err := validateClock(h, m); err != nil {
			return err
		}
	}
	if r.Duration != nil && *r.Duration < minDuration {
		return invalid("duration must be at least %d minutes", minDuration)
	}
	return nil
}

// Reassign hands a booking to another provider of the owner's shop or to
// the owner themself, optionally moving it in time.
func (s *DefaultBookingService) Reassign(ctx context.Context, actor Actor, publicID string, req ReassignRequest) (*models.Booking, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		if err := s.requireOwner(ctx, actor, b); err != nil {
			return err
		}
		shopID := bookingShopID(b)

		next, err := s.resolver().Resolve(ctx, req.ProviderID)
		if err != nil {
			return err
		}
		self := next.ID() == actor.ID
		if !self && (next.Kind() == models.KindShopOwner || next.ShopID() != shopID) {
			return validation(CodeProviderNotInShop, "provider %s does not work for shop %s", next.ID(), shopID)
		}

		target := models.StatusReassigned
		if self {
			target = models.StatusConfirmed
		}
		if err := CanTransition(ActionReassign, RoleShopOwner, b.Status, target); err != nil {
			return err
		}

		date, hour, minute, duration := b.Date, b.Hour, b.Minute, b.Duration
		if req.Date != nil {
			date = *req.Date
		}
		if req.Hour != nil {
			hour = *req.Hour
		}
		if req.Minute != nil {
			minute = *req.Minute
		}
		if req.Duration != nil {
			duration = *req.Duration
		}
		day, err := s.parseDate(date)
		if err != nil {
			return err
		}

		moved := date != b.Date || hour != b.Hour || minute != b.Minute || duration != b.Duration
		changed := next.ID() != b.ProviderID
		slot := Interval{Start: hour*60 + minute, End: hour*60 + minute + duration}

		if moved || (changed && !b.IsShopBased()) {
			pl := newPlacement(b.Mode, next, b.ShopID, date, day, slot)
			if err := s.checkPlacement(ctx, pl, b.PublicID); err != nil {
				return err
			}
		}
		if b.IsShopBased() && (moved || changed) {
			busy, err := s.providerBusy(ctx, next.ID(), date, slot, b.PublicID)
			if err != nil {
				return err
			}
			if busy {
				return conflict(CodeSlotUnavailable, "%s already has a booking at %s on %s", next.DisplayName(), FormatClock(slot.Start), date)
			}
		}

		previous, previousKind := b.ProviderID, b.ProviderKind
		b.ProviderID = next.ID()
		b.ProviderName = next.DisplayName()
		b.ProviderKind = next.Kind()
		b.ProviderShopID = next.ShopID()
		if !b.IsShopBased() {
			b.SlotKey = models.ProviderSlotKey(next.ID())
		}
		b.SetTime(date, hour, minute)
		b.Duration = duration
		b.Status = target

		out.Notify(b.CustomerID, models.RecipientCustomer, NoticeReassigned,
			"Booking updated",
			fmt.Sprintf("Your %s on %s is now with %s.", b.ServiceName, when(b), b.ProviderName), b)
		if self {
			s.remindCustomer(out, b)
		} else {
			out.Notify(b.ProviderID, providerRole(b.ProviderKind), NoticeActionRequired,
				"Booking assigned to you",
				fmt.Sprintf("%s's %s on %s was assigned to you. Accept or decline it.", b.CustomerName, b.ServiceName, when(b)), b)
		}
		if changed && previous != actor.ID {
			out.Notify(previous, providerRole(previousKind), NoticeUnassigned,
				"Booking reassigned",
				fmt.Sprintf("%s's %s was assigned to someone else.", b.CustomerName, b.ServiceName), b)
		}
		out.Record(b, s.now())
		return nil
	})
	s.logTransition("reassign", publicID, b, err)
	return b, err
}

// Cancel lets the customer withdraw a pending booking.
func (s *DefaultBookingService) Cancel(ctx context.Context, actor Actor, publicID, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		if actor.ID != b.CustomerID {
			return forbidden("only the customer may cancel booking %s", b.PublicID)
		}
		if err := Transition(b, ActionCancel, RoleCustomer, models.StatusCancelled); err != nil {
			return err
		}
		b.CancellationReason = reason

		if b.PaymentStatus == models.PaymentPaid {
			out.RequestPayment(models.PaymentRequest{
				Kind:       models.PaymentRefund,
				BookingID:  b.PublicID,
				CustomerID: b.CustomerID,
				Amount:     b.Price,
				Currency:   b.Currency,
				PaymentRef: b.PaymentRef,
			})
		}

		out.Notify(b.CustomerID, models.RecipientCustomer, NoticeCancelled,
			"Booking cancelled",
			fmt.Sprintf("Your %s on %s was cancelled.", b.ServiceName, when(b)), b)
		out.Notify(b.ProviderID, providerRole(b.ProviderKind), NoticeCancelled,
			"Booking cancelled",
			fmt.Sprintf("%s cancelled the %s on %s.", b.CustomerName, b.ServiceName, when(b)), b)
		s.notifySupervisor(ctx, out, b, NoticeCancelled, "Booking cancelled",
			fmt.Sprintf("%s cancelled the %s with %s on %s.", b.CustomerName, b.ServiceName, b.ProviderName, when(b)))
		out.Record(b, s.now())
		return nil
	})
	s.logTransition("cancel", publicID, b, err)
	return b, err
}

// Complete records that a confirmed booking was fulfilled.
func (s *DefaultBookingService) Complete(ctx context.Context, actor Actor, publicID string) (*models.Booking, error) {
	return s.fulfil(ctx, actor, publicID, ActionComplete, models.StatusCompleted)
}

// MarkNoShow records that the customer did not turn up.
func (s *DefaultBookingService) MarkNoShow(ctx context.Context, actor Actor, publicID string) (*models.Booking, error) {
	return s.fulfil(ctx, actor, publicID, ActionNoShow, models.StatusNoShow)
}

func (s *DefaultBookingService) fulfil(ctx context.Context, actor Actor, publicID string, action Action, to models.BookingStatus) (*models.Booking, error) {
	b, err := s.apply(ctx, publicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
		role := RoleSystem
		if actor.Role != RoleSystem {
			r, err := s.responderRole(ctx, actor, b)
			if err != nil {
				return err
			}
			role = r
		}
		if err := Transition(b, action, role, to); err != nil {
			return err
		}
		if to == models.StatusCompleted {
			out.Notify(b.CustomerID, models.RecipientCustomer, NoticeCompleted,
				"How did it go?",
				fmt.Sprintf("Your %s with %s is complete. Leave a rating.", b.ServiceName, b.ProviderName), b)
		} else {
			out.Notify(b.CustomerID, models.RecipientCustomer, NoticeNoShow,
				"Missed booking",
				fmt.Sprintf("You were marked as a no-show for %s on %s.", b.ServiceName, when(b)), b)
		}
		out.Record(b, s.now())
		return nil
	})
	s.logTransition(string(action), publicID, b, err)
	return b, err
}

func (s *DefaultBookingService) logTransition(action, publicID string, b *models.Booking, err error) {
	log := s.logger().With(zap.String("action", action), zap.String("bookingID", publicID))
	if err != nil {
		log.Info("booking transition refused", zap.Error(err))
		return
	}
	log.Info("booking transition applied", zap.String("status", string(b.Status)), zap.String("providerID", b.ProviderID))
}
