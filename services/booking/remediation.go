package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookwell/models"

	"go.uber.org/zap"
)

// RemediationReport summarizes one remediation pass.
type RemediationReport struct {
	Examined int `json:"examined"`
	Applied  int `json:"applied"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func (r *RemediationReport) count(err error) {
	var se *skipError
	switch {
	case err == nil:
		r.Applied++
	case errors.As(err, &se), HasCode(err, CodeSlotUnavailable), HasCode(err, CodeStaleWrite):
		r.Skipped++
	default:
		r.Failed++
	}
}

func (s *DefaultBookingService) batchSize() int {
	if s.Policy.BatchSize <= 0 {
		return DefaultPolicy().BatchSize
	}
	return s.Policy.BatchSize
}

// AutoAssignStale hands shop-based requests that nobody picked up to the
// first free staff member of the shop. Each booking is its own unit of work.
func (s *DefaultBookingService) AutoAssignStale(ctx context.Context) (RemediationReport, error) {
	var report RemediationReport
	cutoff := s.now().Add(-s.Policy.AutoAssignAfter)

	candidates, err := s.Bookings.FindUnassignedShopRequests(ctx, cutoff, s.batchSize())
	if err != nil {
		return report, dependency(err, "failed to find unassigned requests")
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Examined++
		_, err := s.apply(ctx, c.PublicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
			return s.autoAssign(ctx, b, out, cutoff)
		})
		report.count(err)
		s.logRemediation("autoAssign", c.PublicID, err)
	}
	return report, nil
}

func (s *DefaultBookingService) autoAssign(ctx context.Context, b *models.Booking, out *models.Outbox, cutoff time.Time) error {
	if b.Status != models.StatusPending || !b.IsShopBased() || b.ProviderKind != models.KindShopOwner {
		return skip("booking is no longer an unassigned request")
	}
	if !b.CreatedAt.Before(cutoff) {
		return skip("booking is not stale yet")
	}

	staff, err := s.Providers.ListShopStaff(ctx, b.ShopID)
	if err != nil {
		return dependency(err, "failed to list staff of shop %s", b.ShopID)
	}
	day, err := s.parseDate(b.Date)
	if err != nil {
		return err
	}
	slot := intervalOf(b)
	var chosen *models.Provider
	for i := range staff {
		if !staff[i].Active || staff[i].Kind != models.KindStaff {
			continue
		}
		w, err := PersonalWindow(staff[i].Schedule, day)
		if err != nil || !w.Contains(slot.Start, slot.End) {
			continue
		}
		busy, err := s.providerBusy(ctx, staff[i].ID, b.Date, slot, b.PublicID)
		if err != nil {
			return err
		}
		if !busy {
			chosen = &staff[i]
			break
		}
	}
	if chosen == nil {
		return skip("no staff member of shop %s is free", b.ShopID)
	}

	owner := b.ProviderID
	if err := Transition(b, ActionAutoAssign, RoleSystem, models.StatusAssigned); err != nil {
		return err
	}
	b.ProviderID = chosen.ID
	b.ProviderName = chosen.Name
	b.ProviderKind = chosen.Kind
	b.ProviderShopID = chosen.ShopID

	out.Notify(chosen.ID, models.RecipientProvider, NoticeActionRequired,
		"Booking assigned to you",
		fmt.Sprintf("%s's %s on %s was assigned to you.", b.CustomerName, b.ServiceName, when(b)), b)
	out.Notify(b.CustomerID, models.RecipientCustomer, NoticeAssigned,
		"Provider assigned",
		fmt.Sprintf("%s will take care of your %s on %s.", b.ProviderName, b.ServiceName, when(b)), b)
	out.Notify(owner, models.RecipientShopOwner, NoticeAssigned,
		"Request auto-assigned",
		fmt.Sprintf("%s's %s on %s was assigned to %s.", b.CustomerName, b.ServiceName, when(b), b.ProviderName), b)
	out.Record(b, s.now())
	return nil
}

// AutoRescheduleStale pushes bookings that sat unconfirmed for too long
// forward in time. Bookings whose shifted slot is taken are left alone.
func (s *DefaultBookingService) AutoRescheduleStale(ctx context.Context) (RemediationReport, error) {
	var report RemediationReport
	cutoff := s.now().Add(-s.Policy.AutoRescheduleAfter)

	candidates, err := s.Bookings.FindStale(ctx, autoRescheduleSources, cutoff, s.batchSize())
	if err != nil {
		return report, dependency(err, "failed to find stale bookings")
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Examined++
		_, err := s.apply(ctx, c.PublicID, func(ctx context.Context, b *models.Booking, out *models.Outbox) error {
			return s.autoReschedule(ctx, b, out, cutoff)
		})
		report.count(err)
		s.logRemediation("autoReschedule", c.PublicID, err)
	}
	return report, nil
}

func (s *DefaultBookingService) autoReschedule(ctx context.Context, b *models.Booking, out *models.Outbox, cutoff time.Time) error {
	if b.Status == models.StatusRejectedBarber {
		return skip("staff rejections wait for reassignment")
	}
	if !AutoRescheduleEligible(b.Status) {
		return skip("status %s is not eligible", b.Status)
	}
	if !b.CreatedAt.Before(cutoff) {
		return skip("booking is not stale yet")
	}

	day, err := s.parseDate(b.Date)
	if err != nil {
		return err
	}
	next := s.at(day, b.Hour, b.Minute).Add(s.Policy.RescheduleShift)
	date := next.Format(dateLayout)
	slot := Interval{Start: next.Hour()*60 + next.Minute(), End: next.Hour()*60 + next.Minute() + b.Duration}
	if slot.End > minutesPerDay {
		return skip("shifted slot %s-%s runs past midnight", FormatClock(slot.Start), FormatClock(slot.End))
	}

	pl := placement{
		mode:        b.Mode,
		shopID:      b.ShopID,
		providerID:  b.ProviderID,
		slotKey:     b.SlotKey,
		date:        date,
		day:         next,
		slot:        slot,
		ignoreHours: true,
	}
	if err := s.checkPlacement(ctx, pl, b.PublicID); err != nil {
		return err
	}

	if err := Transition(b, ActionAutoReschedule, RoleSystem, models.StatusRescheduled); err != nil {
		return err
	}
	b.SetTime(date, next.Hour(), next.Minute())

	out.Notify(b.CustomerID, models.RecipientCustomer, NoticeRescheduled,
		"Booking rescheduled",
		fmt.Sprintf("Your %s was moved to %s.", b.ServiceName, when(b)), b)
	out.Notify(b.ProviderID, providerRole(b.ProviderKind), NoticeRescheduled,
		"Booking rescheduled",
		fmt.Sprintf("%s's %s was moved to %s.", b.CustomerName, b.ServiceName, when(b)), b)
	out.Record(b, s.now())
	return nil
}

func (s *DefaultBookingService) logRemediation(pass, publicID string, err error) {
	log := s.logger().With(zap.String("pass", pass), zap.String("bookingID", publicID))
	var se *skipError
	switch {
	case err == nil:
		log.Info("remediation applied")
	case errors.As(err, &se):
		log.Debug("remediation skipped", zap.String("reason", se.reason))
	default:
		log.Warn("remediation failed", zap.Error(err))
	}
}
