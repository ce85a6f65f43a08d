package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingRepo "bookwell/database/repository/booking"
	catalogRepo "bookwell/database/repository/catalog"
	providerRepo "bookwell/database/repository/provider"
	userRepo "bookwell/database/repository/user"
	"bookwell/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

const minDuration = 5

// CreateRequest is the input of the create use-case.
type CreateRequest struct {
	CustomerID string
	ProviderID string
	ServiceID  string
	// Mode selects shop or home delivery. Empty derives it from the service.
	Mode    models.ServiceMode
	Date    string
	Hour    int
	Minute  int
	Address *models.Address
	Notes   string
}

func (r CreateRequest) validate() error {
	var missing []string
	if strings.TrimSpace(r.CustomerID) == "" {
		missing = append(missing, "customerId")
	}
	if strings.TrimSpace(r.ProviderID) == "" {
		missing = append(missing, "providerId")
	}
	if strings.TrimSpace(r.ServiceID) == "" {
		missing = append(missing, "serviceId")
	}
	if strings.TrimSpace(r.Date) == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return invalid("missing required fields: %s", strings.Join(missing, ", "))
	}
	return validateClock(r.Hour, r.Minute)
}

func validateClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return invalid("hour %d out of range 0-23", hour)
	}
	if minute < 0 || minute > 59 {
		return invalid("minute %d out of range 0-59", minute)
	}
	return nil
}

// errUnchanged aborts a unit of work that has nothing to write.
var errUnchanged = errors.New("booking unchanged")

// skipError marks a booking that remediation leaves alone.
type skipError struct{ reason string }

func (e *skipError) Error() string { return "skipped: " + e.reason }

func skip(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}

type mutation func(ctx context.Context, b *models.Booking, out *models.Outbox) error

// apply loads a booking inside a unit of work, lets fn change it, persists
// it, runs the optional after hooks and dispatches the collected side
// effects once the unit has committed.
func (s *DefaultBookingService) apply(ctx context.Context, publicID string, fn mutation, after ...func(ctx context.Context, b *models.Booking) error) (*models.Booking, error) {
	var (
		result *models.Booking
		outbox models.Outbox
	)
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		outbox = models.Outbox{}
		b, err := s.load(txCtx, publicID)
		if err != nil {
			return err
		}
		if err := fn(txCtx, b, &outbox); err != nil {
			if errors.Is(err, errUnchanged) {
				result = b
			}
			return err
		}
		if err := s.save(txCtx, b); err != nil {
			return err
		}
		for _, hook := range after {
			if err := hook(txCtx, b); err != nil {
				return err
			}
		}
		result = b
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, outbox)
	return result, nil
}

func (s *DefaultBookingService) load(ctx context.Context, publicID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, notFound(CodeBookingNotFound, "booking %s not found", publicID)
		}
		return nil, dependency(err, "failed to load booking %s", publicID)
	}
	return b, nil
}

func (s *DefaultBookingService) save(ctx context.Context, b *models.Booking) error {
	b.UpdatedAt = s.now()
	if err := s.Bookings.Update(ctx, b); err != nil {
		if errors.Is(err, bookingRepo.ErrVersionConflict) {
			return conflict(CodeStaleWrite, "booking %s was modified concurrently", b.PublicID)
		}
		return dependency(err, "failed to save booking %s", b.PublicID)
	}
	return nil
}

func (s *DefaultBookingService) dispatch(ctx context.Context, outbox models.Outbox) {
	if s.Dispatcher == nil || outbox.Empty() {
		return
	}
	s.Dispatcher.Dispatch(context.WithoutCancel(ctx), outbox)
}

func (s *DefaultBookingService) parseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, date, s.location())
	if err != nil {
		return time.Time{}, invalid("date %q must be formatted YYYY-MM-DD", date)
	}
	return d, nil
}

func (s *DefaultBookingService) at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, s.location())
}

// placement describes where a booking would sit and what it competes with.
type placement struct {
	mode       models.ServiceMode
	shopID     string
	provider   Provider // personal schedule source for home visits
	providerID string
	slotKey    string
	date       string
	day        time.Time
	slot       Interval
	// ignoreHours skips the working-hours check.
	ignoreHours bool
}

func newPlacement(mode models.ServiceMode, p Provider, shopID, date string, day time.Time, slot Interval) placement {
	pl := placement{
		mode:       mode,
		shopID:     shopID,
		provider:   p,
		providerID: p.ID(),
		date:       date,
		day:        day,
		slot:       slot,
	}
	if mode == models.ModeShop {
		pl.slotKey = models.ShopSlotKey(shopID)
	} else {
		pl.slotKey = models.ProviderSlotKey(p.ID())
	}
	return pl
}

// window returns the schedule window governing a placement: the shop's
// opening hours for shop visits, the provider's own schedule otherwise.
func (s *DefaultBookingService) window(ctx context.Context, pl placement) (DayWindow, error) {
	if pl.mode == models.ModeShop {
		shop, err := s.Providers.GetShop(ctx, pl.shopID)
		if err != nil {
			if errors.Is(err, providerRepo.ErrNotFound) {
				return DayWindow{}, notFound(CodeShopNotFound, "shop %s not found", pl.shopID)
			}
			return DayWindow{}, dependency(err, "failed to load shop %s", pl.shopID)
		}
		w, err := ShopWindow(shop.OpeningHours, pl.day)
		if err != nil {
			return DayWindow{}, dependency(err, "shop %s has malformed opening hours", pl.shopID)
		}
		return w, nil
	}
	w, err := pl.provider.Schedule(pl.day)
	if err != nil {
		return DayWindow{}, dependency(err, "provider %s has a malformed schedule", pl.providerID)
	}
	return w, nil
}

// occupancy lists the active bookings competing with a placement.
func (s *DefaultBookingService) occupancy(ctx context.Context, pl placement) ([]models.Booking, error) {
	var (
		existing []models.Booking
		err      error
	)
	if pl.mode == models.ModeShop {
		existing, err = s.Bookings.ListActiveBySlotKey(ctx, pl.slotKey, pl.date)
	} else {
		existing, err = s.Bookings.ListActiveByProvider(ctx, pl.providerID, pl.date)
	}
	if err != nil {
		return nil, dependency(err, "failed to load bookings on %s", pl.date)
	}
	return existing, nil
}

// checkPlacement verifies working hours and conflicts. It must run inside a
// unit of work: it takes the schedule lock before reading occupancy.
func (s *DefaultBookingService) checkPlacement(ctx context.Context, pl placement, exclude string) error {
	if !pl.ignoreHours {
		w, err := s.window(ctx, pl)
		if err != nil {
			return err
		}
		if !w.Contains(pl.slot.Start, pl.slot.End) {
			if !w.IsAvailable {
				return validation(CodeOutsideWorkingHours, "not working on %s", pl.date)
			}
			return validation(CodeOutsideWorkingHours, "%s-%s is outside working hours %s-%s",
				FormatClock(pl.slot.Start), FormatClock(pl.slot.End), FormatClock(w.Start), FormatClock(w.End))
		}
	}

	if err := s.Bookings.LockSchedule(ctx, pl.slotKey, pl.date); err != nil {
		return dependency(err, "failed to lock schedule")
	}
	existing, err := s.occupancy(ctx, pl)
	if err != nil {
		return err
	}
	if c, taken := FirstConflict(pl.slot, existing, exclude); taken {
		return conflict(CodeSlotUnavailable, "%s-%s on %s overlaps an existing booking at %s-%s",
			FormatClock(pl.slot.Start), FormatClock(pl.slot.End), pl.date, FormatClock(c.Start()), FormatClock(c.End()))
	}
	return nil
}

// providerBusy reports whether a provider holds an active booking overlapping
// slot. Like checkPlacement it locks the provider's ledger before reading.
func (s *DefaultBookingService) providerBusy(ctx context.Context, providerID, date string, slot Interval, exclude string) (bool, error) {
	if err := s.Bookings.LockSchedule(ctx, models.ProviderSlotKey(providerID), date); err != nil {
		return false, dependency(err, "failed to lock schedule of provider %s", providerID)
	}
	existing, err := s.Bookings.ListActiveByProvider(ctx, providerID, date)
	if err != nil {
		return false, dependency(err, "failed to load bookings of provider %s", providerID)
	}
	_, busy := FirstConflict(slot, existing, exclude)
	return busy, nil
}

// chooseMode settles the delivery mode of a new booking.
func chooseMode(service *models.Service, p Provider, requested models.ServiceMode) (models.ServiceMode, error) {
	mode := requested
	if mode == "" {
		mode = service.Mode
		if mode == models.ModeBoth {
			mode = models.ModeHome
			if p.ShopID() != "" {
				mode = models.ModeShop
			}
		}
	}
	if mode != models.ModeShop && mode != models.ModeHome {
		return "", invalid("mode must be %q or %q", models.ModeShop, models.ModeHome)
	}
	if !service.Supports(mode) {
		return "", validation(CodeModeIncompatible, "service %s is not offered as %s-based", service.ID, mode)
	}
	if mode == models.ModeShop && p.ShopID() == "" {
		return "", validation(CodeModeIncompatible, "provider %s is not bound to a shop", p.ID())
	}
	return mode, nil
}

// Create validates and stores a new pending booking.
func (s *DefaultBookingService) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	log := s.logger().With(zap.String("customerID", req.CustomerID), zap.String("providerID", req.ProviderID))

	if err := req.validate(); err != nil {
		return nil, err
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	service, err := s.Catalog.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrNotFound) {
			return nil, notFound(CodeServiceNotFound, "service %s not found", req.ServiceID)
		}
		return nil, dependency(err, "failed to load service %s", req.ServiceID)
	}
	if service.Duration < minDuration {
		return nil, invalid("service %s has duration %d, minimum is %d minutes", service.ID, service.Duration, minDuration)
	}

	customer, err := s.Customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, userRepo.ErrNotFound) {
			return nil, notFound(CodeCustomerNotFound, "customer %s not found", req.CustomerID)
		}
		return nil, dependency(err, "failed to load customer %s", req.CustomerID)
	}

	provider, err := s.resolver().Resolve(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider.ID() == customer.ID {
		return nil, validation(CodeSelfBooking, "providers cannot book themselves")
	}

	mode, err := chooseMode(service, provider, req.Mode)
	if err != nil {
		return nil, err
	}
	if mode == models.ModeHome && req.Address == nil {
		return nil, invalid("home visits require an address")
	}

	now := s.now()
	start := s.at(day, req.Hour, req.Minute)
	if start.Before(now.Add(s.Policy.LeadTime)) {
		return nil, validation(CodeLeadTimeTooShort, "bookings must start at least %s from now", s.Policy.LeadTime)
	}

	shopID := ""
	if mode == models.ModeShop {
		shopID = provider.ShopID()
	}
	slot := Interval{Start: req.Hour*60 + req.Minute, End: req.Hour*60 + req.Minute + service.Duration}
	pl := newPlacement(mode, provider, shopID, req.Date, day, slot)

	var (
		created *models.Booking
		outbox  models.Outbox
	)
	err = s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		outbox = models.Outbox{}

		_, err := s.Bookings.FindCustomerActiveAt(txCtx, customer.ID, req.Date, req.Hour, req.Minute)
		switch {
		case err == nil:
			return conflict(CodeDuplicateBooking, "you already have a booking on %s at %s", req.Date, FormatClock(slot.Start))
		case !errors.Is(err, bookingRepo.ErrNotFound):
			return dependency(err, "failed to check existing bookings")
		}

		if err := s.checkPlacement(txCtx, pl, ""); err != nil {
			return err
		}

		b := &models.Booking{
			PublicID:       uuid.New().String(),
			CustomerID:     customer.ID,
			CustomerName:   customer.Name,
			ProviderID:     provider.ID(),
			ProviderName:   provider.DisplayName(),
			ProviderKind:   provider.Kind(),
			ProviderShopID: provider.ShopID(),
			ShopID:         shopID,
			SlotKey:        pl.slotKey,
			Mode:           mode,
			ServiceID:      service.ID,
			ServiceName:    service.Name,
			Price:          service.Price,
			Currency:       currencyOf(service, s.Policy),
			Duration:       service.Duration,
			Status:         models.StatusPending,
			Address:        req.Address,
			Notes:          strings.TrimSpace(req.Notes),
			PaymentStatus:  models.PaymentPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		b.SetTime(req.Date, req.Hour, req.Minute)

		if err := s.Bookings.Create(txCtx, b); err != nil {
			return dependency(err, "failed to store booking")
		}

		s.notifyCreated(txCtx, &outbox, b)
		outbox.RequestPayment(models.PaymentRequest{
			Kind:        models.PaymentAttach,
			BookingID:   b.PublicID,
			CustomerID:  b.CustomerID,
			Amount:      b.Price,
			Currency:    b.Currency,
			Description: b.ServiceName,
		})
		outbox.Record(b, now)
		created = b
		return nil
	})
	if err != nil {
		log.Info("booking rejected", zap.Error(err))
		return nil, err
	}

	s.dispatch(ctx, outbox)
	log.Info("booking created",
		zap.String("bookingID", created.PublicID),
		zap.String("slotKey", created.SlotKey),
		zap.String("date", created.Date),
		zap.Int("start", created.StartMinute))
	return created, nil
}

func currencyOf(service *models.Service, p Policy) string {
	if service.Currency != "" {
		return service.Currency
	}
	return p.Currency
}
