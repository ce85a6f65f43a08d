package booking

import (
	"context"
	"errors"
	"strings"

	bookingRepo "bookwell/database/repository/booking"
	catalogRepo "bookwell/database/repository/catalog"
	providerRepo "bookwell/database/repository/provider"
	"bookwell/models"
)

// Get returns a booking by its public identifier.
func (s *DefaultBookingService) Get(ctx context.Context, publicID string) (*models.Booking, error) {
	return s.load(ctx, publicID)
}

// List returns a page of bookings and the total number of matches.
func (s *DefaultBookingService) List(ctx context.Context, filter bookingRepo.BookingFilter) ([]models.Booking, int64, error) {
	for _, d := range []string{filter.From, filter.To} {
		if d == "" {
			continue
		}
		if _, err := s.parseDate(d); err != nil {
			return nil, 0, err
		}
	}
	items, total, err := s.Bookings.List(ctx, filter)
	if err != nil {
		return nil, 0, dependency(err, "failed to list bookings")
	}
	return items, total, nil
}

// GetFor returns a booking the actor is a party to: its customer, its
// provider, the owner of its shop, or the system.
func (s *DefaultBookingService) GetFor(ctx context.Context, actor Actor, publicID string) (*models.Booking, error) {
	b, err := s.load(ctx, publicID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role == RoleSystem:
		return b, nil
	case actor.ID == "":
	case actor.Role == RoleCustomer && b.CustomerID == actor.ID:
		return b, nil
	case (actor.Role == RoleProvider || actor.Role == RoleShopOwner) && b.ProviderID == actor.ID:
		return b, nil
	case actor.Role == RoleShopOwner:
		owns, err := s.ownsShop(ctx, actor.ID, bookingShopID(b))
		if err != nil {
			return nil, err
		}
		if owns {
			return b, nil
		}
	}
	return nil, forbidden("booking %s is not visible to %s", publicID, actor.ID)
}

// ListFor narrows filter to the bookings the actor may see and lists them.
func (s *DefaultBookingService) ListFor(ctx context.Context, actor Actor, filter bookingRepo.BookingFilter) ([]models.Booking, int64, error) {
	if actor.Role != RoleSystem && actor.ID == "" {
		return nil, 0, forbidden("missing caller identity")
	}
	switch actor.Role {
	case RoleSystem:
	case RoleCustomer:
		filter.CustomerID = actor.ID
	case RoleProvider:
		filter.ProviderID = actor.ID
	case RoleShopOwner:
		scope := &bookingRepo.OwnerScope{OwnerID: actor.ID}
		shop, err := s.Providers.GetShopByOwner(ctx, actor.ID)
		switch {
		case err == nil:
			scope.ShopID = shop.ID
		case !errors.Is(err, providerRepo.ErrNotFound):
			return nil, 0, dependency(err, "failed to load shop of owner %s", actor.ID)
		}
		filter.Owner = scope
	default:
		return nil, 0, forbidden("role %q cannot list bookings", actor.Role)
	}
	return s.List(ctx, filter)
}

// SlotQuery asks for the free slots of one provider and service on a date.
type SlotQuery struct {
	ProviderID string
	ServiceID  string
	Date       string
	Mode       models.ServiceMode
}

// AvailableSlot is one bookable start time.
type AvailableSlot struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// AvailableSlots lists the free slots of q. Slots starting before the
// minimum lead time are left out.
func (s *DefaultBookingService) AvailableSlots(ctx context.Context, q SlotQuery) ([]AvailableSlot, error) {
	if strings.TrimSpace(q.ProviderID) == "" || strings.TrimSpace(q.ServiceID) == "" {
		return nil, invalid("providerId and serviceId are required")
	}
	day, err := s.parseDate(q.Date)
	if err != nil {
		return nil, err
	}

	service, err := s.Catalog.GetServiceByID(ctx, q.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrNotFound) {
			return nil, notFound(CodeServiceNotFound, "service %s not found", q.ServiceID)
		}
		return nil, dependency(err, "failed to load service %s", q.ServiceID)
	}
	provider, err := s.resolver().Resolve(ctx, q.ProviderID)
	if err != nil {
		return nil, err
	}
	mode, err := chooseMode(service, provider, q.Mode)
	if err != nil {
		return nil, err
	}

	shopID := ""
	if mode == models.ModeShop {
		shopID = provider.ShopID()
	}
	pl := newPlacement(mode, provider, shopID, q.Date, day, Interval{})
	w, err := s.window(ctx, pl)
	if err != nil {
		return nil, err
	}
	existing, err := s.occupancy(ctx, pl)
	if err != nil {
		return nil, err
	}

	step := s.Policy.SlotStep
	if step <= 0 {
		step = DefaultPolicy().SlotStep
	}
	earliest := s.now().Add(s.Policy.LeadTime)

	slots := []AvailableSlot{}
	for slot := range FreeSlots(w, service.Duration, step, existing) {
		if s.at(day, slot.Start/60, slot.Start%60).Before(earliest) {
			continue
		}
		slots = append(slots, AvailableSlot{
			Start:  FormatClock(slot.Start),
			End:    FormatClock(slot.End),
			Hour:   slot.Start / 60,
			Minute: slot.Start % 60,
		})
	}
	return slots, nil
}
