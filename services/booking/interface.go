package booking

import (
	"context"
	"time"

	bookingRepo "bookwell/database/repository/booking"
	catalogRepo "bookwell/database/repository/catalog"
	providerRepo "bookwell/database/repository/provider"
	userRepo "bookwell/database/repository/user"
	"bookwell/models"

	"go.uber.org/zap"
)

// BookingService exposes the booking lifecycle use-cases.
type BookingService interface {
	Create(ctx context.Context, req CreateRequest) (*models.Booking, error)
	Get(ctx context.Context, publicID string) (*models.Booking, error)
	List(ctx context.Context, filter bookingRepo.BookingFilter) ([]models.Booking, int64, error)
	GetFor(ctx context.Context, actor Actor, publicID string) (*models.Booking, error)
	ListFor(ctx context.Context, actor Actor, filter bookingRepo.BookingFilter) ([]models.Booking, int64, error)
	AvailableSlots(ctx context.Context, q SlotQuery) ([]AvailableSlot, error)

	Accept(ctx context.Context, actor Actor, publicID string) (*models.Booking, error)
	Reject(ctx context.Context, actor Actor, publicID, reason string) (*models.Booking, error)
	Approve(ctx context.Context, actor Actor, publicID string) (*models.Booking, error)
	Reassign(ctx context.Context, actor Actor, publicID string, req ReassignRequest) (*models.Booking, error)
	Cancel(ctx context.Context, actor Actor, publicID, reason string) (*models.Booking, error)
	Complete(ctx context.Context, actor Actor, publicID string) (*models.Booking, error)
	MarkNoShow(ctx context.Context, actor Actor, publicID string) (*models.Booking, error)
	Rate(ctx context.Context, actor Actor, publicID string, rating int, review string) (*models.Booking, error)

	RecordPayment(ctx context.Context, publicID string, status models.PaymentStatus, paymentRef string) (*models.Booking, error)
	RecordRefund(ctx context.Context, publicID string) (*models.Booking, error)

	AutoAssignStale(ctx context.Context) (RemediationReport, error)
	AutoRescheduleStale(ctx context.Context) (RemediationReport, error)
}

// UnitOfWork runs fn atomically. fn may be invoked more than once.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Dispatcher hands committed side effects to their collaborators. It never
// fails the caller; delivery problems are logged by the implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, outbox models.Outbox)
}

// Policy holds the tunable rules of the engine.
type Policy struct {
	LeadTime            time.Duration
	SlotStep            int // minutes
	AutoAssignAfter     time.Duration
	AutoRescheduleAfter time.Duration
	RescheduleShift     time.Duration
	ReminderBefore      time.Duration
	BatchSize           int
	Currency            string
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		LeadTime:            time.Hour,
		SlotStep:            15,
		AutoAssignAfter:     10 * time.Minute,
		AutoRescheduleAfter: 30 * time.Minute,
		RescheduleShift:     30 * time.Minute,
		ReminderBefore:      time.Hour,
		BatchSize:           100,
		Currency:            "usd",
	}
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings   bookingRepo.BookingRepository
	Providers  providerRepo.ProviderRepository
	Catalog    catalogRepo.CatalogRepository
	Customers  userRepo.UserRepository
	Tx         UnitOfWork
	Dispatcher Dispatcher
	Policy     Policy
	Location   *time.Location
	Logger     *zap.Logger
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now().In(s.location())
	}
	return time.Now().In(s.location())
}

func (s *DefaultBookingService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultBookingService) resolver() *Resolver {
	return &Resolver{Providers: s.Providers}
}
