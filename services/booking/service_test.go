package booking

import (
	"context"
	"testing"
	"time"

	bookingRepo "bookwell/database/repository/booking"
	"bookwell/models"

	"github.com/stretchr/testify/suite"
)

type BookingServiceTestSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *BookingServiceTestSuite) SetupTest() {
	s.f = newFixture()
	s.ctx = context.Background()
}

func TestBookingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BookingServiceTestSuite))
}

func (s *BookingServiceTestSuite) create(req CreateRequest) *models.Booking {
	b, err := s.f.svc.Create(s.ctx, req)
	s.Require().NoError(err)
	return b
}

func (s *BookingServiceTestSuite) requireCode(err error, code string) {
	s.Require().Error(err)
	s.True(HasCode(err, code), "want %s, got %v", code, err)
}

func actor(id string, role Role) Actor { return Actor{ID: id, Role: role} }

func (s *BookingServiceTestSuite) TestCreateShopBookingsShareShopCapacity() {
	first := s.create(shopRequest(customerID, staffAlice, 14, 0))
	s.Equal(models.StatusPending, first.Status)
	s.Equal(shopID, first.ShopID)
	s.Equal(models.ShopSlotKey(shopID), first.SlotKey)
	s.Equal(models.ModeShop, first.Mode)
	s.Equal(30, first.Duration)
	s.Equal(25.0, first.Price)
	s.NotEmpty(first.PublicID)
	s.Equal(1, first.Version)

	_, err := s.f.svc.Create(s.ctx, shopRequest(customer2ID, staffBob, 14, 15))
	s.requireCode(err, CodeSlotUnavailable)

	second := s.create(shopRequest(customer2ID, staffBob, 14, 30))
	s.Equal(870, second.StartMinute)

	s.Equal(3, s.f.bookings.locks[models.ShopSlotKey(shopID)+"|"+testDate])
}

func (s *BookingServiceTestSuite) TestCreateEmitsNotificationsAndPaymentRequest() {
	b := s.create(shopRequest(customerID, staffAlice, 10, 0))

	s.Equal([]string{customerID}, s.f.dispatcher.recipients(NoticeCreated))
	s.ElementsMatch([]string{staffAlice, ownerID}, s.f.dispatcher.recipients(NoticeActionRequired))

	payments := s.f.dispatcher.payments()
	s.Require().Len(payments, 1)
	s.Equal(models.PaymentAttach, payments[0].Kind)
	s.Equal(b.PublicID, payments[0].BookingID)
	s.Equal(25.0, payments[0].Amount)
}

func (s *BookingServiceTestSuite) TestCreateRejectsOutsideWorkingHours() {
	_, err := s.f.svc.Create(s.ctx, shopRequest(customerID, staffAlice, 17, 45))
	s.requireCode(err, CodeOutsideWorkingHours)

	_, err = s.f.svc.Create(s.ctx, shopRequest(customerID, staffAlice, 8, 30))
	s.requireCode(err, CodeOutsideWorkingHours)

	_, err = s.f.svc.Create(s.ctx, homeRequest(customerID, freelancerID, 19, 30))
	s.requireCode(err, CodeOutsideWorkingHours)

	be, _ := AsError(err)
	s.Equal(KindValidation, be.Kind)
	s.Empty(s.f.bookings.snapshot())
}

func (s *BookingServiceTestSuite) TestCreateEnforcesLeadTime() {
	req := shopRequest(customerID, staffAlice, 8, 30)
	req.Date = "2030-01-07"
	_, err := s.f.svc.Create(s.ctx, req)
	s.requireCode(err, CodeLeadTimeTooShort)

	req.Hour, req.Minute = 9, 0
	s.create(req)
}

func (s *BookingServiceTestSuite) TestCreateRejectsDuplicateCustomerBooking() {
	s.create(shopRequest(customerID, staffAlice, 14, 0))

	_, err := s.f.svc.Create(s.ctx, homeRequest(customerID, freelancerID, 14, 0))
	s.requireCode(err, CodeDuplicateBooking)
}

func (s *BookingServiceTestSuite) TestCreateHomeBookingsKeyOnProvider() {
	first := s.create(homeRequest(customerID, freelancerID, 10, 0))
	s.Equal(models.ProviderSlotKey(freelancerID), first.SlotKey)
	s.Empty(first.ShopID)
	s.Equal("1 Main St", first.Address.Formatted)

	_, err := s.f.svc.Create(s.ctx, homeRequest(customer2ID, freelancerID, 10, 30))
	s.requireCode(err, CodeSlotUnavailable)

	s.create(homeRequest(customer2ID, freelancerID, 11, 0))
	// A shop booking with another provider does not compete with home visits.
	s.create(shopRequest(customer2ID, staffAlice, 10, 0))
}

func (s *BookingServiceTestSuite) TestCreateValidation() {
	_, err := s.f.svc.Create(s.ctx, CreateRequest{})
	s.requireCode(err, CodeInvalidRequest)

	req := shopRequest(customerID, staffAlice, 24, 0)
	_, err = s.f.svc.Create(s.ctx, req)
	s.requireCode(err, CodeInvalidRequest)

	req = shopRequest(customerID, staffAlice, 10, 0)
	req.Date = "08/01/2030"
	_, err = s.f.svc.Create(s.ctx, req)
	s.requireCode(err, CodeInvalidRequest)

	_, err = s.f.svc.Create(s.ctx, shopRequest(ownerID, ownerID, 11, 0))
	s.requireCode(err, CodeSelfBooking)

	_, err = s.f.svc.Create(s.ctx, shopRequest(customerID, freelancerID, 11, 0))
	s.requireCode(err, CodeModeIncompatible)

	req = homeRequest(customerID, freelancerID, 11, 0)
	req.Address = nil
	_, err = s.f.svc.Create(s.ctx, req)
	s.requireCode(err, CodeInvalidRequest)

	req = shopRequest(customerID, staffAlice, 11, 0)
	req.ServiceID = "missing"
	_, err = s.f.svc.Create(s.ctx, req)
	s.requireCode(err, CodeServiceNotFound)

	_, err = s.f.svc.Create(s.ctx, shopRequest("nobody", staffAlice, 11, 0))
	s.requireCode(err, CodeCustomerNotFound)

	_, err = s.f.svc.Create(s.ctx, shopRequest(customerID, "ghost", 11, 0))
	s.requireCode(err, CodeProviderNotFound)
}

func (s *BookingServiceTestSuite) TestCreateDerivesModeForFlexibleServices() {
	req := shopRequest(customerID, staffAlice, 11, 0)
	req.ServiceID = anyCutID
	b := s.create(req)
	s.Equal(models.ModeShop, b.Mode)
	s.Equal("usd", b.Currency)

	req = homeRequest(customer2ID, freelancerID, 11, 0)
	req.ServiceID = anyCutID
	b = s.create(req)
	s.Equal(models.ModeHome, b.Mode)
}

func (s *BookingServiceTestSuite) TestBookingKeepsServiceSnapshot() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))

	svc := s.f.catalog.services[haircutID]
	svc.Price = 99
	svc.Duration = 90
	svc.Name = "Deluxe"

	got, err := s.f.svc.Get(s.ctx, b.PublicID)
	s.Require().NoError(err)
	s.Equal(25.0, got.Price)
	s.Equal(30, got.Duration)
	s.Equal("Haircut", got.ServiceName)
}

func (s *BookingServiceTestSuite) TestGetUnknownBooking() {
	_, err := s.f.svc.Get(s.ctx, "nope")
	s.requireCode(err, CodeBookingNotFound)
}

func (s *BookingServiceTestSuite) seedVisibility() (shop, home, other models.Booking) {
	shop = *s.create(shopRequest(customerID, staffAlice, 14, 0))
	home = s.f.seed(models.Booking{
		PublicID:     "home-1",
		CustomerID:   customer2ID,
		ProviderID:   freelancerID,
		ProviderKind: models.KindFreelancer,
		SlotKey:      models.ProviderSlotKey(freelancerID),
		Mode:         models.ModeHome,
		Hour:         11,
		Status:       models.StatusPending,
	})
	other = s.f.seed(models.Booking{
		PublicID:       "home-2",
		CustomerID:     customer2ID,
		ProviderID:     otherStaff,
		ProviderKind:   models.KindStaff,
		ProviderShopID: "shop-2",
		SlotKey:        models.ProviderSlotKey(otherStaff),
		Mode:           models.ModeHome,
		Hour:           12,
		Status:         models.StatusPending,
	})
	return shop, home, other
}

func (s *BookingServiceTestSuite) TestGetForOnlyShowsParties() {
	shop, home, other := s.seedVisibility()

	allowed := []struct {
		actor Actor
		id    string
	}{
		{actor(customerID, RoleCustomer), shop.PublicID},
		{actor(staffAlice, RoleProvider), shop.PublicID},
		{actor(ownerID, RoleShopOwner), shop.PublicID},
		{actor("owner-2", RoleShopOwner), other.PublicID},
		{actor(freelancerID, RoleProvider), home.PublicID},
		{actor("ops", RoleSystem), home.PublicID},
	}
	for _, tc := range allowed {
		got, err := s.f.svc.GetFor(s.ctx, tc.actor, tc.id)
		s.Require().NoError(err, "%s reading %s", tc.actor.ID, tc.id)
		s.Equal(tc.id, got.PublicID)
	}

	denied := []struct {
		actor Actor
		id    string
	}{
		{actor(customer2ID, RoleCustomer), shop.PublicID},
		{actor(customerID, RoleCustomer), home.PublicID},
		{actor(staffBob, RoleProvider), shop.PublicID},
		{actor(ownerID, RoleShopOwner), home.PublicID},
		{actor(ownerID, RoleShopOwner), other.PublicID},
		{actor(staffAlice, RoleCustomer), shop.PublicID},
	}
	for _, tc := range denied {
		_, err := s.f.svc.GetFor(s.ctx, tc.actor, tc.id)
		s.requireCode(err, CodeForbidden)
	}

	_, err := s.f.svc.GetFor(s.ctx, actor(customerID, RoleCustomer), "nope")
	s.requireCode(err, CodeBookingNotFound)
}

func (s *BookingServiceTestSuite) TestListForScopesByRole() {
	shop, home, other := s.seedVisibility()
	ids := func(a Actor, f bookingRepo.BookingFilter) []string {
		items, total, err := s.f.svc.ListFor(s.ctx, a, f)
		s.Require().NoError(err)
		s.Equal(int64(len(items)), total)
		var out []string
		for _, b := range items {
			out = append(out, b.PublicID)
		}
		return out
	}

	s.ElementsMatch([]string{shop.PublicID}, ids(actor(customerID, RoleCustomer), bookingRepo.BookingFilter{CustomerID: customer2ID}))
	s.ElementsMatch([]string{home.PublicID}, ids(actor(freelancerID, RoleProvider), bookingRepo.BookingFilter{}))
	s.ElementsMatch([]string{shop.PublicID}, ids(actor(ownerID, RoleShopOwner), bookingRepo.BookingFilter{}))
	s.Empty(ids(actor(ownerID, RoleShopOwner), bookingRepo.BookingFilter{ShopID: "shop-2"}))
	s.ElementsMatch([]string{other.PublicID}, ids(actor("owner-2", RoleShopOwner), bookingRepo.BookingFilter{}))
	s.ElementsMatch([]string{shop.PublicID, home.PublicID, other.PublicID}, ids(actor("ops", RoleSystem), bookingRepo.BookingFilter{}))

	_, _, err := s.f.svc.ListFor(s.ctx, Actor{ID: "x", Role: Role("guest")}, bookingRepo.BookingFilter{})
	s.requireCode(err, CodeForbidden)
}

func (s *BookingServiceTestSuite) TestAccept() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	s.f.dispatcher.reset()

	_, err := s.f.svc.Accept(s.ctx, actor(staffBob, RoleProvider), b.PublicID)
	s.requireCode(err, CodeForbidden)

	got, err := s.f.svc.Accept(s.ctx, actor(staffAlice, RoleProvider), b.PublicID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, got.Status)
	s.Equal(2, got.Version)
	s.ElementsMatch([]string{customerID, ownerID}, s.f.dispatcher.recipients(NoticeConfirmed))

	reminders := s.f.dispatcher.reminders()
	s.Require().Len(reminders, 1)
	s.Equal(customerID, reminders[0].Notification.RecipientID)
	s.Equal(time.Date(2030, 1, 8, 13, 0, 0, 0, time.UTC), reminders[0].FireAt)

	_, err = s.f.svc.Accept(s.ctx, actor(staffAlice, RoleProvider), b.PublicID)
	s.requireCode(err, CodeInvalidTransition)
}

func (s *BookingServiceTestSuite) TestOwnerAcceptsForStaff() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	got, err := s.f.svc.Accept(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, got.Status)
}

func (s *BookingServiceTestSuite) TestRejectRoutesByProviderKind() {
	staffBooking := s.create(shopRequest(customerID, staffAlice, 14, 0))
	freeBooking := s.create(homeRequest(customerID, freelancerID, 10, 0))
	ownerBooking := s.create(shopRequest(customer2ID, ownerID, 11, 0))
	s.f.dispatcher.reset()

	_, err := s.f.svc.Reject(s.ctx, actor(staffAlice, RoleProvider), staffBooking.PublicID, "  ")
	s.requireCode(err, CodeInvalidRequest)

	got, err := s.f.svc.Reject(s.ctx, actor(staffAlice, RoleProvider), staffBooking.PublicID, "sick")
	s.Require().NoError(err)
	s.Equal(models.StatusRejectedBarber, got.Status)
	s.Equal("sick", got.RejectionReason)
	s.Equal([]string{ownerID}, s.f.dispatcher.recipients(NoticeReassignment))

	got, err = s.f.svc.Reject(s.ctx, actor(freelancerID, RoleProvider), freeBooking.PublicID, "too far")
	s.Require().NoError(err)
	s.Equal(models.StatusFreelancerRejected, got.Status)

	got, err = s.f.svc.Reject(s.ctx, actor(ownerID, RoleShopOwner), ownerBooking.PublicID, "closed early")
	s.Require().NoError(err)
	s.Equal(models.StatusShopOwnerRejected, got.Status)

	s.ElementsMatch([]string{customerID, customerID, customer2ID}, s.f.dispatcher.recipients(NoticeRejected))
}

func (s *BookingServiceTestSuite) TestApprove() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))

	_, err := s.f.svc.Approve(s.ctx, actor(staffAlice, RoleProvider), b.PublicID)
	s.requireCode(err, CodeForbidden)
	_, err = s.f.svc.Approve(s.ctx, actor("owner-2", RoleShopOwner), b.PublicID)
	s.requireCode(err, CodeForbidden)

	got, err := s.f.svc.Approve(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, got.Status)
	s.Equal(2, got.Version)

	again, err := s.f.svc.Approve(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, again.Status)
	s.Equal(2, again.Version, "approving twice writes nothing")
}

func (s *BookingServiceTestSuite) TestApproveHomeVisitByStaffWaitsForStaff() {
	req := homeRequest(customerID, staffAlice, 10, 0)
	b := s.create(req)
	s.f.dispatcher.reset()

	got, err := s.f.svc.Approve(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
	s.Equal([]string{staffAlice}, s.f.dispatcher.recipients(NoticeActionRequired))
}

func (s *BookingServiceTestSuite) TestReassignAfterStaffRejection() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	_, err := s.f.svc.Reject(s.ctx, actor(staffAlice, RoleProvider), b.PublicID, "sick")
	s.Require().NoError(err)
	s.f.dispatcher.reset()

	_, err = s.f.svc.Reassign(s.ctx, actor(staffBob, RoleProvider), b.PublicID, ReassignRequest{ProviderID: staffBob})
	s.requireCode(err, CodeForbidden)
	_, err = s.f.svc.Reassign(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID, ReassignRequest{ProviderID: otherStaff})
	s.requireCode(err, CodeProviderNotInShop)
	_, err = s.f.svc.Reassign(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID, ReassignRequest{ProviderID: freelancerID})
	s.requireCode(err, CodeProviderNotInShop)
	_, err = s.f.svc.Reassign(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID, ReassignRequest{})
	s.requireCode(err, CodeInvalidRequest)

	got, err := s.f.svc.Reassign(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID, ReassignRequest{ProviderID: staffBob})
	s.Require().NoError(err)
	s.Equal(models.StatusReassigned, got.Status)
	s.Equal(staffBob, got.ProviderID)
	s.Equal("Bob", got.ProviderName)
	s.Equal(models.ShopSlotKey(shopID), got.SlotKey)

	s.Equal([]string{customerID}, s.f.dispatcher.recipients(NoticeReassigned))
	s.Equal([]string{staffBob}, s.f.dispatcher.recipients(NoticeActionRequired))
	s.Equal([]string{staffAlice}, s.f.dispatcher.recipients(NoticeUnassigned))
}

func (s *BookingServiceTestSuite) TestReassignToOwnerConfirms() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	got, err := s.f.svc.Reassign(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID, ReassignRequest{ProviderID: ownerID})
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, got.Status)
	s.Equal(models.KindShopOwner, got.ProviderKind)
}

func (s *BookingServiceTestSuite) TestReassignWithNewTimeRevalidatesSlot() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	s.create(shopRequest(customer2ID, staffBob, 15, 0))

	hour := 15
	_, err := s.f.svc.Reassign(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID, ReassignRequest{ProviderID: staffBob, Hour: &hour})
	s.requireCode(err, CodeSlotUnavailable)

	unchanged, err := s.f.svc.Get(s.ctx, b.PublicID)
	s.Require().NoError(err)
	s.Equal(staffAlice, unchanged.ProviderID)
	s.Equal(14, unchanged.Hour)

	hour = 16
	duration := 45
	got, err := s.f.svc.Reassign(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID,
		ReassignRequest{ProviderID: staffBob, Hour: &hour, Duration: &duration})
	s.Require().NoError(err)
	s.Equal(16, got.Hour)
	s.Equal(960, got.StartMinute)
	s.Equal(45, got.Duration)

	late := 17
	_, err = s.f.svc.Reassign(s.ctx, actor(ownerID, RoleShopOwner), b.PublicID, ReassignRequest{ProviderID: staffBob, Hour: &late, Minute: &duration})
	s.Require().Error(err, "reassigned bookings are not reassignable")
}

func (s *BookingServiceTestSuite) TestCancel() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	s.f.dispatcher.reset()

	_, err := s.f.svc.Cancel(s.ctx, actor(customer2ID, RoleCustomer), b.PublicID, "")
	s.requireCode(err, CodeForbidden)

	got, err := s.f.svc.Cancel(s.ctx, actor(customerID, RoleCustomer), b.PublicID, "plans changed")
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status)
	s.Equal("plans changed", got.CancellationReason)
	s.ElementsMatch([]string{customerID, staffAlice, ownerID}, s.f.dispatcher.recipients(NoticeCancelled))
	s.Empty(s.f.dispatcher.payments(), "nothing to refund")

	// The freed slot can be booked again.
	s.create(shopRequest(customer2ID, staffBob, 14, 0))
}

func (s *BookingServiceTestSuite) TestCancelConfirmedIsRefused() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	_, err := s.f.svc.Accept(s.ctx, actor(staffAlice, RoleProvider), b.PublicID)
	s.Require().NoError(err)

	_, err = s.f.svc.Cancel(s.ctx, actor(customerID, RoleCustomer), b.PublicID, "")
	s.requireCode(err, CodeInvalidTransition)
}

func (s *BookingServiceTestSuite) TestCancelPaidBookingRequestsRefund() {
	b := s.f.seed(models.Booking{
		PublicID:      "paid-1",
		ProviderID:    staffAlice,
		ProviderKind:  models.KindStaff,
		ShopID:        shopID,
		SlotKey:       models.ShopSlotKey(shopID),
		Mode:          models.ModeShop,
		Hour:          14,
		Price:         25,
		Currency:      "usd",
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPaid,
		PaymentRef:    "pi_123",
	})

	_, err := s.f.svc.Cancel(s.ctx, actor(customerID, RoleCustomer), b.PublicID, "")
	s.Require().NoError(err)

	payments := s.f.dispatcher.payments()
	s.Require().Len(payments, 1)
	s.Equal(models.PaymentRefund, payments[0].Kind)
	s.Equal("pi_123", payments[0].PaymentRef)

	got, err := s.f.svc.RecordRefund(s.ctx, b.PublicID)
	s.Require().NoError(err)
	s.Equal(models.PaymentRefunded, got.PaymentStatus)

	again, err := s.f.svc.RecordRefund(s.ctx, b.PublicID)
	s.Require().NoError(err)
	s.Equal(got.Version, again.Version)
}

func (s *BookingServiceTestSuite) TestRecordPayment() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))

	_, err := s.f.svc.RecordPayment(s.ctx, b.PublicID, models.PaymentStatus("bogus"), "")
	s.requireCode(err, CodeInvalidRequest)

	got, err := s.f.svc.RecordPayment(s.ctx, b.PublicID, models.PaymentPaid, "pi_1")
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, got.Status)
	s.Equal(models.PaymentPaid, got.PaymentStatus)
	s.Equal("pi_1", got.PaymentRef)

	again, err := s.f.svc.RecordPayment(s.ctx, b.PublicID, models.PaymentPaid, "pi_1")
	s.Require().NoError(err)
	s.Equal(got.Version, again.Version)

	late, err := s.f.svc.RecordPayment(s.ctx, b.PublicID, models.PaymentPending, "pi_1")
	s.Require().NoError(err)
	s.Equal(models.PaymentPaid, late.PaymentStatus, "a late attach acknowledgement keeps the payment settled")

	_, err = s.f.svc.RecordRefund(s.ctx, b.PublicID)
	s.requireCode(err, CodeInvalidTransition)
}

func (s *BookingServiceTestSuite) TestPaymentAfterCancellationIsRefunded() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	_, err := s.f.svc.Cancel(s.ctx, actor(customerID, RoleCustomer), b.PublicID, "changed plans")
	s.Require().NoError(err)
	s.f.dispatcher.reset()

	got, err := s.f.svc.RecordPayment(s.ctx, b.PublicID, models.PaymentPaid, "pi_late")
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status)
	s.Equal(models.PaymentPaid, got.PaymentStatus)

	payments := s.f.dispatcher.payments()
	s.Require().Len(payments, 1)
	s.Equal(models.PaymentRefund, payments[0].Kind)
	s.Equal("pi_late", payments[0].PaymentRef)
	s.Equal(b.PublicID, payments[0].BookingID)
	s.Equal(25.0, payments[0].Amount)

	refunded, err := s.f.svc.RecordRefund(s.ctx, b.PublicID)
	s.Require().NoError(err)
	s.Equal(models.PaymentRefunded, refunded.PaymentStatus)
}

func (s *BookingServiceTestSuite) TestFailedPaymentKeepsBookingPending() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	s.f.dispatcher.reset()

	got, err := s.f.svc.RecordPayment(s.ctx, b.PublicID, models.PaymentFailed, "pi_2")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(models.PaymentFailed, got.PaymentStatus)
	s.Equal([]string{customerID}, s.f.dispatcher.recipients(NoticePaymentFailed))
}

func (s *BookingServiceTestSuite) seedConfirmed(id string, hour int) models.Booking {
	return s.f.seed(models.Booking{
		PublicID:       id,
		ProviderID:     staffAlice,
		ProviderName:   "Alice",
		ProviderKind:   models.KindStaff,
		ProviderShopID: shopID,
		ShopID:         shopID,
		SlotKey:        models.ShopSlotKey(shopID),
		Mode:           models.ModeShop,
		Hour:           hour,
		Status:         models.StatusConfirmed,
	})
}

func (s *BookingServiceTestSuite) TestRatingAggregation() {
	for i, score := range []int{5, 3, 4} {
		b := s.seedConfirmed(string(rune('a'+i)), 10+i)
		_, err := s.f.svc.Complete(s.ctx, SystemActor, b.PublicID)
		s.Require().NoError(err)
		_, err = s.f.svc.Rate(s.ctx, actor(customerID, RoleCustomer), b.PublicID, score, "ok")
		s.Require().NoError(err)
	}

	alice := s.f.providers.providers[staffAlice]
	s.InDelta(4.0, alice.Rating, 1e-9)
	s.Equal(3, alice.ReviewCount)

	shop := s.f.providers.shops[shopID]
	s.InDelta(4.0, shop.Rating, 1e-9)
	s.Equal(3, shop.ReviewCount)

	_, err := s.f.svc.Rate(s.ctx, actor(customerID, RoleCustomer), "a", 1, "")
	s.requireCode(err, CodeAlreadyRated)
}

func (s *BookingServiceTestSuite) TestRateGuards() {
	b := s.seedConfirmed("r1", 10)

	_, err := s.f.svc.Rate(s.ctx, actor(customerID, RoleCustomer), b.PublicID, 4, "")
	s.requireCode(err, CodeNotRateable)

	_, err = s.f.svc.Complete(s.ctx, actor(staffAlice, RoleProvider), b.PublicID)
	s.Require().NoError(err)

	_, err = s.f.svc.Rate(s.ctx, actor(customerID, RoleCustomer), b.PublicID, 6, "")
	s.requireCode(err, CodeInvalidRequest)
	_, err = s.f.svc.Rate(s.ctx, actor(customer2ID, RoleCustomer), b.PublicID, 4, "")
	s.requireCode(err, CodeForbidden)

	got, err := s.f.svc.Rate(s.ctx, actor(customerID, RoleCustomer), b.PublicID, 4, " great ")
	s.Require().NoError(err)
	s.Equal(4, got.Rating)
	s.Equal("great", got.Review)
	s.NotNil(got.RatedAt)
}

func (s *BookingServiceTestSuite) TestCompleteAndNoShow() {
	b := s.seedConfirmed("c1", 10)
	n := s.seedConfirmed("c2", 12)

	_, err := s.f.svc.Complete(s.ctx, actor(staffBob, RoleProvider), b.PublicID)
	s.requireCode(err, CodeForbidden)

	got, err := s.f.svc.MarkNoShow(s.ctx, actor(ownerID, RoleShopOwner), n.PublicID)
	s.Require().NoError(err)
	s.Equal(models.StatusNoShow, got.Status)

	_, err = s.f.svc.Complete(s.ctx, SystemActor, n.PublicID)
	s.requireCode(err, CodeInvalidTransition)

	pending := s.create(shopRequest(customerID, staffAlice, 15, 0))
	_, err = s.f.svc.Complete(s.ctx, SystemActor, pending.PublicID)
	s.requireCode(err, CodeInvalidTransition)
}

type conflictingBookings struct{ *memBookings }

func (conflictingBookings) Update(context.Context, *models.Booking) error {
	return bookingRepo.ErrVersionConflict
}

func (s *BookingServiceTestSuite) TestStaleWriteDispatchesNothing() {
	b := s.create(shopRequest(customerID, staffAlice, 14, 0))
	s.f.dispatcher.reset()
	s.f.svc.Bookings = conflictingBookings{s.f.bookings}

	_, err := s.f.svc.Accept(s.ctx, actor(staffAlice, RoleProvider), b.PublicID)
	s.requireCode(err, CodeStaleWrite)
	be, _ := AsError(err)
	s.Equal(KindConflict, be.Kind)
	s.Empty(s.f.dispatcher.notifications())
}

func (s *BookingServiceTestSuite) TestAvailableSlots() {
	s.create(shopRequest(customerID, staffAlice, 14, 0))

	slots, err := s.f.svc.AvailableSlots(s.ctx, SlotQuery{ProviderID: staffBob, ServiceID: haircutID, Date: testDate})
	s.Require().NoError(err)
	s.Len(slots, 32)
	s.Equal("09:00", slots[0].Start)
	s.Equal("09:30", slots[0].End)
	s.Equal("17:30", slots[len(slots)-1].Start)
	for _, sl := range slots {
		s.NotContains([]string{"13:45", "14:00", "14:15"}, sl.Start)
	}

	s.f.now = time.Date(2030, 1, 8, 10, 10, 0, 0, time.UTC)
	slots, err = s.f.svc.AvailableSlots(s.ctx, SlotQuery{ProviderID: staffBob, ServiceID: haircutID, Date: testDate})
	s.Require().NoError(err)
	s.Equal("11:15", slots[0].Start)
	s.Equal(11, slots[0].Hour)
	s.Equal(15, slots[0].Minute)
}

func (s *BookingServiceTestSuite) TestAvailableSlotsForHomeVisits() {
	slots, err := s.f.svc.AvailableSlots(s.ctx, SlotQuery{ProviderID: freelancerID, ServiceID: homeCutID, Date: testDate})
	s.Require().NoError(err)
	s.Len(slots, 45)
	s.Equal("08:00", slots[0].Start)
	s.Equal("19:00", slots[len(slots)-1].Start)

	_, err = s.f.svc.AvailableSlots(s.ctx, SlotQuery{ProviderID: freelancerID, ServiceID: homeCutID, Date: "tomorrow"})
	s.requireCode(err, CodeInvalidRequest)
}

func (s *BookingServiceTestSuite) TestList() {
	s.create(shopRequest(customerID, staffAlice, 10, 0))
	s.create(shopRequest(customer2ID, staffBob, 11, 0))

	items, total, err := s.f.svc.List(s.ctx, bookingRepo.BookingFilter{CustomerID: customerID})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(items, 1)
	s.Equal(staffAlice, items[0].ProviderID)

	_, _, err = s.f.svc.List(s.ctx, bookingRepo.BookingFilter{From: "01-01-2030"})
	s.requireCode(err, CodeInvalidRequest)
}
