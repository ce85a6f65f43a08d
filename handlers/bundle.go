package handlers

import (
	"bookwell/services/booking"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	CreateBooking   gin.HandlerFunc
	ListBookings    gin.HandlerFunc
	GetBooking      gin.HandlerFunc
	AvailableSlots  gin.HandlerFunc
	AcceptBooking   gin.HandlerFunc
	RejectBooking   gin.HandlerFunc
	ApproveBooking  gin.HandlerFunc
	ReassignBooking gin.HandlerFunc
	CancelBooking   gin.HandlerFunc
	CompleteBooking gin.HandlerFunc
	MarkNoShow      gin.HandlerFunc
	RateBooking     gin.HandlerFunc

	// Payment collaborator
	PaymentWebhook gin.HandlerFunc

	// Admin endpoints
	AutoAssign     gin.HandlerFunc
	AutoReschedule gin.HandlerFunc
}

// NewHandlerBundle wires every handler to the booking engine.
func NewHandlerBundle(svc booking.BookingService, webhookSecret string) *HandlerBundle {
	RegisterValidators()

	bh := &BookingHandler{Service: svc}
	wh := &PaymentWebhookHandler{Bookings: svc, Secret: webhookSecret}
	ah := &AdminHandler{Service: svc}

	return &HandlerBundle{
		CreateBooking:   bh.CreateBooking,
		ListBookings:    bh.ListBookings,
		GetBooking:      bh.GetBooking,
		AvailableSlots:  bh.AvailableSlots,
		AcceptBooking:   bh.AcceptBooking,
		RejectBooking:   bh.RejectBooking,
		ApproveBooking:  bh.ApproveBooking,
		ReassignBooking: bh.ReassignBooking,
		CancelBooking:   bh.CancelBooking,
		CompleteBooking: bh.CompleteBooking,
		MarkNoShow:      bh.MarkNoShow,
		RateBooking:     bh.RateBooking,

		PaymentWebhook: wh.HandleStripeEvent,

		AutoAssign:     ah.AutoAssignHandler,
		AutoReschedule: ah.AutoRescheduleHandler,
	}
}
