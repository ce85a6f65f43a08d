package handlers

import (
	"net/http"
	"strings"

	bookingRepo "bookwell/database/repository/booking"
	"bookwell/middleware"
	"bookwell/models"
	"bookwell/services/booking"
	"bookwell/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	Service booking.BookingService
}

type createBookingRequest struct {
	ProviderID string          `json:"providerId" binding:"required"`
	ServiceID  string          `json:"serviceId" binding:"required"`
	Mode       string          `json:"mode" binding:"omitempty,oneof=shop home"`
	Date       string          `json:"date" binding:"required,bookingdate"`
	Hour       *int            `json:"hour" binding:"required,min=0,max=23"`
	Minute     *int            `json:"minute" binding:"required,min=0,max=59"`
	Address    *models.Address `json:"address"`
	Notes      string          `json:"notes" binding:"max=1000"`
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type reassignRequest struct {
	ProviderID string  `json:"providerId" binding:"required"`
	Date       *string `json:"date" binding:"omitempty,bookingdate"`
	Hour       *int    `json:"hour" binding:"omitempty,min=0,max=23"`
	Minute     *int    `json:"minute" binding:"omitempty,min=0,max=59"`
	Duration   *int    `json:"duration" binding:"omitempty,min=5"`
}

type rateRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review" binding:"max=1000"`
}

type listQuery struct {
	CustomerID string `form:"customerId"`
	ProviderID string `form:"providerId"`
	ShopID     string `form:"shopId"`
	Status     string `form:"status"`
	From       string `form:"from" binding:"omitempty,bookingdate"`
	To         string `form:"to" binding:"omitempty,bookingdate"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Size       int    `form:"size" binding:"omitempty,min=1,max=100"`
}

type slotsQuery struct {
	ProviderID string `form:"providerId" binding:"required"`
	ServiceID  string `form:"serviceId" binding:"required"`
	Date       string `form:"date" binding:"required,bookingdate"`
	Mode       string `form:"mode" binding:"omitempty,oneof=shop home"`
}

// actor pulls the authenticated caller; routes always install ActorMiddleware.
func actor(c *gin.Context) (booking.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "Missing caller identity")
	}
	return a, ok
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	if caller.Role != booking.RoleCustomer {
		utils.JSONError(c, http.StatusForbidden, booking.CodeForbidden, "Only customers can book")
		return
	}
	var in createBookingRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.Service.Create(c.Request.Context(), booking.CreateRequest{
		CustomerID: caller.ID,
		ProviderID: in.ProviderID,
		ServiceID:  in.ServiceID,
		Mode:       models.ServiceMode(in.Mode),
		Date:       in.Date,
		Hour:       *in.Hour,
		Minute:     *in.Minute,
		Address:    in.Address,
		Notes:      in.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("booking created", zap.String("bookingID", b.PublicID))
	c.JSON(http.StatusCreated, b)
}

// GetBooking handles GET /api/bookings/:id for the parties of the booking.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	b, err := h.Service.GetFor(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookings handles GET /api/bookings. The service narrows the query to
// what the caller may see.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	filter := bookingRepo.BookingFilter{
		CustomerID: q.CustomerID,
		ProviderID: q.ProviderID,
		ShopID:     q.ShopID,
		From:       q.From,
		To:         q.To,
		Page:       q.Page,
		Size:       q.Size,
	}
	for _, s := range strings.Split(q.Status, ",") {
		if s = strings.TrimSpace(s); s != "" {
			filter.Statuses = append(filter.Statuses, models.BookingStatus(s))
		}
	}

	items, total, err := h.Service.ListFor(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  filter.Page,
		"size":  filter.Size,
	})
}

// AvailableSlots handles GET /api/availability.
func (h *BookingHandler) AvailableSlots(c *gin.Context) {
	var q slotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	slots, err := h.Service.AvailableSlots(c.Request.Context(), booking.SlotQuery{
		ProviderID: q.ProviderID,
		ServiceID:  q.ServiceID,
		Date:       q.Date,
		Mode:       models.ServiceMode(q.Mode),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if slots == nil {
		slots = []booking.AvailableSlot{}
	}
	c.JSON(http.StatusOK, gin.H{"date": q.Date, "slots": slots})
}

// transition runs a body-less state change on /api/bookings/:id/<action>.
func (h *BookingHandler) transition(fn func(*gin.Context, booking.Actor, string) (*models.Booking, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		b, err := fn(c, caller, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		getLogger(c).Info("booking updated",
			zap.String("bookingID", b.PublicID),
			zap.String("status", string(b.Status)))
		c.JSON(http.StatusOK, b)
	}
}

// AcceptBooking handles POST /api/bookings/:id/accept.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	h.transition(func(c *gin.Context, a booking.Actor, id string) (*models.Booking, error) {
		return h.Service.Accept(c.Request.Context(), a, id)
	})(c)
}

// RejectBooking handles POST /api/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	var in reasonRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	h.transition(func(c *gin.Context, a booking.Actor, id string) (*models.Booking, error) {
		return h.Service.Reject(c.Request.Context(), a, id, in.Reason)
	})(c)
}

// ApproveBooking handles POST /api/bookings/:id/approve.
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	h.transition(func(c *gin.Context, a booking.Actor, id string) (*models.Booking, error) {
		return h.Service.Approve(c.Request.Context(), a, id)
	})(c)
}

// ReassignBooking handles POST /api/bookings/:id/reassign.
func (h *BookingHandler) ReassignBooking(c *gin.Context) {
	var in reassignRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	h.transition(func(c *gin.Context, a booking.Actor, id string) (*models.Booking, error) {
		return h.Service.Reassign(c.Request.Context(), a, id, booking.ReassignRequest{
			ProviderID: in.ProviderID,
			Date:       in.Date,
			Hour:       in.Hour,
			Minute:     in.Minute,
			Duration:   in.Duration,
		})
	})(c)
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var in reasonRequest
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.transition(func(c *gin.Context, a booking.Actor, id string) (*models.Booking, error) {
		return h.Service.Cancel(c.Request.Context(), a, id, in.Reason)
	})(c)
}

// CompleteBooking handles POST /api/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(func(c *gin.Context, a booking.Actor, id string) (*models.Booking, error) {
		return h.Service.Complete(c.Request.Context(), a, id)
	})(c)
}

// MarkNoShow handles POST /api/bookings/:id/no-show.
func (h *BookingHandler) MarkNoShow(c *gin.Context) {
	h.transition(func(c *gin.Context, a booking.Actor, id string) (*models.Booking, error) {
		return h.Service.MarkNoShow(c.Request.Context(), a, id)
	})(c)
}

// RateBooking handles POST /api/bookings/:id/rate.
func (h *BookingHandler) RateBooking(c *gin.Context) {
	var in rateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	h.transition(func(c *gin.Context, a booking.Actor, id string) (*models.Booking, error) {
		return h.Service.Rate(c.Request.Context(), a, id, in.Rating, in.Review)
	})(c)
}
