package routes

import (
	"net/http"
	"time"

	"bookwell/handlers"
	"bookwell/middleware"
	"bookwell/services/booking"
	"bookwell/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.CheckedAt.IsZero() && !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": "ok", "message": "Hi, I'm Bookwell", "health": status})
	})
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	api.Use(middleware.ActorMiddleware())
	{
		api.GET("/availability", hb.AvailableSlots)

		bookings := api.Group("/bookings")
		bookings.POST("", hb.CreateBooking)
		bookings.GET("", hb.ListBookings)
		bookings.GET("/:id", hb.GetBooking)
		bookings.POST("/:id/accept", hb.AcceptBooking)
		bookings.POST("/:id/reject", hb.RejectBooking)
		bookings.POST("/:id/approve", hb.ApproveBooking)
		bookings.POST("/:id/reassign", hb.ReassignBooking)
		bookings.POST("/:id/cancel", hb.CancelBooking)
		bookings.POST("/:id/complete", hb.CompleteBooking)
		bookings.POST("/:id/no-show", hb.MarkNoShow)
		bookings.POST("/:id/rate", hb.RateBooking)
	}
}

// RegisterPaymentRoutes registers the payment collaborator webhook. Stripe
// authenticates with a signature rather than a bearer token.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/payments/webhook", hb.PaymentWebhook)
}

// RegisterAdminRoutes sets up endpoints for operator triggered remediation.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.ActorMiddleware(), middleware.RequireRole(booking.RoleSystem))
		adminGroup.POST("/remediation/auto-assign", hb.AutoAssign)
		adminGroup.POST("/remediation/auto-reschedule", hb.AutoReschedule)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, maxRequestsPerMin int) {
	r.Use(middleware.RequestLogger(utils.GetLogger()))
	r.Use(utils.ErrorHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(maxRequestsPerMin))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
