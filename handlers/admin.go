package handlers

import (
	"net/http"

	"bookwell/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler triggers remediation passes on demand.
type AdminHandler struct {
	Service booking.BookingService
}

// AutoAssignHandler handles POST /api/admin/remediation/auto-assign.
func (h *AdminHandler) AutoAssignHandler(c *gin.Context) {
	report, err := h.Service.AutoAssignStale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("manual auto-assign pass", zap.Any("report", report))
	c.JSON(http.StatusOK, report)
}

// AutoRescheduleHandler handles POST /api/admin/remediation/auto-reschedule.
func (h *AdminHandler) AutoRescheduleHandler(c *gin.Context) {
	report, err := h.Service.AutoRescheduleStale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("manual auto-reschedule pass", zap.Any("report", report))
	c.JSON(http.StatusOK, report)
}
