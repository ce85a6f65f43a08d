package handlers

import (
	"net/http"

	"bookwell/services/booking"
	"bookwell/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByKind = map[booking.ErrorKind]int{
	booking.KindNotFound:   http.StatusNotFound,
	booking.KindValidation: http.StatusBadRequest,
	booking.KindConflict:   http.StatusConflict,
	booking.KindForbidden:  http.StatusForbidden,
}

// respondError maps an engine error onto an HTTP response.
func respondError(c *gin.Context, err error) {
	be, ok := booking.AsError(err)
	if !ok {
		getLogger(c).Error("unexpected error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Internal Server Error")
		return
	}
	status, ok := statusByKind[be.Kind]
	if !ok {
		getLogger(c).Error("booking dependency failure", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, be.Code, "A dependency failed, please retry")
		return
	}
	utils.JSONError(c, status, be.Code, be.Message)
}

// badRequest reports a malformed request body or query.
func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, booking.CodeInvalidRequest, err.Error())
}
