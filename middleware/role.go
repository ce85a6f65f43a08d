package middleware

import (
	"net/http"
	"slices"

	"bookwell/services/booking"
	"bookwell/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole admits only callers acting in one of roles. It must run after
// ActorMiddleware.
func RequireRole(roles ...booking.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "Missing caller identity")
			return
		}
		if !slices.Contains(roles, actor.Role) {
			utils.JSONError(c, http.StatusForbidden, booking.CodeForbidden, "Role "+string(actor.Role)+" may not call this endpoint")
			return
		}
		c.Next()
	}
}
