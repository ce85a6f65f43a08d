package middleware

import (
	"net/http"
	"slices"
	"strings"

	"bookwell/services/booking"
	"bookwell/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

var knownRoles = []booking.Role{
	booking.RoleCustomer,
	booking.RoleProvider,
	booking.RoleShopOwner,
	booking.RoleSystem,
}

// ActorMiddleware authenticates the bearer token and stores the caller as a
// booking.Actor in the context.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "Missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		sub, role, err := utils.ExtractIdentity(tokenString)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "Invalid token")
			return
		}
		actor := booking.Actor{ID: sub, Role: booking.Role(role)}
		if !slices.Contains(knownRoles, actor.Role) {
			utils.JSONError(c, http.StatusForbidden, booking.CodeForbidden, "Unknown role")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller.
func ActorFrom(c *gin.Context) (booking.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return booking.Actor{}, false
	}
	actor, ok := v.(booking.Actor)
	return actor, ok
}
