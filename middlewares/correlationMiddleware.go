package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zayar/starsync_backend/utils"
)

// CorrelationMiddleware attaches a correlation id to every request context.
// Clients may supply one via the x-correlation-id header; otherwise a fresh
// uuid is generated so log lines for one request can be tied together.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}
