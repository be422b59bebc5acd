package middleware

import (
	"context"

	"fileflow/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TenantMiddleware propagates the caller-supplied tenant id into the request
// context so log lines can be correlated per tenant. Authorization is out of
// scope here; the services validate tenant ids themselves.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-Id")
		if tenantID != "" {
			ctx := context.WithValue(c.Request.Context(), logger.TenantIdKey, tenantID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
