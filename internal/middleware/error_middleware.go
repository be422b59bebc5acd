package middleware

import (
	"net/http"

	"fileflow/internal/transport/httpdto"
	"fileflow/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler is the last-resort net for errors attached via c.Error that
// no handler translated into a response. Handlers normally map domain
// sentinels to statuses themselves.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.Errorf("unhandled request error: method=%s path=%s err=%v", c.Request.Method, c.FullPath(), err)
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL"))
	}
}
