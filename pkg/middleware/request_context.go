package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"media-pipeline-service/pkg/logger"
)

const (
	HeaderRequestID   = "X-Request-ID"
	HeaderRequestedBy = "X-Requested-By"
)

// RequestContextMiddleware 注入 request_id 和 requested_by，便于下游和日志使用。
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		if by := c.GetHeader(HeaderRequestedBy); by != "" {
			c.Set("requested_by", by)
		}
		c.Set("request_id", reqID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), reqID))
		c.Writer.Header().Set(HeaderRequestID, reqID)
		c.Next()
	}
}
