package middleware

import (
	"github.com/gin-gonic/gin"

	"media-pipeline-service/pkg/errno"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/restapi"
	"media-pipeline-service/pkg/signer"
)

// WebhookAuthMiddleware 校验计算服务回调的Bearer token, 未配置密钥时放行
func WebhookAuthMiddleware(s *signer.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Enabled() {
			c.Next()
			return
		}
		token, err := signer.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var claims *signer.Claims
			claims, err = s.Verify(token)
			if err == nil {
				c.Set("webhook_subject", claims.Subject)
				c.Next()
				return
			}
		}
		logger.Warn("webhook rejected", map[string]interface{}{
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		})
		restapi.Failed(c, errno.NewBizError(errno.ErrUnauthorized, err))
		c.Abort()
	}
}
