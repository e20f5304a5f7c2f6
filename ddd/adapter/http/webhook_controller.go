package http

import (
	"sync"

	"github.com/gin-gonic/gin"

	"media-pipeline-service/ddd/application/app"
	"media-pipeline-service/ddd/application/cqe"
	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/errno"
	"media-pipeline-service/pkg/manager"
	"media-pipeline-service/pkg/middleware"
	"media-pipeline-service/pkg/restapi"
	"media-pipeline-service/pkg/signer"
)

var (
	webhookControllerOnce      sync.Once
	singletonWebhookController WebhookController
)

type WebhookControllerPlugin struct{}

func (p *WebhookControllerPlugin) Name() string {
	return "webhookControllerPlugin"
}

func (p *WebhookControllerPlugin) MustCreateController() manager.Controller {
	assert.NotCircular()
	webhookControllerOnce.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			cfg = config.Default()
		}
		s := signer.New(cfg.Webhook.Secret, cfg.Webhook.Issuer, 0)
		singletonWebhookController = NewWebhookController(app.DefaultWebhookApp(), s)
	})
	assert.NotNil(singletonWebhookController)
	return singletonWebhookController
}

// WebhookController 计算服务回调接口, 只在内部网络暴露
type WebhookController interface {
	manager.Controller
	TranscodeCallback(ctx *gin.Context)
	CaptionCallback(ctx *gin.Context)
}

type webhookControllerImpl struct {
	webhookApp app.WebhookApp
	signer     *signer.Signer
}

func NewWebhookController(webhookApp app.WebhookApp, s *signer.Signer) WebhookController {
	return &webhookControllerImpl{webhookApp: webhookApp, signer: s}
}

func (c *webhookControllerImpl) RegisterRoutes(engine *gin.Engine) {
	internal := engine.Group("/internal/v1/webhooks", middleware.WebhookAuthMiddleware(c.signer))
	{
		internal.POST("/transcode", c.TranscodeCallback)
		internal.POST("/captions", c.CaptionCallback)
	}
}

func (c *webhookControllerImpl) TranscodeCallback(ctx *gin.Context) {
	var cmd cqe.TranscodeCallbackCmd
	if err := ctx.ShouldBindJSON(&cmd); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	result, err := c.webhookApp.HandleTranscode(ctx.Request.Context(), &cmd)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, result)
}

func (c *webhookControllerImpl) CaptionCallback(ctx *gin.Context) {
	var cmd cqe.CaptionCallbackCmd
	if err := ctx.ShouldBindJSON(&cmd); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	result, err := c.webhookApp.HandleCaption(ctx.Request.Context(), &cmd)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, result)
}
