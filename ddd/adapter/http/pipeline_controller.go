package http

import (
	"sync"

	"github.com/gin-gonic/gin"

	"media-pipeline-service/ddd/application/app"
	"media-pipeline-service/ddd/application/cqe"
	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/errno"
	"media-pipeline-service/pkg/manager"
	"media-pipeline-service/pkg/restapi"
)

var (
	pipelineControllerOnce      sync.Once
	singletonPipelineController PipelineController
)

type PipelineControllerPlugin struct{}

func (p *PipelineControllerPlugin) Name() string {
	return "pipelineControllerPlugin"
}

func (p *PipelineControllerPlugin) MustCreateController() manager.Controller {
	assert.NotCircular()
	pipelineControllerOnce.Do(func() {
		singletonPipelineController = NewPipelineController(app.DefaultPublishApp())
	})
	assert.NotNil(singletonPipelineController)
	return singletonPipelineController
}

// PipelineController 发布, 字幕与进度查询接口
type PipelineController interface {
	manager.Controller
	Publish(ctx *gin.Context)
	GenerateCaptions(ctx *gin.Context)
	GetPipelineStatus(ctx *gin.Context)
	AbandonBatch(ctx *gin.Context)
	ImportCourse(ctx *gin.Context)
}

type pipelineControllerImpl struct {
	publishApp app.PublishApp
}

func NewPipelineController(publishApp app.PublishApp) PipelineController {
	return &pipelineControllerImpl{publishApp: publishApp}
}

func (c *pipelineControllerImpl) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	{
		courses := v1.Group("/courses/:course_id")
		{
			courses.PUT("", c.ImportCourse)                      // 同步课程快照
			courses.POST("/publish", c.Publish)                  // 发布课程
			courses.POST("/captions", c.GenerateCaptions)        // 生成字幕
			courses.GET("/pipelines/:kind", c.GetPipelineStatus) // 流水线进度
		}
		v1.POST("/batches/:batch_id/abandon", c.AbandonBatch) // 放弃派发失败的批次
	}
}

func (c *pipelineControllerImpl) Publish(ctx *gin.Context) {
	var cmd cqe.PublishCourseCmd
	if !bindOptionalJSON(ctx, &cmd) {
		return
	}
	cmd.CourseID = ctx.Param("course_id")
	if cmd.RequestedBy == "" {
		cmd.RequestedBy = ctx.GetString("requested_by")
	}
	result, err := c.publishApp.Publish(ctx.Request.Context(), &cmd)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, result)
}

func (c *pipelineControllerImpl) GenerateCaptions(ctx *gin.Context) {
	var cmd cqe.GenerateCaptionsCmd
	if !bindOptionalJSON(ctx, &cmd) {
		return
	}
	cmd.CourseID = ctx.Param("course_id")
	if cmd.RequestedBy == "" {
		cmd.RequestedBy = ctx.GetString("requested_by")
	}
	result, err := c.publishApp.GenerateCaptions(ctx.Request.Context(), &cmd)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, result)
}

func (c *pipelineControllerImpl) GetPipelineStatus(ctx *gin.Context) {
	q := cqe.PipelineStatusQuery{
		CourseID: ctx.Param("course_id"),
		Kind:     ctx.Param("kind"),
	}
	result, err := c.publishApp.GetPipelineStatus(ctx.Request.Context(), &q)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, result)
}

func (c *pipelineControllerImpl) AbandonBatch(ctx *gin.Context) {
	var cmd cqe.AbandonBatchCmd
	if !bindOptionalJSON(ctx, &cmd) {
		return
	}
	cmd.BatchID = ctx.Param("batch_id")
	result, err := c.publishApp.AbandonBatch(ctx.Request.Context(), &cmd)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, result)
}

func (c *pipelineControllerImpl) ImportCourse(ctx *gin.Context) {
	var cmd cqe.ImportCourseCmd
	if err := ctx.ShouldBindJSON(&cmd); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	cmd.CourseID = ctx.Param("course_id")
	result, err := c.publishApp.ImportCourse(ctx.Request.Context(), &cmd)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, result)
}

// bindOptionalJSON 请求体可以为空
func bindOptionalJSON(ctx *gin.Context, obj interface{}) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(obj); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return false
	}
	return true
}
