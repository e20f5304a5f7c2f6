package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"media-pipeline-service/ddd/application/app"
	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/manager"
	"media-pipeline-service/pkg/metrics"
)

const serviceName = "media-pipeline-service"

var (
	systemControllerOnce      sync.Once
	singletonSystemController manager.Controller
)

// SystemControllerPlugin 健康检查与指标
type SystemControllerPlugin struct{}

func (p *SystemControllerPlugin) Name() string {
	return "systemControllerPlugin"
}

func (p *SystemControllerPlugin) MustCreateController() manager.Controller {
	assert.NotCircular()
	systemControllerOnce.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			cfg = config.Default()
		}
		singletonSystemController = NewSystemController(app.DefaultPipeline().Metrics, cfg.Metrics.Path, cfg.Database.Driver)
	})
	assert.NotNil(singletonSystemController)
	return singletonSystemController
}

type systemControllerImpl struct {
	metrics     *metrics.Collector
	metricsPath string
	storage     string
	startedAt   time.Time
}

// NewSystemController collector为nil时不暴露指标接口
func NewSystemController(collector *metrics.Collector, metricsPath, storage string) manager.Controller {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &systemControllerImpl{
		metrics:     collector,
		metricsPath: metricsPath,
		storage:     storage,
		startedAt:   time.Now(),
	}
}

func (c *systemControllerImpl) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", c.health)
	if c.metrics != nil {
		engine.GET(c.metricsPath, gin.WrapH(c.metrics.Handler()))
	}
}

func (c *systemControllerImpl) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"storage": c.storage,
		"uptime":  time.Since(c.startedAt).Truncate(time.Second).String(),
	})
}
