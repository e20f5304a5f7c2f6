package app

import (
	"sync"

	"gorm.io/gorm"

	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/service"
	"media-pipeline-service/ddd/infrastructure/cache"
	"media-pipeline-service/ddd/infrastructure/compute"
	"media-pipeline-service/ddd/infrastructure/database"
	"media-pipeline-service/ddd/infrastructure/event"
	"media-pipeline-service/ddd/infrastructure/storage"
	"media-pipeline-service/internal/resource"
	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/kafka"
	"media-pipeline-service/pkg/metrics"
	"media-pipeline-service/pkg/signer"
)

var (
	singletonPipeline *Pipeline
	oncePipeline      sync.Once
)

// Pipeline 组装好的编排组件, 发布与回调应用服务共用
type Pipeline struct {
	Config       *config.Config
	Repos        *database.Repositories
	Settings     service.PipelineSettings
	Orchestrator service.Orchestrator
	Events       gateway.EventPublisher
	Metrics      *metrics.Collector
}

// PipelineDeps 外部依赖, 为nil的项按配置补齐
type PipelineDeps struct {
	Config  *config.Config
	DB      *gorm.DB
	Repos   *database.Repositories
	Storage gateway.StorageGateway
	Compute gateway.ComputeGateway
	Events  gateway.EventPublisher
	Deduper gateway.CallbackDeduper
	Metrics *metrics.Collector
}

// DefaultPipeline 由已打开的资源组装, 必须在manager.MustInitResources之后调用
func DefaultPipeline() *Pipeline {
	assert.NotCircular()
	oncePipeline.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			cfg = config.Default()
		}
		singletonPipeline = NewPipeline(resourceDeps(cfg))
	})
	assert.NotNil(singletonPipeline)
	return singletonPipeline
}

func resourceDeps(cfg *config.Config) PipelineDeps {
	deps := PipelineDeps{
		Config: cfg,
		DB:     resource.DefaultDatabaseResource().MainDB(),
	}

	m := resource.DefaultMinioResource()
	if client := m.GetClient(); client != nil {
		deps.Storage = storage.NewMinioStorage(client, m.GetBucketName(), cfg.Public.StorageBase)
	}

	if cfg.Kafka.Enabled {
		deps.Events = event.NewKafkaEventPublisher(kafka.DefaultClient(), cfg.Kafka.Topics.PipelineEvents)
	}

	if client := resource.DefaultRedisResource().Client(); client != nil {
		deps.Deduper = cache.NewRedisCallbackDeduper(client, cfg.Redis.DedupTTL)
	}

	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.NewCollector()
	}
	return deps
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	repos := deps.Repos
	if repos == nil {
		repos = database.NewRepositories(deps.DB)
	}
	if deps.Storage == nil {
		deps.Storage = storage.NewStaticStorage(cfg.Minio.Endpoint, cfg.Minio.UseSSL, cfg.Minio.BucketName, cfg.Public.StorageBase)
	}
	if deps.Compute == nil {
		s := signer.New(cfg.Compute.SigningSecret, cfg.Compute.Issuer, cfg.Compute.TokenTTL)
		deps.Compute = compute.NewHTTPComputeGateway(cfg.Compute.Endpoint, cfg.Compute.Timeout, s)
	}
	if deps.Events == nil {
		deps.Events = event.NewLogEventPublisher()
	}

	settings := service.SettingsFromConfig(cfg)
	pipelineDeps := service.PipelineDeps{
		Courses:  repos.Courses,
		Batches:  repos.Batches,
		Storage:  deps.Storage,
		Events:   deps.Events,
		Metrics:  deps.Metrics,
		Settings: settings,
	}
	return &Pipeline{
		Config:   cfg,
		Repos:    repos,
		Settings: settings,
		Orchestrator: service.NewOrchestrator(service.OrchestratorDeps{
			PipelineDeps: pipelineDeps,
			Compute:      deps.Compute,
			Deduper:      deps.Deduper,
		}),
		Events:  deps.Events,
		Metrics: deps.Metrics,
	}
}
