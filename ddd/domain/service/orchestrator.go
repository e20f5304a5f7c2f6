package service

import (
	"context"
	"fmt"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/logger"
)

// RunResult 启动一次流水线运行的结果
type RunResult struct {
	Kind     vo.PipelineKind
	Keys     []string
	Batches  []*entity.Batch
	Launched *entity.Batch
}

// Orchestrator 通用批处理编排, 由PipelineDefinition参数化
type Orchestrator interface {
	Definition(kind vo.PipelineKind) (PipelineDefinition, error)
	// Collect 收集待处理条目
	Collect(course *entity.Course, kind vo.PipelineKind) ([]string, error)
	// Run 规划批次并派发第一批; keys为空时只清理旧批次
	Run(ctx context.Context, courseID string, kind vo.PipelineKind, keys []string) (*RunResult, error)
	Launcher() BatchLauncher
	Ingestor() WebhookIngestor
}

type orchestratorImpl struct {
	definitions map[vo.PipelineKind]PipelineDefinition
	planner     BatchPlanner
	launcher    BatchLauncher
	ingestor    WebhookIngestor
	events      gateway.EventPublisher
}

// OrchestratorDeps 编排所需的全部依赖
type OrchestratorDeps struct {
	PipelineDeps
	Compute gateway.ComputeGateway
	Deduper gateway.CallbackDeduper
}

// NewOrchestrator 组装planner, launcher, advancer, ingestor
func NewOrchestrator(deps OrchestratorDeps) Orchestrator {
	definitions := NewDefinitions(deps.PipelineDeps)
	launcher := NewBatchLauncher(LauncherDeps{
		PipelineDeps: deps.PipelineDeps,
		Compute:      deps.Compute,
		Definitions:  definitions,
	})
	advancer := NewPipelineAdvancer(launcher, definitions, deps.Events)
	ingestor := NewWebhookIngestor(IngestorDeps{
		PipelineDeps: deps.PipelineDeps,
		Deduper:      deps.Deduper,
		Definitions:  definitions,
		Advancer:     advancer,
	})
	return &orchestratorImpl{
		definitions: definitions,
		planner:     NewBatchPlanner(deps.Batches, deps.Settings.BatchSize, deps.Metrics),
		launcher:    launcher,
		ingestor:    ingestor,
		events:      deps.Events,
	}
}

func (o *orchestratorImpl) Definition(kind vo.PipelineKind) (PipelineDefinition, error) {
	def, ok := o.definitions[kind]
	if !ok {
		return nil, fmt.Errorf("no pipeline registered for kind %q", kind)
	}
	return def, nil
}

func (o *orchestratorImpl) Collect(course *entity.Course, kind vo.PipelineKind) ([]string, error) {
	def, err := o.Definition(kind)
	if err != nil {
		return nil, err
	}
	return def.Collect(course), nil
}

func (o *orchestratorImpl) Run(ctx context.Context, courseID string, kind vo.PipelineKind, keys []string) (*RunResult, error) {
	if _, err := o.Definition(kind); err != nil {
		return nil, err
	}
	batches, err := o.planner.Plan(ctx, courseID, kind, keys)
	if err != nil {
		return nil, err
	}
	result := &RunResult{Kind: kind, Keys: keys, Batches: batches}
	if len(batches) == 0 {
		return result, nil
	}

	publishEvent(ctx, o.events, &gateway.PipelineEvent{
		Type:     gateway.EventPipelineStarted,
		CourseID: courseID,
		Kind:     kind,
		Message:  fmt.Sprintf("%d items in %d batches", len(keys), len(batches)),
	})
	logger.Infof("Pipeline started course_id=%s kind=%s items=%d batches=%d", courseID, kind, len(keys), len(batches))

	launched, err := o.launcher.LaunchNext(ctx, courseID, kind)
	if err != nil {
		return result, err
	}
	result.Launched = launched
	return result, nil
}

func (o *orchestratorImpl) Launcher() BatchLauncher { return o.launcher }

func (o *orchestratorImpl) Ingestor() WebhookIngestor { return o.ingestor }
