package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/metrics"
)

var timeNow = time.Now

// LaunchError 计算服务拒绝或调用失败, 批次已释放回pending
type LaunchError struct {
	BatchID     string
	BatchNumber int
	Err         error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch batch %d (%s) failed: %v", e.BatchNumber, e.BatchID, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// BatchLauncher 批次派发领域服务
type BatchLauncher interface {
	// LaunchNext 占用编号最小的pending批次并派发给计算服务.
	// 没有待派发批次返回repo.ErrNoMoreBatches, 已有批次在processing返回repo.ErrBatchInFlight
	LaunchNext(ctx context.Context, courseID string, kind vo.PipelineKind) (*entity.Batch, error)
}

type batchLauncherImpl struct {
	courses     repo.CourseRepository
	batches     repo.BatchRepository
	compute     gateway.ComputeGateway
	storage     gateway.StorageGateway
	events      gateway.EventPublisher
	metrics     *metrics.Collector
	definitions map[vo.PipelineKind]PipelineDefinition
	settings    PipelineSettings
}

// LauncherDeps 派发依赖
type LauncherDeps struct {
	PipelineDeps
	Compute     gateway.ComputeGateway
	Definitions map[vo.PipelineKind]PipelineDefinition
}

func NewBatchLauncher(deps LauncherDeps) BatchLauncher {
	return &batchLauncherImpl{
		courses:     deps.Courses,
		batches:     deps.Batches,
		compute:     deps.Compute,
		storage:     deps.Storage,
		events:      deps.Events,
		metrics:     deps.Metrics,
		definitions: deps.Definitions,
		settings:    deps.Settings,
	}
}

func (l *batchLauncherImpl) LaunchNext(ctx context.Context, courseID string, kind vo.PipelineKind) (*entity.Batch, error) {
	def, ok := l.definitions[kind]
	if !ok {
		return nil, fmt.Errorf("no pipeline registered for kind %q", kind)
	}

	batch, err := l.batches.ClaimNextPending(ctx, courseID, kind, timeNow())
	if err != nil {
		return nil, err
	}

	course, err := l.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, l.fail(ctx, batch, fmt.Errorf("load course: %w", err), 0)
	}

	opts := def.LaunchOptions(course)
	req := &gateway.ComputeRequest{
		Kind:            kind,
		CorrelationID:   batch.ID(),
		ItemKeys:        batch.Items(),
		OutputPrefix:    opts.OutputPrefix,
		CallbackURL:     l.settings.CallbackURL(kind),
		SourceLanguage:  opts.SourceLanguage,
		TargetLanguages: opts.TargetLanguages,
	}
	if l.storage != nil {
		req.Bucket = l.storage.Bucket()
	}

	// 网络调用期间不持有任何锁
	start := time.Now()
	ack, err := l.compute.Launch(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err == nil && (ack == nil || !ack.Accepted) {
		err = errors.New("compute service did not accept the batch")
	}
	if err != nil {
		return nil, l.fail(ctx, batch, err, elapsed)
	}

	launched, err := l.batches.MarkLaunched(ctx, batch.ID(), timeNow())
	if err != nil {
		// 计算服务已受理, 批次仍为processing, 回调照常计数
		logger.Errorf("Mark batch launched failed batch_id=%s error=%v", batch.ID(), err)
		launched = batch
	}
	l.metrics.BatchLaunched(kind.String(), elapsed)
	logger.Info("Batch launched", map[string]interface{}{
		"course_id":    courseID,
		"kind":         kind.String(),
		"batch_id":     batch.ID(),
		"batch_number": batch.BatchNumber(),
		"items":        batch.TotalItems(),
		"job_id":       ack.JobID,
	})
	publishEvent(ctx, l.events, &gateway.PipelineEvent{
		Type:        gateway.EventBatchLaunched,
		CourseID:    courseID,
		Kind:        kind,
		BatchID:     batch.ID(),
		BatchNumber: batch.BatchNumber(),
	})
	return launched, nil
}

// fail 释放占用并返回LaunchError
func (l *batchLauncherImpl) fail(ctx context.Context, batch *entity.Batch, cause error, elapsed float64) error {
	releaseCtx := context.WithoutCancel(ctx)
	if _, err := l.batches.Release(releaseCtx, batch.ID(), cause.Error(), timeNow()); err != nil {
		logger.Errorf("Release batch failed batch_id=%s error=%v", batch.ID(), err)
	}
	l.metrics.BatchLaunchFailed(batch.Kind().String(), elapsed)
	logger.Error("Batch launch failed", map[string]interface{}{
		"course_id":    batch.CourseID(),
		"kind":         batch.Kind().String(),
		"batch_id":     batch.ID(),
		"batch_number": batch.BatchNumber(),
		"error":        cause.Error(),
	})
	publishEvent(releaseCtx, l.events, &gateway.PipelineEvent{
		Type:        gateway.EventBatchLaunchFailed,
		CourseID:    batch.CourseID(),
		Kind:        batch.Kind(),
		BatchID:     batch.ID(),
		BatchNumber: batch.BatchNumber(),
		Message:     cause.Error(),
	})
	return &LaunchError{BatchID: batch.ID(), BatchNumber: batch.BatchNumber(), Err: cause}
}
