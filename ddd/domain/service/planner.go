package service

import (
	"context"
	"fmt"
	"time"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/metrics"
)

// DefaultBatchSize 每批条目数
const DefaultBatchSize = 10

// BatchPlanner 批次规划领域服务
type BatchPlanner interface {
	// Plan 删除(course, kind)已有批次, 然后按顺序切分为编号从1开始的pending批次
	Plan(ctx context.Context, courseID string, kind vo.PipelineKind, keys []string) ([]*entity.Batch, error)
}

type batchPlannerImpl struct {
	batchRepo repo.BatchRepository
	size      int
	metrics   *metrics.Collector
	now       func() time.Time
}

// NewBatchPlanner size非正时使用DefaultBatchSize
func NewBatchPlanner(batchRepo repo.BatchRepository, size int, m *metrics.Collector) BatchPlanner {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &batchPlannerImpl{batchRepo: batchRepo, size: size, metrics: m, now: time.Now}
}

func (p *batchPlannerImpl) Plan(ctx context.Context, courseID string, kind vo.PipelineKind, keys []string) ([]*entity.Batch, error) {
	now := p.now()
	chunks := Partition(keys, p.size)
	batches := make([]*entity.Batch, 0, len(chunks))
	for i, chunk := range chunks {
		batches = append(batches, entity.NewBatch(courseID, kind, i+1, chunk, now))
	}
	if err := p.batchRepo.ReplaceAll(ctx, courseID, kind, batches); err != nil {
		return nil, fmt.Errorf("failed to plan batches: %w", err)
	}
	p.metrics.BatchesPlanned(kind.String(), len(batches))
	logger.Info("Batches planned", map[string]interface{}{
		"course_id":  courseID,
		"kind":       kind.String(),
		"items":      len(keys),
		"batches":    len(batches),
		"batch_size": p.size,
	})
	return batches, nil
}

// Partition 按顺序切分, 共ceil(n/size)组
func Partition(keys []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		out = append(out, append([]string(nil), keys[start:end]...))
	}
	return out
}
